package stlindex

import (
	"hash/maphash"
	"log/slog"

	"github.com/hupe1980/stlindex/internal/compact"
)

// Ordering selects how vertex ids are assigned in the output mesh.
type Ordering = compact.Ordering

const (
	// OrderFirstSeen numbers vertices by their first appearance in the
	// input. Output is identical across runs and worker counts.
	OrderFirstSeen = compact.OrderFirstSeen
	// OrderSet numbers vertices in hash-set order. It skips one sorting
	// pass, but the numbering changes from run to run.
	OrderSet = compact.OrderSet
)

// ParseOrdering parses "first-seen" or "set".
func ParseOrdering(s string) (Ordering, error) {
	return compact.ParseOrdering(s)
}

type options struct {
	workers          int
	partitions       int
	ordering         Ordering
	logger           *Logger
	metricsCollector MetricsCollector
	stats            *Stats
	seed             *maphash.Seed
	name             string

	memoryLimit int64
	ioLimit     int64
	maxLoads    int64
	readChunk   int64
}

// Option configures a Loader or a single load.
//
// WithMemoryLimit, WithIOLimit and WithMaxConcurrentLoads are shared by
// every load of a Loader and are ignored when passed to a single call.
type Option func(*options)

// WithWorkers sets the number of worker goroutines.
// If n <= 0, runtime.GOMAXPROCS(0) is used.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithPartitions sets how many index ranges the input is split into for
// the build phase. The default equals the worker count.
func WithPartitions(n int) Option {
	return func(o *options) {
		o.partitions = n
	}
}

// WithOrdering selects the vertex numbering. Default: OrderFirstSeen.
func WithOrdering(ord Ordering) Option {
	return func(o *options) {
		o.ordering = ord
	}
}

// WithLogger configures structured logging for loads.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := stlindex.NewJSONLogger(slog.LevelInfo)
//	m, _ := stlindex.LoadFile(ctx, "part.stl", stlindex.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring loads.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &stlindex.BasicMetricsCollector{}
//	loader := stlindex.NewLoader(stlindex.WithMetricsCollector(metrics))
//	// ... load meshes ...
//	stats := metrics.GetStats()
//	fmt.Printf("Loads: %d, Avg latency: %dns\n", stats.LoadCount, stats.LoadAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithStats makes the load write its statistics to s.
// s must not be shared between concurrent loads.
func WithStats(s *Stats) Option {
	return func(o *options) {
		o.stats = s
	}
}

// WithSeed fixes the hash seed. Loads otherwise draw a fresh seed, which
// changes the vertex numbering of OrderSet between runs.
func WithSeed(seed maphash.Seed) Option {
	return func(o *options) {
		o.seed = &seed
	}
}

// WithName sets the source name used in logs and Stats.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithMemoryLimit bounds the working memory of concurrent loads in bytes.
// A load needs 8 bytes per input vertex; loads that would exceed the limit
// fail with ErrMemoryLimitExceeded. Zero means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithIOLimit throttles blob reads to the given bytes per second.
// Zero means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithMaxConcurrentLoads bounds how many loads of a Loader run at once.
// Zero means unlimited.
func WithMaxConcurrentLoads(n int64) Option {
	return func(o *options) {
		o.maxLoads = n
	}
}

// WithReadChunkSize sets the ranged read size used for blobs that cannot
// be memory mapped.
func WithReadChunkSize(bytes int64) Option {
	return func(o *options) {
		o.readChunk = bytes
	}
}

func applyOptions(base options, optFns []Option) options {
	o := base
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	return o
}
