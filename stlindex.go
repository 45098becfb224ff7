package stlindex

import (
	"context"
	"fmt"
	"hash/maphash"
	"time"

	"github.com/hupe1980/stlindex/blobstore"
	"github.com/hupe1980/stlindex/internal/compact"
	"github.com/hupe1980/stlindex/internal/dedup"
	"github.com/hupe1980/stlindex/internal/mmap"
	"github.com/hupe1980/stlindex/internal/parallel"
	"github.com/hupe1980/stlindex/internal/resource"
	"github.com/hupe1980/stlindex/internal/stl"
	"github.com/hupe1980/stlindex/mesh"
	"github.com/hupe1980/stlindex/vertex"
)

// bytesPerVertex is the working memory a load reserves per input vertex:
// one index buffer slot and one remap table entry.
const bytesPerVertex = 8

// Stats describes one load.
type Stats struct {
	Source    string
	Triangles uint32
	Corners   uint32
	Unique    int
	Chunks    int
	Workers   int
	Ordering  Ordering
	Phases    []PhaseTiming
	Elapsed   time.Duration
}

// PhaseTiming is the wall time of one pipeline phase.
type PhaseTiming struct {
	Phase    string
	Duration time.Duration
}

// Loader converts binary STL data into indexed meshes. Loads may run
// concurrently; they share the Loader's memory, IO and concurrency limits.
type Loader struct {
	opts options
	rc   *resource.Controller
}

// NewLoader creates a Loader.
func NewLoader(optFns ...Option) *Loader {
	o := applyOptions(options{}, optFns)
	return &Loader{
		opts: o,
		rc: resource.NewController(resource.Config{
			MemoryLimitBytes:   o.memoryLimit,
			MaxConcurrentLoads: o.maxLoads,
			IOLimitBytesPerSec: o.ioLimit,
		}),
	}
}

// Load converts a binary STL buffer. It is shorthand for NewLoader(opts...).Load.
func Load(ctx context.Context, data []byte, optFns ...Option) (*mesh.Indexed, error) {
	return NewLoader(optFns...).Load(ctx, data)
}

// LoadSource converts an arbitrary vertex source.
func LoadSource(ctx context.Context, src vertex.Source, optFns ...Option) (*mesh.Indexed, error) {
	return NewLoader(optFns...).LoadSource(ctx, src)
}

// LoadFile maps and converts a binary STL file.
func LoadFile(ctx context.Context, path string, optFns ...Option) (*mesh.Indexed, error) {
	return NewLoader(optFns...).LoadFile(ctx, path)
}

// LoadBlob opens and converts a binary STL blob.
func LoadBlob(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*mesh.Indexed, error) {
	return NewLoader(optFns...).LoadBlob(ctx, store, name)
}

// Load parses data as binary STL and converts it. Malformed input fails
// before any work is scheduled. Trailing bytes after the last triangle are
// ignored.
func (l *Loader) Load(ctx context.Context, data []byte, optFns ...Option) (*mesh.Indexed, error) {
	o := applyOptions(l.opts, optFns)
	start := time.Now()

	view, err := stl.Parse(data)
	if err != nil {
		err = translateError(err)
		l.finish(ctx, o, &Stats{Source: o.name, Elapsed: time.Since(start)}, err)
		return nil, err
	}
	if t := view.Trailing(); t > 0 {
		o.logger.DebugContext(ctx, "ignoring trailing bytes", "source", o.name, "bytes", t)
	}

	return l.run(ctx, o, start, view)
}

// LoadSource converts src.
func (l *Loader) LoadSource(ctx context.Context, src vertex.Source, optFns ...Option) (*mesh.Indexed, error) {
	o := applyOptions(l.opts, optFns)
	return l.run(ctx, o, time.Now(), src)
}

// LoadFile maps the file at path and converts it. The returned mesh does
// not reference the mapping, which is released before LoadFile returns.
func (l *Loader) LoadFile(ctx context.Context, path string, optFns ...Option) (*mesh.Indexed, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("stlindex: open %s: %w", path, err)
	}
	defer func() { _ = m.Close() }()

	_ = m.Sequential()

	return l.Load(ctx, m.Bytes(), append([]Option{WithName(path)}, optFns...)...)
}

// LoadBlob opens the named blob and converts it.
func (l *Loader) LoadBlob(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*mesh.Indexed, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("stlindex: open %s: %w", name, err)
	}
	defer func() { _ = b.Close() }()

	data, err := l.ReadBlob(ctx, b)
	if err != nil {
		return nil, err
	}

	return l.Load(ctx, data, append([]Option{WithName(name)}, optFns...)...)
}

// ReadBlob returns the contents of b. Mappable blobs are returned without
// copying and stay valid until b is closed; other blobs are fetched with
// parallel ranged reads under the Loader's IO limit.
func (l *Loader) ReadBlob(ctx context.Context, b blobstore.Blob) ([]byte, error) {
	if m, ok := b.(blobstore.Mappable); ok {
		return m.Bytes()
	}

	data, err := blobstore.ReadAll(ctx, b, blobstore.ReadOptions{
		ChunkSize:   l.opts.readChunk,
		Concurrency: parallel.Workers(l.opts.workers),
		Throttle:    l.rc,
	})
	if err != nil {
		return nil, fmt.Errorf("stlindex: read blob: %w", err)
	}
	return data, nil
}

func (l *Loader) run(ctx context.Context, o options, start time.Time, src vertex.Source) (result *mesh.Indexed, err error) {
	n := src.Len()
	workers := parallel.Workers(o.workers)
	parts := o.partitions
	if parts <= 0 {
		parts = workers
	}

	stats := &Stats{
		Source:    o.name,
		Triangles: n / 3,
		Corners:   n,
		Workers:   workers,
		Ordering:  o.ordering,
	}
	defer func() {
		stats.Elapsed = time.Since(start)
		l.finish(ctx, o, stats, err)
	}()

	if err := l.rc.AcquireLoad(ctx); err != nil {
		return nil, err
	}
	defer l.rc.ReleaseLoad()

	need := bytesPerVertex * int64(n)
	if err := l.rc.AcquireMemory(need); err != nil {
		return nil, translateError(fmt.Errorf("%d vertices need %d bytes, limit %d: %w", n, need, l.rc.MemoryLimit(), err))
	}
	defer l.rc.ReleaseMemory(need)

	seed := maphash.MakeSeed()
	if o.seed != nil {
		seed = *o.seed
	}

	phase := func(name string, fn func() error) error {
		t := time.Now()
		err := fn()
		d := time.Since(t)
		stats.Phases = append(stats.Phases, PhaseTiming{Phase: name, Duration: d})
		o.logger.LogPhase(ctx, name, d, err)
		o.metricsCollector.RecordPhase(name, d)
		return err
	}

	var (
		buf    []uint32
		chunks []*dedup.Chunk
		final  *dedup.Chunk
		res    *compact.Result
		m      *mesh.Indexed
	)

	err = phase(PhaseBuild, func() error {
		ranges := dedup.Partition(n, parts)
		stats.Chunks = len(ranges)
		buf = make([]uint32, n)
		var err error
		chunks, err = dedup.BuildAll(ctx, src, seed, ranges, buf)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = phase(PhaseMerge, func() error {
		var err error
		final, err = dedup.Reduce(ctx, src, seed, chunks)
		return err
	})
	if err != nil {
		return nil, err
	}
	stats.Unique = final.Unique()

	err = phase(PhaseCompact, func() error {
		var err error
		res, err = compact.Compact(ctx, src, final, buf, compact.Options{
			Ordering: o.ordering,
			Workers:  workers,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	err = phase(PhaseBounds, func() error {
		var err error
		m, err = mesh.New(ctx, res.Vertices, res.Triangles, workers)
		return err
	})
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (l *Loader) finish(ctx context.Context, o options, stats *Stats, err error) {
	o.logger.LogLoad(ctx, stats.Source, stats, err)
	if err != nil {
		o.metricsCollector.RecordLoad(0, 0, stats.Elapsed, err)
	} else {
		o.metricsCollector.RecordLoad(int(stats.Triangles), stats.Unique, stats.Elapsed, nil)
	}
	if o.stats != nil {
		*o.stats = *stats
	}
}
