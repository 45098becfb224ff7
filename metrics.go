package stlindex

import (
	"sync/atomic"
	"time"
)

// Pipeline phase names reported to MetricsCollector.RecordPhase and Stats.
const (
	PhaseBuild   = "build"
	PhaseMerge   = "merge"
	PhaseCompact = "compact"
	PhaseBounds  = "bounds"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    loads  prometheus.Counter
//	    phases *prometheus.HistogramVec
//	}
//
//	func (p *PrometheusCollector) RecordPhase(phase string, d time.Duration) {
//	    p.phases.WithLabelValues(phase).Observe(d.Seconds())
//	}
type MetricsCollector interface {
	// RecordLoad is called after each load.
	// triangles and unique are zero when err is not nil.
	RecordLoad(triangles, unique int, duration time.Duration, err error)

	// RecordPhase is called after each pipeline phase.
	RecordPhase(phase string, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordPhase(string, time.Duration)         {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	LoadCount      atomic.Int64
	LoadErrors     atomic.Int64
	LoadTotalNanos atomic.Int64
	Triangles      atomic.Int64
	UniqueVertices atomic.Int64
	BuildNanos     atomic.Int64
	MergeNanos     atomic.Int64
	CompactNanos   atomic.Int64
	BoundsNanos    atomic.Int64
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(triangles, unique int, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	b.Triangles.Add(int64(triangles))
	b.UniqueVertices.Add(int64(unique))
}

// RecordPhase implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPhase(phase string, duration time.Duration) {
	switch phase {
	case PhaseBuild:
		b.BuildNanos.Add(duration.Nanoseconds())
	case PhaseMerge:
		b.MergeNanos.Add(duration.Nanoseconds())
	case PhaseCompact:
		b.CompactNanos.Add(duration.Nanoseconds())
	case PhaseBounds:
		b.BoundsNanos.Add(duration.Nanoseconds())
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	count := b.LoadCount.Load()
	var avg int64
	if count > 0 {
		avg = b.LoadTotalNanos.Load() / count
	}
	return BasicMetricsStats{
		LoadCount:      count,
		LoadErrors:     b.LoadErrors.Load(),
		LoadAvgNanos:   avg,
		Triangles:      b.Triangles.Load(),
		UniqueVertices: b.UniqueVertices.Load(),
		BuildNanos:     b.BuildNanos.Load(),
		MergeNanos:     b.MergeNanos.Load(),
		CompactNanos:   b.CompactNanos.Load(),
		BoundsNanos:    b.BoundsNanos.Load(),
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LoadCount      int64
	LoadErrors     int64
	LoadAvgNanos   int64
	Triangles      int64
	UniqueVertices int64
	BuildNanos     int64
	MergeNanos     int64
	CompactNanos   int64
	BoundsNanos    int64
}
