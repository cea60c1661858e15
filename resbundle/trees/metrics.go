package trees

import (
	"sync/atomic"
	"time"
)

// TreeMetrics is a point-in-time snapshot of a tree's counters.
type TreeMetrics struct {
	Resources int
	Variants  int64
	Puts      int64
	Resolves  int64
	Hits      int64
	Misses    int64
	Created   time.Time
	SealedAt  time.Time
	// LoadTime is the time from creation to seal.
	LoadTime time.Duration
}

// MetricsCollector counts tree operations. Every counter is atomic so the
// read path of a sealed tree stays lock-free.
type MetricsCollector struct {
	variants atomic.Int64
	puts     atomic.Int64
	resolves atomic.Int64
	hits     atomic.Int64
	misses   atomic.Int64
	started  time.Time
	sealedAt atomic.Value // time.Time
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{started: time.Now()}
}

func (mc *MetricsCollector) recordPut(added bool) {
	mc.puts.Add(1)
	if added {
		mc.variants.Add(1)
	}
}

func (mc *MetricsCollector) recordResolve(hit bool) {
	mc.resolves.Add(1)
	if hit {
		mc.hits.Add(1)
	} else {
		mc.misses.Add(1)
	}
}

func (mc *MetricsCollector) recordSeal() {
	mc.sealedAt.CompareAndSwap(nil, time.Now())
}

// Snapshot returns the current counters. resources is filled in by the tree.
func (mc *MetricsCollector) Snapshot(resources int) TreeMetrics {
	m := TreeMetrics{
		Resources: resources,
		Variants:  mc.variants.Load(),
		Puts:      mc.puts.Load(),
		Resolves:  mc.resolves.Load(),
		Hits:      mc.hits.Load(),
		Misses:    mc.misses.Load(),
		Created:   mc.started,
	}
	if sealed, ok := mc.sealedAt.Load().(time.Time); ok {
		m.SealedAt = sealed
		m.LoadTime = sealed.Sub(mc.started)
	}
	return m
}
