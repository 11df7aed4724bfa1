package batch

import (
	"sync"
	"time"
)

// Snapshot is the progress of a run after a batch finished.
type Snapshot struct {
	TotalItems       int
	ProcessedItems   int
	TotalBatches     int
	ProcessedBatches int
	Elapsed          time.Duration
}

// Percent returns the share of processed items, 0 to 100.
func (s Snapshot) Percent() float64 {
	if s.TotalItems == 0 {
		return 0
	}
	return float64(s.ProcessedItems) / float64(s.TotalItems) * 100
}

// Done reports whether every batch has finished.
func (s Snapshot) Done() bool {
	return s.ProcessedBatches >= s.TotalBatches
}

type progress struct {
	mu    sync.Mutex
	snap  Snapshot
	start time.Time
}

func newProgress(totalItems, totalBatches int) *progress {
	return &progress{
		snap:  Snapshot{TotalItems: totalItems, TotalBatches: totalBatches},
		start: time.Now(),
	}
}

func (p *progress) add(items int) Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap.ProcessedItems += items
	p.snap.ProcessedBatches++
	p.snap.Elapsed = time.Since(p.start)
	return p.snap
}
