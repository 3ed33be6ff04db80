package bulb

import (
	"sync"
	"time"
)

// StatsSnapshot is a point-in-time copy of FrameStats.
type StatsSnapshot struct {
	// Frames is the number of completed submissions in the mean.
	Frames uint64
	// MeanLatency is the running mean of submission-to-completion latency.
	MeanLatency time.Duration
	// LastLatency is the latency of the most recent completed submission.
	LastLatency time.Duration
	// Failures counts frames whose render step returned an error.
	Failures uint64
	// Skipped counts scheduler ticks dropped because a frame was in flight.
	Skipped uint64
	// Paused mirrors the controller's pause flag.
	Paused bool
}

// FrameStats keeps an incremental running mean of frame latency.
// The mean is never recomputed from history. Safe for concurrent use.
type FrameStats struct {
	mu       sync.Mutex
	n        uint64
	mean     float64 // nanoseconds
	last     time.Duration
	failures uint64
	skipped  uint64
}

// Record folds one latency sample into the mean:
// mean' = (mean*n + d) / (n+1).
func (s *FrameStats) Record(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mean = (s.mean*float64(s.n) + float64(d)) / float64(s.n+1)
	s.n++
	s.last = d
}

// RecordFailure counts a failed frame.
func (s *FrameStats) RecordFailure() {
	s.mu.Lock()
	s.failures++
	s.mu.Unlock()
}

// RecordSkipped counts a dropped tick.
func (s *FrameStats) RecordSkipped() {
	s.mu.Lock()
	s.skipped++
	s.mu.Unlock()
}

// Mean returns the running mean latency and the sample count.
func (s *FrameStats) Mean() (time.Duration, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(s.mean), s.n
}

// Snapshot returns a copy of all counters. Paused is left false; the
// Controller fills it in.
func (s *FrameStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsSnapshot{
		Frames:      s.n,
		MeanLatency: time.Duration(s.mean),
		LastLatency: s.last,
		Failures:    s.failures,
		Skipped:     s.skipped,
	}
}
