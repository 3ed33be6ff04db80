package bulb

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// DefaultFPS is the default scheduler cadence.
const DefaultFPS = 20

// OverlapPolicy decides what happens to a tick that fires while the
// previous frame is still in flight.
type OverlapPolicy int

const (
	// SkipIfBusy drops the tick and counts it as skipped.
	SkipIfBusy OverlapPolicy = iota

	// Coalesce remembers at most one tick and runs it as soon as the
	// in-flight frame completes. Further ticks are dropped.
	Coalesce
)

// String returns the policy name.
func (p OverlapPolicy) String() string {
	switch p {
	case SkipIfBusy:
		return "skip"
	case Coalesce:
		return "coalesce"
	default:
		return fmt.Sprintf("OverlapPolicy(%d)", int(p))
	}
}

// ParseOverlapPolicy parses "skip" or "coalesce".
func ParseOverlapPolicy(s string) (OverlapPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "skip", "skip-if-busy", "":
		return SkipIfBusy, nil
	case "coalesce":
		return Coalesce, nil
	default:
		return 0, fmt.Errorf("%w: unknown overlap policy %q", ErrInvalidConfig, s)
	}
}

// StepFunc is one render tick.
type StepFunc func(ctx context.Context) error

// Scheduler fires a step at a fixed cadence.
//
// Each step runs on its own goroutine so a slow GPU completion never holds
// up the ticker. At most one step is in flight; the OverlapPolicy decides
// what happens to ticks that arrive meanwhile. Missed ticks are never
// replayed.
type Scheduler struct {
	interval time.Duration
	policy   OverlapPolicy

	mu      sync.Mutex
	busy    bool
	pending bool
	fired   uint64
	skipped uint64
	onError func(error)
	onSkip  func()

	wg sync.WaitGroup
}

// NewScheduler creates a scheduler running at fps frames per second.
func NewScheduler(fps int, policy OverlapPolicy) (*Scheduler, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("%w: fps must be positive, got %d", ErrInvalidConfig, fps)
	}
	if policy != SkipIfBusy && policy != Coalesce {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, policy)
	}
	return &Scheduler{
		interval: time.Second / time.Duration(fps),
		policy:   policy,
	}, nil
}

// OnError registers a callback for step errors. Errors never stop the
// scheduler.
func (s *Scheduler) OnError(fn func(error)) {
	s.mu.Lock()
	s.onError = fn
	s.mu.Unlock()
}

// OnSkip registers a callback invoked for every dropped tick.
func (s *Scheduler) OnSkip(fn func()) {
	s.mu.Lock()
	s.onSkip = fn
	s.mu.Unlock()
}

// Interval returns the time between ticks.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Policy returns the overlap policy.
func (s *Scheduler) Policy() OverlapPolicy { return s.policy }

// Run fires step on every tick until ctx is cancelled, then waits for the
// in-flight step and returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context, step StepFunc) error {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		case <-t.C:
			s.Tick(ctx, step)
		}
	}
}

// Tick handles one timer tick. It reports whether the step was started
// or queued; false means the tick was dropped.
func (s *Scheduler) Tick(ctx context.Context, step StepFunc) bool {
	s.mu.Lock()
	if s.busy {
		if s.policy == Coalesce && !s.pending {
			s.pending = true
			s.mu.Unlock()
			return true
		}
		s.skipped++
		onSkip := s.onSkip
		s.mu.Unlock()
		if onSkip != nil {
			onSkip()
		}
		return false
	}
	s.busy = true
	s.fired++
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(ctx, step)
	return true
}

func (s *Scheduler) run(ctx context.Context, step StepFunc) {
	defer s.wg.Done()
	for {
		err := step(ctx)

		s.mu.Lock()
		onError := s.onError
		if s.pending && ctx.Err() == nil {
			s.pending = false
			s.fired++
			s.mu.Unlock()
			if err != nil && onError != nil {
				onError(err)
			}
			continue
		}
		s.pending = false
		s.busy = false
		s.mu.Unlock()

		if err != nil && onError != nil {
			onError(err)
		}
		return
	}
}

// Wait blocks until no step is in flight.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Busy reports whether a step is in flight.
func (s *Scheduler) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Fired returns the number of steps started.
func (s *Scheduler) Fired() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired
}

// Skipped returns the number of dropped ticks.
func (s *Scheduler) Skipped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skipped
}
