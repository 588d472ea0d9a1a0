package ticker

import (
	"context"
	"sync"
	"time"
)

// Source owns at most one running tick loop. Each Start bumps a generation
// number; fn receives the generation it was started with so the caller can
// discard ticks from a loop that has since been replaced or stopped.
//
// Source does not serialize fn against Start or Stop. Callers hold their own
// lock around Start, Stop and Active, and check Active(gen) under that same
// lock inside fn.
type Source struct {
	clock Clock

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSource creates a source using clock. A nil clock uses RealClock.
func NewSource(clock Clock) *Source {
	if clock == nil {
		clock = RealClock{}
	}
	return &Source{clock: clock}
}

// Start stops any running loop and starts a new one calling fn every interval.
// It returns the generation of the new loop.
func (s *Source) Start(interval time.Duration, fn func(gen uint64)) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.gen++
	gen := s.gen

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	t := s.clock.NewTicker(interval)
	go func() {
		defer close(done)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C():
				if ctx.Err() != nil {
					return
				}
				fn(gen)
			}
		}
	}()

	return gen
}

// Stop cancels the running loop, if any. It does not wait for a tick that is
// already executing, so it is safe to call from inside fn.
func (s *Source) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Source) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	s.done = nil
	s.gen++
}

// Active reports whether gen is the generation of the running loop
func (s *Source) Active(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil && s.gen == gen
}

// Running reports whether a loop is running
func (s *Source) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Done returns a channel closed when the current loop exits, or nil when none runs
func (s *Source) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
