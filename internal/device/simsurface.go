package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/entrainlab/entrain/internal/present"
)

// SimSurface is a presentation surface whose pacing signal is a ticker
// at the configured refresh interval, standing in for a swap chain's
// frame-latency waitable object with one in-flight frame.
type SimSurface struct {
	refreshHz float64
	interval  time.Duration

	mu        sync.Mutex
	ticker    *time.Ticker
	presented int
}

// NewSimSurface creates an unacquired surface for the given refresh rate.
func NewSimSurface(refreshHz float64) *SimSurface {
	return &SimSurface{refreshHz: refreshHz}
}

// Acquire creates the pacing ticker. Fails for a non-positive refresh
// rate; the failure is fatal to controller initialization.
func (s *SimSurface) Acquire() error {
	if s.refreshHz <= 0 {
		return fmt.Errorf("%w: refresh rate %v", ErrBadSinkConfig, s.refreshHz)
	}
	s.interval = time.Duration(float64(time.Second) / s.refreshHz)
	s.mu.Lock()
	s.ticker = time.NewTicker(s.interval)
	s.mu.Unlock()
	return nil
}

// AwaitVSync blocks until the next refresh tick, bounded by timeout.
func (s *SimSurface) AwaitVSync(timeout time.Duration) error {
	s.mu.Lock()
	ticker := s.ticker
	s.mu.Unlock()
	if ticker == nil {
		return present.ErrVSyncTimeout
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ticker.C:
		return nil
	case <-timer.C:
		return present.ErrVSyncTimeout
	}
}

// Present counts the submitted frame; the simulated display has no
// buffer to flip.
func (s *SimSurface) Present() error {
	s.mu.Lock()
	s.presented++
	s.mu.Unlock()
	return nil
}

// Presented returns how many frames have been submitted.
func (s *SimSurface) Presented() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presented
}

// Release stops the pacing ticker.
func (s *SimSurface) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}
