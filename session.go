package entrain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/entrainlab/entrain/internal/present"
	"github.com/entrainlab/entrain/internal/synth"
	"github.com/entrainlab/entrain/internal/telemetry"
)

// Session lifecycle errors.
var (
	// ErrSessionRunning indicates Start on an already-started session.
	ErrSessionRunning = errors.New("session already started")

	// ErrSessionDone indicates Start on a session that already ran;
	// sessions are single-use, construct a new one to run again.
	ErrSessionDone = errors.New("session already ran")
)

// Session wires one audio engine, one presentation controller and one
// telemetry recorder into a live stimulation run. A session is
// single-use: Start once, Stop once, then read the summary.
type Session struct {
	cfg      StimulationConfig
	recorder *telemetry.Recorder
	engine   *synth.Engine
	ctrl     *present.Controller
	surface  present.Surface

	mu      sync.Mutex
	started bool
	stopped bool

	halt     chan struct{}
	haltOnce sync.Once
	done     chan struct{}

	// runErr is the presentation loop's exit error; valid after done
	// is closed.
	runErr error
}

// NewSession validates the configuration and builds the subsystems
// around the supplied device collaborators. Nothing is started and no
// device resources are acquired yet.
func NewSession(cfg StimulationConfig, sink synth.Sink, surface present.Surface) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	recorder := telemetry.NewRecorder(cfg.RefreshRate)
	engine, err := synth.NewEngine(cfg.synthParams(), sink)
	if err != nil {
		return nil, fmt.Errorf("entrain: build audio engine: %w", err)
	}
	return &Session{
		cfg:      cfg,
		recorder: recorder,
		engine:   engine,
		ctrl:     present.NewController(recorder),
		surface:  surface,
		halt:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Config returns the immutable session configuration.
func (s *Session) Config() StimulationConfig {
	return s.cfg
}

// Start launches both real-time loops. Device acquisition failures are
// fatal, returned before any loop is left running, and never retried;
// callers construct a new session to try again. The context cancels the
// session like Stop does.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		if s.stopped {
			return ErrSessionDone
		}
		return ErrSessionRunning
	}

	if err := s.engine.Start(); err != nil {
		return err
	}
	if err := s.ctrl.Initialize(s.surface); err != nil {
		// Roll back the audio engine so no thread outlives a failed
		// startup.
		_ = s.engine.Stop()
		return err
	}
	s.started = true

	go func() {
		defer close(s.done)
		s.runErr = s.ctrl.Run(func() bool {
			select {
			case <-ctx.Done():
				return false
			case <-s.halt:
				return false
			default:
				return true
			}
		})
	}()
	return nil
}

// Stop cancels both loops and joins them. Both observe cancellation
// within one iteration: the presentation loop at its next pacing slot,
// the audio loop at its next buffer fill. Stop on a never-started or
// already-stopped session is a no-op.
func (s *Session) Stop() error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	s.haltOnce.Do(func() { close(s.halt) })
	<-s.done
	engineErr := s.engine.Stop()
	return errors.Join(s.runErr, engineErr)
}

// Summary derives session statistics from all frames recorded so far.
// Valid at any time; an immediately-stopped session yields the zero
// summary, which is a successful empty run, not a failure.
func (s *Session) Summary() telemetry.SessionSummary {
	return s.recorder.Summarize()
}

// Recorder exposes the session's telemetry for inspection.
func (s *Session) Recorder() *telemetry.Recorder {
	return s.recorder
}

// Export writes the per-frame telemetry CSV to path.
func (s *Session) Export(path string) error {
	return s.recorder.Export(path)
}
