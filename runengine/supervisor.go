package runengine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Ticker is called once per supervisor tick. *Engine implements it.
type Ticker interface {
	Tick(ctx context.Context)
}

// SupervisorOption configures the supervisor.
type SupervisorOption func(*Supervisor)

// WithTickInterval sets how often countdowns are checked against the clock.
// It bounds how late a fired timer is noticed, not how fast it runs.
func WithTickInterval(d time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		if d > 0 {
			s.tickInterval = d
		}
	}
}

// Supervisor drives the countdowns of running timer steps in the background.
type Supervisor struct {
	ticker       Ticker
	log          *zap.Logger
	tickInterval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSupervisor creates a timer supervisor.
func NewSupervisor(ticker Ticker, log *zap.Logger, opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		ticker:       ticker,
		log:          log,
		tickInterval: time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the background loop. Non-blocking.
func (s *Supervisor) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.log.Warn("timer supervisor already running")
		return
	}

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.loop(childCtx, s.done)
	s.log.Info("timer supervisor started", zap.Duration("tick", s.tickInterval))
}

// Stop shuts the loop down and waits for it to exit.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.running = false
	done := s.done
	s.mu.Unlock()

	<-done
	s.log.Info("timer supervisor stopped")
}

func (s *Supervisor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ticker.Tick(ctx)
		}
	}
}
