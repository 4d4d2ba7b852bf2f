package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config holds store health check configuration.
type Config struct {
	CheckInterval time.Duration
	ProbeTimeout  time.Duration
	FailThreshold int
}

// Pinger is the probe surface of the backing store. Satisfied by
// *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ResultHook is an optional callback for recording probe results.
type ResultHook func(up bool)

// StoreChecker periodically pings the account store and tracks readiness.
// Readiness drops only after FailThreshold consecutive failures, so a
// single dropped ping does not flip /healthz.
type StoreChecker struct {
	pinger Pinger
	cfg    Config
	logger *zap.Logger

	mu        sync.Mutex
	failCount int
	ready     bool

	onResult ResultHook
}

// New creates a StoreChecker. The store is assumed ready until probes say
// otherwise.
func New(pinger Pinger, cfg Config, logger *zap.Logger) *StoreChecker {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = 15 * time.Second
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if cfg.FailThreshold == 0 {
		cfg.FailThreshold = 3
	}
	return &StoreChecker{
		pinger: pinger,
		cfg:    cfg,
		logger: logger,
		ready:  true,
	}
}

// SetResultHook configures the probe result callback.
func (s *StoreChecker) SetResultHook(fn ResultHook) {
	s.onResult = fn
}

// Ready reports whether the store answered recently enough to serve traffic.
func (s *StoreChecker) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Start runs the probe loop until done is closed.
func (s *StoreChecker) Start(done <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ProbeTimeout)
			s.Check(ctx)
			cancel()
		case <-done:
			return
		}
	}
}

// Check runs a single probe and updates readiness.
func (s *StoreChecker) Check(ctx context.Context) bool {
	err := s.pinger.Ping(ctx)
	up := err == nil

	if s.onResult != nil {
		s.onResult(up)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if up {
		if !s.ready {
			s.logger.Info("store recovered")
		}
		s.failCount = 0
		s.ready = true
		return true
	}

	s.failCount++
	if s.failCount == s.cfg.FailThreshold {
		s.ready = false
		s.logger.Warn("store unreachable, marking not ready",
			zap.Int("consecutive_failures", s.failCount),
			zap.Error(err),
		)
	} else {
		s.logger.Warn("store ping failed", zap.Error(err))
	}
	return false
}
