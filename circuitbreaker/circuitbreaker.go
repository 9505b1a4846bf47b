package circuitbreaker

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/alorle/iptv-guide/logging"
	"github.com/alorle/iptv-guide/metrics"
)

// State represents the current state of the circuit breaker
type State int

const (
	// StateClosed means the circuit is operating normally
	StateClosed State = iota
	// StateOpen means the circuit is blocking all requests
	StateOpen
	// StateHalfOpen means the circuit is testing if it can close
	StateHalfOpen
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

// Config contains the configuration for a circuit breaker
type Config struct {
	FailureThreshold int           // Consecutive failures that open the circuit
	Timeout          time.Duration // Time spent OPEN before trial requests are let through
	HalfOpenRequests int           // Trial requests allowed, and required to succeed, in HALF-OPEN
	Logger           *slog.Logger  // Logger for state changes (optional)
	Host             string        // Upstream host guarded by this breaker (optional)

	// IsFailure reports whether an error says something about the upstream's
	// health. Errors it rejects count as successes: the upstream answered.
	// Nil counts every error.
	IsFailure func(error) bool
}

// CircuitBreaker guards calls to one upstream
type CircuitBreaker interface {
	// Execute runs fn unless the circuit rejects the call
	Execute(fn func() error) error
	// State returns the current state
	State() State
	// Reset closes the circuit and clears its counters
	Reset()
}

var (
	// ErrCircuitOpen is returned while the circuit is OPEN
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrHalfOpenLimitReached is returned when every HALF-OPEN trial slot is taken
	ErrHalfOpenLimitReached = errors.New("circuit breaker half-open request limit reached")
)

type breaker struct {
	config Config
	mu     sync.RWMutex

	state     State
	failures  int // consecutive, CLOSED only
	trials    int // HALF-OPEN slots handed out
	successes int // HALF-OPEN trials that succeeded
	openedAt  time.Time
	logger    *slog.Logger
	host      string
}

// New creates a closed circuit breaker. Zero config values fall back to
// 5 failures, a 30s timeout and 1 trial request.
func New(cfg Config) CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HalfOpenRequests <= 0 {
		cfg.HalfOpenRequests = 1
	}

	return &breaker{
		config: cfg,
		state:  StateClosed,
		logger: cfg.Logger,
		host:   cfg.Host,
	}
}

func (b *breaker) Execute(fn func() error) error {
	if err := b.acquire(); err != nil {
		return err
	}
	err := fn()
	b.record(err)
	return err
}

// acquire admits or rejects a call. An OPEN circuit whose timeout elapsed
// moves to HALF-OPEN here, and admitted HALF-OPEN calls take a trial slot.
func (b *breaker) acquire() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && time.Since(b.openedAt) >= b.config.Timeout {
		b.transitionTo(StateHalfOpen)
	}

	switch b.state {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.trials >= b.config.HalfOpenRequests {
			return ErrHalfOpenLimitReached
		}
		b.trials++
	}
	return nil
}

// record applies the outcome of an admitted call
func (b *breaker) record(err error) {
	failed := err != nil && (b.config.IsFailure == nil || b.config.IsFailure(err))

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		if !failed {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.config.FailureThreshold {
			b.transitionTo(StateOpen)
		}

	case StateHalfOpen:
		if failed {
			b.transitionTo(StateOpen)
			return
		}
		b.successes++
		if b.successes >= b.config.HalfOpenRequests {
			b.transitionTo(StateClosed)
		}
	}
	// OPEN: another call already tripped the circuit; nothing to add
}

func (b *breaker) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

func (b *breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transitionTo(StateClosed)
}

// transitionTo moves to newState and resets the counters it owns.
// The caller holds b.mu.
func (b *breaker) transitionTo(newState State) {
	if b.state == newState {
		return
	}

	oldState := b.state
	b.state = newState
	b.trials = 0
	b.successes = 0

	switch newState {
	case StateClosed:
		b.failures = 0
		b.openedAt = time.Time{}
	case StateOpen:
		b.openedAt = time.Now()
	}

	if b.logger != nil {
		logging.LogCircuitBreakerChange(b.logger, oldState.String(), newState.String(), b.host)
	}
	if b.host != "" {
		metrics.SetCircuitBreakerState(b.host, newState.String())
		if newState == StateOpen {
			metrics.RecordCircuitBreakerTrip(b.host)
		}
	}
}
