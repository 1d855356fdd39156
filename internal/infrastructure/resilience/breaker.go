package resilience

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrCircuitOpen is returned without a network attempt while the breaker
// refuses calls
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

const (
	windowSize           = 10
	failureRateThreshold = 0.5
	openStateDuration    = 30 * time.Second
	halfOpenMaxCalls     = 3
)

// CircuitBreaker is a state machine over CLOSED -> OPEN -> HALF_OPEN -> CLOSED.
// While CLOSED it keeps a sliding window of the last 10 call outcomes and opens
// once the failure rate over a full window reaches 50%. While OPEN it refuses
// calls for 30s, then admits up to 3 trial calls; 3 successes close it again
// and reset the window, any trial failure reopens it.
type CircuitBreaker struct {
	mu sync.Mutex

	state    State
	openedAt time.Time

	// sliding window of outcomes, true = failure
	window    [windowSize]bool
	windowLen int
	windowIdx int
	failures  int

	halfOpenPermits   int
	halfOpenSuccesses int

	now    func() time.Time
	logger *zap.Logger
}

func NewCircuitBreaker(logger *zap.Logger) *CircuitBreaker {
	return &CircuitBreaker{
		state:  StateClosed,
		now:    time.Now,
		logger: logger,
	}
}

// State returns the current state, applying the timed OPEN -> HALF_OPEN
// transition if it is due.
func (b *CircuitBreaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshLocked()
	return b.state
}

// Allow reports whether a call may reach the network. In HALF_OPEN it reserves
// one of the trial permits; the caller must follow up with Record.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refreshLocked()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.halfOpenPermits >= halfOpenMaxCalls {
			return ErrCircuitOpen
		}
		b.halfOpenPermits++
		return nil
	}
	return nil
}

// Record registers the outcome of a call previously admitted by Allow
func (b *CircuitBreaker) Record(failure bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.recordClosedLocked(failure)
	case StateHalfOpen:
		if failure {
			b.transitionLocked(StateOpen)
			return
		}
		b.halfOpenSuccesses++
		if b.halfOpenSuccesses >= halfOpenMaxCalls {
			b.transitionLocked(StateClosed)
		}
	case StateOpen:
		// A trial outcome arriving after the breaker already reopened
		// carries no information worth keeping.
	}
}

func (b *CircuitBreaker) recordClosedLocked(failure bool) {
	if b.windowLen == windowSize {
		// evict the oldest outcome
		if b.window[b.windowIdx] {
			b.failures--
		}
	} else {
		b.windowLen++
	}

	b.window[b.windowIdx] = failure
	if failure {
		b.failures++
	}
	b.windowIdx = (b.windowIdx + 1) % windowSize

	// The rate only counts once a full window of outcomes exists.
	if b.windowLen == windowSize &&
		float64(b.failures)/float64(windowSize) >= failureRateThreshold {
		b.transitionLocked(StateOpen)
	}
}

// refreshLocked applies the automatic OPEN -> HALF_OPEN transition once the
// wait duration has elapsed.
func (b *CircuitBreaker) refreshLocked() {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= openStateDuration {
		b.transitionLocked(StateHalfOpen)
	}
}

func (b *CircuitBreaker) transitionLocked(to State) {
	from := b.state
	b.state = to

	switch to {
	case StateOpen:
		b.openedAt = b.now()
	case StateHalfOpen:
		b.halfOpenPermits = 0
		b.halfOpenSuccesses = 0
	case StateClosed:
		b.window = [windowSize]bool{}
		b.windowLen = 0
		b.windowIdx = 0
		b.failures = 0
	}

	if b.logger != nil {
		b.logger.Warn("Circuit breaker state transition",
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
	}
}
