package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// retryWaitDuration is the fixed interval between attempts
const retryWaitDuration = 2 * time.Second

// TransientError marks a failure worth retrying: timeouts, connection drops
// and other transport-level problems
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "transient network error: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// MarkTransient wraps err as retryable
func MarkTransient(err error) error {
	return &TransientError{Err: err}
}

// IsTransient reports whether err should be retried
func IsTransient(err error) bool {
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// StatusCoder exposes the HTTP status of a remote rejection so it can be
// classified without importing the client package
type StatusCoder interface {
	HTTPStatus() int
}

// isBreakerFailure decides what counts against the sliding window: transport
// failures and 5xx responses do, 4xx responses reached the service and do not.
func isBreakerFailure(err error) bool {
	if err == nil {
		return false
	}
	if IsTransient(err) {
		return true
	}
	var sc StatusCoder
	return errors.As(err, &sc) && sc.HTTPStatus() >= 500
}

// Executor composes the retry budget with the circuit breaker. The retry
// decides how many attempts a logical operation gets; the breaker decides
// whether each attempt may reach the network at all. A breaker opening
// mid-retry short-circuits the remaining attempts with ErrCircuitOpen.
type Executor struct {
	breaker    *CircuitBreaker
	maxRetries int
	interval   time.Duration
	logger     *zap.Logger
}

// NewExecutor builds an executor allowing maxRetries additional attempts after
// the first, waiting a fixed interval between attempts.
func NewExecutor(breaker *CircuitBreaker, maxRetries int, logger *zap.Logger) *Executor {
	return &Executor{
		breaker:    breaker,
		maxRetries: maxRetries,
		interval:   retryWaitDuration,
		logger:     logger,
	}
}

// WithInterval returns a copy using the given wait between attempts
func (e *Executor) WithInterval(interval time.Duration) *Executor {
	clone := *e
	clone.interval = interval
	return &clone
}

// Execute runs op under the policy. Non-transient failures propagate
// immediately; transient ones are retried up to the budget and then surfaced
// as exhausted.
func (e *Executor) Execute(ctx context.Context, name string, op func(ctx context.Context) error) error {
	attempts := 0

	operation := func() (struct{}, error) {
		if err := e.breaker.Allow(); err != nil {
			return struct{}{}, backoff.Permanent(err)
		}

		attempts++
		err := op(ctx)
		e.breaker.Record(isBreakerFailure(err))

		if err == nil {
			return struct{}{}, nil
		}
		if !IsTransient(err) {
			return struct{}{}, backoff.Permanent(err)
		}

		e.logger.Warn("Transient failure, retrying",
			zap.String("operation", name),
			zap.Int("attempt", attempts),
			zap.Error(err),
		)
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(e.interval)),
		backoff.WithMaxTries(uint(e.maxRetries+1)),
	)
	if err != nil && IsTransient(err) {
		return fmt.Errorf("%s: retries exhausted after %d attempts: %w", name, attempts, err)
	}
	return err
}
