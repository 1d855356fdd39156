package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testBreaker returns a breaker with a controllable clock
func testBreaker() (*CircuitBreaker, *time.Time) {
	b := NewCircuitBreaker(zap.NewNop())
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return clock }
	return b, &clock
}

func record(b *CircuitBreaker, failures, successes int) {
	for i := 0; i < failures; i++ {
		b.Record(true)
	}
	for i := 0; i < successes; i++ {
		b.Record(false)
	}
}

func TestCircuitBreaker_StartsClosed(t *testing.T) {
	b, _ := testBreaker()

	assert.Equal(t, StateClosed, b.State())
	assert.NoError(t, b.Allow())
}

func TestCircuitBreaker_OpensAtThresholdOnFullWindow(t *testing.T) {
	b, _ := testBreaker()

	record(b, 5, 4)
	assert.Equal(t, StateClosed, b.State(), "nine outcomes are not a full window")

	b.Record(false)
	assert.Equal(t, StateOpen, b.State(), "5 failures out of 10 reach the threshold")
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)
}

func TestCircuitBreaker_StaysClosedBelowThreshold(t *testing.T) {
	b, _ := testBreaker()

	record(b, 4, 6)
	assert.Equal(t, StateClosed, b.State())

	// Keep the window rolling with successes; old failures get evicted.
	record(b, 0, 10)
	assert.Equal(t, StateClosed, b.State())
}

func TestCircuitBreaker_FewFailuresWithoutFullWindowDoNotTrip(t *testing.T) {
	b, _ := testBreaker()

	// 100% failure rate, but only 4 outcomes observed.
	record(b, 4, 0)
	assert.Equal(t, StateClosed, b.State())
	assert.NoError(t, b.Allow())
}

func TestCircuitBreaker_SlidingWindowEvictsOldest(t *testing.T) {
	b, _ := testBreaker()

	// Fill the window with failures first, then successes. After ten more
	// successes every failure has been evicted.
	record(b, 4, 6)
	record(b, 0, 10)

	// Now a single failure is 1/10, far below the threshold.
	b.Record(true)
	assert.Equal(t, StateClosed, b.State())
}

func TestCircuitBreaker_HalfOpenAfterWait(t *testing.T) {
	b, clock := testBreaker()
	record(b, 5, 5)
	require.Equal(t, StateOpen, b.State())

	*clock = clock.Add(29 * time.Second)
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)

	*clock = clock.Add(1 * time.Second)
	assert.Equal(t, StateHalfOpen, b.State())
	assert.NoError(t, b.Allow())
}

func TestCircuitBreaker_HalfOpenLimitsTrialCalls(t *testing.T) {
	b, clock := testBreaker()
	record(b, 5, 5)
	*clock = clock.Add(30 * time.Second)

	require.NoError(t, b.Allow())
	require.NoError(t, b.Allow())
	require.NoError(t, b.Allow())

	// The fourth concurrent trial is refused until outcomes arrive.
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)
}

func TestCircuitBreaker_ClosesAfterThreeTrialSuccesses(t *testing.T) {
	b, clock := testBreaker()
	record(b, 5, 5)
	*clock = clock.Add(30 * time.Second)

	for i := 0; i < halfOpenMaxCalls; i++ {
		require.NoError(t, b.Allow())
		b.Record(false)
	}

	assert.Equal(t, StateClosed, b.State())

	// Closing resets the window: one failure must not re-trip.
	b.Record(true)
	assert.Equal(t, StateClosed, b.State())
}

func TestCircuitBreaker_TrialFailureReopens(t *testing.T) {
	b, clock := testBreaker()
	record(b, 5, 5)
	*clock = clock.Add(30 * time.Second)

	require.NoError(t, b.Allow())
	b.Record(false)

	require.NoError(t, b.Allow())
	b.Record(true)

	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)

	// The wait starts over from the reopening.
	*clock = clock.Add(30 * time.Second)
	assert.Equal(t, StateHalfOpen, b.State())
}
