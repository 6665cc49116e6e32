package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olprint/storefront/core"
)

func newTestBreaker(threshold int, timeout time.Duration) *CircuitBreaker {
	return NewCircuitBreaker("test", core.CircuitBreakerConfig{
		Threshold:        threshold,
		Timeout:          timeout,
		HalfOpenRequests: 2,
	}, nil)
}

func TestCircuitBreakerStartsClosed(t *testing.T) {
	cb := newTestBreaker(3, time.Minute)
	assert.Equal(t, "closed", cb.GetState())
	assert.True(t, cb.CanExecute())
}

func TestCircuitBreakerOpensAtThreshold(t *testing.T) {
	cb := newTestBreaker(3, time.Minute)

	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}

	assert.Equal(t, "open", cb.GetState())
	assert.False(t, cb.CanExecute())
}

func TestCircuitBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := newTestBreaker(3, time.Minute)

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()

	assert.Equal(t, "closed", cb.GetState())
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	cb := newTestBreaker(1, 10*time.Millisecond)

	cb.RecordFailure()
	require.Equal(t, "open", cb.GetState())

	time.Sleep(20 * time.Millisecond)

	// First probe transitions to half-open
	assert.True(t, cb.CanExecute())
	assert.Equal(t, "half-open", cb.GetState())
	cb.RecordSuccess()

	// Second probe completes the quota and closes the circuit
	assert.True(t, cb.CanExecute())
	cb.RecordSuccess()
	assert.Equal(t, "closed", cb.GetState())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := newTestBreaker(1, 10*time.Millisecond)

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	require.True(t, cb.CanExecute())
	cb.RecordFailure()

	assert.Equal(t, "open", cb.GetState())
	assert.False(t, cb.CanExecute())
}

func TestExecuteRejectsWhenOpen(t *testing.T) {
	cb := newTestBreaker(1, time.Minute)
	cb.RecordFailure()

	err := cb.Execute(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, core.ErrCircuitBreakerOpen)
}

func TestExecuteIgnoresUserErrors(t *testing.T) {
	cb := newTestBreaker(1, time.Minute)

	err := cb.Execute(context.Background(), func() error {
		return core.ErrProductNotFound
	})
	require.ErrorIs(t, err, core.ErrProductNotFound)

	// Not-found is a user error; the circuit stays closed
	assert.Equal(t, "closed", cb.GetState())
}

func TestExecuteCountsInfrastructureErrors(t *testing.T) {
	cb := newTestBreaker(1, time.Minute)

	err := cb.Execute(context.Background(), func() error {
		return errors.New("connection refused")
	})
	require.Error(t, err)

	assert.Equal(t, "open", cb.GetState())
}

func TestReset(t *testing.T) {
	cb := newTestBreaker(1, time.Minute)
	cb.RecordFailure()
	require.Equal(t, "open", cb.GetState())

	cb.Reset()
	assert.Equal(t, "closed", cb.GetState())
	assert.True(t, cb.CanExecute())
}
