package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/olprint/storefront/core"
)

// CircuitState represents the state of the circuit breaker
type CircuitState int

const (
	// StateClosed allows all requests through
	StateClosed CircuitState = iota
	// StateOpen blocks all requests
	StateOpen
	// StateHalfOpen allows limited requests for testing
	StateHalfOpen
)

// String returns the string representation of the state
func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrorClassifier determines which errors count toward breaker thresholds
type ErrorClassifier func(error) bool

// DefaultErrorClassifier only counts infrastructure errors, not user errors
func DefaultErrorClassifier(err error) bool {
	if err == nil {
		return false
	}
	// Configuration and not-found conditions are user errors
	if core.IsConfigurationError(err) || core.IsNotFound(err) {
		return false
	}
	// Context cancellation means the client gave up
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

// CircuitBreaker protects the hosted API from repeated calls while it is
// failing. Consecutive failures beyond the threshold open the circuit;
// after the timeout a limited number of half-open probes decide whether
// to close it again.
type CircuitBreaker struct {
	name       string
	threshold  int
	timeout    time.Duration
	halfOpen   int
	classifier ErrorClassifier
	logger     core.Logger

	mu            sync.Mutex
	state         CircuitState
	failures      int
	probes        int
	probeFailures int
	openedAt      time.Time
}

// NewCircuitBreaker creates a breaker from configuration
func NewCircuitBreaker(name string, cfg core.CircuitBreakerConfig, logger core.Logger) *CircuitBreaker {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = 5
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	halfOpen := cfg.HalfOpenRequests
	if halfOpen <= 0 {
		halfOpen = 3
	}

	return &CircuitBreaker{
		name:       name,
		threshold:  threshold,
		timeout:    timeout,
		halfOpen:   halfOpen,
		classifier: DefaultErrorClassifier,
		logger:     logger,
		state:      StateClosed,
	}
}

// SetErrorClassifier overrides which errors count as failures
func (cb *CircuitBreaker) SetErrorClassifier(classifier ErrorClassifier) {
	if classifier != nil {
		cb.classifier = classifier
	}
}

// Execute runs fn under circuit breaker protection
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if !cb.CanExecute() {
		return core.ErrCircuitBreakerOpen
	}

	err := fn()
	if cb.classifier(err) {
		cb.RecordFailure()
		return err
	}
	cb.RecordSuccess()
	return err
}

// CanExecute reports whether a request may proceed
func (cb *CircuitBreaker) CanExecute() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(cb.openedAt) >= cb.timeout {
			cb.transition(StateHalfOpen)
			cb.probes = 1
			return true
		}
		return false
	case StateHalfOpen:
		if cb.probes < cb.halfOpen {
			cb.probes++
			return true
		}
		return false
	}
	return false
}

// RecordSuccess records a successful call
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		// All probes must finish before the circuit closes
		if cb.probes >= cb.halfOpen && cb.probeFailures == 0 {
			cb.transition(StateClosed)
			cb.failures = 0
		}
	}
}

// RecordFailure records a failed call
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.threshold {
			cb.transition(StateOpen)
			cb.openedAt = time.Now()
		}
	case StateHalfOpen:
		cb.probeFailures++
		cb.transition(StateOpen)
		cb.openedAt = time.Now()
	}
}

// GetState returns the current state as a string
func (cb *CircuitBreaker) GetState() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state.String()
}

// Reset returns the breaker to the closed state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transition(StateClosed)
	cb.failures = 0
	cb.probes = 0
	cb.probeFailures = 0
}

// transition must be called with the mutex held
func (cb *CircuitBreaker) transition(newState CircuitState) {
	if cb.state == newState {
		return
	}
	from := cb.state
	cb.state = newState
	if newState == StateHalfOpen {
		cb.probeFailures = 0
	}
	cb.logger.Info("Circuit breaker state change", map[string]interface{}{
		"operation": "circuit_state_change",
		"breaker":   cb.name,
		"from":      from.String(),
		"to":        newState.String(),
		"failures":  cb.failures,
	})
}
