package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-insights/internal/observability/telemetry"
)

// Settings configures the circuit breaker
type Settings struct {
	// Name identifies the circuit breaker
	Name string

	// MaxRequests is the maximum number of requests allowed to pass through
	// when the circuit breaker is half-open
	MaxRequests uint32

	// Interval is the cyclic period of the closed state
	// for the circuit breaker to clear the internal counts
	Interval time.Duration

	// Timeout is the period of the open state
	// after which the state becomes half-open
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures before opening the circuit
	FailureThreshold uint32

	// Retries is how many times a failed call is retried before it counts
	// against the breaker. RetryDelay doubles after each attempt.
	Retries    int
	RetryDelay time.Duration
}

// DefaultSettings returns default circuit breaker settings
func DefaultSettings() Settings {
	return Settings{
		MaxRequests:      3,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		Retries:          2,
		RetryDelay:       100 * time.Millisecond,
	}
}

func (s Settings) withDefaults() Settings {
	def := DefaultSettings()
	if s.MaxRequests == 0 {
		s.MaxRequests = def.MaxRequests
	}
	if s.Interval == 0 {
		s.Interval = def.Interval
	}
	if s.Timeout == 0 {
		s.Timeout = def.Timeout
	}
	if s.FailureThreshold == 0 {
		s.FailureThreshold = def.FailureThreshold
	}
	if s.RetryDelay == 0 {
		s.RetryDelay = def.RetryDelay
	}
	return s
}

// New builds a gobreaker instance that logs transitions and exports its
// state as a gauge. Context cancellation never counts as a failure.
func New(settings Settings, log *zap.Logger) *gobreaker.CircuitBreaker {
	settings = settings.withDefaults()
	telemetry.CircuitBreakerState.WithLabelValues(settings.Name).Set(float64(gobreaker.StateClosed))

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			telemetry.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			log.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// BreakerStatus represents the status of a circuit breaker
type BreakerStatus struct {
	Name   string           `json:"name"`
	State  string           `json:"state"`
	Counts gobreaker.Counts `json:"counts"`
}

func StatusOf(cb *gobreaker.CircuitBreaker) BreakerStatus {
	return BreakerStatus{Name: cb.Name(), State: cb.State().String(), Counts: cb.Counts()}
}

// IsCircuitOpen checks if the error is due to an open or saturated circuit
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// RetryWithBackoff executes a function with retry and exponential backoff
func RetryWithBackoff(ctx context.Context, maxRetries int, initialDelay time.Duration, fn func() error) error {
	var lastErr error
	delay := initialDelay

	for i := 0; i <= maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		// Don't retry circuit breaker errors
		if IsCircuitOpen(err) || ctx.Err() != nil {
			return err
		}
		if i == maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2 // Exponential backoff
			if delay > 5*time.Second {
				delay = 5 * time.Second
			}
		}
	}

	if maxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
