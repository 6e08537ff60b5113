package aiproxy

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/felixgeelhaar/fortify/retry"
)

// ResilienceConfig configures the guard rails around upstream AI calls.
type ResilienceConfig struct {
	RateLimitRPM int // requests per minute, 0 disables

	RetryAttempts    int
	RetryInitialWait time.Duration
	RetryMaxWait     time.Duration

	CircuitBreakerEnabled     bool
	CircuitBreakerThreshold   int
	CircuitBreakerTimeout     time.Duration
	CircuitBreakerMaxRequests int
}

// DefaultResilienceConfig returns the defaults used for interactive reader
// requests.
func DefaultResilienceConfig() ResilienceConfig {
	return ResilienceConfig{
		RateLimitRPM:              60,
		RetryAttempts:             3,
		RetryInitialWait:          200 * time.Millisecond,
		RetryMaxWait:              10 * time.Second,
		CircuitBreakerEnabled:     true,
		CircuitBreakerThreshold:   5,
		CircuitBreakerTimeout:     30 * time.Second,
		CircuitBreakerMaxRequests: 3,
	}
}

// Resilience layers rate limiting, a circuit breaker, and retries around a
// completion call, in that order.
type Resilience struct {
	rateLimiter    ratelimit.RateLimiter
	retrier        retry.Retry[*Completion]
	circuitBreaker circuitbreaker.CircuitBreaker[*Completion]
	config         ResilienceConfig
}

// NewResilience builds the configured resilience stack.
func NewResilience(cfg ResilienceConfig) *Resilience {
	r := &Resilience{config: cfg}

	if cfg.RateLimitRPM > 0 {
		r.rateLimiter = ratelimit.New(&ratelimit.Config{
			Rate:     cfg.RateLimitRPM,
			Burst:    cfg.RateLimitRPM * 2,
			Interval: time.Minute,
		})
	}

	if cfg.RetryAttempts > 0 {
		r.retrier = retry.New[*Completion](retry.Config{
			MaxAttempts:   cfg.RetryAttempts,
			InitialDelay:  cfg.RetryInitialWait,
			MaxDelay:      cfg.RetryMaxWait,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    2.0,
			Jitter:        true,
			IsRetryable:   isRetryableError,
		})
	}

	if cfg.CircuitBreakerEnabled {
		threshold := cfg.CircuitBreakerThreshold
		r.circuitBreaker = circuitbreaker.New[*Completion](circuitbreaker.Config{
			MaxRequests: uint32(cfg.CircuitBreakerMaxRequests), // #nosec G115 -- bounded config value
			Interval:    cfg.CircuitBreakerTimeout,
			Timeout:     cfg.CircuitBreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- bounded config value
			},
		})
	}

	return r
}

// Execute runs the operation with all configured resilience patterns.
func (r *Resilience) Execute(ctx context.Context, operation func(context.Context) (*Completion, error)) (*Completion, error) {
	if r == nil {
		return operation(ctx)
	}

	if r.rateLimiter != nil {
		if err := r.rateLimiter.Wait(ctx, "ai-completion"); err != nil {
			return nil, err
		}
	}

	if r.circuitBreaker != nil {
		return r.circuitBreaker.Execute(ctx, func(ctx context.Context) (*Completion, error) {
			return r.executeWithRetry(ctx, operation)
		})
	}

	return r.executeWithRetry(ctx, operation)
}

func (r *Resilience) executeWithRetry(ctx context.Context, operation func(context.Context) (*Completion, error)) (*Completion, error) {
	if r.retrier != nil {
		return r.retrier.Do(ctx, operation)
	}
	return operation(ctx)
}

// isRetryableError classifies upstream failures. Context cancellation and
// plain client errors are final; rate limits, server errors, and network
// trouble are worth another attempt.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429") {
		return true
	}

	if strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "bad gateway") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "gateway timeout") {
		return true
	}

	if strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "temporary") {
		return true
	}

	if strings.Contains(errStr, "400") ||
		strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "404") {
		return false
	}

	return true
}

// CircuitBreakerState reports the breaker state, or "disabled".
func (r *Resilience) CircuitBreakerState() string {
	if r == nil || r.circuitBreaker == nil {
		return "disabled"
	}
	return r.circuitBreaker.State().String()
}

// Close releases resources held by resilience components.
func (r *Resilience) Close() error {
	if r == nil {
		return nil
	}
	if r.rateLimiter != nil {
		return r.rateLimiter.Close()
	}
	return nil
}
