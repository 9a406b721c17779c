package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/sony/gobreaker"
)

// RetryConfig controls retries of a backend call. MaxRetries 0 means the
// call runs exactly once.
type RetryConfig struct {
	MaxRetries  int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	JitterDelay time.Duration
	ShouldRetry func(err error) bool
}

// NoRetry runs each call once and surfaces its error to the caller.
var NoRetry = RetryConfig{}

// DefaultShouldRetry retries everything except caller cancellation.
func DefaultShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
	FailureRatio     float64
	MinRequests      uint32
	OnStateChange    func(name string, from, to gobreaker.State)
	IsSuccessful     func(err error) bool
}

func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      1,
		Interval:         10 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		FailureRatio:     0.5,
		MinRequests:      5,
		IsSuccessful: func(err error) bool {
			// a cancelled inbound request says nothing about backend health
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
}

type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker
}

func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= cfg.FailureThreshold {
				return true
			}
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: cfg.OnStateChange,
		IsSuccessful:  cfg.IsSuccessful,
	}
	return &CircuitBreaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

func (c *CircuitBreaker) Execute(fn func() (any, error)) (any, error) {
	return c.cb.Execute(fn)
}

func (c *CircuitBreaker) State() gobreaker.State {
	return c.cb.State()
}

func (c *CircuitBreaker) Counts() gobreaker.Counts {
	return c.cb.Counts()
}

func (c *CircuitBreaker) Name() string {
	return c.cb.Name()
}

// Executor runs backend calls through an optional retry policy and an
// optional circuit breaker. The zero configuration is a plain call.
type Executor[R any] struct {
	executor failsafe.Executor[R]
	breaker  *CircuitBreaker
}

func NewExecutor[R any](retryConfig RetryConfig, breakerConfig *BreakerConfig) *Executor[R] {
	e := &Executor[R]{}
	if retryConfig.MaxRetries > 0 {
		e.executor = failsafe.With[R](newRetryPolicy[R](retryConfig))
	}
	if breakerConfig != nil {
		e.breaker = NewCircuitBreaker(*breakerConfig)
	}
	return e
}

func newRetryPolicy[R any](cfg RetryConfig) retrypolicy.RetryPolicy[R] {
	shouldRetry := cfg.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = DefaultShouldRetry
	}
	builder := retrypolicy.NewBuilder[R]().
		HandleIf(func(_ R, err error) bool { return shouldRetry(err) }).
		WithMaxRetries(cfg.MaxRetries)
	if cfg.BaseDelay > 0 {
		maxDelay := cfg.MaxDelay
		if maxDelay < cfg.BaseDelay {
			maxDelay = cfg.BaseDelay
		}
		builder = builder.WithBackoff(cfg.BaseDelay, maxDelay)
	}
	if cfg.JitterDelay > 0 {
		builder = builder.WithJitter(cfg.JitterDelay)
	}
	return builder.Build()
}

// Execute runs fn. With neither policy configured fn is called directly.
func (e *Executor[R]) Execute(ctx context.Context, fn func() (R, error)) (R, error) {
	run := fn
	if e.executor != nil {
		run = func() (R, error) { return e.executor.WithContext(ctx).Get(fn) }
	}
	if e.breaker == nil {
		return run()
	}
	result, err := e.breaker.Execute(func() (any, error) { return run() })
	if err != nil {
		var zero R
		return zero, err
	}
	return result.(R), nil
}

func (e *Executor[R]) CircuitBreaker() *CircuitBreaker {
	return e.breaker
}
