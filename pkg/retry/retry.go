package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Common errors
var (
	ErrContextCanceled = errors.New("context canceled during retry")
)

// Config contains retry configuration
type Config struct {
	// MaxRetries is the number of retry attempts after the initial one
	MaxRetries int
	// InitialInterval is the initial backoff interval (default: 1s)
	InitialInterval time.Duration
	// MaxInterval caps the backoff interval (default: 30s)
	MaxInterval time.Duration
	// Multiplier scales the interval after each retry (default: 2.0)
	Multiplier float64
	// JitterFactor adds random jitter in [-f, +f] of the interval (default: 0.1)
	JitterFactor float64
}

// DefaultConfig returns default retry configuration
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:      5,
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
}

// Operation is the function to be retried
type Operation func(ctx context.Context) error

// PermanentError wraps an error that must not be retried
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks an error as permanent (not retryable)
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Result contains the outcome of a retry run
type Result struct {
	// Err is the final error (nil on success)
	Err error
	// Attempts is the total number of attempts made, including the first
	Attempts int
	// LastError is the error from the last attempt
	LastError error
	// TotalDuration is the total time spent including waits
	TotalDuration time.Duration
}

// Retrier executes operations with exponential backoff
type Retrier struct {
	config *Config
}

// New creates a Retrier, applying defaults for zero values
func New(config *Config) *Retrier {
	if config == nil {
		config = DefaultConfig()
	}
	if config.InitialInterval <= 0 {
		config.InitialInterval = time.Second
	}
	if config.MaxInterval <= 0 {
		config.MaxInterval = 30 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.JitterFactor < 0 || config.JitterFactor > 1 {
		config.JitterFactor = 0.1
	}
	return &Retrier{config: config}
}

// Do executes the operation, retrying retryable failures with backoff
func (r *Retrier) Do(ctx context.Context, op Operation) *Result {
	start := time.Now()
	result := &Result{}
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		result.Attempts = attempt + 1

		if ctx.Err() != nil {
			result.Err = ErrContextCanceled
			result.LastError = lastErr
			result.TotalDuration = time.Since(start)
			return result
		}

		err := op(ctx)
		if err == nil {
			result.TotalDuration = time.Since(start)
			return result
		}
		lastErr = err

		var permErr *PermanentError
		if errors.As(err, &permErr) {
			result.Err = permErr.Err
			result.LastError = permErr.Err
			result.TotalDuration = time.Since(start)
			return result
		}

		if attempt == r.config.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			result.Err = ErrContextCanceled
			result.LastError = lastErr
			result.TotalDuration = time.Since(start)
			return result
		case <-time.After(r.interval(attempt)):
		}
	}

	result.Err = lastErr
	result.LastError = lastErr
	result.TotalDuration = time.Since(start)
	return result
}

func (r *Retrier) interval(attempt int) time.Duration {
	interval := float64(r.config.InitialInterval) * math.Pow(r.config.Multiplier, float64(attempt))
	if interval > float64(r.config.MaxInterval) {
		interval = float64(r.config.MaxInterval)
	}
	if r.config.JitterFactor > 0 {
		jitter := interval * r.config.JitterFactor
		interval += (rand.Float64()*2 - 1) * jitter
	}
	if interval < 0 {
		interval = 0
	}
	return time.Duration(interval)
}
