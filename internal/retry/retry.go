package retry

import (
	"context"
	"time"
)

// Default backoff parameters, returned by DefaultOptions.
const (
	DefaultMaxRetries   = 3
	DefaultInitialDelay = 1 * time.Second
	DefaultMaxDelay     = 10 * time.Second
)

// Observer receives retry lifecycle events. Implementations are injected
// by the caller to log or meter retries; the loop itself never logs.
type Observer interface {
	// RetryScheduled is called after a failed attempt, before the backoff
	// sleep. attempt is 1-based: 1 after the first failure, 2 after the
	// second. err is the failure that triggered the retry, delay the
	// pause that follows.
	RetryScheduled(attempt int, delay time.Duration, err error)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(attempt int, delay time.Duration, err error)

// RetryScheduled implements Observer.
func (f ObserverFunc) RetryScheduled(attempt int, delay time.Duration, err error) {
	f(attempt, delay, err)
}

// Options configures one Do execution.
//
// MaxRetries is taken literally: zero means a single attempt with no
// retry and no delay. Start from DefaultOptions() for the standard
// policy.
type Options struct {
	// MaxRetries is the number of retries after the first attempt, so
	// MaxRetries+1 attempts run in total. Negative values are treated
	// as zero: op always runs at least once.
	MaxRetries int

	// InitialDelay is the pause after the first failure. Subsequent
	// delays double per attempt: min(InitialDelay * 2^attempt, MaxDelay).
	InitialDelay time.Duration

	// MaxDelay caps the computed delay.
	MaxDelay time.Duration

	// Observer, if non-nil, is notified before every backoff sleep.
	Observer Observer

	// RetryIf, if non-nil, gates retries: a failure it rejects is
	// returned immediately without consuming the remaining attempts.
	// Nil retries every failure. Pair with IsRetryable for a policy
	// that only retries transient remote errors.
	RetryIf func(error) bool
}

// DefaultOptions returns the standard backoff policy: 3 retries, 1s
// initial delay doubling to a 10s cap, every failure retried.
func DefaultOptions() Options {
	return Options{
		MaxRetries:   DefaultMaxRetries,
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
	}
}

// Do executes op with exponential backoff.
//
// op runs up to MaxRetries+1 times. After a failure that is not the last
// allowed attempt, Do notifies the Observer, sleeps the computed delay
// and tries again. A success at any attempt returns immediately,
// skipping remaining attempts and any pending delay. The final failure
// is returned unmodified — no wrapping — so the caller can still
// classify it with errors.Is/As.
//
// Multiple concurrent Do executions are independent and share no state.
// The context bounds the backoff sleeps: when ctx is cancelled during a
// pause, Do gives up and returns the last error. An attempt already in
// flight is not interrupted beyond whatever ctx does inside op.
func Do[T any](ctx context.Context, op func(ctx context.Context) (T, error), opts Options) (T, error) {
	var zero T
	var lastErr error

	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == maxRetries {
			break
		}
		if opts.RetryIf != nil && !opts.RetryIf(err) {
			break
		}

		delay := backoffDelay(opts, attempt)
		if opts.Observer != nil {
			opts.Observer.RetryScheduled(attempt+1, delay, err)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, lastErr
		}
	}

	return zero, lastErr
}

// backoffDelay computes min(InitialDelay * 2^attempt, MaxDelay) where
// attempt is the zero-based index of the attempt that just failed.
func backoffDelay(opts Options, attempt int) time.Duration {
	if opts.MaxDelay > 0 && opts.InitialDelay >= opts.MaxDelay {
		return opts.MaxDelay
	}
	delay := opts.InitialDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if opts.MaxDelay > 0 && delay >= opts.MaxDelay {
			return opts.MaxDelay
		}
	}
	return delay
}
