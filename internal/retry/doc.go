// Package retry provides the reliability core of Air Bridge: a generic
// exponential-backoff execution wrapper and an independent transient
// error classifier.
//
// # Backoff
//
// Do runs an operation up to MaxRetries+1 times, pausing
// min(InitialDelay * 2^attempt, MaxDelay) between failures. The final
// error is returned unmodified so callers can still classify it. An
// injected Observer sees every scheduled retry; the loop itself never
// logs.
//
// # Classification
//
// IsRetryable is a pure predicate over errors: true for connection
// refused, timeouts, DNS failures and HTTP 408/429/502/503/504. It is
// deliberately not baked into Do — by default every failure is retried
// by attempt count. Callers choose selective retry explicitly by setting
// Options.RetryIf, which is what the cloud client does.
//
// # Usage
//
//	opts := retry.DefaultOptions()
//	opts.RetryIf = retry.IsRetryable
//	opts.Observer = retry.ObserverFunc(func(attempt int, delay time.Duration, err error) {
//	    log.Warn("remote call failed, retrying", "attempt", attempt, "delay", delay, "error", err)
//	})
//
//	devices, err := retry.Do(ctx, client.FetchDevices, opts)
//
// Concurrent Do executions are independent and share no mutable state.
// There is no explicit deadline: the worst case is bounded by the sum of
// capped per-attempt delays, which callers must account for when
// composing outer timeouts.
package retry
