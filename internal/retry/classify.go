package retry

import (
	"errors"
	"net"
	"net/http"
	"os"
	"syscall"
)

// statusCoder is satisfied by errors derived from an HTTP response,
// such as cloud.StatusError. Declared here as a consumer-side interface
// so classification needs no dependency on the transport package.
type statusCoder interface {
	StatusCode() int
}

// retryableStatuses are the HTTP statuses worth retrying: the server
// asked for it (408, 429) or an intermediary failed (502, 503, 504).
// Other 4xx are caller mistakes and 500 is a genuine server bug —
// repeating either changes nothing.
var retryableStatuses = map[int]struct{}{
	http.StatusRequestTimeout:     {},
	http.StatusTooManyRequests:    {},
	http.StatusBadGateway:         {},
	http.StatusServiceUnavailable: {},
	http.StatusGatewayTimeout:     {},
}

// IsRetryable reports whether an error is a transient remote failure.
//
// True for connection-refused, connection-timeout and host-not-found
// network failures, and for HTTP-derived failures carrying status 408,
// 429, 502, 503 or 504. False for everything else, including 400, 404
// and 500.
//
// The function is pure and independent of the backoff loop: Do retries
// every failure unless its Options.RetryIf says otherwise. Callers
// wanting selective retry wire this in explicitly:
//
//	opts := retry.DefaultOptions()
//	opts.RetryIf = retry.IsRetryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// HTTP-derived failures carry their status code.
	var sc statusCoder
	if errors.As(err, &sc) {
		_, ok := retryableStatuses[sc.StatusCode()]
		return ok
	}

	// Connection refused surfaces as a syscall error inside net.OpError.
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	// Timeouts: anything implementing net.Error with Timeout() true,
	// including os.ErrDeadlineExceeded from connection deadlines.
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	// Host not found: DNS resolution failures.
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	return false
}
