package llm

import (
	"errors"
	"time"

	"github.com/loomstory/director/pkg/retry"
	"github.com/loomstory/director/pkg/runtimeerr"
)

const (
	retryInitialDelay = 200 * time.Millisecond
	retryMaxDelay     = 5 * time.Second
)

// RetryableTransport reports whether err is a classified TransportError
// worth retrying. Timeouts, rate limits, and transient network failures are
// retried; an invalid key or a generic API error will not resolve itself on
// a second attempt, so those are not.
func RetryableTransport(err error) bool {
	var te *runtimeerr.TransportError
	if !errors.As(err, &te) {
		return false
	}
	switch te.Subkind {
	case runtimeerr.TransportTimeout, runtimeerr.TransportNetwork, runtimeerr.TransportRateLimit:
		return true
	default:
		return false
	}
}

// DefaultRetryConfig is the backoff every Writer backend retries its
// transport call under: three attempts, 200ms initial delay doubling up to
// 5s, with 10% jitter, gated on RetryableTransport.
func DefaultRetryConfig() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = 3
	cfg.InitialDelay = retryInitialDelay
	cfg.MaxDelay = retryMaxDelay
	cfg.RetryableFunc = RetryableTransport
	return cfg
}
