package llm

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/loomstory/director/pkg/runtimeerr"
)

// ClassifyHTTPStatus maps a non-2xx HTTP status to a TransportError
// subkind, matching the classification every wired backend applies to its
// own transport responses.
func ClassifyHTTPStatus(status int, body error) *runtimeerr.TransportError {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return runtimeerr.NewTransportError(runtimeerr.TransportInvalidKey, status, body)
	case status == http.StatusTooManyRequests:
		return runtimeerr.NewTransportError(runtimeerr.TransportRateLimit, status, body)
	case status >= 500:
		return runtimeerr.NewTransportError(runtimeerr.TransportAPIError, status, body)
	default:
		return runtimeerr.NewTransportError(runtimeerr.TransportAPIError, status, body)
	}
}

// ClassifyTransportErr maps a transport-layer Go error (as opposed to a
// non-2xx HTTP response) into a TransportError: context deadline/timeout
// errors become "timeout", everything else becomes "network".
func ClassifyTransportErr(err error) *runtimeerr.TransportError {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return runtimeerr.NewTransportError(runtimeerr.TransportTimeout, 0, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return runtimeerr.NewTransportError(runtimeerr.TransportTimeout, 0, err)
	}
	return runtimeerr.NewTransportError(runtimeerr.TransportNetwork, 0, err)
}
