package bedrock

import (
	"strings"

	"github.com/loomstory/director/internal/llm"
	"github.com/loomstory/director/pkg/runtimeerr"
)

// classifyErr maps an AWS SDK error's exception name onto the shared
// TransportError taxonomy. The SDK doesn't expose a typed status code in
// the same way an HTTP client does, so classification matches on the
// exception name embedded in the error string.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()

	switch {
	case strings.Contains(msg, "ThrottlingException"), strings.Contains(msg, "TooManyRequestsException"):
		return runtimeerr.NewTransportError(runtimeerr.TransportRateLimit, 0, err)
	case strings.Contains(msg, "AccessDeniedException"), strings.Contains(msg, "UnauthorizedException"):
		return runtimeerr.NewTransportError(runtimeerr.TransportInvalidKey, 0, err)
	case strings.Contains(msg, "ServiceUnavailableException"), strings.Contains(msg, "InternalServerException"):
		return runtimeerr.NewTransportError(runtimeerr.TransportAPIError, 0, err)
	default:
		return llm.ClassifyTransportErr(err)
	}
}
