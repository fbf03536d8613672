package openai

import (
	"errors"

	"github.com/loomstory/director/internal/llm"
	goopenai "github.com/sashabaranov/go-openai"
)

// classifyErr maps a go-openai client error onto the shared TransportError
// taxonomy so callers never have to type-switch on this package's dependency.
func classifyErr(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return llm.ClassifyHTTPStatus(apiErr.HTTPStatusCode, err)
	}
	return llm.ClassifyTransportErr(err)
}
