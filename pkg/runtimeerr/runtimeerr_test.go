package runtimeerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByKind(t *testing.T) {
	err := New(KindSchema, "validator.schema", errors.New("missing field id"))
	assert.True(t, errors.Is(err, ErrSchema))
	assert.False(t, errors.Is(err, ErrConfig))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := New(KindRuntimeIntegration, "orchestrator.inject", cause)
	assert.True(t, errors.Is(err, cause))
}

func TestTransportErrorMatchesLLMTransportSentinel(t *testing.T) {
	err := NewTransportError(TransportRateLimit, 429, errors.New("too many requests"))
	assert.True(t, errors.Is(err, ErrLLMTransport))

	var te *TransportError
	require := errors.As(err, &te)
	assert.True(t, require)
	assert.Equal(t, TransportRateLimit, te.Subkind)
	assert.Equal(t, 429, te.StatusCode)
}

func TestWrapFormatsMessage(t *testing.T) {
	err := Wrap(KindParse, "llm.parseResponse", "unexpected token at %d", 17)
	assert.Contains(t, err.Error(), "llm.parseResponse")
	assert.Contains(t, err.Error(), "parse_error")
	assert.Contains(t, err.Error(), "unexpected token at 17")
}
