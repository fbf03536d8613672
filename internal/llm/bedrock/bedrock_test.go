package bedrock

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/loomstory/director/internal/llm"
	"github.com/loomstory/director/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockClaudeResponse(text string) map[string]any {
	return map[string]any{
		"type": "message",
		"role": "assistant",
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
		"stop_reason": "end_turn",
	}
}

func setFakeCreds(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "fake-access-key")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "fake-secret-key")
	t.Setenv("AWS_REGION", "us-east-1")
}

func TestGenerateProposalDecodesJSONResponse(t *testing.T) {
	setFakeCreds(t)
	raw := `{"text":"The river bends east toward the old mill.","return_path":"knot_mill_path","confidence_score":0.7}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/invoke")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(mockClaudeResponse(raw))
	}))
	defer server.Close()

	writer, err := New(context.Background(), "us-east-1", server.URL)
	require.NoError(t, err)

	p, err := writer.GenerateProposal(context.Background(), llm.Request{
		SystemPrompt: "system",
		UserPrompt:   "user",
		Model:        "anthropic.claude-3-sonnet-20240229-v1:0",
		Creativity:   0.6,
		CurrentScene: "riverside",
	})
	require.NoError(t, err)
	assert.Equal(t, "The river bends east toward the old mill.", p.Content.Text)
	assert.Equal(t, "knot_mill_path", p.Content.ReturnPath)
}

func TestGenerateProposalClassifiesThrottling(t *testing.T) {
	setFakeCreds(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"ThrottlingException: Rate exceeded"}`))
	}))
	defer server.Close()

	writer, err := New(context.Background(), "us-east-1", server.URL)
	require.NoError(t, err)

	_, err = writer.GenerateProposal(context.Background(), llm.Request{Model: "anthropic.claude-3-sonnet-20240229-v1:0"})
	require.Error(t, err)
}

func TestNewFromConfigRequiresRegion(t *testing.T) {
	_, err := NewFromConfig(registry.Config{})
	require.Error(t, err)
}

func TestNewFromConfigWithoutRateLimitHasNoLimiter(t *testing.T) {
	writer, err := NewFromConfig(registry.Config{"region": "us-east-1"})
	require.NoError(t, err)
	assert.Nil(t, writer.(*Writer).limiter)
}

func TestNewFromConfigWiresRateLimit(t *testing.T) {
	writer, err := NewFromConfig(registry.Config{"region": "us-east-1", "rate_limit": 2.0})
	require.NoError(t, err)
	assert.NotNil(t, writer.(*Writer).limiter)
}

func TestWriterSelfRegisters(t *testing.T) {
	assert.True(t, llm.Writers.Has("bedrock"))
}
