// Package openai implements the internal/llm.Writer contract against
// OpenAI's chat completions API.
package openai

import (
	"context"
	"time"

	"github.com/loomstory/director/internal/llm"
	"github.com/loomstory/director/pkg/proposal"
	"github.com/loomstory/director/pkg/ratelimit"
	"github.com/loomstory/director/pkg/registry"
	"github.com/loomstory/director/pkg/retry"
	"github.com/loomstory/director/pkg/runtimeerr"
	goopenai "github.com/sashabaranov/go-openai"
)

func init() {
	llm.Writers.Register("openai", NewFromConfig)
}

// Writer generates Branch Proposals via OpenAI chat completions.
type Writer struct {
	client  *goopenai.Client
	limiter *ratelimit.Limiter // pre-request rate limiter, nil means unlimited
}

// New constructs a Writer against the given API key and optional base URL
// (for Azure-style or self-hosted OpenAI-compatible deployments).
func New(apiKey, baseURL string) *Writer {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Writer{client: goopenai.NewClientWithConfig(cfg)}
}

// NewFromConfig adapts New to the registry.Config map form so it can be
// selected by name from writer configuration.
func NewFromConfig(cfg registry.Config) (llm.Writer, error) {
	apiKey, err := registry.RequireString(cfg, "api_key")
	if err != nil {
		return nil, err
	}
	w := New(apiKey, registry.GetString(cfg, "base_url", ""))

	if rateLimit := registry.GetFloat64(cfg, "rate_limit", 0); rateLimit > 0 {
		// Token bucket: capacity must be >= 1.0 to allow at least one
		// request even for sub-1rps rates.
		capacity := rateLimit
		if capacity < 1.0 {
			capacity = 1.0
		}
		w.limiter = ratelimit.NewLimiter(capacity, rateLimit)
	}

	return w, nil
}

// HonorsSeed reports that OpenAI's chat completions API accepts and
// respects the seed parameter, satisfying llm.SeedAware.
func (w *Writer) HonorsSeed() bool { return true }

// GenerateProposal renders req into a single chat completion call and
// decodes the model's JSON response into a Proposal.
func (w *Writer) GenerateProposal(ctx context.Context, req llm.Request) (*proposal.Proposal, error) {
	if req.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	chatReq := goopenai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
		Temperature: float32(llm.Temperature(req.Creativity)),
	}
	if req.Seed != nil {
		seed := int(*req.Seed)
		chatReq.Seed = &seed
	}
	if req.UseJSONMode {
		chatReq.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return nil, runtimeerr.Wrap(runtimeerr.KindLLMTransport, "openai.GenerateProposal", "rate limit wait cancelled: %v", err)
		}
	}

	start := time.Now()
	var resp goopenai.ChatCompletionResponse
	err := retry.Do(ctx, llm.DefaultRetryConfig(), func() error {
		var callErr error
		resp, callErr = w.client.CreateChatCompletion(ctx, chatReq)
		if callErr != nil {
			return classifyErr(callErr)
		}
		return nil
	})
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, runtimeerr.Wrap(runtimeerr.KindLLMTransport, "openai.GenerateProposal", "no choices returned")
	}

	var raw llm.RawBranch
	if err := llm.ParseJSONResponse(resp.Choices[0].Message.Content, &raw); err != nil {
		return nil, err
	}

	return llm.BuildProposal(req, raw, resp.Model, elapsed), nil
}
