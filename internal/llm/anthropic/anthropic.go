// Package anthropic implements the internal/llm.Writer contract against
// Anthropic's Messages API, via the shared pkg/lib/http client rather than
// a vendored SDK (the pack carries no Anthropic Go SDK).
package anthropic

import (
	"context"
	"fmt"
	"time"

	"github.com/loomstory/director/internal/llm"
	httpclient "github.com/loomstory/director/pkg/lib/http"
	"github.com/loomstory/director/pkg/proposal"
	"github.com/loomstory/director/pkg/ratelimit"
	"github.com/loomstory/director/pkg/registry"
	"github.com/loomstory/director/pkg/retry"
)

func init() {
	llm.Writers.Register("anthropic", NewFromConfig)
}

const (
	defaultBaseURL    = "https://api.anthropic.com/v1"
	defaultAPIVersion = "2023-06-01"
	defaultMaxTokens  = 1024
	defaultTimeout    = 90 * time.Second
)

// Writer generates Branch Proposals via the Anthropic Messages API.
type Writer struct {
	client     *httpclient.Client
	apiKey     string
	apiVersion string
	maxTokens  int
	limiter    *ratelimit.Limiter // pre-request rate limiter, nil means unlimited
}

// New constructs a Writer against the given API key and optional base URL.
func New(apiKey, baseURL string) *Writer {
	url := baseURL
	if url == "" {
		url = defaultBaseURL
	}
	return &Writer{
		client:     httpclient.NewClient(httpclient.WithBaseURL(url), httpclient.WithTimeout(defaultTimeout)),
		apiKey:     apiKey,
		apiVersion: defaultAPIVersion,
		maxTokens:  defaultMaxTokens,
	}
}

// NewFromConfig adapts New to the registry.Config map form.
func NewFromConfig(cfg registry.Config) (llm.Writer, error) {
	apiKey, err := registry.RequireString(cfg, "api_key")
	if err != nil {
		return nil, err
	}
	w := New(apiKey, registry.GetString(cfg, "base_url", ""))

	if rateLimit := registry.GetFloat64(cfg, "rate_limit", 0); rateLimit > 0 {
		capacity := rateLimit
		if capacity < 1.0 {
			capacity = 1.0
		}
		w.limiter = ratelimit.NewLimiter(capacity, rateLimit)
	}

	return w, nil
}

type messageRequest struct {
	Model       string         `json:"model"`
	MaxTokens   int            `json:"max_tokens"`
	Messages    []anthropicMsg `json:"messages"`
	System      string         `json:"system,omitempty"`
	Temperature float64        `json:"temperature,omitempty"`
}

type anthropicMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []contentBlock `json:"content"`
	Model   string         `json:"model"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// GenerateProposal renders req into a single Messages API call and decodes
// the model's JSON response into a Proposal.
func (w *Writer) GenerateProposal(ctx context.Context, req llm.Request) (*proposal.Proposal, error) {
	if req.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	body := messageRequest{
		Model:       req.Model,
		MaxTokens:   w.maxTokens,
		System:      req.SystemPrompt,
		Temperature: llm.Temperature(req.Creativity),
		Messages: []anthropicMsg{
			{Role: "user", Content: req.UserPrompt},
		},
	}

	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("anthropic: rate limit wait cancelled: %w", err)
		}
	}

	start := time.Now()
	var resp *httpclient.Response
	err := retry.Do(ctx, llm.DefaultRetryConfig(), func() error {
		var callErr error
		resp, callErr = w.doPost(ctx, body)
		if callErr != nil {
			return llm.ClassifyTransportErr(callErr)
		}
		if resp.StatusCode != 200 {
			return w.classifyStatus(resp)
		}
		return nil
	})
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}

	var parsed messageResponse
	if err := resp.JSON(&parsed); err != nil {
		return nil, err
	}

	var text string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	var raw llm.RawBranch
	if err := llm.ParseJSONResponse(text, &raw); err != nil {
		return nil, err
	}

	return llm.BuildProposal(req, raw, parsed.Model, elapsed), nil
}

func (w *Writer) doPost(ctx context.Context, body messageRequest) (*httpclient.Response, error) {
	return w.client.PostWithHeaders(ctx, "/messages", body, map[string]string{
		"x-api-key":         w.apiKey,
		"anthropic-version": w.apiVersion,
	})
}

func (w *Writer) classifyStatus(resp *httpclient.Response) error {
	var errResp errorResponse
	_ = resp.JSON(&errResp)
	return llm.ClassifyHTTPStatus(resp.StatusCode, &apiError{kind: errResp.Error.Type, message: errResp.Error.Message})
}

type apiError struct {
	kind    string
	message string
}

func (e *apiError) Error() string {
	return e.kind + ": " + e.message
}
