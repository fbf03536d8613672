// Package bedrock implements the internal/llm.Writer contract against AWS
// Bedrock's InvokeModel API, targeting Anthropic Claude models on Bedrock.
package bedrock

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/loomstory/director/internal/llm"
	"github.com/loomstory/director/pkg/proposal"
	"github.com/loomstory/director/pkg/ratelimit"
	"github.com/loomstory/director/pkg/registry"
	"github.com/loomstory/director/pkg/retry"
	"github.com/loomstory/director/pkg/runtimeerr"
)

func init() {
	llm.Writers.Register("bedrock", NewFromConfig)
}

const defaultMaxTokens = 1024

// Writer generates Branch Proposals via Bedrock's Claude models.
type Writer struct {
	client    *bedrockruntime.Client
	maxTokens int
	limiter   *ratelimit.Limiter // pre-request rate limiter, nil means unlimited
}

// New constructs a Writer for the given AWS region, optionally against a
// custom endpoint (used for local testing against a mock Bedrock server).
func New(ctx context.Context, region, endpoint string) (*Writer, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, runtimeerr.Wrap(runtimeerr.KindConfig, "bedrock.New", "load AWS config: %v", err)
	}

	var opts []func(*bedrockruntime.Options)
	if endpoint != "" {
		opts = append(opts, func(o *bedrockruntime.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	return &Writer{
		client:    bedrockruntime.NewFromConfig(awsCfg, opts...),
		maxTokens: defaultMaxTokens,
	}, nil
}

// NewFromConfig adapts New to the registry.Config map form.
func NewFromConfig(cfg registry.Config) (llm.Writer, error) {
	region, err := registry.RequireString(cfg, "region")
	if err != nil {
		return nil, err
	}
	w, err := New(context.Background(), region, registry.GetString(cfg, "endpoint", ""))
	if err != nil {
		return nil, err
	}

	if rateLimit := registry.GetFloat64(cfg, "rate_limit", 0); rateLimit > 0 {
		capacity := rateLimit
		if capacity < 1.0 {
			capacity = 1.0
		}
		w.limiter = ratelimit.NewLimiter(capacity, rateLimit)
	}

	return w, nil
}

type claudeRequest struct {
	AnthropicVersion string      `json:"anthropic_version"`
	MaxTokens        int         `json:"max_tokens"`
	Messages         []claudeMsg `json:"messages"`
	System           string      `json:"system,omitempty"`
	Temperature      float64     `json:"temperature,omitempty"`
}

type claudeMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// GenerateProposal renders req into a single InvokeModel call against a
// Claude-family Bedrock model and decodes the JSON response into a Proposal.
func (w *Writer) GenerateProposal(ctx context.Context, req llm.Request) (*proposal.Proposal, error) {
	if req.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	body, err := json.Marshal(claudeRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        w.maxTokens,
		System:           req.SystemPrompt,
		Temperature:      llm.Temperature(req.Creativity),
		Messages: []claudeMsg{
			{Role: "user", Content: req.UserPrompt},
		},
	})
	if err != nil {
		return nil, err
	}

	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return nil, runtimeerr.Wrap(runtimeerr.KindLLMTransport, "bedrock.GenerateProposal", "rate limit wait cancelled: %v", err)
		}
	}

	start := time.Now()
	var out *bedrockruntime.InvokeModelOutput
	err = retry.Do(ctx, llm.DefaultRetryConfig(), func() error {
		var callErr error
		out, callErr = w.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(req.Model),
			Body:        body,
			ContentType: aws.String("application/json"),
			Accept:      aws.String("application/json"),
		})
		if callErr != nil {
			return classifyErr(callErr)
		}
		return nil
	})
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}

	var parsed claudeResponse
	if err := json.Unmarshal(out.Body, &parsed); err != nil {
		return nil, runtimeerr.Wrap(runtimeerr.KindParse, "bedrock.GenerateProposal", "decode model response: %v", err)
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

	return llm.BuildProposal(req, raw, req.Model, elapsed), nil
}
