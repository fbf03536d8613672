// Package judge implements the Director's LLM-as-judge risk components
// (spec §4.5: thematic_consistency, lore_adherence) the same way the
// teacher's internal/detectors/judge rates jailbreak attempts — a single
// rate-on-a-1-to-10-scale prompt, a "Rating: [[N]]" parse, and a SHA-256
// result cache — retargeted from attack/response pairs to
// criterion/branch-text pairs.
package judge

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/loomstory/director/internal/llm"
	"github.com/loomstory/director/pkg/retry"
)

var ratingPattern = regexp.MustCompile(`\[\[(\d+)\]\]`)

// errNoRating marks a judge response that didn't carry a parseable
// "[[N]]" rating; it is the only error this package retries on, since a
// transport failure from the writer is already retried inside the backend
// itself (internal/llm's DefaultRetryConfig).
var errNoRating = errors.New("judge: response carried no parseable rating")

// Config controls whether and how judge calls happen.
type Config struct {
	// Enabled gates whether the Director constructs a Judge at all. A
	// disabled judge leaves thematic_consistency/lore_adherence at their
	// placeholder default, same as having no writer configured.
	Enabled bool
	// CacheEnabled caches ratings by (criterion, text, context digest).
	CacheEnabled bool
}

// DefaultConfig disables judge calls: scoring narrative themes against an
// LLM is an enrichment over the placeholder default, not a requirement,
// and every deployment must opt in with a configured writer.
func DefaultConfig() Config {
	return Config{Enabled: false, CacheEnabled: true}
}

// Judge scores free-text criteria against proposal text via an llm.Writer,
// the same Writer contract every Branch Proposal generation call uses.
type Judge struct {
	writer llm.Writer
	cache  *Cache
	cfg    Config
}

// New builds a Judge. writer may be nil only if cfg.Enabled is false;
// Score returns an error otherwise.
func New(writer llm.Writer, cfg Config) *Judge {
	return &Judge{writer: writer, cache: NewCache(), cfg: cfg}
}

// Score rates how well text satisfies criterion on a 1-10 scale and
// returns it as a risk value in [0,1]: a 10 ("clearly satisfies") maps to
// 0 risk, a 1 ("clearly fails") maps to 1.0 risk. contextDigest keys the
// cache alongside criterion+text so two calls against different LORE
// snapshots never share a cached rating.
func (j *Judge) Score(ctx context.Context, criterion, text, contextDigest string) (float64, error) {
	if j == nil || !j.cfg.Enabled {
		return 0, fmt.Errorf("judge: disabled")
	}
	if j.writer == nil {
		return 0, fmt.Errorf("judge: no writer configured")
	}

	if j.cfg.CacheEnabled {
		if v, ok := j.cache.Get(criterion, text, contextDigest); ok {
			return v, nil
		}
	}

	var rating float64
	err := retry.Do(ctx, retryConfig(), func() error {
		r, callErr := j.rate(ctx, criterion, text)
		if callErr != nil {
			return callErr
		}
		rating = r
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("judge: %w", err)
	}

	if j.cfg.CacheEnabled {
		j.cache.Set(criterion, text, contextDigest, rating)
	}
	return rating, nil
}

func (j *Judge) rate(ctx context.Context, criterion, text string) (float64, error) {
	req := llm.Request{
		SystemPrompt: systemPrompt(criterion),
		UserPrompt:   text,
		Model:        "judge",
		Creativity:   0,
	}
	p, err := j.writer.GenerateProposal(ctx, req)
	if err != nil {
		return 0, err
	}
	return parseRating(p.Content.Text)
}

// retryConfig retries only a missing rating, not a transport error (the
// writer's own backend already retried that). Two attempts, short delay:
// a judge call sits on the Director's own latency budget.
func retryConfig() retry.Config {
	return retry.Config{
		MaxAttempts:  2,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     200 * time.Millisecond,
		Multiplier:   2.0,
		RetryableFunc: func(err error) bool {
			return errors.Is(err, errNoRating)
		},
	}
}

func systemPrompt(criterion string) string {
	return fmt.Sprintf(`You are an impartial narrative editor reviewing a proposed story branch.
Rate how well the branch satisfies the following criterion on a scale from 1 to 10: %s.
A rating of 1 means it clearly fails the criterion; 10 means it clearly satisfies it.
Respond only with JSON of the form {"text": "Rating: [[N]]"} where N is your 1-10 rating.
Make sure to follow this format strictly.`, criterion)
}

func parseRating(s string) (float64, error) {
	m := ratingPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, errNoRating
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, errNoRating
	}
	if n < 1 {
		n = 1
	}
	if n > 10 {
		n = 10
	}
	return 1 - (float64(n-1) / 9.0), nil
}
