// Package length implements the Validator's length-limit rule (spec §4.4
// rule 4): a per-proposal token budget enforced by truncating at the last
// complete sentence rather than mid-word. No sentence-splitting library
// exists anywhere in the retrieval pack this module was built from, so the
// boundary scan below is a documented stdlib exception (see DESIGN.md);
// the keep-at-least-something floor it falls back to mirrors the teacher's
// attackengine.Prune, which never empties a candidate set either.
package length

import (
	"context"
	"regexp"
	"strings"

	"github.com/loomstory/director/internal/validator"
	"github.com/loomstory/director/pkg/proposal"
	"github.com/loomstory/director/pkg/registry"
)

func init() {
	validator.Register("length", New)
}

var sentenceEnd = regexp.MustCompile(`[.!?]["')\]]?\s+`)

// Rule truncates Content.Text at the last sentence boundary within budget.
type Rule struct {
	// maxTokens bounds word count; zero means no enabled-config override, in
	// which case Check falls back to rc.MaxLengthTokens.
	maxTokens int
}

func New(cfg registry.Config) (validator.Rule, error) {
	return &Rule{maxTokens: registry.GetInt(cfg, "max_length_tokens", 0)}, nil
}

func (r *Rule) ID() string                      { return "length" }
func (r *Rule) Category() string                { return "structural" }
func (r *Rule) Severity() proposal.RuleSeverity { return proposal.SeverityMinor }

func (r *Rule) Check(_ context.Context, rc *validator.RuleContext) (proposal.RuleOutcome, string, error) {
	budget := r.maxTokens
	if budget == 0 {
		budget = rc.MaxLengthTokens
	}
	if budget <= 0 {
		return proposal.RulePass, "", nil
	}

	text := rc.Proposal.Content.Text
	words := strings.Fields(text)
	if len(words) <= budget {
		return proposal.RulePass, "", nil
	}

	rc.Proposal.Content.Text = truncateAtSentenceBoundary(text, budget)
	return proposal.RuleSanitized, "truncated text to the configured length budget", nil
}

// truncateAtSentenceBoundary returns the longest prefix of text whose word
// count is <= budget and which ends at a sentence boundary. If no boundary
// falls within budget, it falls back to a hard word-count truncation so the
// text is never left empty.
func truncateAtSentenceBoundary(text string, budget int) string {
	ends := sentenceEnd.FindAllStringIndex(text, -1)

	best := -1
	for _, loc := range ends {
		cut := loc[1]
		if len(strings.Fields(text[:cut])) <= budget {
			best = cut
		} else {
			break
		}
	}
	if best > 0 {
		return strings.TrimRight(text[:best], " \t\n")
	}

	words := strings.Fields(text)
	return strings.Join(words[:budget], " ")
}
