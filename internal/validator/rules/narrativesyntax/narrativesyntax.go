// Package narrativesyntax implements the Validator's narrative-syntax
// check (spec §4.4 rule 6). The runtime has no authored-story compiler in
// its own dependency tree — compilation is the job of the external
// Interpreter (pkg/story.Interpreter) running the actual story file — so
// this rule performs the minimal structural check a synthetic wrapper node
// can still fail on: unbalanced braces/brackets or a dangling divert arrow
// that markup_strip didn't catch, either of which would break the
// interpreter's parser on injection. This is a documented stdlib-only
// rule: no narrative-markup grammar library exists in the retrieval pack.
package narrativesyntax

import (
	"context"
	"strings"

	"github.com/loomstory/director/internal/validator"
	"github.com/loomstory/director/pkg/proposal"
	"github.com/loomstory/director/pkg/registry"
)

func init() {
	validator.Register("narrative_syntax", New)
}

// Rule fails when Content.Text contains unbalanced structural delimiters.
type Rule struct{}

func New(registry.Config) (validator.Rule, error) {
	return &Rule{}, nil
}

func (r *Rule) ID() string                      { return "narrative_syntax" }
func (r *Rule) Category() string                { return "structural" }
func (r *Rule) Severity() proposal.RuleSeverity { return proposal.SeverityCritical }

func (r *Rule) Check(_ context.Context, rc *validator.RuleContext) (proposal.RuleOutcome, string, error) {
	text := rc.Proposal.Content.Text

	if reason := firstStructuralFault(text); reason != "" {
		return proposal.RuleFail, reason, nil
	}
	return proposal.RulePass, "", nil
}

func firstStructuralFault(text string) string {
	if strings.Contains(text, "->") {
		return "dangling divert arrow in generated text"
	}

	type opener struct {
		open, close byte
	}
	pairs := []opener{{'{', '}'}, {'[', ']'}}
	for _, p := range pairs {
		depth := 0
		for i := 0; i < len(text); i++ {
			switch text[i] {
			case p.open:
				depth++
			case p.close:
				depth--
				if depth < 0 {
					return "unmatched closing delimiter in generated text"
				}
			}
		}
		if depth != 0 {
			return "unbalanced delimiters in generated text"
		}
	}
	return ""
}
