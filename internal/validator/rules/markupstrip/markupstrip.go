// Package markupstrip implements the Validator's markup-strip rule (spec
// §4.4 rule 5): removes authored-only markup the Writer must never emit
// (Ink tags, diverts, conditionals) and collapses runs of 3+ newlines.
package markupstrip

import (
	"context"
	"regexp"

	"github.com/loomstory/director/internal/validator"
	"github.com/loomstory/director/pkg/proposal"
	"github.com/loomstory/director/pkg/registry"
)

func init() {
	validator.Register("markup_strip", New)
}

var (
	tagLine      = regexp.MustCompile(`(?m)^\s*#[^\n]*\n?`)
	divert       = regexp.MustCompile(`->\s*[A-Za-z0-9_.]+`)
	conditional  = regexp.MustCompile(`\{[^{}\n]*\}`)
	excessBlanks = regexp.MustCompile(`\n{3,}`)
)

// Rule strips authored-only markup from Content.Text.
type Rule struct{}

func New(registry.Config) (validator.Rule, error) {
	return &Rule{}, nil
}

func (r *Rule) ID() string                      { return "markup_strip" }
func (r *Rule) Category() string                { return "structural" }
func (r *Rule) Severity() proposal.RuleSeverity { return proposal.SeverityMinor }

func (r *Rule) Check(_ context.Context, rc *validator.RuleContext) (proposal.RuleOutcome, string, error) {
	original := rc.Proposal.Content.Text
	stripped := tagLine.ReplaceAllString(original, "")
	stripped = divert.ReplaceAllString(stripped, "")
	stripped = conditional.ReplaceAllString(stripped, "")
	stripped = excessBlanks.ReplaceAllString(stripped, "\n\n")

	if stripped == original {
		return proposal.RulePass, "", nil
	}

	rc.Proposal.Content.Text = stripped
	return proposal.RuleSanitized, "stripped authored-only markup", nil
}
