// Package charactervoice implements the Validator's optional
// character-voice consistency check (spec §4.4 rule 8). No embedding
// provider exists anywhere in the retrieval pack this module was built
// from, so the rule always degrades to pass, as the spec explicitly
// permits ("degrades to pass when embeddings unavailable"). It is not in
// pkg/config.Default's enabledRules list; an operator opts in only once a
// real embedding-backed implementation is wired in its place.
package charactervoice

import (
	"context"

	"github.com/loomstory/director/internal/validator"
	"github.com/loomstory/director/pkg/proposal"
	"github.com/loomstory/director/pkg/registry"
)

func init() {
	validator.Register("character_voice", New)
}

// Rule always passes: see package doc.
type Rule struct{}

func New(registry.Config) (validator.Rule, error) {
	return &Rule{}, nil
}

func (r *Rule) ID() string                      { return "character_voice" }
func (r *Rule) Category() string                { return "narrative" }
func (r *Rule) Severity() proposal.RuleSeverity { return proposal.SeverityMinor }

func (r *Rule) Check(context.Context, *validator.RuleContext) (proposal.RuleOutcome, string, error) {
	return proposal.RulePass, "embedding-backed character-voice scoring unavailable; degraded to pass", nil
}
