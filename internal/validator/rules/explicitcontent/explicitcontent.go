// Package explicitcontent implements the Validator's explicit-content
// filter (spec §4.4 rule 2): a critical, non-sanitizing phrase match over
// a closed category vocabulary. Grounded on the teacher's OFCOM/Surge
// category-based detectors, but operating on policy-category phrases
// rather than an embedded offensive-term corpus.
package explicitcontent

import (
	"context"

	"github.com/loomstory/director/internal/ahocorasick"
	"github.com/loomstory/director/internal/validator"
	"github.com/loomstory/director/pkg/proposal"
	"github.com/loomstory/director/pkg/registry"
)

func init() {
	validator.Register("explicit_content", New)
}

// defaultPhrases are category triggers rather than individual slurs: the
// runtime flags the category, it doesn't carry a graphic-term corpus.
var defaultPhrases = []string{
	"explicit sexual content",
	"graphic sexual violence",
	"non-consensual sexual",
	"child sexual",
	"graphic torture",
	"extreme gore",
}

// Rule fails the proposal outright when any phrase matches; it never
// sanitizes, since explicit content cannot be safely patched in place.
type Rule struct {
	ac ahocorasick.AhoCorasick
}

// New builds the explicit-content Rule. Optional config key "phrases"
// ([]string) overrides defaultPhrases entirely.
func New(cfg registry.Config) (validator.Rule, error) {
	phrases := registry.GetStringSlice(cfg, "phrases", defaultPhrases)
	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
	})
	return &Rule{ac: builder.Build(phrases)}, nil
}

func (r *Rule) ID() string                      { return "explicit_content" }
func (r *Rule) Category() string                { return "content_safety" }
func (r *Rule) Severity() proposal.RuleSeverity { return proposal.SeverityCritical }

func (r *Rule) Check(_ context.Context, rc *validator.RuleContext) (proposal.RuleOutcome, string, error) {
	if len(ahocorasick.FindAll(r.ac, rc.Proposal.Content.Text)) > 0 {
		return proposal.RuleFail, "matched a restricted explicit-content category", nil
	}
	return proposal.RulePass, "", nil
}
