// Package profanity implements the Validator's word-boundary profanity
// filter (spec §4.4 rule 1). Matching runs over NFKC-normalized text using
// the runtime's forked Aho-Corasick automaton, the same matching primitive
// the teacher's Surge/OFCOM profanity detectors build on, so a profanity
// hit is sanitized in a single linear pass instead of N string.Contains
// checks.
package profanity

import (
	"context"

	"github.com/loomstory/director/internal/ahocorasick"
	"github.com/loomstory/director/internal/validator"
	"github.com/loomstory/director/pkg/proposal"
	"github.com/loomstory/director/pkg/registry"
	"golang.org/x/text/unicode/norm"
)

func init() {
	validator.Register("profanity", New)
}

// placeholderToken replaces every matched term, per spec's documented edge
// case (sanitized text contains the literal token "[expletive]").
const placeholderToken = "[expletive]"

// defaultTerms is a small inline blocklist. Kept deliberately short and
// mild: this is placeholder policy content for a narrative runtime, not a
// production moderation list, and the runtime never embeds a wordlist file
// for it.
var defaultTerms = []string{
	"damn", "hell", "bastard", "bitch", "bloody", "crap",
	"asshole", "dumbass", "screwed",
}

// Rule sanitizes profanity matches by replacement with placeholderToken.
type Rule struct {
	ac ahocorasick.AhoCorasick
}

// New builds the profanity Rule. Optional config key "terms" ([]string)
// overrides defaultTerms entirely.
func New(cfg registry.Config) (validator.Rule, error) {
	terms := registry.GetStringSlice(cfg, "terms", defaultTerms)
	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  true,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
	})
	return &Rule{ac: builder.Build(normalizeAll(terms))}, nil
}

func normalizeAll(terms []string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = norm.NFKC.String(t)
	}
	return out
}

func (r *Rule) ID() string                      { return "profanity" }
func (r *Rule) Category() string                { return "content_safety" }
func (r *Rule) Severity() proposal.RuleSeverity { return proposal.SeverityMinor }

// Check scans rc.Proposal.Content.Text and, on any match, replaces every
// occurrence with placeholderToken, returning RuleSanitized.
func (r *Rule) Check(_ context.Context, rc *validator.RuleContext) (proposal.RuleOutcome, string, error) {
	normalized := norm.NFKC.String(rc.Proposal.Content.Text)
	matches := ahocorasick.FindAll(r.ac, normalized)
	if len(matches) == 0 {
		return proposal.RulePass, "", nil
	}

	rc.Proposal.Content.Text = ahocorasick.ReplaceAllWith(r.ac, normalized, placeholderToken)
	return proposal.RuleSanitized, "replaced profanity matches with placeholder token", nil
}
