// Package returnpath implements the Validator's return-path existence
// check (spec §4.4 rule 7): when a proposal names a return_path, it must
// resolve to a node the LORE Assembler already enumerated as valid
// (pkg/story.ReturnPaths), which in turn already excludes the current node
// and any terminal node.
package returnpath

import (
	"context"

	"github.com/loomstory/director/internal/validator"
	"github.com/loomstory/director/pkg/proposal"
	"github.com/loomstory/director/pkg/registry"
)

func init() {
	validator.Register("return_path", New)
}

// Rule fails when a non-empty return_path isn't in rc.KnownPaths.
type Rule struct{}

func New(registry.Config) (validator.Rule, error) {
	return &Rule{}, nil
}

func (r *Rule) ID() string                      { return "return_path" }
func (r *Rule) Category() string                { return "narrative" }
func (r *Rule) Severity() proposal.RuleSeverity { return proposal.SeverityCritical }

func (r *Rule) Check(_ context.Context, rc *validator.RuleContext) (proposal.RuleOutcome, string, error) {
	path := rc.Proposal.Content.ReturnPath
	if path == "" {
		return proposal.RulePass, "", nil
	}
	if !rc.KnownPaths.Contains(path) {
		return proposal.RuleFail, "return_path does not resolve to a known, non-terminal node", nil
	}
	return proposal.RulePass, "", nil
}
