// Package schema implements the Validator's schema-conformance check (spec
// §4.4 rule 3) by delegating to pkg/proposal.Proposal.Validate, the same
// go-playground/validator struct-tag validation the Branch Proposal schema
// is already defined with.
package schema

import (
	"context"

	"github.com/loomstory/director/internal/validator"
	"github.com/loomstory/director/pkg/proposal"
	"github.com/loomstory/director/pkg/registry"
)

func init() {
	validator.Register("schema", New)
}

// Rule fails critically whenever the proposal doesn't conform to the
// Branch Proposal schema.
type Rule struct{}

func New(registry.Config) (validator.Rule, error) {
	return &Rule{}, nil
}

func (r *Rule) ID() string                      { return "schema" }
func (r *Rule) Category() string                { return "structural" }
func (r *Rule) Severity() proposal.RuleSeverity { return proposal.SeverityCritical }

func (r *Rule) Check(_ context.Context, rc *validator.RuleContext) (proposal.RuleOutcome, string, error) {
	if err := rc.Proposal.Validate(); err != nil {
		return proposal.RuleFail, err.Error(), nil
	}
	return proposal.RulePass, "", nil
}
