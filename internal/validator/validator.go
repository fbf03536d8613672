// Package validator runs the ordered rule pipeline of spec §4.4 against a
// Branch Proposal, producing a Validation Report. Rules self-register via
// init(), mirroring the teacher's detector-registry pattern, so the
// pipeline can be reconfigured purely through pkg/config.ValidatorConfig's
// enabledRules list without touching this package.
package validator

import (
	"context"
	"time"

	"github.com/loomstory/director/pkg/proposal"
	"github.com/loomstory/director/pkg/registry"
	"github.com/loomstory/director/pkg/runtimeerr"
	"github.com/loomstory/director/pkg/story"
)

// Rule is one entry in the ordered validation pipeline. A Rule may mutate
// rc.Proposal.Content in place when it returns proposal.RuleSanitized; the
// pipeline snapshots the proposal into the report's SanitizedProposal only
// once, after every rule has run.
type Rule interface {
	ID() string
	Category() string
	Severity() proposal.RuleSeverity
	Check(ctx context.Context, rc *RuleContext) (result proposal.RuleOutcome, message string, err error)
}

// RuleContext is the shared, mutable state every rule in a pipeline run
// sees. Proposal is the working copy rules sanitize in place.
type RuleContext struct {
	Proposal        *proposal.Proposal
	KnownPaths      story.ReturnPaths
	Interp          story.Interpreter
	MaxLengthTokens int
}

// Registry is the global rule registry. Rule implementations register a
// factory here from an init() in their own package.
var Registry = registry.New[Rule]("validator.Rule")

// Register adds a rule factory under name.
func Register(name string, factory func(registry.Config) (Rule, error)) {
	Registry.Register(name, factory)
}

// Pipeline runs an ordered list of Rules against a Proposal.
type Pipeline struct {
	rules []Rule
}

// NewPipeline builds a Pipeline from an already-resolved rule slice.
func NewPipeline(rules []Rule) *Pipeline {
	return &Pipeline{rules: rules}
}

// FromNames resolves names (in order) against Registry, using cfg for every
// rule's construction, and returns the assembled Pipeline.
func FromNames(names []string, cfg registry.Config) (*Pipeline, error) {
	rules := make([]Rule, 0, len(names))
	for _, name := range names {
		rule, err := Registry.Create(name, cfg)
		if err != nil {
			return nil, runtimeerr.Wrap(runtimeerr.KindConfig, "validator.FromNames", "rule %q: %v", name, err)
		}
		rules = append(rules, rule)
	}
	return NewPipeline(rules), nil
}

// Run executes every rule in order against rc.Proposal, stopping at the
// first critical-severity failure (spec §4.4), and returns the assembled
// Validation Report.
func (p *Pipeline) Run(ctx context.Context, rc *RuleContext) *proposal.Report {
	start := time.Now()
	report := &proposal.Report{ProposalID: rc.Proposal.ID}

	for _, rule := range p.rules {
		if ctx.Err() != nil {
			break
		}

		ruleStart := time.Now()
		result, message, err := rule.Check(ctx, rc)
		elapsed := time.Since(ruleStart).Milliseconds()
		if err != nil {
			result = proposal.RuleFail
			message = err.Error()
		}

		report.Rules = append(report.Rules, proposal.RuleResult{
			RuleID:      rule.ID(),
			Category:    rule.Category(),
			Severity:    rule.Severity(),
			Result:      result,
			Message:     message,
			ExecutionMs: elapsed,
		})

		if result == proposal.RuleSanitized {
			report.SanitizationsApplied = append(report.SanitizationsApplied, rule.ID())
		}
		if result == proposal.RuleFail && rule.Severity() == proposal.SeverityCritical {
			break
		}
	}

	report.Finalize()
	if len(report.SanitizationsApplied) > 0 {
		sanitized := *rc.Proposal
		report.SanitizedProposal = &sanitized
	}
	report.TotalValidationMs = time.Since(start).Milliseconds()
	return report
}
