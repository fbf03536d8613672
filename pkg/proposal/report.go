package proposal

import "github.com/google/uuid"

// RuleSeverity is how harshly a failed rule is treated.
type RuleSeverity string

const (
	SeverityCritical RuleSeverity = "critical"
	SeverityMinor    RuleSeverity = "minor"
)

// RuleOutcome is the per-rule verdict.
type RuleOutcome string

const (
	RulePass      RuleOutcome = "pass"
	RuleSanitized RuleOutcome = "sanitized"
	RuleFail      RuleOutcome = "fail"
)

// RuleResult is one entry in a Validation Report's ordered rule results.
type RuleResult struct {
	RuleID      string       `json:"rule_id"`
	Category    string       `json:"category"`
	Severity    RuleSeverity `json:"severity"`
	Result      RuleOutcome  `json:"result"`
	Message     string       `json:"message,omitempty"`
	ExecutionMs int64        `json:"execution_ms"`
}

// ReportStatus is the final verdict of a Validation Report.
type ReportStatus string

const (
	StatusPassed               ReportStatus = "passed"
	StatusRejectedSanitization ReportStatus = "rejected_with_sanitization"
	StatusFailed               ReportStatus = "failed"
)

// Report is the Validator's output for one Proposal.
type Report struct {
	ProposalID           uuid.UUID    `json:"proposal_id"`
	Status               ReportStatus `json:"status"`
	Rules                []RuleResult `json:"rules"`
	SanitizationsApplied []string     `json:"sanitizations_applied,omitempty"`
	SanitizedProposal    *Proposal    `json:"sanitized_proposal,omitempty"`
	TotalValidationMs    int64        `json:"total_validation_ms"`
	// RiskScore is a placeholder populated by the Director, not the Validator.
	RiskScore float64 `json:"risk_score"`
}

// Failed reports whether any critical rule failed.
func (r *Report) Failed() bool {
	for _, rule := range r.Rules {
		if rule.Result == RuleFail && rule.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// Finalize derives Status from the collected rule results and
// sanitizations, per spec §4.4: failed iff any critical rule failed;
// otherwise rejected_with_sanitization if at least one sanitization was
// applied, else passed.
func (r *Report) Finalize() {
	switch {
	case r.Failed():
		r.Status = StatusFailed
	case len(r.SanitizationsApplied) > 0:
		r.Status = StatusRejectedSanitization
	default:
		r.Status = StatusPassed
	}
}
