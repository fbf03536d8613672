package proposal

import (
	"time"

	"github.com/google/uuid"
)

// Decision is the Director's verdict.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ReturnPathResult is the Director's return-path feasibility finding.
type ReturnPathResult struct {
	Feasible   bool    `json:"feasible"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

// RiskMetrics names the six weighted risk components of §4.5.
type RiskMetrics map[string]float64

// Component name constants for RiskMetrics, matching spec §4.5 exactly.
const (
	MetricThematicConsistency = "thematic_consistency"
	MetricLoreAdherence       = "lore_adherence"
	MetricCharacterVoice      = "character_voice"
	MetricNarrativePacing     = "narrative_pacing"
	MetricPlayerPreferenceFit = "player_preference_fit"
	MetricProposalConfidence  = "proposal_confidence"
)

// DirectorDecision is the Director's output for one Proposal.
type DirectorDecision struct {
	ProposalID  uuid.UUID        `json:"proposal_id"`
	Decision    Decision         `json:"decision"`
	Reason      string           `json:"reason"`
	RiskScore   float64          `json:"risk_score"`
	RiskMetrics RiskMetrics      `json:"risk_metrics"`
	ReturnPath  ReturnPathResult `json:"return_path"`
	LatencyMs   int64            `json:"latency_ms"`
	Timestamp   time.Time        `json:"timestamp"`
}
