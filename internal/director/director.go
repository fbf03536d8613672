// Package director implements the Director (spec §4.5): it consumes a
// Validation Report plus a LORE Snapshot and produces a Director Decision —
// approve or reject a Branch Proposal — within a configurable latency
// budget. Risk scoring is grounded on the teacher's judge-rating and
// candidate-pruning style (weighted, deterministic, never erroring on a
// missing component) rather than any single file, since nothing in the
// retrieval pack implements a multi-component weighted risk model directly.
package director

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/loomstory/director/internal/director/judge"
	"github.com/loomstory/director/pkg/config"
	"github.com/loomstory/director/pkg/lore"
	"github.com/loomstory/director/pkg/preference"
	"github.com/loomstory/director/pkg/proposal"
	"github.com/loomstory/director/pkg/story"
	"github.com/loomstory/director/pkg/telemetry"
)

// riskComponentOrder fixes iteration order over the six weighted risk
// components so computeRiskScore sums in the same order on every call,
// regardless of map iteration order elsewhere.
var riskComponentOrder = []string{
	proposal.MetricThematicConsistency,
	proposal.MetricLoreAdherence,
	proposal.MetricCharacterVoice,
	proposal.MetricNarrativePacing,
	proposal.MetricPlayerPreferenceFit,
	proposal.MetricProposalConfidence,
}

// phaseByContext maps the LORE context type to the narrative-phase keys
// DirectorConfig.PacingTargets is keyed by. There's no first-class "phase"
// concept upstream of the Director, so this mapping is this package's own
// policy, not a reflection of an authored field.
var phaseByContext = map[lore.ContextType]string{
	lore.ContextExploration: "setup",
	lore.ContextDialogue:    "rising",
	lore.ContextTension:     "climax",
	lore.ContextDiscovery:   "resolution",
}

// Director scores risk, checks return-path feasibility, and decides
// approve/reject for a Branch Proposal within a latency budget.
type Director struct {
	cfg   config.DirectorConfig
	prefs *preference.Store
	emit  *telemetry.Emitter
	now   func() time.Time
	judge *judge.Judge
}

// Option configures a Director.
type Option func(*Director)

// WithClock injects a deterministic clock; tests use a fixed time.
func WithClock(now func() time.Time) Option {
	return func(d *Director) { d.now = now }
}

// WithJudge wires an LLM-as-judge scorer for thematic_consistency and
// lore_adherence. Without it (the default), both components degrade to
// cfg.PlaceholderDefault, same as when j.Score returns an error.
func WithJudge(j *judge.Judge) Option {
	return func(d *Director) { d.judge = j }
}

// New constructs a Director. prefs and emit may both be nil: a nil prefs
// drops player_preference_fit from risk scoring (its weight is
// re-normalized over the remaining components); a nil emit simply skips
// telemetry emission.
func New(cfg config.DirectorConfig, prefs *preference.Store, emit *telemetry.Emitter, opts ...Option) *Director {
	d := &Director{cfg: cfg, prefs: prefs, emit: emit, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decide produces a Director Decision for p. snapshot is the LORE the
// proposal was generated against; interp is the live interpreter used to
// re-check return-path feasibility at decision time.
func (d *Director) Decide(ctx context.Context, sessionID string, p *proposal.Proposal, report *proposal.Report, snapshot lore.Snapshot, interp story.Interpreter) proposal.DirectorDecision {
	start := d.now()

	timeout := time.Duration(d.cfg.DecisionTimeoutMs) * time.Millisecond
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	decision := d.decide(ctx, p, report, snapshot, interp)
	decision.ProposalID = p.ID
	decision.Timestamp = d.now()
	decision.LatencyMs = decision.Timestamp.Sub(start).Milliseconds()

	if timeout > 0 && decision.LatencyMs > d.cfg.DecisionTimeoutMs && decision.Decision == proposal.DecisionApprove {
		decision.Decision = proposal.DecisionReject
		decision.Reason = "decision exceeded latency budget"
		decision.RiskScore = 1.0
	}

	if d.emit != nil {
		d.emit.Emit(telemetry.EventDirectorDecision, sessionID, map[string]any{
			"proposal_id": decision.ProposalID.String(),
			"decision":    string(decision.Decision),
			"reason":      decision.Reason,
			"risk_score":  decision.RiskScore,
			"risk_metrics": map[string]any{
				"thematic_consistency":  decision.RiskMetrics[proposal.MetricThematicConsistency],
				"lore_adherence":        decision.RiskMetrics[proposal.MetricLoreAdherence],
				"character_voice":       decision.RiskMetrics[proposal.MetricCharacterVoice],
				"narrative_pacing":      decision.RiskMetrics[proposal.MetricNarrativePacing],
				"player_preference_fit": decision.RiskMetrics[proposal.MetricPlayerPreferenceFit],
				"proposal_confidence":   decision.RiskMetrics[proposal.MetricProposalConfidence],
			},
			"return_path_feasible":   decision.ReturnPath.Feasible,
			"return_path_confidence": decision.ReturnPath.Confidence,
			"latency_ms":             decision.LatencyMs,
		})
	}

	return decision
}

func (d *Director) decide(ctx context.Context, p *proposal.Proposal, report *proposal.Report, snapshot lore.Snapshot, interp story.Interpreter) proposal.DirectorDecision {
	if report.Status == proposal.StatusFailed {
		return proposal.DirectorDecision{
			Decision:  proposal.DecisionReject,
			Reason:    "validation report failed",
			RiskScore: 1.0,
		}
	}

	returnPath := evaluateReturnPath(interp, snapshot.ReturnPaths, p.Content.ReturnPath)

	metrics := d.computeRiskMetrics(ctx, p, snapshot)
	riskScore := computeRiskScore(metrics, d.cfg.Weights)

	// An infeasible return path is itself maximal risk: there's no safe
	// way to land the player back in the authored graph.
	if !returnPath.Feasible {
		riskScore = 1.0
	}

	approve := riskScore <= d.cfg.RiskThreshold &&
		returnPath.Feasible &&
		returnPath.Confidence >= d.cfg.MinReturnConfidence

	decision := proposal.DirectorDecision{
		Decision:    proposal.DecisionReject,
		Reason:      rejectionReason(riskScore, d.cfg.RiskThreshold, returnPath, d.cfg.MinReturnConfidence),
		RiskScore:   riskScore,
		RiskMetrics: metrics,
		ReturnPath:  returnPath,
	}
	if approve {
		decision.Decision = proposal.DecisionApprove
		decision.Reason = "within risk threshold and return path feasible"
	}
	return decision
}

func rejectionReason(riskScore, threshold float64, rp proposal.ReturnPathResult, minConfidence float64) string {
	switch {
	case !rp.Feasible:
		return rp.Reason
	case riskScore > threshold:
		return fmt.Sprintf("risk score %.2f exceeds threshold %.2f", riskScore, threshold)
	case rp.Confidence < minConfidence:
		return fmt.Sprintf("return path confidence %.2f below minimum %.2f", rp.Confidence, minConfidence)
	default:
		return ""
	}
}

// computeRiskMetrics scores the six weighted components of §4.5.
// thematic_consistency and lore_adherence require semantic judgment:
// when a Judge is wired (WithJudge) they're scored by an LLM-as-judge
// call, otherwise they degrade to cfg.PlaceholderDefault. character_voice
// degrades to cfg.PlaceholderDefault unconditionally, mirroring the
// identical fallback in internal/validator/rules/charactervoice.
// narrative_pacing and proposal_confidence are always computable from the
// proposal itself. player_preference_fit is only included when a
// preference store is wired; its weight is re-normalized away otherwise
// rather than guessed.
func (d *Director) computeRiskMetrics(ctx context.Context, p *proposal.Proposal, snapshot lore.Snapshot) proposal.RiskMetrics {
	metrics := proposal.RiskMetrics{
		proposal.MetricThematicConsistency: d.judgeOrDefault(ctx, "stays thematically consistent with the established tone and setting", p.Content.Text, snapshot.ContextHash),
		proposal.MetricLoreAdherence:       d.judgeOrDefault(ctx, "does not contradict established lore, characters, or prior events", p.Content.Text, snapshot.ContextHash),
		proposal.MetricCharacterVoice:      d.cfg.PlaceholderDefault,
		proposal.MetricNarrativePacing: pacingRisk(
			utf8.RuneCountInString(p.Content.Text),
			snapshot.GameState.ContextType,
			d.cfg.PacingTargets,
			d.cfg.PacingToleranceFactor,
		),
		proposal.MetricProposalConfidence: 1 - p.Metadata.ConfidenceScore,
	}
	if d.prefs != nil {
		metrics[proposal.MetricPlayerPreferenceFit] = 1 - d.prefs.Get(string(p.Content.BranchType))
	}
	return metrics
}

// judgeOrDefault scores text against criterion via the wired Judge, falling
// back to cfg.PlaceholderDefault whenever no judge is wired or the judge
// call itself fails — risk scoring must never error on a missing or
// unreachable judge backend.
func (d *Director) judgeOrDefault(ctx context.Context, criterion, text, contextDigest string) float64 {
	if d.judge == nil {
		return d.cfg.PlaceholderDefault
	}
	score, err := d.judge.Score(ctx, criterion, text, contextDigest)
	if err != nil {
		return d.cfg.PlaceholderDefault
	}
	return score
}

// computeRiskScore is a pure, deterministic weighted sum: for fixed
// metrics and weights it is byte-stable across repeated invocations
// (spec §4.5 step 5). Weights for components absent from metrics are
// re-normalized away rather than left as a hole, per the project's Open
// Question decision on placeholder policy.
func computeRiskScore(metrics proposal.RiskMetrics, weights map[string]float64) float64 {
	var weightedSum, totalWeight float64
	for _, name := range riskComponentOrder {
		v, ok := metrics[name]
		if !ok {
			continue
		}
		w := weights[name]
		weightedSum += w * v
		totalWeight += w
	}
	if totalWeight == 0 {
		return 1.0
	}
	return clamp01(weightedSum / totalWeight)
}

// pacingRisk scores deviation from the expected character-length target
// for the current narrative phase. Within tolerance, risk is zero; beyond
// it, risk grows linearly with the excess deviation. An unmapped phase or
// missing target contributes no pacing risk rather than an arbitrary guess.
func pacingRisk(textLen int, contextType lore.ContextType, targets map[string]int, tolerance float64) float64 {
	phase, ok := phaseByContext[contextType]
	if !ok {
		return 0
	}
	target, ok := targets[phase]
	if !ok || target <= 0 {
		return 0
	}
	if tolerance <= 0 {
		tolerance = 1
	}

	deviation := math.Abs(float64(textLen-target)) / float64(target)
	if deviation <= tolerance {
		return 0
	}
	return clamp01((deviation - tolerance) / tolerance)
}

// evaluateReturnPath implements §4.5 step 2: node existence against the
// known return paths the LORE Assembler computed, plus an approximate
// reachability distance when the Story exposes a graph. A match against a
// whitelist-derived set (no GraphEnumerator) is a single feasibility bit:
// there's no graph to measure distance over, so confidence is full or zero.
func evaluateReturnPath(interp story.Interpreter, known story.ReturnPaths, path string) proposal.ReturnPathResult {
	if path == "" {
		return proposal.ReturnPathResult{Feasible: true, Confidence: 1.0, Reason: "no return path requested"}
	}
	if !known.Contains(path) {
		return proposal.ReturnPathResult{
			Feasible:   false,
			Confidence: 0,
			Reason:     fmt.Sprintf("return path %q does not exist or is terminal", path),
		}
	}

	enum, ok := interp.(story.GraphEnumerator)
	if !ok {
		return proposal.ReturnPathResult{Feasible: true, Confidence: 1.0, Reason: "whitelist match; no graph exposed for distance estimate"}
	}

	dist := approximateHopDistance(enum.AllKnots(), interp.CurrentPath(), path)
	return proposal.ReturnPathResult{
		Feasible:   true,
		Confidence: confidenceFromDistance(dist),
		Reason:     fmt.Sprintf("approximate hop distance %d", dist),
	}
}

// approximateHopDistance is a cheap proxy for graph distance: the gap
// between current and target knots in the interpreter's own AllKnots
// ordering. It is not a shortest-path search — the Story exposes no edge
// list — but it is sufficient to rank "nearby" return targets above
// distant ones for the bounded return-window goal.
func approximateHopDistance(knots []string, current, target string) int {
	ci, ok1 := indexOf(knots, baseKnot(current))
	ti, ok2 := indexOf(knots, baseKnot(target))
	if !ok1 || !ok2 {
		return len(knots)
	}
	d := ci - ti
	if d < 0 {
		d = -d
	}
	return d
}

func baseKnot(path string) string {
	if i := strings.Index(path, "."); i >= 0 {
		return path[:i]
	}
	return path
}

func indexOf(haystack []string, needle string) (int, bool) {
	for i, v := range haystack {
		if v == needle {
			return i, true
		}
	}
	return 0, false
}

// confidenceFromDistance decays confidence with approximate distance:
// adjacent knots are fully trusted, and each additional hop erodes
// confidence, floored at 0.
func confidenceFromDistance(dist int) float64 {
	if dist <= 1 {
		return 1.0
	}
	return clamp01(1.0 - float64(dist-1)*0.15)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
