// Package orchestrator implements the Runtime Orchestrator: the glue that
// drives one choice point through LORE Assembler -> Prompt Engine -> LLM
// Adapter -> Validator -> Director -> (on acceptance) Integration State
// Machine -> Hook Manager -> Save/Load Adapter -> Telemetry (spec §3, §4).
// Concurrent multi-candidate generation is grounded on the teacher's
// pkg/scanner.Scanner (errgroup fan-out with a context-bound cancellation
// group), adapted from "run N probes, collect all results" to "generate N
// candidate proposals, merge or rank, present one".
package orchestrator

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/loomstory/director/internal/director"
	"github.com/loomstory/director/internal/llm"
	"github.com/loomstory/director/internal/prompt"
	"github.com/loomstory/director/internal/validator"
	"github.com/loomstory/director/pkg/config"
	"github.com/loomstory/director/pkg/hooks"
	"github.com/loomstory/director/pkg/lore"
	"github.com/loomstory/director/pkg/proposal"
	"github.com/loomstory/director/pkg/save"
	"github.com/loomstory/director/pkg/statemachine"
	"github.com/loomstory/director/pkg/story"
	"github.com/loomstory/director/pkg/telemetry"
)

// defaultCandidateSamples is how many candidate proposals the Orchestrator
// requests concurrently from a Writer that doesn't honor a derived seed
// (llm.SeedAware), merging them with llm.Consensus. A seeded Writer only
// ever needs one sample, since repeating the same seed reproduces the
// same output.
const defaultCandidateSamples = 3

// Outcome is everything produced for one choice point up through the
// Director's verdict. The player-facing caller inspects Presentable to
// decide whether to show the branch at all.
type Outcome struct {
	Snapshot    lore.Snapshot
	Proposal    *proposal.Proposal
	Report      *proposal.Report
	Decision    *proposal.DirectorDecision
	Machine     *statemachine.Machine
	Presentable bool
	FallbackReason string
}

// Orchestrator owns the single-threaded-per-choice-point pipeline. It does
// not own the Story object itself — the caller supplies the interp for
// every call, matching the Shared-Resource Policy (spec §5): the Story is
// exclusively owned and mutated by whoever embeds this Orchestrator.
type Orchestrator struct {
	cfg        *config.Config
	assembler  *lore.Assembler
	prompts    *prompt.Engine
	writer     llm.Writer
	pipeline   *validator.Pipeline
	director   *director.Director
	hooksMgr   *hooks.Manager
	saves      *save.Adapter
	emit       *telemetry.Emitter
	sessionID  string
	candidates int
	branchType proposal.BranchType
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSessionID tags every emitted telemetry event; defaults to "default".
func WithSessionID(id string) Option {
	return func(o *Orchestrator) { o.sessionID = id }
}

// WithCandidateSamples overrides defaultCandidateSamples.
func WithCandidateSamples(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.candidates = n
		}
	}
}

// WithBranchType overrides the requested Branch Proposal type; defaults to
// narrative_delta, the common "continue the scene" case. Authoring-time
// selection of ink_fragment/ink_knot is out of this runtime's scope.
func WithBranchType(bt proposal.BranchType) Option {
	return func(o *Orchestrator) { o.branchType = bt }
}

// New constructs an Orchestrator wiring together every pipeline stage.
func New(cfg *config.Config, assembler *lore.Assembler, prompts *prompt.Engine, writer llm.Writer, pipeline *validator.Pipeline, dir *director.Director, hooksMgr *hooks.Manager, saves *save.Adapter, emit *telemetry.Emitter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:        cfg,
		assembler:  assembler,
		prompts:    prompts,
		writer:     writer,
		pipeline:   pipeline,
		director:   dir,
		hooksMgr:   hooksMgr,
		saves:      saves,
		emit:       emit,
		sessionID:  "default",
		candidates: defaultCandidateSamples,
		branchType: proposal.BranchNarrativeDelta,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Propose runs snapshot -> prompt -> generate -> validate -> decide for one
// choice point and advances a fresh Machine through SUBMITTED -> VALIDATING
// -> (VALIDATED|REJECTED) and, on approval, -> QUEUED -> PRESENTING. On any
// pipeline error the returned Outcome has Presentable=false and
// FallbackReason set; the caller must fall back to authored choices only
// and must not expose any partial state to the player.
func (o *Orchestrator) Propose(ctx context.Context, interp story.Interpreter) (*Outcome, error) {
	machine := statemachine.New(o.sessionID)

	snapshot := o.assembler.Assemble(interp)
	if snapshot.GameState.CurrentNode == "" {
		return o.fallback(machine, snapshot, "no current node to branch from"), nil
	}

	systemPrompt, userPrompt, err := o.prompts.Render(snapshot)
	if err != nil {
		return o.fallback(machine, snapshot, fmt.Sprintf("prompt render failed: %v", err)), err
	}

	candidate, err := o.generate(ctx, snapshot, systemPrompt, userPrompt)
	if err != nil {
		return o.fallback(machine, snapshot, fmt.Sprintf("generation failed: %v", err)), err
	}
	o.emitEvent(telemetry.EventBranchProposalGenerated, map[string]any{
		"proposal_id": candidate.ID.String(),
		"branch_type": string(candidate.Content.BranchType),
	})

	if err := machine.Transition(statemachine.Validating); err != nil {
		return o.fallback(machine, snapshot, err.Error()), err
	}

	report := o.pipeline.Run(ctx, &validator.RuleContext{
		Proposal:        candidate,
		KnownPaths:      snapshot.ReturnPaths,
		Interp:          interp,
		MaxLengthTokens: o.cfg.Validator.MaxLengthTokens,
	})
	if report.SanitizedProposal != nil {
		candidate = report.SanitizedProposal
	}
	o.emitEvent(telemetry.EventValidationPipelineRun, map[string]any{
		"proposal_id": candidate.ID.String(),
		"status":      string(report.Status),
	})

	if report.Status == proposal.StatusFailed {
		if err := machine.Transition(statemachine.Rejected); err != nil {
			return o.fallback(machine, snapshot, err.Error()), err
		}
		return &Outcome{Snapshot: snapshot, Proposal: candidate, Report: report, Machine: machine, Presentable: false, FallbackReason: "validation failed"}, nil
	}

	decision := o.director.Decide(ctx, o.sessionID, candidate, report, snapshot, interp)

	if decision.Decision != proposal.DecisionApprove {
		if err := machine.Transition(statemachine.Rejected); err != nil {
			return o.fallback(machine, snapshot, err.Error()), err
		}
		return &Outcome{Snapshot: snapshot, Proposal: candidate, Report: report, Decision: &decision, Machine: machine, Presentable: false, FallbackReason: decision.Reason}, nil
	}

	if err := machine.Transition(statemachine.Validated); err != nil {
		return o.fallback(machine, snapshot, err.Error()), err
	}
	if err := machine.Transition(statemachine.Queued); err != nil {
		return o.fallback(machine, snapshot, err.Error()), err
	}
	if err := machine.Transition(statemachine.Presenting); err != nil {
		return o.fallback(machine, snapshot, err.Error()), err
	}
	o.emitEvent(telemetry.EventBranchChoicePresented, map[string]any{
		"proposal_id": candidate.ID.String(),
		"return_path": candidate.Content.ReturnPath,
	})

	return &Outcome{
		Snapshot:    snapshot,
		Proposal:    candidate,
		Report:      report,
		Decision:    &decision,
		Machine:     machine,
		Presentable: true,
	}, nil
}

// Resolve carries a Presentable Outcome through the player's accept/decline
// choice. On decline, the Machine moves to the terminal DECLINED state and
// nothing is injected. On accept, it checkpoints before mutation
// (pre_inject), mutates the Story via ChoosePath, checkpoints again after
// (post_checkpoint), and emits on_commit. A failure after injection rolls
// the Story back to the pre-inject checkpoint and reports on_rollback.
func (o *Orchestrator) Resolve(ctx context.Context, interp story.Interpreter, saveID string, outcome *Outcome, accepted bool) error {
	if !outcome.Presentable {
		return fmt.Errorf("orchestrator: Resolve called on a non-presentable outcome")
	}

	o.emitEvent(telemetry.EventBranchChoiceMade, map[string]any{
		"proposal_id": outcome.Proposal.ID.String(),
		"accepted":    accepted,
	})

	if !accepted {
		if err := outcome.Machine.Transition(statemachine.Declined); err != nil {
			return err
		}
		o.emitEvent(telemetry.EventPlacementOutcome, map[string]any{
			"proposal_id": outcome.Proposal.ID.String(),
			"outcome":     "declined",
		})
		return nil
	}

	preInject, err := interp.ToJSON()
	if err != nil {
		return fmt.Errorf("orchestrator: snapshot pre-inject state: %w", err)
	}
	checkpointID := outcome.Proposal.ID.String()
	if o.saves != nil {
		if _, err := o.saves.Checkpoint(checkpointID, save.Payload{GameState: preInject}); err != nil {
			return fmt.Errorf("orchestrator: write pre-inject checkpoint: %w", err)
		}
	}
	if o.hooksMgr != nil {
		if _, err := o.hooksMgr.EmitSequential(ctx, hooks.PreInject, hooks.Payload{"proposal_id": outcome.Proposal.ID.String()}); err != nil {
			return err
		}
	}

	if err := outcome.Machine.Transition(statemachine.Integrating); err != nil {
		return err
	}
	if err := outcome.Machine.Transition(statemachine.Integrated); err != nil {
		return err
	}
	if err := outcome.Machine.Transition(statemachine.Executing); err != nil {
		return err
	}

	mutateErr := o.inject(interp, outcome.Proposal)
	if mutateErr != nil {
		if err := interp.LoadJSON(preInject); err != nil {
			return fmt.Errorf("orchestrator: rollback after injection failure: %w (original error: %v)", err, mutateErr)
		}
		if o.hooksMgr != nil {
			_, _ = o.hooksMgr.EmitSequential(ctx, hooks.OnRollback, hooks.Payload{"proposal_id": outcome.Proposal.ID.String(), "reason": mutateErr.Error()})
		}
		if err := outcome.Machine.Transition(statemachine.Reverted); err != nil {
			return err
		}
		o.emitEvent(telemetry.EventBranchExecutionOutcome, map[string]any{
			"proposal_id": outcome.Proposal.ID.String(),
			"outcome":     "reverted",
			"reason":      mutateErr.Error(),
		})
		return mutateErr
	}

	postInject, err := interp.ToJSON()
	if err != nil {
		return fmt.Errorf("orchestrator: snapshot post-inject state: %w", err)
	}
	o.assembler.RecordChoice(outcome.Proposal.Content.Text)
	if o.saves != nil {
		if _, err := o.saves.Commit(saveID, save.Payload{
			GameState:        postInject,
			LastCheckpointID: checkpointID,
			BranchHistory:    []save.BranchHistoryEntry{{ID: outcome.Proposal.ID.String(), Outcome: "integrated"}},
		}); err != nil {
			return fmt.Errorf("orchestrator: write post-checkpoint: %w", err)
		}
	}
	if o.hooksMgr != nil {
		if _, err := o.hooksMgr.EmitSequential(ctx, hooks.OnCommit, hooks.Payload{"proposal_id": outcome.Proposal.ID.String()}); err != nil {
			return err
		}
	}

	if err := outcome.Machine.Transition(statemachine.Archived); err != nil {
		return err
	}
	o.emitEvent(telemetry.EventBranchExecutionOutcome, map[string]any{
		"proposal_id": outcome.Proposal.ID.String(),
		"outcome":     "committed",
	})
	o.emitEvent(telemetry.EventPlacementOutcome, map[string]any{
		"proposal_id": outcome.Proposal.ID.String(),
		"outcome":     "integrated",
	})
	return nil
}

// inject hands the approved branch to the Story. This narrow capability
// interface has no "splice in generated prose" primitive of its own — that
// belongs to whatever concrete interpreter is wired in — so integration is
// expressed the only way story.Interpreter allows: diverting into the
// return path the Director already verified feasible. A proposal without
// a return path is a narrative_delta consumed in place and has nothing
// further to divert into.
func (o *Orchestrator) inject(interp story.Interpreter, p *proposal.Proposal) error {
	if p.Content.ReturnPath == "" {
		return nil
	}
	return interp.ChoosePath(p.Content.ReturnPath)
}

// generate produces one merged candidate proposal. A llm.SeedAware Writer
// that honors seeds only needs a single deterministic sample; otherwise
// o.candidates samples are requested concurrently and merged with
// llm.Consensus (Open Question (c)).
func (o *Orchestrator) generate(ctx context.Context, snapshot lore.Snapshot, systemPrompt, userPrompt string) (*proposal.Proposal, error) {
	n := o.candidates
	seeded := false
	if sa, ok := o.writer.(llm.SeedAware); ok && sa.HonorsSeed() {
		seeded = true
		n = 1
	}

	samples := make([]*proposal.Proposal, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			req := llm.Request{
				SystemPrompt: systemPrompt,
				UserPrompt:   userPrompt,
				Model:        o.cfg.Writer.Model,
				Creativity:   o.cfg.Writer.Creativity,
				BaseURL:      o.cfg.Writer.BaseUrl,
				APIKey:       o.cfg.Writer.APIKey,
				TimeoutMs:    o.cfg.Writer.TimeoutMs,
				UseJSONMode:  true,
				InputHash:    snapshot.ContextHash,
				BranchType:   o.branchType,
				CurrentScene: snapshot.GameState.CurrentNode,
			}
			if seeded {
				seed := llm.DeriveSeed(snapshot.ContextHash, o.cfg.Writer.Creativity, o.cfg.Writer.Model)
				req.Seed = &seed
			}
			p, err := o.writer.GenerateProposal(gctx, req)
			if err != nil {
				return fmt.Errorf("candidate %d: %w", i, err)
			}
			samples[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := llm.Consensus(samples)
	if merged == nil {
		return nil, fmt.Errorf("orchestrator: writer produced no candidates")
	}
	return merged, nil
}

func (o *Orchestrator) fallback(machine *statemachine.Machine, snapshot lore.Snapshot, reason string) *Outcome {
	return &Outcome{Snapshot: snapshot, Machine: machine, Presentable: false, FallbackReason: reason}
}

func (o *Orchestrator) emitEvent(eventType string, data map[string]any) {
	if o.emit == nil {
		return
	}
	o.emit.Emit(eventType, o.sessionID, data)
}
