// Package proposal defines the three core schemas that flow through the
// pipeline (spec §3): Branch Proposal, Validation Report, and Director
// Decision. Required-field enforcement stands in for full JSON-Schema
// draft-07 validation, since no JSON-Schema library exists anywhere in the
// retrieval pack this module was built from (see DESIGN.md).
package proposal

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// BranchType is the kind of content a proposal carries.
type BranchType string

const (
	BranchInkFragment    BranchType = "ink_fragment"
	BranchNarrativeDelta BranchType = "narrative_delta"
	BranchInkKnot        BranchType = "ink_knot"
)

// Metadata carries provenance and confidence for a Proposal.
type Metadata struct {
	CreatedAt        time.Time `json:"created_at" validate:"required"`
	ModelIdentifier  string    `json:"model_identifier" validate:"required"`
	ModelVersion     string    `json:"model_version,omitempty"`
	Seed             *int64    `json:"seed,omitempty"`
	ContextHash      string    `json:"context_hash,omitempty"`
	ConfidenceScore  float64   `json:"confidence_score" validate:"gte=0,lte=1"`
	GenerationTimeMs int64     `json:"generation_time_ms"`
}

// StoryContext is the subset of LORE reflected back into the proposal for
// audit purposes.
type StoryContext struct {
	CurrentScene string         `json:"current_scene" validate:"required"`
	Snapshot     map[string]any `json:"snapshot,omitempty"`
}

// Content is the actual narrative payload of a Proposal.
type Content struct {
	BranchType           BranchType `json:"branch_type" validate:"required,oneof=ink_fragment narrative_delta ink_knot"`
	Text                 string     `json:"text" validate:"required"`
	CharacterVoice       string     `json:"character_voice,omitempty"`
	LengthTokens         int        `json:"length_tokens,omitempty"`
	Tags                 []string   `json:"tags,omitempty"`
	ReturnPath           string     `json:"return_path,omitempty"`
	ReturnPathConfidence float64    `json:"return_path_confidence,omitempty" validate:"gte=0,lte=1"`
}

// Constraints are the optional authoring constraints a Writer was given.
type Constraints struct {
	MaxLength          int      `json:"max_length,omitempty"`
	ProhibitedPatterns []string `json:"prohibited_patterns,omitempty"`
	StyleTemplate      string   `json:"style_template,omitempty"`
}

// VersionInfo records what produced this proposal, for reproducibility.
type VersionInfo struct {
	InputHash  string  `json:"input_hash,omitempty"`
	LLMSeed    int64   `json:"llm_seed,omitempty"`
	Creativity float64 `json:"creativity,omitempty"`
	// DeterminismLevel is "low" when this proposal was produced by
	// multi-sample consensus because the backend doesn't honor seeds.
	DeterminismLevel string `json:"determinism_level,omitempty"`
}

// Proposal is a single candidate branch generated by the Writer.
type Proposal struct {
	ID           uuid.UUID    `json:"id" validate:"required"`
	Metadata     Metadata     `json:"metadata" validate:"required"`
	StoryContext StoryContext `json:"story_context" validate:"required"`
	Content      Content      `json:"content" validate:"required"`
	Constraints  Constraints  `json:"constraints,omitempty"`
	VersionInfo  VersionInfo  `json:"version_info,omitempty"`
}

// New constructs a Proposal with a fresh UUIDv4 id and a clamped
// confidence score.
func New(metadata Metadata, storyCtx StoryContext, content Content) *Proposal {
	metadata.ConfidenceScore = clamp01(metadata.ConfidenceScore)
	content.ReturnPathConfidence = clamp01(content.ReturnPathConfidence)
	return &Proposal{
		ID:           uuid.New(),
		Metadata:     metadata,
		StoryContext: storyCtx,
		Content:      content,
	}
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

var structValidator = validator.New()

// Validate enforces the required-field/range semantics of the Proposal
// schema (spec §6).
func (p *Proposal) Validate() error {
	return structValidator.Struct(p)
}
