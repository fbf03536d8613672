// Package llm defines the shared LLM Adapter contract (spec §4.3): the
// Writer interface every concrete backend implements, creativity/seed
// derivation, and transport-error classification. Concrete backends live
// in internal/llm/openai, internal/llm/anthropic, and internal/llm/bedrock,
// selected at construction time through a pkg/registry.Registry[Writer]
// exactly the way the teacher selects its generators.
package llm

import (
	"context"
	"time"

	"github.com/loomstory/director/pkg/proposal"
	"github.com/loomstory/director/pkg/registry"
)

// Writers is the shared registry every concrete backend self-registers into
// via init(), keyed by the name configured in writer.provider.
var Writers = registry.New[Writer]("llm.Writer")

// Request is the input to GenerateProposal.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Model        string
	// Creativity is in [0,1]; backends map it to their own sampling
	// temperature via Temperature.
	Creativity   float64
	Seed         *int64
	InputHash    string
	BaseURL      string
	APIKey       string
	TimeoutMs    int
	UseJSONMode  bool
	ExtraHeaders map[string]string
	// BranchType and CurrentScene seed the resulting Proposal's
	// story_context/content fields; the backend is not responsible for
	// constructing the rest of LORE's context.
	BranchType   proposal.BranchType
	CurrentScene string
}

// Writer generates a candidate Branch Proposal from a rendered prompt
// pair. Implementations must never panic on a classified transport
// failure; they return a *runtimeerr.TransportError instead (see
// pkg/runtimeerr).
type Writer interface {
	GenerateProposal(ctx context.Context, req Request) (*proposal.Proposal, error)
}

// SeedAware is an optional capability: a Writer backend that honors
// Request.Seed (produces the same completion for the same seed) implements
// it and returns true. Callers that need determinism — rather than
// multi-sample consensus — should type-assert for it; a Writer that
// doesn't implement SeedAware is assumed non-seeded.
type SeedAware interface {
	HonorsSeed() bool
}

const (
	minTemperature = 0.0
	maxTemperature = 2.0
)

// Temperature maps creativity (clamped to [0,1]) linearly onto the [0,2]
// sampling-temperature range used by every backend in the pack.
func Temperature(creativity float64) float64 {
	c := creativity
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	return c * (maxTemperature - minTemperature)
}

// RawBranch is the JSON shape every backend asks its model to emit (via the
// prompt engine's schema instructions) and decodes with ParseJSONResponse.
// Backends fill in everything ParseJSONResponse can't recover from prose:
// model identity, seed, timing, and the story context echo.
type RawBranch struct {
	Text                 string   `json:"text"`
	CharacterVoice       string   `json:"character_voice"`
	LengthTokens         int      `json:"length_tokens"`
	Tags                 []string `json:"tags"`
	ReturnPath           string   `json:"return_path"`
	ReturnPathConfidence float64  `json:"return_path_confidence"`
	ConfidenceScore      float64  `json:"confidence_score"`
}

// BuildProposal assembles a Proposal from a backend's raw decoded response
// plus the bookkeeping every backend shares: model id, elapsed generation
// time, and the seed/creativity/input-hash version info.
func BuildProposal(req Request, raw RawBranch, modelVersion string, elapsed time.Duration) *proposal.Proposal {
	p := proposal.New(
		proposal.Metadata{
			CreatedAt:        time.Now(),
			ModelIdentifier:  req.Model,
			ModelVersion:     modelVersion,
			Seed:             req.Seed,
			ContextHash:      req.InputHash,
			ConfidenceScore:  raw.ConfidenceScore,
			GenerationTimeMs: elapsed.Milliseconds(),
		},
		proposal.StoryContext{
			CurrentScene: req.CurrentScene,
		},
		proposal.Content{
			BranchType:           req.BranchType,
			Text:                 raw.Text,
			CharacterVoice:       raw.CharacterVoice,
			LengthTokens:         raw.LengthTokens,
			Tags:                 raw.Tags,
			ReturnPath:           raw.ReturnPath,
			ReturnPathConfidence: raw.ReturnPathConfidence,
		},
	)
	p.VersionInfo = proposal.VersionInfo{
		InputHash:  req.InputHash,
		Creativity: req.Creativity,
	}
	if req.Seed != nil {
		p.VersionInfo.LLMSeed = *req.Seed
	}
	return p
}
