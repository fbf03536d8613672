package config

import (
	"fmt"
	"math"
)

// Config is the complete configuration surface for the runtime (§6).
type Config struct {
	Director  DirectorConfig  `yaml:"directorConfig" koanf:"directorconfig"`
	Writer    WriterConfig    `yaml:"writer" koanf:"writer"`
	Validator ValidatorConfig `yaml:"validator" koanf:"validator"`
	Telemetry TelemetryConfig `yaml:"telemetry" koanf:"telemetry"`
}

// DirectorConfig tunes risk scoring and decision thresholds for internal/director.
type DirectorConfig struct {
	// Weights maps each of the six risk components (thematic_consistency,
	// lore_adherence, character_voice, narrative_pacing,
	// player_preference_fit, proposal_confidence) to its weight. Must sum
	// to 1 (within epsilon).
	Weights map[string]float64 `yaml:"weights" koanf:"weights"`
	// PacingTargets maps a narrative phase name to its target character length.
	PacingTargets map[string]int `yaml:"pacingTargets" koanf:"pacingtargets"`
	// PacingToleranceFactor scales how far a proposal's length may deviate
	// from its phase target before pacing risk climbs.
	PacingToleranceFactor float64 `yaml:"pacingToleranceFactor" koanf:"pacingtolerancefactor" validate:"gt=0"`
	// PlaceholderDefault is substituted for a risk component that requires
	// embeddings the runtime doesn't have available.
	PlaceholderDefault float64 `yaml:"placeholderDefault" koanf:"placeholderdefault" validate:"gte=0,lte=1"`
	// RiskThreshold is the maximum risk_score that still approves a proposal.
	RiskThreshold float64 `yaml:"risk_threshold" koanf:"risk_threshold" validate:"gte=0,lte=1"`
	// MinReturnConfidence is the minimum return_path.confidence required to approve.
	MinReturnConfidence float64 `yaml:"min_return_confidence" koanf:"min_return_confidence" validate:"gte=0,lte=1"`
	// DecisionTimeoutMs is the hard timeout for computeRiskScore + decision (default 500ms).
	DecisionTimeoutMs int `yaml:"decisionTimeoutMs" koanf:"decisiontimeoutms" validate:"gte=0"`
	// JudgeEnabled turns on LLM-as-judge scoring of thematic_consistency
	// and lore_adherence via the configured Writer backend, rather than
	// leaving both at PlaceholderDefault.
	JudgeEnabled bool `yaml:"judgeEnabled" koanf:"judgeenabled"`
}

// WriterConfig selects and tunes the LLM Adapter backend (internal/llm).
type WriterConfig struct {
	// Provider selects the concrete Writer backend: "openai", "anthropic", or "bedrock".
	Provider string `yaml:"provider" koanf:"provider" validate:"omitempty,oneof=openai anthropic bedrock"`
	// Creativity is in [0,1] and is mapped linearly to a [0,2] sampling
	// temperature by internal/llm.
	Creativity float64 `yaml:"creativity" koanf:"creativity" validate:"gte=0,lte=1"`
	Model      string  `yaml:"model" koanf:"model"`
	BaseUrl    string  `yaml:"baseUrl" koanf:"baseurl"`
	TimeoutMs  int     `yaml:"timeoutMs" koanf:"timeoutms" validate:"gte=0"`
	APIKey     string  `yaml:"apiKey,omitempty" koanf:"apikey"`
	// RateLimit is requests per second; 0 means unlimited.
	RateLimit float64 `yaml:"rateLimit,omitempty" koanf:"ratelimit" validate:"gte=0"`
}

// ValidatorConfig selects and orders the rule pipeline (internal/validator).
type ValidatorConfig struct {
	// EnabledRules is an ordered list of rule names; order is execution order.
	EnabledRules    []string `yaml:"enabledRules" koanf:"enabledrules"`
	MaxLengthTokens int      `yaml:"maxLengthTokens" koanf:"maxlengthtokens" validate:"gte=0"`
}

// TelemetryConfig configures the Telemetry Emitter (pkg/telemetry).
type TelemetryConfig struct {
	BackendUrl string `yaml:"backendUrl,omitempty" koanf:"backendurl"`
	BufferSize int    `yaml:"bufferSize" koanf:"buffersize" validate:"gte=0"`
	Enabled    bool   `yaml:"enabled" koanf:"enabled"`
}

// sixRiskComponents is the closed vocabulary of weighted risk metrics (§4.5).
var sixRiskComponents = []string{
	"thematic_consistency",
	"lore_adherence",
	"character_voice",
	"narrative_pacing",
	"player_preference_fit",
	"proposal_confidence",
}

// Default returns a Config populated with the runtime's documented defaults.
func Default() *Config {
	return &Config{
		Director: DirectorConfig{
			Weights: map[string]float64{
				"thematic_consistency":  0.22,
				"lore_adherence":        0.22,
				"character_voice":       0.18,
				"narrative_pacing":      0.13,
				"player_preference_fit": 0.13,
				"proposal_confidence":   0.12,
			},
			PacingTargets: map[string]int{
				"setup":      400,
				"rising":     600,
				"climax":     500,
				"resolution": 350,
			},
			PacingToleranceFactor: 0.6,
			PlaceholderDefault:    0.3,
			RiskThreshold:         0.5,
			MinReturnConfidence:   0.6,
			DecisionTimeoutMs:     500,
		},
		Writer: WriterConfig{
			Provider:   "openai",
			Creativity: 0.7,
			TimeoutMs:  30000,
		},
		Validator: ValidatorConfig{
			EnabledRules: []string{
				"profanity",
				"explicit_content",
				"schema",
				"length",
				"markup_strip",
				"narrative_syntax",
				"return_path",
			},
			MaxLengthTokens: 512,
		},
		Telemetry: TelemetryConfig{
			BufferSize: 50,
			Enabled:    true,
		},
	}
}

// Validate checks cross-field invariants that struct tags can't express.
func (c *Config) Validate() error {
	if err := c.Director.validate(); err != nil {
		return fmt.Errorf("directorConfig: %w", err)
	}
	return nil
}

func (d *DirectorConfig) validate() error {
	if len(d.Weights) == 0 {
		return fmt.Errorf("weights must be set")
	}
	var sum float64
	for _, name := range sixRiskComponents {
		w, ok := d.Weights[name]
		if !ok {
			return fmt.Errorf("missing weight for risk component %q", name)
		}
		if w < 0 {
			return fmt.Errorf("weight for %q must be non-negative, got %f", name, w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("weights must sum to 1, got %f", sum)
	}
	if d.PacingToleranceFactor <= 0 {
		return fmt.Errorf("pacingToleranceFactor must be positive, got %f", d.PacingToleranceFactor)
	}
	if d.PlaceholderDefault < 0 || d.PlaceholderDefault > 1 {
		return fmt.Errorf("placeholderDefault must be in [0,1], got %f", d.PlaceholderDefault)
	}
	if d.RiskThreshold < 0 || d.RiskThreshold > 1 {
		return fmt.Errorf("risk_threshold must be in [0,1], got %f", d.RiskThreshold)
	}
	if d.MinReturnConfidence < 0 || d.MinReturnConfidence > 1 {
		return fmt.Errorf("min_return_confidence must be in [0,1], got %f", d.MinReturnConfidence)
	}
	return nil
}

// Merge overlays other onto c, with other's non-zero fields taking precedence.
// Used to apply CLI-flag overrides after file+env layering.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if len(other.Director.Weights) > 0 {
		c.Director.Weights = other.Director.Weights
	}
	if len(other.Director.PacingTargets) > 0 {
		c.Director.PacingTargets = other.Director.PacingTargets
	}
	if other.Director.PacingToleranceFactor != 0 {
		c.Director.PacingToleranceFactor = other.Director.PacingToleranceFactor
	}
	if other.Director.RiskThreshold != 0 {
		c.Director.RiskThreshold = other.Director.RiskThreshold
	}
	if other.Director.MinReturnConfidence != 0 {
		c.Director.MinReturnConfidence = other.Director.MinReturnConfidence
	}
	if other.Director.DecisionTimeoutMs != 0 {
		c.Director.DecisionTimeoutMs = other.Director.DecisionTimeoutMs
	}
	if other.Director.PlaceholderDefault != 0 {
		c.Director.PlaceholderDefault = other.Director.PlaceholderDefault
	}
	if other.Director.JudgeEnabled {
		c.Director.JudgeEnabled = true
	}

	if other.Writer.Provider != "" {
		c.Writer.Provider = other.Writer.Provider
	}
	if other.Writer.Model != "" {
		c.Writer.Model = other.Writer.Model
	}
	if other.Writer.BaseUrl != "" {
		c.Writer.BaseUrl = other.Writer.BaseUrl
	}
	if other.Writer.APIKey != "" {
		c.Writer.APIKey = other.Writer.APIKey
	}
	if other.Writer.Creativity != 0 {
		c.Writer.Creativity = other.Writer.Creativity
	}
	if other.Writer.TimeoutMs != 0 {
		c.Writer.TimeoutMs = other.Writer.TimeoutMs
	}
	if other.Writer.RateLimit != 0 {
		c.Writer.RateLimit = other.Writer.RateLimit
	}

	if len(other.Validator.EnabledRules) > 0 {
		c.Validator.EnabledRules = other.Validator.EnabledRules
	}
	if other.Validator.MaxLengthTokens != 0 {
		c.Validator.MaxLengthTokens = other.Validator.MaxLengthTokens
	}

	if other.Telemetry.BackendUrl != "" {
		c.Telemetry.BackendUrl = other.Telemetry.BackendUrl
	}
	if other.Telemetry.BufferSize != 0 {
		c.Telemetry.BufferSize = other.Telemetry.BufferSize
	}
	if other.Telemetry.Enabled {
		c.Telemetry.Enabled = true
	}
}
