package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
}

func TestDirectorConfigValidateWeightsMustSumToOne(t *testing.T) {
	cfg := Default()
	cfg.Director.Weights["proposal_confidence"] = 0.99
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 1")
}

func TestDirectorConfigValidateMissingWeight(t *testing.T) {
	cfg := Default()
	delete(cfg.Director.Weights, "lore_adherence")
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lore_adherence")
}

func TestDirectorConfigValidateRangeChecks(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "negative tolerance",
			mutate:  func(c *Config) { c.Director.PacingToleranceFactor = 0 },
			wantErr: "pacingToleranceFactor",
		},
		{
			name:    "placeholder out of range",
			mutate:  func(c *Config) { c.Director.PlaceholderDefault = 1.5 },
			wantErr: "placeholderDefault",
		},
		{
			name:    "risk threshold out of range",
			mutate:  func(c *Config) { c.Director.RiskThreshold = -0.1 },
			wantErr: "risk_threshold",
		},
		{
			name:    "min return confidence out of range",
			mutate:  func(c *Config) { c.Director.MinReturnConfidence = 1.1 },
			wantErr: "min_return_confidence",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigMergeOverridesNonZeroFields(t *testing.T) {
	base := Default()
	override := &Config{
		Writer: WriterConfig{
			Provider: "anthropic",
			Model:    "claude-3-opus",
		},
		Validator: ValidatorConfig{
			MaxLengthTokens: 1024,
		},
	}

	base.Merge(override)

	assert.Equal(t, "anthropic", base.Writer.Provider)
	assert.Equal(t, "claude-3-opus", base.Writer.Model)
	assert.Equal(t, 1024, base.Validator.MaxLengthTokens)
	// untouched fields keep their defaults
	assert.Equal(t, 0.7, base.Writer.Creativity)
	assert.Equal(t, 0.5, base.Director.RiskThreshold)
}

func TestConfigMergeNilIsNoop(t *testing.T) {
	base := Default()
	before := *base
	base.Merge(nil)
	assert.Equal(t, before.Writer, base.Writer)
}
