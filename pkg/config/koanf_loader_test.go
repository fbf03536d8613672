package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromYAMLFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "director.yaml")

	yamlContent := `
writer:
  provider: anthropic
  model: claude-3-opus
  creativity: 0.9

validator:
  enabledRules:
    - profanity
    - schema
  maxLengthTokens: 256

telemetry:
  enabled: true
  bufferSize: 100
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "anthropic", cfg.Writer.Provider)
	assert.Equal(t, "claude-3-opus", cfg.Writer.Model)
	assert.Equal(t, 0.9, cfg.Writer.Creativity)
	assert.Equal(t, []string{"profanity", "schema"}, cfg.Validator.EnabledRules)
	assert.Equal(t, 256, cfg.Validator.MaxLengthTokens)
	assert.Equal(t, 100, cfg.Telemetry.BufferSize)

	// fields untouched by the file keep the documented defaults
	assert.Equal(t, 0.5, cfg.Director.RiskThreshold)
	assert.InDelta(t, 1.0, sumWeights(cfg.Director.Weights), 1e-9)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "director.yaml")

	yamlContent := `
writer:
  model: gpt-4o
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	t.Setenv("DIRECTOR_WRITER__MODEL", "gpt-4o-mini")
	t.Setenv("DIRECTOR_VALIDATOR__MAXLENGTHTOKENS", "128")

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.Writer.Model, "env var must win over file")
	assert.Equal(t, 128, cfg.Validator.MaxLengthTokens)
}

func TestLoadNoConfigFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Writer.Provider)
	assert.Equal(t, 50, cfg.Telemetry.BufferSize)
}

func TestLoadRejectsInvalidWeights(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "director.yaml")

	yamlContent := `
directorConfig:
  weights:
    thematic_consistency: 0.9
    lore_adherence: 0.9
    character_voice: 0.9
    narrative_pacing: 0.9
    player_preference_fit: 0.9
    proposal_confidence: 0.9
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	_, err := Load(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 1")
}

func sumWeights(weights map[string]float64) float64 {
	var sum float64
	for _, w := range weights {
		sum += w
	}
	return sum
}
