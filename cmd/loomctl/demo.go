package main

import (
	"context"
	"fmt"
	"os"

	"github.com/loomstory/director/internal/director"
	"github.com/loomstory/director/internal/director/judge"
	"github.com/loomstory/director/internal/llm"
	"github.com/loomstory/director/internal/orchestrator"
	"github.com/loomstory/director/internal/prompt"
	"github.com/loomstory/director/internal/validator"
	"github.com/loomstory/director/pkg/cli"
	"github.com/loomstory/director/pkg/config"
	"github.com/loomstory/director/pkg/hooks"
	"github.com/loomstory/director/pkg/lore"
	"github.com/loomstory/director/pkg/registry"
	"github.com/loomstory/director/pkg/save"
	"github.com/loomstory/director/pkg/story"
	"github.com/loomstory/director/pkg/telemetry"
)

// DemoCmd drives one choice point through the full pipeline against a
// small in-memory story, without requiring a live narrative interpreter.
// It exists for local development and CI smoke-testing (§ ambient CLI
// stack), not as part of the runtime's request path.
type DemoCmd struct {
	Writer     string `help:"Writer backend name to use." default:"lipsum"`
	APIKey     string `help:"API key for the chosen writer backend (if required)."`
	BaseURL    string `help:"Base URL override for the chosen writer backend."`
	Region     string `help:"Region (bedrock only)."`
	ConfigFile string `help:"Runtime config YAML file; defaults are used if omitted." type:"existingfile" name:"config-file"`
	SaveDir    string `help:"Directory for save checkpoints." default:".loomctl-demo-save"`
	Accept     bool   `help:"Accept the presented branch (declines otherwise)." default:"true"`
	RulesGlob  string `help:"Comma-separated validator-rule glob patterns, overriding the config file's enabledRules (e.g. \"profanity,schema\" or \"*\")." name:"rules-glob"`
}

func (d *DemoCmd) Run() error {
	cfg, err := loadDemoConfig(d.ConfigFile)
	if err != nil {
		return err
	}

	writerCfg := registry.Config{
		"api_key":    d.APIKey,
		"base_url":   d.BaseURL,
		"region":     d.Region,
		"rate_limit": cfg.Writer.RateLimit,
	}
	writer, err := llm.Writers.Create(d.Writer, writerCfg)
	if err != nil {
		return fmt.Errorf("creating writer %q: %w", d.Writer, err)
	}

	interp, err := story.NewMemoryStory("village_square", demoGraph())
	if err != nil {
		return fmt.Errorf("building demo story: %w", err)
	}

	enabledRules := cfg.Validator.EnabledRules
	if d.RulesGlob != "" {
		matches, err := cli.ParseCommaSeparatedGlobs(d.RulesGlob, validator.Registry.List())
		if err != nil {
			return fmt.Errorf("expanding rules glob %q: %w", d.RulesGlob, err)
		}
		if len(matches) == 0 {
			return fmt.Errorf("no validator rules match pattern: %s", d.RulesGlob)
		}
		enabledRules = matches
	}

	pipeline, err := validator.FromNames(enabledRules, registry.Config{})
	if err != nil {
		return fmt.Errorf("building validator pipeline: %w", err)
	}

	if err := os.MkdirAll(d.SaveDir, 0o755); err != nil {
		return fmt.Errorf("creating save directory: %w", err)
	}
	saves, err := save.NewAdapter(d.SaveDir)
	if err != nil {
		return fmt.Errorf("opening save adapter: %w", err)
	}

	emit := telemetry.New(telemetry.WithBufferSize(cfg.Telemetry.BufferSize))
	emit.AddBackend(telemetry.NewPrometheusBackend())
	if cfg.Telemetry.BackendUrl != "" {
		emit.AddBackend(telemetry.NewHTTPBackend(cfg.Telemetry.BackendUrl, nil))
	}
	var dirOpts []director.Option
	if cfg.Director.JudgeEnabled {
		dirOpts = append(dirOpts, director.WithJudge(judge.New(writer, judge.Config{Enabled: true, CacheEnabled: true})))
	}
	dir := director.New(cfg.Director, nil, emit, dirOpts...)
	assembler := lore.NewAssembler(lore.WithWhitelist(interp.AllKnots()))
	prompts := prompt.New(nil)
	hooksMgr := hooks.New()

	o := orchestrator.New(cfg, assembler, prompts, writer, pipeline, dir, hooksMgr, saves, emit,
		orchestrator.WithSessionID("loomctl-demo"))

	ctx := context.Background()
	outcome, err := o.Propose(ctx, interp)
	if err != nil {
		return fmt.Errorf("propose: %w", err)
	}

	fmt.Printf("current node: %s\n", outcome.Snapshot.GameState.CurrentNode)
	if !outcome.Presentable {
		fmt.Printf("branch not presentable: %s\n", outcome.FallbackReason)
		return nil
	}

	fmt.Printf("proposed text: %s\n", outcome.Proposal.Content.Text)
	fmt.Printf("director decision: %s (risk_score=%.2f)\n", outcome.Decision.Decision, outcome.Decision.RiskScore)

	if err := o.Resolve(ctx, interp, "loomctl-demo-save", outcome, d.Accept); err != nil {
		return fmt.Errorf("resolve: %w", err)
	}
	fmt.Printf("accepted=%v, final node: %s\n", d.Accept, interp.CurrentPath())
	return nil
}

func loadDemoConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func demoGraph() map[string]*story.Knot {
	return map[string]*story.Knot{
		"village_square": {
			Text:    "The square is quiet at dusk.",
			Choices: []story.Choice{{Text: "Visit the well", Index: 0}},
			Targets: map[int]string{0: "village_square.well"},
		},
		"village_square.well": {
			Text: "Cool water glints in the dark.",
		},
	}
}
