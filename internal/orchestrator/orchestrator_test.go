package orchestrator

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

type fakeInterpreter struct {
	path    string
	state   map[string]any
	choices []string
}

func (f *fakeInterpreter) CanContinue() bool                      { return false }
func (f *fakeInterpreter) Continue() (string, error)               { return "", nil }
func (f *fakeInterpreter) CurrentChoices() []story.Choice           { return nil }
func (f *fakeInterpreter) ChooseIndex(i int) error                  { return nil }
func (f *fakeInterpreter) CurrentTags() []string                   { return nil }
func (f *fakeInterpreter) SetVariable(name string, value any) error { return nil }
func (f *fakeInterpreter) CurrentPath() string                      { return f.path }
func (f *fakeInterpreter) Variable(name string) (any, bool)         { return nil, false }

func (f *fakeInterpreter) ChoosePath(path string) error {
	f.choices = append(f.choices, path)
	f.path = path
	return nil
}

func (f *fakeInterpreter) ToJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`{"path":%q}`, f.path)), nil
}

func (f *fakeInterpreter) LoadJSON(data []byte) error {
	f.state = map[string]any{"restored": string(data)}
	return nil
}

// failingInjectInterpreter fails ChoosePath to exercise the rollback path.
type failingInjectInterpreter struct {
	fakeInterpreter
	loaded []byte
}

func (f *failingInjectInterpreter) ChoosePath(path string) error {
	return fmt.Errorf("divert rejected by story")
}

func (f *failingInjectInterpreter) LoadJSON(data []byte) error {
	f.loaded = data
	return nil
}

type fakeWriter struct {
	returnPath string
	confidence float64
	honorsSeed bool
	calls      int
}

func (w *fakeWriter) HonorsSeed() bool { return w.honorsSeed }

func (w *fakeWriter) GenerateProposal(ctx context.Context, req llm.Request) (*proposal.Proposal, error) {
	w.calls++
	return proposal.New(
		proposal.Metadata{ModelIdentifier: "fake-model", ConfidenceScore: w.confidence},
		proposal.StoryContext{CurrentScene: req.CurrentScene},
		proposal.Content{
			BranchType: req.BranchType,
			Text:       "The travelers pressed onward.",
			ReturnPath: w.returnPath,
		},
	), nil
}

type erroringWriter struct{}

func (erroringWriter) HonorsSeed() bool { return true }
func (erroringWriter) GenerateProposal(ctx context.Context, req llm.Request) (*proposal.Proposal, error) {
	return nil, fmt.Errorf("backend unavailable")
}

func testHarness(t *testing.T, writer llm.Writer, opts ...Option) (*Orchestrator, *lore.Assembler) {
	t.Helper()

	assembler := lore.NewAssembler(lore.WithWhitelist([]string{"village_square.well", "forest_path"}))
	promptEngine := prompt.New(nil)
	pipeline := validator.NewPipeline(nil)

	cfg := config.Default()
	saveDir := t.TempDir()
	saves, err := save.NewAdapter(saveDir)
	require.NoError(t, err)

	hooksMgr := hooks.New()
	emit := telemetry.New()
	dir := director.New(cfg.Director, nil, emit)

	o := New(cfg, assembler, promptEngine, writer, pipeline, dir, hooksMgr, saves, emit, opts...)
	return o, assembler
}

func TestProposeApprovesAndPresentsFeasibleBranch(t *testing.T) {
	writer := &fakeWriter{returnPath: "village_square.well", confidence: 0.95, honorsSeed: true}
	o, _ := testHarness(t, writer)
	interp := &fakeInterpreter{path: "village_square"}

	outcome, err := o.Propose(context.Background(), interp)

	require.NoError(t, err)
	assert.True(t, outcome.Presentable)
	assert.Equal(t, proposal.DecisionApprove, outcome.Decision.Decision)
	assert.Equal(t, 1, writer.calls, "seeded writer should only be sampled once")
}

func TestProposeFallsBackWhenNoCurrentNode(t *testing.T) {
	writer := &fakeWriter{returnPath: "village_square.well", confidence: 0.9, honorsSeed: true}
	o, _ := testHarness(t, writer)
	interp := &fakeInterpreter{path: ""}

	outcome, err := o.Propose(context.Background(), interp)

	require.NoError(t, err)
	assert.False(t, outcome.Presentable)
	assert.NotEmpty(t, outcome.FallbackReason)
}

func TestProposeRejectsUnknownReturnPath(t *testing.T) {
	writer := &fakeWriter{returnPath: "nonexistent_knot_xyz", confidence: 0.9, honorsSeed: true}
	o, _ := testHarness(t, writer)
	interp := &fakeInterpreter{path: "village_square"}

	outcome, err := o.Propose(context.Background(), interp)

	require.NoError(t, err)
	assert.False(t, outcome.Presentable)
	require.NotNil(t, outcome.Decision)
	assert.Equal(t, proposal.DecisionReject, outcome.Decision.Decision)
	assert.Equal(t, 1.0, outcome.Decision.RiskScore)
}

func TestProposeSamplesMultipleCandidatesWhenWriterIsNotSeedAware(t *testing.T) {
	writer := &fakeWriter{returnPath: "village_square.well", confidence: 0.9, honorsSeed: false}
	o, _ := testHarness(t, writer, WithCandidateSamples(4))
	interp := &fakeInterpreter{path: "village_square"}

	_, err := o.Propose(context.Background(), interp)

	require.NoError(t, err)
	assert.Equal(t, 4, writer.calls)
}

func TestProposePropagatesWriterError(t *testing.T) {
	o, _ := testHarness(t, erroringWriter{})
	interp := &fakeInterpreter{path: "village_square"}

	outcome, err := o.Propose(context.Background(), interp)

	require.Error(t, err)
	assert.False(t, outcome.Presentable)
}

func TestResolveAcceptedIntegratesAndArchives(t *testing.T) {
	writer := &fakeWriter{returnPath: "village_square.well", confidence: 0.95, honorsSeed: true}
	o, _ := testHarness(t, writer)
	interp := &fakeInterpreter{path: "village_square"}

	outcome, err := o.Propose(context.Background(), interp)
	require.NoError(t, err)
	require.True(t, outcome.Presentable)

	err = o.Resolve(context.Background(), interp, "save-1", outcome, true)
	require.NoError(t, err)

	assert.Equal(t, "village_square.well", interp.path)
	assert.Equal(t, statemachine.Archived, outcome.Machine.State())
}

func TestResolveDeclinedDoesNotMutateStory(t *testing.T) {
	writer := &fakeWriter{returnPath: "village_square.well", confidence: 0.95, honorsSeed: true}
	o, _ := testHarness(t, writer)
	interp := &fakeInterpreter{path: "village_square"}

	outcome, err := o.Propose(context.Background(), interp)
	require.NoError(t, err)
	require.True(t, outcome.Presentable)

	err = o.Resolve(context.Background(), interp, "save-1", outcome, false)
	require.NoError(t, err)

	assert.Equal(t, "village_square", interp.path)
	assert.Empty(t, interp.choices)
	assert.True(t, outcome.Machine.IsTerminal())
}

func TestResolveRollsBackOnInjectionFailure(t *testing.T) {
	writer := &fakeWriter{returnPath: "village_square.well", confidence: 0.95, honorsSeed: true}
	o, _ := testHarness(t, writer)
	interp := &failingInjectInterpreter{fakeInterpreter: fakeInterpreter{path: "village_square"}}

	outcome, err := o.Propose(context.Background(), interp)
	require.NoError(t, err)
	require.True(t, outcome.Presentable)

	err = o.Resolve(context.Background(), interp, "save-1", outcome, true)
	require.Error(t, err)
	assert.NotEmpty(t, interp.loaded)
	assert.True(t, outcome.Machine.IsTerminal())
}
