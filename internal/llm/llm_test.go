package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/loomstory/director/pkg/proposal"
	"github.com/loomstory/director/pkg/runtimeerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemperatureClampsAndScales(t *testing.T) {
	cases := []struct {
		name       string
		creativity float64
		want       float64
	}{
		{"zero", 0, 0},
		{"one", 1, 2},
		{"midpoint", 0.5, 1},
		{"negative clamps to zero", -1, 0},
		{"above one clamps to one", 3, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Temperature(tc.creativity), 1e-9)
		})
	}
}

func TestDeriveSeedIsDeterministic(t *testing.T) {
	a := DeriveSeed("hash-1", 0.4, "gpt-4o")
	b := DeriveSeed("hash-1", 0.4, "gpt-4o")
	assert.Equal(t, a, b)
}

func TestDeriveSeedVariesByInput(t *testing.T) {
	base := DeriveSeed("hash-1", 0.4, "gpt-4o")
	assert.NotEqual(t, base, DeriveSeed("hash-2", 0.4, "gpt-4o"))
	assert.NotEqual(t, base, DeriveSeed("hash-1", 0.9, "gpt-4o"))
	assert.NotEqual(t, base, DeriveSeed("hash-1", 0.4, "claude-3"))
}

func TestDeriveSeedWithinModulus(t *testing.T) {
	seed := DeriveSeed("some-input-hash", 0.77, "bedrock-titan")
	assert.GreaterOrEqual(t, seed, int64(0))
	assert.Less(t, seed, int64(1)<<31)
}

func TestClassifyHTTPStatus(t *testing.T) {
	cases := []struct {
		status int
		want   runtimeerr.TransportSubkind
	}{
		{http.StatusUnauthorized, runtimeerr.TransportInvalidKey},
		{http.StatusForbidden, runtimeerr.TransportInvalidKey},
		{http.StatusTooManyRequests, runtimeerr.TransportRateLimit},
		{http.StatusInternalServerError, runtimeerr.TransportAPIError},
		{http.StatusBadGateway, runtimeerr.TransportAPIError},
		{http.StatusBadRequest, runtimeerr.TransportAPIError},
	}
	for _, tc := range cases {
		got := ClassifyHTTPStatus(tc.status, nil)
		require.NotNil(t, got)
		assert.Equal(t, tc.want, got.Subkind)
		assert.Equal(t, tc.status, got.StatusCode)
	}
}

func TestClassifyTransportErrTimeout(t *testing.T) {
	got := ClassifyTransportErr(context.DeadlineExceeded)
	require.NotNil(t, got)
	assert.Equal(t, runtimeerr.TransportTimeout, got.Subkind)
}

func TestClassifyTransportErrNetwork(t *testing.T) {
	got := ClassifyTransportErr(errors.New("connection refused"))
	require.NotNil(t, got)
	assert.Equal(t, runtimeerr.TransportNetwork, got.Subkind)
}

func TestClassifyTransportErrNilIsNil(t *testing.T) {
	assert.Nil(t, ClassifyTransportErr(nil))
}

func TestParseJSONResponseStrict(t *testing.T) {
	var out map[string]string
	err := ParseJSONResponse(`{"text":"hello"}`, &out)
	require.NoError(t, err)
	assert.Equal(t, "hello", out["text"])
}

func TestParseJSONResponseFencedBlock(t *testing.T) {
	raw := "Here is the branch:\n```json\n{\"text\":\"fenced\"}\n```\nHope that helps."
	var out map[string]string
	err := ParseJSONResponse(raw, &out)
	require.NoError(t, err)
	assert.Equal(t, "fenced", out["text"])
}

func TestParseJSONResponseBareObjectAmongProse(t *testing.T) {
	raw := `Sure, here you go: {"text":"bare"} let me know if you need more.`
	var out map[string]string
	err := ParseJSONResponse(raw, &out)
	require.NoError(t, err)
	assert.Equal(t, "bare", out["text"])
}

func TestParseJSONResponseNoJSONIsParseError(t *testing.T) {
	err := ParseJSONResponse("no json here at all", &map[string]string{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, runtimeerr.ErrParse))
}

func sampleProposal(returnPath, text string, idx int) *proposal.Proposal {
	p := proposal.New(
		proposal.Metadata{
			CreatedAt:       time.Now(),
			ModelIdentifier: "gpt-4o",
			ConfidenceScore: 0.8,
		},
		proposal.StoryContext{CurrentScene: "forest_clearing"},
		proposal.Content{
			BranchType: proposal.BranchInkFragment,
			Text:       text,
			ReturnPath: returnPath,
		},
	)
	_ = idx
	return p
}

func TestConsensusSingleSampleReturnedUnchanged(t *testing.T) {
	p := sampleProposal("knot_return", "the wolves howl", 0)
	got := Consensus([]*proposal.Proposal{p})
	assert.Same(t, p, got)
}

func TestConsensusPluralityVoteAndPrefixMerge(t *testing.T) {
	samples := []*proposal.Proposal{
		sampleProposal("knot_return", "the wolves howl in the dark forest", 0),
		sampleProposal("knot_return", "the wolves howl in the distance tonight", 1),
		sampleProposal("knot_alternate", "a raven calls overhead", 2),
	}
	merged := Consensus(samples)
	require.NotNil(t, merged)
	assert.Equal(t, "knot_return", merged.Content.ReturnPath)
	assert.Equal(t, "the wolves howl in the d", merged.Content.Text)
	assert.Equal(t, "low", merged.VersionInfo.DeterminismLevel)
}

func TestConsensusTieBrokenByLowestIndex(t *testing.T) {
	samples := []*proposal.Proposal{
		sampleProposal("path_a", "text one", 0),
		sampleProposal("path_b", "text two", 1),
	}
	merged := Consensus(samples)
	require.NotNil(t, merged)
	assert.Equal(t, "path_a", merged.Content.ReturnPath)
}

func TestConsensusEmptyReturnsNil(t *testing.T) {
	assert.Nil(t, Consensus(nil))
}
