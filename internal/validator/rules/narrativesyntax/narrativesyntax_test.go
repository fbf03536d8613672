package narrativesyntax

import (
	"context"
	"testing"

	"github.com/loomstory/director/internal/validator"
	"github.com/loomstory/director/pkg/proposal"
	"github.com/loomstory/director/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func proposalWithText(text string) *proposal.Proposal {
	return proposal.New(
		proposal.Metadata{ModelIdentifier: "test"},
		proposal.StoryContext{CurrentScene: "scene"},
		proposal.Content{BranchType: proposal.BranchNarrativeDelta, Text: text},
	)
}

func TestCheckPassesWellFormedText(t *testing.T) {
	rule, err := New(registry.Config{})
	require.NoError(t, err)
	rc := &validator.RuleContext{Proposal: proposalWithText("She stepped into the hall and listened.")}
	result, _, err := rule.Check(context.Background(), rc)
	require.NoError(t, err)
	assert.Equal(t, proposal.RulePass, result)
}

func TestCheckFailsOnDanglingDivert(t *testing.T) {
	rule, err := New(registry.Config{})
	require.NoError(t, err)
	rc := &validator.RuleContext{Proposal: proposalWithText("She stepped -> forward into the hall.")}
	result, _, err := rule.Check(context.Background(), rc)
	require.NoError(t, err)
	assert.Equal(t, proposal.RuleFail, result)
}

func TestCheckFailsOnUnbalancedBraces(t *testing.T) {
	rule, err := New(registry.Config{})
	require.NoError(t, err)
	rc := &validator.RuleContext{Proposal: proposalWithText("She saw {has_key: a door")}
	result, _, err := rule.Check(context.Background(), rc)
	require.NoError(t, err)
	assert.Equal(t, proposal.RuleFail, result)
}

func TestCheckFailsOnUnmatchedClosingBracket(t *testing.T) {
	rule, err := New(registry.Config{})
	require.NoError(t, err)
	rc := &validator.RuleContext{Proposal: proposalWithText("She saw a door]")}
	result, _, err := rule.Check(context.Background(), rc)
	require.NoError(t, err)
	assert.Equal(t, proposal.RuleFail, result)
}
