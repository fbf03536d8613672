package markupstrip

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

func TestCheckPassesPlainProse(t *testing.T) {
	rule, err := New(registry.Config{})
	require.NoError(t, err)
	rc := &validator.RuleContext{Proposal: proposalWithText("the travelers rested by the fire.")}
	result, _, err := rule.Check(context.Background(), rc)
	require.NoError(t, err)
	assert.Equal(t, proposal.RulePass, result)
}

func TestCheckStripsTagLinesAndDiverts(t *testing.T) {
	rule, err := New(registry.Config{})
	require.NoError(t, err)
	text := "# author_note: unused\nShe opened the door.\n-> old_mill_interior\nIt creaked loudly."
	rc := &validator.RuleContext{Proposal: proposalWithText(text)}
	result, _, err := rule.Check(context.Background(), rc)
	require.NoError(t, err)
	assert.Equal(t, proposal.RuleSanitized, result)
	assert.NotContains(t, rc.Proposal.Content.Text, "#")
	assert.NotContains(t, rc.Proposal.Content.Text, "->")
}

func TestCheckCollapsesExcessBlankLines(t *testing.T) {
	rule, err := New(registry.Config{})
	require.NoError(t, err)
	rc := &validator.RuleContext{Proposal: proposalWithText("first line.\n\n\n\nsecond line.")}
	result, _, err := rule.Check(context.Background(), rc)
	require.NoError(t, err)
	assert.Equal(t, proposal.RuleSanitized, result)
	assert.Equal(t, "first line.\n\nsecond line.", rc.Proposal.Content.Text)
}

func TestCheckStripsConditionalBlocks(t *testing.T) {
	rule, err := New(registry.Config{})
	require.NoError(t, err)
	rc := &validator.RuleContext{Proposal: proposalWithText("You see {has_key: a locked door|an open door}.")}
	result, _, err := rule.Check(context.Background(), rc)
	require.NoError(t, err)
	assert.Equal(t, proposal.RuleSanitized, result)
	assert.NotContains(t, rc.Proposal.Content.Text, "{")
}
