// Package lipsum implements a llm.Writer that fabricates filler prose
// instead of calling a real model backend. It exists for local development
// and CI smoke-testing of the pipeline without API credentials, the same
// role the teacher's internal/generators/test.Lipsum plays for exercising a
// scan without a live generator.
package lipsum

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/loomstory/director/internal/llm"
	"github.com/loomstory/director/pkg/proposal"
	"github.com/loomstory/director/pkg/registry"
)

func init() {
	llm.Writers.Register("lipsum", NewFromConfig)
}

// Writer returns randomized Lorem Ipsum prose as its Branch Proposal text.
// It never honors Request.Seed, so the orchestrator samples it multiple
// times and merges with llm.Consensus rather than trusting a single draw.
type Writer struct {
	rng *rand.Rand
}

// New constructs a Writer with its own random source.
func New() *Writer {
	return &Writer{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewFromConfig adapts New to the registry.Config factory form; lipsum
// takes no configuration.
func NewFromConfig(_ registry.Config) (llm.Writer, error) {
	return New(), nil
}

var loremWords = []string{
	"lantern", "ember", "threshold", "whisper", "hollow", "wayfarer", "cinder",
	"hearth", "tideline", "rook", "lattice", "quiet", "ashen", "tarry", "glint",
	"marrow", "veil", "grove", "cairn", "brine", "loam", "spindle", "fen", "moor",
}

func (w *Writer) sentence() string {
	n := 6 + w.rng.Intn(10)
	words := make([]string, n)
	for i := range words {
		words[i] = loremWords[w.rng.Intn(len(loremWords))]
	}
	words[0] = strings.ToUpper(words[0][:1]) + words[0][1:]
	return strings.Join(words, " ") + "."
}

// GenerateProposal fabricates a narrative_delta Branch Proposal: one to
// three sentences of filler prose, no return path (nothing to divert into,
// since this Writer has no knowledge of the Story's graph).
func (w *Writer) GenerateProposal(_ context.Context, req llm.Request) (*proposal.Proposal, error) {
	sentenceCount := 1 + w.rng.Intn(3)
	sentences := make([]string, sentenceCount)
	for i := range sentences {
		sentences[i] = w.sentence()
	}

	return proposal.New(
		proposal.Metadata{
			CreatedAt:       time.Now(),
			ModelIdentifier: "lipsum",
			ModelVersion:    "v1",
			ContextHash:     req.InputHash,
			ConfidenceScore: 0.5,
		},
		proposal.StoryContext{CurrentScene: req.CurrentScene},
		proposal.Content{
			BranchType: req.BranchType,
			Text:       strings.Join(sentences, " "),
		},
	), nil
}
