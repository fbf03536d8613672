package llm

import (
	"github.com/loomstory/director/pkg/proposal"
)

// Consensus merges multiple candidate proposals for the same request into a
// single proposal when backends don't honor a derived seed (Open Question
// (c)): plurality vote on return_path, then longest-common-prefix merge of
// the text among samples that agree with the winning path. Ties are broken
// by the lowest sample index. The merged proposal is marked
// determinism_level "low". Consensus requires at least two samples; a
// single sample is returned unchanged.
func Consensus(samples []*proposal.Proposal) *proposal.Proposal {
	if len(samples) == 0 {
		return nil
	}
	if len(samples) == 1 {
		return samples[0]
	}

	counts := make(map[string]int, len(samples))
	firstIndex := make(map[string]int, len(samples))
	for i, s := range samples {
		path := s.Content.ReturnPath
		counts[path]++
		if _, ok := firstIndex[path]; !ok {
			firstIndex[path] = i
		}
	}

	winner := samples[0].Content.ReturnPath
	bestCount := -1
	for path, count := range counts {
		if count > bestCount || (count == bestCount && firstIndex[path] < firstIndex[winner]) {
			bestCount = count
			winner = path
		}
	}

	var agreeing []*proposal.Proposal
	for _, s := range samples {
		if s.Content.ReturnPath == winner {
			agreeing = append(agreeing, s)
		}
	}

	merged := *agreeing[0]
	mergedContent := merged.Content
	mergedContent.Text = longestCommonPrefix(agreeing)
	merged.Content = mergedContent
	merged.VersionInfo.DeterminismLevel = "low"

	return &merged
}

func longestCommonPrefix(samples []*proposal.Proposal) string {
	if len(samples) == 0 {
		return ""
	}
	prefix := samples[0].Content.Text
	for _, s := range samples[1:] {
		prefix = commonPrefix(prefix, s.Content.Text)
		if prefix == "" {
			break
		}
	}
	return prefix
}

func commonPrefix(a, b string) string {
	i := 0
	for i < len(a) && i < len(b) && a[i] == b[i] {
		i++
	}
	return a[:i]
}
