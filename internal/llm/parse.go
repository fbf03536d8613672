package llm

import (
	"encoding/json"
	"strings"

	"github.com/loomstory/director/pkg/runtimeerr"
)

// fencedCodeBlock extracts the body of the first ```...``` fenced block, if any.
func fencedCodeBlock(s string) (string, bool) {
	start := strings.Index(s, "```")
	if start == -1 {
		return "", false
	}
	rest := s[start+3:]
	// skip an optional language tag on the opening fence line
	if nl := strings.IndexByte(rest, '\n'); nl != -1 && !strings.Contains(rest[:nl], "{") {
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, "```")
	if end == -1 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// firstJSONObject extracts the first balanced {...} substring, tolerating
// leading/trailing prose around it.
func firstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", false
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// ParseJSONResponse attempts, in order: strict JSON, a fenced code block,
// then the first balanced {...} substring. Failure at every stage is a
// ParseError (spec §4.3/§7, treated as an LLMTransportError).
func ParseJSONResponse(raw string, v any) error {
	if err := json.Unmarshal([]byte(raw), v); err == nil {
		return nil
	}

	if fenced, ok := fencedCodeBlock(raw); ok {
		if err := json.Unmarshal([]byte(fenced), v); err == nil {
			return nil
		}
	}

	if obj, ok := firstJSONObject(raw); ok {
		if err := json.Unmarshal([]byte(obj), v); err == nil {
			return nil
		}
	}

	return runtimeerr.Wrap(runtimeerr.KindParse, "llm.ParseJSONResponse", "no valid JSON object found in response")
}
