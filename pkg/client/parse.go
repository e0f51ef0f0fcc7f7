package client

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/menta2k/car-studio/pkg/types"
)

// UnknownLabel is reported when the model answer cannot be interpreted
const UnknownLabel = "unknown"

var (
	reBlockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment   = regexp.MustCompile(`(?m)^\s*//.*$`)
	reInlineComment = regexp.MustCompile(`(?m)//.*$`)
	reTrailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// ParseClassification extracts {"label", "confidence"} from a model answer.
// Answers that carry no usable JSON yield UnknownLabel with zero confidence.
func ParseClassification(raw string) *types.Classification {
	raw = SanitizeModelJSON(raw)

	fallback := &types.Classification{Label: UnknownLabel, Confidence: 0}
	if !strings.HasPrefix(raw, "{") {
		return fallback
	}

	var result types.Classification
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return fallback
	}
	if strings.TrimSpace(result.Label) == "" {
		return fallback
	}
	result.Accepted = false
	return &result
}

// SanitizeModelJSON removes code fences, comments, and trailing commas from JSON response
func SanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	// Strip triple-backtick fences if present
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reInlineComment.ReplaceAllString(raw, "")
	raw = reTrailingComma.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
