package client

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/menta2k/location-processor/pkg/types"
)

var (
	reBlock    = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLine     = regexp.MustCompile(`(?m)^\s*//.*$`)
	reInline   = regexp.MustCompile(`(?m)//.*$`)
	reTrailing = regexp.MustCompile(`,(\s*[}\]])`)
)

// ParseLocateResult parses the JSON answer of a vision model. Answers that
// cannot be parsed yield an empty result whose description says why, so a
// bad answer never fails the caller.
func ParseLocateResult(raw string) *types.LocateResult {
	raw = SanitizeModelJSON(raw)

	if !strings.HasPrefix(raw, "{") {
		return &types.LocateResult{Description: "Model returned non-JSON response"}
	}

	var result types.LocateResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return &types.LocateResult{Description: "Failed to parse model response"}
	}
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

	raw = reBlock.ReplaceAllString(raw, "")
	raw = reLine.ReplaceAllString(raw, "")
	raw = reInline.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
