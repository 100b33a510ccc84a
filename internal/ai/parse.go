package ai

import (
	"encoding/json"
	"strings"

	"github.com/retainhq/churnscope/pkg/models"
)

// StripCodeFences removes a wrapping markdown code fence, with or without a
// language tag, from a model response. Text without a leading fence is
// returned trimmed but otherwise untouched.
func StripCodeFences(s string) string {
	text := strings.TrimSpace(s)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	// Drop the opening fence line (``` or ```json).
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[idx+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
	}

	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// ParseReport decodes a model response into a ChurnReport after removing any
// code fences. On failure the caller keeps the raw text and transitions the
// analysis to completed_with_errors instead of failing it.
func ParseReport(raw string) (models.ChurnReport, error) {
	var report models.ChurnReport
	if err := json.Unmarshal([]byte(StripCodeFences(raw)), &report); err != nil {
		return models.ChurnReport{}, err
	}
	return report, nil
}
