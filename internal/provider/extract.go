package provider

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/wolfman30/woundlens-ai/internal/sections"
)

var (
	leadingFence  = regexp.MustCompile("^```[A-Za-z]*[ \\t]*\\r?\\n?")
	trailingFence = regexp.MustCompile("\\r?\\n?[ \\t]*```$")
)

// extractBetween returns the trimmed text between the bold headers start and
// end. The first occurrence of start is used, paired with the first end that
// follows it.
func extractBetween(raw, start, end string) (string, error) {
	open := "**" + start + ":**"
	i := strings.Index(raw, open)
	if i < 0 {
		return "", &SectionNotFoundError{Section: start}
	}
	rest := raw[i+len(open):]
	j := strings.Index(rest, "**"+end+":**")
	if j < 0 {
		return "", &SectionNotFoundError{Section: start}
	}
	return strings.TrimSpace(rest[:j]), nil
}

func treatmentPlanExcerpt(raw string) (string, error) {
	return extractBetween(raw, sections.TreatmentPlan, sections.RecommendedProducts)
}

func productsExcerpt(raw string) (string, error) {
	return extractBetween(raw, sections.RecommendedProducts, sections.WoundTissueEvaluation)
}

// stripCodeFences removes a Markdown fence wrapping the whole reply.
// Backticks inside the body are left alone.
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	text = leadingFence.ReplaceAllString(text, "")
	text = trailingFence.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// decodeJSONReply validates a JSON-mode reply and returns it without fences.
func decodeJSONReply(text string) (json.RawMessage, error) {
	cleaned := stripCodeFences(text)
	var probe any
	if err := json.Unmarshal([]byte(cleaned), &probe); err != nil {
		return nil, &InvalidJSONError{Raw: text, Err: err}
	}
	if _, ok := probe.(map[string]any); !ok {
		return nil, &InvalidJSONError{Raw: text, Err: fmt.Errorf("expected a JSON object, got %T", probe)}
	}
	return json.RawMessage(cleaned), nil
}

// decodeHealingReply reads {"healing_progress_percentage": n}. Numbers given
// as floats or numeric strings are rounded; the result is clamped to 0..100.
func decodeHealingReply(text string) (HealingProgress, error) {
	raw, err := decodeJSONReply(text)
	if err != nil {
		return HealingProgress{}, err
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return HealingProgress{}, &InvalidJSONError{Raw: text, Err: err}
	}
	value, ok := body["healing_progress_percentage"]
	if !ok {
		return HealingProgress{}, &InvalidJSONError{Raw: text, Err: fmt.Errorf("missing healing_progress_percentage")}
	}

	var pct float64
	switch v := value.(type) {
	case float64:
		pct = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "%"), 64)
		if err != nil {
			return HealingProgress{}, &InvalidJSONError{Raw: text, Err: fmt.Errorf("healing_progress_percentage %q: %w", v, err)}
		}
		pct = parsed
	default:
		return HealingProgress{}, &InvalidJSONError{Raw: text, Err: fmt.Errorf("healing_progress_percentage has type %T", value)}
	}
	return HealingProgress{Percentage: clampPercentage(pct)}, nil
}

func clampPercentage(v float64) int {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return int(math.Round(v))
	}
}
