package analytics

import (
	"bytes"
	"encoding/json"

	"SeriesPulse/internal/domain/models"
)

// Fallback texts for fields an LLM omitted or returned as null.
const (
	DefaultSummary        = "Analysis completed successfully."
	DefaultTrend          = "Trend analysis available."
	DefaultRecommendation = "Recommendations generated."
)

// NormalizeInsight coerces an LLM JSON reply into three strings. Strings are kept,
// null or missing fields take the default text and any other JSON value is kept as its
// compact JSON text. Content that is not a JSON object yields all three defaults.
func NormalizeInsight(content []byte) models.AIInsight {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(content, &raw); err != nil || raw == nil {
		return models.AIInsight{
			Summary:        DefaultSummary,
			Trend:          DefaultTrend,
			Recommendation: DefaultRecommendation,
		}
	}
	return models.AIInsight{
		Summary:        normalizeField(raw["summary"], DefaultSummary),
		Trend:          normalizeField(raw["trend"], DefaultTrend),
		Recommendation: normalizeField(raw["recommendation"], DefaultRecommendation),
	}
}

func normalizeField(raw json.RawMessage, def string) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return def
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return def
	}
	return buf.String()
}
