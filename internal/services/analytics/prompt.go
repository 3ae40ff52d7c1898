package analytics

import (
	"fmt"
	"strconv"
	"strings"

	"SeriesPulse/internal/domain/models"
)

// SystemPrompt frames the LLM as an analyst and pins the three-field JSON reply.
const SystemPrompt = `You are an expert data analyst specializing in time series analysis. ` +
	`Provide clear, actionable insights in JSON format with three sections: ` +
	`"summary" (2-3 sentences explaining what the data shows), "trend" (detailed trend analysis), ` +
	`and "recommendation" (specific actionable advice). Be concise but insightful. ` +
	`IMPORTANT: Each field must be a simple string, not an object or array.`

// BuildPrompt renders the digest as the user message.
func BuildPrompt(d models.InsightDigest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this time series data and provide insights:\n")
	fmt.Fprintf(&b, "Time series dataset with %d data points:\n", d.Points)
	fmt.Fprintf(&b, "- Mean: %s\n", num(d.Mean))
	fmt.Fprintf(&b, "- Median: %s\n", num(d.Median))
	fmt.Fprintf(&b, "- Standard Deviation: %s\n", num(d.StandardDeviation))
	fmt.Fprintf(&b, "- Variance: %s\n", num(d.Variance))
	fmt.Fprintf(&b, "- Trend: %s\n", d.Trend)
	fmt.Fprintf(&b, "- Volatility: %s\n", d.Volatility)
	fmt.Fprintf(&b, "- Outliers detected: %d\n", d.Outliers)
	fmt.Fprintf(&b, "- Date range: %s to %s\n", d.DateFrom, d.DateTo)
	fmt.Fprintf(&b, "- Value range: %s to %s\n", num(d.ValueMin), num(d.ValueMax))
	return b.String()
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
