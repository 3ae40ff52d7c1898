package insights

import (
	"math"

	"SeriesPulse/internal/domain/models"
)

const (
	RecMoreData     = "Consider collecting more data points for more reliable forecasting and analysis."
	RecHighVol      = "High volatility detected. Consider implementing risk management strategies and monitoring for sudden changes."
	RecOutliers     = "Multiple outliers detected. Investigate potential data quality issues or exceptional events."
	RecStableGrowth = "Stable growth pattern detected. This is ideal for scaling operations and long-term planning."
	RecDecline      = "Declining trend identified. Consider implementing corrective measures and investigating root causes."
	RecSkewed       = "Data shows significant skewness. Consider using robust statistical methods for analysis."
	RecPredictable  = "Stable, predictable pattern. Excellent foundation for optimization and efficiency improvements."
)

type rule struct {
	fires func(n int, st models.StatisticalSummary, p models.PatternProfile, q models.DataQuality) bool
	text  string
}

// Rules are independent; every firing rule contributes, in this order.
var rules = []rule{
	{func(n int, _ models.StatisticalSummary, _ models.PatternProfile, _ models.DataQuality) bool {
		return n < RecommendMinPoints
	}, RecMoreData},
	{func(_ int, _ models.StatisticalSummary, p models.PatternProfile, _ models.DataQuality) bool {
		return p.Volatility == models.VolatilityHigh
	}, RecHighVol},
	{func(n int, _ models.StatisticalSummary, _ models.PatternProfile, q models.DataQuality) bool {
		return float64(q.Outliers) > float64(n)*RecommendOutlierRatio
	}, RecOutliers},
	{func(_ int, _ models.StatisticalSummary, p models.PatternProfile, _ models.DataQuality) bool {
		return p.TrendDirection == models.TrendUpward && p.Volatility == models.VolatilityLow
	}, RecStableGrowth},
	{func(_ int, _ models.StatisticalSummary, p models.PatternProfile, _ models.DataQuality) bool {
		return p.TrendDirection == models.TrendDownward
	}, RecDecline},
	{func(_ int, st models.StatisticalSummary, _ models.PatternProfile, _ models.DataQuality) bool {
		return math.Abs(st.Skewness) > RecommendSkewMagnitude
	}, RecSkewed},
	{func(_ int, _ models.StatisticalSummary, p models.PatternProfile, _ models.DataQuality) bool {
		return p.Volatility == models.VolatilityLow && p.TrendDirection == models.TrendStable
	}, RecPredictable},
}

// Recommend evaluates every rule against the analysis.
func Recommend(n int, st models.StatisticalSummary, p models.PatternProfile, q models.DataQuality) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		if r.fires(n, st, p, q) {
			out = append(out, r.text)
		}
	}
	return out
}
