package analytics

import (
	"context"
	"fmt"

	"SeriesPulse/internal/domain/models"
	domsvc "SeriesPulse/internal/domain/service"
)

const localName = "local"

// LocalInsightGenerator writes the three insight texts from fixed rules. It stands in for
// the LLM when no API key is configured.
type LocalInsightGenerator struct{}

func NewLocalInsightGenerator() *LocalInsightGenerator { return &LocalInsightGenerator{} }

func (LocalInsightGenerator) Name() string { return localName }

func (LocalInsightGenerator) Generate(ctx context.Context, d models.InsightDigest) (models.AIInsight, error) {
	if err := ctx.Err(); err != nil {
		return models.AIInsight{}, wrap(localName, err)
	}
	if d.Points == 0 {
		return models.AIInsight{
			Summary:        "No data available for analysis.",
			Trend:          "Unable to determine trend without data.",
			Recommendation: "Please upload a valid CSV file with time series data.",
		}, nil
	}
	return models.AIInsight{
		Summary:        localSummary(d),
		Trend:          localTrend(d),
		Recommendation: localRecommendation(d),
	}, nil
}

func strengthWord(strength float64, weakest string) string {
	switch {
	case strength > 0.2:
		return "strong"
	case strength > 0.1:
		return "moderate"
	default:
		return weakest
	}
}

func localSummary(d models.InsightDigest) string {
	outcome := "stability"
	switch d.Trend {
	case models.TrendUpward:
		outcome = "growth"
	case models.TrendDownward:
		outcome = "decline"
	}
	return fmt.Sprintf("The dataset shows an average value of %.2f with a range from %.2f to %.2f. "+
		"The overall trend is %s with %s momentum, indicating %s over the analyzed period.",
		d.Mean, d.ValueMin, d.ValueMax, d.Trend, strengthWord(d.TrendStrength, "mild"), outcome)
}

func localTrend(d models.InsightDigest) string {
	strength := strengthWord(d.TrendStrength, "weak")
	volatile := d.Volatility == models.VolatilityHigh
	switch d.Trend {
	case models.TrendUpward:
		tail := "consistent positive momentum"
		if volatile {
			tail = "rapid but unstable growth"
		}
		return fmt.Sprintf("The data exhibits a %s upward trend with %s volatility. This suggests %s that could continue if current conditions persist.",
			strength, d.Volatility, tail)
	case models.TrendDownward:
		tail := "steady declining pattern"
		if volatile {
			tail = "sharp decline with fluctuations"
		}
		return fmt.Sprintf("A %s downward trend is observed with %s volatility. This indicates %s that may require intervention.",
			strength, d.Volatility, tail)
	default:
		tail := "consistent performance"
		if volatile {
			tail = "fluctuating equilibrium"
		}
		return fmt.Sprintf("The trend remains relatively stable with %s volatility. This suggests %s around the mean value.",
			d.Volatility, tail)
	}
}

func localRecommendation(d models.InsightDigest) string {
	cov := d.CoV
	switch {
	case d.Trend == models.TrendUpward && cov < 0.2:
		return "Consider scaling operations to capitalize on the positive growth trend while monitoring for potential market saturation."
	case d.Trend == models.TrendUpward && cov > 0.3:
		return "While growth is present, high volatility suggests implementing risk management strategies to protect against sudden reversals."
	case d.Trend == models.TrendDownward && cov < 0.2:
		return "The consistent decline indicates systematic issues that require strategic intervention and operational adjustments."
	case d.Trend == models.TrendDownward && cov > 0.3:
		return "High volatility during decline suggests market instability. Focus on stabilization measures before growth initiatives."
	case cov > 0.3:
		return "High volatility in stable trends suggests implementing monitoring systems and contingency plans for rapid response to changes."
	default:
		return "Stable performance provides an opportunity to optimize current operations and explore strategic expansion initiatives."
	}
}

var _ domsvc.InsightGenerator = LocalInsightGenerator{}
