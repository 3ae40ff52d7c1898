package insights

import (
	"fmt"
	"math"
	"strings"

	"SeriesPulse/internal/domain/models"
)

// Summarize renders the fixed plain-language description of an analysis.
func Summarize(n int, st models.StatisticalSummary, p models.PatternProfile, q models.DataQuality, cov float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your time series dataset contains %d observations with an average value of %.2f. ", n, st.Mean)

	switch {
	case math.Abs(st.Skewness) < SkewNormalBand:
		b.WriteString("The data follows a relatively normal distribution ")
	case st.Skewness > SkewNormalBand:
		b.WriteString("The data is right-skewed with occasional high values ")
	default:
		b.WriteString("The data is left-skewed with occasional low values ")
	}
	fmt.Fprintf(&b, "and shows %s volatility (%.1f%% coefficient of variation). ", p.Volatility, math.Abs(cov)*100)

	switch p.TrendDirection {
	case models.TrendUpward:
		fmt.Fprintf(&b, "There's a clear upward trend with %.1f%% growth over the period. ", math.Abs(p.TrendStrength)*100)
	case models.TrendDownward:
		fmt.Fprintf(&b, "The data shows a declining trend with %.1f%% decrease over the period. ", math.Abs(p.TrendStrength)*100)
	default:
		b.WriteString("The values remain relatively stable with no significant trend. ")
	}

	switch {
	case q.Outliers == 1:
		fmt.Fprintf(&b, "1 outlier was detected, representing %.1f%% of the data.", 100/float64(n))
	case q.Outliers > 1:
		fmt.Fprintf(&b, "%d outliers were detected, representing %.1f%% of the data.",
			q.Outliers, float64(q.Outliers)/float64(n)*100)
	default:
		b.WriteString("No significant outliers were detected in the dataset.")
	}
	return b.String()
}
