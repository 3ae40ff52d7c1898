// Package insights computes descriptive statistics, data-quality diagnostics and heuristic
// pattern labels for a single time series.
package insights

import (
	"math"

	"SeriesPulse/internal/domain/models"
	"SeriesPulse/internal/services/features"
)

const (
	emptySummary        = "No data available for analysis."
	emptyRecommendation = "Please upload valid time series data."
)

// Analyze runs the full engine over s. It never fails: an empty series yields the
// sentinel result and degenerate arithmetic falls back to zero values.
func Analyze(s models.Series) models.AdvancedInsights {
	if s.Len() == 0 {
		return empty()
	}
	values := s.Values()
	n := len(values)

	mean := features.Mean(values)
	variance := features.SampleVariance(values, mean)
	std := math.Sqrt(variance)
	if math.IsInf(variance, 0) {
		std = features.SampleStdDev(values, mean)
	}
	skew := features.StandardizedMoment(values, mean, std, 3)
	kurt := 0.0
	if std > 0 {
		kurt = features.StandardizedMoment(values, mean, std, 4) - 3
	}

	direction, strength := Trend(values)
	cov := CoefficientOfVariation(mean, std)
	volatility := Volatility(mean, std)
	outliers := CountOutliers(values)

	strength = finiteOrZero(strength)
	cov = finiteOrZero(cov)

	stats := models.StatisticalSummary{
		Mean:              finiteOrZero(mean),
		Median:            finiteOrZero(features.Median(values)),
		StandardDeviation: finiteOrZero(std),
		Variance:          finiteOrZero(variance),
		Skewness:          finiteOrZero(skew),
		Kurtosis:          finiteOrZero(kurt),
		Trend:             direction,
		Seasonality:       Seasonality(values),
		Stationarity:      Stationarity(values),
	}
	patterns := models.PatternProfile{
		TrendDirection:   direction,
		TrendStrength:    strength,
		Volatility:       volatility,
		CyclicalPatterns: Cyclicality(values),
	}
	quality := models.DataQuality{
		Completeness:  100,
		Outliers:      outliers,
		MissingValues: 0,
		Consistency:   Consistency(outliers, n),
	}

	return models.AdvancedInsights{
		Summary:         Summarize(n, stats, patterns, quality, cov),
		Statistics:      stats,
		Quality:         quality,
		Patterns:        patterns,
		Recommendations: Recommend(n, stats, patterns, quality),
	}
}

func empty() models.AdvancedInsights {
	return models.AdvancedInsights{
		Summary: emptySummary,
		Statistics: models.StatisticalSummary{
			Trend:        models.LabelUnknown,
			Seasonality:  models.LabelUnknown,
			Stationarity: models.LabelUnknown,
		},
		Quality: models.DataQuality{Consistency: models.LabelUnknown},
		Patterns: models.PatternProfile{
			TrendDirection:   models.LabelUnknown,
			Volatility:       models.LabelUnknown,
			CyclicalPatterns: models.LabelUnknown,
		},
		Recommendations: []string{emptyRecommendation},
	}
}

// Trend compares the means of the two index halves. Strength is the relative change
// against the first half and is 0 when the first half averages to zero. A single point
// has no first half and is stable.
func Trend(values []float64) (direction string, strength float64) {
	first, second := features.SplitHalves(values)
	if len(first) == 0 {
		return models.TrendStable, 0
	}
	a, b := features.Mean(first), features.Mean(second)
	switch {
	case a == b:
		direction = models.TrendStable
	case b > a*TrendUpMultiplier:
		direction = models.TrendUpward
	case b < a*TrendDownMultiplier:
		direction = models.TrendDownward
	default:
		direction = models.TrendStable
	}
	if a != 0 {
		strength = math.Abs(b-a) / a
		if math.IsInf(b-a, 0) {
			strength = math.Copysign(math.Abs(b/a-1), a)
		}
	}
	return direction, strength
}

// finiteOrZero reports values outside float64 range as 0.
func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// CoefficientOfVariation returns std/mean, or 0 when either is zero.
func CoefficientOfVariation(mean, std float64) float64 {
	if std == 0 || mean == 0 {
		return 0
	}
	return std / mean
}

// Volatility buckets the coefficient of variation. A spread around a zero mean has an
// unbounded CoV and is labelled high.
func Volatility(mean, std float64) string {
	if std > 0 && mean == 0 {
		return models.VolatilityHigh
	}
	cov := CoefficientOfVariation(mean, std)
	switch {
	case cov > VolatilityHighCoV:
		return models.VolatilityHigh
	case cov > VolatilityModerateCoV:
		return models.VolatilityModerate
	default:
		return models.VolatilityLow
	}
}

// CountOutliers applies Tukey fences on index-based quartiles.
func CountOutliers(values []float64) int {
	sorted := features.SortedCopy(values)
	q1 := features.QuantileAt(sorted, LowerQuartile)
	q3 := features.QuantileAt(sorted, UpperQuartile)
	iqr := q3 - q1
	lo, hi := q1-OutlierIQRMultiplier*iqr, q3+OutlierIQRMultiplier*iqr
	count := 0
	for _, v := range values {
		if v < lo || v > hi {
			count++
		}
	}
	return count
}

func Consistency(outliers, n int) string {
	o := float64(outliers)
	switch {
	case o < float64(n)*ConsistencyHighRatio:
		return models.ConsistencyHigh
	case o < float64(n)*ConsistencyModerateRatio:
		return models.ConsistencyModerate
	default:
		return models.ConsistencyLow
	}
}

// Seasonality looks for a weekly pattern through the lag-7 cross product of deviations.
func Seasonality(values []float64) string {
	n := len(values)
	if n < SeasonalityMinPoints {
		return models.LabelInsufficientData
	}
	window := min(n-SeasonalityLag, SeasonalityMaxWindow)
	sum := features.LagProductSum(values, features.Mean(values), SeasonalityLag, window)
	if math.Abs(sum) > SeasonalityCorrelation*float64(window) {
		return models.SeasonalityWeekly
	}
	return models.SeasonalityNone
}

// Stationarity compares population variances of three contiguous segments.
func Stationarity(values []float64) string {
	if len(values) < StationarityMinPoints {
		return models.LabelInsufficientData
	}
	segs := features.Segments(values, StationaritySegments)
	vars := make([]float64, len(segs))
	for i, seg := range segs {
		vars[i] = features.PopulationVariance(seg)
	}
	lo, hi := features.MinMax(vars)
	if lo == 0 {
		if hi > 0 {
			return models.StationarityNonStationary
		}
		return models.StationarityLikely
	}
	if hi/lo > StationarityVarianceRatio {
		return models.StationarityNonStationary
	}
	return models.StationarityLikely
}

// Cyclicality rates how often the series crosses its mean.
func Cyclicality(values []float64) string {
	n := len(values)
	if n < CyclicalityMinPoints {
		return models.LabelInsufficientData
	}
	rate := float64(features.CenterCrossings(values, features.Mean(values))) / float64(n)
	switch {
	case rate > CyclesHighRate:
		return models.CyclesHighFrequency
	case rate > CyclesModerateRate:
		return models.CyclesModerate
	default:
		return models.CyclesLow
	}
}
