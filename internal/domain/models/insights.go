package models

import "math"

// Trend direction labels.
const (
	TrendUpward   = "upward"
	TrendDownward = "downward"
	TrendStable   = "stable"
)

// Volatility labels.
const (
	VolatilityHigh     = "high"
	VolatilityModerate = "moderate"
	VolatilityLow      = "low"
)

// Consistency labels.
const (
	ConsistencyHigh     = "high"
	ConsistencyModerate = "moderate"
	ConsistencyLow      = "low"
)

// Pattern labels.
const (
	LabelUnknown          = "unknown"
	LabelInsufficientData = "insufficient_data"

	SeasonalityWeekly = "weekly_pattern_detected"
	SeasonalityNone   = "no_clear_seasonality"

	StationarityNonStationary = "non_stationary"
	StationarityLikely        = "likely_stationary"

	CyclesHighFrequency = "high_frequency_cycles"
	CyclesModerate      = "moderate_cycles"
	CyclesLow           = "low_cyclical_activity"
)

// StatisticalSummary holds the descriptive statistics and classification labels of a series.
type StatisticalSummary struct {
	Mean              float64 `json:"mean"`
	Median            float64 `json:"median"`
	StandardDeviation float64 `json:"standardDeviation"`
	Variance          float64 `json:"variance"`
	Skewness          float64 `json:"skewness"`
	Kurtosis          float64 `json:"kurtosis"`
	Trend             string  `json:"trend"`
	Seasonality       string  `json:"seasonality"`
	Stationarity      string  `json:"stationarity"`
}

// DataQuality holds data-quality diagnostics.
type DataQuality struct {
	Completeness  float64 `json:"completeness"`
	Outliers      int     `json:"outliers"`
	MissingValues int     `json:"missingValues"`
	Consistency   string  `json:"consistency"`
}

// WithIngest overlays ingestion counts: rejected rows are missing values and
// completeness is the accepted share of all rows. A zero report leaves q unchanged.
func (q DataQuality) WithIngest(r IngestReport) DataQuality {
	if r.Rows == 0 {
		return q
	}
	q.MissingValues = r.Rejected
	q.Completeness = float64(r.Rows-r.Rejected) / float64(r.Rows) * 100
	return q
}

// PatternProfile holds the trend, volatility and cycle characterization.
type PatternProfile struct {
	TrendDirection   string  `json:"trendDirection"`
	TrendStrength    float64 `json:"trendStrength"`
	Volatility       string  `json:"volatility"`
	CyclicalPatterns string  `json:"cyclicalPatterns"`
}

// AdvancedInsights is the complete output of the statistics engine.
type AdvancedInsights struct {
	Summary         string             `json:"summary"`
	Statistics      StatisticalSummary `json:"statisticalAnalysis"`
	Quality         DataQuality        `json:"dataQuality"`
	Patterns        PatternProfile     `json:"patterns"`
	Recommendations []string           `json:"recommendations"`
}

// Rounded returns the presentation copy: statistics to 2 decimals, trend strength to 3.
func (a AdvancedInsights) Rounded() AdvancedInsights {
	out := a
	st := &out.Statistics
	st.Mean = Round(st.Mean, 2)
	st.Median = Round(st.Median, 2)
	st.StandardDeviation = Round(st.StandardDeviation, 2)
	st.Variance = Round(st.Variance, 2)
	st.Skewness = Round(st.Skewness, 2)
	st.Kurtosis = Round(st.Kurtosis, 2)
	out.Quality.Completeness = Round(out.Quality.Completeness, 2)
	out.Patterns.TrendStrength = Round(out.Patterns.TrendStrength, 3)
	out.Recommendations = append([]string(nil), a.Recommendations...)
	return out
}

// Round rounds v half away from zero to the given number of decimals. Magnitudes too
// large to scale carry no fraction and are returned as is.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	if math.IsInf(v*p, 0) {
		return v
	}
	return math.Round(v*p) / p
}
