package models

// AIInsight is the three-field narrative produced by an insight generator.
type AIInsight struct {
	Summary        string `json:"summary"`
	Trend          string `json:"trend"`
	Recommendation string `json:"recommendation"`
}

// InsightDigest is the compact numeric context sent to an LLM instead of the raw series.
type InsightDigest struct {
	Points            int     `json:"points"`
	Mean              float64 `json:"mean"`
	Median            float64 `json:"median"`
	StandardDeviation float64 `json:"standardDeviation"`
	Variance          float64 `json:"variance"`
	Trend             string  `json:"trend"`
	TrendStrength     float64 `json:"trendStrength"`
	Volatility        string  `json:"volatility"`
	CoV               float64 `json:"coefficientOfVariation"`
	Outliers          int     `json:"outliers"`
	DateFrom          string  `json:"dateFrom"`
	DateTo            string  `json:"dateTo"`
	ValueMin          float64 `json:"valueMin"`
	ValueMax          float64 `json:"valueMax"`
}

// NewInsightDigest builds the digest from a series and its already computed insights.
func NewInsightDigest(s Series, a AdvancedInsights) InsightDigest {
	from, to := s.DateRange()
	lo, hi := s.ValueRange()
	cov := 0.0
	if st := a.Statistics; st.Mean != 0 {
		cov = st.StandardDeviation / st.Mean
	}
	return InsightDigest{
		Points:            s.Len(),
		Mean:              Round(a.Statistics.Mean, 2),
		Median:            Round(a.Statistics.Median, 2),
		StandardDeviation: Round(a.Statistics.StandardDeviation, 2),
		Variance:          Round(a.Statistics.Variance, 2),
		Trend:             a.Statistics.Trend,
		TrendStrength:     Round(a.Patterns.TrendStrength, 3),
		Volatility:        a.Patterns.Volatility,
		CoV:               Round(cov, 3),
		Outliers:          a.Quality.Outliers,
		DateFrom:          from,
		DateTo:            to,
		ValueMin:          lo,
		ValueMax:          hi,
	}
}

// Result is the tagged outcome of a collaborator call: either OK with Data or failed with Error.
type Result[T any] struct {
	OK    bool   `json:"ok"`
	Data  *T     `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// Success wraps a collaborator payload.
func Success[T any](v T) *Result[T] {
	return &Result[T]{OK: true, Data: &v}
}

// Failure wraps a collaborator error.
func Failure[T any](err error) *Result[T] {
	msg := "unknown collaborator error"
	if err != nil {
		msg = err.Error()
	}
	return &Result[T]{OK: false, Error: msg}
}

// AnalysisReport aggregates local results and optional collaborator results for one upload.
type AnalysisReport struct {
	Insights             AdvancedInsights              `json:"insights"`
	Forecast             []ForecastPoint               `json:"forecast"`
	AIInsights           *Result[AIInsight]            `json:"aiInsights,omitempty"`
	ProfessionalForecast *Result[ProfessionalForecast] `json:"professionalForecast,omitempty"`
	Ingest               *IngestReport                 `json:"ingest,omitempty"`
	History              []PointDTO                    `json:"history"`
}

// Rounded returns a copy of the report with insights rounded for presentation.
func (r *AnalysisReport) Rounded() *AnalysisReport {
	out := *r
	out.Insights = r.Insights.Rounded()
	return &out
}
