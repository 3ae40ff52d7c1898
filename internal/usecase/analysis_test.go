package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SeriesPulse/internal/domain/models"
	"SeriesPulse/internal/services/forecast"
	"SeriesPulse/pkg/cache"
)

type fakeInsights struct {
	calls  atomic.Int32
	err    error
	digest models.InsightDigest
	mu     sync.Mutex
}

func (f *fakeInsights) Name() string { return "fake-llm" }

func (f *fakeInsights) Generate(ctx context.Context, d models.InsightDigest) (models.AIInsight, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.digest = d
	f.mu.Unlock()
	if f.err != nil {
		return models.AIInsight{}, f.err
	}
	return models.AIInsight{Summary: "sum", Trend: d.Trend, Recommendation: "rec"}, nil
}

type fakeForecaster struct {
	calls atomic.Int32
	err   error
	block bool
}

func (f *fakeForecaster) Name() string { return "fake-pro" }

func (f *fakeForecaster) Forecast(ctx context.Context, s models.Series, h int) (models.ProfessionalForecast, error) {
	f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return models.ProfessionalForecast{}, ctx.Err()
	}
	if f.err != nil {
		return models.ProfessionalForecast{}, f.err
	}
	last, _ := s.Last()
	pts := make([]models.ForecastPoint, h)
	for i := range pts {
		lo, hi := last.Value-1, last.Value+1
		pts[i] = models.ForecastPoint{Timestamp: last.Timestamp.AddDate(0, 0, i+1), Value: last.Value, Lower80: &lo, Upper80: &hi}
	}
	return models.ProfessionalForecast{Model: "fake", Horizon: h, ConfidenceIntervals: []int{80}, Points: pts}, nil
}

type countingMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
	analyses int
	lookups  map[bool]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{outcomes: map[string]int{}, lookups: map[bool]int{}}
}

func (m *countingMetrics) RecordAnalysis(int) { m.mu.Lock(); m.analyses++; m.mu.Unlock() }
func (m *countingMetrics) RecordCollaborator(name, outcome string) {
	m.mu.Lock()
	m.outcomes[name+"/"+outcome]++
	m.mu.Unlock()
}
func (m *countingMetrics) RecordCacheLookup(_ string, hit bool) {
	m.mu.Lock()
	m.lookups[hit]++
	m.mu.Unlock()
}
func (m *countingMetrics) RecordLatency(string, float64) {}

func series(values ...float64) models.Series {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := make(models.Series, len(values))
	for i, v := range values {
		s[i] = models.TimePoint{Timestamp: start.AddDate(0, 0, i), Value: v}
	}
	return s
}

type fixture struct {
	uc      *AnalysisUseCase
	llm     *fakeInsights
	pro     *fakeForecaster
	metrics *countingMetrics
	cache   *cache.MemoryCache
}

func newFixture(t *testing.T, timeout time.Duration) *fixture {
	t.Helper()
	f := &fixture{
		llm:     &fakeInsights{},
		pro:     &fakeForecaster{},
		metrics: newCountingMetrics(),
		cache:   cache.NewMemoryCache(),
	}
	t.Cleanup(func() { _ = f.cache.Close() })
	gw := NewCollaboratorGateway(f.llm, f.pro, f.cache, f.metrics, nil, GatewayConfig{InsightTTL: time.Minute, ForecastTTL: time.Minute})
	f.uc = NewAnalysisUseCase(gw, forecast.NewGenerator(forecast.WithSeed(7)), f.metrics, nil,
		AnalysisConfig{CollaboratorTimeout: timeout, MaxPoints: 50})
	return f
}

func TestAnalyzeLocalOnly(t *testing.T) {
	f := newFixture(t, time.Second)
	rep, err := f.uc.Analyze(context.Background(), AnalyzeParams{Series: series(1, 2, 3, 4, 5, 6, 7, 8, 9, 10), Steps: 3})
	require.NoError(t, err)

	assert.Equal(t, 5.5, rep.Insights.Statistics.Mean)
	assert.Equal(t, models.TrendUpward, rep.Insights.Statistics.Trend)
	require.Len(t, rep.Forecast, 3)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), rep.Forecast[0].Timestamp)
	assert.Len(t, rep.History, 10)
	assert.Equal(t, "2024-03-01", rep.History[0].Date)
	assert.Nil(t, rep.AIInsights)
	assert.Nil(t, rep.ProfessionalForecast)
	assert.Zero(t, f.llm.calls.Load())
	assert.Equal(t, 1, f.metrics.analyses)
}

func TestAnalyzeWithCollaborators(t *testing.T) {
	f := newFixture(t, time.Second)
	rep, err := f.uc.Analyze(context.Background(), AnalyzeParams{
		Series: series(1, 2, 3, 4, 5, 6, 7, 8, 9, 10), Steps: 4, AI: true, Professional: true,
	})
	require.NoError(t, err)

	require.NotNil(t, rep.AIInsights)
	require.True(t, rep.AIInsights.OK)
	assert.Equal(t, models.TrendUpward, rep.AIInsights.Data.Trend)

	require.NotNil(t, rep.ProfessionalForecast)
	require.True(t, rep.ProfessionalForecast.OK)
	assert.Equal(t, 4, rep.ProfessionalForecast.Data.Horizon)
	assert.Len(t, rep.ProfessionalForecast.Data.Points, 4)

	f.llm.mu.Lock()
	d := f.llm.digest
	f.llm.mu.Unlock()
	assert.Equal(t, 10, d.Points)
	assert.Equal(t, "2024-03-01", d.DateFrom)
	assert.Equal(t, "2024-03-10", d.DateTo)
	assert.Equal(t, 9.17, d.Variance)
}

func TestAnalyzeCollaboratorFailureKeepsLocalResults(t *testing.T) {
	f := newFixture(t, time.Second)
	f.llm.err = errors.New("llm down")
	f.pro.err = errors.New("forecaster down")

	rep, err := f.uc.Analyze(context.Background(), AnalyzeParams{Series: series(1, 2, 3, 4, 5, 100), Steps: 2, AI: true, Professional: true})
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Insights.Quality.Outliers)
	assert.Len(t, rep.Forecast, 2)
	require.NotNil(t, rep.AIInsights)
	assert.False(t, rep.AIInsights.OK)
	assert.Equal(t, "llm down", rep.AIInsights.Error)
	require.NotNil(t, rep.ProfessionalForecast)
	assert.False(t, rep.ProfessionalForecast.OK)
	assert.Equal(t, "forecaster down", rep.ProfessionalForecast.Error)
	assert.Equal(t, 1, f.metrics.outcomes["fake-llm/error"])
	assert.Equal(t, 1, f.metrics.outcomes["fake-pro/error"])
}

func TestAnalyzeCollaboratorTimeout(t *testing.T) {
	f := newFixture(t, 20*time.Millisecond)
	f.pro.block = true

	rep, err := f.uc.Analyze(context.Background(), AnalyzeParams{Series: series(3, 4, 5), Steps: 1, AI: true, Professional: true})
	require.NoError(t, err)
	assert.True(t, rep.AIInsights.OK)
	assert.False(t, rep.ProfessionalForecast.OK)
	assert.Contains(t, rep.ProfessionalForecast.Error, "deadline exceeded")
}

func TestAnalyzeEmptySeriesSkipsCollaborators(t *testing.T) {
	f := newFixture(t, time.Second)
	rep, err := f.uc.Analyze(context.Background(), AnalyzeParams{Steps: 3, AI: true, Professional: true})
	require.NoError(t, err)

	assert.Equal(t, models.LabelUnknown, rep.Insights.Statistics.Trend)
	assert.Empty(t, rep.Forecast)
	assert.False(t, rep.AIInsights.OK)
	assert.Equal(t, ErrEmptySeries.Error(), rep.AIInsights.Error)
	assert.False(t, rep.ProfessionalForecast.OK)
	assert.Zero(t, f.llm.calls.Load())
	assert.Zero(t, f.pro.calls.Load())
	assert.Equal(t, 1, f.metrics.outcomes["fake-llm/skipped"])
}

func TestAnalyzeIngestOverlay(t *testing.T) {
	f := newFixture(t, time.Second)
	rep, err := f.uc.Analyze(context.Background(), AnalyzeParams{
		Series: series(1, 2, 3, 4),
		Ingest: &models.IngestReport{Rows: 5, Accepted: 4, Rejected: 1},
		Steps:  1,
	})
	require.NoError(t, err)
	assert.Equal(t, 80.0, rep.Insights.Quality.Completeness)
	assert.Equal(t, 1, rep.Insights.Quality.MissingValues)
	require.NotNil(t, rep.Ingest)
}

func TestAnalyzeDoesNotAliasInput(t *testing.T) {
	f := newFixture(t, time.Second)
	in := series(1, 2, 3)
	rep, err := f.uc.Analyze(context.Background(), AnalyzeParams{Series: in, Steps: 1})
	require.NoError(t, err)
	in[0].Value = 99
	assert.Equal(t, 1.0, rep.History[0].Value)
}

func TestCollaboratorResultsAreCached(t *testing.T) {
	f := newFixture(t, time.Second)
	s := series(5, 6, 7, 8)

	first, err := f.uc.Insights(context.Background(), s)
	require.NoError(t, err)
	second, err := f.uc.Insights(context.Background(), series(5, 6, 7, 8))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), f.llm.calls.Load())
	assert.Equal(t, 1, f.metrics.outcomes["fake-llm/cached"])

	_, err = f.uc.ProfessionalForecast(context.Background(), s, 3)
	require.NoError(t, err)
	_, err = f.uc.ProfessionalForecast(context.Background(), s, 5)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.pro.calls.Load(), "different horizons must not share a cache entry")

	cached, err := f.uc.ProfessionalForecast(context.Background(), s, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.pro.calls.Load())
	require.Len(t, cached.Points, 3)
	require.NotNil(t, cached.Points[0].Lower80)
	assert.Equal(t, 7.0, *cached.Points[0].Lower80)
}

func TestFailuresAreNotCached(t *testing.T) {
	f := newFixture(t, time.Second)
	f.llm.err = errors.New("boom")
	_, err := f.uc.Insights(context.Background(), series(1, 2))
	require.Error(t, err)
	f.llm.err = nil
	_, err = f.uc.Insights(context.Background(), series(1, 2))
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.llm.calls.Load())
}

func TestSingleCollaboratorPreconditions(t *testing.T) {
	f := newFixture(t, time.Second)
	_, err := f.uc.Insights(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptySeries)
	_, err = f.uc.ProfessionalForecast(context.Background(), models.Series{}, 3)
	assert.ErrorIs(t, err, ErrEmptySeries)

	big := make([]float64, 51)
	_, err = f.uc.Statistics(series(big...), nil)
	assert.ErrorIs(t, err, ErrTooManyPoints)
	_, err = f.uc.Analyze(context.Background(), AnalyzeParams{Series: series(big...)})
	assert.ErrorIs(t, err, ErrTooManyPoints)
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, Fingerprint(series(1, 2, 3)), Fingerprint(series(1, 2, 3)))
	assert.NotEqual(t, Fingerprint(series(1, 2, 3)), Fingerprint(series(1, 2, 4)))
	assert.Len(t, Fingerprint(nil), 32)
}
