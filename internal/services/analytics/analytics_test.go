package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SeriesPulse/internal/domain/models"
)

func testSeries() models.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var s models.Series
	for i, v := range []float64{10, 12, 11, 13} {
		s = append(s, models.TimePoint{Timestamp: start.AddDate(0, 0, i), Value: v})
	}
	return s
}

func TestNormalizeInsight(t *testing.T) {
	got := NormalizeInsight([]byte(`{"summary":"s","trend":{"direction":"up","pct":3},"recommendation":["a","b"]}`))
	assert.Equal(t, "s", got.Summary)
	assert.Equal(t, `{"direction":"up","pct":3}`, got.Trend)
	assert.Equal(t, `["a","b"]`, got.Recommendation)

	got = NormalizeInsight([]byte(`{"summary":null,"trend":42}`))
	assert.Equal(t, DefaultSummary, got.Summary)
	assert.Equal(t, "42", got.Trend)
	assert.Equal(t, DefaultRecommendation, got.Recommendation)

	got = NormalizeInsight([]byte(`not json`))
	assert.Equal(t, models.AIInsight{Summary: DefaultSummary, Trend: DefaultTrend, Recommendation: DefaultRecommendation}, got)

	got = NormalizeInsight([]byte(`["array"]`))
	assert.Equal(t, DefaultTrend, got.Trend)
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(models.InsightDigest{
		Points: 4, Mean: 11.5, Median: 11.5, StandardDeviation: 1.29, Variance: 1.67,
		Trend: "upward", Volatility: "low", Outliers: 0,
		DateFrom: "2024-01-01", DateTo: "2024-01-04", ValueMin: 10, ValueMax: 13,
	})
	assert.Contains(t, p, "Time series dataset with 4 data points:")
	assert.Contains(t, p, "- Mean: 11.5\n")
	assert.Contains(t, p, "- Date range: 2024-01-01 to 2024-01-04\n")
	assert.Contains(t, p, "- Value range: 10 to 13\n")
}

func chatServer(t *testing.T, status int, content string, seen *openAIRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "chatcmpl-1", "object": "chat.completion", "model": "gpt-4o-mini",
			"choices": []map[string]interface{}{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
		})
	}))
}

type openAIRequest struct {
	Model          string  `json:"model"`
	Temperature    float32 `json:"temperature"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestOpenAIInsightGenerator(t *testing.T) {
	var seen openAIRequest
	srv := chatServer(t, http.StatusOK, `{"summary":"Growing.","trend":{"dir":"up"},"recommendation":"Scale."}`, &seen)
	defer srv.Close()

	g := NewOpenAIInsightGenerator(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1", Temperature: 0.3})
	got, err := g.Generate(context.Background(), models.InsightDigest{Points: 4, Trend: "upward"})
	require.NoError(t, err)
	assert.Equal(t, "Growing.", got.Summary)
	assert.Equal(t, `{"dir":"up"}`, got.Trend)
	assert.Equal(t, "Scale.", got.Recommendation)

	assert.Equal(t, "gpt-4o-mini", seen.Model)
	assert.InDelta(t, 0.3, seen.Temperature, 1e-6)
	assert.Equal(t, "json_object", seen.ResponseFormat.Type)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, SystemPrompt, seen.Messages[0].Content)
	assert.Contains(t, seen.Messages[1].Content, "Trend: upward")
}

func TestOpenAIInsightGeneratorUnparsableReply(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `Sure! Here are insights...`, nil)
	defer srv.Close()

	g := NewOpenAIInsightGenerator(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	got, err := g.Generate(context.Background(), models.InsightDigest{Points: 1})
	require.NoError(t, err)
	assert.Equal(t, DefaultSummary, got.Summary)
}

func TestOpenAIInsightGeneratorFailure(t *testing.T) {
	srv := chatServer(t, http.StatusTooManyRequests, "", nil)
	defer srv.Close()

	g := NewOpenAIInsightGenerator(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	_, err := g.Generate(context.Background(), models.InsightDigest{Points: 1})
	require.Error(t, err)
	var ce *CollaboratorError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "openai", ce.Collaborator)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestLocalInsightGenerator(t *testing.T) {
	g := NewLocalInsightGenerator()
	empty, err := g.Generate(context.Background(), models.InsightDigest{})
	require.NoError(t, err)
	assert.Equal(t, "No data available for analysis.", empty.Summary)

	got, err := g.Generate(context.Background(), models.InsightDigest{
		Points: 10, Mean: 5.5, ValueMin: 1, ValueMax: 10,
		Trend: models.TrendUpward, TrendStrength: 1.667, Volatility: models.VolatilityHigh, CoV: 0.55,
	})
	require.NoError(t, err)
	assert.Equal(t, "The dataset shows an average value of 5.50 with a range from 1.00 to 10.00. "+
		"The overall trend is upward with strong momentum, indicating growth over the analyzed period.", got.Summary)
	assert.Contains(t, got.Trend, "strong upward trend with high volatility")
	assert.Contains(t, got.Trend, "rapid but unstable growth")
	assert.Contains(t, got.Recommendation, "risk management")

	got, _ = g.Generate(context.Background(), models.InsightDigest{
		Points: 10, Mean: 100, Trend: models.TrendStable, Volatility: models.VolatilityLow, CoV: 0.05,
	})
	assert.Contains(t, got.Trend, "consistent performance")
	assert.Contains(t, got.Recommendation, "Stable performance")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Generate(ctx, models.InsightDigest{Points: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTimeGPTForecaster(t *testing.T) {
	var req timeGPTRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer nx-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_, _ = w.Write([]byte(`{"data":[
			{"ds":"2024-01-05","TimeGPT":14.2,"TimeGPT-lo-80":13.1,"TimeGPT-hi-80":15.3,"TimeGPT-lo-95":12.5,"TimeGPT-hi-95":15.9},
			{"ds":"2024-01-06 00:00:00","TimeGPT":14.8,"TimeGPT-lo-80":13.4,"TimeGPT-hi-80":16.2,"TimeGPT-lo-95":12.7,"TimeGPT-hi-95":16.9}
		]}`))
	}))
	defer srv.Close()

	f := NewTimeGPTForecaster(TimeGPTConfig{URL: srv.URL, APIKey: "nx-test", Model: "timegpt-1", Freq: "D", Levels: []int{80, 95}})
	got, err := f.Forecast(context.Background(), testSeries(), 2)
	require.NoError(t, err)

	assert.Equal(t, "timegpt-1", req.Model)
	assert.Equal(t, "D", req.Freq)
	assert.Equal(t, 2, req.H)
	assert.Equal(t, []int{80, 95}, req.Level)
	require.Len(t, req.Y, 4)
	assert.Equal(t, timeGPTPoint{DS: "2024-01-01", Y: 10, UniqueID: "series_1"}, req.Y[0])

	assert.Equal(t, "TimeGPT", got.Model)
	assert.Equal(t, 2, got.Horizon)
	assert.Equal(t, []int{80, 95}, got.ConfidenceIntervals)
	require.Len(t, got.Points, 2)
	p := got.Points[1]
	assert.Equal(t, time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), p.Timestamp)
	assert.Equal(t, 14.8, p.Value)
	require.True(t, p.HasBounds())
	assert.Equal(t, 13.4, *p.Lower80)
	assert.Equal(t, 16.2, *p.Upper80)
	assert.Equal(t, 12.7, *p.Lower95)
	assert.Equal(t, 16.9, *p.Upper95)

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-01-06","forecast":14.8,"lower_80":13.4,"upper_80":16.2,"lower_95":12.7,"upper_95":16.9}`, string(b))
}

func TestTimeGPTForecasterRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	f := NewTimeGPTForecaster(TimeGPTConfig{URL: srv.URL, APIKey: "k", Attempts: 3})
	f.base.backoff = time.Millisecond
	got, err := f.Forecast(context.Background(), testSeries(), 1)
	require.NoError(t, err)
	assert.Empty(t, got.Points)
	assert.Equal(t, int32(3), calls.Load())
}

func TestTimeGPTForecasterDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	f := NewTimeGPTForecaster(TimeGPTConfig{URL: srv.URL, APIKey: "bad", Attempts: 3})
	_, err := f.Forecast(context.Background(), testSeries(), 1)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	var ce *CollaboratorError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "timegpt", ce.Collaborator)
}

func TestTimeGPTForecasterPreconditions(t *testing.T) {
	_, err := NewTimeGPTForecaster(TimeGPTConfig{URL: "http://unused"}).Forecast(context.Background(), testSeries(), 3)
	assert.True(t, errors.Is(err, ErrNotConfigured))

	_, err = NewTimeGPTForecaster(TimeGPTConfig{URL: "http://unused", APIKey: "k"}).Forecast(context.Background(), nil, 3)
	assert.ErrorIs(t, err, ErrEmptySeries)
}
