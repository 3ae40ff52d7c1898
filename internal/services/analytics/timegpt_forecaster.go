package analytics

import (
	"context"
	"fmt"
	"time"

	"SeriesPulse/internal/domain/models"
	domsvc "SeriesPulse/internal/domain/service"
	"SeriesPulse/pkg/util"
)

const (
	timeGPTName     = "timegpt"
	timeGPTSeriesID = "series_1"
	// TimeGPTModelLabel is the model name reported to clients.
	TimeGPTModelLabel = "TimeGPT"
)

// TimeGPTConfig configures the professional forecaster.
type TimeGPTConfig struct {
	URL      string
	APIKey   string
	Model    string
	Freq     string
	Levels   []int
	Timeout  time.Duration
	Attempts int
}

// TimeGPTForecaster calls a TimeGPT-compatible /forecast endpoint.
type TimeGPTForecaster struct {
	base     *HTTPServiceBase
	model    string
	freq     string
	levels   []int
	attempts int
}

func NewTimeGPTForecaster(cfg TimeGPTConfig) *TimeGPTForecaster {
	levels := cfg.Levels
	if len(levels) == 0 {
		levels = []int{80, 95}
	}
	return &TimeGPTForecaster{
		base:     NewHTTPServiceBase(cfg.URL, cfg.APIKey, cfg.Timeout),
		model:    cfg.Model,
		freq:     cfg.Freq,
		levels:   levels,
		attempts: cfg.Attempts,
	}
}

type timeGPTPoint struct {
	DS       string  `json:"ds"`
	Y        float64 `json:"y"`
	UniqueID string  `json:"unique_id"`
}

type timeGPTRequest struct {
	Model string         `json:"model"`
	Freq  string         `json:"freq"`
	H     int            `json:"h"`
	Y     []timeGPTPoint `json:"y"`
	Level []int          `json:"level"`
}

type timeGPTRow struct {
	DS      string   `json:"ds"`
	Value   float64  `json:"TimeGPT"`
	Lower80 *float64 `json:"TimeGPT-lo-80"`
	Upper80 *float64 `json:"TimeGPT-hi-80"`
	Lower95 *float64 `json:"TimeGPT-lo-95"`
	Upper95 *float64 `json:"TimeGPT-hi-95"`
}

type timeGPTResponse struct {
	Data []timeGPTRow `json:"data"`
}

func (f *TimeGPTForecaster) Name() string { return timeGPTName }

// Forecast sends the whole history and maps the returned rows, with their 80% and 95%
// interval bounds, onto forecast points.
func (f *TimeGPTForecaster) Forecast(ctx context.Context, series models.Series, horizon int) (models.ProfessionalForecast, error) {
	var result models.ProfessionalForecast
	if !f.base.Configured() {
		return result, wrap(timeGPTName, ErrNotConfigured)
	}
	if series.Len() == 0 {
		return result, wrap(timeGPTName, ErrEmptySeries)
	}
	if horizon <= 0 {
		return result, wrap(timeGPTName, fmt.Errorf("horizon must be positive, got %d", horizon))
	}

	req := timeGPTRequest{
		Model: f.model,
		Freq:  f.freq,
		H:     horizon,
		Y:     make([]timeGPTPoint, series.Len()),
		Level: f.levels,
	}
	for i, p := range series {
		req.Y[i] = timeGPTPoint{DS: p.Timestamp.Format(models.DateLayout), Y: p.Value, UniqueID: timeGPTSeriesID}
	}

	var resp timeGPTResponse
	if err := f.base.PostJSONWithRetry(ctx, "", req, &resp, f.attempts); err != nil {
		return result, wrap(timeGPTName, fmt.Errorf("post forecast: %w", err))
	}

	points := make([]models.ForecastPoint, 0, len(resp.Data))
	for _, row := range resp.Data {
		ts, ok := util.ParseDate(row.DS)
		if !ok {
			return result, wrap(timeGPTName, fmt.Errorf("unparsable forecast date %q", row.DS))
		}
		points = append(points, models.ForecastPoint{
			Timestamp: ts,
			Value:     row.Value,
			Lower80:   row.Lower80,
			Upper80:   row.Upper80,
			Lower95:   row.Lower95,
			Upper95:   row.Upper95,
		})
	}

	result.Model = TimeGPTModelLabel
	result.Horizon = horizon
	result.ConfidenceIntervals = append([]int(nil), f.levels...)
	result.Points = points
	return result, nil
}

var _ domsvc.ProfessionalForecaster = (*TimeGPTForecaster)(nil)
