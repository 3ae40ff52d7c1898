package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ForecastPoint is one forecasted day. Bounds are set only by the professional forecaster.
type ForecastPoint struct {
	Timestamp time.Time
	Value     float64
	Lower80   *float64
	Upper80   *float64
	Lower95   *float64
	Upper95   *float64
}

type forecastPointJSON struct {
	Date     string   `json:"date"`
	Forecast float64  `json:"forecast"`
	Lower80  *float64 `json:"lower_80,omitempty"`
	Upper80  *float64 `json:"upper_80,omitempty"`
	Lower95  *float64 `json:"lower_95,omitempty"`
	Upper95  *float64 `json:"upper_95,omitempty"`
}

// MarshalJSON renders the point with a calendar date instead of a full timestamp.
func (p ForecastPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(forecastPointJSON{
		Date:     p.Timestamp.Format(DateLayout),
		Forecast: p.Value,
		Lower80:  p.Lower80,
		Upper80:  p.Upper80,
		Lower95:  p.Lower95,
		Upper95:  p.Upper95,
	})
}

// UnmarshalJSON reads the shape written by MarshalJSON.
func (p *ForecastPoint) UnmarshalJSON(b []byte) error {
	var raw forecastPointJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	ts, err := time.Parse(DateLayout, raw.Date)
	if err != nil {
		return fmt.Errorf("forecast point date: %w", err)
	}
	*p = ForecastPoint{
		Timestamp: ts,
		Value:     raw.Forecast,
		Lower80:   raw.Lower80,
		Upper80:   raw.Upper80,
		Lower95:   raw.Lower95,
		Upper95:   raw.Upper95,
	}
	return nil
}

// HasBounds reports whether any interval bound is populated.
func (p ForecastPoint) HasBounds() bool {
	return p.Lower80 != nil || p.Upper80 != nil || p.Lower95 != nil || p.Upper95 != nil
}

// ProfessionalForecast is the merged response of the external forecasting service.
type ProfessionalForecast struct {
	Model               string          `json:"model"`
	Horizon             int             `json:"horizon"`
	ConfidenceIntervals []int           `json:"confidence_intervals"`
	Points              []ForecastPoint `json:"forecast"`
}
