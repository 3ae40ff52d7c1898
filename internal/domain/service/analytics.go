package service

import (
	"context"

	"SeriesPulse/internal/domain/models"
)

// InsightGenerator turns a numeric digest into a three-field narrative.
type InsightGenerator interface {
	Name() string
	Generate(ctx context.Context, digest models.InsightDigest) (models.AIInsight, error)
}

// ProfessionalForecaster produces interval forecasts from an external model.
type ProfessionalForecaster interface {
	Name() string
	Forecast(ctx context.Context, series models.Series, horizon int) (models.ProfessionalForecast, error)
}
