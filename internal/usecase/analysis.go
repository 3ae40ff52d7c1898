package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"SeriesPulse/internal/domain/models"
	domrepo "SeriesPulse/internal/domain/repository"
	"SeriesPulse/internal/services/forecast"
	"SeriesPulse/internal/services/insights"
	applogger "SeriesPulse/pkg/logger"
)

var (
	// ErrTooManyPoints is returned when a series exceeds the configured size.
	ErrTooManyPoints = errors.New("series has too many points")
	// ErrEmptySeries is reported for collaborators skipped on an empty series.
	ErrEmptySeries = errors.New("series is empty")
)

// AnalysisUseCase runs the statistics engine and the forecast generator locally and
// fans out to the remote collaborators. Collaborator failures never remove local results.
type AnalysisUseCase struct {
	gateway   *CollaboratorGateway
	generator *forecast.Generator
	metrics   domrepo.Metrics
	logger    *applogger.Logger
	timeout   time.Duration
	maxPoints int
}

type AnalysisConfig struct {
	CollaboratorTimeout time.Duration
	MaxPoints           int
}

func NewAnalysisUseCase(gw *CollaboratorGateway, gen *forecast.Generator, m domrepo.Metrics, l *applogger.Logger, cfg AnalysisConfig) *AnalysisUseCase {
	if m == nil {
		m = nopMetrics{}
	}
	if l == nil {
		l = applogger.NewNop()
	}
	if gen == nil {
		gen = forecast.NewGenerator()
	}
	timeout := cfg.CollaboratorTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AnalysisUseCase{gateway: gw, generator: gen, metrics: m, logger: l, timeout: timeout, maxPoints: cfg.MaxPoints}
}

// AnalyzeParams describes one upload.
type AnalyzeParams struct {
	Series       models.Series
	Ingest       *models.IngestReport
	Steps        int
	AI           bool
	Professional bool
}

func (uc *AnalysisUseCase) checkSize(s models.Series) error {
	if uc.maxPoints > 0 && s.Len() > uc.maxPoints {
		return fmt.Errorf("%w: %d > %d", ErrTooManyPoints, s.Len(), uc.maxPoints)
	}
	return nil
}

// Statistics runs the engine. A non-nil ingest report overlays completeness and missing values.
func (uc *AnalysisUseCase) Statistics(s models.Series, ingest *models.IngestReport) (models.AdvancedInsights, error) {
	if err := uc.checkSize(s); err != nil {
		return models.AdvancedInsights{}, err
	}
	start := time.Now()
	res := insights.Analyze(s)
	if ingest != nil && s.Len() > 0 {
		res.Quality = res.Quality.WithIngest(*ingest)
	}
	uc.metrics.RecordAnalysis(s.Len())
	uc.metrics.RecordLatency("statistics", time.Since(start).Seconds())
	return res, nil
}

// Forecast runs the local generator.
func (uc *AnalysisUseCase) Forecast(s models.Series, steps int) ([]models.ForecastPoint, error) {
	if err := uc.checkSize(s); err != nil {
		return nil, err
	}
	start := time.Now()
	pts := uc.generator.Generate(s, steps)
	uc.metrics.RecordLatency("forecast", time.Since(start).Seconds())
	return pts, nil
}

// Insights computes the digest locally and asks the insight generator to narrate it.
func (uc *AnalysisUseCase) Insights(ctx context.Context, s models.Series) (models.AIInsight, error) {
	if err := uc.checkSize(s); err != nil {
		return models.AIInsight{}, err
	}
	if s.Len() == 0 {
		return models.AIInsight{}, ErrEmptySeries
	}
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	digest := models.NewInsightDigest(s, insights.Analyze(s))
	return uc.gateway.Insights(ctx, s.Clone(), digest)
}

// ProfessionalForecast asks the external forecaster for an interval forecast.
func (uc *AnalysisUseCase) ProfessionalForecast(ctx context.Context, s models.Series, horizon int) (models.ProfessionalForecast, error) {
	if err := uc.checkSize(s); err != nil {
		return models.ProfessionalForecast{}, err
	}
	if s.Len() == 0 {
		return models.ProfessionalForecast{}, ErrEmptySeries
	}
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	return uc.gateway.ProfessionalForecast(ctx, s.Clone(), horizon)
}

// Analyze computes statistics and the local forecast first, then calls the requested
// collaborators concurrently under the collaborator timeout.
func (uc *AnalysisUseCase) Analyze(ctx context.Context, p AnalyzeParams) (*models.AnalysisReport, error) {
	if err := uc.checkSize(p.Series); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { uc.metrics.RecordLatency("analyze", time.Since(start).Seconds()) }()

	s := p.Series.Clone()
	stats, _ := uc.Statistics(s, p.Ingest)
	fc, _ := uc.Forecast(s, p.Steps)
	res := &models.AnalysisReport{
		Insights: stats,
		Forecast: fc,
		Ingest:   p.Ingest,
		History:  s.ToDTO(),
	}
	if !p.AI && !p.Professional {
		return res, nil
	}

	if s.Len() == 0 {
		if p.AI {
			res.AIInsights = models.Failure[models.AIInsight](ErrEmptySeries)
			uc.metrics.RecordCollaborator(uc.gateway.insights.Name(), OutcomeSkipped)
		}
		if p.Professional {
			res.ProfessionalForecast = models.Failure[models.ProfessionalForecast](ErrEmptySeries)
			uc.metrics.RecordCollaborator(uc.gateway.forecaster.Name(), OutcomeSkipped)
		}
		return res, nil
	}

	cctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	type item struct {
		name string
		val  interface{}
		err  error
	}
	ch := make(chan item, 2)
	var wg sync.WaitGroup

	if p.AI {
		digest := models.NewInsightDigest(s, stats)
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := uc.gateway.Insights(cctx, s, digest)
			ch <- item{"insights", v, err}
		}()
	}
	if p.Professional {
		horizon := p.Steps
		if horizon <= 0 {
			horizon = forecast.DefaultSteps
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := uc.gateway.ProfessionalForecast(cctx, s, horizon)
			ch <- item{"professional", v, err}
		}()
	}

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			uc.logger.Warn("collaborator failed", applogger.String("collaborator", it.name), applogger.Error(it.err))
		}
		switch it.name {
		case "insights":
			if it.err != nil {
				res.AIInsights = models.Failure[models.AIInsight](it.err)
				continue
			}
			res.AIInsights = models.Success(it.val.(models.AIInsight))
		case "professional":
			if it.err != nil {
				res.ProfessionalForecast = models.Failure[models.ProfessionalForecast](it.err)
				continue
			}
			res.ProfessionalForecast = models.Success(it.val.(models.ProfessionalForecast))
		}
	}
	return res, nil
}
