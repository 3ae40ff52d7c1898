package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"SeriesPulse/internal/domain/models"
	domrepo "SeriesPulse/internal/domain/repository"
	domsvc "SeriesPulse/internal/domain/service"
	"SeriesPulse/pkg/cache"
	applogger "SeriesPulse/pkg/logger"
)

// Collaborator outcomes reported to metrics.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeCached  = "cached"
	OutcomeSkipped = "skipped"
)

// CollaboratorGateway fronts the remote collaborators with a result cache keyed by the
// series fingerprint. A nil cache disables caching.
type CollaboratorGateway struct {
	insights    domsvc.InsightGenerator
	forecaster  domsvc.ProfessionalForecaster
	cache       domrepo.ResultCache
	metrics     domrepo.Metrics
	insightTTL  time.Duration
	forecastTTL time.Duration
	logger      *applogger.Logger
}

type GatewayConfig struct {
	InsightTTL  time.Duration
	ForecastTTL time.Duration
}

func NewCollaboratorGateway(insights domsvc.InsightGenerator, forecaster domsvc.ProfessionalForecaster, rc domrepo.ResultCache, m domrepo.Metrics, l *applogger.Logger, cfg GatewayConfig) *CollaboratorGateway {
	if m == nil {
		m = nopMetrics{}
	}
	if l == nil {
		l = applogger.NewNop()
	}
	return &CollaboratorGateway{
		insights:    insights,
		forecaster:  forecaster,
		cache:       rc,
		metrics:     m,
		insightTTL:  cfg.InsightTTL,
		forecastTTL: cfg.ForecastTTL,
		logger:      l,
	}
}

// Insights asks the insight generator for a narrative of the digest.
func (g *CollaboratorGateway) Insights(ctx context.Context, s models.Series, digest models.InsightDigest) (models.AIInsight, error) {
	var out models.AIInsight
	name := g.insights.Name()
	key := resultKey("insights", name, s)
	if g.lookup(ctx, "insights", key, &out) {
		g.metrics.RecordCollaborator(name, OutcomeCached)
		return out, nil
	}

	start := time.Now()
	out, err := g.insights.Generate(ctx, digest)
	g.metrics.RecordLatency("collaborator_"+name, time.Since(start).Seconds())
	if err != nil {
		g.metrics.RecordCollaborator(name, OutcomeError)
		return models.AIInsight{}, err
	}
	g.metrics.RecordCollaborator(name, OutcomeOK)
	g.store(ctx, key, out, g.insightTTL)
	return out, nil
}

// ProfessionalForecast asks the external forecaster for a horizon-step interval forecast.
func (g *CollaboratorGateway) ProfessionalForecast(ctx context.Context, s models.Series, horizon int) (models.ProfessionalForecast, error) {
	var out models.ProfessionalForecast
	name := g.forecaster.Name()
	key := resultKey("forecast", name+":h"+strconv.Itoa(horizon), s)
	if g.lookup(ctx, "forecast", key, &out) {
		g.metrics.RecordCollaborator(name, OutcomeCached)
		return out, nil
	}

	start := time.Now()
	out, err := g.forecaster.Forecast(ctx, s, horizon)
	g.metrics.RecordLatency("collaborator_"+name, time.Since(start).Seconds())
	if err != nil {
		g.metrics.RecordCollaborator(name, OutcomeError)
		return models.ProfessionalForecast{}, err
	}
	g.metrics.RecordCollaborator(name, OutcomeOK)
	g.store(ctx, key, out, g.forecastTTL)
	return out, nil
}

func (g *CollaboratorGateway) lookup(ctx context.Context, kind, key string, dest interface{}) bool {
	if g.cache == nil {
		return false
	}
	err := g.cache.Get(ctx, key, dest)
	hit := err == nil
	g.metrics.RecordCacheLookup(kind, hit)
	return hit
}

// store is best effort: a failed write only costs a future cache miss.
func (g *CollaboratorGateway) store(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if g.cache == nil || ttl <= 0 {
		return
	}
	if err := g.cache.Set(ctx, key, v, ttl); err != nil && !errors.Is(err, context.Canceled) {
		g.logger.Warn("cache write failed", applogger.String("key", key), applogger.Error(err))
	}
}

// Fingerprint identifies a series by content.
func Fingerprint(s models.Series) string {
	var b strings.Builder
	b.Grow(len(s) * 24)
	for _, p := range s {
		b.WriteString(p.Timestamp.Format(models.DateLayout))
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(p.Value, 'g', -1, 64))
		b.WriteByte(';')
	}
	return cache.HashKey(b.String())
}

func resultKey(kind, collaborator string, s models.Series) string {
	return cache.GenerateKeyWithParams(kind, collaborator, Fingerprint(s))
}

type nopMetrics struct{}

func (nopMetrics) RecordAnalysis(int)                {}
func (nopMetrics) RecordCollaborator(string, string) {}
func (nopMetrics) RecordCacheLookup(string, bool)    {}
func (nopMetrics) RecordLatency(string, float64)     {}
