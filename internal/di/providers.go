package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"SeriesPulse/internal/domain/repository"
	domsvc "SeriesPulse/internal/domain/service"
	"SeriesPulse/internal/handler/api"
	"SeriesPulse/internal/handler/ws"
	"SeriesPulse/internal/service/ratelimit"
	"SeriesPulse/internal/services/analytics"
	"SeriesPulse/internal/services/forecast"
	"SeriesPulse/internal/usecase"
	"SeriesPulse/pkg/cache"
	"SeriesPulse/pkg/config"
	xhttp "SeriesPulse/pkg/http"
	applogger "SeriesPulse/pkg/logger"
	"SeriesPulse/pkg/metrics"
	"SeriesPulse/pkg/server"
)

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the Prometheus registry shared by the recorder and the HTTP server.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.New(reg)
}

// ProvideCache builds the configured cache backend. The "none" backend yields a nil service.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	var (
		svc cache.Service
		err error
	)
	switch cfg.Cache.Backend {
	case cache.BackendNone:
		l.Info("collaborator cache disabled")
		return nil, func() {}, nil
	case cache.BackendMemory:
		svc = cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemorySize))
	case cache.BackendRedis, cache.BackendLayered:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var rc *cache.RedisCache
		rc, err = cache.NewRedisCache(ctx,
			cache.WithRedisAddr(cfg.Cache.Redis.Addr),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		svc = rc
		if cfg.Cache.Backend == cache.BackendLayered {
			svc = cache.NewLayeredCache(rc, cache.WithLayeredMemorySize(cfg.Cache.MemorySize))
		}
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
	l.Info("collaborator cache ready", applogger.String("backend", cfg.Cache.Backend))
	cleanup := func() {
		if err := svc.Close(); err != nil {
			l.Warn("cache close error", applogger.Error(err))
		}
	}
	return svc, cleanup, nil
}

// ProvideResultCache narrows the cache to what the use case needs, keeping a nil service nil.
func ProvideResultCache(svc cache.Service) repository.ResultCache {
	if svc == nil {
		return nil
	}
	return svc
}

// ProvideInsightGenerator uses the LLM when an API key is configured and the local
// rule-based generator otherwise.
func ProvideInsightGenerator(cfg *config.Config, l *applogger.Logger) domsvc.InsightGenerator {
	if cfg.Insights.APIKey == "" {
		l.Info("no LLM API key configured, using local insight generator")
		return analytics.NewLocalInsightGenerator()
	}
	return analytics.NewOpenAIInsightGenerator(analytics.OpenAIConfig{
		APIKey:      cfg.Insights.APIKey,
		BaseURL:     cfg.Insights.BaseURL,
		Model:       cfg.Insights.Model,
		Temperature: cfg.Insights.Temperature,
		MaxTokens:   cfg.Insights.MaxTokens,
		Timeout:     cfg.Insights.Timeout,
	})
}

// ProvideProfessionalForecaster creates the TimeGPT client. Without a key it answers
// every call with analytics.ErrNotConfigured.
func ProvideProfessionalForecaster(cfg *config.Config) domsvc.ProfessionalForecaster {
	return analytics.NewTimeGPTForecaster(analytics.TimeGPTConfig{
		URL:      cfg.Forecaster.URL,
		APIKey:   cfg.Forecaster.APIKey,
		Model:    cfg.Forecaster.Model,
		Freq:     cfg.Forecaster.Freq,
		Levels:   cfg.Forecaster.Levels,
		Timeout:  cfg.Forecaster.Timeout,
		Attempts: cfg.Forecaster.Attempts,
	})
}

// ProvideForecastGenerator seeds the jitter when analysis.forecast_seed is set.
func ProvideForecastGenerator(cfg *config.Config) *forecast.Generator {
	if cfg.Analysis.ForecastSeed != 0 {
		return forecast.NewGenerator(forecast.WithSeed(cfg.Analysis.ForecastSeed))
	}
	return forecast.NewGenerator()
}

func ProvideCollaboratorGateway(
	cfg *config.Config,
	insights domsvc.InsightGenerator,
	forecaster domsvc.ProfessionalForecaster,
	rc repository.ResultCache,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.CollaboratorGateway {
	return usecase.NewCollaboratorGateway(insights, forecaster, rc, m, l, usecase.GatewayConfig{
		InsightTTL:  cfg.Insights.CacheTTL,
		ForecastTTL: cfg.Forecaster.CacheTTL,
	})
}

func ProvideAnalysisUseCase(
	cfg *config.Config,
	gw *usecase.CollaboratorGateway,
	gen *forecast.Generator,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.AnalysisUseCase {
	return usecase.NewAnalysisUseCase(gw, gen, m, l, usecase.AnalysisConfig{
		CollaboratorTimeout: cfg.Analysis.CollaboratorTimeout,
		MaxPoints:           cfg.Analysis.MaxPoints,
	})
}

// ProvideRateLimiter creates the per-client limiter for collaborator calls.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.IdleTTL)
}

func ProvideAPIHandler(l *applogger.Logger, uc *usecase.AnalysisUseCase, lim *ratelimit.Limiter) *api.AnalysisEchoHandler {
	return api.NewAnalysisEchoHandler(l, uc, lim)
}

func ProvideWSHandler(cfg *config.Config, l *applogger.Logger, uc *usecase.AnalysisUseCase, lim *ratelimit.Limiter) *ws.Handler {
	return ws.NewHandler(l, uc, lim, ws.Config{
		ReadLimit:    cfg.WebSocket.ReadLimit,
		PingInterval: cfg.WebSocket.PingInterval,
		WriteTimeout: cfg.WebSocket.WriteTimeout,
	})
}

// ProvideHTTPServer creates the Echo server with every route registered.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, reg *prometheus.Registry, apiH *api.AnalysisEchoHandler, wsH *ws.Handler) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(xhttp.Handlers{apiH, wsH}, l, reg, reg,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(true, cfg.Server.AllowOrigins...),
		xhttp.WithBodyLimit(cfg.Server.BodyLimit),
		xhttp.WithMetricsPath(metricsPath),
	)
}

// ProvideApp creates the application.
func ProvideApp(cfg *config.Config, l *applogger.Logger, srv *xhttp.Server, lim *ratelimit.Limiter) *server.App {
	return server.New(cfg, l, srv, lim)
}
