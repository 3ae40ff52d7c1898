package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SeriesPulse/internal/service/ratelimit"
	"SeriesPulse/pkg/config"
	xhttp "SeriesPulse/pkg/http"
	applogger "SeriesPulse/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	httpServer *xhttp.Server
	limiter    *ratelimit.Limiter
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, srv *xhttp.Server, limiter *ratelimit.Limiter) *App {
	return &App{cfg: cfg, logger: l, httpServer: srv, limiter: limiter}
}

// Run starts the HTTP server and blocks until ctx is done, SIGINT/SIGTERM arrives or the
// server fails.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := a.httpServer.Start()
	go a.sweepLimiter(ctx)

	a.logger.Info("seriespulse started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("cache", a.cfg.Cache.Backend),
		applogger.Bool("llm", a.cfg.Insights.APIKey != ""),
		applogger.Bool("professional_forecaster", a.cfg.Forecaster.APIKey != ""),
	)

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err, ok := <-errc:
		if ok && err != nil {
			runErr = err
		}
	}
	if err := a.shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// sweepLimiter evicts idle rate limiter keys until ctx is done.
func (a *App) sweepLimiter(ctx context.Context) {
	if a.limiter == nil {
		return
	}
	interval := a.cfg.RateLimit.IdleTTL / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.limiter.Sweep(); n > 0 {
				a.logger.Debug("rate limiter swept", applogger.Int("evicted", n))
			}
		}
	}
}

// shutdown gracefully stops the HTTP server. In-flight requests get the configured
// shutdown timeout; infrastructure is closed by the DI cleanup afterwards.
func (a *App) shutdown() error {
	a.logger.Info("shutting down...")
	if err := a.httpServer.Stop(context.Background()); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
		return err
	}
	a.logger.Info("shutdown complete")
	return nil
}
