//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"SeriesPulse/pkg/config"
	"SeriesPulse/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,

		// Metrics
		ProvideRegistry,
		ProvideMetrics,

		// Infrastructure
		ProvideCache,
		ProvideResultCache,

		// Collaborators and local engines
		ProvideInsightGenerator,
		ProvideProfessionalForecaster,
		ProvideForecastGenerator,

		// Use cases
		ProvideCollaboratorGateway,
		ProvideAnalysisUseCase,

		// Transport
		ProvideRateLimiter,
		ProvideAPIHandler,
		ProvideWSHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
