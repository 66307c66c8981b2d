//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"ApexPick/internal/services/stats"
	"ApexPick/pkg/config"
	"ApexPick/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideProfileCache,
		ProvidePredictionBackend,

		// Repositories and adapters
		ProvideAdapterRegistry,
		ProvidePredictionPublisher,

		// Domain services
		stats.NewDeriver,
		ProvideStakeSizer,
		ProvideRiskAssessor,
		ProvideComposer,

		// Use cases
		ProvideAggregator,
		ProvidePipeline,
		ProvideFixtureRequestHandler,
		ProvidePrewarmer,

		// Transport
		ProvideKafkaConsumer,
		ProvideHTTPHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
