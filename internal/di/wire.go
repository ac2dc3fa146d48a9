//go:build wireinject
// +build wireinject

package di

import (
	"MacroPipe/pkg/config"
	"MacroPipe/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Storage
		ProvideStore,
		ProvideStoreInterface,
		ProvideClickHouseClient,
		ProvideValueArchive,
		ProvideCache,

		// Process bridge and job runner
		ProvideBridge,
		ProvideTaskRunner,

		// Event sinks
		ProvideKafkaPublisher,
		ProvideHub,
		ProvideNotifier,

		// Use cases
		ProvideIngester,
		ProvideOrchestrator,
		ProvideAnalysisService,
		ProvideMarketService,
		ProvideScheduler,

		// HTTP surface
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
