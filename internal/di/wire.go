//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/narayanprabad/InvestWise/pkg/config"
	"github.com/narayanprabad/InvestWise/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisCache,
		ProvideRedisClient,
		ProvideCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Upstream sources
		ProvideMarketDataClient,
		ProvideQuoteSource,
		ProvideTrendSource,
		ProvideSentimentSource,
		ProvideSources,

		// Domain services
		ProvideClassifier,
		ProvideOptimizer,

		// Repositories
		ProvideProfileRepository,
		ProvideSnapshotStore,
		ProvideSnapshotPublisher,

		// Use cases
		ProvideMarketConditionUseCase,
		ProvideProfileUseCase,
		ProvideAdviceUseCase,
		ProvideHistoryUseCase,
		ProvideSnapshotRecorder,
		ProvideSnapshotPipeline,
		ProvideKafkaSnapshotsHandler,
		ProvideConditionWatcher,

		// Transport
		ProvideStreamHub,
		ProvideLimiter,
		ProvideResponseCache,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
