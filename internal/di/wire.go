//go:build wireinject
// +build wireinject

package di

import (
	"CandleScope/pkg/config"
	"CandleScope/pkg/server"

	"github.com/google/wire"
)

// InitializeApp builds the full object graph from config.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideCache,

		// Repositories
		ProvideBarStore,
		ProvideSummaryStore,
		ProvideSummaryPublisher,

		// Pipeline stages
		ProvideEngine,
		ProvideDetector,
		ProvideClassifier,
		ProvideModel,
		ProvideTrendResolver,
		ProvideLoader,

		// Use cases
		ProvideAnalyzer,
		ProvideRefreshJob,
		ProvideQueue,
		ProvideQueueService,
		ProvideRefresher,

		// HTTP
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
