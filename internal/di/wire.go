//go:build wireinject
// +build wireinject

package di

import (
	"github.com/OQueQuantFirm/Market-Analyzer/pkg/config"
	"github.com/OQueQuantFirm/Market-Analyzer/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideThresholdCache,
		ProvideSignalPublisher,

		// Exchange adapters
		ProvideExchangeClient,
		ProvideMarketData,
		ProvideOrderGateway,
		ProvideTickerStream,
		ProvideNotifier,

		// Stores
		ProvideObservationStore,
		ProvideRecordStore,

		// Strategy components
		ProvideRecalibrator,
		ProvideOrderPlacer,
		ProvideEvaluator,
		ProvideStatusHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
