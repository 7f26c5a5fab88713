//go:build wireinject
// +build wireinject

package di

import (
	"AlphaRefinery/pkg/config"
	"AlphaRefinery/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,

		// Repositories
		ProvideWarehouse,
		ProvidePublisher,
		ProvideStockCache,

		// Use cases
		ProvideRefiner,
		ProvideQuery,

		// HTTP surface and application server
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
