package di

import (
	"context"
	"fmt"
	"time"

	"AlphaRefinery/internal/domain/repository"
	"AlphaRefinery/internal/handler/api"
	internalrepo "AlphaRefinery/internal/repository"
	"AlphaRefinery/internal/service/cache"
	"AlphaRefinery/internal/usecase"
	pkgch "AlphaRefinery/pkg/clickhouse"
	"AlphaRefinery/pkg/config"
	xhttp "AlphaRefinery/pkg/http"
	pkgkafka "AlphaRefinery/pkg/kafka"
	applogger "AlphaRefinery/pkg/logger"
	"AlphaRefinery/pkg/metrics"
	"AlphaRefinery/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the
// warehouse database exists.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideWarehouse creates the ClickHouse-backed warehouse.
func ProvideWarehouse(chClient *pkgch.Client, l *applogger.Logger) repository.Warehouse {
	wh := internalrepo.NewCHWarehouse(chClient)
	wh.SetLogger(l)
	return wh
}

// ProvidePublisher creates the summary publisher; a disabled Kafka section
// yields a no-op publisher.
func ProvidePublisher(cfg *config.Config, l *applogger.Logger) (repository.Publisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NopPublisher{}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
	pub.SetLogger(l)
	return pub, nil
}

// ProvideStockCache creates the stock-list cache: Redis when enabled,
// otherwise in-process with the same TTL.
func ProvideStockCache(cfg *config.Config, l *applogger.Logger) repository.StockCache {
	if cfg.Redis.Enabled {
		c := cache.NewRedisStockCache(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		c.SetLogger(l)
		return c
	}
	return cache.NewMemoryStockCache(cfg.Redis.TTL)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRefiner creates the refine orchestrator use case.
func ProvideRefiner(
	wh repository.Warehouse,
	pub repository.Publisher,
	met repository.Metrics,
	stocks repository.StockCache,
	l *applogger.Logger,
) *usecase.RefinerUseCase {
	return usecase.NewRefinerUseCase(wh, pub, met, stocks, l)
}

// ProvideQuery creates the read-side use case.
func ProvideQuery(wh repository.Warehouse, stocks repository.StockCache) *usecase.QueryUseCase {
	return usecase.NewQueryUseCase(wh, stocks)
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(
	l *applogger.Logger,
	cfg *config.Config,
	refiner *usecase.RefinerUseCase,
	query *usecase.QueryUseCase,
) xhttp.Handler {
	return api.NewRefineryHandler(l, cfg, refiner, query)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	refiner *usecase.RefinerUseCase,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	pub repository.Publisher,
) *server.App {
	return server.New(cfg, l, refiner, handler, chClient, pub)
}
