package di

import (
	"context"
	"fmt"
	"io"
	"time"

	"ApexPick/internal/adapters"
	"ApexPick/internal/domain/models"
	"ApexPick/internal/domain/repository"
	"ApexPick/internal/handler/api"
	internalrepo "ApexPick/internal/repository"
	"ApexPick/internal/service/ratelimit"
	"ApexPick/internal/services/analytics"
	"ApexPick/internal/services/stats"
	"ApexPick/internal/usecase"
	"ApexPick/pkg/cache"
	pkgch "ApexPick/pkg/clickhouse"
	"ApexPick/pkg/config"
	xhttp "ApexPick/pkg/http"
	pkgkafka "ApexPick/pkg/kafka"
	applogger "ApexPick/pkg/logger"
	"ApexPick/pkg/metrics"
	pkgpg "ApexPick/pkg/postgres"
	"ApexPick/pkg/server"
)

const schemaTimeout = 10 * time.Second

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: "apexpick",
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is
// disabled. With topics.logs set, error logs are batched onto that topic.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	if cfg.Kafka.Topics.Logs != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.Topics.Logs,
			Publisher:      producer,
		})
	}
	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return repository.NopMetrics{}
	}
	return metrics.New()
}

// ProvideProfileCache builds the in-process cache, fronting Redis when it is
// enabled.
func ProvideProfileCache(cfg *config.Config, l *applogger.Logger) (cache.Store, error) {
	mem := cache.NewMemoryCache(
		cache.WithMemoryTTL(cfg.Aggregator.CacheTTL),
		cache.WithMemoryCleanup(cfg.Aggregator.CleanupInterval),
	)
	if !cfg.Redis.Enabled {
		return mem, nil
	}

	remote, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
		cache.WithRedisTTL(cfg.Aggregator.CacheTTL),
	)
	if err != nil {
		_ = mem.Close()
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	l.Info("profile cache layered on redis", applogger.String("addr", cfg.Redis.Addr))
	return cache.NewLayeredCache(mem, remote), nil
}

// ProvideAdapterRegistry creates an HTTP source per enabled adapter entry.
func ProvideAdapterRegistry(cfg *config.Config, l *applogger.Logger) *adapters.Registry {
	reg := adapters.BuildRegistry(cfg.Adapters, cfg.Aggregator.AdapterTimeout)
	for sport, names := range reg.Names() {
		l.Info("adapters registered", applogger.String("sport", sport), applogger.Strings("adapters", names))
	}
	return reg
}

func ProvideAggregator(cfg *config.Config, reg *adapters.Registry, store cache.Store, m repository.Metrics, l *applogger.Logger) *usecase.Aggregator {
	return usecase.NewAggregator(reg, store, m, l, usecase.WithAdapterTimeout(cfg.Aggregator.AdapterTimeout))
}

func ProvideStakeSizer(cfg *config.Config, m repository.Metrics, l *applogger.Logger) *analytics.StakeSizer {
	return analytics.NewStakeSizer(analytics.StakeConfig{
		StakeCap:        cfg.Staking.StakeCap,
		KellyMultiplier: cfg.Staking.KellyMultiplier,
	}, m, l)
}

func ProvideRiskAssessor(cfg *config.Config) *analytics.RiskAssessor {
	return analytics.NewRiskAssessor(cfg.Staking.VaRConfidence, cfg.Staking.MinConfidence)
}

func ProvideComposer(cfg *config.Config) *usecase.Composer {
	return usecase.NewComposer(cfg.Staking.MinConfidence)
}

// PredictionBackend is the configured prediction store and the client that
// owns its connection pool. Both are nil for backend "none".
type PredictionBackend struct {
	Store  repository.PredictionStore
	Client io.Closer
}

// ProvidePredictionBackend connects the store selected by backend.type and
// creates its table.
func ProvidePredictionBackend(cfg *config.Config, l *applogger.Logger) (*PredictionBackend, error) {
	var (
		store  *internalrepo.SQLPredictionStore
		client io.Closer
	)
	switch cfg.Backend.Type {
	case "clickhouse":
		ch, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}
		store = internalrepo.NewClickHousePredictionStore(ch, "", l)
		client = ch
	case "postgres":
		pg, err := pkgpg.NewClient(
			pkgpg.WithDSN(cfg.Postgres.DSN),
			pkgpg.WithPool(cfg.Postgres.MaxOpenConns, cfg.Postgres.MaxIdleConns, cfg.Postgres.ConnMaxLifetime),
		)
		if err != nil {
			return nil, fmt.Errorf("postgres client: %w", err)
		}
		store = internalrepo.NewPostgresPredictionStore(pg, "", l)
		client = pg
	default:
		return &PredictionBackend{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s schema: %w", cfg.Backend.Type, err)
	}
	l.Info("prediction store ready", applogger.String("backend", cfg.Backend.Type))
	return &PredictionBackend{Store: store, Client: client}, nil
}

// ProvidePredictionPublisher returns nil when there is no producer.
func ProvidePredictionPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.PredictionPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPredictionPublisher(producer, cfg.Kafka.Topics.Predictions)
}

func ProvidePipeline(
	cfg *config.Config,
	agg *usecase.Aggregator,
	deriver *stats.Deriver,
	stakes *analytics.StakeSizer,
	risk *analytics.RiskAssessor,
	composer *usecase.Composer,
	backend *PredictionBackend,
	pub repository.PredictionPublisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Pipeline {
	return usecase.NewPipeline(
		agg,
		deriver,
		analytics.NewProbabilityModel(),
		analytics.NewEdgeCalculator(),
		stakes,
		risk,
		composer,
		m,
		l,
		usecase.WithPredictionTTL(cfg.Predictions.TTL),
		usecase.WithPersistence(backend.Store, pub),
	)
}

func ProvideFixtureRequestHandler(cfg *config.Config, pipe *usecase.Pipeline, m repository.Metrics, l *applogger.Logger) *usecase.FixtureRequestHandler {
	return usecase.NewFixtureRequestHandler(cfg.Kafka.Topics.Requests, pipe, m, l)
}

// ProvideKafkaConsumer creates the fixture-request consumer, or nil when
// Kafka or the consumer is disabled.
func ProvideKafkaConsumer(cfg *config.Config, h *usecase.FixtureRequestHandler, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Topics.DLQ),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.RegisterHandler(h)
	return consumer, nil
}

// ProvidePrewarmer returns nil when prewarming is disabled.
func ProvidePrewarmer(cfg *config.Config, agg *usecase.Aggregator, l *applogger.Logger) *usecase.Prewarmer {
	if !cfg.Prewarm.Enabled {
		return nil
	}
	entities := make([]models.EntitySpec, 0, len(cfg.Prewarm.Entities))
	for _, e := range cfg.Prewarm.Entities {
		entities = append(entities, models.EntitySpec{Sport: e.Sport, EntityName: e.Entity, League: e.League})
	}
	return usecase.NewPrewarmer(agg, cfg.Prewarm.Schedule, entities, l)
}

func ProvideHTTPHandler(l *applogger.Logger, agg *usecase.Aggregator, deriver *stats.Deriver, pipe *usecase.Pipeline, backend *PredictionBackend) *api.ApexEchoHandler {
	var checks []api.HealthCheck
	if backend.Store != nil {
		checks = append(checks, api.HealthCheck{Name: "prediction_store", Check: backend.Store.Health})
	}
	return api.NewApexEchoHandler(l, agg, deriver, pipe, checks...)
}

func ProvideHTTPServer(cfg *config.Config, h *api.ApexEchoHandler, l *applogger.Logger) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithRateLimit(ratelimit.New(cfg.Server.RatePerSec, cfg.Server.Burst)),
		xhttp.WithLogger(l),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path))
	}
	return xhttp.NewServer(h, opts...)
}

// ProvideApp assembles the lifecycle. Components start consumer first and
// HTTP last; resources close after every component has stopped, with the
// log collector flushed before the producer it publishes through.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	prewarmer *usecase.Prewarmer,
	producer *pkgkafka.Producer,
	backend *PredictionBackend,
	profileCache cache.Store,
) *server.App {
	opts := []server.Option{
		server.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		server.WithFatalErrors(srv.Errors()),
	}
	if consumer != nil {
		opts = append(opts, server.WithComponent("kafka_consumer", consumer))
	}
	if prewarmer != nil {
		opts = append(opts, server.WithComponent("prewarm", prewarmer))
	}
	opts = append(opts, server.WithComponent("http", srv))

	if producer != nil {
		opts = append(opts,
			server.WithResource("log_collector", closerFunc(func() error {
				l.RemoveCollector()
				return nil
			})),
			server.WithResource("kafka_producer", producer),
		)
	}
	if backend.Client != nil {
		opts = append(opts, server.WithResource(cfg.Backend.Type, backend.Client))
	}
	opts = append(opts, server.WithResource("profile_cache", profileCache))

	return server.New(l, opts...)
}
