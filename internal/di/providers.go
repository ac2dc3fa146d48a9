package di

import (
	"context"
	"fmt"
	"time"

	"MacroPipe/internal/bridge"
	"MacroPipe/internal/domain/repository"
	"MacroPipe/internal/events"
	"MacroPipe/internal/handler/api"
	"MacroPipe/internal/handler/ws"
	internalrepo "MacroPipe/internal/repository"
	"MacroPipe/internal/usecase"
	"MacroPipe/pkg/cache"
	pkgch "MacroPipe/pkg/clickhouse"
	"MacroPipe/pkg/config"
	xhttp "MacroPipe/pkg/http"
	pkgkafka "MacroPipe/pkg/kafka"
	applogger "MacroPipe/pkg/logger"
	"MacroPipe/pkg/metrics"
	"MacroPipe/pkg/queue"
	"MacroPipe/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Logging.Pretty {
		format = "console"
	}
	level := cfg.Logging.Level
	if level == "" {
		level = "info"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideStore creates the in-process entity store pre-seeded with the
// core indicators.
func ProvideStore() *internalrepo.MemStore {
	s := internalrepo.NewMemStore()
	internalrepo.Seed(s)
	return s
}

// ProvideStoreInterface exposes the store through its domain interface.
func ProvideStoreInterface(s *internalrepo.MemStore) repository.Store {
	return s
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideBridge creates the analytics process runner.
func ProvideBridge(cfg *config.Config, l *applogger.Logger, m repository.Metrics) *bridge.Runner {
	opts := []bridge.Option{
		bridge.WithInterpreter(cfg.Analytics.Interpreter),
		bridge.WithTimeout(cfg.Analytics.Timeout),
		bridge.WithMetrics(m),
	}
	for capability, script := range cfg.Analytics.Scripts {
		opts = append(opts, bridge.WithScript(capability, script))
	}
	return bridge.NewRunner(cfg.Analytics.ScriptDir, l, opts...)
}

// ProvideTaskRunner creates the asynchronous job runner.
func ProvideTaskRunner(cfg *config.Config, l *applogger.Logger) *queue.Runner {
	var opts []queue.RunnerOption
	if cfg.Jobs.MaxConcurrent > 0 {
		opts = append(opts, queue.WithMaxConcurrent(cfg.Jobs.MaxConcurrent))
	}
	return queue.NewRunner(l, opts...)
}

// ProvideKafkaPublisher creates the job event publisher, or nil when the
// event stream is disabled.
func ProvideKafkaPublisher(cfg *config.Config, l *applogger.Logger) (*events.KafkaPublisher, error) {
	if !cfg.Events.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Events.Brokers),
		pkgkafka.WithCompression(cfg.Events.Compression),
		pkgkafka.WithRequiredAcks(cfg.Events.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Events.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Events.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Events.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Events.Producer.WriteTimeout, cfg.Events.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Events.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Events.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return events.NewKafkaPublisher(producer, cfg.Events.Topic, l), nil
}

// ProvideHub creates the websocket job feed hub.
func ProvideHub(l *applogger.Logger) *ws.Hub {
	return ws.NewHub(l)
}

// ProvideNotifier fans job events out to every configured sink.
func ProvideNotifier(hub *ws.Hub, publisher *events.KafkaPublisher) usecase.JobNotifier {
	fanout := events.Fanout{hub}
	if publisher != nil {
		fanout = append(fanout, publisher)
	}
	return fanout
}

// ProvideClickHouseClient creates a ClickHouse client when the value archive
// is enabled, nil otherwise.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.Archive.ClickHouse.Host),
		pkgch.WithPort(cfg.Archive.ClickHouse.Port),
		pkgch.WithDatabase(cfg.Archive.ClickHouse.Database),
		pkgch.WithCredentials(cfg.Archive.ClickHouse.User, cfg.Archive.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.Archive.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.Archive.ClickHouse.AsyncInsert, cfg.Archive.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.Archive.ClickHouse.DialTimeout, cfg.Archive.ClickHouse.ReadTimeout, cfg.Archive.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.Archive.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideValueArchive creates the ClickHouse value archive and initializes
// its schema. Returns nil when archiving is disabled.
func ProvideValueArchive(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) (repository.ValueArchive, error) {
	if chClient == nil {
		return nil, nil
	}
	archive := internalrepo.NewCHValueArchive(chClient, cfg.Archive.ClickHouse.Database+"."+cfg.Archive.Table)
	archive.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := chClient.InitSchema(ctx, archive.Schema(cfg.Archive.ClickHouse.Database)); err != nil {
		_ = chClient.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return archive, nil
}

// ProvideCache creates the analysis response cache configured by type.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	switch cfg.Cache.Type {
	case "redis", "layered":
		rc, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		if cfg.Cache.Type == "layered" {
			return cache.NewLayeredCache(rc), nil
		}
		return rc, nil
	default:
		return cache.NewMemoryCache(), nil
	}
}

// ProvideIngester creates the result ingester.
func ProvideIngester(store repository.Store, archive repository.ValueArchive, m repository.Metrics, l *applogger.Logger) *usecase.ResultIngester {
	return usecase.NewResultIngester(store, archive, m, l)
}

// ProvideOrchestrator creates the job orchestrator.
func ProvideOrchestrator(
	store repository.Store,
	br *bridge.Runner,
	ingester *usecase.ResultIngester,
	runner *queue.Runner,
	notifier usecase.JobNotifier,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Orchestrator {
	return usecase.NewOrchestrator(store, br, ingester, runner, notifier, m, l)
}

// ProvideAnalysisService creates the synchronous analysis service.
func ProvideAnalysisService(
	store repository.Store,
	br *bridge.Runner,
	ingester *usecase.ResultIngester,
	c cache.Service,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.AnalysisService {
	return usecase.NewAnalysisService(store, br, ingester, c, cfg.Cache.TTL, l)
}

// ProvideMarketService creates the market data service.
func ProvideMarketService(store repository.Store, br *bridge.Runner, l *applogger.Logger) *usecase.MarketService {
	return usecase.NewMarketService(store, br, l)
}

// ProvideScheduler creates the scheduled-job promoter, or nil when disabled.
func ProvideScheduler(cfg *config.Config, store repository.Store, orch *usecase.Orchestrator, l *applogger.Logger) *usecase.Scheduler {
	if !cfg.Scheduler.Enabled {
		return nil
	}
	return usecase.NewScheduler(store, orch, cfg.Scheduler.Interval, l)
}

// ProvideHTTPHandler groups every route registrar into one handler.
func ProvideHTTPHandler(
	l *applogger.Logger,
	orch *usecase.Orchestrator,
	analysis *usecase.AnalysisService,
	market *usecase.MarketService,
	store *internalrepo.MemStore,
	hub *ws.Hub,
) xhttp.Handler {
	return xhttp.Handlers{
		api.NewMarketHandler(l, market),
		api.NewEtlHandler(l, orch),
		api.NewAnalysisHandler(l, analysis),
		api.NewStatusHandler(orch, store),
		hub,
	}
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	runner *queue.Runner,
	scheduler *usecase.Scheduler,
	hub *ws.Hub,
	publisher *events.KafkaPublisher,
	chClient *pkgch.Client,
	c cache.Service,
) *server.App {
	return server.New(cfg, l, handler, runner, scheduler, hub, publisher, chClient, c)
}
