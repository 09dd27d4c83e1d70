package di

import (
	"fmt"

	"CandleScope/internal/domain/repository"
	domsvc "CandleScope/internal/domain/service"
	"CandleScope/internal/handler/api"
	"CandleScope/internal/ingest"
	internalrepo "CandleScope/internal/repository"
	"CandleScope/internal/services/analog"
	"CandleScope/internal/services/features"
	"CandleScope/internal/services/patterns"
	"CandleScope/internal/services/regime"
	"CandleScope/internal/services/trend"
	"CandleScope/internal/usecase"
	"CandleScope/pkg/cache"
	pkgch "CandleScope/pkg/clickhouse"
	"CandleScope/pkg/config"
	xhttp "CandleScope/pkg/http"
	pkgkafka "CandleScope/pkg/kafka"
	applogger "CandleScope/pkg/logger"
	"CandleScope/pkg/metrics"
	pkgqueue "CandleScope/pkg/queue"
	"CandleScope/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: cfg.Log.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when the
// clickhouse section is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithMaxConnections(10, 5),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideBarStore creates the ClickHouse bar store. Schema creation happens
// in Init, driven by the app lifecycle.
func ProvideBarStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.BarStore {
	if chClient == nil {
		return nil
	}
	store := internalrepo.NewCHBarStore(chClient, cfg.ClickHouse.Database)
	store.SetLogger(l)
	return store
}

// ProvideSummaryStore creates the ClickHouse summary audit store.
func ProvideSummaryStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.SummaryStore {
	if chClient == nil {
		return nil
	}
	store := internalrepo.NewCHSummaryStore(chClient, cfg.ClickHouse.Database)
	store.SetLogger(l)
	return store
}

// ProvideKafkaProducer creates a Kafka producer, or nil when the kafka
// section is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideSummaryPublisher wraps the Kafka producer as a summary publisher.
func ProvideSummaryPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SummaryPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSummaryPublisher(producer, cfg.Kafka.Topic)
}

// ProvideCache creates the cache backend selected in config, or nil when
// caching is disabled.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}

	switch cfg.Cache.Backend {
	case "", "memory":
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MaxSize)), nil

	case "redis":
		rc, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Cache.Addr),
			cache.WithRedisPassword(cfg.Cache.Password),
			cache.WithRedisDB(cfg.Cache.DB),
			cache.WithRedisPrefix(cfg.Cache.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return rc, nil

	case "layered":
		rc, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Cache.Addr),
			cache.WithRedisPassword(cfg.Cache.Password),
			cache.WithRedisDB(cfg.Cache.DB),
			cache.WithRedisPrefix(cfg.Cache.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return cache.NewLayeredCache(rc, cache.WithLayeredMemorySize(cfg.Cache.MaxSize)), nil

	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideEngine creates the indicator stage.
func ProvideEngine(l *applogger.Logger) domsvc.IndicatorEngine {
	e := features.NewEngine()
	e.SetLogger(l)
	return e
}

// ProvideDetector creates the pattern stage.
func ProvideDetector(cfg *config.Config, l *applogger.Logger) domsvc.PatternDetector {
	d := patterns.NewDetector()
	d.Threshold = cfg.Analysis.DojiThreshold
	d.SetLogger(l)
	return d
}

// ProvideClassifier creates the regime stage.
func ProvideClassifier(cfg *config.Config, l *applogger.Logger) domsvc.RegimeClassifier {
	c := regime.NewClassifier()
	c.Broadcast = cfg.Analysis.BroadcastRegimes
	c.HighRatio = cfg.Analysis.VolHighRatio
	c.LowRatio = cfg.Analysis.VolLowRatio
	c.SetLogger(l)
	return c
}

// ProvideModel creates the analog probability stage.
func ProvideModel(l *applogger.Logger) domsvc.ProbabilityModel {
	m := analog.NewModel()
	m.SetLogger(l)
	return m
}

// ProvideTrendResolver builds the trend tagger routing from config. The
// remote tagger is only constructed when a URL is configured.
func ProvideTrendResolver(cfg *config.Config, l *applogger.Logger) (*trend.Resolver, error) {
	local := trend.NewLocalTagger()
	if cfg.Trend.FastSpan > 0 {
		local.FastSpan = cfg.Trend.FastSpan
	}
	if cfg.Trend.SlowSpan > 0 {
		local.SlowSpan = cfg.Trend.SlowSpan
	}
	if cfg.Trend.Band > 0 {
		local.Band = cfg.Trend.Band
	}

	var remote domsvc.TrendTagger
	if cfg.Trend.URL != "" {
		ht := trend.NewHTTPTagger(trend.HTTPConfig{
			URL:        cfg.Trend.URL,
			Timeout:    cfg.Trend.Timeout,
			Attempts:   cfg.Trend.Attempts,
			RatePerSec: cfg.Trend.RatePerSec,
			Burst:      cfg.Trend.Burst,
		})
		ht.SetLogger(l)
		remote = ht
	}

	src, err := trend.ParseSource(cfg.Trend.Source)
	if err != nil {
		return nil, fmt.Errorf("trend source: %w", err)
	}

	r := trend.NewResolver(src, local, remote)
	r.SetLogger(l)
	return r, nil
}

// ProvideLoader creates the CSV loader.
func ProvideLoader(cfg *config.Config, l *applogger.Logger) *ingest.Loader {
	ld := ingest.NewLoader()
	ld.MaxRows = cfg.Ingest.MaxRows
	ld.SetLogger(l)
	return ld
}

// ProvideAnalyzer assembles the analysis use case with whatever optional
// infrastructure is enabled.
func ProvideAnalyzer(
	engine domsvc.IndicatorEngine,
	detector domsvc.PatternDetector,
	classifier domsvc.RegimeClassifier,
	model domsvc.ProbabilityModel,
	resolver *trend.Resolver,
	loader *ingest.Loader,
	bars repository.BarStore,
	summaries repository.SummaryStore,
	publisher repository.SummaryPublisher,
	cacheSvc cache.Service,
	m repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.Analyzer {
	a := usecase.NewAnalyzer(engine, detector, classifier, model, resolver, loader)
	a.SetLogger(l)
	a.WithLimits(cfg.Analysis.DefaultBars, cfg.Analysis.MaxBars)
	a.WithMetrics(m)
	a.WithStorage(bars, summaries, publisher)
	if cacheSvc != nil {
		a.WithCache(cacheSvc, cfg.Analysis.CacheTTL)
	}
	return a
}

// ProvideRefreshJob creates the queue job that recomputes stored analyses.
func ProvideRefreshJob(analyzer *usecase.Analyzer, l *applogger.Logger) *usecase.RefreshJob {
	job := usecase.NewRefreshJob(analyzer)
	job.SetLogger(l)
	return job
}

// ProvideQueue creates the Redis-backed job queue, or nil when the queue
// section is disabled. The queue shares the redis connection with the cache.
func ProvideQueue(cfg *config.Config, l *applogger.Logger, cacheSvc cache.Service, job *usecase.RefreshJob) (*pkgqueue.RedisQueue, error) {
	if !cfg.Queue.Enabled {
		return nil, nil
	}

	var rc *cache.RedisCache
	switch c := cacheSvc.(type) {
	case *cache.RedisCache:
		rc = c
	case *cache.LayeredCache:
		rc = c.Redis()
	}
	if rc == nil {
		return nil, fmt.Errorf("queue requires a redis-backed cache")
	}

	q := pkgqueue.NewRedisQueue(l, &pkgqueue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		QueueSize:  cfg.Queue.QueueSize,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, rc.Client(), pkgqueue.ModeProducerConsumer)
	q.RegisterJob(job)
	return q, nil
}

// ProvideQueueService exposes the queue publish side, or nil when no queue
// is running so callers fall back to inline execution.
func ProvideQueueService(q *pkgqueue.RedisQueue) pkgqueue.QueueService {
	if q == nil {
		return nil
	}
	return q
}

// ProvideRefresher creates the refresh dispatcher.
func ProvideRefresher(analyzer *usecase.Analyzer, qs pkgqueue.QueueService) *usecase.Refresher {
	return usecase.NewRefresher(analyzer, qs)
}

// ProvideHandler creates the Echo HTTP handler.
func ProvideHandler(l *applogger.Logger, analyzer *usecase.Analyzer, refresher *usecase.Refresher, bars repository.BarStore) xhttp.Handler {
	return api.NewAnalysisEchoHandler(l, analyzer, refresher, bars)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	queue *pkgqueue.RedisQueue,
	chClient *pkgch.Client,
	cacheSvc cache.Service,
	publisher repository.SummaryPublisher,
	bars repository.BarStore,
	summaries repository.SummaryStore,
	handler xhttp.Handler,
) *server.App {
	app := server.New(cfg, l, queue, chClient, cacheSvc, publisher, bars, summaries)
	app.SetHTTPHandler(handler)
	return app
}
