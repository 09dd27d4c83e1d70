package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CandleScope/internal/domain/repository"
	"CandleScope/pkg/cache"
	pkgch "CandleScope/pkg/clickhouse"
	"CandleScope/pkg/config"
	xhttp "CandleScope/pkg/http"
	applogger "CandleScope/pkg/logger"
	pkgqueue "CandleScope/pkg/queue"
)

// App owns the long-lived components and runs their lifecycle.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	queue       *pkgqueue.RedisQueue
	chClient    *pkgch.Client
	cache       cache.Service
	publisher   repository.SummaryPublisher
	bars        repository.BarStore
	summaries   repository.SummaryStore
}

// New creates a new App instance with all dependencies. Optional
// infrastructure (queue, clickhouse, cache, publisher, stores) may be nil
// when the matching config section is disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	queue *pkgqueue.RedisQueue,
	chClient *pkgch.Client,
	cacheSvc cache.Service,
	publisher repository.SummaryPublisher,
	bars repository.BarStore,
	summaries repository.SummaryStore,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		queue:     queue,
		chClient:  chClient,
		cache:     cacheSvc,
		publisher: publisher,
		bars:      bars,
		summaries: summaries,
	}
}

// SetHTTPHandler attaches the route handler. Must be called before Run.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run brings up storage, workers and the HTTP server, then blocks until
// SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.log
	if l == nil {
		l, _ = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
		a.log = l
	}

	// Storage schema must exist before the first request hits it.
	if a.bars != nil {
		if err := a.bars.Init(ctx); err != nil {
			return fmt.Errorf("init bar store: %w", err)
		}
	}
	if a.summaries != nil {
		if err := a.summaries.Init(ctx); err != nil {
			return fmt.Errorf("init summary store: %w", err)
		}
	}

	// Start queue workers if configured.
	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			return fmt.Errorf("start queue: %w", err)
		}
		l.Info("queue started", applogger.Int("workers", a.cfg.Queue.Workers))
	}

	if a.publisher != nil {
		l.Info("summary publisher ready",
			applogger.Strings("brokers", a.cfg.Kafka.Brokers),
			applogger.String("topic", a.cfg.Kafka.Topic))
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithHost(a.cfg.Server.Host),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsEndpoint(a.cfg.Metrics.Enabled, a.cfg.Metrics.Path),
		xhttp.WithLogger(l),
		xhttp.WithRequestMetrics(l, time.Second),
	)
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("http server started",
		applogger.String("host", a.cfg.Server.Host),
		applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutting down")
	return a.shutdown(ctx)
}

// shutdown stops the services in reverse dependency order: traffic first,
// then workers, then the clients they write through.
func (a *App) shutdown(ctx context.Context) error {
	l := a.log

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	if a.queue != nil {
		if err := a.queue.Stop(shutdownCtx); err != nil {
			l.Warn("queue stop error", applogger.Error(err))
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			l.Warn("publisher close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	if closer, ok := a.cache.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			l.Warn("cache close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
