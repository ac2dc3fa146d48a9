package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MacroPipe/internal/events"
	"MacroPipe/internal/handler/ws"
	"MacroPipe/internal/usecase"
	"MacroPipe/pkg/cache"
	pkgch "MacroPipe/pkg/clickhouse"
	"MacroPipe/pkg/config"
	xhttp "MacroPipe/pkg/http"
	applogger "MacroPipe/pkg/logger"
	"MacroPipe/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	handler    xhttp.Handler
	runner     *queue.Runner
	scheduler  *usecase.Scheduler
	hub        *ws.Hub
	publisher  *events.KafkaPublisher
	chClient   *pkgch.Client
	cache      cache.Service
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	runner *queue.Runner,
	scheduler *usecase.Scheduler,
	hub *ws.Hub,
	publisher *events.KafkaPublisher,
	chClient *pkgch.Client,
	c cache.Service,
) *App {
	return &App{
		cfg:       cfg,
		logger:    l,
		handler:   handler,
		runner:    runner,
		scheduler: scheduler,
		hub:       hub,
		publisher: publisher,
		chClient:  chClient,
		cache:     c,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	// When the event stream is up, aggregate repeated log lines onto it.
	if a.publisher != nil {
		a.logger.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          a.cfg.Events.Topic + ".logs",
			Publisher:      a.publisher,
		})
	}

	opts := []xhttp.ServerOption{
		xhttp.WithHost(a.cfg.Server.Host),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	}
	if a.cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithRequestMetrics(a.logger, a.cfg.Metrics.SlowThreshold))
	}
	a.httpServer = xhttp.NewServer(a.handler, opts...)

	if a.scheduler != nil {
		if err := a.scheduler.Start(); err != nil {
			a.logger.Error("scheduler start error", applogger.Error(err))
			return err
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("server started",
		applogger.String("host", a.cfg.Server.Host),
		applogger.Int("port", a.cfg.Server.Port),
	)

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services. In-flight ETL jobs are given the
// chance to reach a terminal state before resources close underneath them.
func (a *App) shutdown() error {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	// Drain the job runner before closing what jobs write to.
	a.runner.Wait()

	if a.hub != nil {
		a.hub.Close()
	}

	if a.publisher != nil {
		// Final log flush goes out before the producer closes.
		a.logger.RemoveCollector()
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("event publisher close error", applogger.Error(err))
		}
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("cache close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
