package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/OQueQuantFirm/Market-Analyzer/internal/domain/repository"
	"github.com/OQueQuantFirm/Market-Analyzer/internal/handler/api"
	"github.com/OQueQuantFirm/Market-Analyzer/internal/services/calibration"
	"github.com/OQueQuantFirm/Market-Analyzer/internal/usecase"
	pkgch "github.com/OQueQuantFirm/Market-Analyzer/pkg/clickhouse"
	"github.com/OQueQuantFirm/Market-Analyzer/pkg/config"
	xhttp "github.com/OQueQuantFirm/Market-Analyzer/pkg/http"
	applogger "github.com/OQueQuantFirm/Market-Analyzer/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	evaluator  *usecase.Evaluator
	recal      *calibration.Recalibrator
	stream     repository.TickerStream
	handler    *api.StatusHandler
	records    repository.RecordStore
	publisher  repository.SignalPublisher
	metrics    repository.Metrics
	chClient   *pkgch.Client
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	evaluator *usecase.Evaluator,
	recal *calibration.Recalibrator,
	stream repository.TickerStream,
	handler *api.StatusHandler,
	records repository.RecordStore,
	publisher repository.SignalPublisher,
	metrics repository.Metrics,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		logger:    l,
		evaluator: evaluator,
		recal:     recal,
		stream:    stream,
		handler:   handler,
		records:   records,
		publisher: publisher,
		metrics:   metrics,
		chClient:  chClient,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger

	// Seed thresholds before the first cycle so signals are not
	// suppressed longer than necessary.
	a.recal.Warm(ctx)
	go a.recal.Run(ctx)

	go func() {
		if err := a.evaluator.Run(ctx); err != nil && ctx.Err() == nil {
			l.Error("evaluator stopped", applogger.Error(err))
		}
	}()
	l.Info("evaluator started",
		applogger.String("instrument", a.cfg.Strategy.Instrument),
		applogger.String("timeframe", a.cfg.Strategy.Timeframe),
	)

	go a.consumeTicker(ctx)

	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(l),
	)
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// consumeTicker keeps the live-price stream alive, feeding the last
// trade price into metrics. Stream failures trigger reconnects and
// never affect the evaluation loop.
func (a *App) consumeTicker(ctx context.Context) {
	l := a.logger

	if err := a.stream.Connect(ctx); err != nil {
		l.Warn("ticker stream connect failed", applogger.Error(err))
		if err := a.stream.Reconnect(ctx); err != nil {
			l.Warn("ticker stream reconnect failed", applogger.Error(err))
			return
		}
	} else if err := a.stream.Subscribe(ctx); err != nil {
		l.Warn("ticker stream subscribe failed", applogger.Error(err))
		return
	}

	ticks, errs := a.stream.Read(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case tick, ok := <-ticks:
			if !ok {
				return
			}
			a.metrics.RecordLastPrice(tick.Instrument, tick.Price)
		case err, ok := <-errs:
			if !ok {
				return
			}
			l.Warn("ticker stream error", applogger.Error(err))
			if rerr := a.stream.Reconnect(ctx); rerr != nil {
				l.Warn("ticker stream reconnect failed", applogger.Error(rerr))
				return
			}
			ticks, errs = a.stream.Read(ctx)
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	l := a.logger
	l.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	if err := a.stream.Close(); err != nil {
		l.Warn("ticker stream close error", applogger.Error(err))
	}
	if err := a.publisher.Close(); err != nil {
		l.Warn("publisher close error", applogger.Error(err))
	}
	if err := a.records.Close(); err != nil {
		l.Warn("record store close error", applogger.Error(err))
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
