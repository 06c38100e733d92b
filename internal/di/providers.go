package di

import (
	"context"
	"fmt"
	"time"

	domrepo "github.com/OQueQuantFirm/Market-Analyzer/internal/domain/repository"
	"github.com/OQueQuantFirm/Market-Analyzer/internal/handler/api"
	internalrepo "github.com/OQueQuantFirm/Market-Analyzer/internal/repository"
	"github.com/OQueQuantFirm/Market-Analyzer/internal/service/kucoin"
	"github.com/OQueQuantFirm/Market-Analyzer/internal/service/telegram"
	"github.com/OQueQuantFirm/Market-Analyzer/internal/services/calibration"
	"github.com/OQueQuantFirm/Market-Analyzer/internal/services/signal"
	"github.com/OQueQuantFirm/Market-Analyzer/internal/usecase"
	pkgcache "github.com/OQueQuantFirm/Market-Analyzer/pkg/cache"
	pkgch "github.com/OQueQuantFirm/Market-Analyzer/pkg/clickhouse"
	"github.com/OQueQuantFirm/Market-Analyzer/pkg/config"
	xhttp "github.com/OQueQuantFirm/Market-Analyzer/pkg/http"
	pkgkafka "github.com/OQueQuantFirm/Market-Analyzer/pkg/kafka"
	applogger "github.com/OQueQuantFirm/Market-Analyzer/pkg/logger"
	"github.com/OQueQuantFirm/Market-Analyzer/pkg/metrics"
	"github.com/OQueQuantFirm/Market-Analyzer/pkg/server"
)

// ProvideLogger creates the process logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and initializes
// the schema. Returns nil when the csv backend is configured.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Backend.Type != "clickhouse" {
		return nil, nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := append(
		[]string{fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", cfg.ClickHouse.Database)},
		internalrepo.Schema(cfg.ClickHouse.Database)...,
	)
	if err := client.InitSchema(ctx, stmts); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideObservationStore picks the observation backend: ClickHouse
// when available, otherwise a bounded in-memory ring.
func ProvideObservationStore(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) domrepo.ObservationStore {
	if ch != nil {
		return internalrepo.NewCHObservationStore(ch, l)
	}
	return internalrepo.NewMemoryObservationStore(cfg.Calibration.HistoryLimit)
}

// ProvideRecordStore picks the record backend per config.
func ProvideRecordStore(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) (domrepo.RecordStore, error) {
	if ch != nil {
		return internalrepo.NewCHRecordStore(ch, l), nil
	}
	return internalrepo.NewCSVRecordStore(cfg.Backend.CSVPath)
}

// ProvideSignalPublisher creates the Kafka publisher, or a noop when
// Kafka is disabled.
func ProvideSignalPublisher(cfg *config.Config) (domrepo.SignalPublisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopSignalPublisher{}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideThresholdCache creates the Redis-backed threshold cache, or a
// noop when Redis is disabled.
func ProvideThresholdCache(cfg *config.Config) (domrepo.ThresholdCache, error) {
	if !cfg.Redis.Enabled {
		return internalrepo.NoopThresholdCache{}, nil
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithAddr(cfg.Redis.Host, cfg.Redis.Port),
		pkgcache.WithPassword(cfg.Redis.Password),
		pkgcache.WithDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return internalrepo.NewRedisThresholdCache(rc), nil
}

// ProvideNotifier creates the Telegram notifier, or a noop when
// disabled.
func ProvideNotifier(cfg *config.Config, l *applogger.Logger) domrepo.Notifier {
	if !cfg.Telegram.Enabled || cfg.Telegram.BotToken == "" {
		return telegram.Noop{}
	}
	return telegram.New(cfg.Telegram.BotToken, cfg.Telegram.ChatID, l)
}

// ProvideExchangeClient creates the KuCoin futures REST client. It
// serves as both market data source and order gateway.
func ProvideExchangeClient(cfg *config.Config, l *applogger.Logger) *kucoin.Client {
	return kucoin.NewClient(
		cfg.Exchange.RESTHost,
		cfg.Exchange.APIKey,
		cfg.Exchange.APISecret,
		cfg.Exchange.Passphrase,
		kucoin.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(cfg.Exchange.Timeout))),
		kucoin.WithLogger(l),
	)
}

// ProvideMarketData exposes the exchange client as MarketData.
func ProvideMarketData(c *kucoin.Client) domrepo.MarketData { return c }

// ProvideOrderGateway exposes the exchange client as OrderGateway.
func ProvideOrderGateway(c *kucoin.Client) domrepo.OrderGateway { return c }

// ProvideTickerStream creates the public websocket ticker stream.
func ProvideTickerStream(cfg *config.Config, l *applogger.Logger) domrepo.TickerStream {
	return kucoin.NewStream(
		cfg.Exchange.RESTHost,
		cfg.Exchange.WebSocketURL,
		cfg.Strategy.Instrument,
		cfg.Exchange.ReconnectDelay,
		cfg.Exchange.PingInterval,
		l,
	)
}

// ProvideRecalibrator creates the threshold recalibrator.
func ProvideRecalibrator(obs domrepo.ObservationStore, thc domrepo.ThresholdCache, cfg *config.Config, l *applogger.Logger) *calibration.Recalibrator {
	return calibration.NewRecalibrator(
		obs, thc, l,
		cfg.Strategy.Instrument,
		cfg.Calibration.HistoryLimit,
		cfg.Calibration.Interval,
	)
}

// ProvideOrderPlacer creates the bracket order placer.
func ProvideOrderPlacer(gw domrepo.OrderGateway, md domrepo.MarketData, m domrepo.Metrics, cfg *config.Config, l *applogger.Logger) *usecase.OrderPlacer {
	return usecase.NewOrderPlacer(gw, md, m, l, usecase.BracketConfig{
		Leverage:       cfg.Strategy.Leverage,
		EquityFraction: cfg.Strategy.OrderEquityPercent,
		TakeProfitMult: cfg.Strategy.TakeProfitMult,
		StopLossMult:   cfg.Strategy.StopLossMult,
		PricePrecision: cfg.Strategy.PricePrecision,
	})
}

// ProvideEvaluator creates the evaluation loop.
func ProvideEvaluator(
	md domrepo.MarketData,
	obs domrepo.ObservationStore,
	records domrepo.RecordStore,
	pub domrepo.SignalPublisher,
	notifier domrepo.Notifier,
	recal *calibration.Recalibrator,
	placer *usecase.OrderPlacer,
	m domrepo.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.Evaluator {
	return usecase.NewEvaluator(md, obs, records, pub, notifier, recal, placer, m, l,
		usecase.EvaluatorConfig{
			Instrument:       cfg.Strategy.Instrument,
			Timeframe:        cfg.Strategy.Timeframe,
			CandleLimit:      cfg.Strategy.CandleLimit,
			DepthLimit:       cfg.Strategy.DepthLimit,
			OscillatorPeriod: cfg.Strategy.OscillatorPeriod,
			ShortEMAPeriod:   cfg.Strategy.ShortEMAPeriod,
			LongEMAPeriod:    cfg.Strategy.LongEMAPeriod,
			LevelsPeriod:     cfg.Strategy.LevelsPeriod,
			Bounds: signal.Bounds{
				BuyCeiling: cfg.Strategy.BuyCeiling,
				SellFloor:  cfg.Strategy.SellFloor,
			},
			CycleDelay: cfg.Strategy.CycleDelay,
		})
}

// ProvideStatusHandler creates the ops API handler.
func ProvideStatusHandler(recal *calibration.Recalibrator, records domrepo.RecordStore, cfg *config.Config, l *applogger.Logger) *api.StatusHandler {
	return api.NewStatusHandler(l, recal, records, cfg.Strategy.Instrument)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	evaluator *usecase.Evaluator,
	recal *calibration.Recalibrator,
	stream domrepo.TickerStream,
	handler *api.StatusHandler,
	records domrepo.RecordStore,
	pub domrepo.SignalPublisher,
	m domrepo.Metrics,
	ch *pkgch.Client,
) *server.App {
	return server.New(cfg, l, evaluator, recal, stream, handler, records, pub, m, ch)
}
