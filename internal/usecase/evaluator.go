package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OQueQuantFirm/Market-Analyzer/internal/domain/models"
	domrepo "github.com/OQueQuantFirm/Market-Analyzer/internal/domain/repository"
	"github.com/OQueQuantFirm/Market-Analyzer/internal/services/calibration"
	"github.com/OQueQuantFirm/Market-Analyzer/internal/services/indicator"
	"github.com/OQueQuantFirm/Market-Analyzer/internal/services/orderbook"
	"github.com/OQueQuantFirm/Market-Analyzer/internal/services/signal"
	applogger "github.com/OQueQuantFirm/Market-Analyzer/pkg/logger"
)

// EvaluatorConfig holds the per-cycle strategy constants.
type EvaluatorConfig struct {
	Instrument       string
	Timeframe        string
	CandleLimit      int
	DepthLimit       int
	OscillatorPeriod int
	ShortEMAPeriod   int
	LongEMAPeriod    int
	LevelsPeriod     int
	Bounds           signal.Bounds
	CycleDelay       time.Duration
}

// Evaluator drives the evaluation loop: fetch market state, derive the
// signal, persist the cycle record, and hand fired signals to the
// order placer. One instance owns one instrument.
type Evaluator struct {
	market       domrepo.MarketData
	observations domrepo.ObservationStore
	records      domrepo.RecordStore
	publisher    domrepo.SignalPublisher
	notifier     domrepo.Notifier
	recalibrator *calibration.Recalibrator
	placer       *OrderPlacer
	metrics      domrepo.Metrics
	logger       *applogger.Logger
	cfg          EvaluatorConfig
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(
	market domrepo.MarketData,
	observations domrepo.ObservationStore,
	records domrepo.RecordStore,
	publisher domrepo.SignalPublisher,
	notifier domrepo.Notifier,
	recalibrator *calibration.Recalibrator,
	placer *OrderPlacer,
	metrics domrepo.Metrics,
	logger *applogger.Logger,
	cfg EvaluatorConfig,
) *Evaluator {
	return &Evaluator{
		market:       market,
		observations: observations,
		records:      records,
		publisher:    publisher,
		notifier:     notifier,
		recalibrator: recalibrator,
		placer:       placer,
		metrics:      metrics,
		logger:       logger,
		cfg:          cfg,
	}
}

// Run executes cycles until the context is cancelled. Cancellation is
// only honored between cycles; a running cycle always completes.
func (e *Evaluator) Run(ctx context.Context) error {
	e.logger.Info("evaluator: started",
		applogger.String("instrument", e.cfg.Instrument),
		applogger.String("timeframe", e.cfg.Timeframe),
	)
	for {
		e.RunCycle(ctx)

		select {
		case <-ctx.Done():
			e.logger.Info("evaluator: stopped")
			return ctx.Err()
		case <-time.After(e.cfg.CycleDelay):
		}
	}
}

// RunCycle executes one full evaluation cycle and returns the record
// that was persisted for it. A cycle never aborts the loop: all
// failures are captured in the record's Error field.
func (e *Evaluator) RunCycle(ctx context.Context) models.CycleRecord {
	start := time.Now()
	rec := models.CycleRecord{
		Timestamp:  start.UTC(),
		Instrument: e.cfg.Instrument,
		Signal:     models.SignalNone,
	}
	defer func() {
		if e.metrics != nil {
			e.metrics.RecordLatency("cycle", time.Since(start).Seconds())
		}
	}()

	candles, err := e.market.FetchCandles(ctx, e.cfg.Instrument, e.cfg.Timeframe, e.cfg.CandleLimit)
	if err != nil {
		return e.failCycle(ctx, rec, "market_data", fmt.Errorf("fetch candles: %w", err))
	}
	if len(candles) == 0 {
		return e.failCycle(ctx, rec, "market_data", models.ErrDataUnavailable)
	}
	rec.Price = candles[len(candles)-1].Close

	osc, err := indicator.Oscillator(candles, e.cfg.OscillatorPeriod)
	if err != nil {
		return e.failCycle(ctx, rec, "indicator", err)
	}
	rec.Oscillator = osc

	// Trend context is reported alongside the signal but never feeds
	// into it.
	if e.cfg.ShortEMAPeriod > 0 && e.cfg.LongEMAPeriod > 0 {
		if bands, berr := indicator.TrendBands(candles, e.cfg.ShortEMAPeriod, e.cfg.LongEMAPeriod); berr == nil {
			e.logger.Debug("evaluator: trend",
				applogger.String("trend", string(bands.Trend)),
				applogger.String("reversal", string(bands.Reversal)),
				applogger.Float64("short_ema", bands.ShortEMA),
				applogger.Float64("long_ema", bands.LongEMA),
			)
		}
	}
	if e.cfg.LevelsPeriod > 0 {
		if lv, lerr := indicator.Levels(candles, e.cfg.LevelsPeriod); lerr == nil {
			e.logger.Debug("evaluator: levels",
				applogger.Float64("support", lv.Support),
				applogger.Float64("resistance", lv.Resistance),
			)
		}
	}

	depth, err := e.market.FetchDepth(ctx, e.cfg.Instrument, e.cfg.DepthLimit)
	if err != nil {
		return e.failCycle(ctx, rec, "market_data", fmt.Errorf("fetch depth: %w", err))
	}
	imb, err := orderbook.Imbalance(depth)
	if err != nil {
		return e.failCycle(ctx, rec, "orderbook", err)
	}
	rec.Imbalance = imb

	if err := e.observations.Append(ctx, models.ImbalanceObservation{
		Timestamp:  rec.Timestamp,
		Instrument: e.cfg.Instrument,
		Imbalance:  imb,
	}); err != nil {
		// calibration history degrades, the cycle itself continues
		e.logger.Warn("evaluator: observation append failed", applogger.Error(err))
	}

	th := e.recalibrator.Current()
	if th == nil {
		e.logger.Debug("evaluator: no thresholds yet, signal suppressed")
	} else {
		rec.Signal = signal.Generate(osc, imb, *th, e.cfg.Bounds)
	}

	e.logger.Info("evaluator: cycle",
		applogger.String("instrument", e.cfg.Instrument),
		applogger.Float64("price", rec.Price),
		applogger.Float64("oscillator", osc),
		applogger.Float64("imbalance", imb),
		applogger.String("signal", string(rec.Signal)),
	)

	e.persist(ctx, rec)
	if e.metrics != nil {
		e.metrics.RecordCycle(e.cfg.Instrument, rec.Signal)
		e.metrics.RecordLastPrice(e.cfg.Instrument, rec.Price)
	}

	if rec.Signal.Fired() {
		e.handleSignal(ctx, rec)
	}
	return rec
}

// failCycle records a failed cycle and returns its record.
func (e *Evaluator) failCycle(ctx context.Context, rec models.CycleRecord, kind string, err error) models.CycleRecord {
	rec.Error = err.Error()
	e.logger.Error("evaluator: cycle failed",
		applogger.String("instrument", e.cfg.Instrument),
		applogger.String("kind", kind),
		applogger.Error(err),
	)
	if e.metrics != nil {
		e.metrics.RecordCycleError(kind)
	}
	e.persist(ctx, rec)
	return rec
}

func (e *Evaluator) persist(ctx context.Context, rec models.CycleRecord) {
	if err := e.records.Store(ctx, rec); err != nil {
		e.logger.Error("evaluator: record store failed", applogger.Error(err))
		if e.metrics != nil {
			e.metrics.RecordCycleError("persistence")
		}
	}
}

// handleSignal fans the fired signal out and places the bracket. Every
// downstream failure is contained here.
func (e *Evaluator) handleSignal(ctx context.Context, rec models.CycleRecord) {
	if err := e.publisher.Publish(ctx, rec); err != nil {
		e.logger.Error("evaluator: signal publish failed", applogger.Error(err))
	}

	if err := e.notifier.Notify(ctx, signalMessage(rec)); err != nil {
		e.logger.Warn("evaluator: notify failed", applogger.Error(err))
	}

	side := models.SideBuy
	if rec.Signal == models.SignalSell {
		side = models.SideSell
	}

	report, err := e.placer.PlaceBracket(ctx, rec.Instrument, side, rec.Price)
	switch {
	case err == nil:
		// all three legs accepted
	case errors.Is(err, models.ErrDuplicatePositionBlocked):
		e.logger.Info("evaluator: bracket skipped, position already open",
			applogger.String("instrument", rec.Instrument),
		)
	default:
		var partial *models.PartialBracketFailure
		if errors.As(err, &partial) {
			e.logger.Error("evaluator: bracket partially failed", applogger.Error(err))
			if nerr := e.notifier.Notify(ctx, partialFailureMessage(report)); nerr != nil {
				e.logger.Warn("evaluator: notify failed", applogger.Error(nerr))
			}
		} else {
			e.logger.Error("evaluator: bracket placement failed", applogger.Error(err))
			if e.metrics != nil {
				e.metrics.RecordCycleError("order")
			}
		}
	}
}

func signalMessage(rec models.CycleRecord) string {
	return fmt.Sprintf(
		"📈 *%s* signal on %s\nPrice: %.4f\nOscillator: %.2f\nImbalance: %.2f%%",
		rec.Signal, rec.Instrument, rec.Price, rec.Oscillator, rec.Imbalance,
	)
}

func partialFailureMessage(report *models.BracketReport) string {
	failed := 0
	for _, l := range report.Legs {
		if l.Err != nil {
			failed++
		}
	}
	return fmt.Sprintf(
		"⚠️ bracket on %s incomplete: %d of %d legs failed, manual review needed",
		report.Instrument, failed, len(report.Legs),
	)
}
