package calibration

import (
	"context"
	"sync"
	"time"

	"github.com/OQueQuantFirm/Market-Analyzer/internal/domain/models"
	domrepo "github.com/OQueQuantFirm/Market-Analyzer/internal/domain/repository"
	applogger "github.com/OQueQuantFirm/Market-Analyzer/pkg/logger"
)

// Recalibrator owns the process-wide Thresholds value. It reloads the
// imbalance history on a fixed interval and recomputes the thresholds;
// on any failure the previous value is retained, so the evaluation loop
// is never blocked by calibration. All other components only read.
type Recalibrator struct {
	store      domrepo.ObservationStore
	cache      domrepo.ThresholdCache
	logger     *applogger.Logger
	instrument string
	historyN   int
	interval   time.Duration

	mu      sync.RWMutex
	current *models.Thresholds
}

// NewRecalibrator creates a Recalibrator. cache may be nil when no
// warm-start backend is configured.
func NewRecalibrator(store domrepo.ObservationStore, cache domrepo.ThresholdCache, logger *applogger.Logger, instrument string, historyN int, interval time.Duration) *Recalibrator {
	return &Recalibrator{
		store:      store,
		cache:      cache,
		logger:     logger,
		instrument: instrument,
		historyN:   historyN,
		interval:   interval,
	}
}

// Current returns the latest good thresholds, or nil when no
// calibration has ever succeeded. Callers treat nil as "no signal can
// qualify this cycle".
func (r *Recalibrator) Current() *models.Thresholds {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Warm seeds the thresholds before the loop starts: first from the
// cache left by a previous run, then from a fresh calibration attempt.
// Neither step failing is fatal.
func (r *Recalibrator) Warm(ctx context.Context) {
	if r.cache != nil {
		if th, err := r.cache.Load(ctx, r.instrument); err == nil && th != nil {
			r.mu.Lock()
			r.current = th
			r.mu.Unlock()
			r.logger.Info("thresholds warm-started from cache",
				applogger.String("instrument", r.instrument),
				applogger.Any("thresholds", th),
			)
		}
	}
	r.recalibrate(ctx)
}

// Run recalibrates on every interval tick until ctx is cancelled.
func (r *Recalibrator) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.recalibrate(ctx)
		}
	}
}

func (r *Recalibrator) recalibrate(ctx context.Context) {
	history, err := r.store.History(ctx, r.instrument, r.historyN)
	if err != nil {
		r.logger.Warn("calibration history load failed, keeping previous thresholds",
			applogger.String("instrument", r.instrument),
			applogger.Error(err),
		)
		return
	}

	th, err := Calibrate(history)
	if err != nil {
		r.logger.Warn("calibration failed, keeping previous thresholds",
			applogger.String("instrument", r.instrument),
			applogger.Int("history", len(history)),
			applogger.Error(err),
		)
		return
	}

	r.mu.Lock()
	r.current = &th
	r.mu.Unlock()

	if r.cache != nil {
		if err := r.cache.Save(ctx, r.instrument, th); err != nil {
			r.logger.Warn("threshold cache save failed", applogger.Error(err))
		}
	}

	r.logger.Info("thresholds recalibrated",
		applogger.String("instrument", r.instrument),
		applogger.Int("history", len(history)),
		applogger.Any("thresholds", th),
	)
}
