package repository

import (
	"context"
	"time"

	"github.com/OQueQuantFirm/Market-Analyzer/internal/domain/models"
)

// MarketData is the read side of the exchange: candles, depth and
// account balance. Every method wraps transport failures in
// models.NetworkError and reports upstream unavailability as
// models.ErrDataUnavailable.
type MarketData interface {
	FetchCandles(ctx context.Context, instrument, timeframe string, limit int) ([]models.Candle, error)
	FetchDepth(ctx context.Context, instrument string, limit int) (*models.DepthSnapshot, error)
	FetchBalance(ctx context.Context) (models.Balance, error)
}

// OrderGateway is the write side of the exchange plus the open-order
// query the position guard depends on.
type OrderGateway interface {
	OpenOrders(ctx context.Context, instrument string, statuses []models.OrderStatus) ([]models.OrderRef, error)
	SubmitOrder(ctx context.Context, order models.Order) (*models.OrderRef, error)
}

// TickerStream delivers live last-trade prices for the instrument.
// Feeds the status snapshot and metrics only; the evaluation loop never
// blocks on it.
type TickerStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
}

// ObservationStore persists the imbalance history the calibrator reads.
type ObservationStore interface {
	Append(ctx context.Context, obs models.ImbalanceObservation) error
	History(ctx context.Context, instrument string, limit int) ([]models.ImbalanceObservation, error)
}

// RecordStore persists one CycleRecord per evaluation cycle.
type RecordStore interface {
	Store(ctx context.Context, rec models.CycleRecord) error
	Query(ctx context.Context, instrument string, from, to time.Time, limit int) ([]models.CycleRecord, error)
	Close() error
}

// SignalPublisher fans fired signals out to downstream consumers.
type SignalPublisher interface {
	Publish(ctx context.Context, rec models.CycleRecord) error
	Close() error
}

// Notifier delivers human-readable alerts. Best effort: failures are
// logged by the caller and never propagated into the cycle.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// ThresholdCache survives restarts with the last good calibration.
type ThresholdCache interface {
	Load(ctx context.Context, instrument string) (*models.Thresholds, error)
	Save(ctx context.Context, instrument string, th models.Thresholds) error
}

// Metrics records operational counters for the evaluation loop.
type Metrics interface {
	RecordCycle(instrument string, signal models.Signal)
	RecordCycleError(kind string)
	RecordOrderSubmitted(instrument string, leg string, ok bool)
	RecordLastPrice(instrument string, price float64)
	RecordLatency(op string, seconds float64)
}
