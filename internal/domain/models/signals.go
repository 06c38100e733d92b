package models

import "time"

// Signal is the tri-state outcome of one evaluation cycle. It is
// recomputed every cycle and only ever logged or persisted, never
// carried as mutable state.
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalNone Signal = "no_signal"
)

// Fired reports whether the signal should trigger order placement.
func (s Signal) Fired() bool {
	return s == SignalBuy || s == SignalSell
}

// ImbalanceObservation is one historical order-book imbalance sample,
// the raw material for threshold calibration.
type ImbalanceObservation struct {
	Timestamp  time.Time `json:"ts"`
	Instrument string    `json:"instrument"`
	Imbalance  float64   `json:"imbalance"` // percent, [-100, 100]
}

// Thresholds are the adaptive imbalance cutoffs derived from history.
// Buy >= 0 >= Sell whenever both sides of the history are populated.
type Thresholds struct {
	Buy          float64   `json:"buy"`
	Sell         float64   `json:"sell"`
	CalibratedAt time.Time `json:"calibrated_at"`
}

// CycleRecord is the per-cycle row persisted by the evaluator. On a
// failed cycle the signal fields stay zero and Error carries the cause.
type CycleRecord struct {
	Timestamp  time.Time `json:"ts"`
	Instrument string    `json:"instrument"`
	Price      float64   `json:"price"`
	Oscillator float64   `json:"oscillator"`
	Imbalance  float64   `json:"imbalance"`
	Signal     Signal    `json:"signal"`
	Error      string    `json:"error,omitempty"`
}
