// Package signal holds the pure decision function that turns the cycle
// inputs into a tri-state trade signal.
package signal

import (
	"github.com/OQueQuantFirm/Market-Analyzer/internal/domain/models"
)

// Bounds are the oscillator qualification constants: a buy requires the
// oscillator at or below BuyCeiling, a sell at or above SellFloor. The
// reference configuration keeps both at 46, symmetric around the
// oscillator midline.
type Bounds struct {
	BuyCeiling float64
	SellFloor  float64
}

// Generate combines the oscillator and imbalance against the calibrated
// thresholds. Boundary equality is inclusive on the qualifying side.
// Total and pure: same inputs always yield the same signal, and no
// input combination is an error — missing upstream values must
// short-circuit to no-signal one layer above.
func Generate(oscillator, imbalance float64, th models.Thresholds, b Bounds) models.Signal {
	switch {
	case imbalance >= th.Buy && oscillator <= b.BuyCeiling:
		return models.SignalBuy
	case imbalance <= th.Sell && oscillator >= b.SellFloor:
		return models.SignalSell
	default:
		return models.SignalNone
	}
}
