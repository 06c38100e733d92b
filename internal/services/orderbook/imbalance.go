// Package orderbook converts a depth snapshot into the signed pressure
// metric the signal generator consumes.
package orderbook

import (
	"github.com/OQueQuantFirm/Market-Analyzer/internal/domain/models"
)

// Imbalance returns the signed bid/ask pressure as a percentage in
// [-100, 100]. A book that is empty on both sides yields exactly 0 —
// a defined degenerate value, not an error. A nil snapshot means depth
// retrieval never happened and fails with ErrMissingDepthData.
func Imbalance(depth *models.DepthSnapshot) (float64, error) {
	if depth == nil {
		return 0, models.ErrMissingDepthData
	}

	var totalBid, totalAsk float64
	for _, lv := range depth.Bids {
		totalBid += lv.Size
	}
	for _, lv := range depth.Asks {
		totalAsk += lv.Size
	}

	if totalBid == 0 && totalAsk == 0 {
		return 0, nil
	}
	return (totalBid - totalAsk) / (totalBid + totalAsk) * 100, nil
}
