// Package calibration derives the adaptive imbalance thresholds from
// historical observations and keeps them fresh on a fixed interval.
package calibration

import (
	"time"

	"github.com/OQueQuantFirm/Market-Analyzer/internal/domain/models"
)

// Calibrate partitions the history into strictly positive and strictly
// negative imbalances and returns the mean of each side. Zero samples
// belong to neither side. If either side is empty the threshold pair is
// undefined and the call fails with ErrInsufficientCalibrationData; the
// caller keeps its previous thresholds in that case.
func Calibrate(history []models.ImbalanceObservation) (models.Thresholds, error) {
	var posSum, negSum float64
	var posN, negN int

	for _, obs := range history {
		switch {
		case obs.Imbalance > 0:
			posSum += obs.Imbalance
			posN++
		case obs.Imbalance < 0:
			negSum += obs.Imbalance
			negN++
		}
	}

	if posN == 0 || negN == 0 {
		return models.Thresholds{}, models.ErrInsufficientCalibrationData
	}

	return models.Thresholds{
		Buy:          posSum / float64(posN),
		Sell:         negSum / float64(negN),
		CalibratedAt: time.Now().UTC(),
	}, nil
}
