package calibration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OQueQuantFirm/Market-Analyzer/internal/domain/models"
)

func obs(values ...float64) []models.ImbalanceObservation {
	out := make([]models.ImbalanceObservation, len(values))
	for i, v := range values {
		out[i] = models.ImbalanceObservation{
			Timestamp:  time.Unix(int64(i), 0),
			Instrument: "TIA/USDT:USDT",
			Imbalance:  v,
		}
	}
	return out
}

func TestCalibrateMeansPerSign(t *testing.T) {
	th, err := Calibrate(obs(30, 10, -20, 50, -40))
	require.NoError(t, err)
	assert.InDelta(t, 30.0, th.Buy, 1e-9)
	assert.InDelta(t, -30.0, th.Sell, 1e-9)
	assert.False(t, th.CalibratedAt.IsZero())
}

func TestCalibrateIgnoresZeroSamples(t *testing.T) {
	th, err := Calibrate(obs(0, 10, 0, -10, 0))
	require.NoError(t, err)
	assert.InDelta(t, 10.0, th.Buy, 1e-9)
	assert.InDelta(t, -10.0, th.Sell, 1e-9)
}

func TestCalibrateOnlyPositivesFails(t *testing.T) {
	_, err := Calibrate(obs(5, 12, 44))
	assert.ErrorIs(t, err, models.ErrInsufficientCalibrationData)
}

func TestCalibrateOnlyNegativesFails(t *testing.T) {
	_, err := Calibrate(obs(-5, -12, -44))
	assert.ErrorIs(t, err, models.ErrInsufficientCalibrationData)
}

func TestCalibrateEmptyHistoryFails(t *testing.T) {
	_, err := Calibrate(nil)
	assert.ErrorIs(t, err, models.ErrInsufficientCalibrationData)
}

func TestCalibrateOrderingInvariant(t *testing.T) {
	th, err := Calibrate(obs(1, 2, 3, -1, -2, -3))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, th.Buy, 0.0)
	assert.LessOrEqual(t, th.Sell, 0.0)
}
