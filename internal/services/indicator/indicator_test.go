package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OQueQuantFirm/Market-Analyzer/internal/domain/models"
)

func candlesFromCloses(closes ...float64) []models.Candle {
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{
			Timestamp: int64(i) * 60_000,
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    10,
		}
	}
	return out
}

func TestOscillatorInsufficientData(t *testing.T) {
	_, err := Oscillator(candlesFromCloses(1, 2, 3), 14)
	assert.ErrorIs(t, err, models.ErrInsufficientData)

	_, err = Oscillator(nil, 14)
	assert.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestOscillatorSaturatesOnMonotonicRise(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)*2.5
	}
	v, err := Oscillator(candlesFromCloses(closes...), 14)
	require.NoError(t, err)
	assert.Equal(t, 100.0, v)
}

func TestOscillatorNearZeroOnMonotonicFall(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 500 - float64(i)*3
	}
	v, err := Oscillator(candlesFromCloses(closes...), 14)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

func TestOscillatorStaysBounded(t *testing.T) {
	// Pseudo-random walk, deterministic seedless LCG.
	closes := make([]float64, 200)
	x := uint64(42)
	price := 1000.0
	for i := range closes {
		x = x*6364136223846793005 + 1442695040888963407
		step := float64(int64(x%2001)-1000) / 100
		price += step
		closes[i] = price
	}
	v, err := Oscillator(candlesFromCloses(closes...), 14)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v, 0.0)
	assert.LessOrEqual(t, v, 100.0)
}

func TestOscillatorFlatSeries(t *testing.T) {
	// No gains and no losses: avgLoss == 0, saturates at 100.
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 250
	}
	v, err := Oscillator(candlesFromCloses(closes...), 14)
	require.NoError(t, err)
	assert.Equal(t, 100.0, v)
}

func TestLevelsBandAroundEMA(t *testing.T) {
	candles := candlesFromCloses(10, 11, 12, 13, 14)
	// Latest candle spans [13, 15], so the band is 2 on each side.
	lv, err := Levels(candles, 3)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, lv.Resistance-lv.Support, 1e-9)
	assert.Less(t, lv.Support, lv.Resistance)

	_, err = Levels(nil, 3)
	assert.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestTrendBandsStrongBullish(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	tb, err := TrendBands(candlesFromCloses(closes...), 10, 50)
	require.NoError(t, err)

	// Rising series: close above the short EMA, which lags less than
	// the long one.
	assert.Equal(t, models.TrendStrongBullish, tb.Trend)
	assert.Equal(t, models.ReversalBullish, tb.Reversal)
	assert.Greater(t, tb.CurrentClose, tb.ShortEMA)
	assert.Greater(t, tb.ShortEMA, tb.LongEMA)
}

func TestTrendBandsStrongBearish(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 500 - float64(i)*2
	}
	tb, err := TrendBands(candlesFromCloses(closes...), 10, 50)
	require.NoError(t, err)
	assert.Equal(t, models.TrendStrongBearish, tb.Trend)
	assert.Equal(t, models.ReversalBearish, tb.Reversal)
}

func TestTrendBandsNeutralOnFlat(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	tb, err := TrendBands(candlesFromCloses(closes...), 10, 50)
	require.NoError(t, err)
	assert.Equal(t, models.TrendNeutral, tb.Trend)
	assert.False(t, math.IsNaN(tb.ShortEMA))
}
