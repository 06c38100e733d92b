// Package indicator computes the momentum oscillator and EMA bands the
// signal pipeline consumes. Everything here is pure: indicators are
// recomputed from the candle window on every cycle and keep no state.
package indicator

import (
	"github.com/OQueQuantFirm/Market-Analyzer/internal/domain/models"
)

// Oscillator computes a Wilder-smoothed RSI over the close series.
// Gains and losses are smoothed with an EMA of alpha = 1/period (not a
// span EMA). The result is always within [0, 100]; a window with zero
// average loss saturates at 100.
func Oscillator(candles []models.Candle, period int) (float64, error) {
	if period <= 0 || len(candles) < period {
		return 0, models.ErrInsufficientData
	}

	alpha := 1.0 / float64(period)
	var avgGain, avgLoss float64
	for i := 1; i < len(candles); i++ {
		delta := candles[i].Close - candles[i-1].Close
		var gain, loss float64
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		if i == 1 {
			avgGain, avgLoss = gain, loss
			continue
		}
		avgGain += alpha * (gain - avgGain)
		avgLoss += alpha * (loss - avgLoss)
	}

	if avgLoss == 0 {
		return 100, nil
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), nil
}

// ema is a span EMA (multiplier 2/(period+1)) seeded with the first value.
func ema(values []float64, period int) float64 {
	k := 2.0 / float64(period+1)
	out := values[0]
	for _, v := range values[1:] {
		out = v*k + out*(1-k)
	}
	return out
}

func closes(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Levels derives EMA support and resistance: the close EMA shifted down
// and up by the latest candle's high-low range.
func Levels(candles []models.Candle, period int) (models.EmaLevels, error) {
	if len(candles) == 0 {
		return models.EmaLevels{}, models.ErrInsufficientData
	}
	e := ema(closes(candles), period)
	last := candles[len(candles)-1]
	band := last.High - last.Low
	return models.EmaLevels{
		Support:    e - band,
		Resistance: e + band,
	}, nil
}

// TrendBands classifies the latest close against a short and a long EMA.
// The reversal label is bullish exactly when the short EMA sits above
// the long one; it is computed and reported but deliberately not an
// input to signal generation.
func TrendBands(candles []models.Candle, shortPeriod, longPeriod int) (models.TrendBands, error) {
	if len(candles) == 0 {
		return models.TrendBands{}, models.ErrInsufficientData
	}

	cs := closes(candles)
	shortEMA := ema(cs, shortPeriod)
	longEMA := ema(cs, longPeriod)
	lastClose := cs[len(cs)-1]

	var trend models.Trend
	switch {
	case lastClose > shortEMA && shortEMA > longEMA:
		trend = models.TrendStrongBullish
	case lastClose > shortEMA && lastClose > longEMA:
		trend = models.TrendBullish
	case lastClose < shortEMA && shortEMA < longEMA:
		trend = models.TrendStrongBearish
	case lastClose < shortEMA && lastClose < longEMA:
		trend = models.TrendBearish
	default:
		trend = models.TrendNeutral
	}

	reversal := models.ReversalBearish
	if shortEMA > longEMA {
		reversal = models.ReversalBullish
	}

	return models.TrendBands{
		ShortEMA:     shortEMA,
		LongEMA:      longEMA,
		CurrentClose: lastClose,
		Trend:        trend,
		Reversal:     reversal,
	}, nil
}
