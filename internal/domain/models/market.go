package models

import "time"

// Candle is one OHLCV bar. Series are ordered oldest-first.
type Candle struct {
	Timestamp int64   `json:"t"` // epoch millis
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
}

// Time returns the candle open time.
func (c Candle) Time() time.Time {
	return time.UnixMilli(c.Timestamp)
}

// PriceLevel is one side entry of the order book.
type PriceLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// DepthSnapshot is a two-sided order book snapshot taken once per
// evaluation cycle. It is never persisted.
type DepthSnapshot struct {
	Bids []PriceLevel `json:"bids"`
	Asks []PriceLevel `json:"asks"`
}

// Trend classifies the latest close against the short and long EMA.
type Trend string

const (
	TrendStrongBullish Trend = "strong_bullish"
	TrendBullish       Trend = "bullish"
	TrendStrongBearish Trend = "strong_bearish"
	TrendBearish       Trend = "bearish"
	TrendNeutral       Trend = "neutral"
)

// Reversal labels the short-vs-long EMA relation.
type Reversal string

const (
	ReversalBullish Reversal = "bullish"
	ReversalBearish Reversal = "bearish"
)

// TrendBands holds the EMA trend classification for a candle window.
type TrendBands struct {
	ShortEMA     float64  `json:"short_ema"`
	LongEMA      float64  `json:"long_ema"`
	CurrentClose float64  `json:"close"`
	Trend        Trend    `json:"trend"`
	Reversal     Reversal `json:"reversal"`
}

// EmaLevels are the EMA-derived support and resistance prices.
type EmaLevels struct {
	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`
}

// Balance is the account equity snapshot.
type Balance struct {
	Equity float64 `json:"equity"`
}

// Tick is one live last-trade update from the public ticker stream.
type Tick struct {
	Instrument string  `json:"instrument"`
	Price      float64 `json:"price"`
	Size       float64 `json:"size"`
	Timestamp  int64   `json:"ts"` // epoch millis
}
