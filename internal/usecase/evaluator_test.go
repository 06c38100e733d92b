package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/OQueQuantFirm/Market-Analyzer/internal/domain/models"
	"github.com/OQueQuantFirm/Market-Analyzer/internal/services/calibration"
	"github.com/OQueQuantFirm/Market-Analyzer/internal/services/signal"
	applogger "github.com/OQueQuantFirm/Market-Analyzer/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return l
}

type fakeMarket struct {
	candles []models.Candle
	depth   *models.DepthSnapshot
	equity  float64

	candleErr error
	depthErr  error
}

func (m *fakeMarket) FetchCandles(context.Context, string, string, int) ([]models.Candle, error) {
	return m.candles, m.candleErr
}

func (m *fakeMarket) FetchDepth(context.Context, string, int) (*models.DepthSnapshot, error) {
	return m.depth, m.depthErr
}

func (m *fakeMarket) FetchBalance(context.Context) (models.Balance, error) {
	return models.Balance{Equity: m.equity}, nil
}

type fakeObsStore struct {
	appended []models.ImbalanceObservation
	history  []models.ImbalanceObservation
}

func (s *fakeObsStore) Append(_ context.Context, obs models.ImbalanceObservation) error {
	s.appended = append(s.appended, obs)
	return nil
}

func (s *fakeObsStore) History(context.Context, string, int) ([]models.ImbalanceObservation, error) {
	return s.history, nil
}

type fakeRecordStore struct {
	stored []models.CycleRecord
}

func (s *fakeRecordStore) Store(_ context.Context, rec models.CycleRecord) error {
	s.stored = append(s.stored, rec)
	return nil
}

func (s *fakeRecordStore) Query(context.Context, string, time.Time, time.Time, int) ([]models.CycleRecord, error) {
	return s.stored, nil
}

func (s *fakeRecordStore) Close() error { return nil }

type fakePublisher struct {
	published []models.CycleRecord
}

func (p *fakePublisher) Publish(_ context.Context, rec models.CycleRecord) error {
	p.published = append(p.published, rec)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeNotifier struct {
	messages []string
}

func (n *fakeNotifier) Notify(_ context.Context, msg string) error {
	n.messages = append(n.messages, msg)
	return nil
}

// flatCandles builds a series whose oscillator lands at 100 (monotonic
// rise) or uses mixed closes to hit mid-range values.
func risingCandles(n int) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		price := 10.0 + 0.1*float64(i)
		out[i] = models.Candle{
			Timestamp: int64(i) * 900_000,
			Open:      price,
			High:      price + 0.05,
			Low:       price - 0.05,
			Close:     price,
			Volume:    100,
		}
	}
	return out
}

// mixedCandles gives an oscillator strictly between 0 and 100, below
// 46 (more losses than gains late in the series).
func fallingCandles(n int) []models.Candle {
	out := make([]models.Candle, n)
	price := 100.0
	for i := range out {
		if i%5 == 0 {
			price += 0.2
		} else {
			price -= 0.3
		}
		out[i] = models.Candle{
			Timestamp: int64(i) * 900_000,
			Open:      price,
			High:      price + 0.1,
			Low:       price - 0.1,
			Close:     price,
			Volume:    100,
		}
	}
	return out
}

func depthWithImbalance(bid, ask float64) *models.DepthSnapshot {
	return &models.DepthSnapshot{
		Bids: []models.PriceLevel{{Price: 10, Size: bid}},
		Asks: []models.PriceLevel{{Price: 10.1, Size: ask}},
	}
}

type evalHarness struct {
	market    *fakeMarket
	obs       *fakeObsStore
	records   *fakeRecordStore
	publisher *fakePublisher
	notifier  *fakeNotifier
	gateway   *fakeGateway
	eval      *Evaluator
	recal     *calibration.Recalibrator
}

func newEvalHarness(t *testing.T, market *fakeMarket, history []models.ImbalanceObservation) *evalHarness {
	t.Helper()
	logger := testLogger(t)

	h := &evalHarness{
		market:    market,
		obs:       &fakeObsStore{history: history},
		records:   &fakeRecordStore{},
		publisher: &fakePublisher{},
		notifier:  &fakeNotifier{},
		gateway:   &fakeGateway{},
	}

	h.recal = calibration.NewRecalibrator(h.obs, nil, logger, "TIA/USDT:USDT", 1000, time.Hour)
	h.recal.Warm(context.Background())

	placer := NewOrderPlacer(h.gateway, market, nil, logger, testBracketConfig())
	h.eval = NewEvaluator(
		market, h.obs, h.records, h.publisher, h.notifier,
		h.recal, placer, nil, logger,
		EvaluatorConfig{
			Instrument:       "TIA/USDT:USDT",
			Timeframe:        "15m",
			CandleLimit:      100,
			DepthLimit:       100,
			OscillatorPeriod: 14,
			Bounds:           signal.Bounds{BuyCeiling: 46, SellFloor: 46},
			CycleDelay:       time.Millisecond,
		},
	)
	return h
}

func obsHistory(values ...float64) []models.ImbalanceObservation {
	out := make([]models.ImbalanceObservation, len(values))
	for i, v := range values {
		out[i] = models.ImbalanceObservation{
			Timestamp:  time.Now(),
			Instrument: "TIA/USDT:USDT",
			Imbalance:  v,
		}
	}
	return out
}

func TestRunCycleBuySignalPlacesBracket(t *testing.T) {
	// history calibrates to buy=30, sell=-20
	market := &fakeMarket{
		candles: fallingCandles(100),
		depth:   depthWithImbalance(135, 65), // +35%
		equity:  1000,
	}
	h := newEvalHarness(t, market, obsHistory(40, 20, -10, -30))

	rec := h.eval.RunCycle(context.Background())

	assert.Equal(t, models.SignalBuy, rec.Signal)
	assert.Empty(t, rec.Error)
	require.Len(t, h.records.stored, 1)
	assert.Equal(t, models.SignalBuy, h.records.stored[0].Signal)

	// fired signal fans out and submits three legs
	require.Len(t, h.publisher.published, 1)
	require.NotEmpty(t, h.notifier.messages)
	assert.Len(t, h.gateway.submitted, 3)

	// the imbalance sample was appended for future calibration
	require.Len(t, h.obs.appended, 1)
	assert.InDelta(t, 35.0, h.obs.appended[0].Imbalance, 1e-9)
}

func TestRunCycleWeakImbalanceNoSignal(t *testing.T) {
	market := &fakeMarket{
		candles: fallingCandles(100),
		depth:   depthWithImbalance(110, 90), // +10%, below buy threshold 30
		equity:  1000,
	}
	h := newEvalHarness(t, market, obsHistory(40, 20, -10, -30))

	rec := h.eval.RunCycle(context.Background())

	assert.Equal(t, models.SignalNone, rec.Signal)
	assert.Empty(t, h.gateway.submitted)
	assert.Empty(t, h.publisher.published)
	require.Len(t, h.records.stored, 1)
}

func TestRunCycleOverheatedOscillatorBlocksBuy(t *testing.T) {
	// monotonic rise drives the oscillator to 100, above the buy ceiling
	market := &fakeMarket{
		candles: risingCandles(100),
		depth:   depthWithImbalance(135, 65),
		equity:  1000,
	}
	h := newEvalHarness(t, market, obsHistory(40, 20, -10, -30))

	rec := h.eval.RunCycle(context.Background())

	// imbalance qualifies for buy but oscillator is at 100; the sell
	// branch needs imbalance <= -20, so no signal fires
	assert.Equal(t, models.SignalNone, rec.Signal)
	assert.Empty(t, h.gateway.submitted)
}

func TestRunCycleMarketDataFailureRecordsError(t *testing.T) {
	market := &fakeMarket{
		candleErr: models.ErrDataUnavailable,
	}
	h := newEvalHarness(t, market, nil)

	rec := h.eval.RunCycle(context.Background())

	assert.Equal(t, models.SignalNone, rec.Signal)
	assert.NotEmpty(t, rec.Error)
	require.Len(t, h.records.stored, 1)
	assert.NotEmpty(t, h.records.stored[0].Error)
	assert.Empty(t, h.gateway.submitted)
}

func TestRunCycleNoThresholdsSuppressesSignal(t *testing.T) {
	// empty history: calibration fails, Current() stays nil
	market := &fakeMarket{
		candles: fallingCandles(100),
		depth:   depthWithImbalance(190, 10), // +90%, would fire with thresholds
		equity:  1000,
	}
	h := newEvalHarness(t, market, nil)
	require.Nil(t, h.recal.Current())

	rec := h.eval.RunCycle(context.Background())

	assert.Equal(t, models.SignalNone, rec.Signal)
	assert.Empty(t, h.gateway.submitted)
}

func TestRunCycleGuardBlockedKeepsRecord(t *testing.T) {
	market := &fakeMarket{
		candles: fallingCandles(100),
		depth:   depthWithImbalance(135, 65),
		equity:  1000,
	}
	h := newEvalHarness(t, market, obsHistory(40, 20, -10, -30))
	h.gateway.openOrders = []models.OrderRef{{ID: "existing", Status: models.OrderStatusActive}}

	rec := h.eval.RunCycle(context.Background())

	// the signal still fires and is recorded; only placement is skipped
	assert.Equal(t, models.SignalBuy, rec.Signal)
	assert.Empty(t, h.gateway.submitted)
	require.Len(t, h.records.stored, 1)
}

func TestRunCyclePartialBracketNotifies(t *testing.T) {
	market := &fakeMarket{
		candles: fallingCandles(100),
		depth:   depthWithImbalance(135, 65),
		equity:  1000,
	}
	h := newEvalHarness(t, market, obsHistory(40, 20, -10, -30))

	// fail the take-profit leg only
	entry := market.candles[len(market.candles)-1].Close
	tp, _, err := BracketLevels(entry, models.SideBuy, testBracketConfig())
	require.NoError(t, err)
	h.gateway.failPrices = map[float64]error{
		tp: &models.ExchangeError{Code: "300000", Message: "balance insufficient"},
	}

	h.eval.RunCycle(context.Background())

	// all three legs attempted, operator alerted about the partial fill
	assert.Len(t, h.gateway.submitted, 3)
	require.GreaterOrEqual(t, len(h.notifier.messages), 2)
	assert.Contains(t, h.notifier.messages[len(h.notifier.messages)-1], "incomplete")
}
