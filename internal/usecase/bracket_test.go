package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/OQueQuantFirm/Market-Analyzer/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	openOrders []models.OrderRef
	openErr    error
	failPrices map[float64]error
	submitted  []models.Order
}

func (g *fakeGateway) OpenOrders(_ context.Context, _ string, _ []models.OrderStatus) ([]models.OrderRef, error) {
	return g.openOrders, g.openErr
}

func (g *fakeGateway) SubmitOrder(_ context.Context, order models.Order) (*models.OrderRef, error) {
	g.submitted = append(g.submitted, order)
	if err, ok := g.failPrices[order.Price]; ok {
		return nil, err
	}
	return &models.OrderRef{
		ID:         "ord-" + string(order.Side),
		Instrument: order.Instrument,
		Side:       order.Side,
		Status:     models.OrderStatusOpen,
	}, nil
}

type fakeBalanceSource struct {
	equity float64
	err    error
}

func (f *fakeBalanceSource) FetchCandles(context.Context, string, string, int) ([]models.Candle, error) {
	return nil, models.ErrDataUnavailable
}

func (f *fakeBalanceSource) FetchDepth(context.Context, string, int) (*models.DepthSnapshot, error) {
	return nil, models.ErrDataUnavailable
}

func (f *fakeBalanceSource) FetchBalance(context.Context) (models.Balance, error) {
	return models.Balance{Equity: f.equity}, f.err
}

func testBracketConfig() BracketConfig {
	return BracketConfig{
		Leverage:       5,
		EquityFraction: 0.01,
		TakeProfitMult: 1.25,
		StopLossMult:   0.85,
		PricePrecision: 2,
	}
}

func TestBracketLevelsBuy(t *testing.T) {
	tp, sl, err := BracketLevels(100, models.SideBuy, testBracketConfig())
	require.NoError(t, err)
	assert.Equal(t, 125.0, tp)
	assert.Equal(t, 85.0, sl)
}

func TestBracketLevelsSellSwapsMultipliers(t *testing.T) {
	tp, sl, err := BracketLevels(100, models.SideSell, testBracketConfig())
	require.NoError(t, err)
	assert.Equal(t, 85.0, tp)
	assert.Equal(t, 125.0, sl)
}

func TestBracketLevelsRoundsHalfUp(t *testing.T) {
	cfg := testBracketConfig()
	// 10.002 * 1.25 = 12.5025 -> 12.50, 10.002 * 0.85 = 8.5017 -> 8.50
	tp, sl, err := BracketLevels(10.002, models.SideBuy, cfg)
	require.NoError(t, err)
	assert.Equal(t, 12.5, tp)
	assert.Equal(t, 8.5, sl)
}

func TestBracketLevelsDefaultPrecision(t *testing.T) {
	cfg := testBracketConfig()
	cfg.PricePrecision = 0
	tp, _, err := BracketLevels(0.000000015, models.SideBuy, cfg)
	require.NoError(t, err)
	// rounded at 8 decimal places
	assert.InDelta(t, 0.00000002, tp, 1e-12)
}

func TestBracketLevelsInvalidPrecision(t *testing.T) {
	cfg := testBracketConfig()
	cfg.PricePrecision = 40
	_, _, err := BracketLevels(100, models.SideBuy, cfg)
	assert.ErrorIs(t, err, models.ErrInvalidPrecision)
}

func TestPlaceBracketSubmitsThreeLegsInOrder(t *testing.T) {
	gw := &fakeGateway{}
	placer := NewOrderPlacer(gw, &fakeBalanceSource{equity: 1000}, nil, testLogger(t), testBracketConfig())

	report, err := placer.PlaceBracket(context.Background(), "TIA/USDT:USDT", models.SideBuy, 100)
	require.NoError(t, err)
	require.Len(t, gw.submitted, 3)

	// take-profit first, then stop-loss, then entry
	assert.Equal(t, 125.0, gw.submitted[0].Price)
	assert.Equal(t, models.SideSell, gw.submitted[0].Side)
	assert.Equal(t, 85.0, gw.submitted[1].Price)
	assert.Equal(t, models.SideSell, gw.submitted[1].Side)
	assert.Equal(t, 100.0, gw.submitted[2].Price)
	assert.Equal(t, models.SideBuy, gw.submitted[2].Side)

	// sized at 1% of equity, leverage carried on every leg
	for _, o := range gw.submitted {
		assert.Equal(t, 10.0, o.Size)
		assert.Equal(t, 5, o.Leverage)
		assert.Equal(t, models.TimeInForceGTC, o.TimeInForce)
	}

	assert.True(t, report.Complete())
	assert.Empty(t, report.Failed())
}

func TestPlaceBracketGuardBlocksOnOpenOrders(t *testing.T) {
	gw := &fakeGateway{openOrders: []models.OrderRef{{ID: "existing", Status: models.OrderStatusActive}}}
	placer := NewOrderPlacer(gw, &fakeBalanceSource{equity: 1000}, nil, testLogger(t), testBracketConfig())

	_, err := placer.PlaceBracket(context.Background(), "TIA/USDT:USDT", models.SideBuy, 100)
	assert.ErrorIs(t, err, models.ErrDuplicatePositionBlocked)
	assert.Empty(t, gw.submitted)
}

func TestPlaceBracketGuardFailsClosed(t *testing.T) {
	gw := &fakeGateway{openErr: &models.NetworkError{Op: "orders", Err: errors.New("timeout")}}
	placer := NewOrderPlacer(gw, &fakeBalanceSource{equity: 1000}, nil, testLogger(t), testBracketConfig())

	_, err := placer.PlaceBracket(context.Background(), "TIA/USDT:USDT", models.SideBuy, 100)
	require.Error(t, err)
	assert.Empty(t, gw.submitted)
}

func TestPlaceBracketPartialFailure(t *testing.T) {
	gw := &fakeGateway{failPrices: map[float64]error{
		125.0: &models.ExchangeError{Code: "300000", Message: "balance insufficient"},
	}}
	placer := NewOrderPlacer(gw, &fakeBalanceSource{equity: 1000}, nil, testLogger(t), testBracketConfig())

	report, err := placer.PlaceBracket(context.Background(), "TIA/USDT:USDT", models.SideBuy, 100)
	require.Error(t, err)

	var partial *models.PartialBracketFailure
	require.True(t, errors.As(err, &partial))

	// remaining legs were still submitted
	require.Len(t, gw.submitted, 3)
	require.Len(t, report.Legs, 3)
	assert.Error(t, report.Legs[0].Err)
	assert.NoError(t, report.Legs[1].Err)
	assert.NoError(t, report.Legs[2].Err)
	assert.Equal(t, models.LegTakeProfit, report.Legs[0].Leg)
	require.Len(t, report.Failed(), 1)
	assert.Equal(t, models.LegTakeProfit, report.Failed()[0].Leg)
	assert.False(t, report.Complete())
}
