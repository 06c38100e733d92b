package usecase

import (
	"context"
	"fmt"

	"github.com/OQueQuantFirm/Market-Analyzer/internal/domain/models"
	domrepo "github.com/OQueQuantFirm/Market-Analyzer/internal/domain/repository"
	applogger "github.com/OQueQuantFirm/Market-Analyzer/pkg/logger"

	"github.com/shopspring/decimal"
)

const defaultPricePrecision = 8

// maxPricePrecision guards the decimal exponent; anything beyond this
// is a config bug, not a real contract tick size.
const maxPricePrecision = 18

// BracketConfig holds the sizing and level constants for bracket
// placement.
type BracketConfig struct {
	Leverage       int
	EquityFraction float64
	TakeProfitMult float64
	StopLossMult   float64
	PricePrecision int
}

// OrderPlacer submits three-leg bracket orders behind the duplicate
// position guard.
type OrderPlacer struct {
	gateway domrepo.OrderGateway
	market  domrepo.MarketData
	metrics domrepo.Metrics
	logger  *applogger.Logger
	cfg     BracketConfig
}

// NewOrderPlacer creates an OrderPlacer.
func NewOrderPlacer(gateway domrepo.OrderGateway, market domrepo.MarketData, metrics domrepo.Metrics, logger *applogger.Logger, cfg BracketConfig) *OrderPlacer {
	return &OrderPlacer{
		gateway: gateway,
		market:  market,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// BracketLevels computes the rounded take-profit and stop-loss prices
// for an entry. The multipliers swap for sells so the take-profit sits
// below the entry and the stop above it.
func BracketLevels(entryPrice float64, side models.Side, cfg BracketConfig) (tp, sl float64, err error) {
	precision := cfg.PricePrecision
	if precision <= 0 {
		precision = defaultPricePrecision
	}
	if precision > maxPricePrecision {
		return 0, 0, models.ErrInvalidPrecision
	}

	tpMult, slMult := cfg.TakeProfitMult, cfg.StopLossMult
	if side == models.SideSell {
		tpMult, slMult = slMult, tpMult
	}

	tp = roundPrice(entryPrice*tpMult, precision)
	sl = roundPrice(entryPrice*slMult, precision)
	return tp, sl, nil
}

// roundPrice rounds half away from zero to the given decimal places.
func roundPrice(v float64, precision int) float64 {
	f, _ := decimal.NewFromFloat(v).Round(int32(precision)).Float64()
	return f
}

// PlaceBracket checks the position guard, sizes the order from account
// equity, and submits the three legs in take-profit, stop-loss, entry
// order. Leg failures do not stop the remaining legs; a report with at
// least one failed leg comes back wrapped in PartialBracketFailure.
func (p *OrderPlacer) PlaceBracket(ctx context.Context, instrument string, side models.Side, entryPrice float64) (*models.BracketReport, error) {
	open, err := p.gateway.OpenOrders(ctx, instrument, []models.OrderStatus{
		models.OrderStatusOpen, models.OrderStatusActive,
	})
	if err != nil {
		// guard fails closed: no orders while the exchange state is unknown
		return nil, fmt.Errorf("position guard: %w", err)
	}
	if len(open) > 0 {
		if p.logger != nil {
			p.logger.Info("bracket blocked by open orders",
				applogger.String("instrument", instrument),
				applogger.Int("open_orders", len(open)),
			)
		}
		return nil, models.ErrDuplicatePositionBlocked
	}

	balance, err := p.market.FetchBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch balance: %w", err)
	}
	size := balance.Equity * p.cfg.EquityFraction

	tp, sl, err := BracketLevels(entryPrice, side, p.cfg)
	if err != nil {
		return nil, err
	}

	report := &models.BracketReport{
		Instrument: instrument,
		Side:       side,
		EntryPrice: entryPrice,
		TakeProfit: tp,
		StopLoss:   sl,
		Size:       size,
	}

	exitSide := side.Opposite()
	legs := []struct {
		leg   models.BracketLeg
		side  models.Side
		price float64
	}{
		{models.LegTakeProfit, exitSide, tp},
		{models.LegStopLoss, exitSide, sl},
		{models.LegEntry, side, entryPrice},
	}

	for _, l := range legs {
		ref, err := p.gateway.SubmitOrder(ctx, models.Order{
			Instrument:  instrument,
			Side:        l.side,
			Type:        models.OrderTypeLimit,
			Price:       l.price,
			Size:        size,
			TimeInForce: models.TimeInForceGTC,
			Leverage:    p.cfg.Leverage,
		})
		result := models.LegResult{Leg: l.leg, Ref: ref, Err: err}
		report.Legs = append(report.Legs, result)

		if p.metrics != nil {
			p.metrics.RecordOrderSubmitted(instrument, string(l.leg), err == nil)
		}
		if err != nil && p.logger != nil {
			p.logger.Error("bracket leg failed",
				applogger.String("instrument", instrument),
				applogger.String("leg", string(l.leg)),
				applogger.Float64("price", l.price),
				applogger.Error(err),
			)
		}
	}

	if len(report.Failed()) > 0 {
		return report, &models.PartialBracketFailure{Report: report}
	}

	if p.logger != nil {
		p.logger.Info("bracket placed",
			applogger.String("instrument", instrument),
			applogger.String("side", string(side)),
			applogger.Float64("entry", entryPrice),
			applogger.Float64("take_profit", tp),
			applogger.Float64("stop_loss", sl),
			applogger.Float64("size", size),
		)
	}
	return report, nil
}
