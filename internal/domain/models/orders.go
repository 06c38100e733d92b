package models

// Side is the order direction.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Opposite returns the exit side for a position entered on s.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderType is the exchange order type. The strategy only places limit orders.
type OrderType string

const OrderTypeLimit OrderType = "limit"

// TimeInForce values supported by the gateway.
type TimeInForce string

const TimeInForceGTC TimeInForce = "GTC"

// OrderStatus values used when querying open orders.
type OrderStatus string

const (
	OrderStatusOpen   OrderStatus = "open"
	OrderStatusActive OrderStatus = "active"
)

// Order is a single limit order request submitted to the exchange.
type Order struct {
	Instrument  string      `json:"instrument"`
	Side        Side        `json:"side"`
	Type        OrderType   `json:"type"`
	Price       float64     `json:"price"`
	Size        float64     `json:"size"`
	TimeInForce TimeInForce `json:"time_in_force"`
	Leverage    int         `json:"leverage"`
	ReduceOnly  bool        `json:"reduce_only"`
}

// OrderRef identifies an order accepted by the exchange.
type OrderRef struct {
	ID         string      `json:"id"`
	Instrument string      `json:"instrument"`
	Side       Side        `json:"side"`
	Status     OrderStatus `json:"status"`
}

// BracketLeg names the three linked orders of a bracket.
type BracketLeg string

const (
	LegTakeProfit BracketLeg = "take_profit"
	LegStopLoss   BracketLeg = "stop_loss"
	LegEntry      BracketLeg = "entry"
)

// LegResult is the per-leg outcome of a bracket submission. Exactly one
// of Ref and Err is set.
type LegResult struct {
	Leg BracketLeg `json:"leg"`
	Ref *OrderRef  `json:"ref,omitempty"`
	Err error      `json:"-"`
}

// BracketReport aggregates the three leg outcomes of one placeBracket
// call. Legs are always reported in submission order (TP, SL, entry)
// regardless of individual failures.
type BracketReport struct {
	Instrument string      `json:"instrument"`
	Side       Side        `json:"side"`
	EntryPrice float64     `json:"entry_price"`
	TakeProfit float64     `json:"take_profit"`
	StopLoss   float64     `json:"stop_loss"`
	Size       float64     `json:"size"`
	Legs       []LegResult `json:"legs"`
}

// Failed returns the legs that did not reach the exchange.
func (r *BracketReport) Failed() []LegResult {
	var out []LegResult
	for _, l := range r.Legs {
		if l.Err != nil {
			out = append(out, l)
		}
	}
	return out
}

// Complete reports whether all three legs were accepted.
func (r *BracketReport) Complete() bool {
	return len(r.Legs) == 3 && len(r.Failed()) == 0
}
