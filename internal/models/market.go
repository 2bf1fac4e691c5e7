package models

import (
	"github.com/shopspring/decimal"
)

// Position is a point-in-time view of a position held at the broker.
// Optional values are nil when the broker did not report them (e.g. stale
// market data).
type Position struct {
	Symbol                     string           `json:"symbol"`
	Side                       PositionSide     `json:"side"`
	Quantity                   decimal.Decimal  `json:"qty"` // always positive, see Side
	AverageEntryPrice          decimal.Decimal  `json:"avg_entry_price"`
	CurrentPrice               *decimal.Decimal `json:"current_price,omitempty"`
	UnrealizedGainTotalPercent *decimal.Decimal `json:"unrealized_plpc,omitempty"` // fraction, 0.05 = 5%
}

// AmountKind distinguishes quantity sized orders from notional ones.
type AmountKind int

const (
	AmountQuantity AmountKind = iota
	AmountNotional
)

// Amount is either a unit quantity or a monetary (notional) value.
type Amount struct {
	Kind  AmountKind
	Value decimal.Decimal
}

func Quantity(q decimal.Decimal) Amount { return Amount{Kind: AmountQuantity, Value: q} }
func Notional(v decimal.Decimal) Amount { return Amount{Kind: AmountNotional, Value: v} }

func (a Amount) IsNotional() bool { return a.Kind == AmountNotional }

// Order represents an order found at the broker.
type Order struct {
	ID            string           `json:"id"`
	ClientOrderID string           `json:"client_order_id"`
	Symbol        string           `json:"symbol"`
	Side          OrderSide        `json:"side"`
	Amount        Amount           `json:"-"`
	LimitPrice    *decimal.Decimal `json:"limit_price,omitempty"`
	StopPrice     *decimal.Decimal `json:"stop_price,omitempty"`
	TimeInForce   TimeInForce      `json:"time_in_force"`
	Status        string           `json:"status"`
}

// Type derives the order type from the prices present.
func (o Order) Type() OrderType {
	switch {
	case o.LimitPrice != nil && o.StopPrice != nil:
		return StopLimit
	case o.StopPrice != nil:
		return Stop
	case o.LimitPrice != nil:
		return Limit
	default:
		return Market
	}
}

// OrderRequest describes a new order to submit.
type OrderRequest struct {
	Symbol        string
	Side          OrderSide
	Quantity      decimal.Decimal
	LimitPrice    decimal.Decimal
	StopPrice     decimal.Decimal
	TimeInForce   TimeInForce
	ClientOrderID string
}

// ReplaceRequest describes the changes to apply to an existing order.
type ReplaceRequest struct {
	Quantity   decimal.Decimal
	LimitPrice decimal.Decimal
	StopPrice  decimal.Decimal
}
