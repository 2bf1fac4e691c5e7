package protect

import (
	"errors"

	"stop_guard/internal/models"

	"github.com/shopspring/decimal"
)

// Rejection reasons. Rejected decisions wrap one of these.
var (
	ErrMultipleStopOrders  = errors.New("found multiple stop-loss orders")
	ErrNotUntilCanceled    = errors.New("not valid-until-canceled")
	ErrNotionalUnsupported = errors.New("notional orders are currently unsupported")
	ErrLongOnly            = errors.New("only long positions are currently supported")
	ErrNonPositiveQuantity = errors.New("position quantity must be positive")
)

// DecisionKind enumerates the outcomes of evaluating one position.
type DecisionKind int

const (
	NoActionNeeded DecisionKind = iota
	AmendOrder
	SubmitNewOrder
	Rejected
)

func (k DecisionKind) String() string {
	switch k {
	case NoActionNeeded:
		return "no_action"
	case AmendOrder:
		return "amend"
	case SubmitNewOrder:
		return "submit"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// Decision is what should happen to the protection of one position.
//
// AmendOrder carries OrderID and the new Quantity/LimitPrice/StopPrice.
// SubmitNewOrder carries Symbol, Side (always Sell), Quantity and prices.
// Rejected carries Err. Note holds a human-readable explanation for
// NoActionNeeded decisions.
type Decision struct {
	Kind       DecisionKind
	Symbol     string
	OrderID    string
	Side       models.OrderSide
	Quantity   decimal.Decimal
	LimitPrice decimal.Decimal
	StopPrice  decimal.Decimal
	Note       string
	Err        error
}

// Actionable reports whether the decision maps onto a broker call.
func (d Decision) Actionable() bool {
	return d.Kind == AmendOrder || d.Kind == SubmitNewOrder
}

// Result pairs a position's symbol with its decision.
type Result struct {
	Symbol   string
	Decision Decision
}

func noAction(symbol, note string) Decision {
	return Decision{Kind: NoActionNeeded, Symbol: symbol, Note: note}
}

func reject(symbol string, err error) Decision {
	return Decision{Kind: Rejected, Symbol: symbol, Err: err}
}
