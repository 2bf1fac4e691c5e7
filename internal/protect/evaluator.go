package protect

import (
	"fmt"

	"stop_guard/internal/models"

	"github.com/shopspring/decimal"
)

const (
	// DefaultLimitMarkupBps is the minimum markup of the limit price over
	// the entry price, in basis points (100th of a percent).
	DefaultLimitMarkupBps = 10
	// DefaultStopMarkupBps is the minimum markup of the stop price over
	// the entry price, in basis points.
	DefaultStopMarkupBps = 100
	// DefaultMinGainPercent is the total gain a position needs before a
	// new stop-loss order gets created for it.
	DefaultMinGainPercent = 5
)

// Params configures the evaluation.
type Params struct {
	LimitMarkupBps int
	StopMarkupBps  int
	MinGainPercent int
	// MinValue, if set, is the market value a position must reach before
	// a new stop-loss order is created for it.
	MinValue *decimal.Decimal
}

func DefaultParams() Params {
	return Params{
		LimitMarkupBps: DefaultLimitMarkupBps,
		StopMarkupBps:  DefaultStopMarkupBps,
		MinGainPercent: DefaultMinGainPercent,
	}
}

// Validate checks the parameters for values that cannot produce a
// meaningful stop-loss order.
func (p Params) Validate() error {
	if p.LimitMarkupBps < 0 {
		return fmt.Errorf("limit markup must not be negative: %d bps", p.LimitMarkupBps)
	}
	if p.StopMarkupBps < 0 {
		return fmt.Errorf("stop markup must not be negative: %d bps", p.StopMarkupBps)
	}
	if p.MinValue != nil && p.MinValue.IsNegative() {
		return fmt.Errorf("minimum value must not be negative: %s", p.MinValue)
	}
	return nil
}

// DesiredPrices returns the limit and stop prices a stop-loss order for a
// position entered at entry should have. Both are rounded exactly once.
func (p Params) DesiredPrices(entry decimal.Decimal) (limit, stop decimal.Decimal) {
	return MarkupPrice(entry, p.LimitMarkupBps), MarkupPrice(entry, p.StopMarkupBps)
}

// Evaluate decides for every position (restricted to symbols, if any are
// given) whether its stop-loss order has to be created or amended.
// Rejections are reported per position and never stop the evaluation of
// the remaining ones.
func Evaluate(positions []models.Position, orders []models.Order, params Params, symbols ...string) []Result {
	var filter map[string]bool
	if len(symbols) > 0 {
		filter = make(map[string]bool, len(symbols))
		for _, s := range symbols {
			filter[s] = true
		}
	}

	results := make([]Result, 0, len(positions))
	for _, pos := range positions {
		if filter != nil && !filter[pos.Symbol] {
			continue
		}
		results = append(results, Result{
			Symbol:   pos.Symbol,
			Decision: EvaluatePosition(params, pos, orders),
		})
	}
	return results
}

// EvaluatePosition evaluates a single position against the open orders.
func EvaluatePosition(params Params, position models.Position, orders []models.Order) Decision {
	sym := position.Symbol
	if !position.Quantity.IsPositive() {
		return reject(sym, ErrNonPositiveQuantity)
	}

	desiredLimit, desiredStop := params.DesiredPrices(position.AverageEntryPrice)

	match := FindProtective(position, orders)
	switch match.Kind {
	case MatchMany:
		return reject(sym, ErrMultipleStopOrders)
	case MatchOne:
		return evaluateExisting(position, match.Order(), desiredLimit, desiredStop)
	}

	totalGain := PercentOf(position.UnrealizedGainTotalPercent)
	minGain := decimal.NewFromInt(int64(params.MinGainPercent))
	if totalGain.LessThan(minGain) {
		return noAction(sym, fmt.Sprintf("total gain (%s%%) is below %d%%", totalGain.StringFixed(2), params.MinGainPercent))
	}

	if params.MinValue != nil {
		totalValue := position.Quantity.Mul(valueOrZero(position.CurrentPrice))
		if totalValue.LessThan(*params.MinValue) {
			return noAction(sym, fmt.Sprintf("total value (%s) is still less than %s", totalValue.StringFixed(2), params.MinValue.StringFixed(2)))
		}
	}

	if position.Side != models.Long {
		return reject(sym, ErrLongOnly)
	}

	return Decision{
		Kind:       SubmitNewOrder,
		Symbol:     sym,
		Side:       models.Sell,
		Quantity:   position.Quantity,
		LimitPrice: desiredLimit,
		StopPrice:  desiredStop,
	}
}

func evaluateExisting(position models.Position, order models.Order, desiredLimit, desiredStop decimal.Decimal) Decision {
	sym := position.Symbol
	if order.TimeInForce != models.UntilCanceled {
		return reject(sym, fmt.Errorf("opposing order %s is %w", order.ID, ErrNotUntilCanceled))
	}
	if order.Amount.IsNotional() {
		return reject(sym, ErrNotionalUnsupported)
	}

	quantity := order.Amount.Value
	limit := valueOrZero(order.LimitPrice)
	stop := valueOrZero(order.StopPrice)

	if quantity.Equal(position.Quantity) && !limit.LessThan(desiredLimit) && !stop.LessThan(desiredStop) {
		return noAction(sym, fmt.Sprintf("order %s is satisfying stop-loss order", order.ID))
	}

	if order.Side != models.Sell {
		return reject(sym, ErrLongOnly)
	}

	return Decision{
		Kind:       AmendOrder,
		Symbol:     sym,
		OrderID:    order.ID,
		Side:       order.Side,
		Quantity:   position.Quantity,
		LimitPrice: desiredLimit,
		StopPrice:  desiredStop,
	}
}
