package protect

import "stop_guard/internal/models"

// MatchKind tells how many protective orders were found for a position.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchOne
	MatchMany
)

// Match is the result of looking up the protective orders of a position.
type Match struct {
	Kind   MatchKind
	Orders []models.Order
}

// Order returns the single matched order. Only valid for MatchOne.
func (m Match) Order() models.Order {
	return m.Orders[0]
}

// Opposing reports whether an order on orderSide closes a position held on
// positionSide.
func Opposing(positionSide models.PositionSide, orderSide models.OrderSide) bool {
	return (positionSide == models.Long && orderSide == models.Sell) ||
		(positionSide == models.Short && orderSide == models.Buy)
}

// IsProtective reports whether order qualifies as a stop-loss order for
// position: same symbol, opposing side and a stop price.
func IsProtective(position models.Position, order models.Order) bool {
	return order.Symbol == position.Symbol &&
		Opposing(position.Side, order.Side) &&
		order.StopPrice != nil
}

// FindProtective scans orders for the stop-loss orders of position. More
// than one match is reported as MatchMany rather than resolved.
func FindProtective(position models.Position, orders []models.Order) Match {
	var found []models.Order
	for _, o := range orders {
		if IsProtective(position, o) {
			found = append(found, o)
		}
	}

	switch len(found) {
	case 0:
		return Match{Kind: MatchNone}
	case 1:
		return Match{Kind: MatchOne, Orders: found}
	default:
		return Match{Kind: MatchMany, Orders: found}
	}
}
