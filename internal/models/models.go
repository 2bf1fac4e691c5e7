package models

// PositionSide tells whether a position is held long or short.
type PositionSide string

const (
	Long  PositionSide = "long"
	Short PositionSide = "short"
)

// OrderSide is the direction of an order.
type OrderSide string

const (
	Buy  OrderSide = "buy"
	Sell OrderSide = "sell"
)

// TimeInForce is an indication of when/for how long an order is valid.
type TimeInForce string

const (
	Today            TimeInForce = "day"
	UntilCanceled    TimeInForce = "gtc"
	UntilMarketOpen  TimeInForce = "opg"
	UntilMarketClose TimeInForce = "cls"
)

// OrderType is derived from which prices an order carries.
type OrderType string

const (
	Market    OrderType = "market"
	Limit     OrderType = "limit"
	Stop      OrderType = "stop"
	StopLimit OrderType = "stop_limit"
)
