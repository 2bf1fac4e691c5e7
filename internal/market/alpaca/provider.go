package alpaca

import (
	"context"
	"fmt"

	"stop_guard/internal/market"
	"stop_guard/internal/models"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"
)

// OpenOrdersLimit is the maximum number of open orders retrieved per pass.
const OpenOrdersLimit = 500

// Options holds the Alpaca credentials. Empty values make the SDK fall back
// to the APCA_* environment variables.
type Options struct {
	KeyID     string
	SecretKey string
	BaseURL   string
}

// Provider implements market.Broker for Alpaca.
type Provider struct {
	tradeClient *alpaca.Client
}

// Ensure Provider implements the interface
var _ market.Broker = (*Provider)(nil)

// NewProvider returns a new Alpaca provider.
func NewProvider(opts Options) *Provider {
	return &Provider{
		tradeClient: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    opts.KeyID,
			APISecret: opts.SecretKey,
			BaseURL:   opts.BaseURL,
		}),
	}
}

func (p *Provider) ListPositions(ctx context.Context) ([]models.Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	alpacaPositions, err := p.tradeClient.GetPositions()
	if err != nil {
		return nil, err
	}

	result := make([]models.Position, 0, len(alpacaPositions))
	for _, x := range alpacaPositions {
		result = append(result, mapPosition(x))
	}
	return result, nil
}

func (p *Provider) ListOpenOrders(ctx context.Context) ([]models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Nested orders are not needed to find stop-loss orders.
	orders, err := p.tradeClient.GetOrders(alpaca.GetOrdersRequest{
		Status: "open",
		Limit:  OpenOrdersLimit,
		Nested: false,
	})
	if err != nil {
		return nil, err
	}

	result := make([]models.Order, 0, len(orders))
	for i := range orders {
		result = append(result, *mapOrder(&orders[i]))
	}
	return result, nil
}

// --- Execution ---

func (p *Provider) ReplaceOrder(ctx context.Context, orderID string, req models.ReplaceRequest) (*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	qty, limit, stop := req.Quantity, req.LimitPrice, req.StopPrice
	o, err := p.tradeClient.ReplaceOrder(orderID, alpaca.ReplaceOrderRequest{
		Qty:        &qty,
		LimitPrice: &limit,
		StopPrice:  &stop,
	})
	if err != nil {
		return nil, fmt.Errorf("replace order %s: %w", orderID, err)
	}
	return mapOrder(o), nil
}

func (p *Provider) PlaceOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o, err := p.tradeClient.PlaceOrder(placeOrderRequest(req))
	if err != nil {
		return nil, fmt.Errorf("place %s order for %s: %w", req.Side, req.Symbol, err)
	}
	return mapOrder(o), nil
}

// Helpers

func placeOrderRequest(req models.OrderRequest) alpaca.PlaceOrderRequest {
	qty, limit, stop := req.Quantity, req.LimitPrice, req.StopPrice
	return alpaca.PlaceOrderRequest{
		Symbol:        req.Symbol,
		Qty:           &qty,
		Side:          alpaca.Side(req.Side),
		Type:          alpaca.StopLimit,
		TimeInForce:   alpaca.TimeInForce(req.TimeInForce),
		LimitPrice:    &limit,
		StopPrice:     &stop,
		ClientOrderID: req.ClientOrderID,
	}
}

func mapPosition(x alpaca.Position) models.Position {
	// Alpaca reports short positions with a negative quantity.
	side := models.Long
	if x.Side == "short" || x.Qty.IsNegative() {
		side = models.Short
	}

	return models.Position{
		Symbol:                     x.Symbol,
		Side:                       side,
		Quantity:                   x.Qty.Abs(),
		AverageEntryPrice:          x.AvgEntryPrice,
		CurrentPrice:               copyDecimal(x.CurrentPrice),
		UnrealizedGainTotalPercent: copyDecimal(x.UnrealizedPLPC),
	}
}

func mapOrder(o *alpaca.Order) *models.Order {
	if o == nil {
		return nil
	}

	amount := models.Quantity(decimal.Zero)
	switch {
	case o.Notional != nil:
		amount = models.Notional(*o.Notional)
	case o.Qty != nil:
		amount = models.Quantity(*o.Qty)
	}

	return &models.Order{
		ID:            o.ID,
		ClientOrderID: o.ClientOrderID,
		Symbol:        o.Symbol,
		Side:          models.OrderSide(o.Side),
		Amount:        amount,
		LimitPrice:    copyDecimal(o.LimitPrice),
		StopPrice:     copyDecimal(o.StopPrice),
		TimeInForce:   models.TimeInForce(o.TimeInForce),
		Status:        o.Status,
	}
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
