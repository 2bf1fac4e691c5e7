package alpaca

import (
	"testing"

	"stop_guard/internal/models"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestMapPosition(t *testing.T) {
	long := mapPosition(alpaca.Position{
		Symbol:         "AAPL",
		Side:           "long",
		Qty:            decimal.RequireFromString("100"),
		AvgEntryPrice:  decimal.RequireFromString("150.00"),
		CurrentPrice:   decPtr("159.00"),
		UnrealizedPLPC: decPtr("0.06"),
	})
	assert.Equal(t, models.Long, long.Side)
	assert.Equal(t, "100", long.Quantity.String())
	require.NotNil(t, long.UnrealizedGainTotalPercent)
	assert.Equal(t, "0.06", long.UnrealizedGainTotalPercent.String())

	short := mapPosition(alpaca.Position{
		Symbol:        "TSLA",
		Side:          "short",
		Qty:           decimal.RequireFromString("-5"),
		AvgEntryPrice: decimal.RequireFromString("200"),
	})
	assert.Equal(t, models.Short, short.Side)
	assert.Equal(t, "5", short.Quantity.String())
	assert.Nil(t, short.CurrentPrice)
	assert.Nil(t, short.UnrealizedGainTotalPercent)
}

func TestMapOrder(t *testing.T) {
	assert.Nil(t, mapOrder(nil))

	o := mapOrder(&alpaca.Order{
		ID:          "904837e3-3b76-47ec-b432-046db621571b",
		Symbol:      "AAPL",
		Side:        alpaca.Sell,
		Qty:         decPtr("100"),
		LimitPrice:  decPtr("150.15"),
		StopPrice:   decPtr("151.50"),
		TimeInForce: alpaca.GTC,
		Status:      "new",
	})
	require.NotNil(t, o)
	assert.Equal(t, models.Sell, o.Side)
	assert.Equal(t, models.UntilCanceled, o.TimeInForce)
	assert.False(t, o.Amount.IsNotional())
	assert.Equal(t, "100", o.Amount.Value.String())
	assert.Equal(t, models.StopLimit, o.Type())

	n := mapOrder(&alpaca.Order{
		Symbol:      "AAPL",
		Side:        alpaca.Sell,
		Notional:    decPtr("1500"),
		StopPrice:   decPtr("151.50"),
		TimeInForce: alpaca.Day,
	})
	assert.True(t, n.Amount.IsNotional())
	assert.Equal(t, models.Today, n.TimeInForce)
	assert.Equal(t, models.Stop, n.Type())
}

func TestPlaceOrderRequest(t *testing.T) {
	req := placeOrderRequest(models.OrderRequest{
		Symbol:        "AAPL",
		Side:          models.Sell,
		Quantity:      decimal.RequireFromString("100"),
		LimitPrice:    decimal.RequireFromString("150.15"),
		StopPrice:     decimal.RequireFromString("151.50"),
		TimeInForce:   models.UntilCanceled,
		ClientOrderID: "abc",
	})

	assert.Equal(t, alpaca.StopLimit, req.Type)
	assert.Equal(t, alpaca.GTC, req.TimeInForce)
	assert.Equal(t, alpaca.Sell, req.Side)
	assert.Equal(t, "abc", req.ClientOrderID)
	require.NotNil(t, req.Qty)
	assert.Equal(t, "100", req.Qty.String())
	assert.Equal(t, "150.15", req.LimitPrice.String())
	assert.Equal(t, "151.5", req.StopPrice.String())
}
