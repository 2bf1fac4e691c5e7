package protect

import "github.com/shopspring/decimal"

// PriceDecimals is the number of post-decimal positions of every price
// we compute.
const PriceDecimals = 2

var (
	basisPoints = decimal.NewFromInt(10_000)
	hundred     = decimal.NewFromInt(100)
)

// MarkupFactor returns 1 + bps/10000 as an exact decimal.
func MarkupFactor(bps int) decimal.Decimal {
	return basisPoints.Add(decimal.NewFromInt(int64(bps))).Div(basisPoints)
}

// RoundPrice rounds to PriceDecimals places, half away from zero.
func RoundPrice(d decimal.Decimal) decimal.Decimal {
	return d.Round(PriceDecimals)
}

// MarkupPrice applies a basis point markup to price and rounds the result.
func MarkupPrice(price decimal.Decimal, bps int) decimal.Decimal {
	return RoundPrice(price.Mul(MarkupFactor(bps)))
}

// PercentOf turns a fraction (0.05) into a percentage (5). A nil fraction
// counts as zero.
func PercentOf(fraction *decimal.Decimal) decimal.Decimal {
	if fraction == nil {
		return decimal.Zero
	}
	return fraction.Mul(hundred)
}

func valueOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
