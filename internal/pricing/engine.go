package pricing

import (
	"github.com/shopspring/decimal"
)

const (
	// PricePlaces is the precision of derived prices (smallest currency unit).
	PricePlaces int32 = 2
	// MarginPlaces is the precision of the reported margin percentage.
	MarginPlaces int32 = 1
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Policy holds the markup parameters used to derive suggested downstream prices.
type Policy struct {
	WholesaleMarkup decimal.Decimal
	RetailMarkup    decimal.Decimal
	MRPBuffer       decimal.Decimal
}

// DefaultPolicy returns 15% wholesale, 40% retail and a 10% MRP buffer.
func DefaultPolicy() Policy {
	return Policy{
		WholesaleMarkup: decimal.RequireFromString("0.15"),
		RetailMarkup:    decimal.RequireFromString("0.40"),
		MRPBuffer:       decimal.RequireFromString("0.10"),
	}
}

// Calculation summarises the effective purchase rate and suggested selling prices for one line.
type Calculation struct {
	OriginalRate            decimal.Decimal `json:"originalRate"`
	DiscountedRate          decimal.Decimal `json:"discountedRate"`
	SuggestedWholesalePrice decimal.Decimal `json:"suggestedWholesalePrice"`
	SuggestedRetailPrice    decimal.Decimal `json:"suggestedRetailPrice"`
	MRP                     decimal.Decimal `json:"mrp"`
	MarginPercentage        decimal.Decimal `json:"marginPercentage"`
}

// Derive computes per-unit pricing from the discounted line amount.
// It returns nil when pricing is not yet computable (no quantity or no discounted amount).
func (p Policy) Derive(quantity int64, unitPrice decimal.Decimal, discountedAmount *decimal.Decimal) *Calculation {
	if quantity <= 0 || discountedAmount == nil {
		return nil
	}
	rate := discountedAmount.Div(decimal.NewFromInt(quantity)).Round(ratePlaces(unitPrice))
	wholesale := rate.Mul(one.Add(p.WholesaleMarkup)).Round(PricePlaces)
	retail := rate.Mul(one.Add(p.RetailMarkup)).Round(PricePlaces)
	mrp := retail.Mul(one.Add(p.MRPBuffer)).RoundCeil(PricePlaces)

	return &Calculation{
		OriginalRate:            unitPrice,
		DiscountedRate:          rate,
		SuggestedWholesalePrice: wholesale,
		SuggestedRetailPrice:    retail,
		MRP:                     mrp,
		MarginPercentage:        Margin(retail, rate),
	}
}

// ratePlaces keeps the discounted rate at the unit price's precision, never coarser than PricePlaces,
// so an undiscounted line reports its unit price unchanged.
func ratePlaces(unitPrice decimal.Decimal) int32 {
	if places := -unitPrice.Exponent(); places > PricePlaces {
		return places
	}
	return PricePlaces
}

// Margin returns (retail - cost) / retail as a percentage rounded to MarginPlaces. A zero retail price has no margin.
func Margin(retail, cost decimal.Decimal) decimal.Decimal {
	if !retail.IsPositive() {
		return decimal.Zero
	}
	return retail.Sub(cost).Div(retail).Mul(hundred).Round(MarginPlaces)
}
