package purchase

import "github.com/shopspring/decimal"

// Totals aggregates line discounts for order-level banners and the downstream tax base.
type Totals struct {
	TotalOriginalAmount   decimal.Decimal `json:"totalOriginalAmount"`
	TotalDiscountedAmount decimal.Decimal `json:"totalDiscountedAmount"`
	TotalDiscountAmount   decimal.Decimal `json:"totalDiscountAmount"`
}

// Aggregate sums the computed lines. Lines without a discount calculation are skipped.
func Aggregate(lines []LineResult) Totals {
	t := Totals{
		TotalOriginalAmount:   decimal.Zero,
		TotalDiscountedAmount: decimal.Zero,
		TotalDiscountAmount:   decimal.Zero,
	}
	for _, l := range lines {
		if l.Discount == nil {
			continue
		}
		t.TotalOriginalAmount = t.TotalOriginalAmount.Add(l.Discount.OriginalAmount)
		t.TotalDiscountedAmount = t.TotalDiscountedAmount.Add(l.Discount.DiscountedAmount)
		t.TotalDiscountAmount = t.TotalDiscountAmount.Add(l.Discount.TotalDiscount)
	}
	return t
}

// HasDiscount reports whether the order-level discount banner should be shown.
func (t Totals) HasDiscount() bool {
	return t.TotalDiscountAmount.IsPositive()
}
