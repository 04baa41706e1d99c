package discount

import (
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the currency precision applied to discount amounts.
const MoneyPlaces int32 = 2

var hundred = decimal.NewFromInt(100)

// BreakdownEntry is the contribution of one matched rule.
type BreakdownEntry struct {
	RuleID      string          `json:"ruleId"`
	Kind        Kind            `json:"type"`
	Label       string          `json:"label"`
	Amount      decimal.Decimal `json:"amount"`
	Percentage  decimal.Decimal `json:"percentage"`
	FixedAmount decimal.Decimal `json:"fixedAmount"`
}

// Calculation is the stacked discount for one line item.
type Calculation struct {
	OriginalAmount   decimal.Decimal  `json:"originalAmount"`
	Breakdown        []BreakdownEntry `json:"breakdown"`
	TotalDiscount    decimal.Decimal  `json:"totalDiscount"`
	DiscountedAmount decimal.Decimal  `json:"discountedAmount"`
	Clamped          bool             `json:"clamped"`
}

// HasDiscount reports whether any amount was taken off the line.
func (c Calculation) HasDiscount() bool {
	return c.TotalDiscount.IsPositive()
}

// Compute stacks the matched rules additively and clamps the total to [0, original amount].
// matched is expected to hold at most one rule per kind, as returned by Matcher.Match.
func Compute(item LineItem, matched []Rule) Calculation {
	original := item.OriginalAmount()
	calc := Calculation{
		OriginalAmount: original,
		Breakdown:      make([]BreakdownEntry, 0, len(matched)),
	}
	total := decimal.Zero
	for _, r := range matched {
		amount := ruleAmount(r, original)
		calc.Breakdown = append(calc.Breakdown, BreakdownEntry{
			RuleID:      r.ID.String(),
			Kind:        r.Kind(),
			Label:       r.Kind().Label(),
			Amount:      amount,
			Percentage:  r.Percentage,
			FixedAmount: r.fixed(),
		})
		total = total.Add(amount)
	}
	if total.GreaterThan(original) {
		total = original
		calc.Clamped = true
	}
	if total.IsNegative() {
		total = decimal.Zero
		calc.Clamped = true
	}
	calc.TotalDiscount = total
	calc.DiscountedAmount = original.Sub(total)
	return calc
}

func ruleAmount(r Rule, original decimal.Decimal) decimal.Decimal {
	pct := original.Mul(r.Percentage).Div(hundred).Round(MoneyPlaces)
	return pct.Add(r.fixed())
}
