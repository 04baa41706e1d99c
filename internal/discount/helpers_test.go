package discount

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	supplierID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	brandX     = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	brandY     = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	categoryA  = uuid.MustParse("44444444-4444-4444-4444-444444444444")
	purchaseOn = time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func int64Ptr(v int64) *int64 { return &v }

func idPtr(id uuid.UUID) *uuid.UUID { return &id }

func newRule(c Condition, pct string) Rule {
	return Rule{
		ID:         uuid.New(),
		SupplierID: supplierID,
		Condition:  c,
		Percentage: dec(pct),
		ValidFrom:  purchaseOn.AddDate(0, -1, 0),
		Active:     true,
		CreatedAt:  purchaseOn.AddDate(0, -1, 0),
	}
}

func item(qty int64, price string) LineItem {
	return LineItem{
		ProductID: uuid.New(),
		BrandID:   idPtr(brandX),
		Quantity:  qty,
		UnitPrice: dec(price),
	}
}
