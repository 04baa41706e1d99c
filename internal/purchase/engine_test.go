package purchase

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-erp/internal/discount"
	"github.com/noah-isme/backend-erp/internal/pricing"
)

var (
	supplierID = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	brandX     = uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000001")
	asOf       = time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	v := dec(s)
	return &v
}

func activeRule(c discount.Condition, pct string) discount.Rule {
	return discount.Rule{
		ID:         uuid.New(),
		SupplierID: supplierID,
		Condition:  c,
		Percentage: dec(pct),
		ValidFrom:  asOf.AddDate(0, -1, 0),
		Active:     true,
		CreatedAt:  asOf.AddDate(0, -1, 0),
		UpdatedAt:  asOf.AddDate(0, -1, 0),
	}
}

func exampleRules() []discount.Rule {
	minQty := int64(50)
	brand := activeRule(discount.BrandCondition{BrandID: brandX}, "10")
	volume := activeRule(discount.VolumeCondition{MinQuantity: &minQty}, "5")
	volume.FixedAmount = decPtr("2")
	return []discount.Rule{brand, volume}
}

func lineItem(qty int64, price string) discount.LineItem {
	b := brandX
	return discount.LineItem{ProductID: uuid.New(), BrandID: &b, Quantity: qty, UnitPrice: dec(price)}
}

func newTestEngine() *Engine {
	return NewEngine(pricing.DefaultPolicy(), zerolog.Nop())
}

func TestComputeWorkedExample(t *testing.T) {
	res := newTestEngine().Compute(supplierID, []discount.LineItem{lineItem(100, "20")}, exampleRules(), asOf)

	require.Empty(t, res.Warnings)
	require.Equal(t, "2026-05-10", res.AsOf)
	require.Len(t, res.Items, 1)
	line := res.Items[0]
	require.Equal(t, "302", line.Discount.TotalDiscount.String())
	require.Equal(t, "1698", line.Discount.DiscountedAmount.String())
	require.Equal(t, "16.98", line.Pricing.DiscountedRate.String())
	require.Equal(t, "19.53", line.Pricing.SuggestedWholesalePrice.String())
	require.Equal(t, "23.77", line.Pricing.SuggestedRetailPrice.String())
	require.Equal(t, "26.15", line.Pricing.MRP.String())
	require.Equal(t, "28.6", line.Pricing.MarginPercentage.String())

	require.Equal(t, "2000", res.Totals.TotalOriginalAmount.String())
	require.Equal(t, "302", res.Totals.TotalDiscountAmount.String())
	require.True(t, res.Totals.HasDiscount())
}

func TestComputeNoMatchKeepsUnitPrice(t *testing.T) {
	it := lineItem(10, "15.5")
	it.BrandID = nil
	res := newTestEngine().Compute(supplierID, []discount.LineItem{it}, exampleRules(), asOf)

	line := res.Items[0]
	require.True(t, line.Discount.TotalDiscount.IsZero())
	require.Empty(t, line.Discount.Breakdown)
	require.True(t, line.Pricing.DiscountedRate.Equal(it.UnitPrice))
	require.False(t, res.Totals.HasDiscount())
}

func TestComputeClampsMisconfiguredDiscount(t *testing.T) {
	huge := activeRule(discount.BrandCondition{BrandID: brandX}, "150")
	res := newTestEngine().Compute(supplierID, []discount.LineItem{lineItem(2, "10")}, []discount.Rule{huge}, asOf)

	line := res.Items[0]
	require.True(t, line.Discount.DiscountedAmount.IsZero())
	require.Equal(t, "20", line.Discount.TotalDiscount.String())
	require.True(t, line.Pricing.DiscountedRate.IsZero())
	require.Len(t, res.Warnings, 1)
	require.Equal(t, discount.WarningClamped, res.Warnings[0].Kind)
	require.Equal(t, 0, *res.Warnings[0].ItemIndex)
}

func TestComputeInvalidItemsAreNotComputable(t *testing.T) {
	items := []discount.LineItem{lineItem(0, "20"), lineItem(5, "0"), lineItem(100, "20")}
	res := newTestEngine().Compute(supplierID, items, exampleRules(), asOf)

	require.Nil(t, res.Items[0].Discount)
	require.Nil(t, res.Items[0].Pricing)
	require.Nil(t, res.Items[1].Discount)
	require.NotNil(t, res.Items[2].Discount)
	require.Equal(t, 2, res.Items[2].Index)
	require.Len(t, res.Warnings, 2)
	for _, w := range res.Warnings {
		require.Equal(t, discount.WarningInvalidItem, w.Kind)
	}
	require.Equal(t, "2000", res.Totals.TotalOriginalAmount.String())
}

func TestComputeReportsBrokenRuleOnce(t *testing.T) {
	broken := discount.Rule{ID: uuid.New(), SupplierID: supplierID, Active: true, ValidFrom: asOf}
	rules := append(exampleRules(), broken)
	items := []discount.LineItem{lineItem(100, "20"), lineItem(1, "5")}

	res := newTestEngine().Compute(supplierID, items, rules, asOf)
	require.Len(t, res.Warnings, 1)
	require.Equal(t, discount.WarningInvalidRule, res.Warnings[0].Kind)
	require.Equal(t, "302", res.Items[0].Discount.TotalDiscount.String())
}

func TestComputeIgnoresOtherSuppliersRules(t *testing.T) {
	foreign := activeRule(discount.BrandCondition{BrandID: brandX}, "50")
	foreign.SupplierID = uuid.New()
	res := newTestEngine().Compute(supplierID, []discount.LineItem{lineItem(1, "10")}, []discount.Rule{foreign}, asOf)
	require.True(t, res.Items[0].Discount.TotalDiscount.IsZero())
}

func TestComputeIsDeterministic(t *testing.T) {
	rules := exampleRules()
	items := []discount.LineItem{lineItem(100, "20"), lineItem(60, "3.35")}
	e := newTestEngine()
	require.Equal(t, e.Compute(supplierID, items, rules, asOf), e.Compute(supplierID, items, rules, asOf))
}

func TestAggregateSkipsUncomputedLines(t *testing.T) {
	lines := []LineResult{
		{Index: 0, Discount: &discount.Calculation{OriginalAmount: dec("100"), TotalDiscount: dec("10"), DiscountedAmount: dec("90")}},
		{Index: 1},
		{Index: 2, Discount: &discount.Calculation{OriginalAmount: dec("50.5"), TotalDiscount: dec("0"), DiscountedAmount: dec("50.5")}},
	}
	totals := Aggregate(lines)
	require.Equal(t, "150.5", totals.TotalOriginalAmount.String())
	require.Equal(t, "140.5", totals.TotalDiscountedAmount.String())
	require.Equal(t, "10", totals.TotalDiscountAmount.String())
	require.True(t, totals.TotalOriginalAmount.Equal(totals.TotalDiscountedAmount.Add(totals.TotalDiscountAmount)))

	empty := Aggregate(nil)
	require.True(t, empty.TotalOriginalAmount.IsZero())
	require.False(t, empty.HasDiscount())
}
