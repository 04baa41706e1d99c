package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func TestDeriveWorkedExample(t *testing.T) {
	calc := DefaultPolicy().Derive(100, d("20"), dp("1698"))
	require.NotNil(t, calc)
	require.Equal(t, "20", calc.OriginalRate.String())
	require.Equal(t, "16.98", calc.DiscountedRate.String())
	require.Equal(t, "19.53", calc.SuggestedWholesalePrice.String())
	require.Equal(t, "23.77", calc.SuggestedRetailPrice.String())
	require.Equal(t, "26.15", calc.MRP.String())
	require.Equal(t, "28.6", calc.MarginPercentage.String())
}

func TestDeriveWithoutDiscountUsesUnitPrice(t *testing.T) {
	calc := DefaultPolicy().Derive(4, d("12.5"), dp("50"))
	require.Equal(t, "12.5", calc.DiscountedRate.String())
	require.Equal(t, "14.38", calc.SuggestedWholesalePrice.String())
	require.Equal(t, "17.5", calc.SuggestedRetailPrice.String())
	require.Equal(t, "19.25", calc.MRP.String())
}

func TestDeriveKeepsSubCentUnitPrice(t *testing.T) {
	calc := DefaultPolicy().Derive(10, d("12.345"), dp("123.45"))
	require.Equal(t, "12.345", calc.DiscountedRate.String())
	require.True(t, calc.DiscountedRate.Equal(calc.OriginalRate))
	// 12.345 * 1.4 = 17.283
	require.Equal(t, "17.28", calc.SuggestedRetailPrice.String())

	// a discounted quotient is carried at the same precision
	calc = DefaultPolicy().Derive(3, d("12.345"), dp("30"))
	require.Equal(t, "10", calc.DiscountedRate.String())
	calc = DefaultPolicy().Derive(7, d("12.345"), dp("80"))
	require.Equal(t, "11.429", calc.DiscountedRate.String())
}

func TestDeriveRoundsMRPUp(t *testing.T) {
	// retail 10.01 * 1.4 = 14.014 -> 14.01; mrp 14.01 * 1.1 = 15.411 -> 15.42
	calc := DefaultPolicy().Derive(1, d("10.01"), dp("10.01"))
	require.Equal(t, "14.01", calc.SuggestedRetailPrice.String())
	require.Equal(t, "15.42", calc.MRP.String())
}

func TestDeriveNotComputable(t *testing.T) {
	require.Nil(t, DefaultPolicy().Derive(0, d("10"), dp("0")))
	require.Nil(t, DefaultPolicy().Derive(-1, d("10"), dp("10")))
	require.Nil(t, DefaultPolicy().Derive(5, d("10"), nil))
}

func TestDeriveFullyDiscountedLine(t *testing.T) {
	calc := DefaultPolicy().Derive(10, d("10"), dp("0"))
	require.True(t, calc.DiscountedRate.IsZero())
	require.True(t, calc.SuggestedRetailPrice.IsZero())
	require.True(t, calc.MRP.IsZero())
	require.True(t, calc.MarginPercentage.IsZero())
}

func TestDeriveCustomPolicy(t *testing.T) {
	p := Policy{WholesaleMarkup: d("0.2"), RetailMarkup: d("0.5"), MRPBuffer: d("0")}
	calc := p.Derive(3, d("10"), dp("25"))
	// 25 / 3 = 8.333.. -> 8.33
	require.Equal(t, "8.33", calc.DiscountedRate.String())
	require.Equal(t, "10", calc.SuggestedWholesalePrice.String())
	require.Equal(t, "12.5", calc.SuggestedRetailPrice.String())
	require.Equal(t, "12.5", calc.MRP.String())
	require.Equal(t, "33.4", calc.MarginPercentage.String())
}

func TestMarginMatchesDerivedPrices(t *testing.T) {
	calc := DefaultPolicy().Derive(7, d("13.37"), dp("80"))
	require.True(t, calc.MarginPercentage.Equal(Margin(calc.SuggestedRetailPrice, calc.DiscountedRate)))
	require.True(t, Margin(d("0"), d("5")).IsZero())
	require.True(t, Margin(d("-1"), d("5")).IsZero())
}
