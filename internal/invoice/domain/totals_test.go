package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestLineAmount_RoundsHalfUp(t *testing.T) {
	cases := []struct {
		name     string
		quantity string
		rate     string
		want     string
	}{
		{"whole numbers", "20", "65.00", "1300.00"},
		{"fractional quantity", "2.5", "10.00", "25.00"},
		{"rounds half up", "1", "0.125", "0.13"},
		{"rounds down below half", "1", "0.124", "0.12"},
		{"third of a cent", "0.333", "1.00", "0.33"},
		{"zero quantity", "0", "65.00", "0.00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := LineAmount(dec(tc.quantity), dec(tc.rate))
			assert.True(t, dec(tc.want).Equal(got), "want %s, got %s", tc.want, got)
		})
	}
}

func TestComputeTotals_TaxPercentage(t *testing.T) {
	items := []InvoiceLineItem{
		{Amount: dec("100.00")},
	}

	totals := ComputeTotals(items, dec("13"))

	assert.True(t, dec("100.00").Equal(totals.Subtotal))
	assert.True(t, dec("13.00").Equal(totals.TaxAmount))
	assert.True(t, dec("113.00").Equal(totals.TotalAmount))
}

func TestComputeTotals_SumsPreRoundedAmounts(t *testing.T) {
	// Each amount is rounded when the line is built; the subtotal must add
	// those amounts as-is rather than re-deriving from quantity and rate.
	items := []InvoiceLineItem{
		{Amount: LineAmount(dec("0.333"), dec("1.00"))},
		{Amount: LineAmount(dec("0.333"), dec("1.00"))},
		{Amount: LineAmount(dec("0.333"), dec("1.00"))},
	}

	totals := ComputeTotals(items, decimal.Zero)

	assert.True(t, dec("0.99").Equal(totals.Subtotal), "got %s", totals.Subtotal)
	assert.True(t, dec("0.99").Equal(totals.TotalAmount))
}

func TestComputeTotals_MonthlyCareScenario(t *testing.T) {
	items := []InvoiceLineItem{
		{Amount: LineAmount(dec("20"), dec("65.00"))},
	}

	totals := ComputeTotals(items, dec("13"))

	assert.True(t, dec("1300.00").Equal(totals.Subtotal))
	assert.True(t, dec("169.00").Equal(totals.TaxAmount))
	assert.True(t, dec("1469.00").Equal(totals.TotalAmount))
}

func TestComputeTotals_EmptyItems(t *testing.T) {
	totals := ComputeTotals(nil, dec("13"))

	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.TaxAmount.IsZero())
	assert.True(t, totals.TotalAmount.IsZero())
}

func TestComputeTotals_ZeroTaxRate(t *testing.T) {
	items := []InvoiceLineItem{{Amount: dec("42.50")}}

	totals := ComputeTotals(items, decimal.Zero)

	assert.True(t, dec("42.50").Equal(totals.Subtotal))
	assert.True(t, totals.TaxAmount.IsZero())
	assert.True(t, dec("42.50").Equal(totals.TotalAmount))
}

func TestComputeTotals_IsPure(t *testing.T) {
	items := []InvoiceLineItem{{Amount: dec("10.00")}}

	first := ComputeTotals(items, dec("7.5"))
	second := ComputeTotals(items, dec("7.5"))

	assert.True(t, first.Subtotal.Equal(second.Subtotal))
	assert.True(t, first.TaxAmount.Equal(second.TaxAmount))
	assert.True(t, first.TotalAmount.Equal(second.TotalAmount))
	assert.True(t, dec("10.00").Equal(items[0].Amount), "input must not be mutated")
}
