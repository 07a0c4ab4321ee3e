package domain

import "github.com/shopspring/decimal"

// Totals is the derived monetary summary of an invoice.
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

var oneHundred = decimal.NewFromInt(100)

// Round2 rounds a monetary amount to 2 decimal places, half up.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// LineAmount derives a line item amount from quantity and rate. Rounding
// happens here, once per item, so summing amounts never drifts.
func LineAmount(quantity, rate decimal.Decimal) decimal.Decimal {
	return Round2(quantity.Mul(rate))
}

// ComputeTotals derives subtotal, tax and total from line items and a
// percentage tax rate. It is pure: no input is mutated and repeated calls
// yield identical results. The subtotal sums already-rounded item amounts
// without re-rounding; tax is the only other rounding point.
func ComputeTotals(items []InvoiceLineItem, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Amount)
	}

	taxAmount := Round2(subtotal.Mul(taxRate).Div(oneHundred))

	return Totals{
		Subtotal:    subtotal,
		TaxAmount:   taxAmount,
		TotalAmount: subtotal.Add(taxAmount),
	}
}
