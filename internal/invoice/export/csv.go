// Package export renders invoice snapshots into flat files.
package export

import (
	"encoding/csv"
	"io"

	invoicedomain "github.com/nestbill/nestbill/internal/invoice/domain"
)

var csvHeader = []string{
	"invoice_number", "status", "child", "guardian",
	"description", "quantity", "rate", "amount",
	"subtotal", "tax_rate", "tax_amount", "total_amount", "due_date",
}

// WriteCSV writes one row per line item. Invoice-level columns repeat on
// every row so the file stays loadable without joins.
func WriteCSV(w io.Writer, snapshot invoicedomain.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, item := range snapshot.Items {
		row := []string{
			snapshot.InvoiceNumber,
			string(snapshot.Status),
			snapshot.ChildName,
			snapshot.GuardianName,
			item.Description,
			item.Quantity.String(),
			item.Rate.StringFixed(2),
			item.Amount.StringFixed(2),
			snapshot.Subtotal.StringFixed(2),
			snapshot.TaxRate.String(),
			snapshot.TaxAmount.StringFixed(2),
			snapshot.TotalAmount.StringFixed(2),
			snapshot.DueDate.Format("2006-01-02"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
