package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SnapshotItem is one line of a serializable invoice view.
type SnapshotItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
}

// Snapshot is the serializable view of an invoice handed to the PDF
// renderer, CSV exporter and email sender. It joins the billed parties so
// downstream consumers need no further lookups.
type Snapshot struct {
	InvoiceNumber string          `json:"invoice_number"`
	Status        InvoiceStatus   `json:"status"`
	OrgName       string          `json:"org_name"`
	ChildName     string          `json:"child_name"`
	GuardianName  string          `json:"guardian_name"`
	GuardianEmail string          `json:"guardian_email"`
	Items         []SnapshotItem  `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	IssueDate     time.Time       `json:"issue_date"`
	DueDate       time.Time       `json:"due_date"`
	ReconciledAt  *time.Time      `json:"reconciled_at,omitempty"`
	Notes         string          `json:"notes"`
}
