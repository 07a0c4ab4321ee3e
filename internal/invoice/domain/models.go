// Package domain contains persistence models for childcare invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft      InvoiceStatus = "draft"
	InvoiceStatusSent       InvoiceStatus = "sent"
	InvoiceStatusPaid       InvoiceStatus = "paid"
	InvoiceStatusOverdue    InvoiceStatus = "overdue"
	InvoiceStatusReconciled InvoiceStatus = "reconciled"
)

// Invoice represents an active (non-archived) invoice billed to one
// guardian/child pair. Subtotal, tax and total are always rewritten from
// ComputeTotals after any item mutation; they are never edited directly.
type Invoice struct {
	ID            snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID         snowflake.ID      `gorm:"not null;index;uniqueIndex:ux_invoices_org_number,priority:1" json:"org_id"`
	InvoiceNumber string            `gorm:"type:text;not null;uniqueIndex:ux_invoices_org_number,priority:2" json:"invoice_number"`
	ChildID       snowflake.ID      `gorm:"not null;index" json:"child_id"`
	GuardianID    snowflake.ID      `gorm:"not null;index" json:"guardian_id"`
	Status        InvoiceStatus     `gorm:"type:text;not null;default:'draft'" json:"status"`
	IssueDate     time.Time         `gorm:"not null" json:"issue_date"`
	DueDate       time.Time         `gorm:"not null" json:"due_date"`
	TaxRate       decimal.Decimal   `gorm:"type:decimal(6,3);not null" json:"tax_rate"`
	Subtotal      decimal.Decimal   `gorm:"type:decimal(18,2);not null" json:"subtotal"`
	TaxAmount     decimal.Decimal   `gorm:"type:decimal(18,2);not null" json:"tax_amount"`
	TotalAmount   decimal.Decimal   `gorm:"type:decimal(18,2);not null" json:"total_amount"`
	Notes         string            `gorm:"type:text" json:"notes"`
	PublicToken   string            `gorm:"type:text;not null;index" json:"public_token"`
	Items         []InvoiceLineItem `gorm:"foreignKey:InvoiceID" json:"items"`
	Metadata      datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceLineItem represents a billable entry on an invoice. Amount is
// derived from Quantity and Rate and recomputed on every change.
type InvoiceLineItem struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID    `gorm:"not null;index" json:"org_id"`
	InvoiceID   snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	Position    int             `gorm:"not null" json:"position"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"quantity"`
	Rate        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"rate"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (InvoiceLineItem) TableName() string { return "invoice_items" }

// ReconciledInvoice is the archived form of an invoice. It lives in its own
// table so active listings exclude settled invoices by construction rather
// than by filter. Line items stay in invoice_items keyed by the invoice ID.
type ReconciledInvoice struct {
	ID            snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID         snowflake.ID      `gorm:"not null;index" json:"org_id"`
	InvoiceNumber string            `gorm:"type:text;not null;index" json:"invoice_number"`
	ChildID       snowflake.ID      `gorm:"not null;index" json:"child_id"`
	GuardianID    snowflake.ID      `gorm:"not null;index" json:"guardian_id"`
	Status        InvoiceStatus     `gorm:"type:text;not null" json:"status"`
	IssueDate     time.Time         `gorm:"not null" json:"issue_date"`
	DueDate       time.Time         `gorm:"not null" json:"due_date"`
	TaxRate       decimal.Decimal   `gorm:"type:decimal(6,3);not null" json:"tax_rate"`
	Subtotal      decimal.Decimal   `gorm:"type:decimal(18,2);not null" json:"subtotal"`
	TaxAmount     decimal.Decimal   `gorm:"type:decimal(18,2);not null" json:"tax_amount"`
	TotalAmount   decimal.Decimal   `gorm:"type:decimal(18,2);not null" json:"total_amount"`
	Notes         string            `gorm:"type:text" json:"notes"`
	PublicToken   string            `gorm:"type:text;not null;index" json:"public_token"`
	Metadata      datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	ReconciledAt  time.Time         `gorm:"not null" json:"reconciled_at"`
	CreatedAt     time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (ReconciledInvoice) TableName() string { return "reconciled_invoices" }
