package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/nestbill/nestbill/pkg/db/pagination"
	"github.com/shopspring/decimal"
)

// ItemInput carries line item fields supplied by a caller.
type ItemInput struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
}

type CreateInvoiceRequest struct {
	ChildID    snowflake.ID    `json:"child_id"`
	GuardianID snowflake.ID    `json:"guardian_id"`
	IssueDate  time.Time       `json:"issue_date"`
	DueDate    time.Time       `json:"due_date"`
	TaxRate    decimal.Decimal `json:"tax_rate"`
	Notes      string          `json:"notes"`
	Items      []ItemInput     `json:"items"`
}

// UpdateItemRequest applies a partial update; nil fields are left unchanged.
type UpdateItemRequest struct {
	Description *string          `json:"description"`
	Quantity    *decimal.Decimal `json:"quantity"`
	Rate        *decimal.Decimal `json:"rate"`
}

type ListInvoiceRequest struct {
	Status     *InvoiceStatus
	ChildID    *snowflake.ID
	GuardianID *snowflake.ID
	DueFrom    *time.Time
	DueTo      *time.Time
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

type ListReconciledResponse struct {
	pagination.PageInfo
	Invoices []ReconciledInvoice `json:"invoices"`
}

// Recipient identifies one child/guardian pair in a bulk generation run.
type Recipient struct {
	ChildID    snowflake.ID `json:"child_id"`
	GuardianID snowflake.ID `json:"guardian_id"`
}

type GenerateBulkRequest struct {
	Recipients    []Recipient     `json:"recipients"`
	TemplateItems []ItemInput     `json:"template_items"`
	DueDate       time.Time       `json:"due_date"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	Notes         string          `json:"notes"`
}

type GenerateBulkResponse struct {
	Invoices []Invoice `json:"invoices"`
	// AggregateTotal is informational only and never persisted.
	AggregateTotal decimal.Decimal `json:"aggregate_total"`
}

type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (Invoice, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	ListReconciled(ctx context.Context) (ListReconciledResponse, error)
	GetByID(ctx context.Context, id string) (Invoice, error)

	AddItem(ctx context.Context, invoiceID string, item ItemInput) (InvoiceLineItem, error)
	UpdateItem(ctx context.Context, invoiceID, itemID string, req UpdateItemRequest) error
	RemoveItem(ctx context.Context, invoiceID, itemID string) error

	Send(ctx context.Context, invoiceID string) error
	MarkPaid(ctx context.Context, invoiceID string) error
	MarkOverdue(ctx context.Context, invoiceID string) error
	Reconcile(ctx context.Context, invoiceID string) error
	Unreconcile(ctx context.Context, invoiceID string) error

	GenerateBulk(ctx context.Context, req GenerateBulkRequest) (GenerateBulkResponse, error)
	Snapshot(ctx context.Context, invoiceID string) (Snapshot, error)
}
