package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	invoicedomain "github.com/nestbill/nestbill/internal/invoice/domain"
	"github.com/nestbill/nestbill/internal/invoice/format"
	"github.com/nestbill/nestbill/internal/invoice/numbering"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GenerateBulk creates one invoice per recipient from a shared item
// template. Each invoice gets its own number, its own copies of the
// template items and independently computed totals; all of them are
// written in a single transaction so a failed run leaves nothing behind.
func (s *Service) GenerateBulk(ctx context.Context, req invoicedomain.GenerateBulkRequest) (invoicedomain.GenerateBulkResponse, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return invoicedomain.GenerateBulkResponse{}, err
	}

	if len(req.TemplateItems) == 0 {
		return invoicedomain.GenerateBulkResponse{}, invoicedomain.ErrEmptyTemplate
	}
	for _, item := range req.TemplateItems {
		if err := validateItemInput(item); err != nil {
			return invoicedomain.GenerateBulkResponse{}, err
		}
	}
	if req.TaxRate.IsNegative() {
		return invoicedomain.GenerateBulkResponse{}, invoicedomain.ErrNegativeRate
	}
	for _, recipient := range req.Recipients {
		if recipient.ChildID == 0 || recipient.GuardianID == 0 {
			return invoicedomain.GenerateBulkResponse{}, invoicedomain.ErrInvalidInvoiceID
		}
	}

	if len(req.Recipients) == 0 {
		return invoicedomain.GenerateBulkResponse{AggregateTotal: decimal.Zero}, nil
	}

	issueDate := s.clock.Now()
	dueDate := req.DueDate
	if dueDate.Before(issueDate) {
		return invoicedomain.GenerateBulkResponse{}, invoicedomain.ErrDueBeforeIssue
	}

	org, err := s.loadOrganization(ctx, orgID)
	if err != nil {
		return invoicedomain.GenerateBulkResponse{}, err
	}

	notes := strings.TrimSpace(req.Notes)
	resp := invoicedomain.GenerateBulkResponse{
		Invoices:       make([]invoicedomain.Invoice, 0, len(req.Recipients)),
		AggregateTotal: decimal.Zero,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, recipient := range req.Recipients {
			seq, err := numbering.Reserve(ctx, tx, orgID)
			if err != nil {
				return err
			}
			number, err := format.FormatInvoiceNumber(org.InvoiceNumberTemplate, issueDate, seq)
			if err != nil {
				return err
			}

			now := s.clock.Now()
			invoiceID := s.genID.Generate()
			// Fresh line item rows per recipient: mutating one generated
			// invoice must never bleed into its siblings.
			items := s.buildItems(orgID, invoiceID, req.TemplateItems, now)
			totals := invoicedomain.ComputeTotals(items, req.TaxRate)

			invoice := invoicedomain.Invoice{
				ID:            invoiceID,
				OrgID:         orgID,
				InvoiceNumber: number,
				ChildID:       recipient.ChildID,
				GuardianID:    recipient.GuardianID,
				Status:        invoicedomain.InvoiceStatusSent,
				IssueDate:     issueDate,
				DueDate:       dueDate,
				TaxRate:       req.TaxRate,
				Subtotal:      totals.Subtotal,
				TaxAmount:     totals.TaxAmount,
				TotalAmount:   totals.TotalAmount,
				Notes:         notes,
				PublicToken:   uuid.NewString(),
				CreatedAt:     now,
				UpdatedAt:     now,
			}

			if err := s.invoicerepo.WithTrx(tx).Create(ctx, &invoice); err != nil {
				return err
			}
			itemPtrs := make([]*invoicedomain.InvoiceLineItem, 0, len(items))
			for i := range items {
				itemPtrs = append(itemPtrs, &items[i])
			}
			if err := s.itemrepo.WithTrx(tx).BatchCreate(ctx, itemPtrs); err != nil {
				return err
			}

			invoice.Items = items
			resp.Invoices = append(resp.Invoices, invoice)
			resp.AggregateTotal = resp.AggregateTotal.Add(invoice.TotalAmount)
		}
		return nil
	})
	if err != nil {
		return invoicedomain.GenerateBulkResponse{}, err
	}

	s.log.Info("bulk invoice generation complete",
		zap.Int("count", len(resp.Invoices)),
		zap.String("aggregate_total", resp.AggregateTotal.StringFixed(2)))

	for i := range resp.Invoices {
		s.emitAudit(ctx, "invoice.created", &resp.Invoices[i], map[string]any{"bulk": true})
	}

	return resp, nil
}
