package service

import (
	"context"
	"fmt"

	guardiandomain "github.com/nestbill/nestbill/internal/guardian/domain"
	invoicedomain "github.com/nestbill/nestbill/internal/invoice/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (s *Service) Send(ctx context.Context, invoiceID string) error {
	invoice, err := s.transition(ctx, invoiceID, invoicedomain.InvoiceStatusSent, "invoice.sent", func(inv *invoicedomain.Invoice) error {
		if len(inv.Items) == 0 {
			return invoicedomain.ErrNoItems
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notifyGuardian(ctx, invoice)
	return nil
}

func (s *Service) MarkPaid(ctx context.Context, invoiceID string) error {
	_, err := s.transition(ctx, invoiceID, invoicedomain.InvoiceStatusPaid, "invoice.paid", nil)
	return err
}

func (s *Service) MarkOverdue(ctx context.Context, invoiceID string) error {
	_, err := s.transition(ctx, invoiceID, invoicedomain.InvoiceStatusOverdue, "invoice.overdue", nil)
	return err
}

// transition moves an active invoice to the given status after checking the
// lifecycle table. The optional guard runs inside the transaction with the
// invoice loaded but before anything is written.
func (s *Service) transition(ctx context.Context, invoiceID string, to invoicedomain.InvoiceStatus, action string, guard func(*invoicedomain.Invoice) error) (*invoicedomain.Invoice, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	id, err := parseID(invoiceID)
	if err != nil {
		return nil, invoicedomain.ErrInvalidInvoiceID
	}

	var updated *invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.loadInvoice(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}

		if err := invoicedomain.EnsureTransition(invoice.Status, to); err != nil {
			return err
		}
		if guard != nil {
			if err := guard(invoice); err != nil {
				return err
			}
		}

		from := invoice.Status
		invoice.Status = to
		invoice.UpdatedAt = s.clock.Now()
		if err := tx.WithContext(ctx).Model(&invoicedomain.Invoice{}).
			Where("id = ?", invoice.ID).
			Updates(map[string]any{
				"status":     invoice.Status,
				"updated_at": invoice.UpdatedAt,
			}).Error; err != nil {
			return err
		}

		s.emitAudit(ctx, action, invoice, map[string]any{"from": string(from)})
		updated = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Reconcile(ctx context.Context, invoiceID string) error {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return err
	}

	id, err := parseID(invoiceID)
	if err != nil {
		return invoicedomain.ErrInvalidInvoiceID
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.loadInvoice(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}
		if err := invoicedomain.EnsureTransition(invoice.Status, invoicedomain.InvoiceStatusReconciled); err != nil {
			return err
		}

		from := invoice.Status
		now := s.clock.Now()
		archived := invoicedomain.ReconciledInvoice{
			ID:            invoice.ID,
			OrgID:         invoice.OrgID,
			InvoiceNumber: invoice.InvoiceNumber,
			ChildID:       invoice.ChildID,
			GuardianID:    invoice.GuardianID,
			Status:        invoicedomain.InvoiceStatusReconciled,
			IssueDate:     invoice.IssueDate,
			DueDate:       invoice.DueDate,
			TaxRate:       invoice.TaxRate,
			Subtotal:      invoice.Subtotal,
			TaxAmount:     invoice.TaxAmount,
			TotalAmount:   invoice.TotalAmount,
			Notes:         invoice.Notes,
			PublicToken:   invoice.PublicToken,
			Metadata:      invoice.Metadata,
			ReconciledAt:  now,
			CreatedAt:     invoice.CreatedAt,
			UpdatedAt:     now,
		}

		if err := s.archiverepo.WithTrx(tx).Create(ctx, &archived); err != nil {
			return err
		}
		// Line items stay behind in invoice_items keyed by the invoice ID.
		if err := tx.WithContext(ctx).
			Where("id = ? AND org_id = ?", invoice.ID, orgID).
			Delete(&invoicedomain.Invoice{}).Error; err != nil {
			return err
		}

		invoice.Status = invoicedomain.InvoiceStatusReconciled
		s.emitAudit(ctx, "invoice.reconciled", invoice, map[string]any{"from": string(from)})
		return nil
	})
}

func (s *Service) Unreconcile(ctx context.Context, invoiceID string) error {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return err
	}

	id, err := parseID(invoiceID)
	if err != nil {
		return invoicedomain.ErrInvalidInvoiceID
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		archived, err := s.archiverepo.WithTrx(tx).FindOne(ctx, &invoicedomain.ReconciledInvoice{ID: id, OrgID: orgID})
		if err != nil {
			return err
		}
		if archived == nil {
			return invoicedomain.ErrInvoiceNotFound
		}

		now := s.clock.Now()
		restored := invoicedomain.Invoice{
			ID:            archived.ID,
			OrgID:         archived.OrgID,
			InvoiceNumber: archived.InvoiceNumber,
			ChildID:       archived.ChildID,
			GuardianID:    archived.GuardianID,
			Status:        invoicedomain.InvoiceStatusPaid,
			IssueDate:     archived.IssueDate,
			DueDate:       archived.DueDate,
			TaxRate:       archived.TaxRate,
			Subtotal:      archived.Subtotal,
			TaxAmount:     archived.TaxAmount,
			TotalAmount:   archived.TotalAmount,
			Notes:         archived.Notes,
			PublicToken:   archived.PublicToken,
			Metadata:      archived.Metadata,
			CreatedAt:     archived.CreatedAt,
			UpdatedAt:     now,
		}

		if err := s.invoicerepo.WithTrx(tx).Create(ctx, &restored); err != nil {
			return err
		}
		if err := tx.WithContext(ctx).
			Where("id = ? AND org_id = ?", archived.ID, orgID).
			Delete(&invoicedomain.ReconciledInvoice{}).Error; err != nil {
			return err
		}

		s.emitAudit(ctx, "invoice.unreconciled", &restored, map[string]any{"from": string(invoicedomain.InvoiceStatusReconciled)})
		return nil
	})
}

func (s *Service) notifyGuardian(ctx context.Context, invoice *invoicedomain.Invoice) {
	if s.emailSvc == nil || invoice == nil {
		return
	}

	guardian, err := s.guardianrepo.FindOne(ctx, &guardiandomain.Guardian{ID: invoice.GuardianID, OrgID: invoice.OrgID})
	if err != nil || guardian == nil || guardian.Email == "" {
		return
	}

	subject := fmt.Sprintf("Invoice %s", invoice.InvoiceNumber)
	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>Invoice <strong>%s</strong> for %s is due on %s.</p>",
		guardian.Name,
		invoice.InvoiceNumber,
		invoice.TotalAmount.StringFixed(2),
		invoice.DueDate.Format("2006-01-02"),
	)
	if err := s.emailSvc.Send(ctx, []string{guardian.Email}, subject, body); err != nil {
		s.log.Warn("invoice notification failed",
			zap.String("invoice_number", invoice.InvoiceNumber),
			zap.Error(err))
	}
}
