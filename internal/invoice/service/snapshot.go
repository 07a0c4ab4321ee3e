package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	childdomain "github.com/nestbill/nestbill/internal/child/domain"
	guardiandomain "github.com/nestbill/nestbill/internal/guardian/domain"
	invoicedomain "github.com/nestbill/nestbill/internal/invoice/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type snapshotHeaderRow struct {
	InvoiceNumber string
	Status        string
	ChildID       snowflake.ID
	GuardianID    snowflake.ID
	IssueDate     time.Time
	DueDate       time.Time
	TaxRate       decimal.Decimal
	Subtotal      decimal.Decimal
	TaxAmount     decimal.Decimal
	TotalAmount   decimal.Decimal
	Notes         string
	ReconciledAt  *time.Time
}

// Snapshot builds the serializable invoice view used by the PDF renderer,
// the CSV exporter and email bodies. It resolves the invoice from the
// active table first and falls back to the reconciled archive, so settled
// invoices remain renderable.
func (s *Service) Snapshot(ctx context.Context, invoiceID string) (invoicedomain.Snapshot, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return invoicedomain.Snapshot{}, err
	}

	id, err := parseID(invoiceID)
	if err != nil {
		return invoicedomain.Snapshot{}, invoicedomain.ErrInvalidInvoiceID
	}

	header, err := s.loadSnapshotHeader(ctx, orgID, id)
	if err != nil {
		return invoicedomain.Snapshot{}, err
	}

	org, err := s.loadOrganization(ctx, orgID)
	if err != nil {
		return invoicedomain.Snapshot{}, err
	}
	child, err := s.childrepo.FindOne(ctx, &childdomain.Child{ID: header.ChildID, OrgID: orgID})
	if err != nil {
		return invoicedomain.Snapshot{}, err
	}
	guardian, err := s.guardianrepo.FindOne(ctx, &guardiandomain.Guardian{ID: header.GuardianID, OrgID: orgID})
	if err != nil {
		return invoicedomain.Snapshot{}, err
	}

	var itemRows []invoicedomain.InvoiceLineItem
	if err := s.db.WithContext(ctx).
		Where("invoice_id = ? AND org_id = ?", id, orgID).
		Order("position ASC").
		Find(&itemRows).Error; err != nil {
		return invoicedomain.Snapshot{}, err
	}

	items := make([]invoicedomain.SnapshotItem, 0, len(itemRows))
	for _, row := range itemRows {
		items = append(items, invoicedomain.SnapshotItem{
			Description: row.Description,
			Quantity:    row.Quantity,
			Rate:        row.Rate,
			Amount:      row.Amount,
		})
	}

	snapshot := invoicedomain.Snapshot{
		InvoiceNumber: header.InvoiceNumber,
		Status:        invoicedomain.InvoiceStatus(header.Status),
		OrgName:       org.Name,
		Items:         items,
		Subtotal:      header.Subtotal,
		TaxRate:       header.TaxRate,
		TaxAmount:     header.TaxAmount,
		TotalAmount:   header.TotalAmount,
		IssueDate:     header.IssueDate,
		DueDate:       header.DueDate,
		ReconciledAt:  header.ReconciledAt,
		Notes:         header.Notes,
	}
	if child != nil {
		snapshot.ChildName = child.Name
	}
	if guardian != nil {
		snapshot.GuardianName = guardian.Name
		snapshot.GuardianEmail = guardian.Email
	}

	return snapshot, nil
}

func (s *Service) loadSnapshotHeader(ctx context.Context, orgID, id snowflake.ID) (snapshotHeaderRow, error) {
	var header snapshotHeaderRow

	err := s.db.WithContext(ctx).Raw(`
		SELECT invoice_number, status, child_id, guardian_id, issue_date, due_date,
		       tax_rate, subtotal, tax_amount, total_amount, notes
		FROM invoices
		WHERE id = ? AND org_id = ?
	`, id, orgID).First(&header).Error
	if err == nil {
		return header, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return snapshotHeaderRow{}, err
	}

	err = s.db.WithContext(ctx).Raw(`
		SELECT invoice_number, status, child_id, guardian_id, issue_date, due_date,
		       tax_rate, subtotal, tax_amount, total_amount, notes, reconciled_at
		FROM reconciled_invoices
		WHERE id = ? AND org_id = ?
	`, id, orgID).First(&header).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return snapshotHeaderRow{}, invoicedomain.ErrInvoiceNotFound
		}
		return snapshotHeaderRow{}, err
	}
	return header, nil
}
