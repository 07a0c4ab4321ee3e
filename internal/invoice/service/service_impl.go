package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	auditdomain "github.com/nestbill/nestbill/internal/audit/domain"
	childdomain "github.com/nestbill/nestbill/internal/child/domain"
	"github.com/nestbill/nestbill/internal/clock"
	guardiandomain "github.com/nestbill/nestbill/internal/guardian/domain"
	invoicedomain "github.com/nestbill/nestbill/internal/invoice/domain"
	"github.com/nestbill/nestbill/internal/invoice/format"
	"github.com/nestbill/nestbill/internal/invoice/numbering"
	"github.com/nestbill/nestbill/internal/orgcontext"
	organizationdomain "github.com/nestbill/nestbill/internal/organization/domain"
	"github.com/nestbill/nestbill/internal/providers/email"
	"github.com/nestbill/nestbill/pkg/db/option"
	"github.com/nestbill/nestbill/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	AuditSvc auditdomain.Service `optional:"true"`
	EmailSvc email.Provider      `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	invoicerepo  repository.Repository[invoicedomain.Invoice]
	itemrepo     repository.Repository[invoicedomain.InvoiceLineItem]
	archiverepo  repository.Repository[invoicedomain.ReconciledInvoice]
	orgrepo      repository.Repository[organizationdomain.Organization]
	childrepo    repository.Repository[childdomain.Child]
	guardianrepo repository.Repository[guardiandomain.Guardian]

	auditSvc auditdomain.Service
	emailSvc email.Provider
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("invoice.service"),
		genID: p.GenID,
		clock: p.Clock,

		invoicerepo:  repository.ProvideStore[invoicedomain.Invoice](p.DB),
		itemrepo:     repository.ProvideStore[invoicedomain.InvoiceLineItem](p.DB),
		archiverepo:  repository.ProvideStore[invoicedomain.ReconciledInvoice](p.DB),
		orgrepo:      repository.ProvideStore[organizationdomain.Organization](p.DB),
		childrepo:    repository.ProvideStore[childdomain.Child](p.DB),
		guardianrepo: repository.ProvideStore[guardiandomain.Guardian](p.DB),

		auditSvc: p.AuditSvc,
		emailSvc: p.EmailSvc,
	}
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	if req.ChildID == 0 || req.GuardianID == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidInvoiceID
	}
	if req.TaxRate.IsNegative() {
		return invoicedomain.Invoice{}, invoicedomain.ErrNegativeRate
	}

	issueDate := req.IssueDate
	if issueDate.IsZero() {
		issueDate = s.clock.Now()
	}
	if req.DueDate.Before(issueDate) {
		return invoicedomain.Invoice{}, invoicedomain.ErrDueBeforeIssue
	}

	for _, item := range req.Items {
		if err := validateItemInput(item); err != nil {
			return invoicedomain.Invoice{}, err
		}
	}

	child, err := s.childrepo.FindOne(ctx, &childdomain.Child{ID: req.ChildID, OrgID: orgID})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if child == nil {
		return invoicedomain.Invoice{}, childdomain.ErrNotFound
	}
	guardian, err := s.guardianrepo.FindOne(ctx, &guardiandomain.Guardian{ID: req.GuardianID, OrgID: orgID})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if guardian == nil {
		return invoicedomain.Invoice{}, guardiandomain.ErrNotFound
	}

	org, err := s.loadOrganization(ctx, orgID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	status := invoicedomain.InvoiceStatusSent
	if len(req.Items) == 0 {
		// A zero-item invoice may exist only as a draft.
		status = invoicedomain.InvoiceStatusDraft
	}

	var created invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
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
		invoice := invoicedomain.Invoice{
			ID:            invoiceID,
			OrgID:         orgID,
			InvoiceNumber: number,
			ChildID:       req.ChildID,
			GuardianID:    req.GuardianID,
			Status:        status,
			IssueDate:     issueDate,
			DueDate:       req.DueDate,
			TaxRate:       req.TaxRate,
			Notes:         strings.TrimSpace(req.Notes),
			PublicToken:   uuid.NewString(),
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		items := s.buildItems(orgID, invoiceID, req.Items, now)
		totals := invoicedomain.ComputeTotals(items, invoice.TaxRate)
		invoice.Subtotal = totals.Subtotal
		invoice.TaxAmount = totals.TaxAmount
		invoice.TotalAmount = totals.TotalAmount

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
		created = invoice
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.emitAudit(ctx, "invoice.created", &created, nil)
	return created, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	filter := &invoicedomain.Invoice{OrgID: orgID}
	if req.Status != nil {
		filter.Status = *req.Status
	}
	if req.ChildID != nil {
		filter.ChildID = *req.ChildID
	}
	if req.GuardianID != nil {
		filter.GuardianID = *req.GuardianID
	}

	options := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"created_at": true}}),
	}
	if req.DueFrom != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "due_date",
			Operator: option.GTE,
			Value:    *req.DueFrom,
		}))
	}
	if req.DueTo != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "due_date",
			Operator: option.LTE,
			Value:    *req.DueTo,
		}))
	}

	items, err := s.invoicerepo.Find(ctx, filter, options...)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	invoices := make([]invoicedomain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}

	return invoicedomain.ListInvoiceResponse{Invoices: invoices}, nil
}

func (s *Service) ListReconciled(ctx context.Context) (invoicedomain.ListReconciledResponse, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return invoicedomain.ListReconciledResponse{}, err
	}

	items, err := s.archiverepo.Find(ctx, &invoicedomain.ReconciledInvoice{OrgID: orgID},
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"created_at": true}, Desc: true}))
	if err != nil {
		return invoicedomain.ListReconciledResponse{}, err
	}

	invoices := make([]invoicedomain.ReconciledInvoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}

	return invoicedomain.ListReconciledResponse{Invoices: invoices}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidInvoiceID
	}

	invoice, err := s.loadInvoice(ctx, s.db, orgID, invoiceID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if invoice == nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceNotFound
	}

	return *invoice, nil
}

func (s *Service) loadInvoice(ctx context.Context, tx *gorm.DB, orgID, id snowflake.ID) (*invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := tx.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where(&invoicedomain.Invoice{ID: id, OrgID: orgID}).
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (s *Service) loadOrganization(ctx context.Context, orgID snowflake.ID) (*organizationdomain.Organization, error) {
	org, err := s.orgrepo.FindOne(ctx, &organizationdomain.Organization{ID: orgID})
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, invoicedomain.ErrInvalidOrganization
	}
	return org, nil
}

func (s *Service) buildItems(orgID, invoiceID snowflake.ID, inputs []invoicedomain.ItemInput, now time.Time) []invoicedomain.InvoiceLineItem {
	items := make([]invoicedomain.InvoiceLineItem, 0, len(inputs))
	for i, in := range inputs {
		items = append(items, invoicedomain.InvoiceLineItem{
			ID:          s.genID.Generate(),
			OrgID:       orgID,
			InvoiceID:   invoiceID,
			Position:    i + 1,
			Description: strings.TrimSpace(in.Description),
			Quantity:    in.Quantity,
			Rate:        in.Rate,
			Amount:      invoicedomain.LineAmount(in.Quantity, in.Rate),
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return items
}

// persistTotals rewrites the derived monetary columns from ComputeTotals.
func (s *Service) persistTotals(ctx context.Context, tx *gorm.DB, invoice *invoicedomain.Invoice) error {
	totals := invoicedomain.ComputeTotals(invoice.Items, invoice.TaxRate)
	invoice.Subtotal = totals.Subtotal
	invoice.TaxAmount = totals.TaxAmount
	invoice.TotalAmount = totals.TotalAmount
	invoice.UpdatedAt = s.clock.Now()

	return tx.WithContext(ctx).Model(&invoicedomain.Invoice{}).
		Where("id = ?", invoice.ID).
		Updates(map[string]any{
			"subtotal":     invoice.Subtotal,
			"tax_amount":   invoice.TaxAmount,
			"total_amount": invoice.TotalAmount,
			"updated_at":   invoice.UpdatedAt,
		}).Error
}

func (s *Service) emitAudit(ctx context.Context, action string, invoice *invoicedomain.Invoice, extra map[string]any) {
	if s.auditSvc == nil || invoice == nil {
		return
	}
	metadata := map[string]any{
		"invoice_number": invoice.InvoiceNumber,
		"child_id":       invoice.ChildID.String(),
		"guardian_id":    invoice.GuardianID.String(),
		"status":         string(invoice.Status),
		"total_amount":   invoice.TotalAmount.StringFixed(2),
	}
	for key, value := range extra {
		if key == "" {
			continue
		}
		metadata[key] = value
	}

	targetID := invoice.ID.String()
	orgID := invoice.OrgID
	_ = s.auditSvc.AuditLog(ctx, &orgID, action, "invoice", &targetID, metadata)
}

func (s *Service) orgIDFromContext(ctx context.Context) (snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, invoicedomain.ErrInvalidOrganization
	}
	return orgID, nil
}

func validateItemInput(in invoicedomain.ItemInput) error {
	if strings.TrimSpace(in.Description) == "" {
		return invoicedomain.ErrEmptyDescription
	}
	if in.Quantity.IsNegative() {
		return invoicedomain.ErrNegativeQuantity
	}
	if in.Rate.IsNegative() {
		return invoicedomain.ErrNegativeRate
	}
	return nil
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
