package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/nestbill/nestbill/internal/audit/domain"
	childdomain "github.com/nestbill/nestbill/internal/child/domain"
	"github.com/nestbill/nestbill/internal/clock"
	guardiandomain "github.com/nestbill/nestbill/internal/guardian/domain"
	invoicedomain "github.com/nestbill/nestbill/internal/invoice/domain"
	"github.com/nestbill/nestbill/internal/invoice/format"
	"github.com/nestbill/nestbill/internal/invoice/numbering"
	"github.com/nestbill/nestbill/internal/orgcontext"
	organizationdomain "github.com/nestbill/nestbill/internal/organization/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testFixture struct {
	svc      *Service
	ctx      context.Context
	db       *gorm.DB
	clock    *clock.FakeClock
	org      organizationdomain.Organization
	guardian guardiandomain.Guardian
	child    childdomain.Child
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func setupService(t *testing.T) *testFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&organizationdomain.Organization{},
		&guardiandomain.Guardian{},
		&childdomain.Child{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceLineItem{},
		&invoicedomain.ReconciledInvoice{},
		&numbering.InvoiceSequence{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fakeClock := clock.NewFakeClock(time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC))

	org := organizationdomain.Organization{
		ID:                    node.Generate(),
		Name:                  "Sunny Days Childcare",
		Slug:                  "sunny-days",
		InvoiceNumberTemplate: format.DefaultInvoiceNumberTemplate,
		DefaultTaxRate:        dec("13"),
		Currency:              "USD",
	}
	require.NoError(t, db.Create(&org).Error)

	guardian := guardiandomain.Guardian{
		ID:    node.Generate(),
		OrgID: org.ID,
		Name:  "Robin Okafor",
		Email: "robin@example.com",
	}
	require.NoError(t, db.Create(&guardian).Error)

	child := childdomain.Child{
		ID:         node.Generate(),
		OrgID:      org.ID,
		GuardianID: guardian.ID,
		Name:       "Amara Okafor",
	}
	require.NoError(t, db.Create(&child).Error)

	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fakeClock,
	}).(*Service)

	return &testFixture{
		svc:      svc,
		ctx:      orgcontext.WithOrgID(context.Background(), int64(org.ID)),
		db:       db,
		clock:    fakeClock,
		org:      org,
		guardian: guardian,
		child:    child,
	}
}

func (f *testFixture) createInvoice(t *testing.T, items []invoicedomain.ItemInput, taxRate string) invoicedomain.Invoice {
	t.Helper()

	inv, err := f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{
		ChildID:    f.child.ID,
		GuardianID: f.guardian.ID,
		DueDate:    f.clock.Now().AddDate(0, 1, 0),
		TaxRate:    dec(taxRate),
		Items:      items,
	})
	require.NoError(t, err)
	return inv
}

func careItems() []invoicedomain.ItemInput {
	return []invoicedomain.ItemInput{
		{Description: "Full day care (March)", Quantity: dec("20"), Rate: dec("65.00")},
	}
}

func TestCreate_ComputesTotalsAndNumber(t *testing.T) {
	f := setupService(t)

	inv := f.createInvoice(t, careItems(), "13")

	assert.Equal(t, "INV-202603-00001", inv.InvoiceNumber)
	assert.Equal(t, invoicedomain.InvoiceStatusSent, inv.Status)
	assert.True(t, dec("1300.00").Equal(inv.Subtotal), "got %s", inv.Subtotal)
	assert.True(t, dec("169.00").Equal(inv.TaxAmount))
	assert.True(t, dec("1469.00").Equal(inv.TotalAmount))
	assert.NotEmpty(t, inv.PublicToken)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, 1, inv.Items[0].Position)
	assert.True(t, dec("1300.00").Equal(inv.Items[0].Amount))
}

func TestCreate_NoItemsIsDraft(t *testing.T) {
	f := setupService(t)

	inv := f.createInvoice(t, nil, "13")

	assert.Equal(t, invoicedomain.InvoiceStatusDraft, inv.Status)
	assert.True(t, inv.Subtotal.IsZero())
	assert.True(t, inv.TotalAmount.IsZero())
}

func TestCreate_SequentialNumbers(t *testing.T) {
	f := setupService(t)

	first := f.createInvoice(t, careItems(), "13")
	second := f.createInvoice(t, careItems(), "13")

	assert.Equal(t, "INV-202603-00001", first.InvoiceNumber)
	assert.Equal(t, "INV-202603-00002", second.InvoiceNumber)
}

func TestCreate_Validation(t *testing.T) {
	f := setupService(t)

	base := invoicedomain.CreateInvoiceRequest{
		ChildID:    f.child.ID,
		GuardianID: f.guardian.ID,
		DueDate:    f.clock.Now().AddDate(0, 1, 0),
		TaxRate:    dec("13"),
	}

	t.Run("negative quantity", func(t *testing.T) {
		req := base
		req.Items = []invoicedomain.ItemInput{{Description: "Care", Quantity: dec("-1"), Rate: dec("10")}}
		_, err := f.svc.Create(f.ctx, req)
		assert.ErrorIs(t, err, invoicedomain.ErrNegativeQuantity)
	})

	t.Run("negative rate", func(t *testing.T) {
		req := base
		req.Items = []invoicedomain.ItemInput{{Description: "Care", Quantity: dec("1"), Rate: dec("-10")}}
		_, err := f.svc.Create(f.ctx, req)
		assert.ErrorIs(t, err, invoicedomain.ErrNegativeRate)
	})

	t.Run("empty description", func(t *testing.T) {
		req := base
		req.Items = []invoicedomain.ItemInput{{Description: "   ", Quantity: dec("1"), Rate: dec("10")}}
		_, err := f.svc.Create(f.ctx, req)
		assert.ErrorIs(t, err, invoicedomain.ErrEmptyDescription)
	})

	t.Run("due before issue", func(t *testing.T) {
		req := base
		req.DueDate = f.clock.Now().AddDate(0, 0, -1)
		_, err := f.svc.Create(f.ctx, req)
		assert.ErrorIs(t, err, invoicedomain.ErrDueBeforeIssue)
	})

	t.Run("unknown child", func(t *testing.T) {
		req := base
		req.ChildID = snowflake.ID(12345)
		_, err := f.svc.Create(f.ctx, req)
		assert.ErrorIs(t, err, childdomain.ErrNotFound)
	})

	t.Run("missing org context", func(t *testing.T) {
		_, err := f.svc.Create(context.Background(), base)
		assert.ErrorIs(t, err, invoicedomain.ErrInvalidOrganization)
	})
}

func TestAddItem_RecomputesTotals(t *testing.T) {
	f := setupService(t)
	inv := f.createInvoice(t, careItems(), "13")

	item, err := f.svc.AddItem(f.ctx, inv.ID.String(), invoicedomain.ItemInput{
		Description: "Late pickup fee",
		Quantity:    dec("2"),
		Rate:        dec("15.00"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, item.Position)
	assert.True(t, dec("30.00").Equal(item.Amount))

	got, err := f.svc.GetByID(f.ctx, inv.ID.String())
	require.NoError(t, err)
	assert.True(t, dec("1330.00").Equal(got.Subtotal), "got %s", got.Subtotal)
	assert.True(t, dec("172.90").Equal(got.TaxAmount), "got %s", got.TaxAmount)
	assert.True(t, dec("1502.90").Equal(got.TotalAmount))
	require.Len(t, got.Items, 2)
}

func TestUpdateItem_PartialPatchRecomputes(t *testing.T) {
	f := setupService(t)
	inv := f.createInvoice(t, careItems(), "13")

	quantity := dec("10")
	err := f.svc.UpdateItem(f.ctx, inv.ID.String(), inv.Items[0].ID.String(), invoicedomain.UpdateItemRequest{
		Quantity: &quantity,
	})
	require.NoError(t, err)

	got, err := f.svc.GetByID(f.ctx, inv.ID.String())
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, dec("10").Equal(got.Items[0].Quantity))
	assert.Equal(t, "Full day care (March)", got.Items[0].Description)
	assert.True(t, dec("650.00").Equal(got.Subtotal))
	assert.True(t, dec("84.50").Equal(got.TaxAmount))
	assert.True(t, dec("734.50").Equal(got.TotalAmount))
}

func TestUpdateItem_Validation(t *testing.T) {
	f := setupService(t)
	inv := f.createInvoice(t, careItems(), "13")

	negative := dec("-5")
	err := f.svc.UpdateItem(f.ctx, inv.ID.String(), inv.Items[0].ID.String(), invoicedomain.UpdateItemRequest{
		Quantity: &negative,
	})
	assert.ErrorIs(t, err, invoicedomain.ErrNegativeQuantity)

	quantity := dec("5")
	err = f.svc.UpdateItem(f.ctx, inv.ID.String(), f.svc.genID.Generate().String(), invoicedomain.UpdateItemRequest{
		Quantity: &quantity,
	})
	assert.ErrorIs(t, err, invoicedomain.ErrItemNotFound)
}

func TestRemoveItem_RecomputesTotals(t *testing.T) {
	f := setupService(t)
	inv := f.createInvoice(t, []invoicedomain.ItemInput{
		{Description: "Full day care", Quantity: dec("20"), Rate: dec("65.00")},
		{Description: "Meals", Quantity: dec("20"), Rate: dec("8.50")},
	}, "13")

	err := f.svc.RemoveItem(f.ctx, inv.ID.String(), inv.Items[1].ID.String())
	require.NoError(t, err)

	got, err := f.svc.GetByID(f.ctx, inv.ID.String())
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, dec("1300.00").Equal(got.Subtotal))
	assert.True(t, dec("1469.00").Equal(got.TotalAmount))

	err = f.svc.RemoveItem(f.ctx, inv.ID.String(), inv.Items[1].ID.String())
	assert.ErrorIs(t, err, invoicedomain.ErrItemNotFound)
}

func TestAddItem_PositionsStayUniqueAfterRemoval(t *testing.T) {
	f := setupService(t)
	inv := f.createInvoice(t, []invoicedomain.ItemInput{
		{Description: "Full day care", Quantity: dec("20"), Rate: dec("65.00")},
		{Description: "Meals", Quantity: dec("20"), Rate: dec("8.50")},
	}, "13")

	// Removing the first item leaves a hole at position 1; the next add
	// must not collide with the surviving item at position 2.
	require.NoError(t, f.svc.RemoveItem(f.ctx, inv.ID.String(), inv.Items[0].ID.String()))

	added, err := f.svc.AddItem(f.ctx, inv.ID.String(), invoicedomain.ItemInput{
		Description: "Late pickup fee",
		Quantity:    dec("1"),
		Rate:        dec("15.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, added.Position)

	got, err := f.svc.GetByID(f.ctx, inv.ID.String())
	require.NoError(t, err)
	require.Len(t, got.Items, 2)

	seen := map[int]bool{}
	for _, item := range got.Items {
		assert.False(t, seen[item.Position], "position %d assigned twice", item.Position)
		seen[item.Position] = true
	}

	// Insertion order survives the position-ordered listing.
	assert.Equal(t, "Meals", got.Items[0].Description)
	assert.Equal(t, "Late pickup fee", got.Items[1].Description)
}

func TestSend_DraftWithItems(t *testing.T) {
	f := setupService(t)
	inv := f.createInvoice(t, nil, "13")

	_, err := f.svc.AddItem(f.ctx, inv.ID.String(), invoicedomain.ItemInput{
		Description: "Registration fee",
		Quantity:    dec("1"),
		Rate:        dec("50.00"),
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Send(f.ctx, inv.ID.String()))

	got, err := f.svc.GetByID(f.ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusSent, got.Status)
}

func TestSend_EmptyDraftRejected(t *testing.T) {
	f := setupService(t)
	inv := f.createInvoice(t, nil, "13")

	err := f.svc.Send(f.ctx, inv.ID.String())
	assert.ErrorIs(t, err, invoicedomain.ErrNoItems)
}

func TestTransitions_LifecycleEnforced(t *testing.T) {
	f := setupService(t)
	inv := f.createInvoice(t, careItems(), "13")

	require.NoError(t, f.svc.MarkOverdue(f.ctx, inv.ID.String()))

	// overdue -> paid is outside the transition table
	err := f.svc.MarkPaid(f.ctx, inv.ID.String())
	var transitionErr *invoicedomain.InvalidTransitionError
	assert.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, invoicedomain.InvoiceStatusOverdue, transitionErr.From)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, transitionErr.To)
}

func TestReconcile_MovesToArchive(t *testing.T) {
	f := setupService(t)
	inv := f.createInvoice(t, careItems(), "13")
	require.NoError(t, f.svc.MarkPaid(f.ctx, inv.ID.String()))

	f.clock.Advance(48 * time.Hour)
	require.NoError(t, f.svc.Reconcile(f.ctx, inv.ID.String()))

	// Gone from the active table.
	_, err := f.svc.GetByID(f.ctx, inv.ID.String())
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceNotFound)

	// Present in the archive with the reconciliation timestamp.
	resp, err := f.svc.ListReconciled(f.ctx)
	require.NoError(t, err)
	require.Len(t, resp.Invoices, 1)
	archived := resp.Invoices[0]
	assert.Equal(t, inv.ID, archived.ID)
	assert.Equal(t, inv.InvoiceNumber, archived.InvoiceNumber)
	assert.Equal(t, invoicedomain.InvoiceStatusReconciled, archived.Status)
	assert.True(t, archived.ReconciledAt.Equal(f.clock.Now()), "got %s", archived.ReconciledAt)
	assert.True(t, inv.TotalAmount.Equal(archived.TotalAmount))

	// Line items stay behind, still keyed by the invoice ID.
	var itemCount int64
	require.NoError(t, f.db.Model(&invoicedomain.InvoiceLineItem{}).
		Where("invoice_id = ?", inv.ID).Count(&itemCount).Error)
	assert.EqualValues(t, 1, itemCount)
}

func TestReconcile_DraftRejected(t *testing.T) {
	f := setupService(t)
	inv := f.createInvoice(t, nil, "13")

	err := f.svc.Reconcile(f.ctx, inv.ID.String())
	var transitionErr *invoicedomain.InvalidTransitionError
	assert.ErrorAs(t, err, &transitionErr)
}

func TestUnreconcile_RestoresAsPaid(t *testing.T) {
	f := setupService(t)
	inv := f.createInvoice(t, careItems(), "13")
	require.NoError(t, f.svc.MarkPaid(f.ctx, inv.ID.String()))
	require.NoError(t, f.svc.Reconcile(f.ctx, inv.ID.String()))

	require.NoError(t, f.svc.Unreconcile(f.ctx, inv.ID.String()))

	got, err := f.svc.GetByID(f.ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, got.Status)
	assert.Equal(t, inv.InvoiceNumber, got.InvoiceNumber)
	assert.True(t, inv.TotalAmount.Equal(got.TotalAmount))
	require.Len(t, got.Items, 1)

	// Archive row is gone.
	resp, err := f.svc.ListReconciled(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, resp.Invoices)
}

func TestUnreconcile_MissingArchiveRejected(t *testing.T) {
	f := setupService(t)
	inv := f.createInvoice(t, careItems(), "13")

	err := f.svc.Unreconcile(f.ctx, inv.ID.String())
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceNotFound)
}

func TestList_FiltersByStatus(t *testing.T) {
	f := setupService(t)
	first := f.createInvoice(t, careItems(), "13")
	f.createInvoice(t, careItems(), "13")
	require.NoError(t, f.svc.MarkPaid(f.ctx, first.ID.String()))

	paid := invoicedomain.InvoiceStatusPaid
	resp, err := f.svc.List(f.ctx, invoicedomain.ListInvoiceRequest{Status: &paid})
	require.NoError(t, err)
	require.Len(t, resp.Invoices, 1)
	assert.Equal(t, first.ID, resp.Invoices[0].ID)

	all, err := f.svc.List(f.ctx, invoicedomain.ListInvoiceRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Invoices, 2)
}

func TestSnapshot_ActiveInvoice(t *testing.T) {
	f := setupService(t)
	inv := f.createInvoice(t, careItems(), "13")

	snapshot, err := f.svc.Snapshot(f.ctx, inv.ID.String())
	require.NoError(t, err)

	assert.Equal(t, inv.InvoiceNumber, snapshot.InvoiceNumber)
	assert.Equal(t, invoicedomain.InvoiceStatusSent, snapshot.Status)
	assert.Equal(t, f.org.Name, snapshot.OrgName)
	assert.Equal(t, f.child.Name, snapshot.ChildName)
	assert.Equal(t, f.guardian.Name, snapshot.GuardianName)
	assert.Equal(t, f.guardian.Email, snapshot.GuardianEmail)
	require.Len(t, snapshot.Items, 1)
	assert.True(t, dec("1469.00").Equal(snapshot.TotalAmount))
	assert.Nil(t, snapshot.ReconciledAt)
}

func TestSnapshot_ArchivedInvoice(t *testing.T) {
	f := setupService(t)
	inv := f.createInvoice(t, careItems(), "13")
	require.NoError(t, f.svc.MarkPaid(f.ctx, inv.ID.String()))
	require.NoError(t, f.svc.Reconcile(f.ctx, inv.ID.String()))

	snapshot, err := f.svc.Snapshot(f.ctx, inv.ID.String())
	require.NoError(t, err)

	assert.Equal(t, invoicedomain.InvoiceStatusReconciled, snapshot.Status)
	require.NotNil(t, snapshot.ReconciledAt)
	require.Len(t, snapshot.Items, 1)
	assert.True(t, dec("1469.00").Equal(snapshot.TotalAmount))
}

func TestAudit_RecordsLifecycle(t *testing.T) {
	f := setupService(t)

	auditSvc := &recordingAudit{}
	f.svc.auditSvc = auditSvc

	inv := f.createInvoice(t, careItems(), "13")
	require.NoError(t, f.svc.MarkPaid(f.ctx, inv.ID.String()))

	assert.Equal(t, []string{"invoice.created", "invoice.paid"}, auditSvc.actions)
}

type recordingAudit struct {
	actions []string
}

func (r *recordingAudit) AuditLog(ctx context.Context, orgID *snowflake.ID, action string, targetType string, targetID *string, metadata map[string]any) error {
	r.actions = append(r.actions, action)
	return nil
}

func (r *recordingAudit) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	return auditdomain.ListAuditLogResponse{}, nil
}
