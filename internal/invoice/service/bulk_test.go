package service

import (
	"testing"

	childdomain "github.com/nestbill/nestbill/internal/child/domain"
	guardiandomain "github.com/nestbill/nestbill/internal/guardian/domain"
	invoicedomain "github.com/nestbill/nestbill/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *testFixture) addRecipient(t *testing.T) invoicedomain.Recipient {
	t.Helper()

	guardian := guardiandomain.Guardian{
		ID:    f.svc.genID.Generate(),
		OrgID: f.org.ID,
		Name:  "Extra Guardian",
		Email: "extra@example.com",
	}
	require.NoError(t, f.db.Create(&guardian).Error)

	child := childdomain.Child{
		ID:         f.svc.genID.Generate(),
		OrgID:      f.org.ID,
		GuardianID: guardian.ID,
		Name:       "Extra Child",
	}
	require.NoError(t, f.db.Create(&child).Error)

	return invoicedomain.Recipient{ChildID: child.ID, GuardianID: guardian.ID}
}

func monthlyTemplate() []invoicedomain.ItemInput {
	return []invoicedomain.ItemInput{
		{Description: "Full day care (March)", Quantity: dec("20"), Rate: dec("65.00")},
		{Description: "Meals", Quantity: dec("20"), Rate: dec("8.50")},
	}
}

func TestGenerateBulk_FanOut(t *testing.T) {
	f := setupService(t)

	recipients := []invoicedomain.Recipient{
		{ChildID: f.child.ID, GuardianID: f.guardian.ID},
		f.addRecipient(t),
		f.addRecipient(t),
	}

	resp, err := f.svc.GenerateBulk(f.ctx, invoicedomain.GenerateBulkRequest{
		Recipients:    recipients,
		TemplateItems: monthlyTemplate(),
		DueDate:       f.clock.Now().AddDate(0, 1, 0),
		TaxRate:       dec("13"),
	})
	require.NoError(t, err)
	require.Len(t, resp.Invoices, 3)

	// Per-invoice: 1300 + 170 = 1470 subtotal, 13% tax = 191.10, total 1661.10
	numbers := map[string]bool{}
	for i, inv := range resp.Invoices {
		assert.Equal(t, recipients[i].ChildID, inv.ChildID)
		assert.Equal(t, recipients[i].GuardianID, inv.GuardianID)
		assert.Equal(t, invoicedomain.InvoiceStatusSent, inv.Status)
		assert.True(t, dec("1470.00").Equal(inv.Subtotal), "got %s", inv.Subtotal)
		assert.True(t, dec("191.10").Equal(inv.TaxAmount))
		assert.True(t, dec("1661.10").Equal(inv.TotalAmount))
		require.Len(t, inv.Items, 2)
		numbers[inv.InvoiceNumber] = true
	}
	assert.Len(t, numbers, 3, "invoice numbers must be unique")

	assert.True(t, dec("4983.30").Equal(resp.AggregateTotal), "got %s", resp.AggregateTotal)
}

func TestGenerateBulk_ItemsAreIndependentCopies(t *testing.T) {
	f := setupService(t)

	recipients := []invoicedomain.Recipient{
		{ChildID: f.child.ID, GuardianID: f.guardian.ID},
		f.addRecipient(t),
	}

	resp, err := f.svc.GenerateBulk(f.ctx, invoicedomain.GenerateBulkRequest{
		Recipients:    recipients,
		TemplateItems: monthlyTemplate(),
		DueDate:       f.clock.Now().AddDate(0, 1, 0),
		TaxRate:       dec("13"),
	})
	require.NoError(t, err)
	require.Len(t, resp.Invoices, 2)

	first, second := resp.Invoices[0], resp.Invoices[1]
	assert.NotEqual(t, first.Items[0].ID, second.Items[0].ID)

	// Editing a line on one generated invoice must not touch its sibling.
	quantity := dec("5")
	require.NoError(t, f.svc.UpdateItem(f.ctx, first.ID.String(), first.Items[0].ID.String(), invoicedomain.UpdateItemRequest{
		Quantity: &quantity,
	}))

	got, err := f.svc.GetByID(f.ctx, second.ID.String())
	require.NoError(t, err)
	assert.True(t, dec("1470.00").Equal(got.Subtotal))
	assert.True(t, dec("20").Equal(got.Items[0].Quantity))
}

func TestGenerateBulk_EmptyTemplateRejected(t *testing.T) {
	f := setupService(t)

	_, err := f.svc.GenerateBulk(f.ctx, invoicedomain.GenerateBulkRequest{
		Recipients: []invoicedomain.Recipient{
			{ChildID: f.child.ID, GuardianID: f.guardian.ID},
		},
		DueDate: f.clock.Now().AddDate(0, 1, 0),
		TaxRate: dec("13"),
	})
	assert.ErrorIs(t, err, invoicedomain.ErrEmptyTemplate)
}

func TestGenerateBulk_NoRecipients(t *testing.T) {
	f := setupService(t)

	resp, err := f.svc.GenerateBulk(f.ctx, invoicedomain.GenerateBulkRequest{
		TemplateItems: monthlyTemplate(),
		DueDate:       f.clock.Now().AddDate(0, 1, 0),
		TaxRate:       dec("13"),
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Invoices)
	assert.True(t, resp.AggregateTotal.IsZero())

	var count int64
	require.NoError(t, f.db.Model(&invoicedomain.Invoice{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGenerateBulk_InvalidTemplateItem(t *testing.T) {
	f := setupService(t)

	_, err := f.svc.GenerateBulk(f.ctx, invoicedomain.GenerateBulkRequest{
		Recipients: []invoicedomain.Recipient{
			{ChildID: f.child.ID, GuardianID: f.guardian.ID},
		},
		TemplateItems: []invoicedomain.ItemInput{
			{Description: "Care", Quantity: dec("-1"), Rate: dec("10")},
		},
		DueDate: f.clock.Now().AddDate(0, 1, 0),
		TaxRate: dec("13"),
	})
	assert.ErrorIs(t, err, invoicedomain.ErrNegativeQuantity)
}
