package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_AllowedMoves(t *testing.T) {
	allowed := []struct{ from, to InvoiceStatus }{
		{InvoiceStatusDraft, InvoiceStatusSent},
		{InvoiceStatusSent, InvoiceStatusPaid},
		{InvoiceStatusSent, InvoiceStatusOverdue},
		{InvoiceStatusSent, InvoiceStatusReconciled},
		{InvoiceStatusPaid, InvoiceStatusReconciled},
		{InvoiceStatusOverdue, InvoiceStatusReconciled},
		{InvoiceStatusReconciled, InvoiceStatusPaid},
	}

	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}
}

func TestCanTransition_RejectedMoves(t *testing.T) {
	rejected := []struct{ from, to InvoiceStatus }{
		{InvoiceStatusPaid, InvoiceStatusSent},
		{InvoiceStatusPaid, InvoiceStatusOverdue},
		{InvoiceStatusOverdue, InvoiceStatusPaid},
		{InvoiceStatusOverdue, InvoiceStatusSent},
		{InvoiceStatusReconciled, InvoiceStatusSent},
		{InvoiceStatusReconciled, InvoiceStatusOverdue},
		{InvoiceStatusDraft, InvoiceStatusPaid},
		{InvoiceStatusDraft, InvoiceStatusReconciled},
		{InvoiceStatusSent, InvoiceStatusDraft},
		{InvoiceStatusSent, InvoiceStatusSent},
	}

	for _, tc := range rejected {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s should be rejected", tc.from, tc.to)
	}
}

func TestEnsureTransition_ReturnsTypedError(t *testing.T) {
	err := EnsureTransition(InvoiceStatusOverdue, InvoiceStatusPaid)

	var transitionErr *InvalidTransitionError
	assert.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, InvoiceStatusOverdue, transitionErr.From)
	assert.Equal(t, InvoiceStatusPaid, transitionErr.To)
	assert.Equal(t, "invalid invoice transition from overdue to paid", err.Error())
}

func TestEnsureTransition_NilOnAllowed(t *testing.T) {
	assert.NoError(t, EnsureTransition(InvoiceStatusSent, InvoiceStatusPaid))
}
