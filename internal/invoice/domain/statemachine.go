package domain

import "fmt"

// transitions is the closed set of legal status changes. Reconcile and
// unreconcile additionally move the record between the active and archived
// tables; every other transition mutates status in place.
var transitions = map[InvoiceStatus]map[InvoiceStatus]bool{
	InvoiceStatusDraft: {
		InvoiceStatusSent: true,
	},
	InvoiceStatusSent: {
		InvoiceStatusPaid:       true,
		InvoiceStatusOverdue:    true,
		InvoiceStatusReconciled: true,
	},
	InvoiceStatusPaid: {
		InvoiceStatusReconciled: true,
	},
	InvoiceStatusOverdue: {
		InvoiceStatusReconciled: true,
	},
	InvoiceStatusReconciled: {
		// Unreconcile restores to paid; the prior status is not retained.
		InvoiceStatusPaid: true,
	},
}

// InvalidTransitionError reports a status change outside the closed table.
type InvalidTransitionError struct {
	From InvoiceStatus
	To   InvoiceStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid invoice transition from %s to %s", e.From, e.To)
}

// CanTransition reports whether the status change is legal.
func CanTransition(from, to InvoiceStatus) bool {
	return transitions[from][to]
}

// EnsureTransition returns an InvalidTransitionError when the change is not
// in the transition table.
func EnsureTransition(from, to InvoiceStatus) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}
