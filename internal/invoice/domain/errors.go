package domain

import "errors"

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvoiceNotFound     = errors.New("invoice_not_found")
	ErrItemNotFound        = errors.New("invoice_item_not_found")
	ErrInvalidInvoiceID    = errors.New("invalid_invoice_id")

	ErrNegativeQuantity = errors.New("negative_quantity")
	ErrNegativeRate     = errors.New("negative_rate")
	ErrEmptyDescription = errors.New("empty_description")
	ErrDueBeforeIssue   = errors.New("due_date_before_issue_date")
	ErrEmptyTemplate    = errors.New("empty_item_template")
	ErrNoItems          = errors.New("invoice_has_no_items")
)

// IsValidation reports whether err is one of the domain's input validation
// failures. Callers translate these into user-facing messages; they never
// indicate a corrupted invoice.
func IsValidation(err error) bool {
	switch {
	case errors.Is(err, ErrNegativeQuantity),
		errors.Is(err, ErrNegativeRate),
		errors.Is(err, ErrEmptyDescription),
		errors.Is(err, ErrDueBeforeIssue),
		errors.Is(err, ErrEmptyTemplate),
		errors.Is(err, ErrNoItems),
		errors.Is(err, ErrInvalidInvoiceID):
		return true
	default:
		return false
	}
}

// IsNotFound reports whether err refers to a missing invoice or item,
// including reconcile/unreconcile calls against the wrong collection.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrInvoiceNotFound) || errors.Is(err, ErrItemNotFound)
}
