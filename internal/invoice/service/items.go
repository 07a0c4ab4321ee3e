package service

import (
	"context"
	"strings"

	invoicedomain "github.com/nestbill/nestbill/internal/invoice/domain"
	"gorm.io/gorm"
)

func (s *Service) AddItem(ctx context.Context, invoiceID string, item invoicedomain.ItemInput) (invoicedomain.InvoiceLineItem, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return invoicedomain.InvoiceLineItem{}, err
	}

	id, err := parseID(invoiceID)
	if err != nil {
		return invoicedomain.InvoiceLineItem{}, invoicedomain.ErrInvalidInvoiceID
	}
	if err := validateItemInput(item); err != nil {
		return invoicedomain.InvoiceLineItem{}, err
	}

	var created invoicedomain.InvoiceLineItem
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.loadInvoice(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}

		// Past the highest surviving position, not the item count:
		// removals leave holes, and reusing a taken position breaks the
		// insertion-order listing.
		nextPos := 0
		for _, existing := range invoice.Items {
			if existing.Position > nextPos {
				nextPos = existing.Position
			}
		}

		now := s.clock.Now()
		created = invoicedomain.InvoiceLineItem{
			ID:          s.genID.Generate(),
			OrgID:       orgID,
			InvoiceID:   invoice.ID,
			Position:    nextPos + 1,
			Description: strings.TrimSpace(item.Description),
			Quantity:    item.Quantity,
			Rate:        item.Rate,
			Amount:      invoicedomain.LineAmount(item.Quantity, item.Rate),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.itemrepo.WithTrx(tx).Create(ctx, &created); err != nil {
			return err
		}

		invoice.Items = append(invoice.Items, created)
		return s.persistTotals(ctx, tx, invoice)
	})
	if err != nil {
		return invoicedomain.InvoiceLineItem{}, err
	}

	return created, nil
}

func (s *Service) UpdateItem(ctx context.Context, invoiceID, itemID string, req invoicedomain.UpdateItemRequest) error {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return err
	}

	id, err := parseID(invoiceID)
	if err != nil {
		return invoicedomain.ErrInvalidInvoiceID
	}
	targetID, err := parseID(itemID)
	if err != nil {
		return invoicedomain.ErrItemNotFound
	}

	if req.Description != nil && strings.TrimSpace(*req.Description) == "" {
		return invoicedomain.ErrEmptyDescription
	}
	if req.Quantity != nil && req.Quantity.IsNegative() {
		return invoicedomain.ErrNegativeQuantity
	}
	if req.Rate != nil && req.Rate.IsNegative() {
		return invoicedomain.ErrNegativeRate
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.loadInvoice(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}

		var target *invoicedomain.InvoiceLineItem
		for i := range invoice.Items {
			if invoice.Items[i].ID == targetID {
				target = &invoice.Items[i]
				break
			}
		}
		if target == nil {
			return invoicedomain.ErrItemNotFound
		}

		if req.Description != nil {
			target.Description = strings.TrimSpace(*req.Description)
		}
		if req.Quantity != nil {
			target.Quantity = *req.Quantity
		}
		if req.Rate != nil {
			target.Rate = *req.Rate
		}
		target.Amount = invoicedomain.LineAmount(target.Quantity, target.Rate)
		target.UpdatedAt = s.clock.Now()

		// Column map instead of a struct patch: zero quantities are legal
		// and must not be skipped as empty fields.
		if err := tx.WithContext(ctx).Model(&invoicedomain.InvoiceLineItem{}).
			Where("id = ?", target.ID).
			Updates(map[string]any{
				"description": target.Description,
				"quantity":    target.Quantity,
				"rate":        target.Rate,
				"amount":      target.Amount,
				"updated_at":  target.UpdatedAt,
			}).Error; err != nil {
			return err
		}
		return s.persistTotals(ctx, tx, invoice)
	})
}

func (s *Service) RemoveItem(ctx context.Context, invoiceID, itemID string) error {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return err
	}

	id, err := parseID(invoiceID)
	if err != nil {
		return invoicedomain.ErrInvalidInvoiceID
	}
	targetID, err := parseID(itemID)
	if err != nil {
		return invoicedomain.ErrItemNotFound
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.loadInvoice(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}

		remaining := invoice.Items[:0]
		found := false
		for _, item := range invoice.Items {
			if item.ID == targetID {
				found = true
				continue
			}
			remaining = append(remaining, item)
		}
		if !found {
			return invoicedomain.ErrItemNotFound
		}

		if err := tx.WithContext(ctx).
			Where("id = ? AND invoice_id = ?", targetID, invoice.ID).
			Delete(&invoicedomain.InvoiceLineItem{}).Error; err != nil {
			return err
		}

		invoice.Items = remaining
		return s.persistTotals(ctx, tx, invoice)
	})
}
