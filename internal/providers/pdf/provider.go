// Package pdf renders invoice snapshots into printable documents.
package pdf

import (
	"context"
	"io"

	invoicedomain "github.com/nestbill/nestbill/internal/invoice/domain"
)

type Provider interface {
	GenerateInvoice(ctx context.Context, snapshot invoicedomain.Snapshot) (io.Reader, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) GenerateInvoice(ctx context.Context, snapshot invoicedomain.Snapshot) (io.Reader, error) {
	return nil, nil
}
