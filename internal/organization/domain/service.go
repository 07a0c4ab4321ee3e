package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type CreateOrganizationRequest struct {
	Name           string          `json:"name"`
	SupportEmail   string          `json:"support_email"`
	DefaultTaxRate decimal.Decimal `json:"default_tax_rate"`
	Currency       string          `json:"currency"`
}

type ListOrganizationResponse struct {
	Organizations []Organization `json:"organizations"`
}

type Service interface {
	Create(ctx context.Context, req CreateOrganizationRequest) (Organization, error)
	List(ctx context.Context) (ListOrganizationResponse, error)
	GetByID(ctx context.Context, id string) (Organization, error)
}

var (
	ErrNotFound     = errors.New("organization_not_found")
	ErrInvalidName  = errors.New("invalid_organization_name")
	ErrSlugConflict = errors.New("organization_slug_conflict")
)
