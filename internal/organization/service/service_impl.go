package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/nestbill/nestbill/internal/invoice/format"
	organizationdomain "github.com/nestbill/nestbill/internal/organization/domain"
	"github.com/nestbill/nestbill/pkg/db"
	"github.com/nestbill/nestbill/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node

	orgrepo repository.Repository[organizationdomain.Organization]
}

func NewService(p ServiceParam) organizationdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("organization.service"),
		genID: p.GenID,

		orgrepo: repository.ProvideStore[organizationdomain.Organization](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req organizationdomain.CreateOrganizationRequest) (organizationdomain.Organization, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return organizationdomain.Organization{}, organizationdomain.ErrInvalidName
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}

	org := organizationdomain.Organization{
		ID:                    s.genID.Generate(),
		Name:                  name,
		Slug:                  slug.Make(name),
		SupportEmail:          strings.TrimSpace(req.SupportEmail),
		InvoiceNumberTemplate: format.DefaultInvoiceNumberTemplate,
		DefaultTaxRate:        req.DefaultTaxRate,
		Currency:              currency,
	}

	if err := s.orgrepo.Create(ctx, &org); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return organizationdomain.Organization{}, organizationdomain.ErrSlugConflict
		}
		return organizationdomain.Organization{}, err
	}

	s.log.Info("organization created", zap.String("org_id", org.ID.String()), zap.String("slug", org.Slug))
	return org, nil
}

func (s *Service) List(ctx context.Context) (organizationdomain.ListOrganizationResponse, error) {
	items, err := s.orgrepo.Find(ctx, &organizationdomain.Organization{})
	if err != nil {
		return organizationdomain.ListOrganizationResponse{}, err
	}

	orgs := make([]organizationdomain.Organization, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		orgs = append(orgs, *item)
	}

	return organizationdomain.ListOrganizationResponse{Organizations: orgs}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (organizationdomain.Organization, error) {
	orgID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return organizationdomain.Organization{}, organizationdomain.ErrNotFound
	}

	item, err := s.orgrepo.FindOne(ctx, &organizationdomain.Organization{ID: orgID})
	if err != nil {
		return organizationdomain.Organization{}, err
	}
	if item == nil {
		return organizationdomain.Organization{}, organizationdomain.ErrNotFound
	}

	return *item, nil
}
