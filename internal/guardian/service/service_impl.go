package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	guardiandomain "github.com/nestbill/nestbill/internal/guardian/domain"
	"github.com/nestbill/nestbill/internal/orgcontext"
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

	repo repository.Repository[guardiandomain.Guardian]
}

func NewService(p ServiceParam) guardiandomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("guardian.service"),
		genID: p.GenID,

		repo: repository.ProvideStore[guardiandomain.Guardian](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req guardiandomain.CreateGuardianRequest) (guardiandomain.Guardian, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return guardiandomain.Guardian{}, guardiandomain.ErrNotFound
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return guardiandomain.Guardian{}, guardiandomain.ErrInvalidName
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return guardiandomain.Guardian{}, guardiandomain.ErrInvalidEmail
	}

	guardian := guardiandomain.Guardian{
		ID:    s.genID.Generate(),
		OrgID: orgID,
		Name:  name,
		Email: email,
		Phone: strings.TrimSpace(req.Phone),
	}

	if err := s.repo.Create(ctx, &guardian); err != nil {
		return guardiandomain.Guardian{}, err
	}

	return guardian, nil
}

func (s *Service) List(ctx context.Context) (guardiandomain.ListGuardianResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return guardiandomain.ListGuardianResponse{}, guardiandomain.ErrNotFound
	}

	items, err := s.repo.Find(ctx, &guardiandomain.Guardian{OrgID: orgID})
	if err != nil {
		return guardiandomain.ListGuardianResponse{}, err
	}

	guardians := make([]guardiandomain.Guardian, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		guardians = append(guardians, *item)
	}

	return guardiandomain.ListGuardianResponse{Guardians: guardians}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (guardiandomain.Guardian, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return guardiandomain.Guardian{}, guardiandomain.ErrNotFound
	}

	guardianID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return guardiandomain.Guardian{}, guardiandomain.ErrNotFound
	}

	item, err := s.repo.FindOne(ctx, &guardiandomain.Guardian{ID: guardianID, OrgID: orgID})
	if err != nil {
		return guardiandomain.Guardian{}, err
	}
	if item == nil {
		return guardiandomain.Guardian{}, guardiandomain.ErrNotFound
	}

	return *item, nil
}
