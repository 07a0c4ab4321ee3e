package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	childdomain "github.com/nestbill/nestbill/internal/child/domain"
	"github.com/nestbill/nestbill/internal/clock"
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
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	repo         repository.Repository[childdomain.Child]
	guardianrepo repository.Repository[guardiandomain.Guardian]
}

func NewService(p ServiceParam) childdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("child.service"),
		genID: p.GenID,
		clock: p.Clock,

		repo:         repository.ProvideStore[childdomain.Child](p.DB),
		guardianrepo: repository.ProvideStore[guardiandomain.Guardian](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req childdomain.CreateChildRequest) (childdomain.Child, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return childdomain.Child{}, childdomain.ErrNotFound
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return childdomain.Child{}, childdomain.ErrInvalidName
	}
	if req.GuardianID == 0 {
		return childdomain.Child{}, childdomain.ErrInvalidGuardian
	}

	guardian, err := s.guardianrepo.FindOne(ctx, &guardiandomain.Guardian{ID: req.GuardianID, OrgID: orgID})
	if err != nil {
		return childdomain.Child{}, err
	}
	if guardian == nil {
		return childdomain.Child{}, childdomain.ErrInvalidGuardian
	}

	child := childdomain.Child{
		ID:         s.genID.Generate(),
		OrgID:      orgID,
		GuardianID: req.GuardianID,
		Name:       name,
		BirthDate:  req.BirthDate,
		EnrolledAt: s.clock.Now(),
	}

	if err := s.repo.Create(ctx, &child); err != nil {
		return childdomain.Child{}, err
	}

	return child, nil
}

func (s *Service) List(ctx context.Context, req childdomain.ListChildRequest) (childdomain.ListChildResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return childdomain.ListChildResponse{}, childdomain.ErrNotFound
	}

	filter := &childdomain.Child{OrgID: orgID}
	if req.GuardianID != nil {
		filter.GuardianID = *req.GuardianID
	}

	items, err := s.repo.Find(ctx, filter)
	if err != nil {
		return childdomain.ListChildResponse{}, err
	}

	children := make([]childdomain.Child, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		children = append(children, *item)
	}

	return childdomain.ListChildResponse{Children: children}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (childdomain.Child, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return childdomain.Child{}, childdomain.ErrNotFound
	}

	childID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return childdomain.Child{}, childdomain.ErrNotFound
	}

	item, err := s.repo.FindOne(ctx, &childdomain.Child{ID: childID, OrgID: orgID})
	if err != nil {
		return childdomain.Child{}, err
	}
	if item == nil {
		return childdomain.Child{}, childdomain.ErrNotFound
	}

	return *item, nil
}
