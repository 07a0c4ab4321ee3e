package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/nestbill/nestbill/internal/audit/domain"
	"github.com/nestbill/nestbill/internal/orgcontext"
	"github.com/nestbill/nestbill/pkg/db/option"
	"github.com/nestbill/nestbill/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node

	repo repository.Repository[auditdomain.AuditLog]
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,

		repo: repository.ProvideStore[auditdomain.AuditLog](p.DB),
	}
}

func (s *Service) AuditLog(ctx context.Context, orgID *snowflake.ID, action string, targetType string, targetID *string, metadata map[string]any) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return auditdomain.ErrInvalidAction
	}

	targetType = strings.TrimSpace(targetType)
	if targetType == "" {
		targetType = "unknown"
	}

	resolvedOrgID := s.resolveOrgID(ctx, orgID)
	if resolvedOrgID == 0 {
		return auditdomain.ErrInvalidOrganization
	}

	payload := datatypes.JSONMap{}
	for key, value := range metadata {
		if key == "" {
			continue
		}
		payload[key] = value
	}

	entry := auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		OrgID:      resolvedOrgID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   payload,
	}

	if err := s.repo.Create(ctx, &entry); err != nil {
		s.log.Warn("audit log write failed", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidOrganization
	}

	filter := &auditdomain.AuditLog{OrgID: orgID}
	if req.Action != "" {
		filter.Action = req.Action
	}
	if req.TargetType != "" {
		filter.TargetType = req.TargetType
	}
	if req.TargetID != "" {
		targetID := req.TargetID
		filter.TargetID = &targetID
	}

	items, err := s.repo.Find(ctx, filter, option.WithSortBy(option.QuerySortBy{
		Allow: map[string]bool{"created_at": true},
		Field: "created_at",
		Desc:  true,
	}))
	if err != nil {
		return auditdomain.ListAuditLogResponse{}, err
	}

	logs := make([]auditdomain.AuditLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		logs = append(logs, *item)
	}

	return auditdomain.ListAuditLogResponse{AuditLogs: logs}, nil
}

func (s *Service) resolveOrgID(ctx context.Context, orgID *snowflake.ID) snowflake.ID {
	if orgID != nil && *orgID != 0 {
		return *orgID
	}
	if fromCtx, ok := orgcontext.OrgIDFromContext(ctx); ok {
		return fromCtx
	}
	return 0
}
