package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type CreateChildRequest struct {
	GuardianID snowflake.ID `json:"guardian_id"`
	Name       string       `json:"name"`
	BirthDate  *time.Time   `json:"birth_date"`
}

type ListChildRequest struct {
	GuardianID *snowflake.ID
}

type ListChildResponse struct {
	Children []Child `json:"children"`
}

type Service interface {
	Create(ctx context.Context, req CreateChildRequest) (Child, error)
	List(ctx context.Context, req ListChildRequest) (ListChildResponse, error)
	GetByID(ctx context.Context, id string) (Child, error)
}

var (
	ErrNotFound        = errors.New("child_not_found")
	ErrInvalidName     = errors.New("invalid_child_name")
	ErrInvalidGuardian = errors.New("invalid_guardian")
)
