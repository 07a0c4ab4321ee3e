package domain

import (
	"context"
	"errors"
)

type CreateGuardianRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type ListGuardianResponse struct {
	Guardians []Guardian `json:"guardians"`
}

type Service interface {
	Create(ctx context.Context, req CreateGuardianRequest) (Guardian, error)
	List(ctx context.Context) (ListGuardianResponse, error)
	GetByID(ctx context.Context, id string) (Guardian, error)
}

var (
	ErrNotFound     = errors.New("guardian_not_found")
	ErrInvalidName  = errors.New("invalid_guardian_name")
	ErrInvalidEmail = errors.New("invalid_guardian_email")
)
