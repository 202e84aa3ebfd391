// Package services – UserService
//
// Read-only directory operations over activated accounts.
package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-dm-backend/internal/domain"
	"github.com/tbourn/go-dm-backend/internal/repo"
)

// UserService lists and resolves user projections.
type UserService struct {
	DB *gorm.DB
}

// NewUserService wires a UserService.
func NewUserService(db *gorm.DB) *UserService { return &UserService{DB: db} }

// ListExcept returns every activated user other than userID, sorted by first
// name.
func (s *UserService) ListExcept(ctx context.Context, userID string) ([]domain.UserInfo, error) {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "ListExcept",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	users, err := repo.ListActivatedUsers(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.UserInfo, 0, len(users))
	for _, u := range users {
		out = append(out, u.Info())
	}
	return out, nil
}

// Get resolves a single activated user.
func (s *UserService) Get(ctx context.Context, id string) (domain.UserInfo, error) {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.String("user.id", id)),
	)
	defer span.End()

	u, err := repo.FindUserByID(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.UserInfo{}, ErrUserNotFound
		}
		return domain.UserInfo{}, err
	}
	if !u.Activated() {
		return domain.UserInfo{}, ErrUserNotFound
	}
	return u.Info(), nil
}
