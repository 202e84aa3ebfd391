// Package services – IdentityService
//
// IdentityService resolves a bearer credential to the read-only identity
// projection attached to HTTP requests and websocket sessions. The credential
// must verify and the account must exist and be activated.
package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/tbourn/go-dm-backend/internal/auth"
	"github.com/tbourn/go-dm-backend/internal/domain"
	"github.com/tbourn/go-dm-backend/internal/repo"
)

// TokenParser verifies a raw bearer credential.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// IdentityService authenticates bearer credentials against the user store.
type IdentityService struct {
	DB     *gorm.DB
	Tokens TokenParser
}

// NewIdentityService wires an IdentityService.
func NewIdentityService(db *gorm.DB, tokens TokenParser) *IdentityService {
	return &IdentityService{DB: db, Tokens: tokens}
}

// Authenticate verifies token and returns the caller's identity.
//
// Errors: auth.ErrMissingToken, auth.ErrInvalidToken, ErrUserNotFound,
// ErrInactiveAccount, or a raw persistence error.
func (s *IdentityService) Authenticate(ctx context.Context, token string) (domain.UserInfo, error) {
	tr := otel.Tracer("services/IdentityService")
	ctx, span := tr.Start(ctx, "Authenticate")
	defer span.End()

	claims, err := s.Tokens.Parse(token)
	if err != nil {
		span.SetStatus(codes.Error, "credential rejected")
		return domain.UserInfo{}, err
	}
	span.SetAttributes(attribute.String("user.id", claims.UserID))

	u, err := repo.FindUserByID(ctx, s.DB, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.UserInfo{}, ErrUserNotFound
		}
		span.RecordError(err)
		return domain.UserInfo{}, err
	}
	if !u.Activated() {
		return domain.UserInfo{}, ErrInactiveAccount
	}
	return u.Info(), nil
}

// IsAuthError reports whether err should be answered as an authentication
// failure rather than an internal error.
func IsAuthError(err error) bool {
	return errors.Is(err, auth.ErrMissingToken) ||
		errors.Is(err, auth.ErrInvalidToken) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrInactiveAccount)
}
