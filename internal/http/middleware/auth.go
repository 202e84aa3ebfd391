// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer authentication for the REST API. The caller's
// identity is resolved once per request and stored in the Gin context, where
// handlers, the idempotency validator, the rate limiter, and the access log
// pick it up.
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-dm-backend/internal/auth"
	"github.com/tbourn/go-dm-backend/internal/domain"
	"github.com/tbourn/go-dm-backend/internal/services"
)

const (
	ctxKeyUserID = "userID"
	ctxKeyUser   = "user"
)

// Authenticator resolves a bearer credential to an activated identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.UserInfo, error)
}

// Authenticate returns a middleware that requires Authorization: Bearer <token>.
//
// Responses on failure use the shared error envelope:
//   - 401 unauthorized: missing, malformed, expired, or unknown credential,
//     or an account that is not activated
//   - 500 internal_error: the user store could not be consulted
func Authenticate(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			abortAuth(c, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}

		info, err := a.Authenticate(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
				abortAuth(c, http.StatusUnauthorized, "unauthorized", "invalid token")
			case services.IsAuthError(err):
				abortAuth(c, http.StatusUnauthorized, "unauthorized", "user not found or not activated")
			default:
				LoggerFrom(c).Error().Err(err).Msg("authentication failed")
				abortAuth(c, http.StatusInternalServerError, "internal_error", "internal server error")
			}
			return
		}

		c.Set(ctxKeyUserID, info.UserID)
		c.Set(ctxKeyUser, info)
		l := LoggerFrom(c).With().Str("user_id", info.UserID).Logger()
		c.Set(ctxKeyLogger, &l)

		c.Next()
	}
}

// CurrentUser returns the identity stored by Authenticate.
func CurrentUser(c *gin.Context) (domain.UserInfo, bool) {
	v, ok := c.Get(ctxKeyUser)
	if !ok {
		return domain.UserInfo{}, false
	}
	info, ok := v.(domain.UserInfo)
	return info, ok && info.UserID != ""
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func abortAuth(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": requestIDFrom(c),
		"code":       code,
		"message":    msg,
	})
}
