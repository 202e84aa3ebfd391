// Package handlers exposes the REST surface of the messaging service:
// conversation history, inbox summaries, read receipts, soft deletion, REST
// sends, and the user directory.
//
// Handlers are transport-thin: they read the caller identity stashed by the
// authentication middleware, validate path and query input, delegate to the
// application services, and translate results and sentinel errors into HTTP
// responses. Writes that change what connected peers see are mirrored to the
// realtime hub.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-dm-backend/internal/domain"
	"github.com/tbourn/go-dm-backend/internal/http/middleware"
)

// MessageService is the message lifecycle consumed by the handlers.
type MessageService interface {
	SaveMessage(ctx context.Context, senderID, recipientID, content, messageType string) (*domain.Message, error)
	Conversation(ctx context.Context, userID, otherID string, page, limit int) ([]domain.Message, int64, error)
	ConversationStats(ctx context.Context, userID, otherID string) (int64, *time.Time, error)
	Conversations(ctx context.Context, userID string) ([]domain.ConversationSummary, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkMessageRead(ctx context.Context, messageID, userID string) (*domain.Message, error)
	MarkConversationRead(ctx context.Context, readerID, counterpartID string) (int64, error)
	Delete(ctx context.Context, messageID, requesterID string) (*domain.Message, error)
}

// UserService is the read-only user directory.
type UserService interface {
	ListExcept(ctx context.Context, userID string) ([]domain.UserInfo, error)
	Get(ctx context.Context, id string) (domain.UserInfo, error)
}

// Realtime fans REST writes out to connected peers and reports presence.
type Realtime interface {
	Deliver(msg domain.Message, sender domain.UserInfo)
	NotifyConversationRead(reader domain.UserInfo, counterpartID string)
	OnlineUsers() []string
}

// IdempotencyStore remembers which message a (user, scope, key) produced.
// Lookup returns (nil, nil) when nothing usable is recorded.
type IdempotencyStore interface {
	Lookup(ctx context.Context, userID, scope, key string) (*domain.Message, error)
	Remember(ctx context.Context, userID, scope, key, messageID string) error
}

// Handlers groups the REST endpoints.
type Handlers struct {
	msgSvc  MessageService
	userSvc UserService
	rt      Realtime
	idem    IdempotencyStore
}

// New binds Handlers to its collaborators. idem may be nil, which disables
// Idempotency-Key replays.
func New(msgSvc MessageService, userSvc UserService, rt Realtime, idem IdempotencyStore) *Handlers {
	return &Handlers{msgSvc: msgSvc, userSvc: userSvc, rt: rt, idem: idem}
}

// StatusResponse carries a human-readable outcome with no payload.
type StatusResponse struct {
	Message string `json:"message" example:"Message deleted successfully"`
}

// currentUser returns the authenticated caller or answers 401 and reports
// false. Routes are mounted behind middleware.Authenticate, so the 401 only
// fires when the router is miswired.
func currentUser(c *gin.Context) (domain.UserInfo, bool) {
	info, ok := middleware.CurrentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return domain.UserInfo{}, false
	}
	return info, true
}
