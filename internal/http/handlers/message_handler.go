// Message HTTP handlers.
//
// This file exposes the REST endpoints for direct messages:
//   - POST   /messages                          (send, Idempotency-Key aware)
//   - GET    /messages/conversation/{userId}    (history, paginated, ETag)
//   - GET    /messages/conversations            (inbox summaries)
//   - GET    /messages/unread-count
//   - PATCH  /messages/{messageId}/read
//   - PATCH  /messages/conversation/{userId}/read
//   - DELETE /messages/{messageId}              (soft delete)
//
// Sends and conversation read receipts are mirrored to connected peers
// through the realtime hub, exactly as if they had arrived over the socket.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/tbourn/go-dm-backend/internal/domain"
	"github.com/tbourn/go-dm-backend/internal/http/middleware"
	"github.com/tbourn/go-dm-backend/internal/realtime"
	"github.com/tbourn/go-dm-backend/internal/services"
	"github.com/tbourn/go-dm-backend/internal/utils"
)

const (
	defaultConversationLimit = 50
	maxConversationLimit     = 100
)

//
// DTOs
//

// SendMessageRequest is the JSON payload for POST /messages.
type SendMessageRequest struct {
	RecipientID string `json:"recipientId" example:"6650c1f4e13b2a0012345678"`
	Content     string `json:"content" example:"See you at 6?"`
	// MessageType is one of text, image, file; empty means text.
	MessageType string `json:"messageType,omitempty" example:"text"`
}

// MessageResponse wraps a single normalized message.
type MessageResponse struct {
	Message string             `json:"message" example:"Message sent successfully"`
	Data    domain.MessageView `json:"data"`
}

// Pagination describes one page of conversation history.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Count      int   `json:"count"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
}

// ConversationResponse is one page of history in chronological order.
type ConversationResponse struct {
	Message    string               `json:"message" example:"Conversation retrieved successfully"`
	Data       []domain.MessageView `json:"data"`
	Pagination Pagination           `json:"pagination"`
}

// ConversationsResponse is the caller's inbox, most recent first.
type ConversationsResponse struct {
	Message string                       `json:"message" example:"Conversations retrieved successfully"`
	Data    []domain.ConversationSummary `json:"data"`
	Count   int                          `json:"count"`
}

// UnreadCountResponse carries the caller's unread total.
type UnreadCountResponse struct {
	Message     string `json:"message" example:"Unread messages count retrieved successfully"`
	UnreadCount int64  `json:"unreadCount" example:"3"`
}

// MarkReadResponse reports how many messages a conversation read changed.
type MarkReadResponse struct {
	Message       string `json:"message" example:"Conversation marked as read"`
	ModifiedCount int64  `json:"modifiedCount" example:"2"`
}

//
// Helpers
//

func views(items []domain.Message) []domain.MessageView {
	out := make([]domain.MessageView, 0, len(items))
	for _, m := range items {
		out = append(out, m.View())
	}
	return out
}

// IdempotencyScope derives the deduplication scope of a send: the
// conversation between the caller and the body's recipient. The body is
// cached on the context, so the handler can bind it again. Non-send requests
// and unreadable bodies yield "".
func IdempotencyScope(c *gin.Context) string {
	if c.Request.Method != http.MethodPost {
		return ""
	}
	uid := middleware.UserID(c)
	if uid == "" {
		return ""
	}
	var req SendMessageRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		return ""
	}
	rid := strings.TrimSpace(req.RecipientID)
	if rid == "" {
		return ""
	}
	return realtime.ConversationID(uid, rid)
}

//
// Handlers
//

// SendMessage godoc
// @ID          sendMessage
// @Summary     Send a direct message
// @Description Persists a message to recipientId and pushes it to connected peers.
// @Description Retries carrying the same Idempotency-Key return the original message.
// @Tags        Messages
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"
// @Param       body             body    handlers.SendMessageRequest  true  "Message payload"
// @Success     201  {object}  handlers.MessageResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /messages [post]
func (h *Handlers) SendMessage(c *gin.Context) {
	ctx := c.Request.Context()
	sender, authed := currentUser(c)
	if !authed {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	recipientID := strings.TrimSpace(req.RecipientID)
	if recipientID == "" || strings.TrimSpace(req.Content) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Recipient ID and content are required")
		return
	}

	scope := middleware.GetIdempotencyScope(c)
	if scope == "" {
		scope = realtime.ConversationID(sender.UserID, recipientID)
	}
	key, hasKey := middleware.GetIdempotencyKey(c)
	if hasKey && h.idem != nil {
		prev, err := h.idem.Lookup(ctx, sender.UserID, scope, key)
		if err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
		} else if prev != nil {
			middleware.LoggerFrom(c).Debug().Bool("validator_hit", middleware.IsReplay(c)).Str("message_id", prev.ID).Msg("idempotent replay")
			c.Header("Idempotency-Replayed", "true")
			ok(c, http.StatusCreated, MessageResponse{Message: "Message sent successfully", Data: prev.View()})
			return
		}
	}

	m, err := h.msgSvc.SaveMessage(ctx, sender.UserID, recipientID, req.Content, req.MessageType)
	if err != nil {
		if services.IsValidation(err) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		middleware.LoggerFrom(c).Error().Err(err).Msg("send message failed")
		fail(c, http.StatusInternalServerError, ErrCodeSendFailed, "failed to send message")
		return
	}

	if hasKey && h.idem != nil {
		if err := h.idem.Remember(ctx, sender.UserID, scope, key, m.ID); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Str("message_id", m.ID).Msg("idempotency record not stored")
		}
	}

	h.rt.Deliver(*m, sender)
	ok(c, http.StatusCreated, MessageResponse{Message: "Message sent successfully", Data: m.View()})
}

// GetConversation godoc
// @ID          getConversation
// @Summary     Conversation history with a user
// @Description Pages count back from the newest message; each page is returned oldest first.
// @Description Supports If-None-Match with a weak ETag.
// @Tags        Messages
// @Produce     json
// @Security    BearerAuth
// @Param       userId  path   string  true   "Counterpart user id"
// @Param       page    query  int     false  "Page number"     minimum(1) default(1)
// @Param       limit   query  int     false  "Items per page"  minimum(1) maximum(100) default(50)
// @Success     200  {object}  handlers.ConversationResponse
// @Success     304  "Not modified"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /messages/conversation/{userId} [get]
func (h *Handlers) GetConversation(c *gin.Context) {
	ctx := c.Request.Context()
	me, authed := currentUser(c)
	if !authed {
		return
	}
	otherID := strings.TrimSpace(c.Param("userId"))
	if otherID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "userId is required")
		return
	}

	page, limit := utils.PageParams(c.Query("page"), c.Query("limit"), defaultConversationLimit, maxConversationLimit)

	// ETag pre-check (best effort): the validator covers the pair's visible
	// history plus the requested window.
	if count, maxTS, err := h.msgSvc.ConversationStats(ctx, me.UserID, otherID); err == nil {
		etag := utils.WeakETag("conversation",
			realtime.ConversationID(me.UserID, otherID),
			strconv.FormatInt(count, 10),
			strconv.FormatInt(utils.UnixNanoOrZero(maxTS), 10),
			strconv.Itoa(page),
			strconv.Itoa(limit),
		)
		c.Header("ETag", etag)
		if utils.ETagMatches(c.GetHeader("If-None-Match"), etag) {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.msgSvc.Conversation(ctx, me.UserID, otherID, page, limit)
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Str("other_id", otherID).Msg("conversation query failed")
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "failed to load conversation")
		return
	}

	totalPages := utils.TotalPages(total, limit)
	ok(c, http.StatusOK, ConversationResponse{
		Message: "Conversation retrieved successfully",
		Data:    views(items),
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Count:      len(items),
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetConversations godoc
// @ID          getConversations
// @Summary     Inbox summaries
// @Description One entry per counterpart with the last message and unread count, most recent first.
// @Tags        Messages
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.ConversationsResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /messages/conversations [get]
func (h *Handlers) GetConversations(c *gin.Context) {
	me, authed := currentUser(c)
	if !authed {
		return
	}
	items, err := h.msgSvc.Conversations(c.Request.Context(), me.UserID)
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("inbox query failed")
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "failed to load conversations")
		return
	}
	if items == nil {
		items = []domain.ConversationSummary{}
	}
	ok(c, http.StatusOK, ConversationsResponse{
		Message: "Conversations retrieved successfully",
		Data:    items,
		Count:   len(items),
	})
}

// GetUnreadCount godoc
// @ID          getUnreadCount
// @Summary     Unread message count
// @Tags        Messages
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.UnreadCountResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /messages/unread-count [get]
func (h *Handlers) GetUnreadCount(c *gin.Context) {
	me, authed := currentUser(c)
	if !authed {
		return
	}
	n, err := h.msgSvc.UnreadCount(c.Request.Context(), me.UserID)
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("unread count failed")
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "failed to count unread messages")
		return
	}
	ok(c, http.StatusOK, UnreadCountResponse{
		Message:     "Unread messages count retrieved successfully",
		UnreadCount: n,
	})
}

// MarkMessageRead godoc
// @ID          markMessageRead
// @Summary     Mark one message as read
// @Description Only the recipient can mark a message, and only once.
// @Tags        Messages
// @Produce     json
// @Security    BearerAuth
// @Param       messageId  path  string  true  "Message id"
// @Success     200  {object}  handlers.MessageResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Not found or already read"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /messages/{messageId}/read [patch]
func (h *Handlers) MarkMessageRead(c *gin.Context) {
	me, authed := currentUser(c)
	if !authed {
		return
	}
	m, err := h.msgSvc.MarkMessageRead(c.Request.Context(), c.Param("messageId"), me.UserID)
	if err != nil {
		if errors.Is(err, services.ErrMessageNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "message not found or already read")
			return
		}
		middleware.LoggerFrom(c).Error().Err(err).Msg("mark message read failed")
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, "failed to mark message as read")
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: "Message marked as read", Data: m.View()})
}

// MarkConversationRead godoc
// @ID          markConversationRead
// @Summary     Mark a conversation as read
// @Description Marks every unread message from userId to the caller as read and notifies connected peers.
// @Tags        Messages
// @Produce     json
// @Security    BearerAuth
// @Param       userId  path  string  true  "Counterpart user id"
// @Success     200  {object}  handlers.MarkReadResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /messages/conversation/{userId}/read [patch]
func (h *Handlers) MarkConversationRead(c *gin.Context) {
	me, authed := currentUser(c)
	if !authed {
		return
	}
	otherID := strings.TrimSpace(c.Param("userId"))
	if otherID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "userId is required")
		return
	}
	n, err := h.msgSvc.MarkConversationRead(c.Request.Context(), me.UserID, otherID)
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Str("other_id", otherID).Msg("mark conversation read failed")
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, "failed to mark conversation as read")
		return
	}
	h.rt.NotifyConversationRead(me, otherID)
	ok(c, http.StatusOK, MarkReadResponse{Message: "Conversation marked as read", ModifiedCount: n})
}

// DeleteMessage godoc
// @ID          deleteMessage
// @Summary     Delete a message
// @Description Soft-deletes a message the caller sent or received.
// @Tags        Messages
// @Produce     json
// @Security    BearerAuth
// @Param       messageId  path  string  true  "Message id"
// @Success     200  {object}  handlers.StatusResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /messages/{messageId} [delete]
func (h *Handlers) DeleteMessage(c *gin.Context) {
	me, authed := currentUser(c)
	if !authed {
		return
	}
	if _, err := h.msgSvc.Delete(c.Request.Context(), c.Param("messageId"), me.UserID); err != nil {
		if errors.Is(err, services.ErrMessageNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "message not found or you don't have permission to delete it")
			return
		}
		middleware.LoggerFrom(c).Error().Err(err).Msg("delete message failed")
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, "failed to delete message")
		return
	}
	ok(c, http.StatusOK, StatusResponse{Message: "Message deleted successfully"})
}
