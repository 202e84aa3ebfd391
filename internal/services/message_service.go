// Package services – MessageService
//
// This file implements MessageService, the application-level component that
// owns the lifecycle of direct messages. It normalizes and validates content,
// persists new messages, serves conversation history and inbox summaries,
// and applies read receipts and soft deletion.
//
// The realtime hub consumes SaveMessage and MarkConversationRead through its
// MessageStore interface; the REST handlers use the rest.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include user identifiers and pagination parameters where applicable.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/tbourn/go-dm-backend/internal/domain"
	"github.com/tbourn/go-dm-backend/internal/repo"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// MessageService coordinates message persistence and retrieval.
type MessageService struct {
	DB *gorm.DB

	// MaxContentRunes caps message length; 0 disables the check.
	MaxContentRunes int

	// Now is the clock used for readAt/deletedAt stamps.
	Now func() time.Time
}

// NewMessageService wires a MessageService with a UTC wall clock.
func NewMessageService(db *gorm.DB, maxContentRunes int) *MessageService {
	return &MessageService{
		DB:              db,
		MaxContentRunes: maxContentRunes,
		Now:             func() time.Time { return time.Now().UTC() },
	}
}

func (s *MessageService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now()
}

// NormalizeContent canonicalizes message text: CRLF to LF, Unicode NFC, and
// surrounding whitespace trimmed.
func NormalizeContent(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = norm.NFC.String(content)
	return strings.TrimSpace(content)
}

// SaveMessage validates the input and persists a new unread message from
// senderID to recipientID. An empty messageType defaults to text.
func (s *MessageService) SaveMessage(ctx context.Context, senderID, recipientID, content, messageType string) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "SaveMessage",
		trace.WithAttributes(
			attribute.String("sender.id", senderID),
			attribute.String("recipient.id", recipientID),
			attribute.String("message.type", messageType),
		),
	)
	defer span.End()

	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return nil, ErrMissingRecipient
	}
	content = NormalizeContent(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if s.MaxContentRunes > 0 && utf8.RuneCountInString(content) > s.MaxContentRunes {
		return nil, ErrContentTooLong
	}
	if messageType == "" {
		messageType = domain.MessageTypeText
	}
	if !domain.ValidMessageType(messageType) {
		return nil, ErrInvalidMessageType
	}

	m, err := repo.SaveMessage(ctx, s.DB, senderID, recipientID, content, messageType)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("message.id", m.ID))
	return m, nil
}

// Conversation returns one page of the history between userID and otherID in
// chronological order, plus the total number of visible messages. Pages count
// backwards from the newest message: page 1 holds the most recent limit
// messages.
func (s *MessageService) Conversation(ctx context.Context, userID, otherID string, page, limit int) ([]domain.Message, int64, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Conversation",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("other.id", otherID),
			attribute.Int("page", page),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := (page - 1) * limit

	total, err := repo.CountConversation(ctx, s.DB, userID, otherID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Message{}, 0, nil
	}

	items, err := repo.ListConversationPage(ctx, s.DB, userID, otherID, offset, limit)
	return items, total, err
}

// ConversationStats returns the visible message count and latest update time
// for the pair; callers derive cache validators from it.
func (s *MessageService) ConversationStats(ctx context.Context, userID, otherID string) (int64, *time.Time, error) {
	return repo.ConversationStats(ctx, s.DB, userID, otherID)
}

// Conversations returns userID's inbox: one summary per counterpart, most
// recent first.
func (s *MessageService) Conversations(ctx context.Context, userID string) ([]domain.ConversationSummary, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Conversations",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	return repo.ListConversationSummaries(ctx, s.DB, userID)
}

// UnreadCount returns how many visible messages addressed to userID are unread.
func (s *MessageService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "UnreadCount",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	return repo.CountUnread(ctx, s.DB, userID)
}

// MarkMessageRead flags a single unread message addressed to userID as read.
// It returns ErrMessageNotFound when the message does not exist, is not
// addressed to userID, or is already read.
func (s *MessageService) MarkMessageRead(ctx context.Context, messageID, userID string) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "MarkMessageRead",
		trace.WithAttributes(
			attribute.String("message.id", messageID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	m, err := repo.MarkMessageRead(ctx, s.DB, messageID, userID, s.now())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrMessageNotFound
	}
	return m, err
}

// MarkConversationRead flags every unread message sent by counterpartID to
// readerID as read and returns how many rows changed. A second call returns 0.
func (s *MessageService) MarkConversationRead(ctx context.Context, readerID, counterpartID string) (int64, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "MarkConversationRead",
		trace.WithAttributes(
			attribute.String("reader.id", readerID),
			attribute.String("counterpart.id", counterpartID),
		),
	)
	defer span.End()

	n, err := repo.MarkConversationRead(ctx, s.DB, counterpartID, readerID, s.now())
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	span.SetAttributes(attribute.Int64("modified", n))
	return n, nil
}

// Delete soft-deletes a message the requester sent or received.
func (s *MessageService) Delete(ctx context.Context, messageID, requesterID string) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(
			attribute.String("message.id", messageID),
			attribute.String("user.id", requesterID),
		),
	)
	defer span.End()

	m, err := repo.SoftDeleteMessage(ctx, s.DB, messageID, requesterID, s.now())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrMessageNotFound
	}
	return m, err
}

// Get returns a message visible to userID (sender or recipient, not deleted).
func (s *MessageService) Get(ctx context.Context, messageID, userID string) (*domain.Message, error) {
	m, err := repo.GetMessage(ctx, s.DB, messageID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	if m.IsDeleted || (m.SenderID != userID && m.RecipientID != userID) {
		return nil, ErrMessageNotFound
	}
	return m, nil
}
