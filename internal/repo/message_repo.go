// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message
// model: creation, conversation history, read state, soft deletion, and the
// per-counterpart inbox aggregation.
//
// Error semantics follow the rest of the package: a missing or inaccessible
// row surfaces as ErrNotFound, anything else is the raw gorm error.
package repo

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-dm-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// SaveMessage inserts a new unread, non-deleted message.
func SaveMessage(ctx context.Context, db *gorm.DB, senderID, recipientID, content, messageType string) (*domain.Message, error) {
	now := time.Now().UTC()
	m := &domain.Message{
		ID:          uuid.NewString(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		MessageType: messageType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// GetMessage fetches a message by ID.
func GetMessage(ctx context.Context, db *gorm.DB, id string) (*domain.Message, error) {
	var m domain.Message
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// pairScope restricts a query to non-deleted messages exchanged between a and b
// in either direction.
func pairScope(a, b string) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		return q.Where("((sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)) AND is_deleted = ?",
			a, b, b, a, false)
	}
}

// CountConversation returns the number of non-deleted messages between a and b.
func CountConversation(ctx context.Context, db *gorm.DB, a, b string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Message{}).Scopes(pairScope(a, b)).Count(&total).Error
	return total, err
}

// ListConversationPage pages through the history between a and b starting
// from the most recent message, and returns the page in chronological order.
func ListConversationPage(ctx context.Context, db *gorm.DB, a, b string, offset, limit int) ([]domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Scopes(pairScope(a, b)).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// MarkConversationRead flags every unread message from senderID to
// recipientID as read at now, returning the number of rows changed.
func MarkConversationRead(ctx context.Context, db *gorm.DB, senderID, recipientID string, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("sender_id = ? AND recipient_id = ? AND is_read = ?", senderID, recipientID, false).
		Updates(map[string]any{"is_read": true, "read_at": now, "updated_at": now})
	return res.RowsAffected, res.Error
}

// MarkMessageRead flags a single unread message addressed to recipientID as
// read. It returns ErrNotFound when the message does not exist, belongs to
// someone else, or was already read.
func MarkMessageRead(ctx context.Context, db *gorm.DB, id, recipientID string, now time.Time) (*domain.Message, error) {
	res := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ? AND recipient_id = ? AND is_read = ?", id, recipientID, false).
		Updates(map[string]any{"is_read": true, "read_at": now, "updated_at": now})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return GetMessage(ctx, db, id)
}

// SoftDeleteMessage marks a message deleted when requesterID is its sender or
// recipient. It returns ErrNotFound otherwise.
func SoftDeleteMessage(ctx context.Context, db *gorm.DB, id, requesterID string, now time.Time) (*domain.Message, error) {
	res := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ? AND (sender_id = ? OR recipient_id = ?)", id, requesterID, requesterID).
		Updates(map[string]any{"is_deleted": true, "deleted_at": now, "updated_at": now})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return GetMessage(ctx, db, id)
}

// CountUnread returns the number of unread, non-deleted messages addressed to
// recipientID.
func CountUnread(ctx context.Context, db *gorm.DB, recipientID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("recipient_id = ? AND is_read = ? AND is_deleted = ?", recipientID, false, false).
		Count(&total).Error
	return total, err
}

// inboxRow is one counterpart with the id of the latest message exchanged.
type inboxRow struct {
	Counterpart   string
	LastMessageID string
	UnreadCount   int64
}

// inboxSQL ranks each counterpart's messages newest-first and keeps the top
// row, carrying the per-counterpart unread total along.
const inboxSQL = `
WITH convo AS (
	SELECT id, created_at,
		CASE WHEN sender_id = @uid THEN recipient_id ELSE sender_id END AS counterpart,
		CASE WHEN recipient_id = @uid AND is_read = @no THEN 1 ELSE 0 END AS unread
	FROM messages
	WHERE (sender_id = @uid OR recipient_id = @uid) AND is_deleted = @no
), ranked AS (
	SELECT counterpart, id,
		ROW_NUMBER() OVER (PARTITION BY counterpart ORDER BY created_at DESC, id DESC) AS rn,
		SUM(unread) OVER (PARTITION BY counterpart) AS unread_count
	FROM convo
)
SELECT counterpart, id AS last_message_id, unread_count FROM ranked WHERE rn = 1`

// ListConversationSummaries returns one row per counterpart of userID, ordered
// by the recency of the last non-deleted message. Counterparts whose user
// record no longer exists are skipped.
func ListConversationSummaries(ctx context.Context, db *gorm.DB, userID string) ([]domain.ConversationSummary, error) {
	var rows []inboxRow
	err := db.WithContext(ctx).
		Raw(inboxSQL, map[string]any{"uid": userID, "no": false}).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []domain.ConversationSummary{}, nil
	}

	msgIDs := make([]string, 0, len(rows))
	userIDs := make([]string, 0, len(rows))
	for _, r := range rows {
		msgIDs = append(msgIDs, r.LastMessageID)
		userIDs = append(userIDs, r.Counterpart)
	}

	var msgs []domain.Message
	if err := db.WithContext(ctx).Where("id IN ?", msgIDs).Find(&msgs).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Message, len(msgs))
	for _, m := range msgs {
		byID[m.ID] = m
	}
	users, err := FindUsersByIDs(ctx, db, userIDs)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ConversationSummary, 0, len(rows))
	for _, r := range rows {
		u, ok := users[r.Counterpart]
		if !ok {
			continue
		}
		m, ok := byID[r.LastMessageID]
		if !ok {
			continue
		}
		out = append(out, domain.ConversationSummary{
			User: u.Info(),
			LastMessage: domain.LastMessage{
				Content:     m.Content,
				MessageType: m.MessageType,
				CreatedAt:   m.CreatedAt,
			},
			UnreadCount: r.UnreadCount,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMessage.CreatedAt.After(out[j].LastMessage.CreatedAt)
	})
	return out, nil
}
