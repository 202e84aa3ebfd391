// Package domain defines the persistence models for users and direct
// messages, plus the read-only projections handed to the realtime layer and
// API clients. These types are mapped with GORM and form the core data layer
// of the messaging service.
package domain

import (
	"time"
)

// Message types accepted by the delivery pipeline.
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeFile  = "file"
)

// ValidMessageType reports whether t is one of the supported message types.
func ValidMessageType(t string) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeFile:
		return true
	}
	return false
}

// User is the account record owned by the registration/activation workflow.
// This service only reads it: an account is usable once ActivationToken has
// been cleared.
//
// Fields:
//   - ID: stable opaque identifier.
//   - FirstName / Email: display attributes exposed through UserInfo.
//   - ActivationToken: pending activation secret; nil once activated.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type User struct {
	ID              string    `json:"id"         gorm:"type:varchar(64);primaryKey"`
	FirstName       string    `json:"first_name" gorm:"type:varchar(255);not null"`
	Email           string    `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	ActivationToken *string   `json:"-"          gorm:"type:varchar(255)"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Activated reports whether the account finished the activation workflow.
func (u User) Activated() bool { return u.ActivationToken == nil }

// Info returns the read-only identity projection attached to sessions.
func (u User) Info() UserInfo {
	return UserInfo{UserID: u.ID, FirstName: u.FirstName, Email: u.Email}
}

// UserInfo is the identity projection carried by realtime events and
// embedded in API responses.
type UserInfo struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	Email     string `json:"email"`
}

// Message is a single direct message between two users. Rows are never
// physically removed: deletion sets IsDeleted/DeletedAt.
//
// Indexes mirror the two hot paths: conversation history
// (sender, recipient, created_at) and unread lookups (recipient, is_read).
type Message struct {
	ID          string     `json:"id"           gorm:"type:char(36);primaryKey"`
	SenderID    string     `json:"sender_id"    gorm:"type:varchar(64);not null;index:idx_msgs_pair,priority:1"`
	RecipientID string     `json:"recipient_id" gorm:"type:varchar(64);not null;index:idx_msgs_pair,priority:2;index:idx_msgs_unread,priority:1"`
	Content     string     `json:"content"      gorm:"type:text;not null"`
	MessageType string     `json:"message_type" gorm:"type:varchar(16);not null;default:'text';check:message_type IN ('text','image','file')"`
	IsRead      bool       `json:"is_read"      gorm:"not null;default:false;index:idx_msgs_unread,priority:2"`
	ReadAt      *time.Time `json:"read_at"`
	IsDeleted   bool       `json:"is_deleted"   gorm:"not null;default:false"`
	DeletedAt   *time.Time `json:"deleted_at"`
	CreatedAt   time.Time  `json:"created_at"   gorm:"index:idx_msgs_pair,priority:3"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// MessageView is the normalized wire shape of a message shared by the REST
// API and realtime events.
type MessageView struct {
	MessageID   string     `json:"messageId"`
	Sender      string     `json:"sender"`
	Recipient   string     `json:"recipient"`
	Content     string     `json:"content"`
	MessageType string     `json:"messageType"`
	IsRead      bool       `json:"isRead"`
	ReadAt      *time.Time `json:"readAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// View normalizes m for clients.
func (m Message) View() MessageView {
	return MessageView{
		MessageID:   m.ID,
		Sender:      m.SenderID,
		Recipient:   m.RecipientID,
		Content:     m.Content,
		MessageType: m.MessageType,
		IsRead:      m.IsRead,
		ReadAt:      m.ReadAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// LastMessage is the preview embedded in a ConversationSummary.
type LastMessage struct {
	Content     string    `json:"content"`
	MessageType string    `json:"messageType"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ConversationSummary is one row of a user's inbox: the counterpart, the most
// recent non-deleted message exchanged with them, and how many of their
// messages are still unread.
type ConversationSummary struct {
	User        UserInfo    `json:"user"`
	LastMessage LastMessage `json:"lastMessage"`
	UnreadCount int64       `json:"unreadCount"`
}
