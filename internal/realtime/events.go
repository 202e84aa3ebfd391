package realtime

import (
	"encoding/json"

	"github.com/tbourn/go-dm-backend/internal/domain"
)

// Inbound event names (client → server).
const (
	EventJoinConversation  = "join_conversation"
	EventLeaveConversation = "leave_conversation"
	EventSendMessage       = "send_message"
	EventTypingStart       = "typing_start"
	EventTypingStop        = "typing_stop"
	EventMarkMessagesRead  = "mark_messages_read"
	EventGetOnlineUsers    = "get_online_users"
)

// Outbound event names (server → client).
const (
	EventNewMessage          = "new_message"
	EventMessageNotification = "message_notification"
	EventMessageSent         = "message_sent"
	EventMessageError        = "message_error"
	EventUserTyping          = "user_typing"
	EventMessagesRead        = "messages_read"
	EventOnlineUsers         = "online_users"
	EventUserOnline          = "user_online"
	EventUserOffline         = "user_offline"
)

// Error texts sent in message_error payloads.
const (
	errTextSendRequired  = "Recipient ID and content are required"
	errTextSendFailed    = "Failed to send message"
	errTextPeerRequired  = "otherUserId is required"
	errTextMarkFailed    = "Failed to mark messages as read"
	errTextBadPayload    = ErrTextBadPayload
	errTextUnknownPrefix = "Unknown event: "
)

// ErrTextBadPayload answers frames that are not a decodable envelope.
const ErrTextBadPayload = "Invalid event payload"

// Envelope is the JSON text frame exchanged in both directions:
// {"event": "<name>", "data": {...}}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// outbound is the encoding side of Envelope.
type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// encode renders an outbound frame. Payloads are plain structs, so a marshal
// failure is a programming error and yields nil (the frame is skipped).
func encode(event string, data any) []byte {
	b, err := json.Marshal(outbound{Event: event, Data: data})
	if err != nil {
		return nil
	}
	return b
}

// ErrorFrame renders a message_error frame for transports that reject an
// event before it reaches the hub.
func ErrorFrame(text string) []byte {
	return encode(EventMessageError, ErrorPayload{Error: text})
}

// PeerPayload addresses the other participant of a conversation.
type PeerPayload struct {
	OtherUserID string `json:"otherUserId"`
}

// SendMessagePayload is the body of send_message.
type SendMessagePayload struct {
	RecipientID string `json:"recipientId"`
	Content     string `json:"content"`
	MessageType string `json:"messageType,omitempty"`
}

// MessagePayload is a normalized message with the sender expanded to its
// identity projection.
type MessagePayload struct {
	domain.MessageView
	Sender domain.UserInfo `json:"sender"`
}

// NotificationPayload is sent on the recipient's personal channel.
type NotificationPayload struct {
	Message          MessagePayload  `json:"message"`
	ConversationWith domain.UserInfo `json:"conversationWith"`
}

// SentPayload acknowledges a persisted send to its author.
type SentPayload struct {
	MessageID string `json:"messageId"`
}

// ErrorPayload carries an application-level error back to one connection.
type ErrorPayload struct {
	Error string `json:"error"`
}

// TypingPayload announces a typing indicator change.
type TypingPayload struct {
	UserID   string          `json:"userId"`
	UserInfo domain.UserInfo `json:"userInfo"`
	IsTyping bool            `json:"isTyping"`
}

// ReadPayload tells the counterpart its messages were read.
type ReadPayload struct {
	ReadBy   string          `json:"readBy"`
	UserInfo domain.UserInfo `json:"userInfo"`
}

// PresencePayload announces a user going online or offline.
type PresencePayload struct {
	UserID   string          `json:"userId"`
	UserInfo domain.UserInfo `json:"userInfo"`
}
