package realtime

import (
	"context"
	"strings"

	"github.com/tbourn/go-dm-backend/internal/domain"
	"github.com/tbourn/go-dm-backend/internal/services"
)

// SendMessage persists a message from s and fans it out:
//
//  1. new_message to the conversation room (any joined connection, sender included);
//  2. message_notification on the recipient's personal channel when they are online;
//  3. message_sent back to s.
//
// Missing fields are rejected before persistence. A store failure is
// answered with message_error on s and nothing is broadcast.
func (h *Hub) SendMessage(ctx context.Context, s *Session, p SendMessagePayload) {
	if strings.TrimSpace(p.RecipientID) == "" || strings.TrimSpace(p.Content) == "" {
		h.sendError(s, errTextSendRequired)
		return
	}

	msg, err := h.store.SaveMessage(ctx, s.UserID(), strings.TrimSpace(p.RecipientID), p.Content, p.MessageType)
	if err != nil {
		if services.IsValidation(err) {
			h.sendError(s, err.Error())
			return
		}
		h.log.Error().Err(err).Str("conn_id", s.Conn.ID()).Str("user_id", s.UserID()).
			Str("event", EventSendMessage).Msg("persist message")
		h.sendError(s, errTextSendFailed)
		return
	}

	h.Deliver(*msg, s.User)
	s.Conn.Send(encode(EventMessageSent, SentPayload{MessageID: msg.ID}))
}

// Deliver fans out an already persisted message: new_message to the
// conversation room and, when the recipient is online, message_notification
// on their personal channel. It is shared by the socket and REST send paths.
func (h *Hub) Deliver(msg domain.Message, sender domain.UserInfo) {
	payload := MessagePayload{MessageView: msg.View(), Sender: sender}

	room := ConversationID(msg.SenderID, msg.RecipientID)
	h.rooms.Emit(room, encode(EventNewMessage, payload), "")

	if _, online := h.registry.Lookup(msg.RecipientID); online {
		h.rooms.Emit(PersonalChannel(msg.RecipientID), encode(EventMessageNotification, NotificationPayload{
			Message:          payload,
			ConversationWith: sender,
		}), "")
	}
}
