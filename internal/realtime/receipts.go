package realtime

import (
	"context"

	"github.com/tbourn/go-dm-backend/internal/domain"
)

// MarkConversationRead flags every unread message from counterpartID to the
// session's user as read, then sends messages_read to the rest of the room.
// The notification goes out even when nothing changed.
func (h *Hub) MarkConversationRead(ctx context.Context, s *Session, counterpartID string) {
	n, err := h.store.MarkConversationRead(ctx, s.UserID(), counterpartID)
	if err != nil {
		h.log.Error().Err(err).Str("conn_id", s.Conn.ID()).Str("user_id", s.UserID()).
			Str("event", EventMarkMessagesRead).Msg("mark conversation read")
		h.sendError(s, errTextMarkFailed)
		return
	}
	h.log.Debug().Str("user_id", s.UserID()).Str("counterpart_id", counterpartID).Int64("modified", n).Msg("conversation read")
	h.notifyRead(s.User, counterpartID, s.Conn.ID())
}

// NotifyConversationRead announces a read receipt persisted outside the
// socket path. The reader's active connection, if any, is excluded.
func (h *Hub) NotifyConversationRead(readerInfo domain.UserInfo, counterpartID string) {
	except := ""
	if c, ok := h.registry.Lookup(readerInfo.UserID); ok {
		except = c.ID()
	}
	h.notifyRead(readerInfo, counterpartID, except)
}

func (h *Hub) notifyRead(readerInfo domain.UserInfo, counterpartID, exceptConnID string) {
	room := ConversationID(readerInfo.UserID, counterpartID)
	h.rooms.Emit(room, encode(EventMessagesRead, ReadPayload{
		ReadBy:   readerInfo.UserID,
		UserInfo: readerInfo,
	}), exceptConnID)
}
