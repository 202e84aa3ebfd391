package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-dm-backend/internal/domain"
)

// MessageStore is the persistence the hub writes through.
type MessageStore interface {
	SaveMessage(ctx context.Context, senderID, recipientID, content, messageType string) (*domain.Message, error)
	MarkConversationRead(ctx context.Context, readerID, counterpartID string) (int64, error)
}

// Session is one authenticated connection.
type Session struct {
	Conn Conn
	User domain.UserInfo
}

// UserID is shorthand for s.User.UserID.
func (s *Session) UserID() string { return s.User.UserID }

// Hub routes inbound events to the registry, rooms, typing store, and message
// store, and fans the results out. All methods are safe for concurrent use;
// events of one session must be dispatched sequentially by the caller.
type Hub struct {
	log      zerolog.Logger
	store    MessageStore
	registry *Registry
	rooms    *Rooms
	typing   *TypingStore

	mu    sync.RWMutex
	conns map[string]*Session // live sessions by conn id
}

// NewHub wires a hub around store and typing.
func NewHub(store MessageStore, typing *TypingStore, l zerolog.Logger) *Hub {
	l = l.With().Str("component", "realtime").Logger()
	return &Hub{
		log:      l,
		store:    store,
		registry: NewRegistry(),
		rooms:    NewRooms(l),
		typing:   typing,
		conns:    make(map[string]*Session),
	}
}

// Registry exposes the session registry.
func (h *Hub) Registry() *Registry { return h.registry }

// Rooms exposes room membership.
func (h *Hub) Rooms() *Rooms { return h.rooms }

// Typing exposes the typing store.
func (h *Hub) Typing() *TypingStore { return h.typing }

// OnlineUsers returns the ids of users with an active session.
func (h *Hub) OnlineUsers() []string { return h.registry.ListOnline() }

// Connect registers s as its user's active session, subscribes it to the
// user's personal channel, and announces user_online to everyone else.
// A displaced older session stays open but stops receiving personal-channel
// traffic.
func (h *Hub) Connect(s *Session) {
	h.mu.Lock()
	h.conns[s.Conn.ID()] = s
	n := len(h.conns)
	h.mu.Unlock()
	connectionsActive.Set(float64(n))

	// Join before registering: once Lookup reports the user online, the
	// personal channel must already reach this connection.
	personal := PersonalChannel(s.UserID())
	h.rooms.Join(personal, s.Conn)
	if old := h.registry.Register(s.UserID(), s.Conn); old != nil {
		h.rooms.Leave(personal, old)
		h.log.Info().Str("user_id", s.UserID()).Str("conn_id", s.Conn.ID()).
			Str("displaced_conn_id", old.ID()).Msg("session replaced")
	}

	h.log.Info().Str("user_id", s.UserID()).Str("conn_id", s.Conn.ID()).Msg("connected")
	h.broadcastPresence(EventUserOnline, s)
}

// Disconnect tears s down. Registry removal, typing cleanup, and user_offline
// only happen while s is still the user's active session; a stale disconnect
// just releases its rooms.
func (h *Hub) Disconnect(s *Session) {
	h.mu.Lock()
	delete(h.conns, s.Conn.ID())
	n := len(h.conns)
	h.mu.Unlock()
	connectionsActive.Set(float64(n))

	h.rooms.LeaveAll(s.Conn)

	if !h.registry.Unregister(s.UserID(), s.Conn) {
		h.log.Debug().Str("user_id", s.UserID()).Str("conn_id", s.Conn.ID()).Msg("stale session closed")
		return
	}
	h.typing.RemoveUser(s.UserID())
	h.log.Info().Str("user_id", s.UserID()).Str("conn_id", s.Conn.ID()).Msg("disconnected")
	h.broadcastPresence(EventUserOffline, s)
}

// Dispatch routes one inbound event. Unknown events and malformed payloads
// are answered with message_error on s only.
func (h *Hub) Dispatch(ctx context.Context, s *Session, env Envelope) {
	eventsTotal.WithLabelValues(eventLabel(env.Event)).Inc()

	switch env.Event {
	case EventJoinConversation, EventLeaveConversation, EventTypingStart, EventTypingStop, EventMarkMessagesRead:
		var p PeerPayload
		if !h.decode(s, env, &p) {
			return
		}
		other := strings.TrimSpace(p.OtherUserID)
		if other == "" {
			h.sendError(s, errTextPeerRequired)
			return
		}
		switch env.Event {
		case EventJoinConversation:
			h.JoinConversation(s, other)
		case EventLeaveConversation:
			h.LeaveConversation(s, other)
		case EventTypingStart:
			h.TypingStart(s, other)
		case EventTypingStop:
			h.TypingStop(s, other)
		case EventMarkMessagesRead:
			h.MarkConversationRead(ctx, s, other)
		}

	case EventSendMessage:
		var p SendMessagePayload
		if !h.decode(s, env, &p) {
			return
		}
		h.SendMessage(ctx, s, p)

	case EventGetOnlineUsers:
		s.Conn.Send(encode(EventOnlineUsers, h.registry.ListOnline()))

	default:
		h.log.Debug().Str("conn_id", s.Conn.ID()).Str("event", env.Event).Msg("unknown event")
		h.sendError(s, errTextUnknownPrefix+env.Event)
	}
}

// JoinConversation subscribes s to the room shared with otherUserID.
func (h *Hub) JoinConversation(s *Session, otherUserID string) {
	room := ConversationID(s.UserID(), otherUserID)
	if h.rooms.Join(room, s.Conn) {
		h.log.Debug().Str("user_id", s.UserID()).Str("room", room).Msg("joined conversation")
	}
}

// LeaveConversation unsubscribes s from the room shared with otherUserID.
func (h *Hub) LeaveConversation(s *Session, otherUserID string) {
	room := ConversationID(s.UserID(), otherUserID)
	if h.rooms.Leave(room, s.Conn) {
		h.log.Debug().Str("user_id", s.UserID()).Str("room", room).Msg("left conversation")
	}
}

// TypingStart records the indicator and tells the rest of the room.
func (h *Hub) TypingStart(s *Session, otherUserID string) {
	room := ConversationID(s.UserID(), otherUserID)
	h.typing.Start(room, s.User)
	h.rooms.Emit(room, encode(EventUserTyping, TypingPayload{
		UserID: s.UserID(), UserInfo: s.User, IsTyping: true,
	}), s.Conn.ID())
}

// TypingStop clears the indicator and tells the rest of the room.
func (h *Hub) TypingStop(s *Session, otherUserID string) {
	room := ConversationID(s.UserID(), otherUserID)
	h.typing.Stop(room, s.UserID())
	h.rooms.Emit(room, encode(EventUserTyping, TypingPayload{
		UserID: s.UserID(), UserInfo: s.User, IsTyping: false,
	}), s.Conn.ID())
}

func (h *Hub) decode(s *Session, env Envelope, dst any) bool {
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return true
	}
	if err := json.Unmarshal(data, dst); err != nil {
		h.log.Debug().Err(err).Str("conn_id", s.Conn.ID()).Str("event", env.Event).Msg("malformed payload")
		h.sendError(s, errTextBadPayload)
		return false
	}
	return true
}

func (h *Hub) sendError(s *Session, text string) {
	s.Conn.Send(encode(EventMessageError, ErrorPayload{Error: text}))
}
