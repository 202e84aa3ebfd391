package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-dm-backend/internal/domain"
)

type fakeConn struct {
	id string

	mu     sync.Mutex
	closed bool
	frames [][]byte
}

func newConn(id string) *fakeConn { return &fakeConn{id: id} }

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.frames = append(c.frames, append([]byte(nil), frame...))
	return true
}

func (c *fakeConn) close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *fakeConn) events(t *testing.T) []Envelope {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Envelope, 0, len(c.frames))
	for _, f := range c.frames {
		var e Envelope
		require.NoError(t, json.Unmarshal(f, &e))
		out = append(out, e)
	}
	return out
}

func (c *fakeConn) named(t *testing.T, event string) []Envelope {
	t.Helper()
	var out []Envelope
	for _, e := range c.events(t) {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	c.frames = nil
	c.mu.Unlock()
}

func decodeData[T any](t *testing.T, e Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(e.Data, &v))
	return v
}

type saveCall struct {
	sender, recipient, content, messageType string
}

type fakeStore struct {
	mu       sync.Mutex
	saveErr  error
	markErr  error
	saves    []saveCall
	marks    [][2]string
	messages []*domain.Message
}

func (f *fakeStore) SaveMessage(_ context.Context, senderID, recipientID, content, messageType string) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, saveCall{senderID, recipientID, content, messageType})
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	if messageType == "" {
		messageType = domain.MessageTypeText
	}
	now := time.Now().UTC()
	m := &domain.Message{
		ID: uuid.NewString(), SenderID: senderID, RecipientID: recipientID,
		Content: content, MessageType: messageType, CreatedAt: now, UpdatedAt: now,
	}
	f.messages = append(f.messages, m)
	return m, nil
}

func (f *fakeStore) MarkConversationRead(_ context.Context, readerID, counterpartID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marks = append(f.marks, [2]string{readerID, counterpartID})
	if f.markErr != nil {
		return 0, f.markErr
	}
	var n int64
	for _, m := range f.messages {
		if m.SenderID == counterpartID && m.RecipientID == readerID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

var errStoreDown = errors.New("store down")

func user(id string) domain.UserInfo {
	return domain.UserInfo{UserID: id, FirstName: "User " + id, Email: id + "@example.com"}
}

func newTestHub(store MessageStore) *Hub {
	return NewHub(store, NewTypingStore(10*time.Second, nil), zerolog.Nop())
}

// connect attaches a fresh session for userID and clears its inbox.
func connect(h *Hub, userID, connID string) (*Session, *fakeConn) {
	c := newConn(connID)
	s := &Session{Conn: c, User: user(userID)}
	h.Connect(s)
	c.reset()
	return s, c
}

func envelope(t *testing.T, event string, data any) Envelope {
	t.Helper()
	if data == nil {
		return Envelope{Event: event}
	}
	b, err := json.Marshal(data)
	require.NoError(t, err)
	return Envelope{Event: event, Data: b}
}
