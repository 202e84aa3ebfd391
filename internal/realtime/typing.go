package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/tbourn/go-dm-backend/internal/domain"
)

// TypingEntry is the transient "user is typing" state for one conversation.
type TypingEntry struct {
	ConversationID string
	User           domain.UserInfo
	At             time.Time
}

type typingKey struct {
	conversationID string
	userID         string
}

// TypingStore holds typing indicators keyed by (conversation, user). Entries
// older than the TTL are evicted by Sweep; eviction sends no notification.
type TypingStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[typingKey]TypingEntry
}

// NewTypingStore returns a store evicting entries older than ttl. A nil now
// uses time.Now.
func NewTypingStore(ttl time.Duration, now func() time.Time) *TypingStore {
	if now == nil {
		now = time.Now
	}
	return &TypingStore{ttl: ttl, now: now, entries: make(map[typingKey]TypingEntry)}
}

// Start upserts the entry for (conversationID, user) stamped with the
// current time.
func (s *TypingStore) Start(conversationID string, user domain.UserInfo) {
	at := s.now()
	s.mu.Lock()
	s.entries[typingKey{conversationID, user.UserID}] = TypingEntry{
		ConversationID: conversationID,
		User:           user,
		At:             at,
	}
	n := len(s.entries)
	s.mu.Unlock()
	typingStates.Set(float64(n))
}

// Stop deletes the entry and reports whether one existed.
func (s *TypingStore) Stop(conversationID, userID string) bool {
	s.mu.Lock()
	k := typingKey{conversationID, userID}
	_, ok := s.entries[k]
	delete(s.entries, k)
	n := len(s.entries)
	s.mu.Unlock()
	typingStates.Set(float64(n))
	return ok
}

// RemoveUser deletes every entry where userID is the typing party, across all
// conversations, and returns how many were removed.
func (s *TypingStore) RemoveUser(userID string) int {
	s.mu.Lock()
	removed := 0
	for k := range s.entries {
		if k.userID == userID {
			delete(s.entries, k)
			removed++
		}
	}
	n := len(s.entries)
	s.mu.Unlock()
	typingStates.Set(float64(n))
	return removed
}

// Sweep evicts entries whose age at now exceeds the TTL and returns how many
// were evicted.
func (s *TypingStore) Sweep(now time.Time) int {
	s.mu.Lock()
	removed := 0
	for k, e := range s.entries {
		if now.Sub(e.At) > s.ttl {
			delete(s.entries, k)
			removed++
		}
	}
	n := len(s.entries)
	s.mu.Unlock()
	typingStates.Set(float64(n))
	return removed
}

// Get returns the entry for (conversationID, userID).
func (s *TypingStore) Get(conversationID, userID string) (TypingEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[typingKey{conversationID, userID}]
	return e, ok
}

// Len returns the number of live entries.
func (s *TypingStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Run sweeps every interval until ctx is done.
func (s *TypingStore) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep(s.now())
		}
	}
}
