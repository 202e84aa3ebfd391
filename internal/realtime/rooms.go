package realtime

import (
	"sync"

	"github.com/rs/zerolog"
)

// Rooms tracks which connections listen on which room. Membership is keyed
// by connection id, so a user with a replaced session is not implicitly
// carried over.
type Rooms struct {
	log zerolog.Logger

	mu      sync.RWMutex
	members map[string]map[string]Conn     // room -> conn id -> conn
	joined  map[string]map[string]struct{} // conn id -> rooms
}

// NewRooms returns an empty membership table.
func NewRooms(l zerolog.Logger) *Rooms {
	return &Rooms{
		log:     l,
		members: make(map[string]map[string]Conn),
		joined:  make(map[string]map[string]struct{}),
	}
}

// Join adds c to room. Joining twice is a no-op; the result reports whether
// membership changed.
func (r *Rooms) Join(room string, c Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.members[room]
	if m == nil {
		m = make(map[string]Conn)
		r.members[room] = m
	}
	if _, ok := m[c.ID()]; ok {
		return false
	}
	m[c.ID()] = c
	j := r.joined[c.ID()]
	if j == nil {
		j = make(map[string]struct{})
		r.joined[c.ID()] = j
	}
	j[room] = struct{}{}
	return true
}

// Leave removes c from room. Leaving a room c never joined is a no-op.
func (r *Rooms) Leave(room string, c Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveLocked(room, c.ID())
}

func (r *Rooms) leaveLocked(room, connID string) bool {
	m := r.members[room]
	if _, ok := m[connID]; !ok {
		return false
	}
	delete(m, connID)
	if len(m) == 0 {
		delete(r.members, room)
	}
	if j := r.joined[connID]; j != nil {
		delete(j, room)
		if len(j) == 0 {
			delete(r.joined, connID)
		}
	}
	return true
}

// LeaveAll drops every membership of c and returns how many rooms it left.
func (r *Rooms) LeaveAll(c Conn) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	rooms := r.joined[c.ID()]
	n := 0
	for room := range rooms {
		if r.leaveLocked(room, c.ID()) {
			n++
		}
	}
	return n
}

// Has reports whether the connection with connID is in room.
func (r *Rooms) Has(room, connID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[room][connID]
	return ok
}

// Size returns the number of connections in room.
func (r *Rooms) Size(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members[room])
}

// Emit sends frame to every member of room except exceptConnID (which may be
// empty) and returns how many members accepted it. Dropped frames are logged
// and counted, never returned as errors.
func (r *Rooms) Emit(room string, frame []byte, exceptConnID string) int {
	if frame == nil {
		return 0
	}
	r.mu.RLock()
	targets := make([]Conn, 0, len(r.members[room]))
	for id, c := range r.members[room] {
		if id != exceptConnID {
			targets = append(targets, c)
		}
	}
	r.mu.RUnlock()

	return sendAll(r.log, targets, frame)
}

// sendAll delivers frame to each target outside of any lock.
func sendAll(l zerolog.Logger, targets []Conn, frame []byte) int {
	sent := 0
	for _, c := range targets {
		if c.Send(frame) {
			sent++
			continue
		}
		outboundDropped.Inc()
		l.Debug().Str("conn_id", c.ID()).Msg("frame dropped")
	}
	return sent
}
