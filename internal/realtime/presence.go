package realtime

// broadcastPresence sends user_online/user_offline for s to every other live
// connection. Closed targets are skipped silently.
func (h *Hub) broadcastPresence(event string, s *Session) {
	frame := encode(event, PresencePayload{UserID: s.UserID(), UserInfo: s.User})

	h.mu.RLock()
	targets := make([]Conn, 0, len(h.conns))
	for id, other := range h.conns {
		if id != s.Conn.ID() {
			targets = append(targets, other.Conn)
		}
	}
	h.mu.RUnlock()

	sendAll(h.log, targets, frame)
}
