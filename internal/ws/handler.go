// Package ws is the websocket transport for the realtime hub. It
// authenticates the handshake, upgrades the connection with gorilla/websocket,
// and runs one read and one write goroutine per connection.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-dm-backend/internal/auth"
	"github.com/tbourn/go-dm-backend/internal/config"
	"github.com/tbourn/go-dm-backend/internal/domain"
	"github.com/tbourn/go-dm-backend/internal/realtime"
	"github.com/tbourn/go-dm-backend/internal/services"
)

// Handshake rejection texts.
const (
	msgNoToken      = "Authentication error: No token provided"
	msgInvalidToken = "Authentication error: Invalid token"
	msgInactiveUser = "Authentication error: User not found or not activated"
	msgAuthFailed   = "Authentication error"
	msgRateLimited  = "Too many events"
)

// Authenticator resolves a bearer credential to an activated identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.UserInfo, error)
}

// Handler upgrades authenticated requests and attaches them to the hub.
type Handler struct {
	hub      *realtime.Hub
	auth     Authenticator
	cfg      config.RealtimeConfig
	upgrader websocket.Upgrader
	log      zerolog.Logger

	mu      sync.Mutex
	clients map[string]*client
}

// NewHandler builds a Handler. allowedOrigins restricts browser origins; an
// empty list or "*" accepts any.
func NewHandler(hub *realtime.Hub, a Authenticator, cfg config.RealtimeConfig, allowedOrigins []string, l zerolog.Logger) *Handler {
	h := &Handler{
		hub:     hub,
		auth:    a,
		cfg:     cfg,
		log:     l.With().Str("component", "ws").Logger(),
		clients: make(map[string]*client),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(set) == 0 {
			return true
		}
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}

// tokenFrom reads the credential from the Authorization header, then the
// token and access_token query parameters.
func tokenFrom(r *http.Request) string {
	if t := auth.BearerToken(r.Header.Get("Authorization")); t != "" {
		return t
	}
	q := r.URL.Query()
	if t := strings.TrimSpace(q.Get("token")); t != "" {
		return t
	}
	return strings.TrimSpace(q.Get("access_token"))
}

type handshakeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func reject(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(handshakeError{Code: code, Message: msg})
}

// ServeHTTP authenticates, upgrades, and blocks for the connection's
// lifetime running the read loop.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := tokenFrom(r)
	if token == "" {
		reject(w, http.StatusUnauthorized, "unauthorized", msgNoToken)
		return
	}

	info, err := h.auth.Authenticate(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
			reject(w, http.StatusUnauthorized, "unauthorized", msgInvalidToken)
		case services.IsAuthError(err):
			reject(w, http.StatusUnauthorized, "unauthorized", msgInactiveUser)
		default:
			h.log.Error().Err(err).Msg("handshake authentication failed")
			reject(w, http.StatusInternalServerError, "internal", msgAuthFailed)
		}
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.log.Debug().Err(err).Str("user_id", info.UserID).Msg("upgrade failed")
		return
	}

	c := newClient(uuid.NewString(), conn, h.cfg.SendBuffer)
	s := &realtime.Session{Conn: c, User: info}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	h.hub.Connect(s)
	go c.writePump(h.cfg.WriteWait, h.cfg.PingPeriod())

	h.readPump(context.WithoutCancel(r.Context()), c, s)

	c.close()
	h.hub.Disconnect(s)
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
}

// readPump decodes frames and dispatches them in arrival order.
func (h *Handler) readPump(ctx context.Context, c *client, s *realtime.Session) {
	lim := rate.NewLimiter(rate.Inf, 0)
	if h.cfg.EventRPS > 0 {
		lim = rate.NewLimiter(rate.Limit(h.cfg.EventRPS), h.cfg.EventBurst)
	}

	c.conn.SetReadLimit(h.cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) && !c.closed() {
				h.log.Debug().Err(err).Str("conn_id", c.id).Str("user_id", s.UserID()).Msg("read failed")
			}
			return
		}

		var env realtime.Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			c.Send(realtime.ErrorFrame(realtime.ErrTextBadPayload))
			continue
		}
		if !lim.Allow() {
			c.Send(realtime.ErrorFrame(msgRateLimited))
			continue
		}
		h.hub.Dispatch(ctx, s, env)
	}
}

// CloseAll asks every open connection to close. Used on shutdown, since
// http.Server.Shutdown does not track hijacked connections.
func (h *Handler) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		c.close()
	}
}
