package ws

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"unicode/utf8"

	"github.com/coder/websocket"
	"github.com/vladimirvolkov/skijump/server/internal/middleware"
)

const (
	maxActiveSessions = 200
	readLimit         = 1024
	defaultNickname   = "Jumper"
)

// sanitizeNickname keeps letters, digits, underscore, dash, space and
// cyrillic, and enforces 2-12 runes.
func sanitizeNickname(raw string) string {
	if !utf8.ValidString(raw) {
		return defaultNickname
	}
	cleaned := make([]rune, 0, len(raw))
	for _, r := range raw {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '_' || r == '-' || r == ' ' ||
			(r >= 0x0400 && r <= 0x04FF) {
			cleaned = append(cleaned, r)
		}
	}
	if len(cleaned) < 2 {
		return defaultNickname
	}
	if len(cleaned) > 12 {
		cleaned = cleaned[:12]
	}
	return string(cleaned)
}

// SessionStarter runs a game session for an accepted connection. Start must
// not block; the session ends when the connection closes.
type SessionStarter interface {
	StartSession(conn *Conn)
}

// HubStats holds live server metrics.
type HubStats struct {
	ActiveSessions   int64  `json:"activeSessions"`
	TotalConnections uint64 `json:"totalConnections"`
}

// Hub accepts WebSocket connections and hands each one its own session.
// Sessions never interact.
type Hub struct {
	starter SessionStarter
	nextID  atomic.Uint64

	activeSessions   atomic.Int64
	totalConnections atomic.Uint64

	limiter        *middleware.IPRateLimiter
	originPatterns []string
}

func NewHub(starter SessionStarter, limiter *middleware.IPRateLimiter, originPatterns []string) *Hub {
	return &Hub{
		starter:        starter,
		limiter:        limiter,
		originPatterns: originPatterns,
	}
}

// Stats returns a snapshot of current server metrics.
func (h *Hub) Stats() HubStats {
	return HubStats{
		ActiveSessions:   h.activeSessions.Load(),
		TotalConnections: h.totalConnections.Load(),
	}
}

func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ip := middleware.RealIP(r)
	if h.limiter != nil && !h.limiter.ConnectAllowed(ip) {
		http.Error(w, "too many connections", http.StatusTooManyRequests)
		return
	}
	release := func() {
		if h.limiter != nil {
			h.limiter.Disconnect(ip)
		}
	}

	if h.activeSessions.Load() >= maxActiveSessions {
		release()
		http.Error(w, "server full", http.StatusServiceUnavailable)
		return
	}

	acceptOpts := &websocket.AcceptOptions{}
	if len(h.originPatterns) > 0 {
		acceptOpts.OriginPatterns = h.originPatterns
	}
	sock, err := websocket.Accept(w, r, acceptOpts)
	if err != nil {
		release()
		log.Printf("ws accept error: %v", err)
		return
	}
	sock.SetReadLimit(readLimit)

	h.totalConnections.Add(1)
	id := fmt.Sprintf("jumper-%d", h.nextID.Add(1))
	conn := NewConn(sock, id, ip, h.limiter)
	conn.Nickname = sanitizeNickname(r.URL.Query().Get("name"))
	log.Printf("new connection: %s [%s] from %s (total: %d)", id, conn.Nickname, ip, h.totalConnections.Load())

	// The connection outlives the request context.
	go conn.WriteLoop(context.Background())

	h.activeSessions.Add(1)
	h.starter.StartSession(conn)

	<-conn.Done()
	h.activeSessions.Add(-1)
	release()
	log.Printf("connection closed: %s", id)
}
