package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limits configures an IPRateLimiter.
type Limits struct {
	MaxConnsPerIP int           // simultaneous WebSocket connections per IP
	MsgRate       int           // messages allowed per MsgWindow
	MsgWindow     time.Duration // token refill period
	SweepEvery    time.Duration // idle visitor cleanup; 0 disables the sweeper
}

// DefaultLimits: 4 connections and 120 messages per second per IP.
func DefaultLimits() Limits {
	return Limits{
		MaxConnsPerIP: 4,
		MsgRate:       120,
		MsgWindow:     time.Second,
		SweepEvery:    5 * time.Minute,
	}
}

type visitor struct {
	connections int
	tokens      int
	lastRefill  time.Time
}

// IPRateLimiter caps connections per IP and rate-limits inbound messages with
// a token bucket per IP.
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limits   Limits
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

func NewIPRateLimiter(l Limits) *IPRateLimiter {
	rl := &IPRateLimiter{
		visitors: make(map[string]*visitor),
		limits:   l,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	if l.SweepEvery > 0 {
		go rl.sweep(l.SweepEvery)
	}
	return rl
}

// Stop ends the cleanup goroutine.
func (rl *IPRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *IPRateLimiter) visitor(ip string) *visitor {
	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{tokens: rl.limits.MsgRate, lastRefill: rl.now()}
		rl.visitors[ip] = v
	}
	return v
}

// ConnectAllowed reserves a connection slot for ip. Every true result must be
// paired with Disconnect.
func (rl *IPRateLimiter) ConnectAllowed(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v := rl.visitor(ip)
	if v.connections >= rl.limits.MaxConnsPerIP {
		return false
	}
	v.connections++
	return true
}

// Disconnect releases a connection slot.
func (rl *IPRateLimiter) Disconnect(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if v, ok := rl.visitors[ip]; ok && v.connections > 0 {
		v.connections--
	}
}

// MessageAllowed takes one token from ip's bucket.
func (rl *IPRateLimiter) MessageAllowed(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v := rl.visitor(ip)
	if elapsed := rl.now().Sub(v.lastRefill); elapsed >= rl.limits.MsgWindow && rl.limits.MsgWindow > 0 {
		windows := int(elapsed / rl.limits.MsgWindow)
		v.tokens = min(v.tokens+windows*rl.limits.MsgRate, rl.limits.MsgRate)
		v.lastRefill = v.lastRefill.Add(time.Duration(windows) * rl.limits.MsgWindow)
	}
	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

// Visitors reports how many IPs are tracked.
func (rl *IPRateLimiter) Visitors() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

func (rl *IPRateLimiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.prune()
		case <-rl.stop:
			return
		}
	}
}

// prune drops visitors with no open connections.
func (rl *IPRateLimiter) prune() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if v.connections <= 0 {
			delete(rl.visitors, ip)
		}
	}
}

// RealIP extracts the client IP, preferring the first X-Forwarded-For entry
// set by a reverse proxy.
func RealIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
