package ws

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/vladimirvolkov/skijump/server/internal/middleware"
)

const (
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
	pingInterval = 25 * time.Second
)

// Conn wraps one browser connection. Outbound messages go through a buffered
// channel drained by WriteLoop; a full buffer drops the message.
type Conn struct {
	ws       *websocket.Conn
	sendCh   chan []byte
	done     chan struct{}
	once     sync.Once
	ID       string
	Nickname string
	IP       string
	limiter  *middleware.IPRateLimiter
}

func NewConn(ws *websocket.Conn, id string, ip string, limiter *middleware.IPRateLimiter) *Conn {
	return &Conn{
		ws:      ws,
		sendCh:  make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
		ID:      id,
		IP:      ip,
		limiter: limiter,
	}
}

func (c *Conn) Name() string { return c.Nickname }

// Send queues msg for writing. It reports false if the message was dropped.
func (c *Conn) Send(msg Message) bool {
	data, err := Encode(msg)
	if err != nil {
		log.Printf("conn %s: encode error: %v", c.ID, err)
		return false
	}
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.sendCh <- data:
		return true
	default:
		log.Printf("conn %s: send buffer full, dropping message 0x%02x", c.ID, msg.Type)
		return false
	}
}

// ReadLoop decodes inbound messages until the socket fails or ctx ends. The
// returned channel is closed when reading stops.
func (c *Conn) ReadLoop(ctx context.Context) <-chan Message {
	ch := make(chan Message, sendBuffer)
	go func() {
		defer close(ch)
		for {
			_, data, err := c.ws.Read(ctx)
			if err != nil {
				if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
					log.Printf("conn %s: read error: %v", c.ID, err)
				}
				c.Close()
				return
			}
			if c.limiter != nil && !c.limiter.MessageAllowed(c.IP) {
				continue
			}
			msg, err := Decode(data)
			if err != nil {
				log.Printf("conn %s: decode error: %v", c.ID, err)
				continue
			}
			select {
			case ch <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// WriteLoop flushes queued messages and keeps the connection alive with
// pings until the connection closes.
func (c *Conn) WriteLoop(ctx context.Context) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case data := <-c.sendCh:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.ws.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				log.Printf("conn %s: write error: %v", c.ID, err)
				c.Close()
				return
			}
		case <-ping.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.ws.Ping(pctx)
			cancel()
			if err != nil {
				log.Printf("conn %s: ping failed: %v", c.ID, err)
				c.Close()
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Conn) Close() {
	c.once.Do(func() {
		close(c.done)
		c.ws.Close(websocket.StatusNormalClosure, "")
	})
}

func (c *Conn) Done() <-chan struct{} {
	return c.done
}
