package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stevenleohash/fortune-flow-end/internal/domain/model"
)

// workerConn wraps a single worker websocket. Writes are serialized through a
// mutex; reads happen on the connection's own run loop.
type workerConn struct {
	hub        *Hub
	ws         *websocket.Conn
	remoteAddr string

	writeMu sync.Mutex

	closeOnce sync.Once
	done      chan struct{}
}

func newWorkerConn(h *Hub, ws *websocket.Conn, remoteAddr string) *workerConn {
	return &workerConn{
		hub:        h,
		ws:         ws,
		remoteAddr: remoteAddr,
		done:       make(chan struct{}),
	}
}

// run reads frames until the connection closes or errors, keeping the
// connection alive with periodic pings. It blocks the caller.
func (c *workerConn) run() {
	defer c.close(websocket.CloseNormalClosure, "")

	go c.pingLoop()

	cfg := c.hub.cfg
	c.ws.SetReadLimit(cfg.MaxMessageBytes)
	_ = c.ws.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.hub.logger.Warn("worker read error", "remote", c.remoteAddr, "error", err)
			}
			return
		}
		// Inbound traffic also proves liveness.
		_ = c.ws.SetReadDeadline(time.Now().Add(cfg.PongTimeout))

		c.hub.handleInbound(c, raw)
	}
}

func (c *workerConn) pingLoop() {
	ticker := time.NewTicker(c.hub.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			err := c.ws.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				c.close(websocket.CloseNormalClosure, "")
				return
			}
		}
	}
}

// send writes one envelope with the configured write deadline.
func (c *workerConn) send(env model.Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout)); err != nil {
		return err
	}
	return c.ws.WriteJSON(env)
}

// close sends a best-effort close frame and tears down the connection. Safe to
// call more than once.
func (c *workerConn) close(code int, reason string) {
	c.closeOnce.Do(func() {
		close(c.done)

		c.writeMu.Lock()
		msg := websocket.FormatCloseMessage(code, reason)
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.hub.cfg.WriteTimeout))
		c.writeMu.Unlock()

		_ = c.ws.Close()
	})
}
