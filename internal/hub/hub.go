// Package hub implements the worker channel: a websocket endpoint remote
// automation workers connect to, with broadcast push and result routing by
// correlation id.
package hub

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stevenleohash/fortune-flow-end/config"
	"github.com/stevenleohash/fortune-flow-end/internal/domain/model"
	"github.com/stevenleohash/fortune-flow-end/internal/observability/metrics"
	"github.com/stevenleohash/fortune-flow-end/internal/observability/statsd"
)

// Close reasons sent to refused connections. Workers inspect these to decide
// whether reconnecting is worthwhile.
const (
	closeReasonMissingToken = "missing token"
	closeReasonInvalidToken = "invalid token"
)

// ResultHandler receives inbound task:result payloads. It is set once and
// shared by the executor.
type ResultHandler func(result model.TaskResultData)

// Options holds the dependencies for creating a Hub.
type Options struct {
	Config  config.HubConfig
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// Hub maintains the set of authenticated worker connections. Membership
// changes only on connect, disconnect, or read error; a failed send never
// removes a connection.
type Hub struct {
	cfg      config.HubConfig
	logger   *slog.Logger
	metrics  statsd.Sink
	upgrader websocket.Upgrader

	mu     sync.RWMutex
	conns  map[*workerConn]struct{}
	closed bool

	resultMu sync.RWMutex
	onResult ResultHandler
}

// New creates a Hub with the given options.
func New(opts Options) *Hub {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Hub{
		cfg:     opts.Config,
		logger:  logger.With("component", "worker_hub"),
		metrics: opts.Metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Workers are server-to-server clients, not browsers.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[*workerConn]struct{}),
	}
}

// SetResultHandler registers the single callback inbound task:result messages
// route to. Later calls replace the handler; the executor sets it once at wiring.
func (h *Hub) SetResultHandler(handler ResultHandler) {
	h.resultMu.Lock()
	defer h.resultMu.Unlock()
	h.onResult = handler
}

// ServeHTTP upgrades an inbound worker connection. The handshake must carry a
// valid credential token; otherwise the connection is closed before joining
// the active set, with a distinct reason for missing vs invalid tokens.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	token := bearerToken(r)
	if token == "" {
		h.refuse(ws, r.RemoteAddr, closeReasonMissingToken)
		return
	}
	if !h.validToken(token) {
		h.refuse(ws, r.RemoteAddr, closeReasonInvalidToken)
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = ws.Close()
		return
	}
	c := newWorkerConn(h, ws, r.RemoteAddr)
	h.conns[c] = struct{}{}
	count := len(h.conns)
	h.mu.Unlock()

	h.logger.InfoContext(r.Context(), "worker connected", "remote", r.RemoteAddr, "connections", count)
	metrics.EmitWorkerConnections(h.metrics, count)

	if env, envErr := model.NewEnvelope(model.MsgServerConnected, map[string]int64{
		"timestamp": time.Now().UnixMilli(),
	}); envErr == nil {
		if sendErr := c.send(env); sendErr != nil {
			h.logger.WarnContext(r.Context(), "send server:connected failed", "remote", r.RemoteAddr, "error", sendErr)
		}
	}

	// Blocks until the connection closes or errors.
	c.run()

	h.remove(c)
}

// ConnectionCount returns the number of currently open worker connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast serializes data into an envelope and sends it to every open
// connection, returning the count of successful sends. Per-connection send
// failures are logged and never propagated; removal happens only through the
// connection's own close or error signal.
func (h *Hub) Broadcast(msgType string, data any) int {
	env, err := model.NewEnvelope(msgType, data)
	if err != nil {
		h.logger.Warn("broadcast payload marshal failed", "type", msgType, "error", err)
		return 0
	}

	h.mu.RLock()
	targets := make([]*workerConn, 0, len(h.conns))
	for c := range h.conns {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range targets {
		if sendErr := c.send(env); sendErr != nil {
			h.logger.Warn("broadcast send failed", "type", msgType, "remote", c.remoteAddr, "error", sendErr)
			continue
		}
		sent++
	}
	return sent
}

// Dispatch pushes a task:execute message to every connected worker. Whichever
// worker picks the task up runs it; the protocol has no pickup acknowledgment,
// so the caller's timeout is the only backstop.
func (h *Hub) Dispatch(taskID string, data model.TaskExecuteData) (int, error) {
	sent := h.Broadcast(model.MsgTaskExecute, data)
	h.logger.Info("task dispatched", "task_id", taskID, "recipients", sent)
	return sent, nil
}

// Close stops accepting new connections, closes all open connections, and
// clears the membership set.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	conns := make([]*workerConn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.conns = make(map[*workerConn]struct{})
	h.mu.Unlock()

	for _, c := range conns {
		c.close(websocket.CloseGoingAway, "server shutting down")
	}
	metrics.EmitWorkerConnections(h.metrics, 0)
}

// handleInbound routes one inbound frame. Malformed messages are logged and
// otherwise ignored; they never affect the connection.
func (h *Hub) handleInbound(c *workerConn, raw []byte) {
	var env model.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.logger.Warn("malformed worker message", "remote", c.remoteAddr, "error", err)
		return
	}

	switch env.Type {
	case model.MsgClientReady:
		h.logger.Info("worker ready", "remote", c.remoteAddr)

	case model.MsgTaskResult:
		var result model.TaskResultData
		if err := json.Unmarshal(env.Data, &result); err != nil {
			h.logger.Warn("malformed task result", "remote", c.remoteAddr, "error", err)
			return
		}
		if result.TaskID == "" {
			h.logger.Warn("task result missing task id", "remote", c.remoteAddr)
			return
		}

		h.resultMu.RLock()
		handler := h.onResult
		h.resultMu.RUnlock()
		if handler == nil {
			h.logger.Warn("task result with no handler registered", "task_id", result.TaskID)
			return
		}
		handler(result)

	default:
		h.logger.Warn("unhandled worker message", "remote", c.remoteAddr, "type", env.Type)
	}
}

func (h *Hub) remove(c *workerConn) {
	h.mu.Lock()
	_, present := h.conns[c]
	delete(h.conns, c)
	count := len(h.conns)
	h.mu.Unlock()

	if present {
		h.logger.Info("worker disconnected", "remote", c.remoteAddr, "connections", count)
		metrics.EmitWorkerConnections(h.metrics, count)
	}
}

func (h *Hub) refuse(ws *websocket.Conn, remote, reason string) {
	h.logger.Warn("worker connection refused", "remote", remote, "reason", reason)

	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.cfg.WriteTimeout))
	_ = ws.Close()
}

func (h *Hub) validToken(token string) bool {
	for _, t := range h.cfg.AuthTokens {
		if token == t {
			return true
		}
	}
	return false
}

// bearerToken extracts the credential token from the Authorization header or,
// for clients that cannot set headers during the websocket handshake, the
// token query parameter.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
