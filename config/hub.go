package config

import (
	"strings"
	"time"
)

// HubConfig contains worker hub websocket endpoint configuration.
type HubConfig struct {
	// ListenAddr is the address the hub websocket endpoint binds to.
	ListenAddr string `env:"HUB_LISTEN_ADDR" envDefault:":9090"`

	// Path is the websocket upgrade path workers connect to.
	Path string `env:"HUB_PATH" envDefault:"/ws/worker"`

	// AuthTokens is the set of credential tokens accepted during the worker
	// handshake. A connection presenting none of these is refused.
	AuthTokens []string `env:"HUB_AUTH_TOKENS" envSeparator:","`

	// WriteTimeout bounds a single websocket write.
	WriteTimeout time.Duration `env:"HUB_WRITE_TIMEOUT" envDefault:"10s"`

	// PingInterval is how often the hub pings idle connections.
	PingInterval time.Duration `env:"HUB_PING_INTERVAL" envDefault:"30s"`

	// PongTimeout is how long the hub waits for a pong before treating the
	// connection as dead.
	PongTimeout time.Duration `env:"HUB_PONG_TIMEOUT" envDefault:"60s"`

	// MaxMessageBytes caps inbound message size.
	MaxMessageBytes int64 `env:"HUB_MAX_MESSAGE_BYTES" envDefault:"1048576"` // 1 MiB
}

// Sanitize applies guardrails to hub configuration values.
func (h *HubConfig) Sanitize() {
	h.ListenAddr = strings.TrimSpace(h.ListenAddr)
	if h.ListenAddr == "" {
		h.ListenAddr = ":9090"
	}
	h.Path = strings.TrimSpace(h.Path)
	if h.Path == "" {
		h.Path = "/ws/worker"
	}

	tokens := make([]string, 0, len(h.AuthTokens))
	for _, t := range h.AuthTokens {
		if trimmed := strings.TrimSpace(t); trimmed != "" {
			tokens = append(tokens, trimmed)
		}
	}
	h.AuthTokens = tokens

	if h.WriteTimeout <= 0 {
		h.WriteTimeout = 10 * time.Second
	}
	if h.PingInterval <= 0 {
		h.PingInterval = 30 * time.Second
	}
	if h.PongTimeout <= h.PingInterval {
		h.PongTimeout = 2 * h.PingInterval
	}
	if h.MaxMessageBytes <= 0 {
		h.MaxMessageBytes = 1 << 20
	}
}
