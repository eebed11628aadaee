// Package config holds the client configuration and its environment loader.
package config

import (
	"os"
	"strings"
	"time"
)

// Default STUN list used when the environment does not override it. TURN
// credentials always come from the environment.
var defaultSTUNServers = []string{
	"stun:stun.l.google.com:19302",
	"stun:stun1.l.google.com:19302",
	"stun:stun2.l.google.com:19302",
	"stun:stun3.l.google.com:19302",
	"stun:stun4.l.google.com:19302",
}

const (
	DefaultReconnectDelay   = 3 * time.Second
	DefaultAuthRetryDelay   = 1 * time.Second
	DefaultHandshakeTimeout = 6 * time.Second
)

// TURN holds relay server coordinates and credentials.
type TURN struct {
	URLs     []string
	Username string
	Password string
}

// Config stores all parameters for signaling and handshake connections.
type Config struct {
	// SignalingURL is the WebSocket endpoint (ws:// or wss://); the
	// access token is appended as a query parameter at dial time.
	SignalingURL string

	// ProbeURL is the token-refresh probe endpoint hit after a 1006 close.
	ProbeURL string

	STUNServers []string
	TURN        TURN

	// ReconnectDelay applies to transport errors and non-auth closes.
	ReconnectDelay time.Duration

	// AuthRetryDelay applies after a successful token-refresh probe.
	AuthRetryDelay time.Duration

	// HandshakeTimeout bounds the whole whoami/authInfo round trip.
	HandshakeTimeout time.Duration
}

// Default returns a Config with production defaults and no endpoints set.
func Default() Config {
	return Config{
		STUNServers:      defaultSTUNServers,
		ReconnectDelay:   DefaultReconnectDelay,
		AuthRetryDelay:   DefaultAuthRetryDelay,
		HandshakeTimeout: DefaultHandshakeTimeout,
	}
}

// FromEnv builds a Config from LIVEROOM_* environment variables, falling
// back to defaults for anything unset. Server lists are comma-separated.
func FromEnv() Config {
	cfg := Default()

	if v := os.Getenv("LIVEROOM_SIGNALING_URL"); v != "" {
		cfg.SignalingURL = v
	}
	if v := os.Getenv("LIVEROOM_PROBE_URL"); v != "" {
		cfg.ProbeURL = v
	}
	if v := os.Getenv("LIVEROOM_STUN_SERVERS"); v != "" {
		cfg.STUNServers = splitList(v)
	}
	if v := os.Getenv("LIVEROOM_TURN_URLS"); v != "" {
		cfg.TURN.URLs = splitList(v)
	}
	cfg.TURN.Username = os.Getenv("LIVEROOM_TURN_USERNAME")
	cfg.TURN.Password = os.Getenv("LIVEROOM_TURN_PASSWORD")

	if v := os.Getenv("LIVEROOM_RECONNECT_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ReconnectDelay = d
		}
	}
	if v := os.Getenv("LIVEROOM_AUTH_RETRY_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.AuthRetryDelay = d
		}
	}
	if v := os.Getenv("LIVEROOM_HANDSHAKE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HandshakeTimeout = d
		}
	}

	return cfg
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
