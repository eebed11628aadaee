// Package auth implements the role handshake: a short-lived WebSocket
// that asks the backend "what role do I have in this room" and closes
// itself after one round trip.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/freshbid/liveroom/internal/config"
	"github.com/freshbid/liveroom/internal/protocol"
	"github.com/freshbid/liveroom/internal/token"
	"github.com/freshbid/liveroom/internal/util"
)

// Close codes used when resolving the handshake. Each failure kind closes
// with its own code so the server can tell them apart.
const (
	CloseDone      = websocket.CloseNormalClosure // success
	CloseTimeout   = 4000
	CloseParseFail = 4001
	CloseRejected  = 4002
)

// ErrTimeout is returned when no authInfo arrives within the configured
// handshake timeout.
var ErrTimeout = errors.New("auth handshake timed out")

// Grant is the outcome of a successful handshake.
type Grant struct {
	Role     protocol.Role
	UserID   *int64
	SellerID *int64
}

// Handshake performs whoami/authInfo exchanges for one room. Run opens a
// dedicated socket, resolves exactly once, and never leaves the socket
// open; Reconnect aborts any in-flight attempt and starts over.
type Handshake struct {
	cfg    config.Config
	roomID int64
	creds  token.Source

	mu   sync.Mutex
	conn *websocket.Conn
}

// New creates a Handshake for the given room.
func New(cfg config.Config, roomID int64, creds token.Source) *Handshake {
	return &Handshake{cfg: cfg, roomID: roomID, creds: creds}
}

// Run executes one handshake attempt.
func (h *Handshake) Run(ctx context.Context) (Grant, error) {
	tok, err := h.creds.Token()
	if err != nil {
		return Grant{}, err
	}

	timeout := h.cfg.HandshakeTimeout
	if timeout <= 0 {
		timeout = config.DefaultHandshakeTimeout
	}
	deadline := time.Now().Add(timeout)

	dialCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	wsURL := h.cfg.SignalingURL + "?token=" + url.QueryEscape(tok)
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, wsURL, nil)
	if err != nil {
		return Grant{}, fmt.Errorf("dial handshake socket: %w", err)
	}
	h.setConn(conn)
	defer h.setConn(nil)

	if err := conn.WriteJSON(protocol.NewWhoami(h.roomID)); err != nil {
		conn.Close()
		return Grant{}, fmt.Errorf("send whoami: %w", err)
	}

	conn.SetReadDeadline(deadline)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				closeWith(conn, CloseTimeout, "auth-timeout")
				return Grant{}, ErrTimeout
			}
			conn.Close()
			return Grant{}, fmt.Errorf("read authInfo: %w", err)
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			closeWith(conn, CloseParseFail, "parse-fail")
			return Grant{}, fmt.Errorf("malformed handshake response: %w", err)
		}

		info, ok := msg.(protocol.AuthInfo)
		if !ok {
			// The handshake channel should only carry authInfo, but be
			// tolerant of stray frames.
			util.LogDebug("handshake: ignoring %T", msg)
			continue
		}

		if !info.Success {
			closeWith(conn, CloseRejected, "auth-rejected")
			reason := info.Message
			if reason == "" {
				reason = info.Code
			}
			if reason == "" {
				reason = "authentication rejected"
			}
			return Grant{}, errors.New(reason)
		}

		closeWith(conn, CloseDone, "auth-done")
		return Grant{Role: info.Role, UserID: info.UserID, SellerID: info.SellerID}, nil
	}
}

// Reconnect aborts any in-flight attempt and runs a fresh handshake with
// the same room and credentials.
func (h *Handshake) Reconnect(ctx context.Context) (Grant, error) {
	h.abort()
	return h.Run(ctx)
}

func (h *Handshake) setConn(conn *websocket.Conn) {
	h.mu.Lock()
	h.conn = conn
	h.mu.Unlock()
}

// abort closes the socket of an in-flight attempt, unblocking its read.
func (h *Handshake) abort() {
	h.mu.Lock()
	conn := h.conn
	h.conn = nil
	h.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// closeWith sends a close frame with the given code, then closes.
func closeWith(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(time.Second)
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), deadline)
	conn.Close()
}
