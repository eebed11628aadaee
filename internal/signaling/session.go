package signaling

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"

	"github.com/freshbid/liveroom/internal/config"
	"github.com/freshbid/liveroom/internal/media"
	"github.com/freshbid/liveroom/internal/protocol"
	"github.com/freshbid/liveroom/internal/token"
	"github.com/freshbid/liveroom/internal/transport"
	"github.com/freshbid/liveroom/internal/util"
)

// outcome classifies why a session ended and drives the reconnect policy.
type outcome int

const (
	// outcomeStop: no further automatic action (deliberate teardown,
	// fatal auth failure, or missing credentials).
	outcomeStop outcome = iota
	// outcomeReconnect: transport error or unexpected close; reconnect
	// after the standard delay.
	outcomeReconnect
	// outcomeAuthRetry: close 1006 and the token probe succeeded;
	// reconnect after the short auth delay.
	outcomeAuthRetry
)

// run owns the connection lifecycle: one session per iteration, each
// rebuilding media capture and the peer connection from scratch. Only
// the room id and role survive a reconnect.
func (c *Client) run() {
	for {
		out := c.session()
		if c.isClosed() {
			return
		}

		var delay time.Duration
		switch out {
		case outcomeStop:
			return
		case outcomeAuthRetry:
			delay = c.cfg.AuthRetryDelay
			if delay <= 0 {
				delay = config.DefaultAuthRetryDelay
			}
		default:
			delay = c.cfg.ReconnectDelay
			if delay <= 0 {
				delay = config.DefaultReconnectDelay
			}
		}

		util.Stats.AddReconnect()
		c.log.Infof("reconnecting to room %d in %s", c.roomID, delay)

		select {
		case <-time.After(delay):
		case <-c.done:
			return
		}
	}
}

// session runs one connect/negotiate/read cycle and reports why it ended.
func (c *Client) session() outcome {
	c.mu.Lock()
	c.dialing = true
	c.mu.Unlock()

	tok, err := c.creds.Token()
	if err != nil {
		c.dropQueue()
		c.sink.OnFatal(err.Error())
		return outcomeStop
	}

	wsURL := c.cfg.SignalingURL + "?token=" + url.QueryEscape(tok)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		c.log.Warnf("signaling dial failed: %v", err)
		c.dropQueue()
		return outcomeReconnect
	}

	// Install the connection and flush sends deferred during the dial,
	// in order. Each deferred message goes out exactly once.
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return outcomeStop
	}
	c.conn = conn
	c.dialing = false
	queued := c.sendQueue
	c.sendQueue = nil
	for _, msg := range queued {
		c.writeLocked(msg)
	}
	c.mu.Unlock()

	c.log.Infof("signaling connected to room %d as %s", c.roomID, c.role)

	if err := c.openSession(); err != nil {
		// Setup failures leave the socket as-is; recovery comes from the
		// reconnect policy reacting to a later close or error event.
		c.log.Errorf("session setup failed: %v", err)
	}

	out := c.readLoop(conn)
	c.teardownSession(conn)
	return out
}

// openSession performs the ordered open sequence: acquire local media,
// build the peer connection, attach tracks, create the offer, send the
// role-keyed offer message.
func (c *Client) openSession() error {
	capture, err := media.Capture(c.role)
	if err != nil {
		return fmt.Errorf("acquire local media: %w", err)
	}

	tr, err := transport.New(transport.ICEConfig{
		STUNServers:  c.cfg.STUNServers,
		TURNURLs:     c.cfg.TURN.URLs,
		TURNUsername: c.cfg.TURN.Username,
		TURNPassword: c.cfg.TURN.Password,
	}, capture.Tracks())
	if err != nil {
		capture.Close()
		return fmt.Errorf("build peer connection: %w", err)
	}

	tr.OnLocalCandidate(func(candidate webrtc.ICECandidateInit) {
		c.send(protocol.NewCandidate(c.roomID, candidate))
	})
	tr.OnRemoteTrack(func(track *webrtc.TrackRemote) {
		c.mu.Lock()
		fn := c.remoteTrack
		c.mu.Unlock()
		if fn != nil {
			fn(track)
			return
		}
		c.log.Debugf("remote %s track received", track.Kind())
	})

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		tr.Close()
		capture.Close()
		return nil
	}
	c.tr = tr
	c.capture = capture
	c.mu.Unlock()

	offer, err := tr.StartOffer()
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	c.send(protocol.NewOffer(c.role, c.roomID, offer))
	return nil
}

// readLoop pumps inbound frames until the connection dies.
func (c *Client) readLoop(conn *websocket.Conn) outcome {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.isClosed() {
				return outcomeStop
			}
			return c.classify(err)
		}

		util.Stats.AddRecv()
		msg, err := protocol.Decode(data)
		if err != nil {
			c.log.Warnf("dropping malformed frame: %v", err)
			continue
		}
		c.dispatch(msg)
	}
}

// classify maps a read error onto the reconnect policy: a normal close
// frame stops, an abnormal closure (code 1006: the socket died with no
// close frame, which is also how the server drops a rejected token)
// probes the token before redialing, and everything else reconnects after
// the standard delay.
func (c *Client) classify(err error) outcome {
	var ce *websocket.CloseError
	if !errors.As(err, &ce) {
		c.log.Warnf("signaling read error: %v", err)
		return outcomeReconnect
	}

	switch ce.Code {
	case websocket.CloseNormalClosure:
		c.log.Infof("signaling closed by server")
		return outcomeStop

	case websocket.CloseAbnormalClosure:
		c.log.Warnf("signaling connection lost: %v", err)
		refresher, ok := c.creds.(token.Refresher)
		if !ok {
			return outcomeReconnect
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := refresher.Refresh(ctx); err != nil {
			c.log.Errorf("token refresh failed, giving up: %v", err)
			return outcomeStop
		}
		c.log.Infof("token still valid, reconnecting shortly")
		return outcomeAuthRetry

	default:
		c.log.Warnf("signaling closed (code %d): %s", ce.Code, ce.Text)
		return outcomeReconnect
	}
}

// teardownSession releases the per-session resources after a read loop
// exit. The client itself stays alive for the reconnect policy, but
// nothing sent between sessions may carry over to the next one.
func (c *Client) teardownSession(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	tr := c.tr
	capture := c.capture
	c.tr = nil
	c.capture = nil
	c.sendQueue = nil
	c.mu.Unlock()

	conn.Close()
	if tr != nil {
		tr.Close()
	}
	if capture != nil {
		capture.Close()
	}
}

// dropQueue discards sends deferred during a dial that failed; deferred
// messages are never buffered across connection attempts.
func (c *Client) dropQueue() {
	c.mu.Lock()
	c.dialing = false
	n := len(c.sendQueue)
	c.sendQueue = nil
	c.mu.Unlock()
	if n > 0 {
		c.log.Warnf("dropped %d queued message(s) after failed dial", n)
	}
}
