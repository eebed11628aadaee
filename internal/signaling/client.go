package signaling

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"

	"github.com/freshbid/liveroom/internal/auction"
	"github.com/freshbid/liveroom/internal/config"
	"github.com/freshbid/liveroom/internal/media"
	"github.com/freshbid/liveroom/internal/protocol"
	"github.com/freshbid/liveroom/internal/token"
	"github.com/freshbid/liveroom/internal/transport"
	"github.com/freshbid/liveroom/internal/util"
)

// ErrNoAuction is returned when a bid is submitted while no auction is
// known to be in progress.
var ErrNoAuction = errors.New("no auction in progress")

// Client is the signaling and bidding client for one room. A Client is
// bound to one room id and role for its lifetime; leaving and rejoining
// means a new Client.
type Client struct {
	cfg     config.Config
	roomID  int64
	role    protocol.Role
	creds   token.Source
	sink    EventSink
	tracker *auction.Tracker
	log     util.SessionLogger

	done chan struct{} // closed by Leave

	mu          sync.Mutex
	conn        *websocket.Conn
	dialing     bool  // a dial is in flight; sends may queue
	sendQueue   []any // messages deferred while the dial is in flight
	tr          *transport.Transport
	capture     *media.Session
	remoteTrack func(*webrtc.TrackRemote)
	closed      bool
}

// Join constructs the client and immediately starts connecting. It fails
// fast, without any connection attempt, when the credential source holds
// no token — that is fatal for the session.
func Join(cfg config.Config, roomID int64, role protocol.Role, creds token.Source, sink EventSink) (*Client, error) {
	if _, err := creds.Token(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = NopSink{}
	}

	c := &Client{
		cfg:     cfg,
		roomID:  roomID,
		role:    role,
		creds:   creds,
		sink:    sink,
		tracker: auction.NewTracker(0),
		log:     util.NewSessionLogger(),
		done:    make(chan struct{}),
		dialing: true,
	}
	go c.run()
	return c, nil
}

// RoomID returns the room this client is bound to.
func (c *Client) RoomID() int64 { return c.roomID }

// Role returns the local participant's role.
func (c *Client) Role() protocol.Role { return c.role }

// Tracker exposes the room's auction state tracker.
func (c *Client) Tracker() *auction.Tracker { return c.tracker }

// OnRemoteTrack registers a callback for incoming remote media tracks
// (the host's stream, relayed by the media server). Safe to call at any
// time; applies to the current and all future peer connections.
func (c *Client) OnRemoteTrack(fn func(*webrtc.TrackRemote)) {
	c.mu.Lock()
	c.remoteTrack = fn
	c.mu.Unlock()
}

// ─────────────────────────────────────────────────────────────────────────
// Outbound operations
// ─────────────────────────────────────────────────────────────────────────

// SubmitBid places a bid on the auction currently reported in progress.
// When no auction is in progress it returns ErrNoAuction without sending;
// callers that want retry-on-refresh semantics park the bid on the
// Tracker instead.
func (c *Client) SubmitBid(price int64) error {
	snap := c.tracker.Current()
	if !snap.InProgress() {
		return ErrNoAuction
	}
	c.send(protocol.NewSubmitBid(c.roomID, snap.AuctionID, price))
	return nil
}

// StartAuction asks the server to start a scheduled auction (host only).
func (c *Client) StartAuction(auctionID, sellerID int64) {
	c.send(protocol.NewStartAuction(c.roomID, auctionID, sellerID))
}

// StopAuction asks the server to close the in-progress auction,
// confirming the winning bid (host only).
func (c *Client) StopAuction(auctionID, sellerID int64) {
	c.send(protocol.NewStopAuction(c.roomID, sellerID, auctionID))
}

// RequestFreshCheck asks the host to run a freshness check (participant).
func (c *Client) RequestFreshCheck() {
	c.send(protocol.NewFreshCheckRequest(c.roomID))
}

// ReportFreshness broadcasts the host's freshness result code.
func (c *Client) ReportFreshness(code int) {
	c.send(protocol.NewFreshCheckResult(c.roomID, code))
}

// ─────────────────────────────────────────────────────────────────────────
// Send primitive
// ─────────────────────────────────────────────────────────────────────────

// send is the single outbound path. While a dial is in flight the
// message is queued exactly once and flushed when the socket opens; on an
// open socket it is written immediately. With no socket and no dial in
// flight (after Leave, or between sessions during a reconnect delay) the
// message is dropped: nothing buffers across connections.
func (c *Client) send(msg any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed:
	case c.conn != nil:
		c.writeLocked(msg)
	case c.dialing:
		c.sendQueue = append(c.sendQueue, msg)
	default:
		c.log.Debugf("dropping outbound message while disconnected")
	}
}

// writeLocked writes one message to the open socket. Write failures are
// logged, not surfaced: the read loop will observe the broken connection
// and drive the reconnect policy.
func (c *Client) writeLocked(msg any) {
	if err := c.conn.WriteJSON(msg); err != nil {
		c.log.Warnf("signaling send failed: %v", err)
		return
	}
	util.Stats.AddSent()
}

// ─────────────────────────────────────────────────────────────────────────
// Teardown
// ─────────────────────────────────────────────────────────────────────────

// Leave tears the room session down: a best-effort stop message, a normal
// close frame, then peer connection and media release. Idempotent.
func (c *Client) Leave() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	conn := c.conn
	tr := c.tr
	capture := c.capture
	c.conn = nil
	c.tr = nil
	c.capture = nil
	c.sendQueue = nil
	c.mu.Unlock()

	close(c.done)

	if conn != nil {
		// Best-effort: only attempted because the socket was open.
		if err := conn.WriteJSON(protocol.NewStop(c.roomID)); err == nil {
			util.Stats.AddSent()
		}
		deadline := time.Now().Add(time.Second)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "leave"), deadline)
		conn.Close()
	}
	if tr != nil {
		tr.Close()
	}
	if capture != nil {
		capture.Close()
	}
	c.log.Infof("left room %d", c.roomID)
}

// isClosed reports whether Leave has been called.
func (c *Client) isClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
