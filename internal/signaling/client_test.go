package signaling_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshbid/liveroom/internal/auction"
	"github.com/freshbid/liveroom/internal/config"
	"github.com/freshbid/liveroom/internal/protocol"
	"github.com/freshbid/liveroom/internal/signaling"
	"github.com/freshbid/liveroom/internal/token"
)

var upgrader = websocket.Upgrader{}

// roomServer is an in-process signaling peer. Every accepted connection
// is handed to the test, with its inbound frames decoded onto a channel.
type roomServer struct {
	cfg    config.Config
	conns  chan *serverConn
	server *httptest.Server
}

type serverConn struct {
	ws        *websocket.Conn
	frames    chan map[string]any
	closeCode chan int
}

func newRoomServer(t *testing.T) *roomServer {
	return newDelayedRoomServer(t, 0)
}

// newDelayedRoomServer holds each upgrade back by acceptDelay, keeping
// the client's dial in flight for that long.
func newDelayedRoomServer(t *testing.T, acceptDelay time.Duration) *roomServer {
	t.Helper()
	rs := &roomServer{conns: make(chan *serverConn, 4)}

	rs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if acceptDelay > 0 {
			time.Sleep(acceptDelay)
		}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		sc := &serverConn{
			ws:        ws,
			frames:    make(chan map[string]any, 32),
			closeCode: make(chan int, 1),
		}
		rs.conns <- sc

		go func() {
			defer close(sc.frames)
			for {
				_, data, err := ws.ReadMessage()
				if err != nil {
					var ce *websocket.CloseError
					if errors.As(err, &ce) {
						sc.closeCode <- ce.Code
					}
					return
				}
				var frame map[string]any
				if json.Unmarshal(data, &frame) == nil {
					sc.frames <- frame
				}
			}
		}()
	}))
	t.Cleanup(rs.server.Close)

	rs.cfg = config.Default()
	rs.cfg.SignalingURL = "ws" + strings.TrimPrefix(rs.server.URL, "http")
	// No STUN in tests: host candidates are enough and nothing leaves the
	// process.
	rs.cfg.STUNServers = nil
	return rs
}

func (rs *roomServer) accept(t *testing.T) *serverConn {
	t.Helper()
	select {
	case sc := <-rs.conns:
		return sc
	case <-time.After(3 * time.Second):
		t.Fatal("client never connected")
		return nil
	}
}

// awaitFrame returns the next inbound frame of the wanted type, skipping
// unrelated traffic such as trickled ICE candidates.
func (sc *serverConn) awaitFrame(t *testing.T, typ string) map[string]any {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case frame, ok := <-sc.frames:
			if !ok {
				t.Fatalf("connection closed while waiting for %q", typ)
			}
			if frame["type"] == typ {
				return frame
			}
		case <-deadline:
			t.Fatalf("no %q frame arrived", typ)
		}
	}
}

// assertNoFrame fails when a frame of the given type shows up within the
// window.
func (sc *serverConn) assertNoFrame(t *testing.T, typ string, window time.Duration) {
	t.Helper()
	deadline := time.After(window)
	for {
		select {
		case frame, ok := <-sc.frames:
			if !ok {
				return
			}
			if frame["type"] == typ {
				t.Fatalf("unexpected %q frame: %v", typ, frame)
			}
		case <-deadline:
			return
		}
	}
}

func (sc *serverConn) write(t *testing.T, frame string) {
	t.Helper()
	require.NoError(t, sc.ws.WriteMessage(websocket.TextMessage, []byte(frame)))
}

// recordingSink captures sink events on channels.
type recordingSink struct {
	signaling.NopSink
	snaps  chan auction.Snapshot
	fatals chan string
	alerts chan string
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		snaps:  make(chan auction.Snapshot, 8),
		fatals: make(chan string, 2),
		alerts: make(chan string, 8),
	}
}

func (s *recordingSink) OnBidStatus(snap auction.Snapshot) { s.snaps <- snap }
func (s *recordingSink) OnFatal(msg string)                { s.fatals <- msg }
func (s *recordingSink) OnAlert(msg string)                { s.alerts <- msg }

// fakeRefresher records probe attempts and returns a canned result.
type fakeRefresher struct {
	token.Source
	refreshed chan struct{}
	err       error
}

func (f *fakeRefresher) Refresh(context.Context) error {
	f.refreshed <- struct{}{}
	return f.err
}

func recv[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		var zero T
		return zero
	}
}

// TestJoinRequiresToken verifies the fail-fast on an empty credential
// source: no goroutine, no dial.
func TestJoinRequiresToken(t *testing.T) {
	cfg := config.Default()
	cfg.SignalingURL = "ws://127.0.0.1:0"

	_, err := signaling.Join(cfg, 1, protocol.RoleParticipant, token.Static(""), nil)
	assert.ErrorIs(t, err, token.ErrNoToken)
}

// TestSessionSendsRoleKeyedOffer verifies the open sequence: after the
// dial the first signaling action is the role-keyed offer with a real SDP.
func TestSessionSendsRoleKeyedOffer(t *testing.T) {
	rs := newRoomServer(t)

	client, err := signaling.Join(rs.cfg, 42, protocol.RoleParticipant, token.Static("tok"), nil)
	require.NoError(t, err)
	defer client.Leave()

	sc := rs.accept(t)
	offer := sc.awaitFrame(t, "participant")
	assert.EqualValues(t, 42, offer["roomId"])
	sdp, _ := offer["sdpOffer"].(string)
	assert.NotEmpty(t, sdp)
}

// TestBidStatusReachesSinkAndRetriesParkedBid verifies the dispatch path
// end to end: the update lands on the sink deduplicated, and a parked bid
// is resubmitted exactly once with the update's auction id.
func TestBidStatusReachesSinkAndRetriesParkedBid(t *testing.T) {
	rs := newRoomServer(t)
	sink := newRecordingSink()

	client, err := signaling.Join(rs.cfg, 42, protocol.RoleParticipant, token.Static("tok"), sink)
	require.NoError(t, err)
	defer client.Leave()

	sc := rs.accept(t)
	sc.awaitFrame(t, "participant")

	client.Tracker().Park(9000, time.Now())

	sc.write(t, `{"type":"bidStatusUpdate","auctionId":7,"status":"IN_PROGRESS",`+
		`"currentHighestPrice":8000,`+
		`"bidListJson":"[{\"userNickName\":\"kim\",\"bidPrice\":8000},{\"userNickName\":\"kim\",\"bidPrice\":8000}]"}`)

	snap := recv(t, sink.snaps, "bid status")
	assert.Equal(t, int64(7), snap.AuctionID)
	assert.True(t, snap.InProgress())
	assert.Len(t, snap.Bids, 1, "duplicate bid entries must collapse")

	bid := sc.awaitFrame(t, "submitBid")
	assert.EqualValues(t, 9000, bid["bidPrice"])
	assert.EqualValues(t, 7, bid["auctionId"])
	assert.Nil(t, client.Tracker().Pending())
}

// TestSubmitBidWithoutAuction verifies the guard: no in-progress auction
// means no frame leaves the client.
func TestSubmitBidWithoutAuction(t *testing.T) {
	rs := newRoomServer(t)

	client, err := signaling.Join(rs.cfg, 42, protocol.RoleParticipant, token.Static("tok"), nil)
	require.NoError(t, err)
	defer client.Leave()

	rs.accept(t)
	assert.ErrorIs(t, client.SubmitBid(100), signaling.ErrNoAuction)
}

// TestQueuedSendFlushesOnceAfterOpen verifies the deferred-send rule: a
// message sent while the dial is in flight goes out exactly once when the
// socket opens.
func TestQueuedSendFlushesOnceAfterOpen(t *testing.T) {
	rs := newDelayedRoomServer(t, 300*time.Millisecond)

	client, err := signaling.Join(rs.cfg, 42, protocol.RoleParticipant, token.Static("tok"), nil)
	require.NoError(t, err)
	defer client.Leave()

	// The dial is still being held back by the server.
	client.RequestFreshCheck()

	sc := rs.accept(t)
	frame := sc.awaitFrame(t, "freshCheck")
	assert.EqualValues(t, 42, frame["roomId"])
	sc.assertNoFrame(t, "freshCheck", 300*time.Millisecond)
}

// TestSendBetweenSessionsIsDropped verifies that nothing buffers across
// connections: a message sent during the reconnect delay never reaches
// the next session's socket.
func TestSendBetweenSessionsIsDropped(t *testing.T) {
	rs := newRoomServer(t)
	rs.cfg.ReconnectDelay = 500 * time.Millisecond

	client, err := signaling.Join(rs.cfg, 42, protocol.RoleParticipant, token.Static("tok"), nil)
	require.NoError(t, err)
	defer client.Leave()

	sc1 := rs.accept(t)
	sc1.awaitFrame(t, "participant")

	// A non-1000, non-1006 close frame puts the client on the plain
	// delayed-reconnect path.
	deadline := time.Now().Add(time.Second)
	require.NoError(t, sc1.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "restart"), deadline))

	// Give the client time to observe the close, then send mid-delay.
	time.Sleep(150 * time.Millisecond)
	client.RequestFreshCheck()

	sc2 := rs.accept(t)
	sc2.awaitFrame(t, "participant")
	sc2.assertNoFrame(t, "freshCheck", 300*time.Millisecond)
}

// TestServerErrorRouting verifies the fatal/alert split on server error
// frames.
func TestServerErrorRouting(t *testing.T) {
	rs := newRoomServer(t)
	sink := newRecordingSink()

	client, err := signaling.Join(rs.cfg, 42, protocol.RoleParticipant, token.Static("tok"), sink)
	require.NoError(t, err)
	defer client.Leave()

	sc := rs.accept(t)
	sc.write(t, `{"type":"error","message":"bid too low"}`)
	assert.Equal(t, "bid too low", recv(t, sink.alerts, "alert"))

	sc.write(t, `{"type":"error","message":"No host available in this room"}`)
	assert.Equal(t, "No host available in this room", recv(t, sink.fatals, "fatal"))
}

// TestConnectionLossProbesToken verifies the recoverable-auth path: an
// abnormal closure triggers the token probe before any redial, and a
// failed probe ends the session instead of retrying forever.
func TestConnectionLossProbesToken(t *testing.T) {
	rs := newRoomServer(t)
	creds := &fakeRefresher{
		Source:    token.Static("tok"),
		refreshed: make(chan struct{}, 1),
		err:       errors.New("session expired"),
	}

	client, err := signaling.Join(rs.cfg, 42, protocol.RoleParticipant, creds, nil)
	require.NoError(t, err)
	defer client.Leave()

	sc := rs.accept(t)
	sc.awaitFrame(t, "participant")

	// Kill the TCP stream with no close frame, the way the server drops a
	// rejected token.
	sc.ws.UnderlyingConn().Close()

	recv(t, creds.refreshed, "token probe")

	// The probe failed: no second connection may show up.
	select {
	case <-rs.conns:
		t.Fatal("client reconnected despite a failed token probe")
	case <-time.After(300 * time.Millisecond):
	}
}

// TestLeaveSendsStopAndNormalClose verifies the teardown order: stop
// frame, close frame 1000, and idempotence.
func TestLeaveSendsStopAndNormalClose(t *testing.T) {
	rs := newRoomServer(t)

	client, err := signaling.Join(rs.cfg, 42, protocol.RoleParticipant, token.Static("tok"), nil)
	require.NoError(t, err)

	sc := rs.accept(t)
	sc.awaitFrame(t, "participant")

	client.Leave()
	client.Leave()

	stop := sc.awaitFrame(t, "stop")
	assert.EqualValues(t, 42, stop["roomId"])
	assert.Equal(t, websocket.CloseNormalClosure, recv(t, sc.closeCode, "close frame"))
}
