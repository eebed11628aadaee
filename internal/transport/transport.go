// Package transport wraps a single PeerConnection behind an explicit
// negotiation state machine. The states make the protocol's one-shot
// rules unrepresentable as bugs: an answer can only be applied once, and
// candidates arriving before the remote description queue up and drain in
// arrival order.
package transport

import (
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/freshbid/liveroom/internal/util"
)

// State is the negotiation lifecycle of a Transport.
type State int

const (
	// StateIdle: created, no offer made yet.
	StateIdle State = iota
	// StateNegotiating: local offer sent, waiting for the answer.
	StateNegotiating
	// StateAnswered: remote answer applied; duplicates are ignored.
	StateAnswered
	// StateClosed: torn down; every operation becomes a no-op.
	StateClosed
)

// ErrClosed is returned by operations that need a live peer connection
// after Close. In-flight async work checks for it and no-ops.
var ErrClosed = errors.New("transport closed")

// session is the slice of *webrtc.PeerConnection the state machine
// drives. Tests substitute a fake; production always binds pion.
type session interface {
	CreateOffer(*webrtc.OfferOptions) (webrtc.SessionDescription, error)
	CreateAnswer(*webrtc.AnswerOptions) (webrtc.SessionDescription, error)
	SetLocalDescription(webrtc.SessionDescription) error
	SetRemoteDescription(webrtc.SessionDescription) error
	AddICECandidate(webrtc.ICECandidateInit) error
	AddTrack(webrtc.TrackLocal) (*webrtc.RTPSender, error)
	OnICECandidate(func(*webrtc.ICECandidate))
	OnTrack(func(*webrtc.TrackRemote, *webrtc.RTPReceiver))
	OnConnectionStateChange(func(webrtc.PeerConnectionState))
	Close() error
}

// Transport owns one peer connection for the lifetime of one room join.
// It is never reused: reconnection builds a fresh Transport.
type Transport struct {
	mu        sync.Mutex
	pc        session
	state     State
	remoteSet bool
	pending   []webrtc.ICECandidateInit
}

// New creates a Transport backed by a new PeerConnection and attaches the
// given local media tracks before any negotiation happens.
func New(ice ICEConfig, tracks []webrtc.TrackLocal) (*Transport, error) {
	pc, err := newPeerConnection(ice)
	if err != nil {
		return nil, err
	}
	for _, track := range tracks {
		if _, err := pc.AddTrack(track); err != nil {
			pc.Close()
			return nil, err
		}
	}

	t := newTransport(pc)
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		util.LogDebug("PeerConnection state: %s", state.String())
	})
	return t, nil
}

// newTransport wires the state machine over an already-built session.
func newTransport(pc session) *Transport {
	return &Transport{pc: pc, state: StateIdle}
}

// State returns the current negotiation state.
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// StartOffer creates the local SDP offer, applies it as the local
// description, and moves to Negotiating. Valid only from Idle.
func (t *Transport) StartOffer() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case StateClosed:
		return "", ErrClosed
	case StateIdle:
	default:
		return "", errors.New("offer already in flight")
	}

	offer, err := t.pc.CreateOffer(nil)
	if err != nil {
		return "", err
	}
	if err := t.pc.SetLocalDescription(offer); err != nil {
		return "", err
	}
	t.state = StateNegotiating
	return offer.SDP, nil
}

// ApplyAnswer applies a remote SDP answer and drains queued candidates.
// It is one-shot: once Answered, further answers report applied=false
// without touching the peer connection (duplicate startResponse/answer
// frames are expected from the server).
func (t *Transport) ApplyAnswer(sdp string) (applied bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case StateClosed:
		return false, ErrClosed
	case StateAnswered:
		return false, nil
	}

	if err := t.pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  sdp,
	}); err != nil {
		return false, err
	}
	t.remoteSet = true
	t.drainLocked()
	t.state = StateAnswered
	return true, nil
}

// ApplyOffer handles a server-pushed renegotiation offer: set it as the
// remote description, drain queued candidates, and produce a local
// answer. The negotiation state is left as-is; a failed renegotiation
// does not tear the connection down.
func (t *Transport) ApplyOffer(sdp string) (answerSDP string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateClosed {
		return "", ErrClosed
	}

	if err := t.pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  sdp,
	}); err != nil {
		return "", err
	}
	t.remoteSet = true
	t.drainLocked()

	answer, err := t.pc.CreateAnswer(nil)
	if err != nil {
		return "", err
	}
	if err := t.pc.SetLocalDescription(answer); err != nil {
		return "", err
	}
	return answer.SDP, nil
}

// AddRemoteCandidate applies a trickled candidate immediately when the
// remote description is set, otherwise queues it for the drain that
// follows ApplyAnswer/ApplyOffer. Candidates arriving after Close are
// dropped silently.
func (t *Transport) AddRemoteCandidate(candidate webrtc.ICECandidateInit) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateClosed {
		return nil
	}
	if !t.remoteSet {
		t.pending = append(t.pending, candidate)
		return nil
	}
	return t.pc.AddICECandidate(candidate)
}

// drainLocked applies queued candidates in arrival order. Individual
// failures are logged and do not stop the drain.
func (t *Transport) drainLocked() {
	for _, candidate := range t.pending {
		if err := t.pc.AddICECandidate(candidate); err != nil {
			util.LogWarning("apply queued ICE candidate: %v", err)
		}
	}
	t.pending = nil
}

// PendingCandidates reports how many candidates are queued.
func (t *Transport) PendingCandidates() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// OnLocalCandidate registers a callback for each gathered local ICE
// candidate, already converted to its wire form. The nil end-of-gathering
// marker is filtered out.
func (t *Transport) OnLocalCandidate(fn func(webrtc.ICECandidateInit)) {
	t.pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		fn(c.ToJSON())
	})
}

// OnRemoteTrack registers a callback for incoming remote media tracks.
func (t *Transport) OnRemoteTrack(fn func(*webrtc.TrackRemote)) {
	t.pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		fn(track)
	})
}

// Close tears the peer connection down. Idempotent: the second and later
// calls return nil without touching the closed connection.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateClosed {
		return nil
	}
	t.state = StateClosed
	t.pending = nil
	return t.pc.Close()
}
