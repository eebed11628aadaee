package signaling

import (
	"errors"
	"strings"
	"time"

	"github.com/freshbid/liveroom/internal/protocol"
	"github.com/freshbid/liveroom/internal/transport"
	"github.com/freshbid/liveroom/internal/util"
)

// fatalMarkers identify server error messages that end the session. Any
// other error text is surfaced as an alert and the session continues.
var fatalMarkers = []string{
	"no host available",
	"unauthorized",
	"permission",
}

// dispatch routes one decoded inbound message. SDP and ICE bookkeeping is
// handled here and never reaches the sink; everything else is translated
// into sink events.
func (c *Client) dispatch(msg protocol.Message) {
	switch m := msg.(type) {
	case protocol.StartResponse:
		if m.Failed() {
			c.sink.OnAlert(alertText("connection failed", m.Message))
			return
		}
		if m.SDPAnswer != "" {
			c.applyAnswer(m.SDPAnswer)
		}

	case protocol.Answer:
		c.applyAnswer(m.SDPAnswer)

	case protocol.Offer:
		c.applyOffer(m.SDPOffer)

	case protocol.IceCandidate:
		if tr := c.transportRef(); tr != nil {
			if err := tr.AddRemoteCandidate(m.Candidate); err != nil {
				c.log.Warnf("add remote candidate: %v", err)
			}
		}

	case protocol.BidStatusUpdate:
		util.Stats.AddBids(len(m.Bids))
		snap, retry := c.tracker.Observe(m)
		c.sink.OnBidStatus(snap)
		if retry != nil {
			if err := c.SubmitBid(retry.Amount); err != nil {
				c.log.Warnf("parked bid of %d not resubmitted: %v", retry.Amount, err)
				return
			}
			c.log.Infof("resubmitted parked bid of %d (parked %s ago)",
				retry.Amount, time.Since(retry.At).Round(time.Millisecond))
		}

	case protocol.StartAuctionResult:
		c.sink.OnOperationResult(protocol.TypeStartAuctionResult, m.Result)
	case protocol.StopAuctionResult:
		c.sink.OnOperationResult(protocol.TypeStopAuctionResult, m.Result)
	case protocol.SubmitBidResult:
		c.sink.OnOperationResult(protocol.TypeSubmitBidResult, m.Result)

	case protocol.FreshnessRequest:
		c.sink.OnFreshnessRequest(m)
	case protocol.FreshnessResult:
		c.sink.OnFreshnessResult(m)
	case protocol.WinningBidResult:
		c.sink.OnWinningBid(m)
	case protocol.LeaveParticipant:
		c.sink.OnLeave()

	case protocol.ErrorMessage:
		if isFatalServerError(m.Message) {
			c.log.Errorf("fatal server error: %s", m.Message)
			c.sink.OnFatal(m.Message)
			return
		}
		c.sink.OnAlert(m.Message)

	case protocol.AuthInfo:
		// authInfo belongs to the handshake socket; stray copies here are
		// harmless.
		c.log.Debugf("ignoring authInfo on room socket")

	case protocol.Unknown:
		c.log.Warnf("ignoring unknown message type %q", m.Type)
	}
}

// applyAnswer installs a remote answer. Duplicate answers are a server
// quirk and are dropped silently after the first one lands.
func (c *Client) applyAnswer(sdp string) {
	tr := c.transportRef()
	if tr == nil {
		return
	}
	applied, err := tr.ApplyAnswer(sdp)
	if err != nil {
		if !errors.Is(err, transport.ErrClosed) {
			c.log.Errorf("apply remote answer: %v", err)
		}
		return
	}
	if !applied {
		c.log.Debugf("duplicate answer ignored")
	}
}

// applyOffer answers a server-initiated renegotiation. Failures are
// logged only; the connection state callbacks report any real breakage.
func (c *Client) applyOffer(sdp string) {
	tr := c.transportRef()
	if tr == nil {
		return
	}
	answer, err := tr.ApplyOffer(sdp)
	if err != nil {
		if !errors.Is(err, transport.ErrClosed) {
			c.log.Errorf("answer renegotiation offer: %v", err)
		}
		return
	}
	c.send(protocol.NewAnswer(c.roomID, answer))
}

// transportRef snapshots the current peer connection wrapper; nil between
// sessions.
func (c *Client) transportRef() *transport.Transport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tr
}

func isFatalServerError(message string) bool {
	lower := strings.ToLower(message)
	for _, marker := range fatalMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func alertText(prefix, detail string) string {
	if detail == "" {
		return prefix
	}
	return prefix + ": " + detail
}
