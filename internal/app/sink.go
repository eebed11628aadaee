// Package app contains the top-level orchestration for host and
// participant roles.
package app

import (
	"context"

	"github.com/freshbid/liveroom/internal/auction"
	"github.com/freshbid/liveroom/internal/protocol"
	"github.com/freshbid/liveroom/internal/signaling"
	"github.com/freshbid/liveroom/internal/util"
)

// consoleSink renders room events to the terminal. It embeds NopSink so
// only the events the CLI reacts to need overriding.
type consoleSink struct {
	signaling.NopSink
	cancel context.CancelFunc
}

func newConsoleSink(cancel context.CancelFunc) *consoleSink {
	return &consoleSink{cancel: cancel}
}

func (s *consoleSink) OnBidStatus(snap auction.Snapshot) {
	if len(snap.Bids) == 0 {
		util.LogInfo("auction %d [%s]: no bids yet (highest %d)",
			snap.AuctionID, snap.Status, snap.HighestPrice)
		return
	}
	top := snap.Bids[0]
	for _, b := range snap.Bids {
		if b.Price > top.Price {
			top = b
		}
	}
	util.LogInfo("auction %d [%s]: %d bid(s), highest %d by %s",
		snap.AuctionID, snap.Status, len(snap.Bids), top.Price, top.Nickname)
}

func (s *consoleSink) OnOperationResult(op protocol.Type, res protocol.Result) {
	msg := res.Message
	if msg == "" {
		msg = "ok"
	}
	if res.Success {
		util.LogSuccess("%s: %s", op, msg)
		return
	}
	util.LogWarning("%s failed: %s", op, msg)
}

func (s *consoleSink) OnFreshnessRequest(protocol.FreshnessRequest) {
	util.LogInfo("a participant requested a freshness check")
}

func (s *consoleSink) OnFreshnessResult(m protocol.FreshnessResult) {
	util.LogInfo("freshness result: %s", m.Message)
}

func (s *consoleSink) OnWinningBid(m protocol.WinningBidResult) {
	if m.BidPrice != nil {
		util.LogSuccess("winning bid confirmed at %d", *m.BidPrice)
		return
	}
	util.LogSuccess("winning bid confirmed: %s", m.Message)
}

func (s *consoleSink) OnLeave() {
	util.LogInfo("the live room has ended")
	s.cancel()
}

func (s *consoleSink) OnFatal(message string) {
	util.LogError("session error: %s", message)
	s.cancel()
}

func (s *consoleSink) OnAlert(message string) {
	util.LogWarning("%s", message)
}
