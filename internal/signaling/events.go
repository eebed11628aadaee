// Package signaling owns one room's WebSocket connection and peer
// connection, translating caller actions into protocol messages and
// inbound frames into typed events.
package signaling

import (
	"github.com/freshbid/liveroom/internal/auction"
	"github.com/freshbid/liveroom/internal/protocol"
)

// EventSink receives the application events a room produces. SDP and ICE
// bookkeeping never reach the sink; only events the embedder must react
// to are forwarded. Sink methods are called from the read loop goroutine.
type EventSink interface {
	// OnBidStatus delivers the deduplicated bid book and auction state
	// after every bidStatusUpdate.
	OnBidStatus(auction.Snapshot)

	// OnOperationResult forwards start/stop/submit acknowledgements
	// verbatim, failed ones included; the embedder surfaces the message.
	OnOperationResult(op protocol.Type, result protocol.Result)

	// OnFreshnessRequest asks a host-side embedder to run a check.
	OnFreshnessRequest(protocol.FreshnessRequest)

	// OnFreshnessResult broadcasts a completed check.
	OnFreshnessResult(protocol.FreshnessResult)

	// OnWinningBid notifies the winning bidder.
	OnWinningBid(protocol.WinningBidResult)

	// OnLeave signals that the live room has ended.
	OnLeave()

	// OnFatal reports an unrecoverable session error (authorization or
	// host availability); the embedder should leave the room.
	OnFatal(message string)

	// OnAlert reports a non-fatal, user-facing failure message.
	OnAlert(message string)
}

// NopSink is an EventSink that ignores everything. Embedders can embed it
// and override only the events they care about.
type NopSink struct{}

func (NopSink) OnBidStatus(auction.Snapshot)                    {}
func (NopSink) OnOperationResult(protocol.Type, protocol.Result) {}
func (NopSink) OnFreshnessRequest(protocol.FreshnessRequest)    {}
func (NopSink) OnFreshnessResult(protocol.FreshnessResult)      {}
func (NopSink) OnWinningBid(protocol.WinningBidResult)          {}
func (NopSink) OnLeave()                                        {}
func (NopSink) OnFatal(string)                                  {}
func (NopSink) OnAlert(string)                                  {}
