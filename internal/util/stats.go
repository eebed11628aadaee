package util

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pterm/pterm"
)

// ──────────────────────────────────────────────────────────────────────────────
// Global stats singleton
// ──────────────────────────────────────────────────────────────────────────────

// Stats is the process-wide signaling traffic counter.
var Stats = &stats{}

type stats struct {
	MessagesSent atomic.Int64 // cumulative signaling messages written
	MessagesRecv atomic.Int64 // cumulative signaling messages read
	BidsObserved atomic.Int64 // cumulative bid entries seen in status updates
	Reconnects   atomic.Int64 // cumulative reconnect attempts
}

func (s *stats) AddSent()          { s.MessagesSent.Add(1) }
func (s *stats) AddRecv()          { s.MessagesRecv.Add(1) }
func (s *stats) AddBids(n int)     { s.BidsObserved.Add(int64(n)) }
func (s *stats) AddReconnect()     { s.Reconnects.Add(1) }

// ──────────────────────────────────────────────────────────────────────────────
// Periodic reporter
// ──────────────────────────────────────────────────────────────────────────────

// StartStatsReporter launches a goroutine that logs session statistics
// every 10 seconds. It stops when ctx is cancelled. Quiet intervals (no
// traffic since the last tick) are not logged.
func StartStatsReporter(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		var prevSent, prevRecv, prevBids, prevReconn int64
		for {
			select {
			case <-ticker.C:
				sent := Stats.MessagesSent.Load()
				recv := Stats.MessagesRecv.Load()
				bids := Stats.BidsObserved.Load()
				reconn := Stats.Reconnects.Load()

				if sent != prevSent || recv != prevRecv || bids != prevBids || reconn != prevReconn {
					pterm.DefaultLogger.Info(fmt.Sprintf(
						"Out: %3d msg | In: %3d msg | Bids: %3d | Reconnects: %d",
						sent-prevSent, recv-prevRecv, bids-prevBids, reconn))
				}

				prevSent = sent
				prevRecv = recv
				prevBids = bids
				prevReconn = reconn

			case <-ctx.Done():
				return
			}
		}
	}()
}
