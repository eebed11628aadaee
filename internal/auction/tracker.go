// Package auction tracks server-pushed auction state for one room.
//
// The bidStatusUpdate stream is the sole source of truth: the tracker
// keeps exactly one copy of the auction status and never re-derives it
// from a REST snapshot, so it cannot desync from what the server
// broadcasts.
package auction

import (
	"sync"
	"time"

	"github.com/freshbid/liveroom/internal/protocol"
)

// Snapshot is the last state the server pushed for the room's auction.
type Snapshot struct {
	AuctionID    int64
	Status       protocol.AuctionStatus
	HighestPrice int64
	Bids         []protocol.Bid
}

// InProgress reports whether the snapshot shows a running auction.
func (s Snapshot) InProgress() bool {
	return s.Status == protocol.StatusInProgress
}

// PendingBid is a bid attempted while no auction was known to be in
// progress. It is retried exactly once, when the next status update
// reports a running auction.
type PendingBid struct {
	Amount int64
	At     time.Time
}

// Tracker holds the room's auction state. All methods are safe for
// concurrent use; the signaling read loop and the caller's goroutines
// both touch it.
type Tracker struct {
	mu         sync.Mutex
	snap       Snapshot
	startPrice int64
	pending    *PendingBid
}

// NewTracker creates a tracker. startPrice is the auction's listed start
// price, used as the floor before any bids arrive.
func NewTracker(startPrice int64) *Tracker {
	return &Tracker{startPrice: startPrice}
}

// Observe applies one bidStatusUpdate. It returns the resulting snapshot
// and, when the update reports a running auction, any parked bid — which
// is removed from the tracker so it fires at most once.
func (t *Tracker) Observe(update protocol.BidStatusUpdate) (Snapshot, *PendingBid) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap = Snapshot{
		AuctionID:    update.AuctionID,
		Status:       update.Status,
		HighestPrice: update.CurrentHighestPrice,
		Bids:         update.Bids,
	}

	var retry *PendingBid
	if t.snap.InProgress() && t.pending != nil {
		retry = t.pending
		t.pending = nil
	}
	return t.snap, retry
}

// SetStartPrice updates the listed start price, for callers that learn
// it after the tracker exists.
func (t *Tracker) SetStartPrice(price int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startPrice = price
}

// Current returns the last pushed snapshot.
func (t *Tracker) Current() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}

// HighestPrice returns the best known price: the top of the bid book,
// else the server's reported highest, else the listed start price.
func (t *Tracker) HighestPrice() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var top int64
	for _, b := range t.snap.Bids {
		if b.Price > top {
			top = b.Price
		}
	}
	if top > 0 {
		return top
	}
	if t.snap.HighestPrice > 0 {
		return t.snap.HighestPrice
	}
	return t.startPrice
}

// Park records a bid to retry when the auction shows up as running. A
// newer parked bid replaces an older one; only the latest intent matters.
func (t *Tracker) Park(amount int64, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = &PendingBid{Amount: amount, At: at}
}

// Pending returns the currently parked bid, if any.
func (t *Tracker) Pending() *PendingBid {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}
