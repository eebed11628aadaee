// Package gesture converts hand-sign classifier readings into bids. The
// inference runtime itself lives outside this module; the bidder only
// consumes its (label, confidence) output stream.
package gesture

import (
	"errors"
	"time"

	"github.com/freshbid/liveroom/internal/auction"
	"github.com/freshbid/liveroom/internal/signaling"
	"github.com/freshbid/liveroom/internal/util"
)

const (
	// HoldDuration is how long a sign must be held before it counts as a
	// bid intent; shorter flashes are classifier noise.
	HoldDuration = 1500 * time.Millisecond

	// Cooldown is the minimum gap between two gesture bids.
	Cooldown = 3 * time.Second

	// MinConfidence is the classifier confidence floor for a reading to
	// be considered at all.
	MinConfidence = 0.8

	// IncrementUnit is the bid step one count of the held sign adds on
	// top of the current highest price.
	IncrementUnit = 1000
)

// increments maps a sign label to its bid increment multiplier.
var increments = map[string]int64{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4,
	"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

// Reading is one classifier output frame.
type Reading struct {
	Label      string
	Confidence float64
}

// Submitter places bids; satisfied by *signaling.Client.
type Submitter interface {
	SubmitBid(price int64) error
}

var _ Submitter = (*signaling.Client)(nil)

// Bidder turns a stream of readings into bids: a supported sign held for
// HoldDuration, past the cooldown, submits highest+n×1000. With no
// auction in progress the bid is parked on the tracker instead. Not safe
// for concurrent use; feed it from one goroutine.
type Bidder struct {
	client  Submitter
	tracker *auction.Tracker

	now func() time.Time

	heldLabel string
	heldSince time.Time
	lastBid   time.Time
}

// NewBidder creates a bidder driving the given client and tracker.
func NewBidder(client Submitter, tracker *auction.Tracker) *Bidder {
	return &Bidder{client: client, tracker: tracker, now: time.Now}
}

// Observe feeds one classifier reading. It returns the submitted (or
// parked) amount and true when this reading fired a bid.
func (b *Bidder) Observe(r Reading) (int64, bool) {
	n, supported := increments[r.Label]
	if !supported || r.Confidence < MinConfidence {
		b.heldLabel = ""
		return 0, false
	}

	now := b.now()
	if r.Label != b.heldLabel {
		b.heldLabel = r.Label
		b.heldSince = now
		return 0, false
	}
	if now.Sub(b.heldSince) < HoldDuration {
		return 0, false
	}
	if !b.lastBid.IsZero() && now.Sub(b.lastBid) < Cooldown {
		return 0, false
	}
	if n == 0 {
		// "zero" is a recognized sign but adds nothing to the price.
		b.heldLabel = ""
		return 0, false
	}

	amount := b.tracker.HighestPrice() + n*IncrementUnit
	if err := b.client.SubmitBid(amount); err != nil {
		if errors.Is(err, signaling.ErrNoAuction) {
			b.tracker.Park(amount, now)
			util.LogInfo("gesture bid of %d parked until the auction starts", amount)
		} else {
			util.LogWarning("gesture bid of %d not submitted: %v", amount, err)
			return 0, false
		}
	} else {
		util.LogInfo("gesture %q submitted bid of %d", r.Label, amount)
	}

	b.lastBid = now
	b.heldLabel = ""
	return amount, true
}
