package gesture

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshbid/liveroom/internal/auction"
	"github.com/freshbid/liveroom/internal/protocol"
	"github.com/freshbid/liveroom/internal/signaling"
)

// Compile-time interface check.
var _ Submitter = (*fakeSubmitter)(nil)

type fakeSubmitter struct {
	bids []int64
	err  error
}

func (f *fakeSubmitter) SubmitBid(price int64) error {
	if f.err != nil {
		return f.err
	}
	f.bids = append(f.bids, price)
	return nil
}

// testBidder returns a bidder on a fake clock the test advances.
func testBidder(submitter Submitter, tracker *auction.Tracker) (*Bidder, *time.Time) {
	now := time.Unix(1_700_000_000, 0)
	b := NewBidder(submitter, tracker)
	b.now = func() time.Time { return now }
	return b, &now
}

func inProgress(tracker *auction.Tracker, highest int64) {
	tracker.Observe(protocol.BidStatusUpdate{
		AuctionID:           1,
		Status:              protocol.StatusInProgress,
		CurrentHighestPrice: highest,
	})
}

// TestHeldSignSubmitsBid verifies the core mapping: "three" held past the
// hold duration bids highest+3000.
func TestHeldSignSubmitsBid(t *testing.T) {
	submitter := &fakeSubmitter{}
	tracker := auction.NewTracker(0)
	inProgress(tracker, 10000)
	b, now := testBidder(submitter, tracker)

	reading := Reading{Label: "three", Confidence: 0.95}

	_, fired := b.Observe(reading)
	assert.False(t, fired, "first frame only starts the hold")

	*now = now.Add(HoldDuration)
	amount, fired := b.Observe(reading)
	require.True(t, fired)
	assert.Equal(t, int64(13000), amount)
	assert.Equal(t, []int64{13000}, submitter.bids)
}

// TestShortHoldDoesNotFire verifies that flashes shorter than the hold
// duration are treated as noise.
func TestShortHoldDoesNotFire(t *testing.T) {
	submitter := &fakeSubmitter{}
	tracker := auction.NewTracker(0)
	inProgress(tracker, 10000)
	b, now := testBidder(submitter, tracker)

	reading := Reading{Label: "five", Confidence: 0.95}
	b.Observe(reading)
	*now = now.Add(HoldDuration / 2)
	_, fired := b.Observe(reading)

	assert.False(t, fired)
	assert.Empty(t, submitter.bids)
}

// TestLabelChangeRestartsHold verifies that switching signs mid-hold
// starts the timer over.
func TestLabelChangeRestartsHold(t *testing.T) {
	submitter := &fakeSubmitter{}
	tracker := auction.NewTracker(0)
	inProgress(tracker, 10000)
	b, now := testBidder(submitter, tracker)

	b.Observe(Reading{Label: "two", Confidence: 0.95})
	*now = now.Add(HoldDuration)
	_, fired := b.Observe(Reading{Label: "four", Confidence: 0.95})
	assert.False(t, fired, "new label restarts the hold")

	*now = now.Add(HoldDuration)
	amount, fired := b.Observe(Reading{Label: "four", Confidence: 0.95})
	require.True(t, fired)
	assert.Equal(t, int64(14000), amount)
}

// TestCooldownBlocksRapidBids verifies the gap between gesture bids.
func TestCooldownBlocksRapidBids(t *testing.T) {
	submitter := &fakeSubmitter{}
	tracker := auction.NewTracker(0)
	inProgress(tracker, 10000)
	b, now := testBidder(submitter, tracker)

	reading := Reading{Label: "one", Confidence: 0.95}
	b.Observe(reading)
	*now = now.Add(HoldDuration)
	_, fired := b.Observe(reading)
	require.True(t, fired)

	// Held again immediately: still cooling down.
	b.Observe(reading)
	*now = now.Add(HoldDuration)
	_, fired = b.Observe(reading)
	assert.False(t, fired)

	// Past the cooldown it may fire again.
	*now = now.Add(Cooldown)
	b.Observe(reading)
	*now = now.Add(HoldDuration)
	_, fired = b.Observe(reading)
	assert.True(t, fired)
	assert.Len(t, submitter.bids, 2)
}

// TestIgnoredReadings verifies the filters: unsupported labels, low
// confidence, and the zero sign.
func TestIgnoredReadings(t *testing.T) {
	testCases := []struct {
		name    string
		reading Reading
	}{
		{"unsupported label", Reading{Label: "thumbs_up", Confidence: 0.99}},
		{"low confidence", Reading{Label: "five", Confidence: 0.5}},
		{"zero adds nothing", Reading{Label: "zero", Confidence: 0.99}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			submitter := &fakeSubmitter{}
			tracker := auction.NewTracker(0)
			inProgress(tracker, 10000)
			b, now := testBidder(submitter, tracker)

			b.Observe(tc.reading)
			*now = now.Add(HoldDuration)
			_, fired := b.Observe(tc.reading)

			assert.False(t, fired)
			assert.Empty(t, submitter.bids)
		})
	}
}

// TestNoAuctionParksBid verifies that a gesture bid with no running
// auction lands on the tracker for the one-shot retry.
func TestNoAuctionParksBid(t *testing.T) {
	submitter := &fakeSubmitter{err: signaling.ErrNoAuction}
	tracker := auction.NewTracker(10000)
	b, now := testBidder(submitter, tracker)

	reading := Reading{Label: "two", Confidence: 0.95}
	b.Observe(reading)
	*now = now.Add(HoldDuration)
	amount, fired := b.Observe(reading)

	require.True(t, fired)
	assert.Equal(t, int64(12000), amount)

	pending := tracker.Pending()
	require.NotNil(t, pending)
	assert.Equal(t, int64(12000), pending.Amount)
}

// TestOtherSubmitErrorsDoNotPark verifies that non-auction failures are
// dropped rather than parked.
func TestOtherSubmitErrorsDoNotPark(t *testing.T) {
	submitter := &fakeSubmitter{err: errors.New("socket gone")}
	tracker := auction.NewTracker(10000)
	b, now := testBidder(submitter, tracker)

	reading := Reading{Label: "two", Confidence: 0.95}
	b.Observe(reading)
	*now = now.Add(HoldDuration)
	_, fired := b.Observe(reading)

	assert.False(t, fired)
	assert.Nil(t, tracker.Pending())
}
