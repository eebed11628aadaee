package app

import (
	"context"
	"errors"
	"time"

	"github.com/pterm/pterm"

	"github.com/freshbid/liveroom/internal/auth"
	"github.com/freshbid/liveroom/internal/config"
	"github.com/freshbid/liveroom/internal/protocol"
	"github.com/freshbid/liveroom/internal/signaling"
	"github.com/freshbid/liveroom/internal/token"
	"github.com/freshbid/liveroom/internal/util"
)

// RunParticipant joins the room as a bidder and drives the buyer-side
// interactive loop until the user leaves or the session dies.
func RunParticipant(ctx context.Context, cfg config.Config, roomID int64, creds token.Source, _ auth.Grant) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client, err := signaling.Join(cfg, roomID, protocol.RoleParticipant, creds, newConsoleSink(cancel))
	if err != nil {
		return err
	}
	defer client.Leave()

	util.StartStatsReporter(ctx)
	util.LogSuccess("joined room %d as participant", roomID)

	for ctx.Err() == nil {
		action, _ := pterm.DefaultInteractiveSelect.
			WithOptions([]string{
				"Place bid",
				"Quick bid (+1000 over highest)",
				"Request freshness check",
				"Show bid book",
				"Leave room",
			}).
			WithDefaultText("Participant action").
			Show()
		pterm.Println()

		switch action {
		case "Place bid":
			placeBid(client, askInt64("Bid amount"))

		case "Quick bid (+1000 over highest)":
			placeBid(client, client.Tracker().HighestPrice()+1000)

		case "Request freshness check":
			client.RequestFreshCheck()

		case "Show bid book":
			printBook(client.Tracker().Current())

		case "Leave room":
			return nil
		}
	}
	return nil
}

// placeBid submits an amount, parking it for a one-shot retry when no
// auction is in progress yet.
func placeBid(client *signaling.Client, amount int64) {
	err := client.SubmitBid(amount)
	switch {
	case err == nil:
		util.LogInfo("bid of %d submitted", amount)
	case errors.Is(err, signaling.ErrNoAuction):
		client.Tracker().Park(amount, time.Now())
		util.LogWarning("no auction in progress; bid of %d parked until one starts", amount)
	default:
		util.LogError("bid not submitted: %v", err)
	}
}
