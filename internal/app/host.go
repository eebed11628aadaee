package app

import (
	"context"

	"github.com/pterm/pterm"

	"github.com/freshbid/liveroom/internal/auth"
	"github.com/freshbid/liveroom/internal/config"
	"github.com/freshbid/liveroom/internal/protocol"
	"github.com/freshbid/liveroom/internal/signaling"
	"github.com/freshbid/liveroom/internal/token"
	"github.com/freshbid/liveroom/internal/util"
)

// RunHost joins the room as host and drives the seller-side interactive
// loop until the user leaves or the session dies.
func RunHost(ctx context.Context, cfg config.Config, roomID int64, creds token.Source, grant auth.Grant) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client, err := signaling.Join(cfg, roomID, protocol.RoleHost, creds, newConsoleSink(cancel))
	if err != nil {
		return err
	}
	defer client.Leave()

	util.StartStatsReporter(ctx)
	util.LogSuccess("joined room %d as host", roomID)

	sellerID := int64(0)
	if grant.SellerID != nil {
		sellerID = *grant.SellerID
	}

	for ctx.Err() == nil {
		action, _ := pterm.DefaultInteractiveSelect.
			WithOptions([]string{
				"Start auction",
				"Stop auction (confirm winning bid)",
				"Report freshness",
				"Show bid book",
				"Leave room",
			}).
			WithDefaultText("Host action").
			Show()
		pterm.Println()

		switch action {
		case "Start auction":
			auctionID := askInt64("Auction id")
			if sellerID == 0 {
				sellerID = askInt64("Seller id")
			}
			client.StartAuction(auctionID, sellerID)

		case "Stop auction (confirm winning bid)":
			snap := client.Tracker().Current()
			if !snap.InProgress() {
				util.LogWarning("no auction in progress")
				continue
			}
			client.StopAuction(snap.AuctionID, sellerID)

		case "Report freshness":
			client.ReportFreshness(askFreshness())

		case "Show bid book":
			printBook(client.Tracker().Current())

		case "Leave room":
			return nil
		}
	}
	return nil
}

// askFreshness prompts for one of the freshness codes.
func askFreshness() int {
	choice, _ := pterm.DefaultInteractiveSelect.
		WithOptions([]string{"Very fresh", "Fresh", "Not fresh", "Indeterminate"}).
		WithDefaultText("Freshness result").
		Show()
	pterm.Println()

	switch choice {
	case "Very fresh":
		return protocol.FreshnessVeryFresh
	case "Fresh":
		return protocol.FreshnessFresh
	case "Not fresh":
		return protocol.FreshnessNotFresh
	default:
		return protocol.FreshnessIndeterminate
	}
}
