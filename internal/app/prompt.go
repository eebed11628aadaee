package app

import (
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/freshbid/liveroom/internal/auction"
	"github.com/freshbid/liveroom/internal/util"
)

// askInt64 prompts until a positive integer is entered.
func askInt64(prompt string) int64 {
	for {
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText(prompt).
			Show()

		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err == nil && n > 0 {
			pterm.Println()
			return n
		}

		util.LogWarning("invalid number: must be a positive integer")
		pterm.Println()
	}
}

// printBook renders the current bid book.
func printBook(snap auction.Snapshot) {
	if snap.AuctionID == 0 && len(snap.Bids) == 0 {
		util.LogInfo("no auction state received yet")
		return
	}

	util.LogInfo("auction %d [%s] — highest %d", snap.AuctionID, snap.Status, snap.HighestPrice)
	for i, b := range snap.Bids {
		line := pterm.Sprintf("  %2d. %-20s %d", i+1, b.Nickname, b.Price)
		if b.Time != "" {
			line += "  (" + b.Time + ")"
		}
		pterm.Println(line)
	}
	pterm.Println()
}
