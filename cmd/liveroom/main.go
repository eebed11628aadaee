// Liveroom — CLI entry point.
//
// This tool joins a FreshBid live auction room over the WebSocket
// signaling server, negotiates the WebRTC media session, and exposes the
// auction operations for the granted role (host: start/stop auctions and
// freshness reports; participant: bids and freshness requests).
//
// It can be launched interactively (no flags) or non-interactively via
// CLI flags (-room, -url, -token, -role, -debug). A .env file and
// LIVEROOM_* environment variables supply everything the flags omit.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"

	"github.com/freshbid/liveroom/internal/app"
	"github.com/freshbid/liveroom/internal/auth"
	"github.com/freshbid/liveroom/internal/config"
	"github.com/freshbid/liveroom/internal/protocol"
	"github.com/freshbid/liveroom/internal/token"
	"github.com/freshbid/liveroom/internal/util"
)

var version = "dev"

func main() {
	// Root context — cancelled on Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// .env before FromEnv so local overrides win over the shell.
	godotenv.Load()

	// CLI flags.
	roomFlag := flag.Int64("room", 0, "Room id to join")
	urlFlag := flag.String("url", "", "WebSocket signaling URL (ws:// or wss://)")
	tokenFlag := flag.String("token", "", "Access token (overrides LIVEROOM_TOKEN)")
	roleFlag := flag.String("role", "", "Expected role: host or participant (verified against the server grant)")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debugMode {
		util.EnableDebug()
	}

	pterm.Info.Println(fmt.Sprintf("Liveroom — v%s", version))
	pterm.Println()

	cfg := config.FromEnv()
	if *urlFlag != "" {
		cfg.SignalingURL = *urlFlag
	}

	tok := *tokenFlag
	if tok == "" {
		tok = os.Getenv("LIVEROOM_TOKEN")
	}

	roomID := *roomFlag

	// Anything still missing → interactive prompts.
	if cfg.SignalingURL == "" {
		cfg.SignalingURL = askURL()
	} else if normalized, err := normalizeWSURL(cfg.SignalingURL); err == nil {
		cfg.SignalingURL = normalized
	} else {
		util.LogError("%v", err)
		os.Exit(1)
	}
	if tok == "" {
		tok = askToken()
	}
	if roomID == 0 {
		roomID = askRoomID()
	}

	var creds token.Source = token.Static(tok)
	if cfg.ProbeURL != "" {
		creds = &token.ProbeSource{Source: creds, ProbeURL: cfg.ProbeURL}
	}

	// Role handshake before joining: the server decides what we are.
	grant, err := auth.New(cfg, roomID, creds).Run(ctx)
	if err != nil {
		util.LogError("auth handshake failed: %v", err)
		os.Exit(1)
	}
	if *roleFlag != "" && protocol.Role(*roleFlag) != grant.Role {
		util.LogError("server granted role %q, not %q", grant.Role, *roleFlag)
		os.Exit(1)
	}
	util.LogSuccess("authenticated for room %d as %s", roomID, grant.Role)

	switch grant.Role {
	case protocol.RoleHost:
		err = app.RunHost(ctx, cfg, roomID, creds, grant)
	case protocol.RoleParticipant:
		err = app.RunParticipant(ctx, cfg, roomID, creds, grant)
	default:
		util.LogError("unknown role in grant: %q", grant.Role)
		os.Exit(1)
	}

	if err != nil {
		util.LogError("session ended with error: %v", err)
		os.Exit(1)
	}
	util.LogInfo("successfully left the live room")
}

// ---------------------------------------------------------------------------
// Helper Functions
// ---------------------------------------------------------------------------

// normalizeWSURL validates and normalizes a raw WebSocket URL string.
func normalizeWSURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid WebSocket URL: %s", raw)
	}
	scheme := "wss"
	if u.Scheme == "ws" || u.Scheme == "wss" {
		scheme = u.Scheme
	}
	path := u.Path
	if path == "" {
		path = "/ws"
	}
	return fmt.Sprintf("%s://%s%s", scheme, u.Host, path), nil
}

// askURL prompts the user for a valid WebSocket URL until one is entered.
func askURL() string {
	for {
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText("Signaling URL (e.g. wss://live.freshbid.example/ws)").
			Show()

		wsURL, err := normalizeWSURL(raw)
		if err == nil {
			pterm.Println()
			return wsURL
		}

		pterm.Println()
		util.LogWarning("invalid input: please enter a valid host or URL")
	}
}

// askToken prompts for the access token.
func askToken() string {
	for {
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithMask("*").
			WithDefaultText("Access token").
			Show()

		if raw = strings.TrimSpace(raw); raw != "" {
			pterm.Println()
			return raw
		}

		util.LogWarning("token must not be empty")
		pterm.Println()
	}
}

// askRoomID prompts for a room id until a valid one is entered.
func askRoomID() int64 {
	for {
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText("Room id").
			Show()

		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err == nil && id > 0 {
			pterm.Println()
			return id
		}

		util.LogWarning("invalid room id: must be a positive integer")
		pterm.Println()
	}
}
