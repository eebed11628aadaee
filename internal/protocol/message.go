// Package protocol defines the JSON message catalog exchanged with the
// auction signaling server, and decodes inbound frames into a closed set
// of typed messages.
package protocol

// Type identifies the kind of signaling message.
type Type string

// Inbound message types.
const (
	TypeStartResponse      Type = "startResponse"
	TypeOffer              Type = "offer"
	TypeAnswer             Type = "answer"
	TypeIceCandidate       Type = "iceCandidate"
	TypeBidStatusUpdate    Type = "bidStatusUpdate"
	TypeStartAuctionResult Type = "startAuctionResult"
	TypeStopAuctionResult  Type = "stopAuctionResult"
	TypeSubmitBidResult    Type = "submitBidResult"
	TypeFreshnessRequest   Type = "freshNessRequest"
	TypeFreshnessResult    Type = "freshNessResult"
	TypeWinningBidResult   Type = "winningBidResult"
	TypeLeaveParticipant   Type = "leaveParticipant"
	TypeError              Type = "error"
	TypeAuthInfo           Type = "authInfo"
)

// Outbound message types.
const (
	TypeHost           Type = "host"
	TypeParticipant    Type = "participant"
	TypeOnIceCandidate Type = "onIceCandidate"
	TypeSubmitBid      Type = "submitBid"
	TypeStartAuction   Type = "startAuction"
	TypeStopAuction    Type = "stopAuction"
	TypeFreshCheck     Type = "freshCheck"
	TypeStop           Type = "stop"
	TypeWhoami         Type = "whoami"
)

// Role is the local participant's role in a room, granted by the server
// during the auth handshake.
type Role string

const (
	RoleHost        Role = "host"
	RoleParticipant Role = "participant"
)

// AuctionStatus is the lifecycle state of one auction within a room.
// The server is authoritative; clients only ever observe it.
type AuctionStatus string

const (
	StatusScheduled  AuctionStatus = "SCHEDULED"
	StatusInProgress AuctionStatus = "IN_PROGRESS"
	StatusCompleted  AuctionStatus = "COMPLETED"
)

// Freshness codes carried by the host variant of freshCheck.
const (
	FreshnessVeryFresh     = 2
	FreshnessFresh         = 1
	FreshnessNotFresh      = 0
	FreshnessIndeterminate = -1
)

// Bid is a single entry of the server's bid book.
type Bid struct {
	Nickname string `json:"userNickName"`
	Price    int64  `json:"bidPrice"`
	Time     string `json:"bidTime,omitempty"`
}
