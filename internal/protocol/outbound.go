package protocol

import "github.com/pion/webrtc/v4"

// Outbound message envelopes. Every struct carries its own type tag so a
// single WriteJSON call produces the exact wire shape; constructors exist
// where the tag or a field depends on runtime state.

// OfferEnvelope is the initial offer, keyed by role: hosts send type
// "host", participants send type "participant".
type OfferEnvelope struct {
	Type     Type   `json:"type"`
	RoomID   int64  `json:"roomId"`
	SDPOffer string `json:"sdpOffer"`
}

// NewOffer builds the role-keyed initial offer for a room.
func NewOffer(role Role, roomID int64, sdp string) OfferEnvelope {
	typ := TypeParticipant
	if role == RoleHost {
		typ = TypeHost
	}
	return OfferEnvelope{Type: typ, RoomID: roomID, SDPOffer: sdp}
}

// AnswerEnvelope replies to a server-pushed renegotiation offer.
type AnswerEnvelope struct {
	Type      Type   `json:"type"`
	RoomID    int64  `json:"roomId"`
	SDPAnswer string `json:"sdpAnswer"`
}

// NewAnswer builds an answer envelope for a room.
func NewAnswer(roomID int64, sdp string) AnswerEnvelope {
	return AnswerEnvelope{Type: TypeAnswer, RoomID: roomID, SDPAnswer: sdp}
}

// CandidateEnvelope trickles one local ICE candidate to the server.
type CandidateEnvelope struct {
	Type      Type                    `json:"type"`
	RoomID    int64                   `json:"roomId"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

// NewCandidate builds a candidate envelope for a room.
func NewCandidate(roomID int64, candidate webrtc.ICECandidateInit) CandidateEnvelope {
	return CandidateEnvelope{Type: TypeOnIceCandidate, RoomID: roomID, Candidate: candidate}
}

// SubmitBid places a bid on the in-progress auction.
type SubmitBid struct {
	Type      Type  `json:"type"`
	RoomID    int64 `json:"roomId"`
	AuctionID int64 `json:"auctionId"`
	BidPrice  int64 `json:"bidPrice"`
}

// NewSubmitBid builds a submitBid envelope.
func NewSubmitBid(roomID, auctionID, price int64) SubmitBid {
	return SubmitBid{Type: TypeSubmitBid, RoomID: roomID, AuctionID: auctionID, BidPrice: price}
}

// StartAuction asks the server to start a scheduled auction (host only).
type StartAuction struct {
	Type      Type  `json:"type"`
	RoomID    int64 `json:"roomId"`
	AuctionID int64 `json:"auctionId"`
	SellerID  int64 `json:"sellerId"`
}

// NewStartAuction builds a startAuction envelope.
func NewStartAuction(roomID, auctionID, sellerID int64) StartAuction {
	return StartAuction{Type: TypeStartAuction, RoomID: roomID, AuctionID: auctionID, SellerID: sellerID}
}

// StopAuction asks the server to close the in-progress auction (host only).
type StopAuction struct {
	Type      Type  `json:"type"`
	RoomID    int64 `json:"roomId"`
	SellerID  int64 `json:"sellerId"`
	AuctionID int64 `json:"auctionId"`
}

// NewStopAuction builds a stopAuction envelope.
func NewStopAuction(roomID, sellerID, auctionID int64) StopAuction {
	return StopAuction{Type: TypeStopAuction, RoomID: roomID, SellerID: sellerID, AuctionID: auctionID}
}

// FreshCheck requests or reports a freshness check. Participants send the
// request form (no result field); the host replies with one of the
// Freshness* codes.
type FreshCheck struct {
	Type   Type  `json:"type"`
	RoomID int64 `json:"roomId"`
	Result *int  `json:"freshNessResult,omitempty"`
}

// NewFreshCheckRequest builds the participant variant.
func NewFreshCheckRequest(roomID int64) FreshCheck {
	return FreshCheck{Type: TypeFreshCheck, RoomID: roomID}
}

// NewFreshCheckResult builds the host variant carrying a freshness code.
func NewFreshCheckResult(roomID int64, code int) FreshCheck {
	return FreshCheck{Type: TypeFreshCheck, RoomID: roomID, Result: &code}
}

// Stop announces that the local participant is leaving the room.
type Stop struct {
	Type   Type  `json:"type"`
	RoomID int64 `json:"roomId"`
}

// NewStop builds a stop envelope.
func NewStop(roomID int64) Stop {
	return Stop{Type: TypeStop, RoomID: roomID}
}

// Whoami opens the auth handshake: the server answers with authInfo.
type Whoami struct {
	Type   Type  `json:"type"`
	RoomID int64 `json:"roomId"`
}

// NewWhoami builds a whoami envelope.
func NewWhoami(roomID int64) Whoami {
	return Whoami{Type: TypeWhoami, RoomID: roomID}
}
