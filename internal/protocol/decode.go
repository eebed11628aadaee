package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/pion/webrtc/v4"
)

// Message is an inbound signaling message. The set of implementations is
// closed: every frame the server can send decodes to exactly one of the
// types below, and anything unrecognized becomes Unknown instead of an
// error so new server-side types never crash the client.
type Message interface {
	messageType() Type
}

// StartResponse acknowledges the initial host/participant offer. Success
// is a pointer because older server builds omit the field entirely; only
// an explicit false counts as a failure.
type StartResponse struct {
	Success   *bool  `json:"success"`
	Message   string `json:"message"`
	SDPAnswer string `json:"sdpAnswer"`
}

// Failed reports whether the server explicitly rejected the offer.
func (m StartResponse) Failed() bool { return m.Success != nil && !*m.Success }

// Offer is a renegotiation offer pushed by the media server.
type Offer struct {
	SDPOffer string `json:"sdpOffer"`
}

// Answer carries the remote SDP answer for our offer.
type Answer struct {
	SDPAnswer string `json:"sdpAnswer"`
}

// IceCandidate carries one trickled remote ICE candidate.
type IceCandidate struct {
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

// BidStatusUpdate is the full-replacement bid book push. Bids is already
// deduplicated by (nickname, price) — the backend has been observed to
// emit the same bid twice.
type BidStatusUpdate struct {
	Bids                []Bid
	CurrentHighestPrice int64
	AuctionID           int64
	Status              AuctionStatus // empty when the server omits it
}

// Result is the shared shape of the three operation acknowledgements.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// StartAuctionResult acknowledges a startAuction request.
type StartAuctionResult struct{ Result }

// StopAuctionResult acknowledges a stopAuction request.
type StopAuctionResult struct{ Result }

// SubmitBidResult acknowledges a submitBid request.
type SubmitBidResult struct{ Result }

// FreshnessRequest asks the host to run a freshness check.
type FreshnessRequest struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// FreshnessResult broadcasts the outcome of a host freshness check.
type FreshnessResult struct {
	Message string `json:"message"`
}

// WinningBidResult notifies the winning bidder when an auction closes.
type WinningBidResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	BidPrice *int64 `json:"bidPrice"`
	UserID   *int64 `json:"userId"`
}

// LeaveParticipant signals that the live room has ended.
type LeaveParticipant struct{}

// ErrorMessage is a server-side error report.
type ErrorMessage struct {
	Message string `json:"message"`
}

// AuthInfo is the handshake response to whoami.
type AuthInfo struct {
	Success  bool   `json:"success"`
	RoomID   int64  `json:"roomId"`
	Role     Role   `json:"role"`
	UserID   *int64 `json:"userId"`
	SellerID *int64 `json:"sellerId"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// Unknown wraps any frame whose type the client does not recognize.
type Unknown struct {
	Type Type
	Raw  json.RawMessage
}

func (StartResponse) messageType() Type      { return TypeStartResponse }
func (Offer) messageType() Type              { return TypeOffer }
func (Answer) messageType() Type             { return TypeAnswer }
func (IceCandidate) messageType() Type       { return TypeIceCandidate }
func (BidStatusUpdate) messageType() Type    { return TypeBidStatusUpdate }
func (StartAuctionResult) messageType() Type { return TypeStartAuctionResult }
func (StopAuctionResult) messageType() Type  { return TypeStopAuctionResult }
func (SubmitBidResult) messageType() Type    { return TypeSubmitBidResult }
func (FreshnessRequest) messageType() Type   { return TypeFreshnessRequest }
func (FreshnessResult) messageType() Type    { return TypeFreshnessResult }
func (WinningBidResult) messageType() Type   { return TypeWinningBidResult }
func (LeaveParticipant) messageType() Type   { return TypeLeaveParticipant }
func (ErrorMessage) messageType() Type       { return TypeError }
func (AuthInfo) messageType() Type           { return TypeAuthInfo }
func (m Unknown) messageType() Type          { return m.Type }

// Decode parses one inbound frame into its typed message. It returns an
// error only for frames that cannot be used at all (invalid JSON, or a
// bidStatusUpdate whose embedded list fails to parse); missing fields
// simply decode to zero values.
func Decode(data []byte) (Message, error) {
	var env struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode signaling frame: %w", err)
	}

	switch env.Type {
	case TypeStartResponse:
		return decodeInto[StartResponse](data)
	case TypeOffer:
		return decodeInto[Offer](data)
	case TypeAnswer:
		return decodeInto[Answer](data)
	case TypeIceCandidate:
		return decodeInto[IceCandidate](data)
	case TypeBidStatusUpdate:
		return decodeBidStatus(data)
	case TypeStartAuctionResult:
		return decodeInto[StartAuctionResult](data)
	case TypeStopAuctionResult:
		return decodeInto[StopAuctionResult](data)
	case TypeSubmitBidResult:
		return decodeInto[SubmitBidResult](data)
	case TypeFreshnessRequest:
		return decodeInto[FreshnessRequest](data)
	case TypeFreshnessResult:
		return decodeInto[FreshnessResult](data)
	case TypeWinningBidResult:
		return decodeInto[WinningBidResult](data)
	case TypeLeaveParticipant:
		return LeaveParticipant{}, nil
	case TypeError:
		return decodeInto[ErrorMessage](data)
	case TypeAuthInfo:
		return decodeInto[AuthInfo](data)
	default:
		raw := make(json.RawMessage, len(data))
		copy(raw, data)
		return Unknown{Type: env.Type, Raw: raw}, nil
	}
}

func decodeInto[T Message](data []byte) (Message, error) {
	var msg T
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode %T: %w", msg, err)
	}
	return msg, nil
}

// decodeBidStatus handles the bidStatusUpdate quirk: the bid list arrives
// as a JSON-encoded string field, not a native array.
func decodeBidStatus(data []byte) (Message, error) {
	var raw struct {
		BidListJSON         string        `json:"bidListJson"`
		CurrentHighestPrice int64         `json:"currentHighestPrice"`
		AuctionID           int64         `json:"auctionId"`
		Status              AuctionStatus `json:"status"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode bidStatusUpdate: %w", err)
	}

	var bids []Bid
	if raw.BidListJSON != "" {
		if err := json.Unmarshal([]byte(raw.BidListJSON), &bids); err != nil {
			return nil, fmt.Errorf("decode embedded bid list: %w", err)
		}
	}

	return BidStatusUpdate{
		Bids:                DedupeBids(bids),
		CurrentHighestPrice: raw.CurrentHighestPrice,
		AuctionID:           raw.AuctionID,
		Status:              raw.Status,
	}, nil
}

// DedupeBids removes entries that repeat an earlier (nickname, price)
// pair, preserving first-occurrence order.
func DedupeBids(bids []Bid) []Bid {
	if len(bids) < 2 {
		return bids
	}

	type key struct {
		nickname string
		price    int64
	}
	seen := make(map[key]struct{}, len(bids))
	out := bids[:0:0]
	for _, b := range bids {
		k := key{b.Nickname, b.Price}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, b)
	}
	return out
}
