package orch

import (
	"github.com/dkeye/callrelay/internal/domain"
	"github.com/goccy/go-json"
)

// Server to client event types.
const (
	TypeIncoming     = "call:incoming"
	TypeAccepted     = "call:accepted"
	TypeRejected     = "call:rejected"
	TypeOffer        = "call:offer"
	TypeAnswer       = "call:answer"
	TypeICECandidate = "call:ice-candidate"
	TypeEnded        = "call:ended"
)

// PayloadKind is an opaque signaling message forwarded between participants.
type PayloadKind string

const (
	KindOffer     PayloadKind = "offer"
	KindAnswer    PayloadKind = "answer"
	KindCandidate PayloadKind = "ice-candidate"
)

// field is the key the opaque payload is carried under on the wire.
func (k PayloadKind) field() string {
	if k == KindCandidate {
		return "candidate"
	}
	return "sdp"
}

func (k PayloadKind) eventType() string {
	switch k {
	case KindOffer:
		return TypeOffer
	case KindAnswer:
		return TypeAnswer
	}
	return TypeICECandidate
}

func (k PayloadKind) Valid() bool {
	switch k {
	case KindOffer, KindAnswer, KindCandidate:
		return true
	}
	return false
}

type incomingEvent struct {
	Type              string           `json:"type"`
	BookingID         domain.BookingID `json:"bookingId"`
	CallID            domain.CallID    `json:"callId"`
	CallerIdentity    domain.Identity  `json:"callerIdentity"`
	CallerDisplayName string           `json:"callerDisplayName"`
	CallerType        domain.Role      `json:"callerType,omitempty"`
}

type answeredEvent struct {
	Type      string           `json:"type"`
	BookingID domain.BookingID `json:"bookingId"`
	From      domain.Identity  `json:"from"`
	Reason    string           `json:"reason,omitempty"`
}

type endedEvent struct {
	Type            string           `json:"type"`
	BookingID       domain.BookingID `json:"bookingId"`
	CallID          domain.CallID    `json:"callId"`
	DurationSeconds int              `json:"durationSeconds"`
	Reason          domain.EndReason `json:"reason"`
}

type relayHeader struct {
	Type      string           `json:"type"`
	BookingID domain.BookingID `json:"bookingId"`
	From      domain.Identity  `json:"from"`
}

// relayFrame splices the payload bytes into the frame untouched, so the
// receiver sees exactly what the sender wrote.
func relayFrame(kind PayloadKind, bookingID domain.BookingID, from domain.Identity, payload json.RawMessage) ([]byte, error) {
	head, err := json.Marshal(relayHeader{Type: kind.eventType(), BookingID: bookingID, From: from})
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(head)+len(payload)+16)
	out = append(out, head[:len(head)-1]...)
	out = append(out, `,"`...)
	out = append(out, kind.field()...)
	out = append(out, `":`...)
	if len(payload) == 0 {
		out = append(out, "null"...)
	} else {
		out = append(out, payload...)
	}
	out = append(out, '}')
	return out, nil
}
