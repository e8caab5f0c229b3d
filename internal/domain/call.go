package domain

import "time"

type CallID string

type CallStatus string

const (
	StatusRinging CallStatus = "ringing"
	StatusActive  CallStatus = "active"
	StatusEnded   CallStatus = "ended"
)

// CallEvent drives the per-booking state machine.
type CallEvent string

const (
	EventAccept     CallEvent = "accept"
	EventReject     CallEvent = "reject"
	EventEnd        CallEvent = "end"
	EventTimeout    CallEvent = "timeout"
	EventDisconnect CallEvent = "disconnect"
	EventExpire     CallEvent = "expire"
)

type EndReason string

const (
	ReasonDeclined      EndReason = "declined"
	ReasonCallerEnded   EndReason = "caller_ended"
	ReasonReceiverEnded EndReason = "receiver_ended"
	ReasonTimeout       EndReason = "timeout"
	ReasonDisconnect    EndReason = "disconnect"
	ReasonExpired       EndReason = "expired"
)

// ConnectionID identifies one live transport connection.
type ConnectionID string

// CallSession is the server side record of one call attempt for a booking.
// Values handed out by the store are copies.
type CallSession struct {
	ID         CallID     `json:"callId"`
	BookingID  BookingID  `json:"bookingId"`
	Caller     Identity   `json:"caller"`
	Receiver   Identity   `json:"receiver"`
	Status     CallStatus `json:"status"`
	StartedAt  time.Time  `json:"startedAt"`
	AcceptedAt *time.Time `json:"acceptedAt,omitempty"`
	EndedAt    *time.Time `json:"endedAt,omitempty"`
	EndReason  EndReason  `json:"endReason,omitempty"`

	CallerConn   ConnectionID `json:"-"`
	ReceiverConn ConnectionID `json:"-"`
}

// IsParticipant reports whether id is caller or receiver.
func (s *CallSession) IsParticipant(id Identity) bool {
	return id == s.Caller || id == s.Receiver
}

// Counterpart returns the other side of the call.
func (s *CallSession) Counterpart(id Identity) Identity {
	if id == s.Caller {
		return s.Receiver
	}
	return s.Caller
}

// ConnOf returns the connection bound to id for this call, if any.
func (s *CallSession) ConnOf(id Identity) ConnectionID {
	switch id {
	case s.Caller:
		return s.CallerConn
	case s.Receiver:
		return s.ReceiverConn
	}
	return ""
}

// Duration is the time spent active; zero when never accepted.
func (s *CallSession) Duration() time.Duration {
	if s.AcceptedAt == nil || s.EndedAt == nil {
		return 0
	}
	if d := s.EndedAt.Sub(*s.AcceptedAt); d > 0 {
		return d
	}
	return 0
}

func (s *CallSession) DurationSeconds() int {
	return int(s.Duration() / time.Second)
}

// Apply runs one event through the state machine.
// actor is the identity that caused the event; empty for timeout, disconnect and expire.
func (s *CallSession) Apply(ev CallEvent, actor Identity, now time.Time) error {
	if s.Status == StatusEnded {
		return ErrAlreadyEnded
	}
	switch ev {
	case EventAccept:
		if s.Status != StatusRinging || actor != s.Receiver {
			return ErrInvalidTransition
		}
		s.Status = StatusActive
		s.AcceptedAt = &now
		return nil
	case EventReject:
		if s.Status != StatusRinging || actor != s.Receiver {
			return ErrInvalidTransition
		}
		s.end(ReasonDeclined, now)
	case EventTimeout:
		if s.Status != StatusRinging {
			return ErrInvalidTransition
		}
		s.end(ReasonTimeout, now)
	case EventEnd:
		switch actor {
		case s.Caller:
			s.end(ReasonCallerEnded, now)
		case s.Receiver:
			s.end(ReasonReceiverEnded, now)
		default:
			return ErrNotAParticipant
		}
	case EventDisconnect:
		s.end(ReasonDisconnect, now)
	case EventExpire:
		s.end(ReasonExpired, now)
	default:
		return ErrInvalidTransition
	}
	return nil
}

func (s *CallSession) end(reason EndReason, now time.Time) {
	s.Status = StatusEnded
	s.EndedAt = &now
	s.EndReason = reason
}

// CallRecord is what the history sink receives for every finished call.
type CallRecord struct {
	CallID          CallID    `json:"callId"`
	BookingID       BookingID `json:"bookingId"`
	Caller          Identity  `json:"caller"`
	Receiver        Identity  `json:"receiver"`
	Status          string    `json:"status"`
	EndReason       EndReason `json:"endReason"`
	DurationSeconds int       `json:"durationSeconds"`
	StartedAt       time.Time `json:"startedAt"`
	EndedAt         time.Time `json:"endedAt"`
}

const (
	RecordCompleted = "completed"
	RecordMissed    = "missed"
	RecordRejected  = "rejected"
	RecordCancelled = "cancelled"
	RecordFailed    = "failed"
)

// RecordOf builds the history record for an ended session.
func RecordOf(s CallSession) CallRecord {
	rec := CallRecord{
		CallID:          s.ID,
		BookingID:       s.BookingID,
		Caller:          s.Caller,
		Receiver:        s.Receiver,
		EndReason:       s.EndReason,
		DurationSeconds: s.DurationSeconds(),
		StartedAt:       s.StartedAt,
	}
	if s.EndedAt != nil {
		rec.EndedAt = *s.EndedAt
	}
	switch {
	case s.AcceptedAt != nil:
		rec.Status = RecordCompleted
	case s.EndReason == ReasonTimeout:
		rec.Status = RecordMissed
	case s.EndReason == ReasonDeclined:
		rec.Status = RecordRejected
	case s.EndReason == ReasonCallerEnded:
		rec.Status = RecordCancelled
	default:
		rec.Status = RecordFailed
	}
	return rec
}
