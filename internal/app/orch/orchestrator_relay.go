package orch

import (
	"fmt"

	"github.com/dkeye/callrelay/internal/domain"
	"github.com/dkeye/callrelay/internal/metrics"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// RelayRequest carries one opaque offer, answer or ICE candidate.
type RelayRequest struct {
	Kind      PayloadKind
	BookingID domain.BookingID
	From      domain.Identity
	// To defaults to the sender's counterpart.
	To      domain.Identity
	Payload json.RawMessage
}

// Relay forwards the payload to the other participant, annotated with the sender.
// The payload is never decoded.
func (o *Orchestrator) Relay(req RelayRequest) error {
	if !req.Kind.Valid() {
		return fmt.Errorf("unknown payload kind %q", req.Kind)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	sess, ok := o.Sessions.Get(req.BookingID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	if !sess.IsParticipant(req.From) {
		return domain.ErrNotAParticipant
	}
	to := sess.Counterpart(req.From)
	if req.To != "" && req.To != to {
		return domain.ErrNotAParticipant
	}
	frame, err := relayFrame(req.Kind, req.BookingID, req.From, req.Payload)
	if err != nil {
		return err
	}
	delivered := o.send(to, frame)
	metrics.RelayedPayloads.WithLabelValues(string(req.Kind)).Inc()
	log.Debug().Str("module", "orch").Str("booking_id", string(req.BookingID)).Str("kind", string(req.Kind)).
		Str("from", string(req.From)).Int("delivered", delivered).Int("bytes", len(req.Payload)).Msg("relayed payload")
	return nil
}
