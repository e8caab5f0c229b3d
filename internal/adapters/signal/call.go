package signal

import (
	"context"
	"strings"

	"github.com/dkeye/callrelay/internal/app/orch"
	"github.com/dkeye/callrelay/internal/domain"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

type bookingPayload struct {
	BookingID domain.BookingID `json:"bookingId"`
}

// decodeBooking unmarshals v and checks it names a booking.
func (ctl *SignalWSController) decodeBooking(conn *WsSignalConn, env envelope, data []byte, v any, id *domain.BookingID) bool {
	if err := json.Unmarshal(data, v); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("event", env.Type).Msg("bad payload")
		ctl.sendError(conn, env, "", domain.CodeBadPayload, "bad_payload")
		return false
	}
	*id = domain.BookingID(strings.TrimSpace(string(*id)))
	if *id == "" {
		ctl.sendError(conn, env, "", domain.CodeBadPayload, "bookingId required")
		return false
	}
	return true
}

func (ctl *SignalWSController) handleInitiate(
	ctx context.Context,
	conn *WsSignalConn,
	env envelope,
	data []byte,
) {
	if !ctl.requireJoined(conn, env) {
		return
	}
	var p struct {
		bookingPayload
		CallerType domain.Role `json:"callerType,omitempty"`
	}
	if !ctl.decodeBooking(conn, env, data, &p, &p.BookingID) {
		return
	}
	switch p.CallerType {
	case "", domain.RoleCustomer, domain.RoleProvider:
	default:
		ctl.sendError(conn, env, p.BookingID, domain.CodeBadPayload, "callerType must be customer or provider")
		return
	}
	if ctl.Limiter != nil && !ctl.Limiter.Allow(conn.identity) {
		ctl.sendFailure(conn, env, p.BookingID, domain.ErrRateLimited)
		return
	}

	sess, err := ctl.Orch.Initiate(ctx, orch.InitiateRequest{
		BookingID:  p.BookingID,
		Caller:     conn.identity,
		CallerConn: conn.id,
		CallerType: p.CallerType,
	})
	if err != nil {
		ctl.sendFailure(conn, env, p.BookingID, err)
		return
	}
	ctl.sendAck(conn, env, sess)
}

func (ctl *SignalWSController) handleAccept(conn *WsSignalConn, env envelope, data []byte) {
	if !ctl.requireJoined(conn, env) {
		return
	}
	var p bookingPayload
	if !ctl.decodeBooking(conn, env, data, &p, &p.BookingID) {
		return
	}
	sess, err := ctl.Orch.Accept(p.BookingID, conn.identity, conn.id)
	if err != nil {
		ctl.sendFailure(conn, env, p.BookingID, err)
		return
	}
	ctl.sendAck(conn, env, sess)
}

func (ctl *SignalWSController) handleReject(conn *WsSignalConn, env envelope, data []byte) {
	if !ctl.requireJoined(conn, env) {
		return
	}
	var p struct {
		bookingPayload
		Reason string `json:"reason,omitempty"`
	}
	if !ctl.decodeBooking(conn, env, data, &p, &p.BookingID) {
		return
	}
	sess, err := ctl.Orch.Reject(p.BookingID, conn.identity, p.Reason)
	if err != nil {
		ctl.sendFailure(conn, env, p.BookingID, err)
		return
	}
	ctl.sendAck(conn, env, sess)
}

func (ctl *SignalWSController) handleEnd(conn *WsSignalConn, env envelope, data []byte) {
	if !ctl.requireJoined(conn, env) {
		return
	}
	var p bookingPayload
	if !ctl.decodeBooking(conn, env, data, &p, &p.BookingID) {
		return
	}
	sess, err := ctl.Orch.End(p.BookingID, conn.identity)
	if err != nil {
		ctl.sendFailure(conn, env, p.BookingID, err)
		return
	}
	ctl.sendAck(conn, env, sess)
}

// handleRelay forwards offers, answers and ICE candidates. The payload
// fields stay raw bytes end to end.
func (ctl *SignalWSController) handleRelay(conn *WsSignalConn, env envelope, data []byte) {
	if !ctl.requireJoined(conn, env) {
		return
	}
	var p struct {
		bookingPayload
		To        domain.Identity `json:"to,omitempty"`
		SDP       json.RawMessage `json:"sdp,omitempty"`
		Candidate json.RawMessage `json:"candidate,omitempty"`
	}
	if !ctl.decodeBooking(conn, env, data, &p, &p.BookingID) {
		return
	}
	kind := orch.PayloadKind(strings.TrimPrefix(env.Type, "call:"))
	payload := p.SDP
	if kind == orch.KindCandidate {
		payload = p.Candidate
	}
	if len(payload) == 0 {
		ctl.sendError(conn, env, p.BookingID, domain.CodeBadPayload, "payload required")
		return
	}
	err := ctl.Orch.Relay(orch.RelayRequest{
		Kind:      kind,
		BookingID: p.BookingID,
		From:      conn.identity,
		To:        p.To,
		Payload:   payload,
	})
	if err != nil {
		ctl.sendFailure(conn, env, p.BookingID, err)
		return
	}
	ctl.sendAck(conn, env, domain.CallSession{BookingID: p.BookingID})
}
