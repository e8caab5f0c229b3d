package orch

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/callrelay/internal/domain"
	"github.com/rs/zerolog/log"
)

// InitiateRequest is a caller asking to ring the other side of a booking.
type InitiateRequest struct {
	BookingID  domain.BookingID
	Caller     domain.Identity
	CallerConn domain.ConnectionID
	// CallerType is optional; when set it must match the caller's side of the booking.
	CallerType domain.Role
}

// Initiate authorizes the caller against the booking, opens a ringing session,
// arms the ring timer and rings the receiver if it is online.
func (o *Orchestrator) Initiate(ctx context.Context, req InitiateRequest) (domain.CallSession, error) {
	booking, err := o.Bookings.Lookup(ctx, req.BookingID)
	if err != nil {
		if !errors.Is(err, domain.ErrBookingNotFound) {
			err = fmt.Errorf("%w: %v", domain.ErrBookingNotFound, err)
		}
		return domain.CallSession{}, err
	}
	role, ok := booking.RoleOf(req.Caller)
	if !ok {
		return domain.CallSession{}, domain.ErrUnauthorized
	}
	if req.CallerType != "" && req.CallerType != role {
		return domain.CallSession{}, fmt.Errorf("%w: caller is %s, claimed %s", domain.ErrUnauthorized, role, req.CallerType)
	}
	receiver, _ := booking.Counterpart(req.Caller)
	callerName := booking.NameOf(req.Caller)

	sess, online, err := o.openSession(req, receiver, role, callerName)
	if err != nil {
		return domain.CallSession{}, err
	}
	if !online && o.Offline != nil {
		if err := o.Offline.NotifyOffline(ctx, sess, callerName); err != nil {
			log.Error().Err(err).Str("module", "orch").Str("booking_id", string(sess.BookingID)).Msg("offline notify")
		}
	}
	return sess, nil
}

// openSession is the locked half of Initiate. The duplicate check happens here,
// after the booking lookup, so two racing initiates cannot both win.
func (o *Orchestrator) openSession(
	req InitiateRequest,
	receiver domain.Identity,
	role domain.Role,
	callerName string,
) (domain.CallSession, bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	sess, err := o.Sessions.Create(req.BookingID, req.Caller, receiver, req.CallerConn)
	if err != nil {
		return domain.CallSession{}, false, err
	}
	bookingID, callID := sess.BookingID, sess.ID
	o.Timeouts.Arm(bookingID, callID, func() { o.onRingTimeout(bookingID, callID) })

	delivered := o.sendJSON(receiver, incomingEvent{
		Type:              TypeIncoming,
		BookingID:         bookingID,
		CallID:            callID,
		CallerIdentity:    req.Caller,
		CallerDisplayName: callerName,
		CallerType:        role,
	})
	log.Info().Str("module", "orch").Str("booking_id", string(bookingID)).Str("caller", string(req.Caller)).
		Str("receiver", string(receiver)).Int("delivered", delivered).Msg("call ringing")
	return sess, delivered > 0, nil
}

// Accept answers a ringing call. Only the receiver may accept; the
// connection it accepts from is bound to the call.
func (o *Orchestrator) Accept(bookingID domain.BookingID, actor domain.Identity, cid domain.ConnectionID) (domain.CallSession, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.checkParticipant(bookingID, actor); err != nil {
		return domain.CallSession{}, err
	}
	sess, err := o.Sessions.Transition(bookingID, domain.EventAccept, actor, cid)
	if err != nil {
		return sess, err
	}
	o.Timeouts.Disarm(bookingID)
	o.sendJSON(sess.Caller, answeredEvent{Type: TypeAccepted, BookingID: bookingID, From: actor})
	return sess, nil
}

// Reject declines a ringing call. The caller gets call:rejected followed by call:ended.
func (o *Orchestrator) Reject(bookingID domain.BookingID, actor domain.Identity, reason string) (domain.CallSession, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.checkParticipant(bookingID, actor); err != nil {
		return domain.CallSession{}, err
	}
	sess, err := o.Sessions.Transition(bookingID, domain.EventReject, actor, "")
	if err != nil {
		return sess, err
	}
	o.sendJSON(sess.Caller, answeredEvent{Type: TypeRejected, BookingID: bookingID, From: actor, Reason: reason})
	o.finish(sess)
	return sess, nil
}

// End hangs up. The caller may end a ringing call; either side may end an active one.
func (o *Orchestrator) End(bookingID domain.BookingID, actor domain.Identity) (domain.CallSession, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.checkParticipant(bookingID, actor); err != nil {
		return domain.CallSession{}, err
	}
	sess, err := o.Sessions.Transition(bookingID, domain.EventEnd, actor, "")
	if err != nil {
		return sess, err
	}
	o.finish(sess)
	return sess, nil
}

// checkParticipant reports NOT_A_PARTICIPANT ahead of state errors for outsiders.
func (o *Orchestrator) checkParticipant(bookingID domain.BookingID, actor domain.Identity) error {
	sess, ok := o.Sessions.Get(bookingID)
	if ok && !sess.IsParticipant(actor) {
		return domain.ErrNotAParticipant
	}
	return nil
}

func (o *Orchestrator) onRingTimeout(bookingID domain.BookingID, callID domain.CallID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	cur, ok := o.Sessions.Get(bookingID)
	if !ok || cur.ID != callID || cur.Status != domain.StatusRinging {
		return
	}
	sess, err := o.Sessions.Transition(bookingID, domain.EventTimeout, "", "")
	if err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("booking_id", string(bookingID)).Msg("late ring timeout ignored")
		return
	}
	o.finish(sess)
}
