// Package orch ties the registry, the session store and the ring timers
// together. Every state-changing handler runs under one mutex so each
// runs to completion before the next starts, and frames for a booking are
// queued in the order its transitions were applied.
package orch

import (
	"context"
	"errors"
	"sync"

	"github.com/dkeye/callrelay/internal/app"
	"github.com/dkeye/callrelay/internal/core"
	"github.com/dkeye/callrelay/internal/domain"
	"github.com/dkeye/callrelay/internal/metrics"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

type Orchestrator struct {
	Registry *app.Registry
	Sessions *app.SessionStore
	Timeouts *app.TimeoutSupervisor
	Bookings core.BookingDirectory
	History  core.HistorySink
	Offline  core.OfflineNotifier
	Policy   app.Policy

	mu sync.Mutex
}

// Join registers a connection under identity.
func (o *Orchestrator) Join(id domain.Identity, cid domain.ConnectionID, conn core.SignalConnection, cancel context.CancelFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	prev, rejoin := o.Registry.IdentityOf(cid)
	o.Registry.Register(id, cid, conn, cancel)
	if rejoin && prev != id {
		// The connection now speaks for someone else; calls bound to it under the old identity are gone.
		o.reconcile(prev, cid)
	}
}

// OnDisconnect unregisters cid and ends every live call that depended on it.
// A call ends when the dropped connection was the one bound to it, or when
// the identity has no connections left.
func (o *Orchestrator) OnDisconnect(cid domain.ConnectionID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	id, ok := o.Registry.Unregister(cid)
	if !ok {
		return
	}
	o.reconcile(id, cid)
}

func (o *Orchestrator) reconcile(id domain.Identity, cid domain.ConnectionID) {
	online := o.Registry.IsOnline(id)
	for _, sess := range o.Sessions.Involving(id) {
		if online && sess.ConnOf(id) != cid {
			continue
		}
		ended, err := o.Sessions.Transition(sess.BookingID, domain.EventDisconnect, "", "")
		if err != nil {
			log.Warn().Err(err).Str("module", "orch").Str("booking_id", string(sess.BookingID)).Msg("disconnect transition")
			continue
		}
		log.Info().Str("module", "orch").Str("booking_id", string(sess.BookingID)).Str("identity", string(id)).
			Str("conn_id", string(cid)).Msg("call ended by disconnect")
		o.finish(ended)
	}
}

// Snapshot returns the live session of a booking.
func (o *Orchestrator) Snapshot(bookingID domain.BookingID) (domain.CallSession, bool) {
	return o.Sessions.Get(bookingID)
}

// Sweep expires sessions past their maximum lifetime and notifies their participants.
func (o *Orchestrator) Sweep() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	expired := o.Sessions.Sweep()
	for _, sess := range expired {
		o.finish(sess)
	}
	return len(expired)
}

// finish runs the side effects of a terminal transition. Callers hold o.mu.
func (o *Orchestrator) finish(sess domain.CallSession) {
	o.Timeouts.Disarm(sess.BookingID)
	ev := endedEvent{
		Type:            TypeEnded,
		BookingID:       sess.BookingID,
		CallID:          sess.ID,
		DurationSeconds: sess.DurationSeconds(),
		Reason:          sess.EndReason,
	}
	o.sendJSON(sess.Caller, ev)
	o.sendJSON(sess.Receiver, ev)
	if o.History != nil {
		if err := o.History.Record(context.Background(), domain.RecordOf(sess)); err != nil {
			log.Error().Err(err).Str("module", "orch").Str("booking_id", string(sess.BookingID)).Msg("history record")
		}
	}
}

func (o *Orchestrator) sendJSON(to domain.Identity, v any) int {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("sendJSON marshal")
		return 0
	}
	return o.send(to, b)
}

// send queues a frame on the identity's connections chosen by the delivery policy.
func (o *Orchestrator) send(to domain.Identity, frame core.Frame) int {
	delivered := 0
	for _, tg := range o.Registry.Targets(to) {
		err := tg.Conn.TrySend(frame)
		switch {
		case err == nil:
			delivered++
		case errors.Is(err, core.ErrBackpressure):
			metrics.FramesDropped.WithLabelValues("backpressure").Inc()
			o.onBackpressure(to, tg.ConnID)
		default:
			metrics.FramesDropped.WithLabelValues("closed").Inc()
			log.Debug().Err(err).Str("module", "orch").Str("conn_id", string(tg.ConnID)).Msg("send to closed connection")
		}
	}
	return delivered
}

func (o *Orchestrator) onBackpressure(id domain.Identity, cid domain.ConnectionID) {
	log.Warn().Str("module", "orch").Str("identity", string(id)).Str("conn_id", string(cid)).Msg("connection backpressure")
	if o.Policy == nil {
		return
	}
	switch o.Policy.OnBackPressure(id, cid) {
	case app.KickConnection:
		// The adapter reports the disconnect once its pumps stop.
		o.Registry.Cancel(cid)
	case app.DropFrame, app.NoAction:
	}
}
