package app

import (
	"sync"
	"time"

	"github.com/dkeye/callrelay/internal/domain"
	"github.com/dkeye/callrelay/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SessionStore owns the live call session of every booking.
// Ended sessions leave the table at once; their booking id is kept as a
// tombstone for a while so late events report ALREADY_ENDED.
type SessionStore struct {
	mu         sync.Mutex
	live       map[domain.BookingID]*domain.CallSession
	tombstones map[domain.BookingID]time.Time

	maxLifetime  time.Duration
	tombstoneTTL time.Duration
	now          func() time.Time
}

func NewSessionStore(maxLifetime, tombstoneTTL time.Duration) *SessionStore {
	return &SessionStore{
		live:         make(map[domain.BookingID]*domain.CallSession),
		tombstones:   make(map[domain.BookingID]time.Time),
		maxLifetime:  maxLifetime,
		tombstoneTTL: tombstoneTTL,
		now:          time.Now,
	}
}

// Create opens a ringing session. It fails with ErrDuplicateSession while
// the booking still has a non-ended one.
func (s *SessionStore) Create(
	bookingID domain.BookingID,
	caller, receiver domain.Identity,
	callerConn domain.ConnectionID,
) (domain.CallSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live[bookingID]; ok {
		return domain.CallSession{}, domain.ErrDuplicateSession
	}
	delete(s.tombstones, bookingID)
	sess := &domain.CallSession{
		ID:         domain.CallID(uuid.NewString()),
		BookingID:  bookingID,
		Caller:     caller,
		Receiver:   receiver,
		Status:     domain.StatusRinging,
		StartedAt:  s.now(),
		CallerConn: callerConn,
	}
	s.live[bookingID] = sess
	s.observe()
	metrics.CallsInitiated.Inc()
	log.Info().Str("module", "app.sessions").Str("booking_id", string(bookingID)).
		Str("call_id", string(sess.ID)).Str("caller", string(caller)).Str("receiver", string(receiver)).
		Msg("session created")
	return *sess, nil
}

// Transition applies ev to the booking's session. actor and conn describe who
// caused it; both are empty for timeout, disconnect and expire. On accept the
// receiver's session is bound to conn.
// The returned session reflects the state after the event, also when it ended.
func (s *SessionStore) Transition(
	bookingID domain.BookingID,
	ev domain.CallEvent,
	actor domain.Identity,
	conn domain.ConnectionID,
) (domain.CallSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transition(bookingID, ev, actor, conn)
}

func (s *SessionStore) transition(
	bookingID domain.BookingID,
	ev domain.CallEvent,
	actor domain.Identity,
	conn domain.ConnectionID,
) (domain.CallSession, error) {
	sess, ok := s.live[bookingID]
	if !ok {
		if at, ended := s.tombstones[bookingID]; ended && s.now().Sub(at) < s.tombstoneTTL {
			return domain.CallSession{}, domain.ErrAlreadyEnded
		}
		return domain.CallSession{}, domain.ErrSessionNotFound
	}
	now := s.now()
	if err := sess.Apply(ev, actor, now); err != nil {
		return *sess, err
	}
	if ev == domain.EventAccept {
		sess.ReceiverConn = conn
	}
	if sess.Status == domain.StatusEnded {
		delete(s.live, bookingID)
		s.tombstones[bookingID] = now
		metrics.RecordCallEnded(string(sess.EndReason), sess.Duration())
	}
	s.observe()
	log.Info().Str("module", "app.sessions").Str("booking_id", string(bookingID)).
		Str("event", string(ev)).Str("status", string(sess.Status)).Str("reason", string(sess.EndReason)).
		Msg("session transition")
	return *sess, nil
}

func (s *SessionStore) Get(bookingID domain.BookingID) (domain.CallSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.live[bookingID]
	if !ok {
		return domain.CallSession{}, false
	}
	return *sess, true
}

// Involving returns the live sessions where id is caller or receiver.
func (s *SessionStore) Involving(id domain.Identity) []domain.CallSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.CallSession
	for _, sess := range s.live {
		if sess.IsParticipant(id) {
			out = append(out, *sess)
		}
	}
	return out
}

// Sweep expires sessions older than the maximum lifetime and forgets old
// tombstones. The expired sessions are returned in their ended state.
func (s *SessionStore) Sweep() []domain.CallSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, at := range s.tombstones {
		if now.Sub(at) >= s.tombstoneTTL {
			delete(s.tombstones, id)
		}
	}
	var stale []domain.BookingID
	for id, sess := range s.live {
		if now.Sub(sess.StartedAt) >= s.maxLifetime {
			stale = append(stale, id)
		}
	}
	out := make([]domain.CallSession, 0, len(stale))
	for _, id := range stale {
		sess, err := s.transition(id, domain.EventExpire, "", "")
		if err != nil {
			continue
		}
		out = append(out, sess)
	}
	if len(out) > 0 {
		log.Warn().Str("module", "app.sessions").Int("expired", len(out)).Msg("swept stale sessions")
	}
	return out
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

func (s *SessionStore) observe() {
	var ringing, active int
	for _, sess := range s.live {
		switch sess.Status {
		case domain.StatusRinging:
			ringing++
		case domain.StatusActive:
			active++
		}
	}
	metrics.CallsActive.WithLabelValues(string(domain.StatusRinging)).Set(float64(ringing))
	metrics.CallsActive.WithLabelValues(string(domain.StatusActive)).Set(float64(active))
}
