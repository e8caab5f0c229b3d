package app

import (
	"sync"
	"time"

	"github.com/dkeye/callrelay/internal/domain"
	"github.com/rs/zerolog/log"
)

type armedTimer struct {
	call  domain.CallID
	timer *time.Timer
}

// TimeoutSupervisor holds one ring timer per booking. It never touches
// sessions itself; the fire callback goes back through the session store.
type TimeoutSupervisor struct {
	mu      sync.Mutex
	timers  map[domain.BookingID]armedTimer
	timeout time.Duration
}

func NewTimeoutSupervisor(timeout time.Duration) *TimeoutSupervisor {
	return &TimeoutSupervisor{
		timers:  make(map[domain.BookingID]armedTimer),
		timeout: timeout,
	}
}

func (s *TimeoutSupervisor) Timeout() time.Duration { return s.timeout }

// Arm schedules onFire for the call. A timer still armed for the booking is replaced.
// onFire runs only if the timer was not disarmed first.
func (s *TimeoutSupervisor) Arm(bookingID domain.BookingID, callID domain.CallID, onFire func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.timers[bookingID]; ok {
		prev.timer.Stop()
	}
	t := time.AfterFunc(s.timeout, func() {
		s.mu.Lock()
		cur, ok := s.timers[bookingID]
		if !ok || cur.call != callID {
			s.mu.Unlock()
			return
		}
		delete(s.timers, bookingID)
		s.mu.Unlock()
		log.Info().Str("module", "app.timeouts").Str("booking_id", string(bookingID)).
			Str("call_id", string(callID)).Msg("ring timeout fired")
		onFire()
	})
	s.timers[bookingID] = armedTimer{call: callID, timer: t}
}

// Disarm cancels the booking's timer and reports whether one was pending.
func (s *TimeoutSupervisor) Disarm(bookingID domain.BookingID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.timers[bookingID]
	if !ok {
		return false
	}
	cur.timer.Stop()
	delete(s.timers, bookingID)
	return true
}

func (s *TimeoutSupervisor) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every pending timer.
func (s *TimeoutSupervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cur := range s.timers {
		cur.timer.Stop()
		delete(s.timers, id)
	}
}
