package app

import (
	"sync"
	"testing"
	"time"

	"github.com/dkeye/callrelay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	caller   domain.Identity = "customer:1"
	receiver domain.Identity = "provider:2"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Unix(1_700_000_000, 0)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(clock *fakeClock) *SessionStore {
	s := NewSessionStore(24*time.Hour, time.Minute)
	s.now = clock.Now
	return s
}

func TestSessionStore_CreateDuplicate(t *testing.T) {
	s := newTestStore(newFakeClock())

	first, err := s.Create("B1", caller, receiver, "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRinging, first.Status)
	assert.NotEmpty(t, first.ID)

	_, err = s.Create("B1", caller, receiver, "c1")
	assert.ErrorIs(t, err, domain.ErrDuplicateSession)

	_, err = s.Transition("B1", domain.EventAccept, receiver, "c2")
	require.NoError(t, err)
	_, err = s.Create("B1", receiver, caller, "c2")
	assert.ErrorIs(t, err, domain.ErrDuplicateSession, "active session also blocks")

	_, err = s.Create("B2", caller, receiver, "c1")
	assert.NoError(t, err, "other bookings are independent")
}

func TestSessionStore_TerminalRemovesAndTombstones(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(clock)
	_, err := s.Create("B1", caller, receiver, "c1")
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	accepted, err := s.Transition("B1", domain.EventAccept, receiver, "c2")
	require.NoError(t, err)
	assert.Equal(t, domain.ConnectionID("c2"), accepted.ReceiverConn)

	clock.Advance(10 * time.Second)
	ended, err := s.Transition("B1", domain.EventEnd, caller, "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnded, ended.Status)
	assert.Equal(t, 10, ended.DurationSeconds())

	_, ok := s.Get("B1")
	assert.False(t, ok, "ended session leaves the table")
	assert.Equal(t, 0, s.Len())

	_, err = s.Transition("B1", domain.EventEnd, caller, "c1")
	assert.ErrorIs(t, err, domain.ErrAlreadyEnded)

	clock.Advance(2 * time.Minute)
	_, err = s.Transition("B1", domain.EventEnd, caller, "c1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound, "tombstone expired")
}

func TestSessionStore_UnknownBooking(t *testing.T) {
	s := newTestStore(newFakeClock())
	_, err := s.Transition("nope", domain.EventEnd, caller, "")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionStore_RejectedEventKeepsSession(t *testing.T) {
	s := newTestStore(newFakeClock())
	_, err := s.Create("B1", caller, receiver, "c1")
	require.NoError(t, err)

	sess, err := s.Transition("B1", domain.EventAccept, caller, "c1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.StatusRinging, sess.Status)

	_, err = s.Transition("B1", domain.EventEnd, "customer:9", "")
	assert.ErrorIs(t, err, domain.ErrNotAParticipant)

	got, ok := s.Get("B1")
	require.True(t, ok)
	assert.Equal(t, domain.StatusRinging, got.Status)
}

func TestSessionStore_CreateAfterEndClearsTombstone(t *testing.T) {
	s := newTestStore(newFakeClock())
	_, err := s.Create("B1", caller, receiver, "c1")
	require.NoError(t, err)
	_, err = s.Transition("B1", domain.EventReject, receiver, "c2")
	require.NoError(t, err)

	second, err := s.Create("B1", caller, receiver, "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRinging, second.Status)
}

func TestSessionStore_Involving(t *testing.T) {
	s := newTestStore(newFakeClock())
	_, _ = s.Create("B1", caller, receiver, "c1")
	_, _ = s.Create("B2", "customer:3", receiver, "c3")
	_, _ = s.Create("B3", "customer:3", "provider:4", "c3")

	assert.Len(t, s.Involving(receiver), 2)
	assert.Len(t, s.Involving(caller), 1)
	assert.Empty(t, s.Involving("nobody"))
}

func TestSessionStore_SweepExpires(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(clock)
	_, _ = s.Create("old", caller, receiver, "c1")
	clock.Advance(23 * time.Hour)
	_, _ = s.Create("young", "customer:3", "provider:4", "c3")
	clock.Advance(time.Hour)

	expired := s.Sweep()
	require.Len(t, expired, 1)
	assert.Equal(t, domain.BookingID("old"), expired[0].BookingID)
	assert.Equal(t, domain.ReasonExpired, expired[0].EndReason)

	_, ok := s.Get("old")
	assert.False(t, ok)
	_, ok = s.Get("young")
	assert.True(t, ok)

	_, err := s.Transition("old", domain.EventEnd, caller, "")
	assert.ErrorIs(t, err, domain.ErrAlreadyEnded)

	clock.Advance(time.Minute)
	s.Sweep()
	_, err = s.Transition("old", domain.EventEnd, caller, "")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound, "sweep forgets old tombstones")
}

func TestSessionStore_ConcurrentCreateOnlyOneWins(t *testing.T) {
	s := newTestStore(newFakeClock())
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Create("B1", caller, receiver, "c1"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
