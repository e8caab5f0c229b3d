package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCaller   Identity = "customer:1"
	testReceiver Identity = "provider:2"
)

func ringing() *CallSession {
	return &CallSession{
		ID:        "call-1",
		BookingID: "B1",
		Caller:    testCaller,
		Receiver:  testReceiver,
		Status:    StatusRinging,
		StartedAt: time.Unix(1000, 0),
	}
}

func TestApply_Transitions(t *testing.T) {
	now := time.Unix(1010, 0)
	tests := []struct {
		name       string
		from       CallStatus
		event      CallEvent
		actor      Identity
		wantStatus CallStatus
		wantReason EndReason
		wantErr    error
	}{
		{"accept by receiver", StatusRinging, EventAccept, testReceiver, StatusActive, "", nil},
		{"accept by caller", StatusRinging, EventAccept, testCaller, StatusRinging, "", ErrInvalidTransition},
		{"reject", StatusRinging, EventReject, testReceiver, StatusEnded, ReasonDeclined, nil},
		{"timeout while ringing", StatusRinging, EventTimeout, "", StatusEnded, ReasonTimeout, nil},
		{"disconnect while ringing", StatusRinging, EventDisconnect, "", StatusEnded, ReasonDisconnect, nil},
		{"caller cancels ringing", StatusRinging, EventEnd, testCaller, StatusEnded, ReasonCallerEnded, nil},
		{"end by receiver", StatusActive, EventEnd, testReceiver, StatusEnded, ReasonReceiverEnded, nil},
		{"end by caller", StatusActive, EventEnd, testCaller, StatusEnded, ReasonCallerEnded, nil},
		{"end by stranger", StatusActive, EventEnd, "customer:9", StatusActive, "", ErrNotAParticipant},
		{"disconnect while active", StatusActive, EventDisconnect, "", StatusEnded, ReasonDisconnect, nil},
		{"timeout while active", StatusActive, EventTimeout, "", StatusActive, "", ErrInvalidTransition},
		{"accept while active", StatusActive, EventAccept, testReceiver, StatusActive, "", ErrInvalidTransition},
		{"event after end", StatusEnded, EventEnd, testCaller, StatusEnded, "", ErrAlreadyEnded},
		{"expire", StatusActive, EventExpire, "", StatusEnded, ReasonExpired, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ringing()
			s.Status = tt.from
			err := s.Apply(tt.event, tt.actor, now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantStatus, s.Status)
			assert.Equal(t, tt.wantReason, s.EndReason)
		})
	}
}

func TestDurationSeconds(t *testing.T) {
	s := ringing()
	require.NoError(t, s.Apply(EventAccept, testReceiver, time.Unix(1005, 0)))
	require.NoError(t, s.Apply(EventEnd, testCaller, time.Unix(1047, 500)))
	assert.Equal(t, 42, s.DurationSeconds())

	never := ringing()
	require.NoError(t, never.Apply(EventTimeout, "", time.Unix(1030, 0)))
	assert.Equal(t, 0, never.DurationSeconds())
}

func TestRecordOf(t *testing.T) {
	tests := []struct {
		name   string
		accept bool
		event  CallEvent
		actor  Identity
		want   string
	}{
		{"answered then ended", true, EventEnd, testCaller, RecordCompleted},
		{"timed out", false, EventTimeout, "", RecordMissed},
		{"declined", false, EventReject, testReceiver, RecordRejected},
		{"caller hung up early", false, EventEnd, testCaller, RecordCancelled},
		{"dropped while ringing", false, EventDisconnect, "", RecordFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ringing()
			if tt.accept {
				require.NoError(t, s.Apply(EventAccept, testReceiver, time.Unix(1001, 0)))
			}
			require.NoError(t, s.Apply(tt.event, tt.actor, time.Unix(1061, 0)))
			rec := RecordOf(*s)
			assert.Equal(t, tt.want, rec.Status)
			assert.Equal(t, s.EndReason, rec.EndReason)
			assert.Equal(t, time.Unix(1061, 0), rec.EndedAt)
		})
	}
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeDuplicateSession, CodeOf(ErrDuplicateSession))
	assert.Equal(t, CodeAlreadyEnded, CodeOf(fmt.Errorf("ending B1: %w", ErrAlreadyEnded)))
	assert.Equal(t, CodeBadPayload, CodeOf(ErrIdentityEmpty))
	assert.Equal(t, CodeInternal, CodeOf(fmt.Errorf("boom")))
}

func TestParseIdentity(t *testing.T) {
	id, err := ParseIdentity("  provider:7 ")
	require.NoError(t, err)
	assert.Equal(t, Identity("provider:7"), id)

	_, err = ParseIdentity("   ")
	assert.ErrorIs(t, err, ErrIdentityEmpty)

	long := make([]byte, MaxIdentityLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = ParseIdentity(string(long))
	assert.ErrorIs(t, err, ErrIdentityTooLong)
}

func TestBookingRoles(t *testing.T) {
	b := &Booking{ID: "B1", Customer: testCaller, Provider: testReceiver}
	role, ok := b.RoleOf(testReceiver)
	assert.True(t, ok)
	assert.Equal(t, RoleProvider, role)

	other, ok := b.Counterpart(testCaller)
	assert.True(t, ok)
	assert.Equal(t, testReceiver, other)

	_, ok = b.Counterpart("customer:9")
	assert.False(t, ok)
	assert.Empty(t, b.NameOf(testCaller))
}
