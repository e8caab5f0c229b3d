package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/callrelay/internal/domain"
)

func newTestRecord() domain.CallRecord {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return domain.CallRecord{
		CallID:          "c-1",
		BookingID:       "B1",
		Caller:          "customer:1",
		Receiver:        "provider:2",
		Status:          domain.RecordCompleted,
		EndReason:       domain.ReasonCallerEnded,
		DurationSeconds: 90,
		StartedAt:       started,
		EndedAt:         started.Add(95 * time.Second),
	}
}

func TestHistoryStore_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	store := NewHistoryStore(db)
	rec := newTestRecord()

	insert := regexp.QuoteMeta("INSERT INTO call_history (call_id,booking_id,caller,receiver,status,end_reason,duration_seconds,started_at,ended_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) ON CONFLICT (call_id) DO NOTHING")

	mock.ExpectExec(insert).
		WithArgs("c-1", "B1", "customer:1", "provider:2", domain.RecordCompleted, string(domain.ReasonCallerEnded), 90, rec.StartedAt, rec.EndedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Record(context.Background(), rec))

	mock.ExpectExec(insert).WillReturnError(errors.New("disk full"))
	err = store.Record(context.Background(), rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inserting call history")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryStore_ListByBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	store := NewHistoryStore(db)
	rec := newTestRecord()

	query := regexp.QuoteMeta("SELECT call_id, booking_id, caller, receiver, status, end_reason, duration_seconds, started_at, ended_at FROM call_history WHERE booking_id = $1 ORDER BY started_at DESC LIMIT 50")

	mock.ExpectQuery(query).
		WithArgs("B1").
		WillReturnRows(sqlmock.NewRows(historyColumns).
			AddRow("c-2", "B1", "provider:2", "customer:1", domain.RecordMissed, "timeout", 0, rec.StartedAt.Add(time.Hour), rec.StartedAt.Add(time.Hour+30*time.Second)).
			AddRow("c-1", "B1", "customer:1", "provider:2", domain.RecordCompleted, "caller_ended", 90, rec.StartedAt, rec.EndedAt))

	got, err := store.ListByBooking(context.Background(), "B1", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.CallID("c-2"), got[0].CallID)
	assert.Equal(t, domain.ReasonTimeout, got[0].EndReason)
	assert.Equal(t, rec, got[1])

	mock.ExpectQuery(regexp.QuoteMeta("LIMIT 500")).
		WithArgs("B1").
		WillReturnRows(sqlmock.NewRows(historyColumns))
	got, err = store.ListByBooking(context.Background(), "B1", 10_000)
	require.NoError(t, err)
	assert.Empty(t, got)

	mock.ExpectQuery(regexp.QuoteMeta("FROM call_history")).
		WillReturnError(errors.New("timeout"))
	_, err = store.ListByBooking(context.Background(), "B1", 5)
	assert.ErrorContains(t, err, "querying call history")

	assert.NoError(t, mock.ExpectationsWereMet())
}
