package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dkeye/callrelay/internal/domain"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

var historyColumns = []string{
	"call_id", "booking_id", "caller", "receiver", "status",
	"end_reason", "duration_seconds", "started_at", "ended_at",
}

// HistoryStore implements core.HistorySink and core.HistoryReader.
type HistoryStore struct {
	db *sql.DB
}

func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

func (s *HistoryStore) Record(ctx context.Context, rec domain.CallRecord) error {
	query, args, err := psq.Insert("call_history").
		Columns(historyColumns...).
		Values(string(rec.CallID), string(rec.BookingID), string(rec.Caller), string(rec.Receiver),
			rec.Status, string(rec.EndReason), rec.DurationSeconds, rec.StartedAt, rec.EndedAt).
		Suffix("ON CONFLICT (call_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("building history insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting call history: %w", err)
	}
	return nil
}

// ListByBooking returns the newest calls first. limit <= 0 means the default.
func (s *HistoryStore) ListByBooking(ctx context.Context, id domain.BookingID, limit int) ([]domain.CallRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	query, args, err := psq.Select(historyColumns...).
		From("call_history").
		Where("booking_id = ?", string(id)).
		OrderBy("started_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building history query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying call history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]domain.CallRecord, 0, limit)
	for rows.Next() {
		var rec domain.CallRecord
		var callID, bookingID, caller, receiver, reason string
		if err := rows.Scan(&callID, &bookingID, &caller, &receiver, &rec.Status,
			&reason, &rec.DurationSeconds, &rec.StartedAt, &rec.EndedAt); err != nil {
			return nil, fmt.Errorf("scanning call history row: %w", err)
		}
		rec.CallID = domain.CallID(callID)
		rec.BookingID = domain.BookingID(bookingID)
		rec.Caller = domain.Identity(caller)
		rec.Receiver = domain.Identity(receiver)
		rec.EndReason = domain.EndReason(reason)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating call history rows: %w", err)
	}
	return out, nil
}
