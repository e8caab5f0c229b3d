package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkeye/callrelay/internal/domain"
)

// StatusCancelled bookings exist but can no longer be called.
const StatusCancelled = "cancelled"

// BookingStore implements core.BookingDirectory.
type BookingStore struct {
	db *sql.DB
}

func NewBookingStore(db *sql.DB) *BookingStore {
	return &BookingStore{db: db}
}

// Lookup returns domain.ErrBookingNotFound for unknown or cancelled bookings.
func (s *BookingStore) Lookup(ctx context.Context, id domain.BookingID) (*domain.Booking, error) {
	query, args, err := psq.
		Select("customer", "provider", "customer_name", "provider_name", "status").
		From("bookings").
		Where("id = ?", string(id)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building booking query: %w", err)
	}

	var customer, provider, customerName, providerName, status string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&customer, &provider, &customerName, &providerName, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying booking: %w", err)
	}
	if status == StatusCancelled {
		return nil, domain.ErrBookingNotFound
	}

	b := &domain.Booking{
		ID:           id,
		Customer:     domain.Identity(customer),
		Provider:     domain.Identity(provider),
		DisplayNames: map[domain.Identity]string{},
	}
	if customerName != "" {
		b.DisplayNames[b.Customer] = customerName
	}
	if providerName != "" {
		b.DisplayNames[b.Provider] = providerName
	}
	return b, nil
}

// Upsert writes or replaces a booking. Used for seeding.
func (s *BookingStore) Upsert(ctx context.Context, b domain.Booking, status string) error {
	query, args, err := psq.Insert("bookings").
		Columns("id", "customer", "provider", "customer_name", "provider_name", "status").
		Values(string(b.ID), string(b.Customer), string(b.Provider), b.NameOf(b.Customer), b.NameOf(b.Provider), status).
		Suffix("ON CONFLICT (id) DO UPDATE SET customer = EXCLUDED.customer, provider = EXCLUDED.provider, " +
			"customer_name = EXCLUDED.customer_name, provider_name = EXCLUDED.provider_name, status = EXCLUDED.status").
		ToSql()
	if err != nil {
		return fmt.Errorf("building booking upsert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upserting booking: %w", err)
	}
	return nil
}
