package core

import (
	"context"

	"github.com/dkeye/callrelay/internal/domain"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

// BookingDirectory resolves who may call whom for a booking.
// Lookup returns domain.ErrBookingNotFound when the booking is unknown or not callable.
type BookingDirectory interface {
	Lookup(ctx context.Context, id domain.BookingID) (*domain.Booking, error)
}

// HistorySink receives finished calls for audit and analytics.
type HistorySink interface {
	Record(ctx context.Context, rec domain.CallRecord) error
}

// HistoryReader lists past calls of a booking, newest first.
type HistoryReader interface {
	ListByBooking(ctx context.Context, id domain.BookingID, limit int) ([]domain.CallRecord, error)
}

// OfflineNotifier is told when a call rings for a receiver with no live connection,
// so an external push service can wake the device.
type OfflineNotifier interface {
	NotifyOffline(ctx context.Context, s domain.CallSession, callerName string) error
}
