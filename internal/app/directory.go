package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/callrelay/internal/core"
	"github.com/dkeye/callrelay/internal/domain"
	"github.com/dkeye/callrelay/internal/metrics"
	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"
)

var _ core.BookingDirectory = (*GuardedDirectory)(nil)
var _ core.BookingDirectory = (*StaticDirectory)(nil)

type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// GuardedDirectory wraps a booking directory with a lookup deadline and a
// circuit breaker. Every failure surfaces as ErrBookingNotFound to callers;
// the underlying cause is logged.
type GuardedDirectory struct {
	next    core.BookingDirectory
	cb      *gobreaker.CircuitBreaker[*domain.Booking]
	timeout time.Duration
}

func NewGuardedDirectory(next core.BookingDirectory, lookupTimeout time.Duration, bc BreakerConfig) *GuardedDirectory {
	cb := gobreaker.NewCircuitBreaker[*domain.Booking](gobreaker.Settings{
		Name:        "booking-directory",
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bc.FailureThreshold
		},
		// An unknown booking is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrBookingNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("module", "app.directory").Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).Msg("breaker state change")
			metrics.BreakerState.Set(float64(to))
		},
	})
	return &GuardedDirectory{next: next, cb: cb, timeout: lookupTimeout}
}

func (d *GuardedDirectory) Lookup(ctx context.Context, id domain.BookingID) (*domain.Booking, error) {
	start := time.Now()
	b, err := d.cb.Execute(func() (*domain.Booking, error) {
		lctx := ctx
		if d.timeout > 0 {
			var cancel context.CancelFunc
			lctx, cancel = context.WithTimeout(ctx, d.timeout)
			defer cancel()
		}
		return d.next.Lookup(lctx, id)
	})
	switch {
	case err == nil:
		metrics.RecordLookup("ok", time.Since(start))
		return b, nil
	case errors.Is(err, domain.ErrBookingNotFound):
		metrics.RecordLookup("not_found", time.Since(start))
		return nil, err
	default:
		metrics.RecordLookup("error", time.Since(start))
		log.Error().Err(err).Str("module", "app.directory").Str("booking_id", string(id)).Msg("booking lookup failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrBookingNotFound, err)
	}
}

func (d *GuardedDirectory) State() gobreaker.State {
	return d.cb.State()
}

// StaticDirectory serves bookings from memory. Used when no database is configured and in tests.
type StaticDirectory struct {
	mu       sync.RWMutex
	bookings map[domain.BookingID]domain.Booking
}

func NewStaticDirectory(bookings ...domain.Booking) *StaticDirectory {
	d := &StaticDirectory{bookings: make(map[domain.BookingID]domain.Booking, len(bookings))}
	for _, b := range bookings {
		d.bookings[b.ID] = b
	}
	return d
}

func (d *StaticDirectory) Put(b domain.Booking) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bookings[b.ID] = b
}

func (d *StaticDirectory) Lookup(_ context.Context, id domain.BookingID) (*domain.Booking, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	return &b, nil
}
