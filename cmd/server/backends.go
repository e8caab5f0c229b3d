package main

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog/log"

	natsadapter "github.com/dkeye/callrelay/internal/adapters/nats"
	"github.com/dkeye/callrelay/internal/adapters/postgres"
	"github.com/dkeye/callrelay/internal/app"
	"github.com/dkeye/callrelay/internal/config"
	"github.com/dkeye/callrelay/internal/core"
	"github.com/dkeye/callrelay/internal/domain"
)

// backends are the optional external systems: PostgreSQL for bookings and
// history, NATS for lifecycle events. Without them the relay runs on the
// dev bookings from the config file.
type backends struct {
	directory core.BookingDirectory
	reader    core.HistoryReader
	sinks     []core.HistorySink
	offline   core.OfflineNotifier

	db  *sql.DB
	pub *natsadapter.Publisher
}

func buildBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	b := &backends{}

	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		b.db = db
		if cfg.Database.Migrate {
			if err := postgres.Migrate(db); err != nil {
				b.Close()
				return nil, err
			}
		}
		bookings := postgres.NewBookingStore(db)
		b.directory = app.NewGuardedDirectory(bookings, cfg.Database.LookupTimeout, app.BreakerConfig{
			MaxRequests:      cfg.Breaker.MaxRequests,
			Interval:         cfg.Breaker.Interval,
			Timeout:          cfg.Breaker.Timeout,
			FailureThreshold: cfg.Breaker.FailureThreshold,
		})
		store := postgres.NewHistoryStore(db)
		b.sinks = append(b.sinks, store)
		b.reader = store
	} else {
		b.directory = devDirectory(cfg.DevBookings)
		log.Warn().Str("module", "main").Int("bookings", len(cfg.DevBookings)).
			Msg("no database configured, serving dev bookings from config")
	}

	if cfg.NATS.URL != "" {
		pub, err := natsadapter.Connect(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.pub = pub
		b.sinks = append(b.sinks, pub)
		b.offline = pub
	}
	return b, nil
}

func (b *backends) Close() {
	if b.pub != nil {
		if err := b.pub.Close(); err != nil {
			log.Warn().Err(err).Str("module", "main").Msg("close nats")
		}
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			log.Warn().Err(err).Str("module", "main").Msg("close database")
		}
	}
}

func devDirectory(list []config.DevBooking) *app.StaticDirectory {
	dir := app.NewStaticDirectory()
	for _, d := range list {
		b := domain.Booking{
			ID:           domain.BookingID(d.ID),
			Customer:     domain.Identity(d.Customer),
			Provider:     domain.Identity(d.Provider),
			DisplayNames: map[domain.Identity]string{},
		}
		if d.CustomerName != "" {
			b.DisplayNames[b.Customer] = domain.DisplayName(d.CustomerName)
		}
		if d.ProviderName != "" {
			b.DisplayNames[b.Provider] = domain.DisplayName(d.ProviderName)
		}
		dir.Put(b)
	}
	return dir
}
