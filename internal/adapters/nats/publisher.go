// Package nats publishes call lifecycle events for downstream consumers
// such as billing and push notification services.
package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/callrelay/internal/domain"
)

const (
	subjectEnded   = "ended"
	subjectMissed  = "missed"
	subjectOffline = "offline"
)

// OfflineEvent asks a push service to wake the receiver's device.
type OfflineEvent struct {
	BookingID         domain.BookingID `json:"bookingId"`
	CallID            domain.CallID    `json:"callId"`
	Receiver          domain.Identity  `json:"receiver"`
	CallerIdentity    domain.Identity  `json:"callerIdentity"`
	CallerDisplayName string           `json:"callerDisplayName"`
	StartedAt         time.Time        `json:"startedAt"`
}

// Publisher implements core.HistorySink and core.OfflineNotifier on a NATS connection.
type Publisher struct {
	nc     *natsgo.Conn
	prefix string
}

// Connect dials url and returns a publisher that prefixes every subject.
func Connect(url, prefix string) (*Publisher, error) {
	nc, err := natsgo.Connect(url,
		natsgo.Name("callrelay"),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			log.Warn().Err(err).Str("module", "nats").Msg("disconnected")
		}),
		natsgo.ReconnectHandler(func(c *natsgo.Conn) {
			log.Info().Str("module", "nats").Str("url", c.ConnectedUrl()).Msg("reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	return NewPublisher(nc, prefix), nil
}

func NewPublisher(nc *natsgo.Conn, prefix string) *Publisher {
	return &Publisher{nc: nc, prefix: prefix}
}

func (p *Publisher) subject(name string) string {
	if p.prefix == "" {
		return name
	}
	return p.prefix + "." + name
}

// Record publishes every finished call on <prefix>.ended and unanswered ones
// additionally on <prefix>.missed.
func (p *Publisher) Record(ctx context.Context, rec domain.CallRecord) error {
	if err := p.publish(ctx, p.subject(subjectEnded), rec); err != nil {
		return err
	}
	if rec.Status == domain.RecordMissed {
		return p.publish(ctx, p.subject(subjectMissed), rec)
	}
	return nil
}

func (p *Publisher) NotifyOffline(ctx context.Context, s domain.CallSession, callerName string) error {
	return p.publish(ctx, p.subject(subjectOffline), OfflineEvent{
		BookingID:         s.BookingID,
		CallID:            s.ID,
		Receiver:          s.Receiver,
		CallerIdentity:    s.Caller,
		CallerDisplayName: callerName,
		StartedAt:         s.StartedAt,
	})
}

func (p *Publisher) publish(ctx context.Context, subject string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", subject, err)
	}
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing %s: %w", subject, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() error {
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
		return fmt.Errorf("draining nats connection: %w", err)
	}
	return nil
}
