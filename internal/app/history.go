package app

import (
	"context"
	"time"

	"github.com/dkeye/callrelay/internal/core"
	"github.com/dkeye/callrelay/internal/domain"
	"github.com/dkeye/callrelay/internal/metrics"
	"github.com/rs/zerolog/log"
)

var _ core.HistorySink = (*HistoryWriter)(nil)

const historyWriteTimeout = 5 * time.Second

// HistoryWriter queues finished calls and writes them to its sinks in the
// background. Record never blocks; a full queue drops the record.
type HistoryWriter struct {
	queue chan domain.CallRecord
	sinks []core.HistorySink
}

func NewHistoryWriter(buffer int, sinks ...core.HistorySink) *HistoryWriter {
	if buffer <= 0 {
		buffer = 1
	}
	return &HistoryWriter{
		queue: make(chan domain.CallRecord, buffer),
		sinks: sinks,
	}
}

func (w *HistoryWriter) Record(_ context.Context, rec domain.CallRecord) error {
	select {
	case w.queue <- rec:
		metrics.HistoryQueueDepth.Set(float64(len(w.queue)))
	default:
		metrics.HistoryWrites.WithLabelValues("dropped").Inc()
		log.Warn().Str("module", "app.history").Str("booking_id", string(rec.BookingID)).
			Str("call_id", string(rec.CallID)).Msg("history queue full, record dropped")
	}
	return nil
}

// Serve implements suture.Service. Records still queued at shutdown are flushed.
func (w *HistoryWriter) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case rec := <-w.queue:
			metrics.HistoryQueueDepth.Set(float64(len(w.queue)))
			w.write(rec)
		}
	}
}

func (w *HistoryWriter) drain() {
	for {
		select {
		case rec := <-w.queue:
			w.write(rec)
		default:
			metrics.HistoryQueueDepth.Set(0)
			return
		}
	}
}

func (w *HistoryWriter) write(rec domain.CallRecord) {
	for _, sink := range w.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
		err := sink.Record(ctx, rec)
		cancel()
		if err != nil {
			metrics.HistoryWrites.WithLabelValues("error").Inc()
			log.Error().Err(err).Str("module", "app.history").Str("booking_id", string(rec.BookingID)).
				Str("call_id", string(rec.CallID)).Msg("history write failed")
			continue
		}
		metrics.HistoryWrites.WithLabelValues("ok").Inc()
	}
}

func (w *HistoryWriter) String() string { return "history-writer" }
