package nats

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/callrelay/internal/domain"
)

func runServer(t *testing.T) *server.Server {
	t.Helper()
	ns, err := server.NewServer(&server.Options{Host: "127.0.0.1", Port: -1, NoLog: true, NoSigs: true})
	require.NoError(t, err)
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		t.Fatal("nats server not ready")
	}
	t.Cleanup(ns.Shutdown)
	return ns
}

func subscribe(t *testing.T, url, subject string) *natsgo.Subscription {
	t.Helper()
	nc, err := natsgo.Connect(url)
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	sub, err := nc.SubscribeSync(subject)
	require.NoError(t, err)
	require.NoError(t, nc.Flush())
	return sub
}

func TestPublisher_Record(t *testing.T) {
	ns := runServer(t)
	ended := subscribe(t, ns.ClientURL(), "calls.ended")
	missed := subscribe(t, ns.ClientURL(), "calls.missed")

	pub, err := Connect(ns.ClientURL(), "calls")
	require.NoError(t, err)
	defer func() { _ = pub.Close() }()

	ctx := context.Background()
	require.NoError(t, pub.Record(ctx, domain.CallRecord{CallID: "c-1", BookingID: "B1", Status: domain.RecordCompleted, DurationSeconds: 12}))
	require.NoError(t, pub.Record(ctx, domain.CallRecord{CallID: "c-2", BookingID: "B1", Status: domain.RecordMissed, EndReason: domain.ReasonTimeout}))
	require.NoError(t, pub.nc.Flush())

	var got domain.CallRecord
	msg, err := ended.NextMsg(2 * time.Second)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, domain.CallID("c-1"), got.CallID)
	assert.Equal(t, 12, got.DurationSeconds)

	msg, err = ended.NextMsg(2 * time.Second)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, domain.CallID("c-2"), got.CallID)

	msg, err = missed.NextMsg(2 * time.Second)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, domain.CallID("c-2"), got.CallID)
	assert.Equal(t, domain.ReasonTimeout, got.EndReason)

	_, err = missed.NextMsg(100 * time.Millisecond)
	assert.ErrorIs(t, err, natsgo.ErrTimeout, "completed calls are not missed")
}

func TestPublisher_NotifyOffline(t *testing.T) {
	ns := runServer(t)
	offline := subscribe(t, ns.ClientURL(), "calls.offline")

	pub, err := Connect(ns.ClientURL(), "calls")
	require.NoError(t, err)
	defer func() { _ = pub.Close() }()

	s := domain.CallSession{ID: "c-1", BookingID: "B1", Caller: "customer:1", Receiver: "provider:2", StartedAt: time.Now()}
	require.NoError(t, pub.NotifyOffline(context.Background(), s, "Asha"))
	require.NoError(t, pub.nc.Flush())

	msg, err := offline.NextMsg(2 * time.Second)
	require.NoError(t, err)
	var ev OfflineEvent
	require.NoError(t, json.Unmarshal(msg.Data, &ev))
	assert.Equal(t, domain.Identity("provider:2"), ev.Receiver)
	assert.Equal(t, "Asha", ev.CallerDisplayName)
	assert.Equal(t, domain.BookingID("B1"), ev.BookingID)
}

func TestPublisher_CancelledContext(t *testing.T) {
	ns := runServer(t)
	pub, err := Connect(ns.ClientURL(), "")
	require.NoError(t, err)
	defer func() { _ = pub.Close() }()

	assert.Equal(t, "ended", pub.subject(subjectEnded))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, pub.Record(ctx, domain.CallRecord{}), context.Canceled)
}
