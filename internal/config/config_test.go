package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.Call.RingTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Call.MaxLifetime)
	assert.Equal(t, "broadcast", cfg.Call.Delivery)
	assert.Equal(t, "calls", cfg.NATS.SubjectPrefix)
	assert.Empty(t, cfg.Database.URL)
}

func TestLoadFrom_File(t *testing.T) {
	path := writeConfig(t, `
mode: debug
port: 9090
call:
  ring_timeout: 45s
  delivery: latest
database:
  url: postgres://relay@localhost/relay?sslmode=disable
ice_servers:
  - urls: ["stun:stun.l.google.com:19302"]
  - urls: ["turn:turn.example.com:3478"]
    username: relay
    credential: secret
dev_bookings:
  - id: B1
    customer: customer:1
    provider: provider:2
    customer_name: Asha
`)
	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Mode)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 45*time.Second, cfg.Call.RingTimeout)
	assert.Equal(t, "latest", cfg.Call.Delivery)
	require.Len(t, cfg.ICEServers, 2)
	assert.Equal(t, "relay", cfg.ICEServers[1].Username)
	require.Len(t, cfg.DevBookings, 1)
	assert.Equal(t, "Asha", cfg.DevBookings[0].CustomerName)
}

func TestLoadFrom_EnvOverride(t *testing.T) {
	t.Setenv("CALLRELAY_PORT", "7070")
	t.Setenv("CALLRELAY_CALL_RING_TIMEOUT", "10s")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.Call.RingTimeout)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown delivery", "call:\n  delivery: random\n"},
		{"ping after pong", "ping_period: 90s\npong_wait: 60s\n"},
		{"zero ring timeout", "call:\n  ring_timeout: 0s\n"},
		{"incomplete dev booking", "dev_bookings:\n  - id: B1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
