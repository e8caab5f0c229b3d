package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/callrelay/internal/app/orch"
	"github.com/dkeye/callrelay/internal/core"
	"github.com/dkeye/callrelay/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Options tune the websocket pumps.
type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	PongWait   time.Duration
	WriteWait  time.Duration
	SendBuffer int
}

func DefaultOptions() Options {
	return Options{
		ReadLimit:  32768,
		PingPeriod: 54 * time.Second,
		PongWait:   60 * time.Second,
		WriteWait:  5 * time.Second,
		SendBuffer: 32,
	}
}

type SignalWSController struct {
	Orch    *orch.Orchestrator
	Limiter *InitiateLimiter
	Tokens  *TokenVerifier
	Opts    Options
}

func NewSignalWSController(o *orch.Orchestrator, limiter *InitiateLimiter, tokens *TokenVerifier, opts Options) *SignalWSController {
	return &SignalWSController{
		Orch:    o,
		Limiter: limiter,
		Tokens:  tokens,
		Opts:    opts,
	}
}

// WsSignalConn is one websocket client. identity is only touched by the read pump.
type WsSignalConn struct {
	id       domain.ConnectionID
	device   string
	identity domain.Identity
	conn     *websocket.Conn
	send     chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnectionClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	device := c.GetString("client_token")
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		id:     domain.ConnectionID(uuid.NewString()),
		device: device,
		conn:   ws,
		send:   make(chan core.Frame, ctl.Opts.SendBuffer),
	}
	log.Info().Str("module", "signal").Str("conn_id", string(conn.id)).Str("device", device).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	// Closing the socket is what unblocks a pending read.
	context.AfterFunc(ctx, conn.Close)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, conn)
}
