package signal

import (
	"context"
	"time"

	"github.com/dkeye/callrelay/internal/domain"
	"github.com/dkeye/callrelay/internal/metrics"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.Opts.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("conn_id", string(c.id)).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("conn_id", string(c.id)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("conn_id", string(c.id)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.Opts.WriteWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("conn_id", string(c.id)).Msg("writePump ping")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn_id", string(c.id)).Str("identity", string(c.identity)).Msg("readPump closing")
		ctl.Orch.OnDisconnect(c.id)
		cancel()
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.Opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.Opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.Opts.PongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("conn_id", string(c.id)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "signal").Str("conn_id", string(c.id)).Msg("readPump read error")
				}
				return
			}
			_ = c.conn.SetReadDeadline(time.Now().Add(ctl.Opts.PongWait))
			ctl.handleSignal(ctx, cancel, c, data)
		}
	}
}

// envelope is the part every client message shares. Ref is echoed back on acks and errors.
type envelope struct {
	Type string          `json:"type"`
	Ref  json.RawMessage `json:"ref,omitempty"`
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, cancel context.CancelFunc, c *WsSignalConn, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendError(c, env, "", domain.CodeBadPayload, "bad_json")
		return
	}

	switch env.Type {
	case "join":
		ctl.handleJoin(cancel, c, env, data)
	case "ping":
		ctl.handlePing(c)
	case "call:initiate":
		ctl.handleInitiate(ctx, c, env, data)
	case "call:accept":
		ctl.handleAccept(c, env, data)
	case "call:reject":
		ctl.handleReject(c, env, data)
	case "call:offer", "call:answer", "call:ice-candidate":
		ctl.handleRelay(c, env, data)
	case "call:end":
		ctl.handleEnd(c, env, data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		ctl.sendError(c, env, "", domain.CodeBadPayload, "unknown_type")
	}
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

type errorReply struct {
	Type      string           `json:"type"`
	Event     string           `json:"event,omitempty"`
	Code      string           `json:"code"`
	Error     string           `json:"error"`
	BookingID domain.BookingID `json:"bookingId,omitempty"`
	Ref       json.RawMessage  `json:"ref,omitempty"`
}

type ackReply struct {
	Type      string            `json:"type"`
	Event     string            `json:"event"`
	BookingID domain.BookingID  `json:"bookingId,omitempty"`
	CallID    domain.CallID     `json:"callId,omitempty"`
	Status    domain.CallStatus `json:"status,omitempty"`
	Ref       json.RawMessage   `json:"ref,omitempty"`
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, env envelope, bookingID domain.BookingID, code, msg string) {
	metrics.RecordSignalError(env.Type, code)
	ctl.sendJSON(c, errorReply{
		Type:      "error",
		Event:     env.Type,
		Code:      code,
		Error:     msg,
		BookingID: bookingID,
		Ref:       env.Ref,
	})
}

// sendFailure maps a domain error to its wire code.
func (ctl *SignalWSController) sendFailure(c *WsSignalConn, env envelope, bookingID domain.BookingID, err error) {
	code := domain.CodeOf(err)
	log.Info().Err(err).Str("module", "signal").Str("event", env.Type).Str("code", code).
		Str("booking_id", string(bookingID)).Str("identity", string(c.identity)).Msg("signal rejected")
	ctl.sendError(c, env, bookingID, code, err.Error())
}

func (ctl *SignalWSController) sendAck(c *WsSignalConn, env envelope, sess domain.CallSession) {
	ctl.sendJSON(c, ackReply{
		Type:      "ack",
		Event:     env.Type,
		BookingID: sess.BookingID,
		CallID:    sess.ID,
		Status:    sess.Status,
		Ref:       env.Ref,
	})
}
