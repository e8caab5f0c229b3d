package signal

import (
	"context"

	"github.com/dkeye/callrelay/internal/domain"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handlePing(
	conn *WsSignalConn,
) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}

// handleJoin binds the connection to an identity. Joining again under another
// identity moves the connection.
func (ctl *SignalWSController) handleJoin(
	cancel context.CancelFunc,
	conn *WsSignalConn,
	env envelope,
	data []byte,
) {
	type joinPayload struct {
		Identity string `json:"identity"`
		Token    string `json:"token,omitempty"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(conn, env, "", domain.CodeBadPayload, "bad_payload")
		return
	}
	id, err := domain.ParseIdentity(p.Identity)
	if err != nil {
		ctl.sendFailure(conn, env, "", err)
		return
	}
	if ctl.Tokens != nil {
		if err := ctl.Tokens.Verify(p.Token, id); err != nil {
			ctl.sendFailure(conn, env, "", err)
			return
		}
	}

	conn.identity = id
	ctl.Orch.Join(id, conn.id, conn, cancel)
	log.Info().Str("module", "signal").Str("conn_id", string(conn.id)).Str("identity", string(id)).
		Str("device", conn.device).Msg("join")

	resp := struct {
		Type         string              `json:"type"`
		Identity     domain.Identity     `json:"identity"`
		ConnectionID domain.ConnectionID `json:"connectionId"`
		Ref          json.RawMessage     `json:"ref,omitempty"`
	}{
		Type:         "joined",
		Identity:     id,
		ConnectionID: conn.id,
		Ref:          env.Ref,
	}
	ctl.sendJSON(conn, resp)
}

// requireJoined reports whether the connection has an identity, answering UNAUTHORIZED otherwise.
func (ctl *SignalWSController) requireJoined(conn *WsSignalConn, env envelope) bool {
	if conn.identity != "" {
		return true
	}
	ctl.sendError(conn, env, "", domain.CodeUnauthorized, "join first")
	return false
}
