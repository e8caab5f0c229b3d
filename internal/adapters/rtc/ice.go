// Package rtc holds the WebRTC settings handed to clients. Media flows peer to
// peer; the server only tells both sides which STUN/TURN servers to use.
package rtc

import (
	"fmt"

	"github.com/dkeye/callrelay/internal/config"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

func DefaultICEServers() []webrtc.ICEServer {
	return []webrtc.ICEServer{
		{
			URLs: []string{"stun:stun.l.google.com:19302"},
		},
	}
}

// ICEServersFromConfig converts configured servers, falling back to the public STUN server.
func ICEServersFromConfig(list []config.ICEServer) []webrtc.ICEServer {
	if len(list) == 0 {
		return DefaultICEServers()
	}
	out := make([]webrtc.ICEServer, 0, len(list))
	for _, s := range list {
		srv := webrtc.ICEServer{URLs: s.URLs, Username: s.Username}
		if s.Credential != "" {
			srv.Credential = s.Credential
			srv.CredentialType = webrtc.ICECredentialTypePassword
		}
		out = append(out, srv)
	}
	return out
}

// Validate builds a throwaway peer connection so malformed STUN/TURN urls
// fail at startup instead of on a client.
func Validate(servers []webrtc.ICEServer) error {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: servers})
	if err != nil {
		return fmt.Errorf("invalid ice servers: %w", err)
	}
	if err := pc.Close(); err != nil {
		log.Warn().Err(err).Str("module", "rtc").Msg("close probe peer connection")
	}
	return nil
}
