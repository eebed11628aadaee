package transport

import (
	"github.com/pion/webrtc/v4"
)

// ICEConfig holds the servers used for candidate gathering: the public
// STUN list plus one TURN relay whose credentials come from configuration.
// Unlike a pure P2P tool, live rooms must traverse symmetric NATs, so the
// relay is not optional in production.
type ICEConfig struct {
	STUNServers  []string
	TURNURLs     []string
	TURNUsername string
	TURNPassword string
}

// servers converts the config into pion's ICE server list. A config with
// no TURN URLs yields STUN-only gathering (sufficient for tests and LAN).
func (c ICEConfig) servers() []webrtc.ICEServer {
	var servers []webrtc.ICEServer
	if len(c.STUNServers) > 0 {
		servers = append(servers, webrtc.ICEServer{URLs: c.STUNServers})
	}
	if len(c.TURNURLs) > 0 {
		servers = append(servers, webrtc.ICEServer{
			URLs:       c.TURNURLs,
			Username:   c.TURNUsername,
			Credential: c.TURNPassword,
		})
	}
	return servers
}

// newPeerConnection creates a PeerConnection configured from ice.
func newPeerConnection(ice ICEConfig) (*webrtc.PeerConnection, error) {
	return webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: ice.servers(),
	})
}
