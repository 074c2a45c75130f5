package peer

import (
	"github.com/pion/webrtc/v3"
)

// NewPeerConnection builds a peer connection configured with the given STUN
// servers.
func NewPeerConnection(stunServers []string) (*webrtc.PeerConnection, error) {
	return webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: stunServers}},
	})
}

// PionTransport adapts *webrtc.PeerConnection to CandidateTransport.
type PionTransport struct {
	pc *webrtc.PeerConnection
}

func NewPionTransport(pc *webrtc.PeerConnection) *PionTransport {
	return &PionTransport{pc: pc}
}

func (t *PionTransport) SetRemoteDescription(desc webrtc.SessionDescription) error {
	return t.pc.SetRemoteDescription(desc)
}

func (t *PionTransport) AddICECandidate(candidate webrtc.ICECandidateInit) error {
	return t.pc.AddICECandidate(candidate)
}
