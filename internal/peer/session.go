package peer

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/pion/webrtc/v3"

	"github.com/immxrtalbeast/skillsync/lib/logger/sl"
)

// ErrDescriptionApplied is returned when a remote description is applied to
// a session that already has one.
var ErrDescriptionApplied = errors.New("remote description already applied")

// CandidateTransport is the slice of the peer connection the session needs.
type CandidateTransport interface {
	SetRemoteDescription(desc webrtc.SessionDescription) error
	AddICECandidate(candidate webrtc.ICECandidateInit) error
}

// Session buffers remote ICE candidates until a remote session description
// has been applied. The transport forbids adding candidates before the
// description, and the relay gives no ordering guarantee between the two, so
// candidates that arrive early are queued and flushed in arrival order once
// the description lands. One Session serves one call attempt; on teardown
// it is discarded, never reset.
type Session struct {
	log       *slog.Logger
	transport CandidateTransport

	mu        sync.Mutex
	hasRemote bool
	pending   []webrtc.ICECandidateInit
}

func NewSession(transport CandidateTransport, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{log: log, transport: transport}
}

// AddCandidate queues the candidate while no remote description is applied,
// and hands it straight to the transport afterwards.
func (s *Session) AddCandidate(candidate webrtc.ICECandidateInit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasRemote {
		s.pending = append(s.pending, candidate)
		return nil
	}
	return s.transport.AddICECandidate(candidate)
}

// ApplyRemoteDescription applies the remote description and flushes every
// queued candidate in arrival order. A candidate the transport rejects is
// logged and skipped; it must not block the rest of the queue. The
// transition happens at most once per session.
func (s *Session) ApplyRemoteDescription(desc webrtc.SessionDescription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasRemote {
		return ErrDescriptionApplied
	}
	if err := s.transport.SetRemoteDescription(desc); err != nil {
		return err
	}
	s.hasRemote = true

	for _, candidate := range s.pending {
		if err := s.transport.AddICECandidate(candidate); err != nil {
			s.log.Warn("queued ice candidate rejected", sl.Err(err))
		}
	}
	s.pending = nil

	return nil
}

// HasRemoteDescription reports whether the session reached the ready state.
func (s *Session) HasRemoteDescription() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasRemote
}

// PendingCandidates reports how many candidates are waiting for the remote
// description.
func (s *Session) PendingCandidates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
