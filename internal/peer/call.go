package peer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v3"

	"github.com/immxrtalbeast/skillsync/internal/domain"
	"github.com/immxrtalbeast/skillsync/lib/logger/sl"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Call drives one call attempt against the hub: one websocket, one peer
// connection, one Session — constructed once, discarded on teardown.
type Call struct {
	log     *slog.Logger
	room    string
	conn    *websocket.Conn
	pc      *webrtc.PeerConnection
	session *Session

	outgoing  chan domain.Event
	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to the hub's websocket endpoint and joins the room. The
// caller side then invokes Offer; the callee side just waits, answering is
// automatic.
func Dial(serverURL, roomID string, stunServers []string, log *slog.Logger) (*Call, error) {
	if log == nil {
		log = slog.Default()
	}

	conn, _, err := websocket.DefaultDialer.Dial(serverURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial signaling server: %w", err)
	}

	pc, err := NewPeerConnection(stunServers)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	c := &Call{
		log:      log,
		room:     roomID,
		conn:     conn,
		pc:       pc,
		session:  NewSession(NewPionTransport(pc), log),
		outgoing: make(chan domain.Event, 16),
		done:     make(chan struct{}),
	}

	pc.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate == nil {
			return
		}
		c.send(domain.EventICECandidate, candidate.ToJSON())
	})

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.writePump()
	go c.readLoop()

	c.send(domain.EventJoinRoom, nil)

	return c, nil
}

// Offer starts negotiation from this side. A data channel anchors the
// exchange even before any media track is added.
func (c *Call) Offer() error {
	if _, err := c.pc.CreateDataChannel("control", nil); err != nil {
		return fmt.Errorf("create data channel: %w", err)
	}

	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	if err := c.pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}

	c.send(domain.EventOffer, c.pc.LocalDescription())
	return nil
}

// Session exposes the buffering state machine, mainly for inspection.
func (c *Call) Session() *Session { return c.session }

// Done is closed when the call's read loop has terminated.
func (c *Call) Done() <-chan struct{} { return c.done }

// Close tears the call down. Idempotent.
func (c *Call) Close() {
	c.closeOnce.Do(func() {
		c.pc.Close()
		c.conn.Close()
	})
}

func (c *Call) readLoop() {
	defer close(c.done)
	defer c.Close()

	for {
		var event domain.Event
		if err := c.conn.ReadJSON(&event); err != nil {
			return
		}

		switch event.Type {
		case domain.EventReceiveOffer:
			c.handleRemoteOffer(event.Payload)
		case domain.EventReceiveAnswer:
			c.handleRemoteAnswer(event.Payload)
		case domain.EventReceiveCandidate:
			c.handleRemoteCandidate(event.Payload)
		}
	}
}

func (c *Call) handleRemoteOffer(payload json.RawMessage) {
	var desc webrtc.SessionDescription
	if err := json.Unmarshal(payload, &desc); err != nil {
		c.log.Warn("malformed remote offer", sl.Err(err))
		return
	}

	if err := c.session.ApplyRemoteDescription(desc); err != nil {
		c.log.Error("apply remote offer", sl.Err(err))
		return
	}

	answer, err := c.pc.CreateAnswer(nil)
	if err != nil {
		c.log.Error("create answer", sl.Err(err))
		return
	}
	if err := c.pc.SetLocalDescription(answer); err != nil {
		c.log.Error("set local description", sl.Err(err))
		return
	}

	c.send(domain.EventAnswer, c.pc.LocalDescription())
}

func (c *Call) handleRemoteAnswer(payload json.RawMessage) {
	var desc webrtc.SessionDescription
	if err := json.Unmarshal(payload, &desc); err != nil {
		c.log.Warn("malformed remote answer", sl.Err(err))
		return
	}
	if err := c.session.ApplyRemoteDescription(desc); err != nil {
		c.log.Error("apply remote answer", sl.Err(err))
	}
}

func (c *Call) handleRemoteCandidate(payload json.RawMessage) {
	var candidate webrtc.ICECandidateInit
	if err := json.Unmarshal(payload, &candidate); err != nil {
		c.log.Warn("malformed remote candidate", sl.Err(err))
		return
	}
	if err := c.session.AddCandidate(candidate); err != nil {
		c.log.Warn("add remote candidate", sl.Err(err))
	}
}

func (c *Call) send(eventType string, payload any) {
	event, err := domain.NewEvent(eventType, c.room, payload)
	if err != nil {
		c.log.Error("marshal outbound event", slog.String("type", eventType), sl.Err(err))
		return
	}

	select {
	case c.outgoing <- event:
	default:
		c.log.Warn("outgoing queue full, dropping event", slog.String("type", eventType))
	}
}

func (c *Call) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case event := <-c.outgoing:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
