package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/immxrtalbeast/skillsync/internal/domain"
	"github.com/immxrtalbeast/skillsync/internal/hub"
	"github.com/immxrtalbeast/skillsync/lib/logger/sl"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

type HubController struct {
	hub      *hub.Hub
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewHubController(h *hub.Hub, log *slog.Logger) *HubController {
	if log == nil {
		log = slog.Default()
	}
	return &HubController{
		hub: h,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Serve upgrades the request to a websocket and runs the connection until
// the client goes away. One goroutine drains the client's event channel
// onto the socket; the handler itself becomes the read loop.
func (c *HubController) Serve(ctx *gin.Context) {
	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.log.Error("websocket upgrade failed", sl.Err(err))
		return
	}

	client := c.hub.OnConnect(conn)
	go c.writePump(client, conn)
	c.readLoop(client, conn)
}

func (c *HubController) readLoop(client *domain.Client, conn *websocket.Conn) {
	defer func() {
		c.hub.Disconnect(client)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var event domain.Event
		if err := conn.ReadJSON(&event); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug("read error", slog.String("client", client.ID), sl.Err(err))
			}
			return
		}

		c.hub.Dispatch(context.Background(), client, event)
	}
}

func (c *HubController) writePump(client *domain.Client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case event, ok := <-client.Events:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
