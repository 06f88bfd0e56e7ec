package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/berfenger/solardash/internal/core/domain"

	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	WS_PONG_WAIT   = 60 * time.Second
	WS_PING_PERIOD = (WS_PONG_WAIT * 9) / 10
	WS_WRITE_WAIT  = 10 * time.Second
	WS_SEND_BUFFER = 16

	WS_MSG_TYPE_SCENE = "scene"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsMessage struct {
	Type  string            `json:"type"`
	Scene *domain.SceneView `json:"scene,omitempty"`
}

// wsCommand is sent by the page when the user presses an onboarding button.
type wsCommand struct {
	Action string `json:"action"`
}

type wsClient struct {
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func (c *wsClient) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// SceneHub pushes every scene update to the connected browsers.
type SceneHub struct {
	eventStream  *eventstream.EventStream
	subscription *eventstream.Subscription
	onCommand    func(action string)
	logger       *zap.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	last    []byte
	closed  bool
}

func NewSceneHub(eventStream *eventstream.EventStream, onCommand func(action string), logger *zap.Logger) *SceneHub {
	hub := &SceneHub{
		eventStream: eventStream,
		onCommand:   onCommand,
		logger:      logger.With(zap.String("component", "ws")),
		clients:     make(map[*wsClient]struct{}),
	}
	hub.subscription = eventStream.Subscribe(func(evt interface{}) {
		if e, ok := evt.(domain.SceneUpdatedEvent); ok {
			hub.broadcast(e.View)
		}
	})
	return hub
}

func (h *SceneHub) broadcast(view domain.SceneView) {
	data, err := json.Marshal(wsMessage{Type: WS_MSG_TYPE_SCENE, Scene: &view})
	if err != nil {
		h.logger.Error("ws: could not encode scene", zap.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = data
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			// slow reader, drop it
			h.logger.Debug("ws: dropping slow client")
			delete(h.clients, client)
			client.close()
		}
	}
}

func (h *SceneHub) register(client *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[client] = struct{}{}
	if h.last != nil {
		client.send <- h.last
	}
	return true
}

func (h *SceneHub) unregister(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.close()
	}
}

// Clients returns the number of connected browsers.
func (h *SceneHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close stops listening for scene updates and disconnects every client.
func (h *SceneHub) Close() {
	h.eventStream.Unsubscribe(h.subscription)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for client := range h.clients {
		delete(h.clients, client)
		client.close()
	}
}

func (h *SceneHub) ServeWS(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("ws: upgrade failed", zap.Error(err))
		return nil
	}
	client := &wsClient{
		conn: conn,
		send: make(chan []byte, WS_SEND_BUFFER),
	}
	if !h.register(client) {
		conn.Close()
		return nil
	}
	h.logger.Debug("ws: client connected", zap.String("remote", conn.RemoteAddr().String()))

	go h.writePump(client)
	h.readPump(client)
	return nil
}

func (h *SceneHub) writePump(client *wsClient) {
	ticker := time.NewTicker(WS_PING_PERIOD)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()
	for {
		select {
		case data, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(WS_WRITE_WAIT))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Debug("ws: write error", zap.Error(err))
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(WS_WRITE_WAIT))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.logger.Debug("ws: ping error", zap.Error(err))
				return
			}
		}
	}
}

func (h *SceneHub) readPump(client *wsClient) {
	defer h.unregister(client)
	client.conn.SetReadDeadline(time.Now().Add(WS_PONG_WAIT))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(WS_PONG_WAIT))
		return nil
	})
	for {
		var cmd wsCommand
		if err := client.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("ws: read error", zap.Error(err))
			}
			return
		}
		if h.onCommand != nil && cmd.Action != "" {
			h.onCommand(cmd.Action)
		}
	}
}
