package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/techagentng/ecodenuncia/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

type NavigationEvent struct {
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// NavigationHub is the front-end's router: services call Navigate and every
// connected browser shell receives the new route over its websocket.
type NavigationHub struct {
	logger   *logrus.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*wsClient]bool
	current NavigationEvent
}

type wsClient struct {
	hub  *NavigationHub
	conn *websocket.Conn
	send chan []byte
}

// NewNavigationHub accepts websocket connections from the given origins only.
func NewNavigationHub(logger *logrus.Logger, origins []string) *NavigationHub {
	return &NavigationHub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(origins, r.Header.Get("Origin"))
			},
		},
		clients: make(map[*wsClient]bool),
		current: NavigationEvent{Path: models.LoginPath, Timestamp: time.Now()},
	}
}

func (h *NavigationHub) Navigate(path string) {
	event := NavigationEvent{Path: path, Timestamp: time.Now()}
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.WithError(err).Error("unable to encode navigation event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = event
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
	h.logger.WithField("path", path).Debug("navigate")
}

func (h *NavigationHub) Current() NavigationEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

func (h *NavigationHub) ConnectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *NavigationHub) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &wsClient{hub: h, conn: conn, send: make(chan []byte, 16)}
	h.mu.Lock()
	h.clients[client] = true
	if data, err := json.Marshal(h.current); err == nil {
		client.send <- data
	}
	h.mu.Unlock()

	go client.writePump()
	go client.readPump()
}

func (h *NavigationHub) unregister(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// readPump only watches for the browser going away.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.WithError(err).Debug("websocket closed")
			}
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
