package controllers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ReynaldiRP/test-backend-dmc/models"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHub tracks connected websocket clients and pushes newly accepted
// sensor readings to all of them.
type WSHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	log     *logrus.Entry
}

func NewWSHub() *WSHub {
	return &WSHub{
		clients: make(map[*websocket.Conn]bool),
		log:     logrus.WithField("component", "ws-hub"),
	}
}

// Handle upgrades the request and keeps the connection registered until
// the client goes away.
func (h *WSHub) Handle(c *gin.Context) {
	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// BroadcastReading sends a reading to every connected client.
func (h *WSHub) BroadcastReading(reading models.SensorReading) {
	msg, err := json.Marshal(reading)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Debugf("dropping websocket client: %v", err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}
