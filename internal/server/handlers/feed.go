// internal/server/handlers/feed.go

package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"fashionpulse/internal/adapter/events"
	"fashionpulse/pkg/logger"
)

// WebSocketConfig contains configuration for WebSocket connections
type WebSocketConfig struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer
	PongWait time.Duration

	// Send pings to peer with this period
	PingPeriod time.Duration

	// Maximum message size allowed from peer
	MaxMessageSize int64

	// Events buffered per client before new ones are dropped
	SendBuffer int
}

// DefaultWebSocketConfig returns the default WebSocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 4096,
		SendBuffer:     256,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is enforced by the router; the feed is read-only
		return true
	},
}

// feedClient is one connected live-feed subscriber
type feedClient struct {
	conn        *websocket.Conn
	config      WebSocketConfig
	log         *logger.Logger
	unsubscribe func()

	mu     sync.Mutex
	send   chan []byte
	closed bool
	once   sync.Once
}

// AnalyticsFeed streams snapshot and cycle events to WebSocket clients
func AnalyticsFeed(bus events.Bus, topic string) http.HandlerFunc {
	log := logger.Get().With("component", "analytics_feed")

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warnw("Failed to upgrade to WebSocket", "error", err)
			return
		}

		config := DefaultWebSocketConfig()
		client := &feedClient{
			conn:   conn,
			config: config,
			log:    log,
			send:   make(chan []byte, config.SendBuffer),
		}

		welcome, _ := json.Marshal(map[string]interface{}{
			"type":  "welcome",
			"topic": topic,
			"time":  time.Now().UTC(),
		})
		client.enqueue(welcome)

		unsubscribe, err := bus.Subscribe(events.AllSubjects(topic), client.enqueue)
		if err != nil {
			log.Errorw("Failed to subscribe to analytics events", "error", err)
			client.closeConnection()
			return
		}
		client.unsubscribe = unsubscribe

		go client.writePump()
		go client.readPump()

		log.Debugw("Live feed client connected", "remote", r.RemoteAddr)
	}
}

// enqueue hands an event to the writer, dropping it if the client is slow
func (c *feedClient) enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		c.log.Warn("Live feed client too slow, dropping event")
	}
}

// readPump drains the connection so control frames are processed
func (c *feedClient) readPump() {
	defer c.closeConnection()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warnw("WebSocket error", "error", err)
			}
			return
		}
	}
}

// writePump pumps events to the WebSocket connection
func (c *feedClient) writePump() {
	ticker := time.NewTicker(c.config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// closeConnection unsubscribes and closes the connection once
func (c *feedClient) closeConnection() {
	c.once.Do(func() {
		if c.unsubscribe != nil {
			c.unsubscribe()
		}

		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()

		c.conn.Close()
		c.log.Debug("Live feed client disconnected")
	})
}
