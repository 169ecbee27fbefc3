package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/reefwatch/reefwatch_backend/internal/metrics"
	"github.com/reefwatch/reefwatch_backend/internal/models"
)

// Client represents a WebSocket client connection
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	tankID string // optional: only receive messages for this tank
}

// envelope pairs a serialized message with the tank it concerns, so the
// hub can route to clients that subscribed to a single tank.
type envelope struct {
	tankID string
	data   []byte
}

// Hub maintains active WebSocket connections and broadcasts messages
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
}

// Message represents a WebSocket message structure
type Message struct {
	Type      string      `json:"type"`
	TankID    string      `json:"tank_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin in development
		// In production, implement proper origin checking
		return true
	},
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the WebSocket hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			metrics.SetWSClients(len(h.clients))
			log.Printf("Client connected. Total clients: %d", len(h.clients))

			welcome := Message{
				Type:      "connected",
				Timestamp: time.Now(),
				Data:      map[string]string{"status": "connected"},
			}
			if data, err := json.Marshal(welcome); err == nil {
				select {
				case client.send <- data:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.SetWSClients(len(h.clients))
				log.Printf("Client disconnected. Total clients: %d", len(h.clients))
			}

		case env := <-h.broadcast:
			for client := range h.clients {
				if client.tankID != "" && client.tankID != env.tankID {
					continue
				}
				select {
				case client.send <- env.data:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			metrics.SetWSClients(len(h.clients))
		}
	}
}

// BroadcastReading broadcasts a newly ingested reading to connected clients
func (h *Hub) BroadcastReading(reading *models.Reading) {
	h.send("reading", reading.TankID, reading)
}

// BroadcastHealthReport broadcasts a freshly generated health report
func (h *Hub) BroadcastHealthReport(report *models.HealthReport) {
	h.send("health_report", report.TankID, report)
}

// BroadcastEvent broadcasts a newly recorded husbandry event
func (h *Hub) BroadcastEvent(event *models.Event) {
	h.send("event", event.TankID, event)
}

// BroadcastError broadcasts error messages to all clients
func (h *Hub) BroadcastError(errorMsg string) {
	h.send("error", "", map[string]string{"error": errorMsg})
}

func (h *Hub) send(msgType, tankID string, payload interface{}) {
	message := Message{
		Type:      msgType,
		TankID:    tankID,
		Timestamp: time.Now(),
		Data:      payload,
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling %s message: %v", msgType, err)
		return
	}

	select {
	case h.broadcast <- envelope{tankID: tankID, data: data}:
	default:
		log.Println("Broadcast channel is full, dropping message")
	}
}

// GetConnectedClientsCount returns the number of connected clients
func (h *Hub) GetConnectedClientsCount() int {
	return len(h.clients)
}

// HandleWebSocket handles WebSocket connection requests
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	// Optional tank filter: clients passing ?tank_id= only receive that
	// tank's readings, events and reports.
	tankID := r.URL.Query().Get("tank_id")

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 256),
		tankID: tankID,
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump handles reading messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		// Incoming client messages are informational only
		log.Printf("Received message from client: %s", message)
	}
}

// writePump handles writing messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to current message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
