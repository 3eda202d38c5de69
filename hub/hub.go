package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

// Event types
const (
	EventReservationCreate = "reservation_create"
	EventReservationUpdate = "reservation_update"
	EventReservationDelete = "reservation_delete"
	EventSettingsUpdate    = "settings_update"
	EventOccupancyUpdate   = "occupancy_update"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 32
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type client struct {
	conn    *websocket.Conn
	subject string
	send    chan []byte
}

// Hub fans messages out to connected admin dashboards.
// Each client has its own writer so a slow dashboard never blocks Broadcast.
type Hub struct {
	clients   map[*websocket.Conn]*client
	mutex     sync.Mutex
	writeWait time.Duration
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]*client), writeWait: writeWait}
}

// RegisterClient menambahkan connection ke hub
func (h *Hub) RegisterClient(conn *websocket.Conn, subject string) {
	c := &client{conn: conn, subject: subject, send: make(chan []byte, sendBuffer)}

	h.mutex.Lock()
	h.clients[conn] = c
	h.mutex.Unlock()

	go h.writePump(c)
}

// UnregisterClient melepaskan connection
func (h *Hub) UnregisterClient(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.removeLocked(conn)
}

// removeLocked drops conn from the hub. The writer closes the connection once send is closed.
func (h *Hub) removeLocked(conn *websocket.Conn) {
	c, ok := h.clients[conn]
	if !ok {
		return
	}
	delete(h.clients, conn)
	close(c.send)
}

// ClientCount returns the number of registered connections.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Broadcast queues msg for every client without waiting on the network.
// Clients whose queue is full are dropped.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling message: %v", err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	utils.InfoLogger.Debugf("Broadcasting %s to %d clients", msg.Event, len(h.clients))

	for conn, c := range h.clients {
		select {
		case c.send <- data:
		default:
			utils.ErrorLogger.Printf("Dropping slow live client %s on %s", c.subject, msg.Event)
			h.removeLocked(conn)
		}
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()

	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Printf("Error sending to %s: %v", c.subject, err)
			h.UnregisterClient(c.conn)
			return
		}
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
