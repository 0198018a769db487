package realtime

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// Event mirrors a row-change notification pushed to connected clients.
// The client applies these to its local feed without re-querying.
type Event struct {
	Type    string      `json:"type"` // INSERT, UPDATE, DELETE
	Table   string      `json:"table"`
	Payload interface{} `json:"payload"`
}

type Hub struct {
	mu    sync.RWMutex
	conns map[uint]map[*websocket.Conn]*sync.Mutex
}

func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*websocket.Conn]*sync.Mutex)}
}

func (h *Hub) Register(userID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*websocket.Conn]*sync.Mutex)
	}
	h.conns[userID][conn] = &sync.Mutex{}
}

func (h *Hub) Unregister(userID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.conns[userID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.conns, userID)
		}
	}
}

// Push is best-effort: a failed write drops the connection, it is the
// client's job to reconnect. Writes to a connection are serialized
// through its mutex; the websocket library allows at most one
// concurrent writer per connection.
func (h *Hub) Push(userID uint, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	type target struct {
		conn *websocket.Conn
		wmu  *sync.Mutex
	}

	h.mu.RLock()
	targets := make([]target, 0, len(h.conns[userID]))
	for conn, wmu := range h.conns[userID] {
		targets = append(targets, target{conn: conn, wmu: wmu})
	}
	h.mu.RUnlock()

	for _, tg := range targets {
		tg.wmu.Lock()
		err := tg.conn.WriteMessage(websocket.TextMessage, data)
		tg.wmu.Unlock()
		if err != nil {
			h.Unregister(userID, tg.conn)
			tg.conn.Close()
		}
	}
}
