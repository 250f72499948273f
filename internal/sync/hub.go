package sync

import (
	"bufio"
	"net"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"resephub/pkg/logging"
)

// Hub fans events out to TCP subscribers (all events) and websocket
// subscribers (catalog events plus the favorites of their own visitor).
type Hub struct {
	mu        sync.Mutex
	clients   map[net.Conn]struct{}
	wsClients map[*websocket.Conn]string // conn -> visitor id
}

type Stats struct {
	TCPClients int `json:"tcp_clients"`
	WSClients  int `json:"ws_clients"`
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[net.Conn]struct{}),
		wsClients: make(map[*websocket.Conn]string),
	}
}

func (h *Hub) Add(conn net.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Remove(conn net.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

func (h *Hub) AddWS(ws *websocket.Conn, visitorID string) {
	h.mu.Lock()
	h.wsClients[ws] = visitorID
	h.mu.Unlock()
}

func (h *Hub) RemoveWS(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.wsClients, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

// BroadcastJSON sends v to every subscriber.
func (h *Hub) BroadcastJSON(v any) {
	h.send(v, func(string) bool { return true })
}

// SendToVisitor sends v to TCP subscribers and to the websockets of one
// visitor.
func (h *Hub) SendToVisitor(visitorID string, v any) {
	h.send(v, func(id string) bool { return id == visitorID })
}

func (h *Hub) send(v any, wsMatch func(visitorID string) bool) {
	b, err := json.Marshal(v)
	if err != nil {
		logging.Warn().Err(err).Str("component", "sync").Msg("marshal event")
		return
	}
	b = append(b, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		_ = c.SetWriteDeadline(time.Now().Add(2 * time.Second))
		w := bufio.NewWriter(c)
		if _, err := w.Write(b); err != nil {
			_ = c.Close()
			delete(h.clients, c)
			continue
		}
		if err := w.Flush(); err != nil {
			_ = c.Close()
			delete(h.clients, c)
		}
	}

	for ws, id := range h.wsClients {
		if !wsMatch(id) {
			continue
		}
		_ = ws.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = ws.Close()
			delete(h.wsClients, ws)
		}
	}
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		TCPClients: len(h.clients),
		WSClients:  len(h.wsClients),
	}
}

func (h *Hub) Welcome(conn net.Conn) {
	b, _ := json.Marshal(map[string]any{
		"type":    "welcome",
		"message": "connected",
		"clients": h.Stats().TCPClients,
	})
	_, _ = conn.Write(append(b, '\n'))
}
