package dev

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// ReloadMessageType represents the type of reload message.
type ReloadMessageType string

const (
	ReloadTypeFull  ReloadMessageType = "reload"
	ReloadTypeCSS   ReloadMessageType = "css"
	ReloadTypeError ReloadMessageType = "error"
	ReloadTypeClear ReloadMessageType = "clear"
)

// ReloadMessage is sent to browsers via WebSocket.
type ReloadMessage struct {
	Type  ReloadMessageType `json:"type"`
	Error string            `json:"error,omitempty"`
	File  string            `json:"file,omitempty"`
}

// ReloadHub manages WebSocket connections for hot reload. The last build
// error is replayed to clients that connect while it is unresolved.
type ReloadHub struct {
	clients  map[*websocket.Conn]*sync.Mutex
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	lastErr  string
}

// NewReloadHub creates a new reload hub. Only same-origin pages may connect.
func NewReloadHub() *ReloadHub {
	return &ReloadHub{
		clients: make(map[*websocket.Conn]*sync.Mutex),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     sameOrigin,
		},
	}
}

// sameOrigin accepts requests without an Origin header and requests whose
// Origin host matches the Host header.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// HandleWebSocket upgrades the connection and holds it until the browser
// disconnects.
func (h *ReloadHub) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	writeMu := &sync.Mutex{}
	h.mu.Lock()
	h.clients[conn] = writeMu
	lastErr := h.lastErr
	h.mu.Unlock()

	if lastErr != "" {
		h.send(conn, writeMu, ReloadMessage{Type: ReloadTypeError, Error: lastErr})
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(conn)
}

// NotifyReload sends a full page reload message to all clients.
func (h *ReloadHub) NotifyReload() {
	h.broadcast(ReloadMessage{Type: ReloadTypeFull})
}

// NotifyCSS tells all clients that a stylesheet changed.
func (h *ReloadHub) NotifyCSS(file string) {
	h.broadcast(ReloadMessage{Type: ReloadTypeCSS, File: file})
}

// NotifyError sends a build error to all clients.
func (h *ReloadHub) NotifyError(errMsg string) {
	h.mu.Lock()
	h.lastErr = errMsg
	h.mu.Unlock()
	h.broadcast(ReloadMessage{Type: ReloadTypeError, Error: errMsg})
}

// ClearError clears the error overlay on all clients.
func (h *ReloadHub) ClearError() {
	h.mu.Lock()
	hadErr := h.lastErr != ""
	h.lastErr = ""
	h.mu.Unlock()
	if hadErr {
		h.broadcast(ReloadMessage{Type: ReloadTypeClear})
	}
}

func (h *ReloadHub) broadcast(msg ReloadMessage) {
	h.mu.RLock()
	clients := make(map[*websocket.Conn]*sync.Mutex, len(h.clients))
	for conn, writeMu := range h.clients {
		clients[conn] = writeMu
	}
	h.mu.RUnlock()

	for conn, writeMu := range clients {
		h.send(conn, writeMu, msg)
	}
}

func (h *ReloadHub) send(conn *websocket.Conn, writeMu *sync.Mutex, msg ReloadMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, data)
	writeMu.Unlock()
	if err != nil {
		h.remove(conn)
	}
}

func (h *ReloadHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// ClientCount returns the number of connected clients.
func (h *ReloadHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close closes all client connections.
func (h *ReloadHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
