package models

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocketManager handles WebSocket connections and broadcasts
type WebSocketManager struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mu         sync.Mutex
}

// NewWebSocketManager creates a new WebSocket manager
func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}
}

// Start begins the WebSocket manager
func (wsm *WebSocketManager) Start() {
	go func() {
		for {
			select {
			case <-wsm.done:
				wsm.mu.Lock()
				for client := range wsm.clients {
					client.Close()
					delete(wsm.clients, client)
				}
				wsm.mu.Unlock()
				return
			case client := <-wsm.register:
				wsm.mu.Lock()
				wsm.clients[client] = true
				count := len(wsm.clients)
				wsm.mu.Unlock()
				slog.Info("websocket client connected", "clients", count)
			case client := <-wsm.unregister:
				wsm.mu.Lock()
				if _, ok := wsm.clients[client]; ok {
					delete(wsm.clients, client)
					client.Close()
				}
				count := len(wsm.clients)
				wsm.mu.Unlock()
				slog.Info("websocket client disconnected", "clients", count)
			case message := <-wsm.broadcast:
				wsm.mu.Lock()
				for client := range wsm.clients {
					if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
						slog.Warn("websocket send failed", "error", err)
						client.Close()
						delete(wsm.clients, client)
					}
				}
				wsm.mu.Unlock()
			}
		}
	}()
}

// Stop closes all clients and ends the manager loop
func (wsm *WebSocketManager) Stop() {
	close(wsm.done)
}

// ClientCount returns the number of connected clients
func (wsm *WebSocketManager) ClientCount() int {
	wsm.mu.Lock()
	defer wsm.mu.Unlock()
	return len(wsm.clients)
}

// BroadcastJobUpdate sends a job update to all connected clients
func (wsm *WebSocketManager) BroadcastJobUpdate(job *PDFJob) {
	update := map[string]interface{}{
		"type":      "job_update",
		"job_id":    job.ID,
		"status":    job.Status,
		"timestamp": job.UpdatedAt,
	}

	switch job.Status {
	case StatusFailed:
		if job.ErrorMessage != "" {
			update["error"] = job.ErrorMessage
		}
	case StatusCompleted:
		update["transactions"] = len(job.TransactionIDs)
		update["cards"] = job.Cards
	}

	jsonData, err := json.Marshal(update)
	if err != nil {
		slog.Error("failed to marshal job update", "job_id", job.ID, "error", err)
		return
	}

	select {
	case wsm.broadcast <- jsonData:
	case <-wsm.done:
	}
}

// RegisterClient registers a new WebSocket client
func (wsm *WebSocketManager) RegisterClient(conn *websocket.Conn) {
	select {
	case wsm.register <- conn:
	case <-wsm.done:
		conn.Close()
	}
}

// UnregisterClient unregisters a WebSocket client
func (wsm *WebSocketManager) UnregisterClient(conn *websocket.Conn) {
	select {
	case wsm.unregister <- conn:
	case <-wsm.done:
	}
}
