// WebSocket endpoint streaming progress updates to connected clients.

package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The server only runs locally, so cross-origin pages are fine.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const pingInterval = 30 * time.Second

// handleProgressSocket upgrades the connection and forwards every
// progress update from the hub until the client disconnects.
func (s *Server) handleProgressSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade websocket connection: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := s.app.Hub().Subscribe()
	defer cancel()

	// Drain client frames so control messages are processed; any read
	// error means the client went away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case update := <-updates:
			if err := conn.WriteJSON(update); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
