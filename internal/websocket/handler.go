package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs registers the connection as a watcher of executionID and blocks until it closes.
func ServeWs(hub *Hub, c *websocket.Conn, executionID string) {
	client := &Client{Hub: hub, Conn: c, ExecutionID: executionID, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	client.readPump()
}
