// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the game socket.
// These provide more specific reasons for closure than standard codes.
const (
	SlowConsumerError       websocket.StatusCode = 3000 // Client fell behind and its send buffer filled up.
	ConnectionReplacedError websocket.StatusCode = 3001 // The same player reconnected on a newer socket.
	ServerShutdownError     websocket.StatusCode = 3002 // Server is going down.
)
