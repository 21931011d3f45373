// internal/handlers/hub.go
package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
)

const writeTimeout = 5 * time.Second

// client is one live socket. Frames are queued on send and written by a
// single goroutine so session callbacks never block on the network.
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once

	// guarded by Hub.mu
	playerID string
	gameID   string
}

func newClient(conn *websocket.Conn, playerID string, buffer int) *client {
	if buffer <= 0 {
		buffer = 64
	}
	return &client{
		conn:     conn,
		send:     make(chan []byte, buffer),
		done:     make(chan struct{}),
		playerID: playerID,
	}
}

// close stops the write loop and closes the socket without waiting for the
// peer's close frame.
func (c *client) close(code websocket.StatusCode, reason string) {
	c.once.Do(func() {
		close(c.done)
		go c.conn.Close(code, reason)
	})
}

func (c *client) writeLoop(logger *logrus.Logger) {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := c.conn.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Debugf("write failed, closing socket: %v", err)
				c.close(websocket.StatusInternalError, "write failed")
				return
			}
		}
	}
}

// Hub tracks live sockets by player id and the game each one is bound to.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	logger  *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		logger:  logger,
	}
}

// register adds c under its current player id.
func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.claim(c, c.playerID)
}

// unregister drops c. It reports false when c was already replaced by a newer
// socket for the same player, in which case the caller must not treat the
// close as the player leaving.
func (h *Hub) unregister(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.playerID] != c {
		return false
	}
	delete(h.clients, c.playerID)
	return true
}

// rebind moves c to playerID, closing any older socket that held it.
func (h *Hub) rebind(c *client, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.playerID] == c {
		delete(h.clients, c.playerID)
	}
	h.claim(c, playerID)
}

// Assumes lock is held.
func (h *Hub) claim(c *client, playerID string) {
	if old, ok := h.clients[playerID]; ok && old != c {
		h.logger.WithField("player", playerID).Info("replacing older connection")
		old.close(ConnectionReplacedError, "connection replaced")
	}
	c.playerID = playerID
	h.clients[playerID] = c
}

func (h *Hub) bindGame(c *client, gameID string) {
	h.mu.Lock()
	c.gameID = gameID
	h.mu.Unlock()
}

func (h *Hub) identity(c *client) (playerID, gameID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return c.playerID, c.gameID
}

// unbindPlayer clears the binding of playerID if it still points at gameID.
func (h *Hub) unbindPlayer(playerID, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[playerID]; ok && c.gameID == gameID {
		c.gameID = ""
	}
}

// clearGame unbinds every socket from gameID.
func (h *Hub) clearGame(gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		if c.gameID == gameID {
			c.gameID = ""
		}
	}
}

// SendToPlayer queues data for one player.
func (h *Hub) SendToPlayer(playerID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.clients[playerID]; ok {
		h.enqueue(c, data)
	}
}

// SendToGame queues data for every socket bound to gameID.
func (h *Hub) SendToGame(gameID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.gameID == gameID {
			h.enqueue(c, data)
		}
	}
}

// SendToAll queues data for every socket.
func (h *Hub) SendToAll(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		h.enqueue(c, data)
	}
}

// Count returns the number of live sockets.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll closes every socket, used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.close(ServerShutdownError, "server shutting down")
	}
}

// A client that cannot keep up is dropped rather than allowed to stall the
// table. It can reconnect with its token and receive a fresh snapshot.
// Assumes lock is held (read is enough).
func (h *Hub) enqueue(c *client, data []byte) {
	select {
	case c.send <- data:
	default:
		h.logger.WithField("player", c.playerID).Warn("send buffer full, dropping connection")
		c.close(SlowConsumerError, "slow consumer")
	}
}
