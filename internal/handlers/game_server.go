// internal/handlers/game_server.go
package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/bstee615/go-sushi/internal/game"
)

// GameServer ties the game registry to the socket hub.
type GameServer struct {
	Store  *game.GameStore
	Hub    *Hub
	Logger *logrus.Logger

	// AllowedOrigins is handed to websocket.Accept. Empty means same-origin only.
	AllowedOrigins []string
	// SendBuffer is the per-socket outbound queue length.
	SendBuffer int
}

// NewGameServer creates a registry with rules and routes every session event
// through the hub.
func NewGameServer(rules game.Rules, logger *logrus.Logger) *GameServer {
	gs := &GameServer{
		Store:      game.NewGameStore(rules),
		Hub:        NewHub(logger),
		Logger:     logger,
		SendBuffer: 64,
	}

	gs.Store.BroadcastFn = func(gameID string, ev game.GameEvent) {
		data, err := EncodeEvent(ev)
		if err != nil {
			logger.Errorf("Failed to marshal broadcast event (%s) for game %s: %v", ev.Type, gameID, err)
			return
		}
		gs.Hub.SendToGame(gameID, data)
	}
	gs.Store.BroadcastToPlayerFn = func(gameID, playerID string, ev game.GameEvent) {
		data, err := EncodeEvent(ev)
		if err != nil {
			logger.Errorf("Failed to marshal private event (%s) for player %s in game %s: %v", ev.Type, playerID, gameID, err)
			return
		}
		gs.Hub.SendToPlayer(playerID, data)
	}
	gs.Store.OnGameEnd = func(result game.GameResult) {
		logger.WithFields(logrus.Fields{
			"game":   result.GameID,
			"winner": result.Winner,
		}).Infof("game ended: %v", result.FinalScores)
	}
	gs.Store.OnListChanged = gs.broadcastGameList

	return gs
}

// broadcastGameList pushes the current game list to every socket.
func (gs *GameServer) broadcastGameList() {
	data, err := Encode(MsgGamesList, GamesListPayload{Games: gs.Store.List()})
	if err != nil {
		gs.Logger.Errorf("Failed to marshal game list: %v", err)
		return
	}
	gs.Hub.SendToAll(data)
}

// Shutdown closes every socket.
func (gs *GameServer) Shutdown() {
	gs.Hub.CloseAll()
}
