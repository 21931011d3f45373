// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bstee615/go-sushi/internal/auth"
	"github.com/bstee615/go-sushi/internal/game"
	"github.com/bstee615/go-sushi/internal/middleware"
)

// GameWSHandler upgrades the connection, assigns the socket a fresh player id
// and serves game messages until the socket closes.
func GameWSHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := &websocket.AcceptOptions{}
		if len(gs.AllowedOrigins) > 0 {
			opts.OriginPatterns = gs.AllowedOrigins
		}
		conn, err := websocket.Accept(w, r, opts)
		if err != nil {
			gs.Logger.Warnf("WebSocket accept error from %s: %v", r.RemoteAddr, err)
			return
		}
		middleware.LogWebSocketConnect(gs.Logger, r.RemoteAddr, r.URL.Path)

		c := newClient(conn, uuid.NewString(), gs.SendBuffer)
		gs.Hub.register(c)
		go c.writeLoop(gs.Logger)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		err = gs.readMessages(ctx, c)
		gs.release(c)
		c.close(websocket.StatusNormalClosure, "")
		middleware.LogWebSocketDisconnect(gs.Logger, r.RemoteAddr, r.URL.Path, err)
	}
}

// readMessages runs until the socket fails or ctx ends. A clean close by the
// peer returns nil.
func (gs *GameServer) readMessages(ctx context.Context, c *client) error {
	for {
		msgType, data, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			gs.sendError(c, CodeBadRequest, "only text frames are accepted")
			continue
		}

		msg, err := DecodeMessage(data)
		if err != nil {
			gs.sendError(c, CodeBadRequest, err.Error())
			continue
		}
		playerID, gameID := gs.Hub.identity(c)
		gs.Logger.WithFields(logrus.Fields{"player": playerID, "game": gameID}).Debugf("received %s", msg.Type)

		if err := gs.handleMessage(c, msg); err != nil {
			gs.sendErr(c, err)
		}
	}
}

// release runs when a socket ends. Sockets replaced by a newer one for the
// same player leave the seat alone.
func (gs *GameServer) release(c *client) {
	playerID, gameID := gs.Hub.identity(c)
	if !gs.Hub.unregister(c) || gameID == "" {
		return
	}
	if g, ok := gs.Store.Get(gameID); ok {
		if err := g.Disconnect(playerID); err != nil {
			gs.Logger.WithFields(logrus.Fields{"player": playerID, "game": gameID}).Debugf("disconnect: %v", err)
		}
	}
}

func (gs *GameServer) handleMessage(c *client, msg Message) error {
	switch msg.Type {
	case MsgJoinGame:
		var p JoinGamePayload
		if err := DecodePayload(msg.Payload, &p); err != nil {
			return badRequest(err)
		}
		return gs.handleJoin(c, p)

	case MsgStartGame:
		var p GameIDPayload
		if err := DecodePayload(msg.Payload, &p); err != nil {
			return badRequest(err)
		}
		playerID, g, err := gs.boundGame(c, p.GameID)
		if err != nil {
			return err
		}
		return g.Start(playerID)

	case MsgSelectCard:
		var p SelectCardPayload
		if err := DecodePayload(msg.Payload, &p); err != nil {
			return badRequest(err)
		}
		if p.CardIndex == nil {
			return badRequest(fmt.Errorf("cardIndex is required"))
		}
		playerID, g, err := gs.boundGame(c, p.GameID)
		if err != nil {
			return err
		}
		return g.SelectCard(playerID, game.SelectCardRequest{
			CardIndex:       *p.CardIndex,
			UseChopsticks:   p.UseChopsticks,
			SecondCardIndex: p.SecondCardIndex,
		})

	case MsgWithdrawCard:
		var p GameIDPayload
		if err := DecodePayload(msg.Payload, &p); err != nil {
			return badRequest(err)
		}
		playerID, g, err := gs.boundGame(c, p.GameID)
		if err != nil {
			return err
		}
		return g.WithdrawCard(playerID)

	case MsgKickPlayer:
		var p KickPlayerPayload
		if err := DecodePayload(msg.Payload, &p); err != nil {
			return badRequest(err)
		}
		if p.PlayerID == "" {
			return badRequest(fmt.Errorf("playerId is required"))
		}
		playerID, g, err := gs.boundGame(c, "")
		if err != nil {
			return err
		}
		if err := g.Kick(playerID, p.PlayerID); err != nil {
			return err
		}
		gs.Hub.unbindPlayer(p.PlayerID, g.ID)
		return nil

	case MsgListGames:
		return gs.send(c, MsgGamesList, GamesListPayload{Games: gs.Store.List()})

	case MsgDeleteGame:
		var p GameIDPayload
		if err := DecodePayload(msg.Payload, &p); err != nil {
			return badRequest(err)
		}
		playerID, gameID := gs.Hub.identity(c)
		if p.GameID == "" {
			p.GameID = gameID
		}
		if p.GameID == "" {
			return badRequest(fmt.Errorf("gameId is required"))
		}
		if err := gs.Store.DeleteGame(playerID, p.GameID); err != nil {
			return err
		}
		gs.Hub.clearGame(p.GameID)
		return nil

	case MsgPing:
		return gs.send(c, MsgPong, nil)

	default:
		return badRequest(fmt.Errorf("unknown message type %q", msg.Type))
	}
}

// handleJoin seats the socket. With a token it resumes the seat the token was
// issued for; otherwise it joins gameId, or creates a game when gameId is
// empty.
func (gs *GameServer) handleJoin(c *client, p JoinGamePayload) error {
	if p.Token != "" {
		return gs.resume(c, p)
	}

	playerID, current := gs.Hub.identity(c)
	if current != "" {
		if current == p.GameID {
			g, ok := gs.Store.Get(current)
			if ok {
				if err := g.Reconnect(playerID); err == nil {
					return gs.sendJoined(c, g, playerID)
				}
			}
		}
		if err := gs.leave(playerID, current); err != nil {
			return err
		}
		gs.Hub.bindGame(c, "")
	}

	// Bind first so events emitted during the join reach this socket.
	gs.Hub.bindGame(c, p.GameID)
	g, err := gs.Store.CreateOrJoin(playerID, p.PlayerName, p.GameID)
	if err != nil {
		gs.Hub.bindGame(c, "")
		return err
	}
	gs.Hub.bindGame(c, g.ID)
	return gs.sendJoined(c, g, playerID)
}

// resume rebinds the socket to the seat named by a token.
func (gs *GameServer) resume(c *client, p JoinGamePayload) error {
	playerID, gameID, err := auth.AuthenticateJWT(p.Token)
	if err != nil {
		return &protocolError{code: CodeUnauthorized, message: err.Error()}
	}
	if p.GameID != "" && p.GameID != gameID {
		return &protocolError{code: CodeUnauthorized, message: "token was issued for another game"}
	}
	g, ok := gs.Store.Get(gameID)
	if !ok || !g.HasPlayer(playerID) {
		return game.ErrNotFound
	}

	if oldID, oldGame := gs.Hub.identity(c); oldGame != "" && (oldGame != gameID || oldID != playerID) {
		if err := gs.leave(oldID, oldGame); err != nil {
			return err
		}
	}
	gs.Hub.rebind(c, playerID)
	gs.Hub.bindGame(c, gameID)
	if err := g.Reconnect(playerID); err != nil {
		gs.Hub.bindGame(c, "")
		return err
	}
	return gs.sendJoined(c, g, playerID)
}

// leave gives up the seat in gameID so the socket can sit elsewhere. Seats in
// a running game cannot be abandoned this way.
func (gs *GameServer) leave(playerID, gameID string) error {
	g, ok := gs.Store.Get(gameID)
	if !ok || !g.HasPlayer(playerID) {
		return nil
	}
	switch g.Summary().Phase {
	case game.PhaseWaiting:
		return g.RemovePlayer(playerID)
	case game.PhaseGameEnd:
		return g.Disconnect(playerID)
	default:
		return &game.GameError{Kind: game.KindInvalidPhase, Message: fmt.Sprintf("already playing in game %s", gameID)}
	}
}

// boundGame resolves the game the socket is seated in. A non-empty gameID
// must match it.
func (gs *GameServer) boundGame(c *client, gameID string) (string, *game.GameSession, error) {
	playerID, bound := gs.Hub.identity(c)
	if bound == "" {
		return "", nil, &game.GameError{Kind: game.KindNotFound, Message: "not in a game"}
	}
	if gameID != "" && gameID != bound {
		return "", nil, &game.GameError{Kind: game.KindNotFound, Message: fmt.Sprintf("not in game %s", gameID)}
	}
	g, ok := gs.Store.Get(bound)
	if !ok {
		gs.Hub.bindGame(c, "")
		return "", nil, &game.GameError{Kind: game.KindNotFound, Message: fmt.Sprintf("game %s not found", bound)}
	}
	return playerID, g, nil
}

// sendJoined confirms the seat and follows up with a snapshot, so the first
// game_state after joined is always current.
func (gs *GameServer) sendJoined(c *client, g *game.GameSession, playerID string) error {
	token, err := auth.CreateJWT(playerID, g.ID)
	if err != nil {
		return err
	}
	if err := gs.send(c, MsgJoined, JoinedPayload{GameID: g.ID, PlayerID: playerID, Token: token}); err != nil {
		return err
	}
	view, err := g.PrivateView(playerID)
	if err != nil {
		return err
	}
	return gs.send(c, string(game.EventGameState), view)
}

func (gs *GameServer) send(c *client, msgType string, payload interface{}) error {
	data, err := Encode(msgType, payload)
	if err != nil {
		return err
	}
	playerID, _ := gs.Hub.identity(c)
	gs.Hub.SendToPlayer(playerID, data)
	return nil
}

// sendErr reports a failed request to the socket that made it.
func (gs *GameServer) sendErr(c *client, err error) {
	var ge *game.GameError
	var pe *protocolError
	switch {
	case errors.As(err, &ge):
		gs.sendError(c, string(ge.Kind), ge.Message)
	case errors.As(err, &pe):
		gs.sendError(c, pe.code, pe.message)
	default:
		gs.Logger.Errorf("request failed: %v", err)
		gs.sendError(c, CodeInternal, "internal error")
	}
}

func (gs *GameServer) sendError(c *client, code, message string) {
	if err := gs.send(c, MsgError, ErrorPayload{Code: code, Message: message}); err != nil {
		gs.Logger.Errorf("Failed to marshal error frame: %v", err)
	}
}

// protocolError is a request failure that is not a game rule violation.
type protocolError struct {
	code    string
	message string
}

func (e *protocolError) Error() string { return e.code + ": " + e.message }

func badRequest(err error) error {
	return &protocolError{code: CodeBadRequest, message: err.Error()}
}
