// internal/handlers/codec.go
package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bstee615/go-sushi/internal/game"
)

// Inbound message types.
const (
	MsgJoinGame     = "join_game"
	MsgStartGame    = "start_game"
	MsgSelectCard   = "select_card"
	MsgWithdrawCard = "withdraw_card"
	MsgKickPlayer   = "kick_player"
	MsgListGames    = "list_games"
	MsgDeleteGame   = "delete_game"
	MsgPing         = "ping"
)

// Outbound message types that do not come from a session.
const (
	MsgJoined    = "joined"
	MsgError     = "error"
	MsgGamesList = "games_list"
	MsgPong      = "pong"
)

// Error codes beyond the game error kinds.
const (
	CodeBadRequest   = "bad_request"
	CodeUnauthorized = "unauthorized"
	CodeInternal     = "internal"
)

// Message is the envelope of every frame in both directions.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinGamePayload struct {
	GameID     string `json:"gameId"`
	PlayerName string `json:"playerName"`
	Token      string `json:"token"`
}

type GameIDPayload struct {
	GameID string `json:"gameId"`
}

type SelectCardPayload struct {
	GameID          string `json:"gameId"`
	CardIndex       *int   `json:"cardIndex"`
	UseChopsticks   bool   `json:"useChopsticks"`
	SecondCardIndex *int   `json:"secondCardIndex"`
}

type KickPlayerPayload struct {
	PlayerID string `json:"playerId"`
}

type JoinedPayload struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
	Token    string `json:"token"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type GamesListPayload struct {
	Games []game.GameSummary `json:"games"`
}

// DecodeMessage parses a frame envelope.
func DecodeMessage(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("invalid message: %w", err)
	}
	if msg.Type == "" {
		return msg, fmt.Errorf("message has no type")
	}
	return msg, nil
}

// DecodePayload unmarshals a payload into v after normalizing its keys to
// camelCase, so "card_index" and "cardIndex" both land in CardIndex. When a
// payload carries both spellings the camelCase one wins.
func DecodePayload(raw json.RawMessage, v interface{}) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return fmt.Errorf("payload must be an object: %w", err)
	}

	normalized := make(map[string]json.RawMessage, len(fields))
	for key, value := range fields {
		camel := normalizeKey(key)
		if _, exists := normalized[camel]; exists && camel != key {
			continue
		}
		normalized[camel] = value
	}
	data, err := json.Marshal(normalized)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

// normalizeKey turns snake_case into camelCase and leaves anything else alone.
func normalizeKey(key string) string {
	if !strings.Contains(key, "_") {
		return key
	}
	parts := strings.Split(key, "_")
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// Encode builds an outbound frame.
func Encode(msgType string, payload interface{}) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
		}
		raw = data
	}
	return json.Marshal(Message{Type: msgType, Payload: raw})
}

// EncodeEvent builds an outbound frame from a session event.
func EncodeEvent(ev game.GameEvent) ([]byte, error) {
	return Encode(string(ev.Type), ev.Payload)
}
