package handlers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bstee615/go-sushi/internal/game"
)

func TestDecodePayloadNormalizesKeys(t *testing.T) {
	var snake SelectCardPayload
	require.NoError(t, DecodePayload(json.RawMessage(`{"card_index":2,"use_chopsticks":true,"second_card_index":0,"game_id":"g"}`), &snake))
	var camel SelectCardPayload
	require.NoError(t, DecodePayload(json.RawMessage(`{"cardIndex":2,"useChopsticks":true,"secondCardIndex":0,"gameId":"g"}`), &camel))

	assert.Equal(t, camel, snake)
	require.NotNil(t, snake.CardIndex)
	assert.Equal(t, 2, *snake.CardIndex)
	require.NotNil(t, snake.SecondCardIndex)
	assert.Equal(t, 0, *snake.SecondCardIndex)
	assert.True(t, snake.UseChopsticks)
	assert.Equal(t, "g", snake.GameID)
}

func TestDecodePayloadCamelWins(t *testing.T) {
	var p JoinGamePayload
	require.NoError(t, DecodePayload(json.RawMessage(`{"player_name":"snake","playerName":"camel"}`), &p))
	assert.Equal(t, "camel", p.PlayerName)
}

func TestDecodePayloadEmpty(t *testing.T) {
	var p JoinGamePayload
	require.NoError(t, DecodePayload(nil, &p))
	require.NoError(t, DecodePayload(json.RawMessage("null"), &p))
	assert.Empty(t, p.GameID)

	assert.Error(t, DecodePayload(json.RawMessage(`[1,2]`), &p))
	var sel SelectCardPayload
	assert.Error(t, DecodePayload(json.RawMessage(`{"cardIndex":"first"}`), &sel))
}

func TestNormalizeKey(t *testing.T) {
	cases := map[string]string{
		"game_id":           "gameId",
		"second_card_index": "secondCardIndex",
		"cardIndex":         "cardIndex",
		"token":             "token",
		"trailing_":         "trailing",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeKey(in), in)
	}
}

func TestDecodeMessage(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"type":"select_card","payload":{"cardIndex":1}}`))
	require.NoError(t, err)
	assert.Equal(t, MsgSelectCard, msg.Type)

	_, err = DecodeMessage([]byte(`{"payload":{}}`))
	assert.Error(t, err)
	_, err = DecodeMessage([]byte(`not json`))
	assert.Error(t, err)
}

func TestEncodeEvent(t *testing.T) {
	data, err := EncodeEvent(game.GameEvent{Type: game.EventGameDeleted, Payload: game.GameDeletedPayload{GameID: "g"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"game_deleted","payload":{"gameId":"g"}}`, string(data))

	data, err = Encode(MsgPong, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"pong"}`, string(data))
}
