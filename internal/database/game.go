// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bstee615/go-sushi/internal/cache"
)

// Action types the archive reacts to beyond storing them.
const (
	actionGameEnd     = "game_end"
	actionGameDeleted = "game_deleted"
)

// PlayerResult is one row of a finished game's ranking, as carried by the
// game_end action payload.
type PlayerResult struct {
	PlayerID     string `json:"playerId"`
	Name         string `json:"name"`
	Seat         int    `json:"seat"`
	Rank         int    `json:"rank"`
	RoundScores  []int  `json:"roundScores"`
	PuddingCount int    `json:"puddingCount"`
	PuddingScore int    `json:"puddingScore"`
	TotalScore   int    `json:"totalScore"`
}

// ParseResults pulls the ranking out of a game_end payload.
func ParseResults(payload map[string]interface{}) ([]PlayerResult, string, error) {
	raw, ok := payload["rankings"]
	if !ok {
		return nil, "", fmt.Errorf("game_end payload has no rankings")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, "", fmt.Errorf("re-marshal rankings: %w", err)
	}
	var results []PlayerResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, "", fmt.Errorf("decode rankings: %w", err)
	}
	winner, _ := payload["winner"].(string)
	return results, winner, nil
}

// ActionWriter archives action batches into PostgreSQL.
type ActionWriter struct {
	Pool *pgxpool.Pool
}

// WriteActions stores a batch in one transaction. A game_end action also
// completes the game row and records the final results.
func (w *ActionWriter) WriteActions(ctx context.Context, records []cache.GameActionRecord) error {
	err := pgx.BeginTxFunc(ctx, w.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range records {
			if err := insertGameActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insert action %s/%d: %w", rec.GameID, rec.ActionIndex, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write %d actions: %w", len(records), err)
	}
	return nil
}

// MarkAbandoned closes a game that went quiet before finishing.
func (w *ActionWriter) MarkAbandoned(ctx context.Context, gameID string) error {
	q := `
		UPDATE games
		SET status = 'abandoned', end_time = NOW()
		WHERE id = $1 AND status = 'in_progress'
	`
	if _, err := w.Pool.Exec(ctx, q, gameID); err != nil {
		return fmt.Errorf("mark game %s abandoned: %w", gameID, err)
	}
	return nil
}

func insertGameActionTx(ctx context.Context, tx pgx.Tx, rec cache.GameActionRecord) error {
	upsertGameQ := `
		INSERT INTO games (id, status, start_time)
		VALUES ($1, 'in_progress', $2)
		ON CONFLICT (id) DO NOTHING
	`
	recordedAt := time.UnixMilli(rec.Timestamp)
	if _, err := tx.Exec(ctx, upsertGameQ, rec.GameID, recordedAt); err != nil {
		return err
	}

	payload, err := json.Marshal(rec.ActionPayload)
	if err != nil {
		return err
	}
	var actor *string
	if rec.ActorPlayerID != "" {
		actor = &rec.ActorPlayerID
	}
	actionInsertQ := `
		INSERT INTO game_actions (game_id, action_index, actor_player_id, action_type, action_payload, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, action_index) DO NOTHING
	`
	if _, err := tx.Exec(ctx, actionInsertQ, rec.GameID, rec.ActionIndex, actor, rec.ActionType, payload, recordedAt); err != nil {
		return err
	}

	switch rec.ActionType {
	case actionGameEnd:
		results, winner, err := ParseResults(rec.ActionPayload)
		if err != nil {
			return err
		}
		return recordGameResultsTx(ctx, tx, rec.GameID, winner, results)
	case actionGameDeleted:
		_, err := tx.Exec(ctx, `
			UPDATE games SET status = 'deleted', end_time = NOW()
			WHERE id = $1 AND status = 'in_progress'
		`, rec.GameID)
		return err
	}
	return nil
}

// recordGameResultsTx completes the game row and upserts one result per seat.
func recordGameResultsTx(ctx context.Context, tx pgx.Tx, gameID, winner string, results []PlayerResult) error {
	finalizeQ := `
		UPDATE games
		SET status = 'completed', end_time = NOW(), winner_id = $2
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, finalizeQ, gameID, winner); err != nil {
		return err
	}

	q := `
		INSERT INTO game_results (game_id, player_id, player_name, seat, rank, score, pudding_count, pudding_score, round_scores, did_win)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (game_id, player_id)
		DO UPDATE SET rank = $5, score = $6, pudding_count = $7, pudding_score = $8, round_scores = $9, did_win = $10
	`
	batch := &pgx.Batch{}
	for _, r := range results {
		batch.Queue(q, gameID, r.PlayerID, r.Name, r.Seat, r.Rank, r.TotalScore, r.PuddingCount, r.PuddingScore, r.RoundScores, r.PlayerID == winner)
	}
	return tx.SendBatch(ctx, batch).Close()
}
