package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var DB *pgxpool.Pool

// Schema is applied by EnsureSchema. Every statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS games (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'in_progress',
	start_time  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	end_time    TIMESTAMPTZ,
	winner_id   TEXT
);

CREATE TABLE IF NOT EXISTS game_actions (
	game_id         TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	action_index    INTEGER NOT NULL,
	actor_player_id TEXT,
	action_type     TEXT NOT NULL,
	action_payload  JSONB NOT NULL DEFAULT '{}',
	recorded_at     TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (game_id, action_index)
);

CREATE TABLE IF NOT EXISTS game_results (
	game_id       TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	player_id     TEXT NOT NULL,
	player_name   TEXT NOT NULL,
	seat          INTEGER NOT NULL,
	rank          INTEGER NOT NULL,
	score         INTEGER NOT NULL,
	pudding_count INTEGER NOT NULL,
	pudding_score INTEGER NOT NULL,
	round_scores  INTEGER[] NOT NULL,
	did_win       BOOLEAN NOT NULL,
	PRIMARY KEY (game_id, player_id)
);
`

// ConnectDB opens the global pool and checks it with a ping.
func ConnectDB(ctx context.Context, url string) error {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return fmt.Errorf("db ping error: %w", err)
	}

	DB = pool
	log.Infof("connected to database at %s:%d/%s", config.ConnConfig.Host, config.ConnConfig.Port, config.ConnConfig.Database)
	return nil
}

// EnsureSchema creates the archive tables if they are missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
