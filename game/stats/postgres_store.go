package stats

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createTable = `
CREATE TABLE IF NOT EXISTS klondike_stats (
	id                INT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	games_played      INT NOT NULL DEFAULT 0,
	games_won         INT NOT NULL DEFAULT 0,
	best_score        INT NOT NULL DEFAULT 0,
	best_time_seconds INT NOT NULL DEFAULT 0,
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const selectTotals = `
SELECT games_played, games_won, best_score, best_time_seconds, updated_at
FROM klondike_stats WHERE id = 1`

const upsertTotals = `
INSERT INTO klondike_stats (id, games_played, games_won, best_score, best_time_seconds, updated_at)
VALUES (1, $1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
	games_played = EXCLUDED.games_played,
	games_won = EXCLUDED.games_won,
	best_score = EXCLUDED.best_score,
	best_time_seconds = EXCLUDED.best_time_seconds,
	updated_at = EXCLUDED.updated_at`

// PostgresStore keeps Totals in the single-row klondike_stats table
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL and creates the table if needed
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := pool.Exec(ctx, createTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create klondike_stats: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Load reads the totals row. A missing row yields zero totals.
func (ps *PostgresStore) Load(ctx context.Context) (Totals, error) {
	var t Totals
	err := ps.pool.QueryRow(ctx, selectTotals).Scan(&t.GamesPlayed, &t.GamesWon, &t.BestScore, &t.BestTimeSeconds, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Totals{}, nil
	}
	if err != nil {
		return Totals{}, fmt.Errorf("failed to load stats: %w", err)
	}
	return t, nil
}

// Save upserts the totals row
func (ps *PostgresStore) Save(ctx context.Context, t Totals) error {
	_, err := ps.pool.Exec(ctx, upsertTotals, t.GamesPlayed, t.GamesWon, t.BestScore, t.BestTimeSeconds, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save stats: %w", err)
	}
	return nil
}

// Close releases the connection pool
func (ps *PostgresStore) Close() {
	ps.pool.Close()
}
