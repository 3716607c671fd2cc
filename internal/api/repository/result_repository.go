package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"ctchen222/mini-games/internal/api/models"
)

//go:generate mockgen -source=result_repository.go -destination=mocks/mock_result_repository.go -package=mocks

// ResultRepository stores finished games.
type ResultRepository interface {
	Save(ctx context.Context, record *models.GameRecord) error
	StatsForPlayer(ctx context.Context, playerID string) (*models.Stats, error)
	ListRecent(ctx context.Context, playerID string, limit int) ([]models.GameRecord, error)
}

type sqliteResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a new SQLite-based ResultRepository.
func NewResultRepository(db *sqlx.DB) ResultRepository {
	return &sqliteResultRepository{db: db}
}

// Save records a finished game. Saving the same game twice keeps the first row.
func (r *sqliteResultRepository) Save(ctx context.Context, record *models.GameRecord) error {
	query := `INSERT OR IGNORE INTO results (game_id, player_id, player_mark, difficulty, result, moves, finished_at)
		VALUES (:game_id, :player_id, :player_mark, :difficulty, :result, :moves, :finished_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// StatsForPlayer counts wins, losses and draws from the player's side.
func (r *sqliteResultRepository) StatsForPlayer(ctx context.Context, playerID string) (*models.Stats, error) {
	query := `SELECT
		COALESCE(SUM(CASE WHEN (result = 'win_x' AND player_mark = 'X') OR (result = 'win_o' AND player_mark = 'O') THEN 1 ELSE 0 END), 0) AS wins,
		COALESCE(SUM(CASE WHEN (result = 'win_x' AND player_mark = 'O') OR (result = 'win_o' AND player_mark = 'X') THEN 1 ELSE 0 END), 0) AS losses,
		COALESCE(SUM(CASE WHEN result = 'draw' THEN 1 ELSE 0 END), 0) AS draws
		FROM results WHERE player_id = ?`

	var row struct {
		Wins   int `db:"wins"`
		Losses int `db:"losses"`
		Draws  int `db:"draws"`
	}
	if err := r.db.GetContext(ctx, &row, query, playerID); err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	return &models.Stats{
		PlayerID: playerID,
		Wins:     row.Wins,
		Losses:   row.Losses,
		Draws:    row.Draws,
	}, nil
}

// ListRecent returns up to limit of the player's games, newest first.
func (r *sqliteResultRepository) ListRecent(ctx context.Context, playerID string, limit int) ([]models.GameRecord, error) {
	query := `SELECT id, game_id, player_id, player_mark, difficulty, result, moves, finished_at
		FROM results WHERE player_id = ? ORDER BY finished_at DESC, id DESC LIMIT ?`

	records := []models.GameRecord{}
	if err := r.db.SelectContext(ctx, &records, query, playerID, limit); err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return records, nil
}
