package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"acecast/internal/domain"

	"github.com/rs/zerolog"
)

type SimulationRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSimulationRepository(sqlDB *sql.DB, logger zerolog.Logger) *SimulationRepository {
	return &SimulationRepository{db: sqlDB, logger: logger}
}

// Record stores one simulation run and its per-player title probabilities in
// a single transaction.
func (r *SimulationRepository) Record(ctx context.Context, run domain.SimulationRun, entries []domain.SimulationEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO simulations (id, surface, players, trials, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Surface, run.Players, run.Trials, run.Duration.Milliseconds(), createdAt)
	if err != nil {
		return fmt.Errorf("failed to insert simulation %s: %w", run.ID, err)
	}

	for _, e := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO simulation_entries (simulation_id, player_name, title_prob)
			VALUES (?, ?, ?)`,
			run.ID, e.Player, e.TitleProb)
		if err != nil {
			return fmt.Errorf("failed to insert simulation entry %s/%s: %w", run.ID, e.Player, err)
		}
	}

	return tx.Commit()
}

// Recent lists the newest simulation runs.
func (r *SimulationRepository) Recent(ctx context.Context, limit int) ([]domain.SimulationRun, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, surface, players, trials, duration_ms, created_at
		FROM simulations
		ORDER BY created_at DESC
		LIMIT ?`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.SimulationRun
	for rows.Next() {
		var run domain.SimulationRun
		var durationMs int64
		if err := rows.Scan(&run.ID, &run.Surface, &run.Players, &run.Trials, &durationMs, &run.CreatedAt); err != nil {
			return nil, err
		}
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
