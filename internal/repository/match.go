package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"acecast/internal/constants"
	"acecast/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type MatchRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewMatchRepository(sqlDB *sql.DB, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{db: sqlDB, logger: logger}
}

// InsertBatch archives the sorted match sequence and returns the generated
// IDs in the same order, so rating history rows can reference their match by
// fold index.
func (r *MatchRepository) InsertBatch(ctx context.Context, matches []domain.MatchRecord) ([]string, error) {
	if len(matches) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	ids := make([]string, len(matches))

	for i := 0; i < len(matches); i += constants.DBBatchSize {
		end := i + constants.DBBatchSize
		if end > len(matches) {
			end = len(matches)
		}

		for j, m := range matches[i:end] {
			id, err := gonanoid.New()
			if err != nil {
				return nil, fmt.Errorf("failed to generate nanoid: %w", err)
			}
			ids[i+j] = id

			_, err = tx.ExecContext(ctx, `
				INSERT INTO matches (id, date, surface, winner, loser, score, best_of, round, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				id, m.Date, m.Surface, m.Winner, m.Loser, m.Score, m.BestOf, m.Round, now)
			if err != nil {
				return nil, fmt.Errorf("failed to insert match %s vs %s: %w", m.Winner, m.Loser, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *MatchRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches`).Scan(&count)
	return count, err
}
