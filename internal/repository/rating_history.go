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

type RatingHistoryRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRatingHistoryRepository(sqlDB *sql.DB, logger zerolog.Logger) *RatingHistoryRepository {
	return &RatingHistoryRepository{db: sqlDB, logger: logger}
}

// InsertBatch archives every rating movement from the fold. matchIDs is the
// ID slice returned by MatchRepository.InsertBatch; each change resolves its
// match through its fold index.
func (r *RatingHistoryRepository) InsertBatch(ctx context.Context, changes []domain.RatingChange, matchIDs []string) error {
	if len(changes) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()

	for i := 0; i < len(changes); i += constants.DBBatchSize {
		end := i + constants.DBBatchSize
		if end > len(changes) {
			end = len(changes)
		}

		for _, c := range changes[i:end] {
			if c.MatchIndex < 0 || c.MatchIndex >= len(matchIDs) {
				return fmt.Errorf("rating change for %s references match index %d outside archive of %d", c.Player, c.MatchIndex, len(matchIDs))
			}

			id, err := gonanoid.New()
			if err != nil {
				return fmt.Errorf("failed to generate nanoid: %w", err)
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO rating_history (id, match_id, player_name, opponent, surface, outcome, surface_delta, surface_rating, overall_rating, date, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				id, matchIDs[c.MatchIndex], c.Player, c.Opponent, c.Surface, c.Outcome,
				c.SurfaceDelta, c.SurfaceRating, c.OverallRating, c.Date, now)
			if err != nil {
				return fmt.Errorf("failed to insert rating history for %s: %w", c.Player, err)
			}
		}
	}

	return tx.Commit()
}

// ListByPlayer returns a player's rating movements, newest first.
func (r *RatingHistoryRepository) ListByPlayer(ctx context.Context, name string, limit int) ([]domain.RatingHistoryRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, match_id, player_name, opponent, surface, outcome, surface_delta, surface_rating, overall_rating, date
		FROM rating_history
		WHERE player_name = ?
		ORDER BY date DESC, id DESC
		LIMIT ?`,
		name, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.RatingHistoryRow
	for rows.Next() {
		var row domain.RatingHistoryRow
		err := rows.Scan(&row.ID, &row.MatchID, &row.Player, &row.Opponent, &row.Surface,
			&row.Outcome, &row.SurfaceDelta, &row.SurfaceRating, &row.OverallRating, &row.Date)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
