package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"acecast/internal/constants"
	"acecast/internal/domain"

	"github.com/rs/zerolog"
)

type PlayerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{db: sqlDB, logger: logger}
}

// UpsertBatch writes final rating state for every player in one transaction,
// surface ratings included.
func (r *PlayerRepository) UpsertBatch(ctx context.Context, players []domain.PlayerRecord) error {
	if len(players) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()

	for i := 0; i < len(players); i += constants.DBBatchSize {
		end := i + constants.DBBatchSize
		if end > len(players) {
			end = len(players)
		}

		for _, p := range players[i:end] {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO players (name, overall_rating, matches_played, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT (name) DO UPDATE SET
					overall_rating = excluded.overall_rating,
					matches_played = excluded.matches_played,
					updated_at = excluded.updated_at`,
				p.Name, p.OverallRating, p.MatchesPlayed, now, now)
			if err != nil {
				return fmt.Errorf("failed to upsert player %s: %w", p.Name, err)
			}

			for surface, rating := range p.SurfaceRatings {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO surface_ratings (player_name, surface, rating, updated_at)
					VALUES (?, ?, ?, ?)
					ON CONFLICT (player_name, surface) DO UPDATE SET
						rating = excluded.rating,
						updated_at = excluded.updated_at`,
					p.Name, surface, rating, now)
				if err != nil {
					return fmt.Errorf("failed to upsert surface rating %s/%s: %w", p.Name, surface, err)
				}
			}
		}
	}

	return tx.Commit()
}

func (r *PlayerRepository) Get(ctx context.Context, name string) (*domain.PlayerRecord, error) {
	var p domain.PlayerRecord
	err := r.db.QueryRowContext(ctx,
		`SELECT name, overall_rating, matches_played FROM players WHERE name = ?`, name).
		Scan(&p.Name, &p.OverallRating, &p.MatchesPlayed)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT surface, rating FROM surface_ratings WHERE player_name = ?`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	p.SurfaceRatings = make(map[string]float64)
	for rows.Next() {
		var surface string
		var rating float64
		if err := rows.Scan(&surface, &rating); err != nil {
			return nil, err
		}
		p.SurfaceRatings[surface] = rating
	}
	return &p, rows.Err()
}

// Search returns player names matching a substring, ordered by match volume.
func (r *PlayerRepository) Search(ctx context.Context, query string, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name FROM players
		WHERE name LIKE ?
		ORDER BY matches_played DESC, name ASC
		LIMIT ?`,
		"%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// TopBySurface is the archive leaderboard for one surface.
func (r *PlayerRepository) TopBySurface(ctx context.Context, surface string, limit int) ([]domain.RankingEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT sr.player_name, sr.rating, p.matches_played
		FROM surface_ratings sr
		JOIN players p ON p.name = sr.player_name
		WHERE sr.surface = ?
		ORDER BY sr.rating DESC
		LIMIT ?`,
		surface, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.RankingEntry
	for rows.Next() {
		entry := domain.RankingEntry{Rank: len(entries) + 1}
		if err := rows.Scan(&entry.Name, &entry.Rating, &entry.MatchesPlayed); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
