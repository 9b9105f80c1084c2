package service

import (
	"context"
	"fmt"
	"time"

	"acecast/internal/constants"
	"acecast/internal/elo"
	"acecast/internal/ingest"
	"acecast/internal/repository"

	"github.com/rs/zerolog"
)

type IngestService struct {
	engine      *elo.Engine
	playerRepo  *repository.PlayerRepository
	matchRepo   *repository.MatchRepository
	historyRepo *repository.RatingHistoryRepository
	logger      zerolog.Logger
}

func NewIngestService(
	engine *elo.Engine,
	playerRepo *repository.PlayerRepository,
	matchRepo *repository.MatchRepository,
	historyRepo *repository.RatingHistoryRepository,
	logger zerolog.Logger,
) *IngestService {
	return &IngestService{
		engine:      engine,
		playerRepo:  playerRepo,
		matchRepo:   matchRepo,
		historyRepo: historyRepo,
		logger:      logger,
	}
}

// Run loads every CSV source, folds the records through the rating engine,
// and persists the resulting state to the archive. An archive failure is
// returned to the caller but leaves the in-memory engine fully usable.
func (s *IngestService) Run(ctx context.Context, paths []string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.ArchiveTimeout)
	defer cancel()

	start := time.Now()

	records, stats := ingest.LoadFiles(paths, s.logger)
	if err := s.engine.Ingest(records); err != nil {
		return fmt.Errorf("failed to ingest match records: %w", err)
	}

	matchIDs, err := s.matchRepo.InsertBatch(ctx, s.engine.Matches())
	if err != nil {
		return fmt.Errorf("failed to archive matches: %w", err)
	}

	if err := s.playerRepo.UpsertBatch(ctx, s.engine.PlayerRecords()); err != nil {
		return fmt.Errorf("failed to archive players: %w", err)
	}

	if err := s.historyRepo.InsertBatch(ctx, s.engine.History(), matchIDs); err != nil {
		return fmt.Errorf("failed to archive rating history: %w", err)
	}

	s.logger.Info().
		Int("accepted", stats.Accepted).
		Int("skipped", stats.Skipped).
		Int("players", len(s.engine.Players())).
		Time("max_date", s.engine.MaxDate()).
		Dur("elapsed", time.Since(start)).
		Msg("ingestion complete")

	return nil
}
