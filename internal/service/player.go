package service

import (
	"context"
	"fmt"

	"acecast/internal/constants"
	"acecast/internal/domain"
	"acecast/internal/elo"
	"acecast/internal/repository"

	"github.com/rs/zerolog"
)

type PlayerService struct {
	engine      *elo.Engine
	playerRepo  *repository.PlayerRepository
	historyRepo *repository.RatingHistoryRepository
	logger      zerolog.Logger
}

func NewPlayerService(
	engine *elo.Engine,
	playerRepo *repository.PlayerRepository,
	historyRepo *repository.RatingHistoryRepository,
	logger zerolog.Logger,
) *PlayerService {
	return &PlayerService{
		engine:      engine,
		playerRepo:  playerRepo,
		historyRepo: historyRepo,
		logger:      logger,
	}
}

// Profile answers from the in-memory engine; the archive is not consulted.
func (s *PlayerService) Profile(ctx context.Context, name, surface string) (*domain.PlayerProfile, error) {
	surface = domain.NormalizeSurface(surface)

	profile, err := s.engine.Profile(name, surface)
	if err != nil {
		return nil, fmt.Errorf("failed to build profile for %q: %w", name, err)
	}
	return profile, nil
}

func (s *PlayerService) Search(ctx context.Context, query string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	names, err := s.playerRepo.Search(ctx, query, constants.SearchSuggestionLimit)
	if err != nil {
		s.logger.Error().Err(err).Str("query", query).Msg("player search failed")
		return nil, fmt.Errorf("failed to search players: %w", err)
	}

	s.logger.Debug().Str("query", query).Int("count", len(names)).Msg("search completed")
	return names, nil
}

func (s *PlayerService) History(ctx context.Context, name string, limit int) ([]domain.RatingHistoryRow, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if limit <= 0 || limit > constants.MaxRankingLimit {
		limit = constants.DefaultRankingLimit
	}

	rows, err := s.historyRepo.ListByPlayer(ctx, domain.NormalizeName(name), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating history for %q: %w", name, err)
	}
	return rows, nil
}

func (s *PlayerService) Rankings(ctx context.Context, surface string, limit int) ([]domain.RankingEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if limit <= 0 || limit > constants.MaxRankingLimit {
		limit = constants.DefaultRankingLimit
	}

	entries, err := s.playerRepo.TopBySurface(ctx, domain.NormalizeSurface(surface), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load rankings: %w", err)
	}
	return entries, nil
}
