package service

import (
	"context"
	"fmt"
	"time"

	"acecast/internal/constants"
	"acecast/internal/domain"
	"acecast/internal/elo"
	"acecast/internal/insight"
	"acecast/internal/repository"
	"acecast/internal/tournament"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type InsightService struct {
	engine    *elo.Engine
	simulator *tournament.Simulator
	simRepo   *repository.SimulationRepository
	logger    zerolog.Logger
}

func NewInsightService(
	engine *elo.Engine,
	simulator *tournament.Simulator,
	simRepo *repository.SimulationRepository,
	logger zerolog.Logger,
) *InsightService {
	return &InsightService{
		engine:    engine,
		simulator: simulator,
		simRepo:   simRepo,
		logger:    logger,
	}
}

// MatchInsight builds the head-to-head context bundle for two players.
func (s *InsightService) MatchInsight(ctx context.Context, a, b, surface string) (*insight.MatchInsight, error) {
	a = domain.NormalizeName(a)
	b = domain.NormalizeName(b)
	if a == "" || b == "" {
		return nil, fmt.Errorf("both player names are required")
	}

	s.logger.Debug().Str("player_a", a).Str("player_b", b).Str("surface", surface).Msg("building match insight")
	return insight.BuildMatchInsight(s.engine, a, b, surface), nil
}

// TournamentBrief simulates a bracket and assembles the tournament context
// bundle. The simulation is bounded by SimulationTimeout since trial counts
// are caller-controlled. Each run is recorded to the archive; a failed record
// is logged and swallowed because the bundle is already computed.
func (s *InsightService) TournamentBrief(ctx context.Context, players []string, surface string, trials int) (*insight.TournamentBrief, error) {
	normalized := make([]string, len(players))
	for i, p := range players {
		normalized[i] = domain.NormalizeName(p)
	}
	surface = domain.NormalizeSurface(surface)

	simCtx, cancel := context.WithTimeout(ctx, constants.SimulationTimeout)
	defer cancel()

	start := time.Now()
	probs, err := s.simulator.TitleProbabilities(simCtx, normalized, surface, trials)
	if err != nil {
		return nil, fmt.Errorf("tournament simulation failed: %w", err)
	}
	elapsed := time.Since(start)

	runID := uuid.New().String()
	run := domain.SimulationRun{
		ID:       runID,
		Surface:  surface,
		Players:  len(normalized),
		Trials:   trials,
		Duration: elapsed,
	}
	if err := s.simRepo.Record(ctx, run, tournament.Entries(runID, probs)); err != nil {
		s.logger.Warn().Err(err).Str("simulation_id", runID).Msg("failed to record simulation run")
	}

	s.logger.Info().
		Str("simulation_id", runID).
		Int("players", len(normalized)).
		Int("trials", trials).
		Str("surface", surface).
		Dur("elapsed", elapsed).
		Msg("tournament brief built")

	risks := s.simulator.UpsetRisks(normalized, surface)
	return insight.BuildTournamentBrief(s.engine, normalized, surface, probs, risks), nil
}
