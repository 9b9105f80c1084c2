package tournament

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"time"

	"acecast/internal/constants"
	"acecast/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	ErrBracketSize    = errors.New("bracket size must be a power of two")
	ErrNegativeTrials = errors.New("trial count must not be negative")
	ErrEmptyBracket   = errors.New("bracket needs at least one player")
)

// Rater is the read-only rating surface the simulator drives. *elo.Engine
// satisfies it; simulations never mutate engine state.
type Rater interface {
	SurfaceRating(player, surface string) float64
	WinProbability(a, b, surface string) float64
}

type UpsetRisk struct {
	Favorite       string  `json:"favorite"`
	Underdog       string  `json:"underdog"`
	FavoriteProb   float64 `json:"favorite_prob"`
	UpsetPotential float64 `json:"upset_potential"`
}

type Simulator struct {
	rater   Rater
	workers int
	seed    int64
	logger  zerolog.Logger
}

func NewSimulator(rater Rater, workers int, logger zerolog.Logger) *Simulator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Simulator{
		rater:   rater,
		workers: workers,
		seed:    time.Now().UnixNano(),
		logger:  logger,
	}
}

// WithSeed fixes the base random seed. Trials stay independent: worker i
// derives its own stream from seed+i.
func (s *Simulator) WithSeed(seed int64) *Simulator {
	s.seed = seed
	return s
}

// TitleProbabilities estimates each player's chance of winning a
// single-elimination bracket on the given surface. trials == 0 selects the
// closed-form quick estimate, which ignores bracket structure entirely;
// trials > 0 runs that many independent Monte Carlo brackets.
func (s *Simulator) TitleProbabilities(ctx context.Context, players []string, surface string, trials int) (map[string]float64, error) {
	if len(players) == 0 {
		return nil, ErrEmptyBracket
	}
	if len(players)&(len(players)-1) != 0 {
		return nil, fmt.Errorf("%w: got %d players", ErrBracketSize, len(players))
	}
	if trials < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrNegativeTrials, trials)
	}

	if trials == 0 {
		return s.quickEstimate(players, surface), nil
	}
	return s.monteCarlo(ctx, players, surface, trials)
}

// quickEstimate is the softmax-like approximation 2^(rating/400) normalized
// over the field. It diverges from Monte Carlo results for skewed seed
// distributions because it sees no bracket topology.
func (s *Simulator) quickEstimate(players []string, surface string) map[string]float64 {
	strengths := make(map[string]float64, len(players))
	total := 0.0
	for _, p := range players {
		strength := math.Pow(2, s.rater.SurfaceRating(p, surface)/400)
		strengths[p] = strength
		total += strength
	}

	probs := make(map[string]float64, len(players))
	for _, p := range players {
		probs[p] = strengths[p] / total
	}
	return probs
}

func (s *Simulator) monteCarlo(ctx context.Context, players []string, surface string, trials int) (map[string]float64, error) {
	start := time.Now()

	workers := s.workers
	if workers > trials {
		workers = trials
	}

	tallies := make([]map[string]int, workers)
	g, gCtx := errgroup.WithContext(ctx)

	for i := 0; i < workers; i++ {
		share := trials / workers
		if i < trials%workers {
			share++
		}

		rng := rand.New(rand.NewSource(s.seed + int64(i)))
		tally := make(map[string]int)
		tallies[i] = tally

		g.Go(func() error {
			for t := 0; t < share; t++ {
				select {
				case <-gCtx.Done():
					return gCtx.Err()
				default:
				}
				tally[s.runBracket(rng, players, surface)]++
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("simulation interrupted: %w", err)
	}

	probs := make(map[string]float64, len(players))
	for _, p := range players {
		probs[p] = 0
	}
	for _, tally := range tallies {
		for player, wins := range tally {
			probs[player] += float64(wins) / float64(trials)
		}
	}

	s.logger.Debug().
		Int("players", len(players)).
		Int("trials", trials).
		Int("workers", workers).
		Str("surface", surface).
		Dur("elapsed", time.Since(start)).
		Msg("monte carlo simulation complete")

	return probs, nil
}

// runBracket folds one single-elimination draw down to a champion. Each round
// pairs seed i with seed len-1-i and resolves the match with one Bernoulli
// draw against the model's win probability.
func (s *Simulator) runBracket(rng *rand.Rand, players []string, surface string) string {
	round := players
	for len(round) > 1 {
		next := make([]string, 0, len(round)/2)
		for i := 0; i < len(round)/2; i++ {
			p1 := round[i]
			p2 := round[len(round)-1-i]
			if rng.Float64() < s.rater.WinProbability(p1, p2, surface) {
				next = append(next, p1)
			} else {
				next = append(next, p2)
			}
		}
		round = next
	}
	return round[0]
}

// UpsetRisks seeds the field by surface rating, pairs adjacent seeds, and
// reports pairings where the favorite's win probability falls below the
// threshold. At most the top three pairings come back, in seeding order.
func (s *Simulator) UpsetRisks(players []string, surface string) []UpsetRisk {
	seeded := make([]string, len(players))
	copy(seeded, players)
	sort.SliceStable(seeded, func(i, j int) bool {
		return s.rater.SurfaceRating(seeded[i], surface) > s.rater.SurfaceRating(seeded[j], surface)
	})

	var risks []UpsetRisk
	for i := 0; i+1 < len(seeded) && len(risks) < constants.UpsetRiskLimit; i += 2 {
		favorite, underdog := seeded[i], seeded[i+1]
		prob := s.rater.WinProbability(favorite, underdog, surface)
		if prob < constants.UpsetFavoriteThreshold {
			risks = append(risks, UpsetRisk{
				Favorite:       favorite,
				Underdog:       underdog,
				FavoriteProb:   prob,
				UpsetPotential: 1 - prob,
			})
		}
	}
	return risks
}

// Entries converts a probability map into archive rows for one recorded run.
func Entries(runID string, probs map[string]float64) []domain.SimulationEntry {
	entries := make([]domain.SimulationEntry, 0, len(probs))
	for player, prob := range probs {
		entries = append(entries, domain.SimulationEntry{
			SimulationID: runID,
			Player:       player,
			TitleProb:    prob,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Player < entries[j].Player })
	return entries
}
