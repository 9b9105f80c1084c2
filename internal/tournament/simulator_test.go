package tournament

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRater returns a constant win probability for every pairing and looks
// ratings up from a static table.
type fixedRater struct {
	ratings map[string]float64
	prob    float64
}

func (f fixedRater) SurfaceRating(player, surface string) float64 {
	if r, ok := f.ratings[player]; ok {
		return r
	}
	return 1500.0
}

func (f fixedRater) WinProbability(a, b, surface string) float64 {
	return f.prob
}

// seededRater makes the higher-rated player win every match.
type seededRater struct {
	ratings map[string]float64
}

func (s seededRater) SurfaceRating(player, surface string) float64 {
	return s.ratings[player]
}

func (s seededRater) WinProbability(a, b, surface string) float64 {
	if s.ratings[a] > s.ratings[b] {
		return 1.0
	}
	return 0.0
}

func sixteenPlayers() []string {
	return []string{
		"P01", "P02", "P03", "P04", "P05", "P06", "P07", "P08",
		"P09", "P10", "P11", "P12", "P13", "P14", "P15", "P16",
	}
}

func TestBracketSizeValidation(t *testing.T) {
	sim := NewSimulator(fixedRater{prob: 0.5}, 1, zerolog.Nop())

	for _, size := range []int{3, 5, 6, 7, 9, 12, 15, 17} {
		players := make([]string, size)
		for i := range players {
			players[i] = "P"
		}
		_, err := sim.TitleProbabilities(context.Background(), players, "hard", 10)
		assert.ErrorIs(t, err, ErrBracketSize, "size %d", size)
	}

	_, err := sim.TitleProbabilities(context.Background(), nil, "hard", 10)
	assert.ErrorIs(t, err, ErrEmptyBracket)

	_, err = sim.TitleProbabilities(context.Background(), []string{"A", "B"}, "hard", -1)
	assert.ErrorIs(t, err, ErrNegativeTrials)
}

func TestSinglePlayerDrawDegenerates(t *testing.T) {
	sim := NewSimulator(fixedRater{prob: 0.5}, 1, zerolog.Nop())

	probs, err := sim.TitleProbabilities(context.Background(), []string{"Solo"}, "hard", 100)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, probs["Solo"], 1e-12)
}

func TestBracketReductionProducesChampionFromField(t *testing.T) {
	players := sixteenPlayers()
	sim := NewSimulator(fixedRater{prob: 0.5}, 4, zerolog.Nop()).WithSeed(1)

	probs, err := sim.TitleProbabilities(context.Background(), players, "hard", 2000)
	require.NoError(t, err)

	members := make(map[string]bool, len(players))
	for _, p := range players {
		members[p] = true
	}

	total := 0.0
	for player, prob := range probs {
		assert.True(t, members[player], "champion %q not in field", player)
		total += prob
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestDeterministicBracketCrownsTopSeed(t *testing.T) {
	ratings := make(map[string]float64)
	players := sixteenPlayers()
	for i, p := range players {
		ratings[p] = 1900.0 - float64(i)*20
	}

	sim := NewSimulator(seededRater{ratings: ratings}, 4, zerolog.Nop()).WithSeed(7)

	probs, err := sim.TitleProbabilities(context.Background(), players, "hard", 500)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, probs["P01"], 1e-12)
}

func TestMonteCarloConvergence(t *testing.T) {
	// Two-player bracket with a fixed 0.7 win probability for whoever is
	// drawn as p1; the first listed player occupies that slot every trial.
	sim := NewSimulator(fixedRater{prob: 0.7}, 4, zerolog.Nop()).WithSeed(42)

	probs, err := sim.TitleProbabilities(context.Background(), []string{"A", "B"}, "hard", 100000)
	require.NoError(t, err)

	assert.InDelta(t, 0.7, probs["A"], 0.02)
	assert.InDelta(t, 0.3, probs["B"], 0.02)
	assert.InDelta(t, 1.0, probs["A"]+probs["B"], 1e-9)
}

func TestMonteCarloIsSeedDeterministic(t *testing.T) {
	players := sixteenPlayers()

	run := func() map[string]float64 {
		sim := NewSimulator(fixedRater{prob: 0.5}, 4, zerolog.Nop()).WithSeed(99)
		probs, err := sim.TitleProbabilities(context.Background(), players, "clay", 5000)
		require.NoError(t, err)
		return probs
	}

	assert.Equal(t, run(), run())
}

func TestQuickEstimate(t *testing.T) {
	ratings := map[string]float64{"A": 1500, "B": 1500, "C": 1500, "D": 1500}
	sim := NewSimulator(fixedRater{ratings: ratings}, 1, zerolog.Nop())

	probs, err := sim.TitleProbabilities(context.Background(), []string{"A", "B", "C", "D"}, "hard", 0)
	require.NoError(t, err)
	for _, p := range []string{"A", "B", "C", "D"} {
		assert.InDelta(t, 0.25, probs[p], 1e-12)
	}
}

func TestQuickEstimateNormalizesSkewedField(t *testing.T) {
	ratings := map[string]float64{"A": 2000, "B": 1600, "C": 1500, "D": 1200}
	sim := NewSimulator(fixedRater{ratings: ratings}, 1, zerolog.Nop())

	probs, err := sim.TitleProbabilities(context.Background(), []string{"A", "B", "C", "D"}, "hard", 0)
	require.NoError(t, err)

	total := 0.0
	for _, prob := range probs {
		total += prob
	}
	assert.InDelta(t, 1.0, total, 1e-9)
	assert.Greater(t, probs["A"], probs["B"])
	assert.Greater(t, probs["B"], probs["C"])
	assert.Greater(t, probs["C"], probs["D"])

	// 2^(2000/400) / sum of strengths
	strengths := 0.0
	for _, r := range ratings {
		strengths += math.Pow(2, r/400)
	}
	assert.InDelta(t, math.Pow(2, 2000.0/400)/strengths, probs["A"], 1e-12)
}

func TestContextCancellationStopsSimulation(t *testing.T) {
	sim := NewSimulator(fixedRater{prob: 0.5}, 2, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.TitleProbabilities(ctx, sixteenPlayers(), "hard", 1_000_000)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUpsetRisksThresholdAndCap(t *testing.T) {
	players := []string{"P1", "P2", "P3", "P4", "P5", "P6", "P7", "P8"}
	ratings := make(map[string]float64)
	for i, p := range players {
		ratings[p] = 1800.0 - float64(i)*10
	}

	// Every pairing sits below the 0.65 favorite threshold, so all four
	// pairs qualify and the cap keeps the first three.
	sim := NewSimulator(fixedRater{ratings: ratings, prob: 0.55}, 1, zerolog.Nop())
	risks := sim.UpsetRisks(players, "hard")

	require.Len(t, risks, 3)
	assert.Equal(t, "P1", risks[0].Favorite)
	assert.Equal(t, "P2", risks[0].Underdog)
	assert.Equal(t, "P3", risks[1].Favorite)
	assert.Equal(t, "P5", risks[2].Favorite)
	for _, risk := range risks {
		assert.InDelta(t, 0.55, risk.FavoriteProb, 1e-12)
		assert.InDelta(t, 0.45, risk.UpsetPotential, 1e-12)
	}

	// Comfortable favorites produce no risks.
	safe := NewSimulator(fixedRater{ratings: ratings, prob: 0.8}, 1, zerolog.Nop())
	assert.Empty(t, safe.UpsetRisks(players, "hard"))
}

func TestUpsetRisksSeedBySurfaceRating(t *testing.T) {
	ratings := map[string]float64{"Low": 1400, "High": 1900, "Mid": 1600, "Floor": 1300}
	sim := NewSimulator(fixedRater{ratings: ratings, prob: 0.5}, 1, zerolog.Nop())

	risks := sim.UpsetRisks([]string{"Low", "High", "Mid", "Floor"}, "hard")

	require.Len(t, risks, 2)
	assert.Equal(t, "High", risks[0].Favorite)
	assert.Equal(t, "Mid", risks[0].Underdog)
	assert.Equal(t, "Low", risks[1].Favorite)
	assert.Equal(t, "Floor", risks[1].Underdog)
}
