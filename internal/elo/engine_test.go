package elo

import (
	"testing"
	"time"

	"acecast/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine(t *testing.T, params Params) *Engine {
	t.Helper()
	return NewEngine(params, zerolog.Nop())
}

func day(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return d
}

func record(t *testing.T, date, surface, winner, loser string) domain.MatchRecord {
	t.Helper()
	return domain.MatchRecord{
		Date:    day(t, date),
		Surface: surface,
		Winner:  winner,
		Loser:   loser,
		Score:   "6-4 6-4",
		BestOf:  3,
		Round:   "R32",
	}
}

func TestExpectedScoreZeroSum(t *testing.T) {
	pairs := [][2]float64{
		{1500, 1500},
		{1600, 1400},
		{1200, 1900},
		{1500.5, 1499.5},
		{2400, 1000},
	}

	for _, pair := range pairs {
		sum := ExpectedScore(pair[0], pair[1]) + ExpectedScore(pair[1], pair[0])
		assert.InDelta(t, 1.0, sum, 1e-12, "ra=%v rb=%v", pair[0], pair[1])
	}

	assert.InDelta(t, 0.5, ExpectedScore(1500, 1500), 1e-12)
}

func TestColdStartDefaults(t *testing.T) {
	e := testEngine(t, Params{})

	assert.Equal(t, DefaultRating, e.Rating("Unknown Player"))
	assert.Equal(t, DefaultRating, e.SurfaceRating("Unknown Player", "hard"))
	assert.InDelta(t, 0.5, e.WinProbability("Unknown A", "Unknown B", "hard"), 1e-12)
	assert.Equal(t, domain.H2HRecord{}, e.HeadToHead("Unknown A", "Unknown B"))
	assert.Equal(t, domain.H2HRecord{}, e.SurfaceHeadToHead("Unknown A", "Unknown B", "clay"))

	wins, losses := e.LastRecord("Unknown Player", "grass", 10)
	assert.Zero(t, wins)
	assert.Zero(t, losses)

	snap := e.Snapshot("Unknown Player", "hard")
	assert.Equal(t, DefaultRating, snap.EloSurface)
	assert.Equal(t, DefaultRating, snap.EloOverall)
	assert.Equal(t, "0-0", snap.Last10Surface)
}

func TestQueriesNeverMaterializePlayers(t *testing.T) {
	e := testEngine(t, Params{})

	e.Rating("Ghost")
	e.SurfaceRating("Ghost", "clay")
	e.WinProbability("Ghost", "Phantom", "grass")
	e.HeadToHead("Ghost", "Phantom")
	e.LastRecord("Ghost", "hard", 10)
	e.Snapshot("Ghost", "hard")

	assert.Empty(t, e.Players(), "queries must not create player state")

	require.NoError(t, e.Ingest([]domain.MatchRecord{
		record(t, "2023-05-01", "clay", "Ann", "Beth"),
	}))
	assert.Equal(t, []string{"Ann", "Beth"}, e.Players())
}

func TestSingleMatchUpdatesRatingsAndH2H(t *testing.T) {
	e := testEngine(t, Params{})
	require.NoError(t, e.Ingest([]domain.MatchRecord{
		record(t, "2023-03-10", "clay", "Ann", "Beth"),
	}))

	// With equal pre-match ratings the single match carries the recency
	// boost, so the surface delta is 32 * 1.10 * 0.5.
	delta := DefaultBaseK * DefaultRecencyBoost * 0.5

	assert.InDelta(t, DefaultRating+delta, e.SurfaceRating("Ann", "clay"), 1e-9)
	assert.InDelta(t, DefaultRating-delta, e.SurfaceRating("Beth", "clay"), 1e-9)
	assert.Greater(t, e.SurfaceRating("Ann", "clay"), DefaultRating)
	assert.Less(t, e.SurfaceRating("Beth", "clay"), DefaultRating)

	assert.InDelta(t, DefaultRating+DefaultSurfaceBleed*delta, e.Rating("Ann"), 1e-9)
	assert.InDelta(t, DefaultRating-DefaultSurfaceBleed*delta, e.Rating("Beth"), 1e-9)

	assert.Equal(t, domain.H2HRecord{Wins: 1, Losses: 0}, e.HeadToHead("Ann", "Beth"))
	assert.Equal(t, domain.H2HRecord{Wins: 0, Losses: 1}, e.HeadToHead("Beth", "Ann"))
	assert.Equal(t, domain.H2HRecord{Wins: 1, Losses: 0}, e.SurfaceHeadToHead("Ann", "Beth", "clay"))
	assert.Equal(t, domain.H2HRecord{Wins: 0, Losses: 1}, e.SurfaceHeadToHead("Beth", "Ann", "clay"))

	// Untouched surfaces stay at the default.
	assert.Equal(t, DefaultRating, e.SurfaceRating("Ann", "hard"))
	assert.Equal(t, domain.H2HRecord{}, e.SurfaceHeadToHead("Ann", "Beth", "hard"))
}

func TestTwoMatchScenario(t *testing.T) {
	e := testEngine(t, Params{})
	require.NoError(t, e.Ingest([]domain.MatchRecord{
		record(t, "2023-01-01", "hard", "Ann", "Beth"),
		record(t, "2023-06-01", "hard", "Beth", "Ann"),
	}))

	assert.Equal(t, domain.H2HRecord{Wins: 1, Losses: 1}, e.SurfaceHeadToHead("Ann", "Beth", "hard"))
	assert.Equal(t, domain.H2HRecord{Wins: 1, Losses: 1}, e.HeadToHead("Ann", "Beth"))

	annHard := e.SurfaceRating("Ann", "hard")
	bethHard := e.SurfaceRating("Beth", "hard")
	assert.NotEqual(t, DefaultRating, annHard)
	assert.NotEqual(t, DefaultRating, bethHard)

	// Beth won the second match as the lower-rated player, so she nets
	// slightly ahead.
	assert.Greater(t, bethHard, annHard)

	// Surface deltas are equal and opposite, so the pair's surface ratings
	// are conserved.
	assert.InDelta(t, 2*DefaultRating, annHard+bethHard, 1e-9)
}

func TestRecencyBoostWindow(t *testing.T) {
	tests := []struct {
		name      string
		gapDays   int
		oldBoosts bool
	}{
		{"inside window", 100, true},
		{"window edge inclusive", 365, true},
		{"outside window", 366, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testEngine(t, Params{})
			base := day(t, "2020-01-01")
			records := []domain.MatchRecord{
				{Date: base, Surface: "hard", Winner: "Old Winner", Loser: "Old Loser"},
				{Date: base.AddDate(0, 0, tt.gapDays), Surface: "hard", Winner: "New Winner", Loser: "New Loser"},
			}
			require.NoError(t, e.Ingest(records))

			boosted := DefaultBaseK * DefaultRecencyBoost * 0.5
			plain := DefaultBaseK * 0.5

			newGain := e.SurfaceRating("New Winner", "hard") - DefaultRating
			assert.InDelta(t, boosted, newGain, 1e-9, "latest match always sits inside the window")

			oldGain := e.SurfaceRating("Old Winner", "hard") - DefaultRating
			if tt.oldBoosts {
				assert.InDelta(t, boosted, oldGain, 1e-9)
			} else {
				assert.InDelta(t, plain, oldGain, 1e-9)
			}
		})
	}
}

func TestRecencyBoostIgnoresIngestOrder(t *testing.T) {
	// The boost keys off the final max date, not off what has been folded
	// so far, so feeding the newest match first changes nothing.
	forward := testEngine(t, Params{})
	require.NoError(t, forward.Ingest([]domain.MatchRecord{
		record(t, "2020-01-01", "hard", "Ann", "Beth"),
		record(t, "2023-01-01", "hard", "Cara", "Dana"),
	}))

	reversed := testEngine(t, Params{})
	require.NoError(t, reversed.Ingest([]domain.MatchRecord{
		record(t, "2023-01-01", "hard", "Cara", "Dana"),
		record(t, "2020-01-01", "hard", "Ann", "Beth"),
	}))

	assert.Equal(t, forward.SurfaceRating("Ann", "hard"), reversed.SurfaceRating("Ann", "hard"))
	assert.Equal(t, forward.SurfaceRating("Cara", "hard"), reversed.SurfaceRating("Cara", "hard"))
}

func TestFormHistoryCap(t *testing.T) {
	e := testEngine(t, Params{})

	// 55 losses then 5 wins; the cap should evict the oldest losses.
	var records []domain.MatchRecord
	base := day(t, "2020-01-01")
	for i := 0; i < 55; i++ {
		records = append(records, domain.MatchRecord{
			Date: base.AddDate(0, 0, i), Surface: "hard", Winner: "Grinder", Loser: "Candidate",
		})
	}
	for i := 55; i < 60; i++ {
		records = append(records, domain.MatchRecord{
			Date: base.AddDate(0, 0, i), Surface: "hard", Winner: "Candidate", Loser: "Grinder",
		})
	}
	require.NoError(t, e.Ingest(records))

	wins, losses := e.LastRecord("Candidate", "hard", 60)
	assert.Equal(t, 50, wins+losses, "history must be capped at 50 entries")
	assert.Equal(t, 5, wins)
	assert.Equal(t, 45, losses)

	// The newest entries survive at the tail of the window.
	wins, losses = e.LastRecord("Candidate", "hard", 5)
	assert.Equal(t, 5, wins)
	assert.Zero(t, losses)
}

func TestWinProbabilityFallback(t *testing.T) {
	e := testEngine(t, Params{})
	require.NoError(t, e.Ingest([]domain.MatchRecord{
		record(t, "2023-03-10", "clay", "Ann", "Beth"),
	}))

	t.Run("surface ratings when both played it", func(t *testing.T) {
		want := ExpectedScore(e.SurfaceRating("Ann", "clay"), e.SurfaceRating("Beth", "clay"))
		assert.InDelta(t, want, e.WinProbability("Ann", "Beth", "clay"), 1e-12)
	})

	t.Run("overall fallback when neither played the surface", func(t *testing.T) {
		want := ExpectedScore(e.Rating("Ann"), e.Rating("Beth"))
		assert.InDelta(t, want, e.WinProbability("Ann", "Beth", "hard"), 1e-12)
	})

	t.Run("fallback is all-or-nothing", func(t *testing.T) {
		// Ann has a clay rating but the unknown opponent does not, so both
		// sides must drop to overall ratings.
		want := ExpectedScore(e.Rating("Ann"), DefaultRating)
		assert.InDelta(t, want, e.WinProbability("Ann", "Stranger", "clay"), 1e-12)
	})

	t.Run("complementary probabilities", func(t *testing.T) {
		sum := e.WinProbability("Ann", "Beth", "clay") + e.WinProbability("Beth", "Ann", "clay")
		assert.InDelta(t, 1.0, sum, 1e-12)
	})
}

func TestIngestSortsStably(t *testing.T) {
	e := testEngine(t, Params{})
	require.NoError(t, e.Ingest([]domain.MatchRecord{
		record(t, "2023-06-01", "hard", "Late Winner", "Late Loser"),
		{Date: day(t, "2023-01-01"), Surface: "hard", Winner: "First Same Day", Loser: "Opp A", Round: "R32"},
		{Date: day(t, "2023-01-01"), Surface: "hard", Winner: "Second Same Day", Loser: "Opp B", Round: "R16"},
	}))

	matches := e.Matches()
	require.Len(t, matches, 3)
	assert.Equal(t, "First Same Day", matches[0].Winner)
	assert.Equal(t, "Second Same Day", matches[1].Winner)
	assert.Equal(t, "Late Winner", matches[2].Winner)
	assert.Equal(t, day(t, "2023-06-01"), e.MaxDate())
}

func TestIngestNormalizesRecords(t *testing.T) {
	e := testEngine(t, Params{})
	require.NoError(t, e.Ingest([]domain.MatchRecord{
		{Date: day(t, "2023-01-01"), Surface: "Carpet", Winner: "  Carlos   Alcaraz ", Loser: "Jannik Sinner"},
	}))

	assert.Equal(t, []string{"Carlos Alcaraz", "Jannik Sinner"}, e.Players())
	assert.Greater(t, e.SurfaceRating("Carlos Alcaraz", "indoor_hard"), DefaultRating)
	assert.Equal(t, "indoor_hard", e.Matches()[0].Surface)
}

func TestIngestTwiceFails(t *testing.T) {
	e := testEngine(t, Params{})
	require.NoError(t, e.Ingest(nil))
	assert.ErrorIs(t, e.Ingest(nil), ErrAlreadyIngested)
}

func TestParamsOverrides(t *testing.T) {
	e := testEngine(t, Params{BaseK: 10, SurfaceBleed: 0.5, RecencyBoost: 2.0, RecencyWindowDays: 30})
	require.NoError(t, e.Ingest([]domain.MatchRecord{
		record(t, "2023-03-10", "grass", "Ann", "Beth"),
	}))

	delta := 10 * 2.0 * 0.5
	assert.InDelta(t, DefaultRating+delta, e.SurfaceRating("Ann", "grass"), 1e-9)
	assert.InDelta(t, DefaultRating+0.5*delta, e.Rating("Ann"), 1e-9)
}

func TestHistoryRecordsEveryMovement(t *testing.T) {
	e := testEngine(t, Params{})
	require.NoError(t, e.Ingest([]domain.MatchRecord{
		record(t, "2023-01-01", "hard", "Ann", "Beth"),
		record(t, "2023-06-01", "hard", "Beth", "Ann"),
	}))

	history := e.History()
	require.Len(t, history, 4, "two sides per folded match")

	first := history[0]
	assert.Equal(t, 0, first.MatchIndex)
	assert.Equal(t, "Ann", first.Player)
	assert.Equal(t, "Beth", first.Opponent)
	assert.Equal(t, domain.OutcomeWin, first.Outcome)
	assert.Positive(t, first.SurfaceDelta)
	assert.Equal(t, e.SurfaceRating("Ann", "hard"), history[3].SurfaceRating,
		"last entry for a player carries the final rating")

	second := history[1]
	assert.Equal(t, "Beth", second.Player)
	assert.Equal(t, domain.OutcomeLoss, second.Outcome)
	assert.Negative(t, second.SurfaceDelta)
	assert.InDelta(t, 0, first.SurfaceDelta+second.SurfaceDelta, 1e-12,
		"surface deltas are equal and opposite")
}

func TestPlayerRecordsExport(t *testing.T) {
	e := testEngine(t, Params{})
	require.NoError(t, e.Ingest([]domain.MatchRecord{
		record(t, "2023-01-01", "hard", "Ann", "Beth"),
		record(t, "2023-02-01", "clay", "Ann", "Cara"),
	}))

	records := e.PlayerRecords()
	require.Len(t, records, 3)

	byName := make(map[string]domain.PlayerRecord, len(records))
	for _, r := range records {
		byName[r.Name] = r
	}

	ann := byName["Ann"]
	assert.Equal(t, 2, ann.MatchesPlayed)
	assert.Len(t, ann.SurfaceRatings, 2)
	assert.Greater(t, ann.SurfaceRatings["hard"], DefaultRating)
	assert.Greater(t, ann.OverallRating, DefaultRating)

	assert.Equal(t, 1, byName["Beth"].MatchesPlayed)
	assert.Len(t, byName["Cara"].SurfaceRatings, 1)
}

func TestProfile(t *testing.T) {
	e := testEngine(t, Params{})
	require.NoError(t, e.Ingest([]domain.MatchRecord{
		record(t, "2023-01-01", "hard", "Ann", "Beth"),
		record(t, "2023-02-01", "clay", "Ann", "Beth"),
		record(t, "2023-03-01", "clay", "Beth", "Ann"),
	}))

	profile, err := e.Profile("Ann", "clay")
	require.NoError(t, err)

	assert.Equal(t, "Ann", profile.Name)
	assert.Len(t, profile.SurfaceRatings, 4, "profiles cover every canonical surface")
	assert.Equal(t, DefaultRating, profile.SurfaceRatings["grass"])
	assert.Equal(t, domain.FormCount{Wins: 1, Losses: 0}, profile.RecentForm["hard"])
	assert.Equal(t, domain.FormCount{Wins: 1, Losses: 1}, profile.RecentForm["clay"])
	assert.Equal(t, 3, profile.TotalMatches)

	require.Len(t, profile.RecentMatches, 3)
	assert.Equal(t, day(t, "2023-03-01"), profile.RecentMatches[0].Date, "newest first")
	assert.Equal(t, domain.OutcomeLoss, profile.RecentMatches[0].Result)

	assert.Equal(t, profile.Snapshot, e.Snapshot("Ann", "clay"))

	_, err = e.Profile("Nobody", "hard")
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestSnapshotFormat(t *testing.T) {
	e := testEngine(t, Params{})
	require.NoError(t, e.Ingest([]domain.MatchRecord{
		record(t, "2023-01-01", "grass", "Ann", "Beth"),
		record(t, "2023-01-08", "grass", "Ann", "Cara"),
		record(t, "2023-01-15", "grass", "Dana", "Ann"),
	}))

	snap := e.Snapshot("Ann", "grass")
	assert.Equal(t, "2-1", snap.Last10Surface)
	assert.Equal(t, e.SurfaceRating("Ann", "grass"), snap.EloSurface)
	assert.Equal(t, e.Rating("Ann"), snap.EloOverall)
}
