package elo

import (
	"errors"
	"math"
	"sort"
	"time"

	"acecast/internal/constants"
	"acecast/internal/domain"

	"github.com/rs/zerolog"
)

const (
	DefaultRating            = 1500.0
	DefaultBaseK             = 32.0
	DefaultSurfaceBleed      = 0.2
	DefaultRecencyBoost      = 1.10
	DefaultRecencyWindowDays = 365
)

var ErrAlreadyIngested = errors.New("engine already holds an ingested match set; construct a fresh engine to reprocess")

type Params struct {
	BaseK             float64
	SurfaceBleed      float64
	RecencyBoost      float64
	RecencyWindowDays int
}

// withDefaults treats zero fields as unset.
func (p Params) withDefaults() Params {
	if p.BaseK == 0 {
		p.BaseK = DefaultBaseK
	}
	if p.SurfaceBleed == 0 {
		p.SurfaceBleed = DefaultSurfaceBleed
	}
	if p.RecencyBoost == 0 {
		p.RecencyBoost = DefaultRecencyBoost
	}
	if p.RecencyWindowDays == 0 {
		p.RecencyWindowDays = DefaultRecencyWindowDays
	}
	return p
}

// Engine folds match records chronologically into per-player overall and
// per-surface ratings. Player state is only ever created or mutated by the
// fold; every query is read-only and defaults for unknown players. Once
// Ingest has returned the state never changes, so concurrent readers need no
// locking.
type Engine struct {
	params   Params
	players  map[string]*domain.PlayerState
	matches  []domain.MatchRecord
	maxDate  time.Time
	history  []domain.RatingChange
	ingested bool
	logger   zerolog.Logger
}

func NewEngine(params Params, logger zerolog.Logger) *Engine {
	return &Engine{
		params:  params.withDefaults(),
		players: make(map[string]*domain.PlayerState),
		logger:  logger,
	}
}

// ExpectedScore is the logistic Elo expectation for a player rated ra against
// one rated rb. ExpectedScore(ra, rb) + ExpectedScore(rb, ra) == 1.
func ExpectedScore(ra, rb float64) float64 {
	return 1 / (1 + math.Pow(10, (rb-ra)/400))
}

// Ingest normalizes, sorts and folds records. The sort is stable and by date
// ascending, so records with equal dates keep the caller's source-then-row
// order. The maximum date is fixed here, before the fold, and drives the
// recency boost for every update. A second call returns ErrAlreadyIngested.
func (e *Engine) Ingest(records []domain.MatchRecord) error {
	if e.ingested {
		return ErrAlreadyIngested
	}
	e.ingested = true

	sorted := make([]domain.MatchRecord, len(records))
	for i, r := range records {
		r.Winner = domain.NormalizeName(r.Winner)
		r.Loser = domain.NormalizeName(r.Loser)
		r.Surface = domain.NormalizeSurface(r.Surface)
		sorted[i] = r
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	e.matches = sorted

	for _, m := range sorted {
		if m.Date.After(e.maxDate) {
			e.maxDate = m.Date
		}
	}

	for i, m := range sorted {
		e.applyMatch(i, m)
	}

	e.logger.Info().
		Int("matches", len(sorted)).
		Int("players", len(e.players)).
		Time("max_date", e.maxDate).
		Msg("match fold complete")

	return nil
}

func (e *Engine) applyMatch(idx int, m domain.MatchRecord) {
	winner := e.materialize(m.Winner)
	loser := e.materialize(m.Loser)

	winnerRating := ratingOrDefault(winner.Surfaces, m.Surface)
	loserRating := ratingOrDefault(loser.Surfaces, m.Surface)

	winExpected := ExpectedScore(winnerRating, loserRating)
	loseExpected := 1 - winExpected

	k := e.params.BaseK
	if e.withinRecencyWindow(m.Date) {
		k *= e.params.RecencyBoost
	}

	winnerDelta := k * (1 - winExpected)
	loserDelta := k * (0 - loseExpected)

	winner.Surfaces[m.Surface] = winnerRating + winnerDelta
	loser.Surfaces[m.Surface] = loserRating + loserDelta

	// Overall ratings only track a damped fraction of surface movement.
	winner.Overall += e.params.SurfaceBleed * winnerDelta
	loser.Overall += e.params.SurfaceBleed * loserDelta

	pushForm(winner, m.Surface, domain.FormEntry{Outcome: domain.OutcomeWin, Date: m.Date})
	pushForm(loser, m.Surface, domain.FormEntry{Outcome: domain.OutcomeLoss, Date: m.Date})

	recordWin(winner.H2HOverall, m.Loser)
	recordLoss(loser.H2HOverall, m.Winner)
	recordWin(surfaceH2H(winner, m.Surface), m.Loser)
	recordLoss(surfaceH2H(loser, m.Surface), m.Winner)

	e.history = append(e.history,
		domain.RatingChange{
			MatchIndex:    idx,
			Player:        m.Winner,
			Opponent:      m.Loser,
			Surface:       m.Surface,
			Date:          m.Date,
			Outcome:       domain.OutcomeWin,
			SurfaceDelta:  winnerDelta,
			SurfaceRating: winner.Surfaces[m.Surface],
			OverallRating: winner.Overall,
		},
		domain.RatingChange{
			MatchIndex:    idx,
			Player:        m.Loser,
			Opponent:      m.Winner,
			Surface:       m.Surface,
			Date:          m.Date,
			Outcome:       domain.OutcomeLoss,
			SurfaceDelta:  loserDelta,
			SurfaceRating: loser.Surfaces[m.Surface],
			OverallRating: loser.Overall,
		},
	)
}

// materialize is the only path allowed to create player state.
func (e *Engine) materialize(name string) *domain.PlayerState {
	if p, ok := e.players[name]; ok {
		return p
	}
	p := &domain.PlayerState{
		Overall:       DefaultRating,
		Surfaces:      make(map[string]float64),
		RecentResults: make(map[string][]domain.FormEntry),
		H2HOverall:    make(map[string]domain.H2HRecord),
		H2HSurface:    make(map[string]map[string]domain.H2HRecord),
	}
	e.players[name] = p
	return p
}

// withinRecencyWindow reports whether the match date falls inside the boost
// window, inclusive of the window's last day.
func (e *Engine) withinRecencyWindow(d time.Time) bool {
	if e.maxDate.IsZero() {
		return false
	}
	window := time.Duration(e.params.RecencyWindowDays) * 24 * time.Hour
	return e.maxDate.Sub(d) <= window
}

func pushForm(p *domain.PlayerState, surface string, entry domain.FormEntry) {
	hist := p.RecentResults[surface]
	if len(hist) >= constants.RecentFormCap {
		copy(hist, hist[1:])
		hist[len(hist)-1] = entry
	} else {
		hist = append(hist, entry)
	}
	p.RecentResults[surface] = hist
}

func surfaceH2H(p *domain.PlayerState, surface string) map[string]domain.H2HRecord {
	sub := p.H2HSurface[surface]
	if sub == nil {
		sub = make(map[string]domain.H2HRecord)
		p.H2HSurface[surface] = sub
	}
	return sub
}

func recordWin(m map[string]domain.H2HRecord, opponent string) {
	rec := m[opponent]
	rec.Wins++
	m[opponent] = rec
}

func recordLoss(m map[string]domain.H2HRecord, opponent string) {
	rec := m[opponent]
	rec.Losses++
	m[opponent] = rec
}

func ratingOrDefault(m map[string]float64, surface string) float64 {
	if r, ok := m[surface]; ok {
		return r
	}
	return DefaultRating
}
