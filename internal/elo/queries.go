package elo

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"acecast/internal/constants"
	"acecast/internal/domain"
)

var ErrUnknownPlayer = errors.New("unknown player")

// Rating returns a player's overall rating, or the default 1500.0 for a
// player the fold has never seen. No query materializes state.
func (e *Engine) Rating(player string) float64 {
	p, ok := e.players[domain.NormalizeName(player)]
	if !ok {
		return DefaultRating
	}
	return p.Overall
}

// SurfaceRating returns a player's rating on one surface, defaulting to
// 1500.0 for an unknown player or an unplayed surface.
func (e *Engine) SurfaceRating(player, surface string) float64 {
	p, ok := e.players[domain.NormalizeName(player)]
	if !ok {
		return DefaultRating
	}
	return ratingOrDefault(p.Surfaces, domain.NormalizeSurface(surface))
}

// HeadToHead returns a's record against b: Wins are a's wins, Losses are b's.
// A zero record comes back when a is unknown or the two never met.
func (e *Engine) HeadToHead(a, b string) domain.H2HRecord {
	p, ok := e.players[domain.NormalizeName(a)]
	if !ok {
		return domain.H2HRecord{}
	}
	return p.H2HOverall[domain.NormalizeName(b)]
}

func (e *Engine) SurfaceHeadToHead(a, b, surface string) domain.H2HRecord {
	p, ok := e.players[domain.NormalizeName(a)]
	if !ok {
		return domain.H2HRecord{}
	}
	return p.H2HSurface[domain.NormalizeSurface(surface)][domain.NormalizeName(b)]
}

// LastRecord tallies wins and losses over the newest min(n, available)
// entries of the player's bounded form history on a surface. n <= 0 selects
// the default 10-match window.
func (e *Engine) LastRecord(player, surface string, n int) (wins, losses int) {
	if n <= 0 {
		n = constants.DefaultFormWindow
	}
	p, ok := e.players[domain.NormalizeName(player)]
	if !ok {
		return 0, 0
	}
	hist := p.RecentResults[domain.NormalizeSurface(surface)]
	if len(hist) > n {
		hist = hist[len(hist)-n:]
	}
	for _, entry := range hist {
		if entry.Outcome == domain.OutcomeWin {
			wins++
		} else {
			losses++
		}
	}
	return wins, losses
}

// WinProbability estimates a's chance against b on a surface. Surface ratings
// are used only when both players have played that surface; otherwise both
// sides fall back to overall ratings. The fallback is all-or-nothing so the
// two ratings always come from the same track.
func (e *Engine) WinProbability(a, b, surface string) float64 {
	pa, aok := e.players[domain.NormalizeName(a)]
	pb, bok := e.players[domain.NormalizeName(b)]

	if aok && bok {
		s := domain.NormalizeSurface(surface)
		ra, aHas := pa.Surfaces[s]
		rb, bHas := pb.Surfaces[s]
		if aHas && bHas {
			return ExpectedScore(ra, rb)
		}
	}

	ra, rb := DefaultRating, DefaultRating
	if aok {
		ra = pa.Overall
	}
	if bok {
		rb = pb.Overall
	}
	return ExpectedScore(ra, rb)
}

// Snapshot bundles the ratings and formatted last-10 record handed to
// downstream presentation layers.
func (e *Engine) Snapshot(player, surface string) domain.Snapshot {
	wins, losses := e.LastRecord(player, surface, constants.DefaultFormWindow)
	return domain.Snapshot{
		EloSurface:    e.SurfaceRating(player, surface),
		EloOverall:    e.Rating(player),
		Last10Surface: fmt.Sprintf("%d-%d", wins, losses),
	}
}

// Profile is the enriched per-player view: ratings on every canonical
// surface, per-surface recent form, and the newest matches across surfaces.
// TotalMatches counts bounded history entries, so it tops out at the form cap
// per surface. Unknown players yield ErrUnknownPlayer rather than a default.
func (e *Engine) Profile(player, surface string) (*domain.PlayerProfile, error) {
	name := domain.NormalizeName(player)
	p, ok := e.players[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlayer, player)
	}

	surfaceRatings := make(map[string]float64)
	recentForm := make(map[string]domain.FormCount)
	for _, s := range domain.Surfaces() {
		surfaceRatings[s] = ratingOrDefault(p.Surfaces, s)
		wins, losses := e.LastRecord(name, s, constants.DefaultFormWindow)
		recentForm[s] = domain.FormCount{Wins: wins, Losses: losses}
	}

	var recent []domain.FormMatch
	total := 0
	for s, hist := range p.RecentResults {
		total += len(hist)
		tail := hist
		if len(tail) > constants.DefaultFormWindow {
			tail = tail[len(tail)-constants.DefaultFormWindow:]
		}
		for _, entry := range tail {
			recent = append(recent, domain.FormMatch{Result: entry.Outcome, Date: entry.Date, Surface: s})
		}
	}
	sort.SliceStable(recent, func(i, j int) bool {
		if !recent[i].Date.Equal(recent[j].Date) {
			return recent[i].Date.After(recent[j].Date)
		}
		return recent[i].Surface < recent[j].Surface
	})
	if len(recent) > constants.DefaultFormWindow {
		recent = recent[:constants.DefaultFormWindow]
	}

	return &domain.PlayerProfile{
		Name:           name,
		Snapshot:       e.Snapshot(name, surface),
		SurfaceRatings: surfaceRatings,
		RecentForm:     recentForm,
		RecentMatches:  recent,
		TotalMatches:   total,
	}, nil
}

// Players lists every materialized player name in sorted order.
func (e *Engine) Players() []string {
	names := make([]string, 0, len(e.players))
	for name := range e.players {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Matches exposes the sorted record sequence. Callers must treat it as
// read-only.
func (e *Engine) Matches() []domain.MatchRecord {
	return e.matches
}

func (e *Engine) MatchCount() int {
	return len(e.matches)
}

// MaxDate is the newest date across all ingested matches, zero before Ingest
// or for an empty match set.
func (e *Engine) MaxDate() time.Time {
	return e.maxDate
}

// History returns every per-player rating movement in fold order, two entries
// per match. Callers must treat it as read-only.
func (e *Engine) History() []domain.RatingChange {
	return e.history
}

// PlayerRecords exports the final rating state for the archive, with true
// per-player match counts taken from the full record sequence.
func (e *Engine) PlayerRecords() []domain.PlayerRecord {
	counts := make(map[string]int, len(e.players))
	for _, m := range e.matches {
		counts[m.Winner]++
		counts[m.Loser]++
	}

	records := make([]domain.PlayerRecord, 0, len(e.players))
	for _, name := range e.Players() {
		p := e.players[name]
		surfaces := make(map[string]float64, len(p.Surfaces))
		for s, r := range p.Surfaces {
			surfaces[s] = r
		}
		records = append(records, domain.PlayerRecord{
			Name:           name,
			OverallRating:  p.Overall,
			SurfaceRatings: surfaces,
			MatchesPlayed:  counts[name],
		})
	}
	return records
}
