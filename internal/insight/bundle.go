package insight

import (
	"acecast/internal/domain"
	"acecast/internal/tournament"
)

// Querier is the slice of the rating engine the bundle builders need.
type Querier interface {
	Snapshot(player, surface string) domain.Snapshot
	SurfaceRating(player, surface string) float64
	WinProbability(a, b, surface string) float64
	HeadToHead(a, b string) domain.H2HRecord
	SurfaceHeadToHead(a, b, surface string) domain.H2HRecord
}

// Bundles below are the contract boundary with downstream presentation and
// LLM-prompt layers; their JSON key names are load-bearing.

type PlayerCard struct {
	Name     string          `json:"name"`
	Snapshot domain.Snapshot `json:"snapshot"`
}

type MatchCard struct {
	PlayerA PlayerCard `json:"playerA"`
	PlayerB PlayerCard `json:"playerB"`
}

type H2HSplit struct {
	WinsA int `json:"wins_A"`
	WinsB int `json:"wins_B"`
}

type MatchInsight struct {
	Mode       string    `json:"mode"`
	Surface    string    `json:"surface"`
	Match      MatchCard `json:"match"`
	WinProbA   float64   `json:"win_prob_A"`
	WinProbB   float64   `json:"win_prob_B"`
	H2HOverall H2HSplit  `json:"h2h_overall"`
	H2HSurface H2HSplit  `json:"h2h_surface"`
}

type TournamentEntry struct {
	Name       string          `json:"name"`
	SurfaceElo float64         `json:"surface_elo"`
	Snapshot   domain.Snapshot `json:"snapshot"`
	TitleProb  float64         `json:"title_prob"`
}

type TournamentBrief struct {
	Mode          string                 `json:"mode"`
	Surface       string                 `json:"surface"`
	Players       []TournamentEntry      `json:"players"`
	TopUpsetRisks []tournament.UpsetRisk `json:"top_upset_risks"`
}

// BuildMatchInsight assembles the head-to-head context bundle for one
// matchup. The win probabilities always sum to 1; the H2H splits come from
// a's perspective so WinsA + WinsB covers every meeting the engine saw.
func BuildMatchInsight(q Querier, a, b, surface string) *MatchInsight {
	surface = domain.NormalizeSurface(surface)
	probA := q.WinProbability(a, b, surface)
	overall := q.HeadToHead(a, b)
	onSurface := q.SurfaceHeadToHead(a, b, surface)

	return &MatchInsight{
		Mode:    "match_insight",
		Surface: surface,
		Match: MatchCard{
			PlayerA: PlayerCard{Name: a, Snapshot: q.Snapshot(a, surface)},
			PlayerB: PlayerCard{Name: b, Snapshot: q.Snapshot(b, surface)},
		},
		WinProbA:   probA,
		WinProbB:   1 - probA,
		H2HOverall: H2HSplit{WinsA: overall.Wins, WinsB: overall.Losses},
		H2HSurface: H2HSplit{WinsA: onSurface.Wins, WinsB: onSurface.Losses},
	}
}

// BuildTournamentBrief assembles the per-field context bundle from
// precomputed simulator output. Players keep their bracket order.
func BuildTournamentBrief(q Querier, players []string, surface string, titleProbs map[string]float64, risks []tournament.UpsetRisk) *TournamentBrief {
	surface = domain.NormalizeSurface(surface)

	entries := make([]TournamentEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, TournamentEntry{
			Name:       p,
			SurfaceElo: q.SurfaceRating(p, surface),
			Snapshot:   q.Snapshot(p, surface),
			TitleProb:  titleProbs[p],
		})
	}

	if risks == nil {
		risks = []tournament.UpsetRisk{}
	}

	return &TournamentBrief{
		Mode:          "tournament_brief",
		Surface:       surface,
		Players:       entries,
		TopUpsetRisks: risks,
	}
}
