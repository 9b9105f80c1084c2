package domain

import (
	"time"
)

type MatchRecord struct {
	Date    time.Time
	Surface string
	Winner  string
	Loser   string
	Score   string
	BestOf  int
	Round   string
}

const (
	OutcomeWin  = "W"
	OutcomeLoss = "L"
)

type FormEntry struct {
	Outcome string // "W" or "L"
	Date    time.Time
}

// H2HRecord is directional: Wins counts the owner's wins over the opponent,
// Losses the opponent's wins over the owner.
type H2HRecord struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

type PlayerState struct {
	Overall       float64
	Surfaces      map[string]float64
	RecentResults map[string][]FormEntry
	H2HOverall    map[string]H2HRecord
	H2HSurface    map[string]map[string]H2HRecord
}

type Snapshot struct {
	EloSurface    float64 `json:"elo_surface"`
	EloOverall    float64 `json:"elo_overall"`
	Last10Surface string  `json:"last10_surface"` // "{wins}-{losses}"
}

type FormCount struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

type FormMatch struct {
	Result  string    `json:"result"`
	Date    time.Time `json:"date"`
	Surface string    `json:"surface"`
}

type PlayerProfile struct {
	Name           string               `json:"name"`
	Snapshot       Snapshot             `json:"snapshot"`
	SurfaceRatings map[string]float64   `json:"surface_ratings"`
	RecentForm     map[string]FormCount `json:"recent_form"`
	RecentMatches  []FormMatch          `json:"recent_matches"`
	TotalMatches   int                  `json:"total_matches"`
}

// RatingChange is one player's side of a folded match, kept for the archive.
type RatingChange struct {
	MatchIndex    int // position in the sorted match sequence
	Player        string
	Opponent      string
	Surface       string
	Date          time.Time
	Outcome       string
	SurfaceDelta  float64
	SurfaceRating float64 // surface rating after the update
	OverallRating float64 // overall rating after the update
}

type PlayerRecord struct {
	Name           string
	OverallRating  float64
	SurfaceRatings map[string]float64
	MatchesPlayed  int
}

// RatingHistoryRow is the archived form of a RatingChange, keyed by nanoid
// and tied to its archived match.
type RatingHistoryRow struct {
	ID            string    `json:"id"`
	MatchID       string    `json:"match_id"`
	Player        string    `json:"player"`
	Opponent      string    `json:"opponent"`
	Surface       string    `json:"surface"`
	Outcome       string    `json:"outcome"`
	SurfaceDelta  float64   `json:"surface_delta"`
	SurfaceRating float64   `json:"surface_rating"`
	OverallRating float64   `json:"overall_rating"`
	Date          time.Time `json:"date"`
}

type RankingEntry struct {
	Rank          int     `json:"rank"`
	Name          string  `json:"name"`
	Rating        float64 `json:"rating"`
	MatchesPlayed int     `json:"matches_played"`
}

type SimulationRun struct {
	ID        string // uuid
	Surface   string
	Players   int
	Trials    int
	Duration  time.Duration
	CreatedAt time.Time
}

type SimulationEntry struct {
	SimulationID string
	Player       string
	TitleProb    float64
}
