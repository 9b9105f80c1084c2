package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"acecast/internal/domain"
	"acecast/internal/elo"
	"acecast/internal/service"
	"acecast/internal/tournament"

	"github.com/rs/zerolog"
)

type Server struct {
	engine     *elo.Engine
	playerSvc  *service.PlayerService
	insightSvc *service.InsightService
	logger     zerolog.Logger
}

func New(engine *elo.Engine, playerSvc *service.PlayerService, insightSvc *service.InsightService, logger zerolog.Logger) *Server {
	return &Server{engine: engine, playerSvc: playerSvc, insightSvc: insightSvc, logger: logger}
}

// Handler builds the route table. Method+path patterns keep the dispatch in
// the mux; handlers only decode, delegate and encode.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/players/{name}", s.handleProfile)
	mux.HandleFunc("GET /v1/players/{name}/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /v1/players/{name}/history", s.handleHistory)
	mux.HandleFunc("GET /v1/rating", s.handleRating)
	mux.HandleFunc("GET /v1/win-prob", s.handleWinProb)
	mux.HandleFunc("GET /v1/h2h", s.handleHeadToHead)
	mux.HandleFunc("GET /v1/search", s.handleSearch)
	mux.HandleFunc("GET /v1/rankings", s.handleRankings)
	mux.HandleFunc("POST /v1/insight/match", s.handleMatchInsight)
	mux.HandleFunc("POST /v1/insight/tournament", s.handleTournamentBrief)

	return mux
}

type healthResponse struct {
	Status  string    `json:"status"`
	Matches int       `json:"matches"`
	Players int       `json:"players"`
	MaxDate time.Time `json:"max_date"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Matches: s.engine.MatchCount(),
		Players: len(s.engine.Players()),
		MaxDate: s.engine.MaxDate(),
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	surface := r.URL.Query().Get("surface")

	profile, err := s.playerSvc.Profile(r.Context(), name, surface)
	if err != nil {
		if errors.Is(err, elo.ErrUnknownPlayer) {
			s.writeError(w, http.StatusNotFound, "player not found")
			return
		}
		s.serverError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, profile)
}

type snapshotResponse struct {
	Player   string          `json:"player"`
	Surface  string          `json:"surface"`
	Snapshot domain.Snapshot `json:"snapshot"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	name := domain.NormalizeName(r.PathValue("name"))
	surface := domain.NormalizeSurface(r.URL.Query().Get("surface"))

	s.writeJSON(w, http.StatusOK, snapshotResponse{
		Player:   name,
		Surface:  surface,
		Snapshot: s.engine.Snapshot(name, surface),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	rows, err := s.playerSvc.History(r.Context(), name, limit)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if rows == nil {
		rows = []domain.RatingHistoryRow{}
	}
	s.writeJSON(w, http.StatusOK, rows)
}

type ratingResponse struct {
	Player  string  `json:"player"`
	Surface string  `json:"surface"`
	Rating  float64 `json:"rating"`
	Overall float64 `json:"overall"`
}

func (s *Server) handleRating(w http.ResponseWriter, r *http.Request) {
	player := r.URL.Query().Get("player")
	if player == "" {
		s.writeError(w, http.StatusBadRequest, "player is required")
		return
	}
	surface := domain.NormalizeSurface(r.URL.Query().Get("surface"))

	s.writeJSON(w, http.StatusOK, ratingResponse{
		Player:  domain.NormalizeName(player),
		Surface: surface,
		Rating:  s.engine.SurfaceRating(player, surface),
		Overall: s.engine.Rating(player),
	})
}

type winProbResponse struct {
	A       string  `json:"a"`
	B       string  `json:"b"`
	Surface string  `json:"surface"`
	ProbA   float64 `json:"prob_a"`
	ProbB   float64 `json:"prob_b"`
}

func (s *Server) handleWinProb(w http.ResponseWriter, r *http.Request) {
	a := r.URL.Query().Get("a")
	b := r.URL.Query().Get("b")
	if a == "" || b == "" {
		s.writeError(w, http.StatusBadRequest, "a and b are required")
		return
	}
	surface := domain.NormalizeSurface(r.URL.Query().Get("surface"))

	prob := s.engine.WinProbability(a, b, surface)
	s.writeJSON(w, http.StatusOK, winProbResponse{
		A:       domain.NormalizeName(a),
		B:       domain.NormalizeName(b),
		Surface: surface,
		ProbA:   prob,
		ProbB:   1 - prob,
	})
}

type h2hResponse struct {
	A       string           `json:"a"`
	B       string           `json:"b"`
	Surface string           `json:"surface"`
	Overall domain.H2HRecord `json:"overall"`
	OnSurf  domain.H2HRecord `json:"on_surface"`
}

func (s *Server) handleHeadToHead(w http.ResponseWriter, r *http.Request) {
	a := r.URL.Query().Get("a")
	b := r.URL.Query().Get("b")
	if a == "" || b == "" {
		s.writeError(w, http.StatusBadRequest, "a and b are required")
		return
	}
	surface := domain.NormalizeSurface(r.URL.Query().Get("surface"))

	s.writeJSON(w, http.StatusOK, h2hResponse{
		A:       domain.NormalizeName(a),
		B:       domain.NormalizeName(b),
		Surface: surface,
		Overall: s.engine.HeadToHead(a, b),
		OnSurf:  s.engine.SurfaceHeadToHead(a, b, surface),
	})
}

type searchResponse struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	names, err := s.playerSvc.Search(r.Context(), query)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	s.writeJSON(w, http.StatusOK, searchResponse{Query: query, Suggestions: names})
}

func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	surface := r.URL.Query().Get("surface")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := s.playerSvc.Rankings(r.Context(), surface, limit)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.RankingEntry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

type matchInsightRequest struct {
	PlayerA string `json:"player_a"`
	PlayerB string `json:"player_b"`
	Surface string `json:"surface"`
}

func (s *Server) handleMatchInsight(w http.ResponseWriter, r *http.Request) {
	var req matchInsightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bundle, err := s.insightSvc.MatchInsight(r.Context(), req.PlayerA, req.PlayerB, req.Surface)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, bundle)
}

type tournamentBriefRequest struct {
	Players []string `json:"players"`
	Surface string   `json:"surface"`
	Trials  int      `json:"trials"`
}

func (s *Server) handleTournamentBrief(w http.ResponseWriter, r *http.Request) {
	var req tournamentBriefRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bundle, err := s.insightSvc.TournamentBrief(r.Context(), req.Players, req.Surface, req.Trials)
	if err != nil {
		if errors.Is(err, tournament.ErrBracketSize) ||
			errors.Is(err, tournament.ErrNegativeTrials) ||
			errors.Is(err, tournament.ErrEmptyBracket) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.serverError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, bundle)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, sql.ErrNoRows) {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	s.writeError(w, http.StatusInternalServerError, "internal error")
}
