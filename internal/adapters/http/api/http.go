// Package api serves standings, decisions and game submission over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	service "github.com/okian/pitchrecord/internal/app"
	"github.com/okian/pitchrecord/internal/adapters/repository"
	"github.com/okian/pitchrecord/internal/domain/model"
	"github.com/okian/pitchrecord/internal/domain/review"
	"github.com/okian/pitchrecord/internal/domain/types"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	// Submit queues one game. duplicate is true when the game key was already processed.
	Submit(ctx context.Context, key model.GameKey, era int, plays []model.PlateAppearance) (duplicate bool, err error)

	TopN(ctx context.Context, season, stat string, n int) ([]Entry, error)
	Rank(ctx context.Context, season, stat, pitcherID string) (Entry, error)
	Line(ctx context.Context, season, pitcherID string) (types.Line, error)
	Seasons(ctx context.Context) []string

	Game(ctx context.Context, key model.GameKey) (service.GameResult, error)
	Trace(ctx context.Context, key model.GameKey) (service.GameResult, error)
	Review(reasons ...review.Reason) []review.Flag
}

// Entry mirrors the read shape returned by standings queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	gamesHandler       *GamesHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	reviewHandler      *ReviewHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		gamesHandler:       NewGamesHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		rankHandler:        NewRankHandler(deps),
		reviewHandler:      NewReviewHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /rank/{pitcher}", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
	mux.HandleFunc("GET /pitchers/{pitcher}", MetricsMiddleware(s.rankHandler.HandleGetLine, "pitchers"))
	mux.HandleFunc("GET /games/{season}/{game}", MetricsMiddleware(s.gamesHandler.HandleGetGame, "games_get"))
	mux.HandleFunc("POST /games", MetricsMiddleware(s.gamesHandler.HandlePostGame, "games_post"))
	mux.HandleFunc("GET /review", MetricsMiddleware(s.reviewHandler.HandleGetReview, "review"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeUpstreamError maps service and store errors onto HTTP statuses.
func writeUpstreamError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("%s: %w", op, err))
	case errors.Is(err, repository.ErrUnknownStat), errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, service.ErrEmptyGame), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w", op, err))
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", fmt.Errorf("%s: %w", op, ErrBackpressure))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", fmt.Errorf("%s: %w", op, ErrUnavailable))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", fmt.Errorf("%s: %w", op, err))
	}
}

// seasonParam returns ?season, defaulting to the latest season with standings.
func seasonParam(ctx context.Context, r *http.Request, deps interface {
	Seasons(ctx context.Context) []string
}) (string, error) {
	if s := strings.TrimSpace(r.URL.Query().Get("season")); s != "" {
		return s, nil
	}
	seasons := deps.Seasons(ctx)
	if len(seasons) == 0 {
		return "", fmt.Errorf("%w: no seasons loaded", ErrNotFound)
	}
	return seasons[len(seasons)-1], nil
}

// statParam returns ?stat upper-cased, defaulting to wins.
func statParam(r *http.Request) string {
	stat := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("stat")))
	if stat == "" {
		return model.StatWin
	}
	return stat
}
