package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	service "github.com/okian/pitchrecord/internal/app"
	"github.com/okian/pitchrecord/internal/domain/model"
)

const maxGameBody = 1 << 20

// GameDependencies defines the interface for game reads and submissions.
type GameDependencies interface {
	Submit(ctx context.Context, key model.GameKey, era int, plays []model.PlateAppearance) (bool, error)
	Game(ctx context.Context, key model.GameKey) (service.GameResult, error)
	Trace(ctx context.Context, key model.GameKey) (service.GameResult, error)
}

// GamesHandler handles game requests.
type GamesHandler struct {
	deps GameDependencies
}

// NewGamesHandler creates a new games handler.
func NewGamesHandler(deps GameDependencies) *GamesHandler {
	return &GamesHandler{deps: deps}
}

// playRequest is one plate appearance in POST /games.
type playRequest struct {
	Inning       string `json:"inning"`
	Session      int    `json:"session"`
	BatterTeam   string `json:"batter_team"`
	PitcherTeam  string `json:"pitcher_team"`
	HitterID     string `json:"hitter_id"`
	PitcherID    string `json:"pitcher_id"`
	OBC          int    `json:"obc"`
	Outs         int    `json:"outs"`
	ExactResult  string `json:"exact_result"`
	LegacyResult string `json:"legacy_result"`
	Diff         int    `json:"diff"`
	PAType       int    `json:"pa_type"`
}

// gameRequest mirrors the OpenAPI schema for POST /games.
type gameRequest struct {
	Season string        `json:"season"`
	GameID string        `json:"game_id"`
	Era    int           `json:"era"`
	Plays  []playRequest `json:"plays"`
}

func (g gameRequest) validate() error {
	switch {
	case strings.TrimSpace(g.Season) == "":
		return errors.New("missing season")
	case strings.TrimSpace(g.GameID) == "":
		return errors.New("missing game_id")
	case len(g.Plays) == 0:
		return errors.New("missing plays")
	}
	for i, p := range g.Plays {
		switch {
		case strings.TrimSpace(p.Inning) == "":
			return fmt.Errorf("play %d: missing inning", i)
		case strings.TrimSpace(p.PitcherTeam) == "", strings.TrimSpace(p.BatterTeam) == "":
			return fmt.Errorf("play %d: missing team", i)
		case strings.TrimSpace(p.PitcherID) == "":
			return fmt.Errorf("play %d: missing pitcher_id", i)
		case p.OBC < 0 || p.OBC > 7:
			return fmt.Errorf("play %d: obc must be 0-7", i)
		case p.Outs < 0 || p.Outs > 2:
			return fmt.Errorf("play %d: outs must be 0-2", i)
		}
	}
	return nil
}

func (g gameRequest) plays() []model.PlateAppearance {
	out := make([]model.PlateAppearance, len(g.Plays))
	for i, p := range g.Plays {
		out[i] = model.PlateAppearance{
			Season:       g.Season,
			Era:          g.Era,
			GameID:       g.GameID,
			InningLabel:  p.Inning,
			Session:      p.Session,
			BatterTeam:   p.BatterTeam,
			PitcherTeam:  p.PitcherTeam,
			HitterID:     p.HitterID,
			PitcherID:    p.PitcherID,
			OBC:          model.BasesFromCode(p.OBC),
			Outs:         p.Outs,
			ExactResult:  p.ExactResult,
			LegacyResult: p.LegacyResult,
			Diff:         p.Diff,
			PAType:       p.PAType,
			Seq:          i,
		}
	}
	return out
}

type ackResponse struct {
	Status    string        `json:"status"`
	Duplicate bool          `json:"duplicate"`
	Game      model.GameKey `json:"game"`
}

// HandlePostGame handles POST /games requests.
func (h *GamesHandler) HandlePostGame(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_game"
	var req gameRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxGameBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}

	key := model.GameKey{Season: strings.TrimSpace(req.Season), GameID: strings.TrimSpace(req.GameID)}
	dup, err := h.deps.Submit(r.Context(), key, req.Era, req.plays())
	if err != nil {
		writeUpstreamError(w, op, err)
		return
	}
	if dup {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true, Game: key})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Game: key})
}

// HandleGetGame handles GET /games/{season}/{game} requests.
func (h *GamesHandler) HandleGetGame(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_game"
	key := model.GameKey{Season: r.PathValue("season"), GameID: r.PathValue("game")}
	if key.Season == "" || key.GameID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w", op, ErrBadRequest))
		return
	}
	get := h.deps.Game
	if wantTrace(r) {
		get = h.deps.Trace
	}
	g, err := get(r.Context(), key)
	if err != nil {
		writeUpstreamError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// wantTrace reports whether the request asks for the play-by-play replay.
func wantTrace(r *http.Request) bool {
	switch strings.ToLower(r.URL.Query().Get("trace")) {
	case "1", "true", "yes":
		return true
	}
	return false
}
