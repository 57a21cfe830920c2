package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/pitchrecord/internal/domain/types"
)

// RankDependencies defines the interface for per-pitcher reads.
type RankDependencies interface {
	Rank(ctx context.Context, season, stat, pitcherID string) (Entry, error)
	Line(ctx context.Context, season, pitcherID string) (types.Line, error)
	Seasons(ctx context.Context) []string
}

// RankHandler handles rank and decision line requests.
type RankHandler struct {
	deps RankDependencies
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps RankDependencies) *RankHandler {
	return &RankHandler{deps: deps}
}

type rankResponse struct {
	Season string `json:"season"`
	Stat   string `json:"stat"`
	Entry
}

func pitcherParam(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.PathValue("pitcher"))
	if id == "" {
		return "", fmt.Errorf("%w: missing pitcher id", ErrBadRequest)
	}
	return id, nil
}

// HandleGetRank handles GET /rank/{pitcher}?season=S&stat=W requests.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	id, err := pitcherParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	season, err := seasonParam(r.Context(), r, h.deps)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", err)
		return
	}
	stat := statParam(r)

	entry, err := h.deps.Rank(r.Context(), season, stat, id)
	if err != nil {
		writeUpstreamError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rankResponse{Season: season, Stat: stat, Entry: entry})
}

// HandleGetLine handles GET /pitchers/{pitcher}?season=S requests.
func (h *RankHandler) HandleGetLine(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_line"
	id, err := pitcherParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	season, err := seasonParam(r.Context(), r, h.deps)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", err)
		return
	}

	line, err := h.deps.Line(r.Context(), season, id)
	if err != nil {
		writeUpstreamError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, line)
}
