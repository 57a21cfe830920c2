package api

import (
	"net/http"
	"strings"

	"github.com/okian/pitchrecord/internal/domain/review"
)

// ReviewDependencies lists flagged games.
type ReviewDependencies interface {
	Review(reasons ...review.Reason) []review.Flag
}

// ReviewHandler handles review list requests.
type ReviewHandler struct {
	deps ReviewDependencies
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(deps ReviewDependencies) *ReviewHandler {
	return &ReviewHandler{deps: deps}
}

type reviewResponse struct {
	Count int           `json:"count"`
	Flags []review.Flag `json:"flags"`
}

// HandleGetReview handles GET /review?reason=a,b requests.
func (h *ReviewHandler) HandleGetReview(w http.ResponseWriter, r *http.Request) {
	var reasons []review.Reason
	for _, raw := range r.URL.Query()["reason"] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				reasons = append(reasons, review.Reason(part))
			}
		}
	}
	flags := h.deps.Review(reasons...)
	if flags == nil {
		flags = []review.Flag{}
	}
	writeJSON(w, http.StatusOK, reviewResponse{Count: len(flags), Flags: flags})
}
