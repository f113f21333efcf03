package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Prioritizer/internal/rating"
	"github.com/MikeSquared-Agency/Prioritizer/internal/scoring"
)

type RatingsHandler struct {
	svc    *rating.Service
	logger *slog.Logger
}

func NewRatingsHandler(svc *rating.Service, logger *slog.Logger) *RatingsHandler {
	return &RatingsHandler{svc: svc, logger: logger}
}

// rateRequest names either a stored process or inline value weights.
type rateRequest struct {
	Attributes   []scoring.Attribute `json:"attributes"`
	ProcessID    *uuid.UUID          `json:"process_id,omitempty"`
	ValueWeights map[string]float64  `json:"value_weights,omitempty"`
}

func (h *RatingsHandler) Rate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var (
		result scoring.Rating
		err    error
	)
	switch {
	case req.ProcessID != nil:
		result, err = h.svc.Rate(r.Context(), req.Attributes, *req.ProcessID)
	case req.ValueWeights != nil:
		result, err = h.svc.RateWithWeights(req.Attributes, scoring.StaticWeights(req.ValueWeights))
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "process_id or value_weights is required"})
		return
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *RatingsHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.RecomputeAll(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *RatingsHandler) Frontier(w http.ResponseWriter, r *http.Request) {
	frontier, err := h.svc.Frontier(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if frontier == nil {
		frontier = []scoring.Candidate{}
	}
	writeJSON(w, http.StatusOK, frontier)
}
