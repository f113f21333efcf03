package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/MikeSquared-Agency/Prioritizer/internal/rating"
	"github.com/MikeSquared-Agency/Prioritizer/internal/scoring"
)

type WeightsHandler struct {
	svc    *rating.Service
	logger *slog.Logger
}

func NewWeightsHandler(svc *rating.Service, logger *slog.Logger) *WeightsHandler {
	return &WeightsHandler{svc: svc, logger: logger}
}

type computeWeightsRequest struct {
	Labels []string               `json:"labels"`
	Pairs  []scoring.CategoryPair `json:"pairs"`
	MaxCR  *float64               `json:"max_cr,omitempty"`
}

type computeWeightsResponse struct {
	scoring.WeightVector
	Consistent bool `json:"consistent"`
}

// Compute solves an ad-hoc judgment set. It does not touch the template.
func (h *WeightsHandler) Compute(w http.ResponseWriter, r *http.Request) {
	var req computeWeightsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	vector, err := scoring.ComputeWeights(req.Labels, req.Pairs)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	maxCR := scoring.DefaultMaxConsistencyRatio
	if req.MaxCR != nil {
		maxCR = *req.MaxCR
	}
	writeJSON(w, http.StatusOK, computeWeightsResponse{
		WeightVector: vector,
		Consistent:   vector.Consistent(maxCR),
	})
}

func (h *WeightsHandler) Template(w http.ResponseWriter, r *http.Request) {
	tree := h.svc.Tree()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"template": tree,
		"labels":   tree.Labels(),
	})
}

type judgmentsRequest struct {
	Pairs []scoring.CategoryPair `json:"pairs"`
}

// ReplaceJudgments reweights the template and rerates every use case.
func (h *WeightsHandler) ReplaceJudgments(w http.ResponseWriter, r *http.Request) {
	var req judgmentsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.DeriveWeights(r.Context(), req.Pairs)
	if errors.Is(err, scoring.ErrInconsistentJudgments) {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":  err.Error(),
			"layers": result.Layers,
		})
		return
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
