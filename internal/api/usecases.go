package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Prioritizer/internal/rating"
	"github.com/MikeSquared-Agency/Prioritizer/internal/scoring"
	"github.com/MikeSquared-Agency/Prioritizer/internal/store"
)

type UseCasesHandler struct {
	store  store.Store
	svc    *rating.Service
	logger *slog.Logger
}

func NewUseCasesHandler(s store.Store, svc *rating.Service, logger *slog.Logger) *UseCasesHandler {
	return &UseCasesHandler{store: s, svc: svc, logger: logger}
}

type createUseCaseRequest struct {
	Label       string              `json:"label"`
	Description string              `json:"description"`
	ProcessID   uuid.UUID           `json:"process_id"`
	Attributes  []scoring.Attribute `json:"attributes"`
	// Scores is the per-label alternative to Attributes, flattened in template order.
	Scores map[string]float64 `json:"scores,omitempty"`
}

func (h *UseCasesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUseCaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Label == "" || req.ProcessID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "label and process_id are required"})
		return
	}

	attrs := req.Attributes
	if req.Scores != nil {
		flat, err := scoring.FlattenScores(h.svc.Tree(), req.Scores)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		attrs = flat
	}

	uc := &store.UseCase{
		Label:       req.Label,
		Description: req.Description,
		ProcessID:   req.ProcessID,
		State:       store.StateDraft,
		Attributes:  attrs,
	}
	if err := h.store.CreateUseCase(r.Context(), uc); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, uc)
}

func (h *UseCasesHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter store.UseCaseFilter
	q := r.URL.Query()

	if v := q.Get("process_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid process_id"})
			return
		}
		filter.ProcessID = &id
	}
	if v := q.Get("state"); v != "" {
		state := store.UseCaseState(v)
		filter.State = &state
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid offset"})
			return
		}
		filter.Offset = n
	}

	useCases, err := h.store.ListUseCases(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if useCases == nil {
		useCases = []*store.UseCase{}
	}
	writeJSON(w, http.StatusOK, useCases)
}

func (h *UseCasesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	uc, err := h.store.GetUseCase(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, uc)
}

type updateUseCaseRequest struct {
	Label       *string             `json:"label,omitempty"`
	Description *string             `json:"description,omitempty"`
	ProcessID   *uuid.UUID          `json:"process_id,omitempty"`
	Attributes  []scoring.Attribute `json:"attributes,omitempty"`
}

// Update patches a use case. Any change returns it to draft until rated again.
func (h *UseCasesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req updateUseCaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	uc, err := h.store.GetUseCase(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.Label != nil {
		uc.Label = *req.Label
	}
	if req.Description != nil {
		uc.Description = *req.Description
	}
	if req.ProcessID != nil {
		uc.ProcessID = *req.ProcessID
	}
	if req.Attributes != nil {
		uc.Attributes = req.Attributes
	}

	if err := h.store.UpdateUseCase(r.Context(), uc); err != nil {
		writeError(w, h.logger, err)
		return
	}
	updated, err := h.store.GetUseCase(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *UseCasesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteUseCase(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Rate rates the stored use case and persists the outcome.
func (h *UseCasesHandler) Rate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	uc, err := h.svc.RateUseCase(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, uc)
}

// Explain returns the per-category breakdown without saving it.
func (h *UseCasesHandler) Explain(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.Explain(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"use_case_id": id,
		"rating":      result,
	})
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}
