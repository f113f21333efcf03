package api

import (
	"log/slog"
	"net/http"

	"github.com/MikeSquared-Agency/Prioritizer/internal/rating"
	"github.com/MikeSquared-Agency/Prioritizer/internal/store"
)

type ProcessesHandler struct {
	store  store.Store
	svc    *rating.Service
	logger *slog.Logger
}

func NewProcessesHandler(s store.Store, svc *rating.Service, logger *slog.Logger) *ProcessesHandler {
	return &ProcessesHandler{store: s, svc: svc, logger: logger}
}

type createProcessRequest struct {
	Label        string             `json:"label"`
	ValueWeights map[string]float64 `json:"value_weights"`
}

func (h *ProcessesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProcessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Label == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "label is required"})
		return
	}

	p := &store.Process{Label: req.Label, ValueWeights: req.ValueWeights}
	if err := h.store.CreateProcess(r.Context(), p); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProcessesHandler) List(w http.ResponseWriter, r *http.Request) {
	processes, err := h.store.ListProcesses(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, processes)
}

func (h *ProcessesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	p, err := h.store.GetProcess(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type setWeightsRequest struct {
	Weights map[string]float64 `json:"weights"`
}

// SetWeights updates value item weights and rerates the process's use cases.
func (h *ProcessesHandler) SetWeights(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req setWeightsRequest
	if err := decodeJSON(r, &req); err != nil || len(req.Weights) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "weights are required"})
		return
	}

	if err := h.store.SetProcessWeights(r.Context(), id, req.Weights); err != nil {
		writeError(w, h.logger, err)
		return
	}
	summary, err := h.svc.RecomputeProcess(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	p, err := h.store.GetProcess(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"process":   p,
		"recompute": summary,
	})
}

func (h *ProcessesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteProcess(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
