// Package api exposes HTTP handlers for the runs collection.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"example.com/pacer/internal/domain"
)

const maxBodyBytes = 64 << 10

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
	logger  *zap.Logger
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes wires endpoints to the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/runs", h.listRuns)
	r.Post("/runs", h.createRun)
	r.Get("/health", health)
	r.Get("/healthz", healthz)
}

// health reports service status as a JSON document.
func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.service.ListRuns(r.Context())
	if err != nil {
		h.logger.Error("list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ListRunsResponse{Runs: runs})
}

func (h *Handler) createRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	created, err := h.service.CreateRun(r.Context(), domain.Run{ID: req.ID})
	if err != nil {
		status, code := classify(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("create run failed", zap.String("run_id", req.ID), zap.Error(err))
		}
		writeError(w, status, code, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// classify maps domain errors onto a status and error type.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidRun):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, domain.ErrRunExists):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}

// CreateRunRequest is the payload for POST /runs.
type CreateRunRequest struct {
	ID string `json:"id"`
}

// ListRunsResponse packages list results.
type ListRunsResponse struct {
	Runs []domain.Run `json:"runs"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, ErrorResponse{Type: code, Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
