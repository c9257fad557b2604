package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/yndnr/stm-go/internal/telemetry/logger"
	"github.com/yndnr/stm-go/pkg/stm"
)

// Engine is the part of *stm.STM the handlers read.
type Engine interface {
	Stats() stm.Stats
	LiveIDs() []stm.CellID
	Lookup(id stm.CellID) (stm.Handle, bool)
	ViewState(h stm.Handle) (stm.Value, bool)
}

// Handler serves the admin API.
type Handler struct {
	engine Engine
	logger *slog.Logger
	ready  atomic.Bool
	mux    *http.ServeMux
}

// New creates a Handler. It reports ready until SetReady(false).
func New(engine Engine, logger *slog.Logger) *Handler {
	h := &Handler{
		engine: engine,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	h.ready.Store(true)
	h.registerRoutes()
	return h
}

// SetReady toggles the /ready probe.
func (h *Handler) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	h.mux.HandleFunc("GET /v1/stats", h.handleStats)
	h.mux.HandleFunc("GET /v1/cells", h.handleListCells)
	h.mux.HandleFunc("GET /v1/cells/{id}", h.handleGetCell)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := logger.RequestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(NewResponse(requestID, data)); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID := logger.RequestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(NewErrorResponse(requestID, code, message))
}

// handleEngineError maps stm errors onto HTTP responses.
func (h *Handler) handleEngineError(w http.ResponseWriter, r *http.Request, err error) {
	code := stm.ErrorCode(err)
	if code == "" {
		h.logger.Error("internal error", "error", err)
		h.writeError(w, r, http.StatusInternalServerError, "STM-SYS-5000", "internal server error")
		return
	}
	h.writeError(w, r, errorCodeToHTTPStatus(code), code, err.Error())
}

func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasPrefix(code, "STM-ARG-"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasPrefix(code, "STM-TXN-409"):
		return http.StatusConflict
	case strings.HasSuffix(code, "-5030"):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
