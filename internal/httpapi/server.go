// Package httpapi exposes the placement engine over HTTP for producers that
// push payloads remotely and for tooling that inspects placements.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matthetz/scrim/pkg/engine"
	"github.com/matthetz/scrim/pkg/errors"
	"github.com/matthetz/scrim/pkg/item"
)

// Handler wires engine operations to HTTP endpoints.
type Handler struct {
	engine *engine.Engine
	logger *log.Logger
}

// New constructs a handler around an engine. logger may be nil.
func New(e *engine.Engine, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{engine: e, logger: logger}
}

// Router builds the full route tree.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.HandleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/items", h.HandleIngest)
		r.Delete("/items", h.HandleClearAll)
		r.Get("/placements", h.HandlePlacements)
		r.Get("/cache", h.HandleCache)
		r.Delete("/cache", h.HandleCacheReset)
		r.Post("/editing", h.HandleEditing)
	})
	return r
}

// HandleHealth handles GET /healthz.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"items":  h.engine.Store().Len(),
	})
}

// HandleIngest handles POST /v1/items. The body is a single payload record;
// malformed records are accepted with status "dropped" rather than rejected,
// matching the ingest pipeline's tolerance.
func (h *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	var p item.Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidPayload, err, "decode payload"))
		return
	}

	res := h.engine.Ingest(r.Context(), p)
	status := http.StatusOK
	if res.Status == item.StatusStored {
		status = http.StatusCreated
	}
	writeJSON(w, status, IngestResponse{
		ID:     p.ID,
		Status: string(res.Status),
		Reason: res.Reason,
	})
}

// HandleClearAll handles DELETE /v1/items.
func (h *Handler) HandleClearAll(w http.ResponseWriter, r *http.Request) {
	h.engine.Ingest(r.Context(), item.Payload{Type: item.TypeClearAll})
	w.WriteHeader(http.StatusNoContent)
}

// HandlePlacements handles GET /v1/placements?w=&h=. It runs one repaint for
// the requested viewport and returns the computed transforms.
func (h *Handler) HandlePlacements(w http.ResponseWriter, r *http.Request) {
	viewW, err := parseDim(r.URL.Query().Get("w"))
	if err != nil {
		writeError(w, err)
		return
	}
	viewH, err := parseDim(r.URL.Query().Get("h"))
	if err != nil {
		writeError(w, err)
		return
	}

	res := h.engine.Repaint(r.Context(), viewW, viewH)
	writeJSON(w, http.StatusOK, FromResult(res, h.engine.Viewport(viewW, viewH)))
}

// HandleCache handles GET /v1/cache.
func (h *Handler) HandleCache(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Cache().Snapshot())
}

// HandleCacheReset handles DELETE /v1/cache.
func (h *Handler) HandleCacheReset(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Cache().Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleEditing handles POST /v1/editing. External controllers report when a
// drag or edit session starts and ends so snapshot flushes tighten up while
// positions churn.
func (h *Handler) HandleEditing(w http.ResponseWriter, r *http.Request) {
	var req EditingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidPayload, err, "decode editing state"))
		return
	}
	h.engine.SetActiveEditing(req.Active)
	w.WriteHeader(http.StatusNoContent)
}

func parseDim(raw string) (float64, error) {
	if raw == "" {
		return 0, errors.New(errors.ErrCodeInvalidPayload, "missing viewport dimension")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidPayload, err, "parse viewport dimension %q", raw)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidPayload, errors.ErrCodeInvalidKind,
		errors.ErrCodeInvalidVector, errors.ErrCodeInvalidConfig,
		errors.ErrCodeInvalidAnchor:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeItemNotFound, errors.ErrCodeGroupNotFound:
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{
		"error": errors.UserMessage(err),
		"code":  string(errors.GetCode(err)),
	})
}
