package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/deidaraiorek/botanica/internal/logger"
	"github.com/deidaraiorek/botanica/internal/query"
	"github.com/deidaraiorek/botanica/internal/storage"
)

// Catalog is the read side served over HTTP. *query.Cache implements it.
type Catalog interface {
	List(ctx context.Context, f query.Filter) (*query.Page, error)
	Get(ctx context.Context, id string) (*storage.Entity, error)
	Search(ctx context.Context, text string) ([]storage.Entity, error)
	Stats(ctx context.Context) (*storage.Stats, error)
	Categories(ctx context.Context) ([]storage.CategoryCount, error)
}

// HealthChecker reports whether the store is reachable and how many entities
// it holds. *storage.Store implements it.
type HealthChecker interface {
	Health(ctx context.Context) (int, error)
}

type Handler struct {
	catalog Catalog
	health  HealthChecker
	limits  query.Limits
	log     *logger.Logger
}

func NewHandler(catalog Catalog, health HealthChecker, limits query.Limits, log *logger.Logger) *Handler {
	return &Handler{
		catalog: catalog,
		health:  health,
		limits:  limits,
		log:     log.With("component", "api"),
	}
}

func (h *Handler) ListPlants(w http.ResponseWriter, r *http.Request) {
	filter := query.ParseFilter(r.URL.Query(), h.limits)

	page, err := h.catalog.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{
		Success: true,
		Data:    page.Items,
		Total:   page.Total,
		Limit:   page.Limit,
		Offset:  page.Offset,
	})
}

func (h *Handler) GetPlant(w http.ResponseWriter, r *http.Request) {
	entity, err := h.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: entity})
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	results, err := h.catalog.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Success: true, Data: results, Total: len(results)})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.catalog.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: stats})
}

func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: categories})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	count, err := h.health.Health(r.Context())
	if err != nil {
		h.log.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{
			Success: false,
			Status:  "unhealthy",
			Error:   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Success:  true,
		Status:   "healthy",
		Database: "connected",
		Plants:   &count,
	})
}

// fail maps store errors to responses: a missing entity is 404, anything
// else is 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	h.log.Error("request failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
