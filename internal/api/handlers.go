package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/esraeslem/hm-global-price-tracker/internal/database"
	"github.com/esraeslem/hm-global-price-tracker/internal/region"
)

// Store covers the read queries the dashboard needs (for testing)
type Store interface {
	GetProduct(ctx context.Context, articleCode string) (*database.Product, error)
	ProductHistory(ctx context.Context, articleCode string, limit int) ([]database.PriceObservation, error)
	LatestObservations(ctx context.Context, regionFilter string, limit int) ([]database.PriceObservation, error)
	RegionSummaries(ctx context.Context) ([]database.RegionSummary, error)
}

type Handlers struct {
	store  Store
	logger *slog.Logger
}

func NewHandlers(store Store, logger *slog.Logger) *Handlers {
	return &Handlers{
		store:  store,
		logger: logger.With("component", "api"),
	}
}

// RegionInfo is the public shape of a supported region.
type RegionInfo struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// ListRegions returns the closed set of supported regions.
func (h *Handlers) ListRegions(w http.ResponseWriter, r *http.Request) {
	regions := region.All()
	out := make([]RegionInfo, 0, len(regions))
	for _, reg := range regions {
		out = append(out, RegionInfo{
			Code:     string(reg.Code),
			Name:     reg.Name,
			Currency: reg.Currency,
		})
	}
	h.respondJSON(w, http.StatusOK, out)
}

// ProductResponse bundles a product identity with its observation history.
type ProductResponse struct {
	Product      *database.Product          `json:"product"`
	Observations []database.PriceObservation `json:"observations"`
}

// GetProduct returns one product and its recent price history across regions.
func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	articleCode := chi.URLParam(r, "articleCode")
	if articleCode == "" {
		h.respondError(w, http.StatusBadRequest, "article code is required")
		return
	}

	product, err := h.store.GetProduct(r.Context(), articleCode)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "product not found")
		return
	}

	history, err := h.store.ProductHistory(r.Context(), articleCode, queryLimit(r, 100))
	if err != nil {
		h.logger.Error("failed to load product history", "article_code", articleCode, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	h.respondJSON(w, http.StatusOK, ProductResponse{
		Product:      product,
		Observations: history,
	})
}

// LatestObservations returns the most recent observation per product and
// region, optionally filtered with ?region=.
func (h *Handlers) LatestObservations(w http.ResponseWriter, r *http.Request) {
	regionFilter := r.URL.Query().Get("region")
	if regionFilter != "" {
		reg, err := region.Get(regionFilter)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "unknown region")
			return
		}
		regionFilter = string(reg.Code)
	}

	observations, err := h.store.LatestObservations(r.Context(), regionFilter, queryLimit(r, 100))
	if err != nil {
		h.logger.Error("failed to load latest observations", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load observations")
		return
	}

	h.respondJSON(w, http.StatusOK, observations)
}

// RegionSummaries returns per-region aggregates for the dashboard overview.
func (h *Handlers) RegionSummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.store.RegionSummaries(r.Context())
	if err != nil {
		h.logger.Error("failed to load region summaries", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load summaries")
		return
	}

	h.respondJSON(w, http.StatusOK, summaries)
}

func queryLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
