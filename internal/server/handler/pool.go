package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
	"github.com/alanyoungcy/opinionmarketcap/internal/pool"
)

// PoolService is what the pool endpoints need.
type PoolService interface {
	Plan(ctx context.Context, id uint64) (pool.Plan, error)
	ByOpinion(ctx context.Context, opinionID uint64) ([]domain.Pool, error)
}

// PoolHandler serves pool endpoints.
type PoolHandler struct {
	pools  PoolService
	logger *slog.Logger
}

// NewPoolHandler creates a PoolHandler.
func NewPoolHandler(pools PoolService, logger *slog.Logger) *PoolHandler {
	return &PoolHandler{pools: pools, logger: logger}
}

// Plan returns the completion plan of a pool.
// GET /api/pools/{id}/plan
func (h *PoolHandler) Plan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeDomainError(w, r, h.logger, "pool plan", err)
		return
	}
	plan, err := h.pools.Plan(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, h.logger, "pool plan", err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// ByOpinion lists the pools of an opinion.
// GET /api/opinions/{id}/pools
func (h *PoolHandler) ByOpinion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeDomainError(w, r, h.logger, "list pools", err)
		return
	}
	pools, err := h.pools.ByOpinion(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, h.logger, "list pools", err)
		return
	}
	if pools == nil {
		pools = []domain.Pool{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"pools": pools})
}
