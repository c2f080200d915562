package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/opinionmarketcap/internal/service"
)

// HistoryService is what the history endpoints need.
type HistoryService interface {
	PriceHistory(ctx context.Context, id uint64) (service.HistorySeries, error)
	TotalMarketCapHistory(ctx context.Context) service.HistorySeries
}

// HistoryHandler serves chart series.
type HistoryHandler struct {
	history HistoryService
	logger  *slog.Logger
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(history HistoryService, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{history: history, logger: logger}
}

// PriceHistory returns the price series of one opinion.
// GET /api/opinions/{id}/history
func (h *HistoryHandler) PriceHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeDomainError(w, r, h.logger, "price history", err)
		return
	}
	series, err := h.history.PriceHistory(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, h.logger, "price history", err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

// MarketCapHistory returns the total market-cap series.
// GET /api/market-cap/history
func (h *HistoryHandler) MarketCapHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.history.TotalMarketCapHistory(r.Context()))
}
