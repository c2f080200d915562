package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// IndexerHandler lets operators request an immediate indexing pass.
type IndexerHandler struct {
	logger    *slog.Logger
	triggerCh chan<- struct{}
}

// NewIndexerHandler creates an IndexerHandler. A nil channel means no
// indexer runs in this process.
func NewIndexerHandler(triggerCh chan<- struct{}, logger *slog.Logger) *IndexerHandler {
	return &IndexerHandler{triggerCh: triggerCh, logger: logger}
}

// Trigger enqueues one pass without blocking; repeated triggers coalesce.
// POST /api/indexer/trigger
func (h *IndexerHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if h.triggerCh == nil {
		writeError(w, http.StatusServiceUnavailable, "indexer not running in this process")
		return
	}
	select {
	case h.triggerCh <- struct{}{}:
	default:
	}
	h.logger.InfoContext(r.Context(), "handler: indexer trigger requested")
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":       "accepted",
		"requested_at": time.Now().UTC().Format(time.RFC3339),
	})
}
