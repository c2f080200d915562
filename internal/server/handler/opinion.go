package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
	"github.com/alanyoungcy/opinionmarketcap/internal/market"
)

// OpinionService is what the opinion endpoints need.
type OpinionService interface {
	List(ctx context.Context, q market.Query) (market.Result, error)
	Get(ctx context.Context, id uint64) (domain.OpinionView, error)
}

// OpinionHandler serves opinion listings.
type OpinionHandler struct {
	opinions OpinionService
	logger   *slog.Logger
}

// NewOpinionHandler creates an OpinionHandler.
func NewOpinionHandler(opinions OpinionService, logger *slog.Logger) *OpinionHandler {
	return &OpinionHandler{opinions: opinions, logger: logger}
}

// ListOpinions returns one filtered, sorted page.
// GET /api/opinions?q=&category=&tab=&adult=&minQuality=&sort=&dir=&page=&pageSize=
func (h *OpinionHandler) ListOpinions(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeDomainError(w, r, h.logger, "list opinions", err)
		return
	}
	res, err := h.opinions.List(r.Context(), q)
	if err != nil {
		writeDomainError(w, r, h.logger, "list opinions", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetOpinion returns one decorated opinion.
// GET /api/opinions/{id}
func (h *OpinionHandler) GetOpinion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeDomainError(w, r, h.logger, "get opinion", err)
		return
	}
	v, err := h.opinions.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, h.logger, "get opinion", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func parseQuery(r *http.Request) (market.Query, error) {
	v := r.URL.Query()
	q := market.Query{
		Filter: market.Filter{
			Search:        v.Get("q"),
			Category:      v.Get("category"),
			AdultVerified: queryBool(r, "adult"),
		},
		Sort: market.DefaultSort(),
	}

	switch tab := market.Tab(v.Get("tab")); tab {
	case "", market.TabAll, market.TabTrending, market.TabFeatured:
		q.Filter.Tab = tab
	default:
		return market.Query{}, invalid("tab", string(tab))
	}

	var err error
	if q.Filter.MinQuality, err = queryFloat(r, "minQuality"); err != nil {
		return market.Query{}, err
	}
	if raw := v.Get("sort"); raw != "" {
		if q.Sort.Field, err = market.ParseSortField(raw); err != nil {
			return market.Query{}, err
		}
	}
	if raw := v.Get("dir"); raw != "" {
		if q.Sort.Direction, err = market.ParseDirection(raw); err != nil {
			return market.Query{}, err
		}
	}
	if q.Page, err = queryInt(r, "page", 1); err != nil {
		return market.Query{}, err
	}
	if q.Page > market.MaxPage {
		return market.Query{}, invalid("page", v.Get("page"))
	}
	if q.PageSize, err = queryInt(r, "pageSize", market.DefaultPageSize); err != nil {
		return market.Query{}, err
	}
	q.PageSize = min(q.PageSize, market.MaxPageSize)
	return q, nil
}
