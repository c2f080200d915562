package market

import "github.com/alanyoungcy/opinionmarketcap/internal/domain"

// Query is one listing request.
type Query struct {
	Filter   Filter `json:"filter"`
	Sort     Sort   `json:"sort"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
	// Upstream is set when the views are already a server-side page.
	Upstream *domain.PageInfo `json:"-"`
}

// Result is one listing page.
type Result struct {
	Items []domain.OpinionView `json:"items"`
	Page  Page                 `json:"pagination"`
	// Matched counts the views that passed the filter before pagination;
	// for an upstream page it is the upstream total.
	Matched int  `json:"matched"`
	Sort    Sort `json:"sort"`
}

// Run filters, sorts and paginates views. It does not modify its input and
// returns the same result for the same arguments.
func Run(views []domain.OpinionView, q Query, th Thresholds) Result {
	if q.Sort.Field == "" {
		q.Sort = DefaultSort()
	}
	if q.Sort.Direction == "" {
		q.Sort.Direction = Desc
	}

	filtered := q.Filter.Apply(views, th)
	sorted := q.Sort.Apply(filtered)
	items, page := Paginate(sorted, q.Page, q.PageSize, q.Upstream)
	matched := len(filtered)
	if q.Upstream != nil {
		matched = q.Upstream.TotalCount
	}

	return Result{
		Items:   items,
		Page:    page,
		Matched: matched,
		Sort:    q.Sort,
	}
}
