package market

import "github.com/alanyoungcy/opinionmarketcap/internal/domain"

const (
	// DefaultPageSize is the listing page size.
	DefaultPageSize = 20
	// MaxPageSize bounds client-requested page sizes.
	MaxPageSize = 100
	// MaxPage bounds client-requested page numbers.
	MaxPage = 1_000_000
)

// Page describes the returned window.
type Page struct {
	Number     int  `json:"page"`
	Size       int  `json:"pageSize"`
	TotalCount int  `json:"totalCount"`
	TotalPages int  `json:"totalPages"`
	Upstream   bool `json:"upstream"`
}

// Paginate cuts the window [(page-1)*size, page*size) out of views. When
// upstream is non-nil the data source already paginated, so views are
// returned untouched and the upstream totals are trusted; slicing again
// would drop rows.
func Paginate(views []domain.OpinionView, page, size int, upstream *domain.PageInfo) ([]domain.OpinionView, Page) {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}

	if upstream != nil {
		p := Page{
			Number:     upstream.Page,
			Size:       upstream.PageSize,
			TotalCount: upstream.TotalCount,
			TotalPages: upstream.PageCount,
			Upstream:   true,
		}
		if p.Number < 1 {
			p.Number = page
		}
		if p.Size <= 0 {
			p.Size = size
		}
		return views, p
	}

	total := len(views)
	pages := total / size
	if total%size != 0 {
		pages++
	}
	p := Page{
		Number:     page,
		Size:       size,
		TotalCount: total,
		TotalPages: pages,
	}
	// Checked before multiplying so huge page numbers cannot overflow.
	if page > pages {
		return []domain.OpinionView{}, p
	}
	start := (page - 1) * size
	end := start + min(size, total-start)
	return views[start:end], p
}
