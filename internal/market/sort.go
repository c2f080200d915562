package market

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

// SortField names a sortable column.
type SortField string

const (
	SortID        SortField = "id"
	SortMarketCap SortField = "marketCap"
	SortNextPrice SortField = "nextPrice"
	SortLastPrice SortField = "lastPrice"
	SortVolume    SortField = "volume"
	SortChange    SortField = "change"
	SortTrades    SortField = "trades"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

var sortFields = map[SortField]func(domain.OpinionView) float64{
	SortID:        func(v domain.OpinionView) float64 { return float64(v.ID) },
	SortMarketCap: func(v domain.OpinionView) float64 { return v.TotalVolume },
	SortNextPrice: func(v domain.OpinionView) float64 { return v.NextPrice },
	SortLastPrice: func(v domain.OpinionView) float64 { return v.LastPrice },
	SortVolume:    func(v domain.OpinionView) float64 { return v.TotalVolume },
	SortChange:    func(v domain.OpinionView) float64 { return v.PriceChange() },
	SortTrades:    func(v domain.OpinionView) float64 { return float64(v.TradeCount.Value) },
}

// ParseSortField validates a sort field name.
func ParseSortField(s string) (SortField, error) {
	f := SortField(s)
	if _, ok := sortFields[f]; !ok {
		return "", fmt.Errorf("market: unknown sort field %q: %w", s, domain.ErrInvalidInput)
	}
	return f, nil
}

// ParseDirection validates a sort direction.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Asc, Desc:
		return Direction(s), nil
	}
	return "", fmt.Errorf("market: unknown sort direction %q: %w", s, domain.ErrInvalidInput)
}

// Sort is the single active sort column.
type Sort struct {
	Field     SortField `json:"field"`
	Direction Direction `json:"direction"`
}

// DefaultSort orders by market cap, largest first.
func DefaultSort() Sort {
	return Sort{Field: SortMarketCap, Direction: Desc}
}

// Toggle applies a header click: the same field flips direction, a new
// field starts descending.
func (s Sort) Toggle(field SortField) Sort {
	if s.Field == field {
		if s.Direction == Desc {
			return Sort{Field: field, Direction: Asc}
		}
		return Sort{Field: field, Direction: Desc}
	}
	return Sort{Field: field, Direction: Desc}
}

// Apply returns a sorted copy of views. Equal keys keep their input order
// in both directions.
func (s Sort) Apply(views []domain.OpinionView) []domain.OpinionView {
	out := slices.Clone(views)
	key, ok := sortFields[s.Field]
	if !ok {
		return out
	}
	slices.SortStableFunc(out, func(a, b domain.OpinionView) int {
		c := cmp.Compare(key(a), key(b))
		if s.Direction == Desc {
			return -c
		}
		return c
	})
	return out
}
