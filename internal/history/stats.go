package history

// Stats summarises a series.
type Stats struct {
	First     float64 `json:"first"`
	Last      float64 `json:"last"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Change    float64 `json:"change"`
	ChangePct float64 `json:"changePct"`
}

// Summarize folds points into first/last/high/low and the percentage change
// from first to last. An empty series reports opening everywhere.
func Summarize(points []Point, opening float64) Stats {
	if len(points) == 0 {
		return Stats{First: opening, Last: opening, High: opening, Low: opening}
	}

	s := Stats{
		First: points[0].Value,
		Last:  points[len(points)-1].Value,
		High:  points[0].Value,
		Low:   points[0].Value,
	}
	for _, p := range points[1:] {
		s.High = max(s.High, p.Value)
		s.Low = min(s.Low, p.Value)
	}
	s.Change = s.Last - s.First
	if s.First != 0 {
		s.ChangePct = s.Change / s.First * 100
	}
	return s
}
