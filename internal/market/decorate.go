package market

import (
	"time"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

// Decorate attaches derived fields to an opinion. Creation time falls back
// to the first indexed trade, which is tagged as an estimate.
func Decorate(o domain.Opinion, act domain.OpinionActivity, now time.Time, th Thresholds) domain.OpinionView {
	v := domain.OpinionView{
		Opinion:   o,
		Volume24h: act.Volume24h,
	}

	switch {
	case act.CreatedAt != nil:
		v.CreatedAt = domain.Observed(*act.CreatedAt)
	case act.FirstEventAt != nil:
		v.CreatedAt = domain.Estimated(*act.FirstEventAt)
	}
	if act.LastEventAt != nil {
		v.LastActivity = domain.Observed(*act.LastEventAt)
	}

	v.TradeCount = DeriveTradeCount(act.OnChainTrades, act.EventCount, o.TotalVolume, o.NextPrice)
	v.Status = DeriveStatus(v, now, th)
	v.QualityScore = QualityScore(v)
	return v
}

// DecorateAll decorates opinions in order. Missing activity yields an
// undecorated view with estimated trade counts.
func DecorateAll(opinions []domain.Opinion, activity map[uint64]domain.OpinionActivity, now time.Time, th Thresholds) []domain.OpinionView {
	out := make([]domain.OpinionView, 0, len(opinions))
	for _, o := range opinions {
		out = append(out, Decorate(o, activity[o.ID], now, th))
	}
	return out
}
