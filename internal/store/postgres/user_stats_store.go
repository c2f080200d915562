package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

// DefaultCreatorFeeRate is the creator's share of every trade on their
// opinions.
const DefaultCreatorFeeRate = 0.03

// UserStatsStore computes domain.UserStats from indexed records. Shares and
// watchlist counts are not on chain and stay zero here.
type UserStatsStore struct {
	pool           *pgxpool.Pool
	creatorFeeRate float64
}

// NewUserStatsStore creates a UserStatsStore on pool.
func NewUserStatsStore(pool *pgxpool.Pool, creatorFeeRate float64) *UserStatsStore {
	if creatorFeeRate <= 0 {
		creatorFeeRate = DefaultCreatorFeeRate
	}
	return &UserStatsStore{pool: pool, creatorFeeRate: creatorFeeRate}
}

// Stats aggregates every indexed record of address.
func (s *UserStatsStore) Stats(ctx context.Context, address string) (domain.UserStats, error) {
	addr := strings.ToLower(strings.TrimSpace(address))
	if addr == "" {
		return domain.UserStats{}, fmt.Errorf("postgres: user stats: empty address: %w", domain.ErrInvalidInput)
	}
	st := domain.UserStats{Address: addr}
	var firstSeen []*time.Time

	var (
		buys, sells float64
		firstTrade  *time.Time
	)
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(amount), 0),
			COALESCE(SUM(amount) FILTER (WHERE kind = 'buy'), 0),
			COALESCE(SUM(amount) FILTER (WHERE kind = 'sell'), 0),
			MIN(block_time)
		FROM trade_events WHERE actor = $1`, addr,
	).Scan(&st.TradesCount, &st.VolumeTraded, &buys, &sells, &firstTrade)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("postgres: user trades %s: %w", addr, err)
	}
	st.ProfitEarned = max(sells-buys, 0)
	firstSeen = append(firstSeen, firstTrade)

	// A holding lasts from a buy until the next buy of the same opinion.
	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(EXTRACT(EPOCH FROM (COALESCE(h.next_at, NOW()) - h.block_time)) / 3600), 0)::float8
		FROM (
			SELECT actor, block_time,
				LEAD(block_time) OVER (PARTITION BY opinion_id ORDER BY block_number, log_index) AS next_at
			FROM trade_events WHERE kind = 'buy'
		) h
		WHERE h.actor = $1 AND h.block_time IS NOT NULL`, addr,
	).Scan(&st.LongestHoldHours)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("postgres: user hold duration %s: %w", addr, err)
	}

	var (
		firstCreated *time.Time
		creatorVol   float64
	)
	err = s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM opinions WHERE creator = $1),
			(SELECT MIN(created_at) FROM opinions WHERE creator = $1),
			(SELECT COALESCE(SUM(t.amount), 0) FROM trade_events t
				JOIN opinions o ON o.id = t.opinion_id
				WHERE o.creator = $1 AND t.kind = 'buy')`, addr,
	).Scan(&st.OpinionsCreated, &firstCreated, &creatorVol)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("postgres: user creations %s: %w", addr, err)
	}
	st.CreatorFees = creatorVol * s.creatorFeeRate
	firstSeen = append(firstSeen, firstCreated)

	var firstContribution *time.Time
	err = s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM pools WHERE creator = $1),
			(SELECT COALESCE(SUM(amount), 0) FROM pool_contributions WHERE contributor = $1),
			(SELECT COUNT(DISTINCT c.pool_id) FROM pool_contributions c
				JOIN pools p ON p.id = c.pool_id
				WHERE c.contributor = $1 AND p.status = 'executed'),
			(SELECT MIN(block_time) FROM pool_contributions WHERE contributor = $1)`, addr,
	).Scan(&st.PoolsCreated, &st.PoolContributions, &st.PoolsCompleted, &firstContribution)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("postgres: user pools %s: %w", addr, err)
	}
	firstSeen = append(firstSeen, firstContribution)

	if err := s.ranks(ctx, addr, &st); err != nil {
		return domain.UserStats{}, err
	}

	for _, t := range firstSeen {
		if t != nil && (st.FirstSeen == nil || t.Before(*st.FirstSeen)) {
			v := t.UTC()
			st.FirstSeen = &v
		}
	}
	return st, nil
}

// ranks fills the volume leaderboard rank, the best per-category rank and
// the places gained over the last week.
func (s *UserStatsStore) ranks(ctx context.Context, addr string, st *domain.UserStats) error {
	var cur, prev *int64
	err := s.pool.QueryRow(ctx, `
		WITH cur AS (
			SELECT actor, RANK() OVER (ORDER BY SUM(amount) DESC) AS r
			FROM trade_events GROUP BY actor
		), prev AS (
			SELECT actor, RANK() OVER (ORDER BY SUM(amount) DESC) AS r
			FROM trade_events WHERE block_time < $2 GROUP BY actor
		)
		SELECT (SELECT r FROM cur WHERE actor = $1), (SELECT r FROM prev WHERE actor = $1)`,
		addr, time.Now().Add(-7*24*time.Hour),
	).Scan(&cur, &prev)
	if err != nil {
		return fmt.Errorf("postgres: user rank %s: %w", addr, err)
	}
	if cur != nil {
		r := int(*cur)
		st.LeaderboardRank = &r
		if prev != nil {
			st.WeeklyRankImprovement = int(*prev) - r
		}
	}

	var best *int64
	err = s.pool.QueryRow(ctx, `
		SELECT MIN(r) FROM (
			SELECT t.actor,
				RANK() OVER (PARTITION BY c.category ORDER BY SUM(t.amount) DESC) AS r
			FROM trade_events t
			JOIN opinions o ON o.id = t.opinion_id
			CROSS JOIN LATERAL unnest(o.categories) AS c(category)
			GROUP BY c.category, t.actor
		) ranked
		WHERE actor = $1`, addr,
	).Scan(&best)
	if err != nil {
		return fmt.Errorf("postgres: user category rank %s: %w", addr, err)
	}
	if best != nil {
		r := int(*best)
		st.CategoryRank = &r
	}
	return nil
}

var _ domain.UserStatsProvider = (*UserStatsStore)(nil)
