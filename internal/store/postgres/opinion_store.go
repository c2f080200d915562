package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

// OpinionStore implements domain.OpinionStore.
type OpinionStore struct {
	pool *pgxpool.Pool
}

// NewOpinionStore creates an OpinionStore on pool.
func NewOpinionStore(pool *pgxpool.Pool) *OpinionStore {
	return &OpinionStore{pool: pool}
}

// total_volume never decreases, even if a stale chain read arrives late.
const upsertOpinionSQL = `
	INSERT INTO opinions (
		id, question, current_answer, current_answer_description, link,
		current_answer_owner, creator, next_price, last_price, total_volume,
		categories, is_active, sale_price, updated_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9, $10,
		$11, $12, $13, NOW()
	)
	ON CONFLICT (id) DO UPDATE SET
		current_answer             = EXCLUDED.current_answer,
		current_answer_description = EXCLUDED.current_answer_description,
		link                       = EXCLUDED.link,
		current_answer_owner       = EXCLUDED.current_answer_owner,
		next_price                 = EXCLUDED.next_price,
		last_price                 = EXCLUDED.last_price,
		total_volume               = GREATEST(opinions.total_volume, EXCLUDED.total_volume),
		categories                 = EXCLUDED.categories,
		is_active                  = EXCLUDED.is_active,
		sale_price                 = EXCLUDED.sale_price,
		updated_at                 = NOW()`

func opinionArgs(o domain.Opinion) []any {
	categories := o.Categories
	if categories == nil {
		categories = []string{}
	}
	return []any{
		int64(o.ID), o.Question, o.CurrentAnswer, o.CurrentAnswerDescription, o.Link,
		o.CurrentAnswerOwner, o.Creator, o.NextPrice, o.LastPrice, o.TotalVolume,
		categories, o.IsActive, o.SalePrice,
	}
}

// Upsert inserts or refreshes one opinion.
func (s *OpinionStore) Upsert(ctx context.Context, o domain.Opinion) error {
	if _, err := s.pool.Exec(ctx, upsertOpinionSQL, opinionArgs(o)...); err != nil {
		return fmt.Errorf("postgres: upsert opinion %d: %w", o.ID, err)
	}
	return nil
}

// UpsertBatch upserts opinions in one round trip.
func (s *OpinionStore) UpsertBatch(ctx context.Context, opinions []domain.Opinion) error {
	if len(opinions) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, o := range opinions {
		batch.Queue(upsertOpinionSQL, opinionArgs(o)...)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, o := range opinions {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert opinion batch item %d: %w", o.ID, err)
		}
	}
	return nil
}

// UpsertMeta records creation times and on-chain trade counts. A known
// creation time is never replaced and counts only grow.
func (s *OpinionStore) UpsertMeta(ctx context.Context, metas []domain.OpinionMeta) error {
	if len(metas) == 0 {
		return nil
	}
	const query = `
		UPDATE opinions SET
			created_at     = COALESCE(created_at, $2),
			onchain_trades = GREATEST(onchain_trades, $3)
		WHERE id = $1`

	batch := &pgx.Batch{}
	for _, m := range metas {
		batch.Queue(query, int64(m.ID), m.CreatedAt, m.OnChainTrades)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, m := range metas {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert opinion meta %d: %w", m.ID, err)
		}
	}
	return nil
}

const opinionCols = `id, question, current_answer, current_answer_description, link,
	current_answer_owner, creator, next_price, last_price, total_volume,
	categories, is_active, sale_price`

func scanOpinion(row pgx.Row) (domain.Opinion, error) {
	var o domain.Opinion
	var id int64
	err := row.Scan(
		&id, &o.Question, &o.CurrentAnswer, &o.CurrentAnswerDescription, &o.Link,
		&o.CurrentAnswerOwner, &o.Creator, &o.NextPrice, &o.LastPrice, &o.TotalVolume,
		&o.Categories, &o.IsActive, &o.SalePrice,
	)
	o.ID = uint64(id)
	return o, err
}

// GetByID loads one opinion.
func (s *OpinionStore) GetByID(ctx context.Context, id uint64) (domain.Opinion, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+opinionCols+` FROM opinions WHERE id = $1`, int64(id))
	o, err := scanOpinion(row)
	if err != nil {
		if isNoRows(err) {
			return domain.Opinion{}, domain.ErrNotFound
		}
		return domain.Opinion{}, fmt.Errorf("postgres: get opinion %d: %w", id, err)
	}
	return o, nil
}

// List returns one filtered, ordered window plus pagination metadata over
// the filtered set. A zero limit returns every match.
func (s *OpinionStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Opinion, domain.PageInfo, error) {
	where, args := opinionWhere(opts.Filter)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM opinions o`+where, args...).Scan(&total); err != nil {
		return nil, domain.PageInfo{}, fmt.Errorf("postgres: count filtered opinions: %w", err)
	}

	query := `SELECT ` + opinionCols + ` FROM opinions o` + where + opinionOrderBy(opts.Order)
	if opts.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
		args = append(args, opts.Limit, max(opts.Offset, 0))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.PageInfo{}, fmt.Errorf("postgres: list opinions: %w", err)
	}
	defer rows.Close()

	var out []domain.Opinion
	for rows.Next() {
		o, err := scanOpinion(rows)
		if err != nil {
			return nil, domain.PageInfo{}, fmt.Errorf("postgres: scan opinion: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.PageInfo{}, fmt.Errorf("postgres: list opinions: %w", err)
	}

	info := domain.PageInfo{Page: 1, PageSize: total, TotalCount: total, PageCount: 1}
	if opts.Limit > 0 {
		info.PageSize = opts.Limit
		info.Page = max(opts.Offset, 0)/opts.Limit + 1
		info.PageCount = (total + opts.Limit - 1) / opts.Limit
	}
	return out, info, nil
}

// opinionWhere renders f as a WHERE clause over the opinions table aliased
// as o. Search uses strpos so tokens never act as LIKE patterns.
func opinionWhere(f domain.OpinionFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, t := range f.Tokens {
		conds = append(conds, fmt.Sprintf(
			`strpos(lower(o.question || ' ' || o.current_answer), %s) > 0`, arg(strings.ToLower(t))))
	}
	if f.ExcludeAdult {
		conds = append(conds, fmt.Sprintf(`NOT (%s = ANY(o.categories))`, arg(domain.CategoryAdult)))
	}
	switch f.Category {
	case "", domain.CategoryAll:
	case domain.CategoryOther:
		conds = append(conds, fmt.Sprintf(
			`(cardinality(o.categories) = 0 OR %s = ANY(o.categories))`, arg(domain.CategoryOther)))
	default:
		conds = append(conds, fmt.Sprintf(`%s = ANY(o.categories)`, arg(f.Category)))
	}
	if tr := f.Trending; tr != nil {
		conds = append(conds, fmt.Sprintf(`(o.total_volume > %s OR (
			o.total_volume > %s
			AND NOT (o.created_at IS NOT NULL AND o.created_at > %s)
			AND EXISTS (SELECT 1 FROM trade_events t WHERE t.opinion_id = o.id AND t.block_time > %s)))`,
			arg(tr.MinVolume), arg(tr.HotVolume), arg(tr.NewSince), arg(tr.HotSince)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var orderColumns = map[domain.OrderField]string{
	domain.OrderID:        "o.id",
	domain.OrderVolume:    "o.total_volume",
	domain.OrderNextPrice: "o.next_price",
	domain.OrderLastPrice: "o.last_price",
	domain.OrderChange:    "(o.next_price - o.last_price)",
}

func opinionOrderBy(ord domain.OpinionOrder) string {
	col, ok := orderColumns[ord.Field]
	if !ok || ord.Field == domain.OrderID {
		if ord.Desc && ok {
			return ` ORDER BY o.id DESC`
		}
		return ` ORDER BY o.id`
	}
	dir := "ASC"
	if ord.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf(` ORDER BY %s %s, o.id`, col, dir)
}

// Count returns the number of indexed opinions.
func (s *OpinionStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM opinions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count opinions: %w", err)
	}
	return n, nil
}

// Activity aggregates indexed events for ids. Volume24h counts every trade
// in the 24 hours before now.
func (s *OpinionStore) Activity(ctx context.Context, ids []uint64, now time.Time) (map[uint64]domain.OpinionActivity, error) {
	out := make(map[uint64]domain.OpinionActivity, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]int64, len(ids))
	for i, id := range ids {
		keys[i] = int64(id)
	}

	const query = `
		SELECT o.id, o.created_at, o.onchain_trades,
			COUNT(t.block_number),
			MIN(t.block_time), MAX(t.block_time),
			COALESCE(SUM(t.amount) FILTER (WHERE t.block_time >= $2), 0)
		FROM opinions o
		LEFT JOIN trade_events t ON t.opinion_id = o.id
		WHERE o.id = ANY($1)
		GROUP BY o.id, o.created_at, o.onchain_trades`

	rows, err := s.pool.Query(ctx, query, keys, now.Add(-24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("postgres: opinion activity: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  int64
			act domain.OpinionActivity
		)
		if err := rows.Scan(&id, &act.CreatedAt, &act.OnChainTrades, &act.EventCount,
			&act.FirstEventAt, &act.LastEventAt, &act.Volume24h); err != nil {
			return nil, fmt.Errorf("postgres: scan activity: %w", err)
		}
		act.OpinionID = uint64(id)
		out[act.OpinionID] = act
	}
	return out, rows.Err()
}

var _ domain.OpinionStore = (*OpinionStore)(nil)
