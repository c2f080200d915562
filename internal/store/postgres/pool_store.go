package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

// PoolStore implements domain.PoolStore.
type PoolStore struct {
	pool *pgxpool.Pool
}

// NewPoolStore creates a PoolStore on pool.
func NewPoolStore(pool *pgxpool.Pool) *PoolStore {
	return &PoolStore{pool: pool}
}

const poolCols = `id, opinion_id, creator, proposed_answer, target_price,
	total_amount, deadline, status`

func scanPool(row pgx.Row) (domain.Pool, error) {
	var (
		p             domain.Pool
		id, opinionID int64
		status        string
		deadline      *time.Time
	)
	err := row.Scan(&id, &opinionID, &p.Creator, &p.ProposedAnswer, &p.TargetPrice,
		&p.TotalAmount, &deadline, &status)
	if deadline != nil {
		p.Deadline = deadline.UTC()
	}
	p.ID = uint64(id)
	p.OpinionID = uint64(opinionID)
	p.Status = domain.PoolStatus(status)
	return p, err
}

// Upsert inserts a pool or refreshes its descriptive fields. Totals and
// status are owned by AddContributions and MarkExecuted.
func (s *PoolStore) Upsert(ctx context.Context, p domain.Pool) error {
	const query = `
		INSERT INTO pools (` + poolCols + `, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (id) DO UPDATE SET
			proposed_answer = EXCLUDED.proposed_answer,
			target_price    = EXCLUDED.target_price,
			deadline        = EXCLUDED.deadline,
			updated_at      = NOW()`
	status := p.Status
	if status == "" {
		status = domain.PoolStatusActive
	}
	var deadline any
	if !p.Deadline.IsZero() {
		deadline = p.Deadline
	}
	_, err := s.pool.Exec(ctx, query,
		int64(p.ID), int64(p.OpinionID), p.Creator, p.ProposedAnswer, p.TargetPrice,
		p.TotalAmount, deadline, string(status),
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert pool %d: %w", p.ID, err)
	}
	return nil
}

// AddContributions stores contributions and adds newly seen ones to the
// pool totals in the same transaction.
func (s *PoolStore) AddContributions(ctx context.Context, cs []domain.PoolContribution) error {
	if len(cs) == 0 {
		return nil
	}
	const insert = `
		INSERT INTO pool_contributions (block_number, log_index, pool_id, contributor, amount, block_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (block_number, log_index) DO NOTHING`
	const bump = `UPDATE pools SET total_amount = total_amount + $2, updated_at = NOW() WHERE id = $1`

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, c := range cs {
			var blockTime any
			if !c.BlockTime.IsZero() {
				blockTime = c.BlockTime
			}
			tag, err := tx.Exec(ctx, insert,
				int64(c.BlockNumber), int32(c.LogIndex), int64(c.PoolID), c.Contributor, c.Amount, blockTime)
			if err != nil {
				return fmt.Errorf("postgres: insert contribution to pool %d: %w", c.PoolID, err)
			}
			if tag.RowsAffected() == 0 {
				continue
			}
			if _, err := tx.Exec(ctx, bump, int64(c.PoolID), c.Amount); err != nil {
				return fmt.Errorf("postgres: bump pool %d: %w", c.PoolID, err)
			}
		}
		return nil
	})
}

// MarkExecuted sets the executed status on ids.
func (s *PoolStore) MarkExecuted(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]int64, len(ids))
	for i, id := range ids {
		keys[i] = int64(id)
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE pools SET status = $2, updated_at = NOW() WHERE id = ANY($1)`,
		keys, string(domain.PoolStatusExecuted))
	if err != nil {
		return fmt.Errorf("postgres: mark pools executed: %w", err)
	}
	return nil
}

// GetByID loads one pool.
func (s *PoolStore) GetByID(ctx context.Context, id uint64) (domain.Pool, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+poolCols+` FROM pools WHERE id = $1`, int64(id))
	p, err := scanPool(row)
	if err != nil {
		if isNoRows(err) {
			return domain.Pool{}, domain.ErrNotFound
		}
		return domain.Pool{}, fmt.Errorf("postgres: get pool %d: %w", id, err)
	}
	return p, nil
}

// ListByOpinion returns the pools of one opinion, newest first.
func (s *PoolStore) ListByOpinion(ctx context.Context, opinionID uint64) ([]domain.Pool, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+poolCols+` FROM pools WHERE opinion_id = $1 ORDER BY id DESC`, int64(opinionID))
	if err != nil {
		return nil, fmt.Errorf("postgres: list pools for opinion %d: %w", opinionID, err)
	}
	defer rows.Close()

	var out []domain.Pool
	for rows.Next() {
		p, err := scanPool(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan pool: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

var _ domain.PoolStore = (*PoolStore)(nil)
