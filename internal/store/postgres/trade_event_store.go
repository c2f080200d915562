package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

const indexerCursorName = "opinion_events"

// TradeEventStore implements domain.TradeEventStore.
type TradeEventStore struct {
	pool *pgxpool.Pool
}

// NewTradeEventStore creates a TradeEventStore on pool.
func NewTradeEventStore(pool *pgxpool.Pool) *TradeEventStore {
	return &TradeEventStore{pool: pool}
}

const tradeEventCols = `block_number, log_index, tx_hash, opinion_id, answer_id,
	actor, amount, new_price, kind, block_time`

func scanTradeEvents(rows pgx.Rows) ([]domain.TradeEvent, error) {
	defer rows.Close()
	var out []domain.TradeEvent
	for rows.Next() {
		var (
			e                          domain.TradeEvent
			block, opinionID, answerID int64
			logIndex                   int32
			kind                       string
			blockTime                  *time.Time
		)
		if err := rows.Scan(&block, &logIndex, &e.TxHash, &opinionID, &answerID,
			&e.Actor, &e.Amount, &e.NewPrice, &kind, &blockTime); err != nil {
			return nil, err
		}
		if blockTime != nil {
			e.BlockTime = blockTime.UTC()
		}
		e.BlockNumber = uint64(block)
		e.LogIndex = uint(logIndex)
		e.OpinionID = uint64(opinionID)
		e.AnswerID = uint64(answerID)
		e.Kind = domain.TradeKind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

// InsertBatch stores events. Replays of the same (block, log index) are
// ignored.
func (s *TradeEventStore) InsertBatch(ctx context.Context, events []domain.TradeEvent) error {
	if len(events) == 0 {
		return nil
	}
	const query = `
		INSERT INTO trade_events (` + tradeEventCols + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (block_number, log_index) DO NOTHING`

	batch := &pgx.Batch{}
	for _, e := range events {
		var blockTime any
		if !e.BlockTime.IsZero() {
			blockTime = e.BlockTime
		}
		batch.Queue(query,
			int64(e.BlockNumber), int32(e.LogIndex), e.TxHash, int64(e.OpinionID), int64(e.AnswerID),
			e.Actor, e.Amount, e.NewPrice, string(e.Kind), blockTime,
		)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range events {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert trade event batch item %d: %w", i, err)
		}
	}
	return nil
}

// LastBlock returns the indexer cursor, 0 when nothing was indexed yet.
func (s *TradeEventStore) LastBlock(ctx context.Context) (uint64, error) {
	var block int64
	err := s.pool.QueryRow(ctx,
		`SELECT block FROM indexer_cursor WHERE name = $1`, indexerCursorName,
	).Scan(&block)
	if err != nil {
		if isNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("postgres: last block: %w", err)
	}
	return uint64(block), nil
}

// SetLastBlock moves the indexer cursor forward. It never moves back.
func (s *TradeEventStore) SetLastBlock(ctx context.Context, block uint64) error {
	const query = `
		INSERT INTO indexer_cursor (name, block, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET
			block      = GREATEST(indexer_cursor.block, EXCLUDED.block),
			updated_at = NOW()`
	if _, err := s.pool.Exec(ctx, query, indexerCursorName, int64(block)); err != nil {
		return fmt.Errorf("postgres: set last block %d: %w", block, err)
	}
	return nil
}

// ListByOpinion returns the events of one opinion in chain order.
func (s *TradeEventStore) ListByOpinion(ctx context.Context, opinionID uint64) ([]domain.TradeEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tradeEventCols+` FROM trade_events WHERE opinion_id = $1
		 ORDER BY block_number, log_index`, int64(opinionID))
	if err != nil {
		return nil, fmt.Errorf("postgres: list events for opinion %d: %w", opinionID, err)
	}
	events, err := scanTradeEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan events for opinion %d: %w", opinionID, err)
	}
	return events, nil
}

// ListAll returns every stored event in chain order.
func (s *TradeEventStore) ListAll(ctx context.Context) ([]domain.TradeEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tradeEventCols+` FROM trade_events ORDER BY block_number, log_index`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list events: %w", err)
	}
	events, err := scanTradeEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan events: %w", err)
	}
	return events, nil
}

// ListRange returns events with from <= block < to in chain order.
func (s *TradeEventStore) ListRange(ctx context.Context, from, to uint64) ([]domain.TradeEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tradeEventCols+` FROM trade_events
		 WHERE block_number >= $1 AND block_number < $2
		 ORDER BY block_number, log_index`, int64(from), int64(to))
	if err != nil {
		return nil, fmt.Errorf("postgres: list events %d-%d: %w", from, to, err)
	}
	events, err := scanTradeEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan events %d-%d: %w", from, to, err)
	}
	return events, nil
}

// DeleteBefore removes events below block and returns how many went.
func (s *TradeEventStore) DeleteBefore(ctx context.Context, before uint64) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM trade_events WHERE block_number < $1`, int64(before))
	if err != nil {
		return 0, fmt.Errorf("postgres: delete events before %d: %w", before, err)
	}
	return tag.RowsAffected(), nil
}

var _ domain.TradeEventStore = (*TradeEventStore)(nil)
