package chain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

// Scan decodes every opinion event in [from, to]. A nil from starts at
// Options.StartBlock and a nil to ends at the latest block.
func (c *Client) Scan(ctx context.Context, from, to *uint64) (domain.ChainScan, error) {
	start := c.opts.StartBlock
	if from != nil {
		start = *from
	}
	var end uint64
	if to != nil {
		end = *to
	} else {
		latest, err := c.LatestBlock(ctx)
		if err != nil {
			return domain.ChainScan{}, err
		}
		end = latest
	}

	scan := domain.ChainScan{FromBlock: start, ToBlock: end}
	if start > end {
		return scan, nil
	}

	logs, err := c.filterLogs(ctx, start, end)
	if err != nil {
		return domain.ChainScan{}, err
	}

	times := map[uint64]time.Time{}
	for _, l := range logs {
		if l.Removed || len(l.Topics) == 0 {
			continue
		}
		bt, err := c.blockTime(ctx, l.BlockNumber, times)
		if err != nil {
			return domain.ChainScan{}, err
		}
		if err := decodeLog(l, bt, &scan); err != nil {
			c.logger.WarnContext(ctx, "chain: skip undecodable log",
				slog.String("tx", l.TxHash.Hex()),
				slog.Uint64("block", l.BlockNumber),
				slog.String("error", err.Error()),
			)
		}
	}
	return scan, nil
}

// filterLogs walks [start, end] in chunks of LogStep blocks and halves the
// chunk whenever the provider refuses a range as too large.
func (c *Client) filterLogs(ctx context.Context, start, end uint64) ([]types.Log, error) {
	topics := [][]common.Hash{{
		opinionCoreABI.Events[eventOpinionCreated].ID,
		opinionCoreABI.Events[eventAnswerPurchased].ID,
		opinionCoreABI.Events[eventPositionSold].ID,
		opinionCoreABI.Events[eventPoolCreated].ID,
		opinionCoreABI.Events[eventPoolContributed].ID,
		opinionCoreABI.Events[eventPoolExecuted].ID,
	}}

	step := c.opts.LogStep
	var all []types.Log
	cur := start
	for cur <= end {
		chunkEnd := end
		if end-cur >= step {
			chunkEnd = cur + step - 1
		}

		q := ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(cur),
			ToBlock:   new(big.Int).SetUint64(chunkEnd),
			Addresses: []common.Address{c.contract},
			Topics:    topics,
		}
		logs, err := withRetry(ctx, c.opts.RetryDelay, func() ([]types.Log, error) {
			return c.eth.FilterLogs(ctx, q)
		})
		if err == nil {
			all = append(all, logs...)
			if chunkEnd == end {
				break
			}
			cur = chunkEnd + 1
			continue
		}

		if !isTooManyResultsError(err) || step == 1 {
			return nil, fmt.Errorf("chain: filter logs %d-%d: %w", cur, chunkEnd, err)
		}
		step /= 2
		c.logger.WarnContext(ctx, "chain: too many results, reducing step",
			slog.Uint64("new_step", step),
			slog.Uint64("from", cur),
		)
	}
	return all, nil
}

func isTooManyResultsError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "query returned more than") ||
		strings.Contains(msg, "too many results") ||
		strings.Contains(msg, "block range") ||
		strings.Contains(msg, "exceeded maximum")
}

func (c *Client) blockTime(ctx context.Context, block uint64, cache map[uint64]time.Time) (time.Time, error) {
	if t, ok := cache[block]; ok {
		return t, nil
	}
	h, err := withRetry(ctx, c.opts.RetryDelay, func() (*types.Header, error) {
		return c.eth.HeaderByNumber(ctx, new(big.Int).SetUint64(block))
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("chain: header %d: %w", block, err)
	}
	t := time.Unix(int64(h.Time), 0).UTC()
	cache[block] = t
	return t, nil
}

// decodeLog appends the event carried by l to scan.
func decodeLog(l types.Log, blockTime time.Time, scan *domain.ChainScan) error {
	ev, err := opinionCoreABI.EventByID(l.Topics[0])
	if err != nil {
		return err
	}
	indexed := 0
	for _, in := range ev.Inputs {
		if in.Indexed {
			indexed++
		}
	}
	if len(l.Topics) != indexed+1 {
		return fmt.Errorf("%s: want %d topics, got %d", ev.Name, indexed+1, len(l.Topics))
	}

	fields := map[string]interface{}{}
	if err := opinionCoreABI.UnpackIntoMap(fields, ev.Name, l.Data); err != nil {
		return fmt.Errorf("unpack %s: %w", ev.Name, err)
	}

	switch ev.Name {
	case eventOpinionCreated:
		scan.Creations = append(scan.Creations, domain.OpinionCreation{
			OpinionID:   topicUint(l.Topics[1]),
			Creator:     topicAddress(l.Topics[2]),
			BlockNumber: l.BlockNumber,
			BlockTime:   blockTime,
		})
	case eventAnswerPurchased, eventPositionSold:
		kind, amountField := domain.TradeKindBuy, "price"
		if ev.Name == eventPositionSold {
			kind, amountField = domain.TradeKindSell, "amount"
		}
		scan.Trades = append(scan.Trades, domain.TradeEvent{
			OpinionID:   topicUint(l.Topics[1]),
			AnswerID:    bigField(fields, "answerId").Uint64(),
			Actor:       topicAddress(l.Topics[2]),
			Amount:      FromBaseUnits(bigField(fields, amountField)),
			NewPrice:    FromBaseUnits(bigField(fields, "nextPrice")),
			Kind:        kind,
			BlockNumber: l.BlockNumber,
			LogIndex:    l.Index,
			TxHash:      l.TxHash.Hex(),
			BlockTime:   blockTime,
		})
	case eventPoolCreated:
		answer, _ := fields["proposedAnswer"].(string)
		scan.Pools = append(scan.Pools, domain.Pool{
			ID:             topicUint(l.Topics[1]),
			OpinionID:      topicUint(l.Topics[2]),
			Creator:        topicAddress(l.Topics[3]),
			ProposedAnswer: answer,
			TargetPrice:    FromBaseUnits(bigField(fields, "targetPrice")),
			Deadline:       time.Unix(bigField(fields, "deadline").Int64(), 0).UTC(),
			Status:         domain.PoolStatusActive,
		})
	case eventPoolContributed:
		scan.Contributions = append(scan.Contributions, domain.PoolContribution{
			PoolID:      topicUint(l.Topics[1]),
			Contributor: topicAddress(l.Topics[2]),
			Amount:      FromBaseUnits(bigField(fields, "amount")),
			BlockNumber: l.BlockNumber,
			LogIndex:    l.Index,
			BlockTime:   blockTime,
		})
	case eventPoolExecuted:
		scan.ExecutedPools = append(scan.ExecutedPools, topicUint(l.Topics[1]))
	default:
		return fmt.Errorf("unexpected event %s", ev.Name)
	}
	return nil
}

func topicUint(h common.Hash) uint64 {
	return new(big.Int).SetBytes(h.Bytes()).Uint64()
}

func topicAddress(h common.Hash) string {
	return strings.ToLower(common.BytesToAddress(h.Bytes()).Hex())
}

func bigField(fields map[string]interface{}, name string) *big.Int {
	if v, ok := fields[name].(*big.Int); ok {
		return v
	}
	return new(big.Int)
}
