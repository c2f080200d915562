package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

const watchlistNamespace = "watchlist"

// Watchlist keeps the opinion ids a wallet follows.
type Watchlist struct {
	kv domain.KVStore
}

// NewWatchlist creates a Watchlist store.
func NewWatchlist(kv domain.KVStore) *Watchlist {
	return &Watchlist{kv: kv}
}

// List returns the followed ids in ascending order.
func (w *Watchlist) List(ctx context.Context, wallet string) ([]uint64, error) {
	raw, err := get(ctx, w.kv, Key(wallet, watchlistNamespace, "ids"))
	if err != nil {
		return nil, fmt.Errorf("prefs: watchlist: %w", err)
	}
	return decodeIDs(raw), nil
}

// Count returns the number of followed ids.
func (w *Watchlist) Count(ctx context.Context, wallet string) (int, error) {
	ids, err := w.List(ctx, wallet)
	return len(ids), err
}

// Add follows id. Following twice is a no-op.
func (w *Watchlist) Add(ctx context.Context, wallet string, id uint64) ([]uint64, error) {
	if id == 0 {
		return nil, fmt.Errorf("prefs: watchlist id 0: %w", domain.ErrInvalidInput)
	}
	return w.update(ctx, wallet, func(ids []uint64) []uint64 {
		if slices.Contains(ids, id) {
			return ids
		}
		ids = append(ids, id)
		slices.Sort(ids)
		return ids
	})
}

// Remove unfollows id.
func (w *Watchlist) Remove(ctx context.Context, wallet string, id uint64) ([]uint64, error) {
	return w.update(ctx, wallet, func(ids []uint64) []uint64 {
		return slices.DeleteFunc(ids, func(v uint64) bool { return v == id })
	})
}

// update applies fn atomically so concurrent follows are not lost.
func (w *Watchlist) update(ctx context.Context, wallet string, fn func([]uint64) []uint64) ([]uint64, error) {
	var ids []uint64
	_, err := w.kv.Update(ctx, Key(wallet, watchlistNamespace, "ids"), func(old string, _ bool) (string, error) {
		ids = fn(decodeIDs(old))
		if ids == nil {
			ids = []uint64{}
		}
		data, err := json.Marshal(ids)
		if err != nil {
			return "", fmt.Errorf("prefs: marshal watchlist: %w", err)
		}
		return string(data), nil
	})
	if err != nil {
		return nil, fmt.Errorf("prefs: save watchlist: %w", err)
	}
	return ids, nil
}

// decodeIDs parses a stored id list; unreadable values count as empty.
func decodeIDs(raw string) []uint64 {
	if raw == "" {
		return nil
	}
	var ids []uint64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil
	}
	return ids
}
