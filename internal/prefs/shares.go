package prefs

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

const statsNamespace = "stats"

// Shares caches the share counter and first-seen time of a wallet. Both
// feed badge stats and are the only stats not recomputed from chain data.
type Shares struct {
	kv domain.KVStore
}

// NewShares creates a Shares store.
func NewShares(kv domain.KVStore) *Shares {
	return &Shares{kv: kv}
}

// Count returns the number of recorded shares.
func (s *Shares) Count(ctx context.Context, wallet string) (int, error) {
	raw, err := get(ctx, s.kv, Key(wallet, statsNamespace, "shares"))
	if err != nil {
		return 0, fmt.Errorf("prefs: shares count: %w", err)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, nil
	}
	return n, nil
}

// Increment records one share and returns the new count. Concurrent
// increments are never lost.
func (s *Shares) Increment(ctx context.Context, wallet string) (int, error) {
	n, err := s.kv.Incr(ctx, Key(wallet, statsNamespace, "shares"))
	if err != nil {
		return 0, fmt.Errorf("prefs: shares increment: %w", err)
	}
	return int(n), nil
}

// FirstSeen returns the cached first-seen time, or nil.
func (s *Shares) FirstSeen(ctx context.Context, wallet string) (*time.Time, error) {
	raw, err := get(ctx, s.kv, Key(wallet, statsNamespace, "first_seen"))
	if err != nil {
		return nil, fmt.Errorf("prefs: first seen: %w", err)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, nil
	}
	return &t, nil
}

// TouchFirstSeen stores now as the first-seen time unless one exists, and
// returns the effective value.
func (s *Shares) TouchFirstSeen(ctx context.Context, wallet string, now time.Time) (time.Time, error) {
	existing, err := s.FirstSeen(ctx, wallet)
	if err != nil {
		return time.Time{}, err
	}
	if existing != nil {
		return *existing, nil
	}
	now = now.UTC().Truncate(time.Second)
	if err := s.kv.Set(ctx, Key(wallet, statsNamespace, "first_seen"), now.Format(time.RFC3339)); err != nil {
		return time.Time{}, fmt.Errorf("prefs: touch first seen: %w", err)
	}
	return now, nil
}
