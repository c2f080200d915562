package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

const badgesNamespace = "badges"

// Badges tracks which earned badges a wallet has already been notified of.
type Badges struct {
	kv domain.KVStore
}

// NewBadges creates a Badges store.
func NewBadges(kv domain.KVStore) *Badges {
	return &Badges{kv: kv}
}

// Seen returns the sorted set of badge ids already shown to wallet.
func (b *Badges) Seen(ctx context.Context, wallet string) ([]string, error) {
	raw, err := get(ctx, b.kv, Key(wallet, badgesNamespace, "seen"))
	if err != nil {
		return nil, fmt.Errorf("prefs: badges seen: %w", err)
	}
	if raw == "" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		// A corrupt entry only means notifications show again.
		return nil, nil
	}
	return ids, nil
}

// MarkSeen adds ids to the wallet's seen set.
func (b *Badges) MarkSeen(ctx context.Context, wallet string, ids ...string) error {
	seen, err := b.Seen(ctx, wallet)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id != "" && !slices.Contains(seen, id) {
			seen = append(seen, id)
		}
	}
	slices.Sort(seen)

	data, err := json.Marshal(seen)
	if err != nil {
		return fmt.Errorf("prefs: marshal seen: %w", err)
	}
	if err := b.kv.Set(ctx, Key(wallet, badgesNamespace, "seen"), string(data)); err != nil {
		return fmt.Errorf("prefs: badges mark seen: %w", err)
	}
	return nil
}

// Unseen filters earned down to ids that have not been shown yet,
// preserving order.
func (b *Badges) Unseen(ctx context.Context, wallet string, earned []string) ([]string, error) {
	seen, err := b.Seen(ctx, wallet)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, id := range earned {
		if !slices.Contains(seen, id) {
			out = append(out, id)
		}
	}
	return out, nil
}
