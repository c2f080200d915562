// Package prefs keeps small per-wallet UX state (seen badges, onboarding
// progress, share counters) behind a namespaced key-value store. Nothing
// here is authoritative: losing the store only resets UX continuity.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

const keyPrefix = "omc"

// Key builds the namespaced key for one wallet value.
func Key(wallet, namespace, name string) string {
	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix, strings.ToLower(strings.TrimSpace(wallet)), namespace, name)
}

// ValidateWallet rejects wallet identifiers that cannot be keyed.
func ValidateWallet(wallet string) error {
	w := strings.TrimSpace(wallet)
	if w == "" || strings.ContainsAny(w, ": \t\n") {
		return fmt.Errorf("prefs: wallet %q: %w", wallet, domain.ErrInvalidInput)
	}
	return nil
}

// get reads a key and maps a missing value to "".
func get(ctx context.Context, kv domain.KVStore, key string) (string, error) {
	v, err := kv.Get(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}
