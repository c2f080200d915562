package chain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

// isRateLimited matches the throttling errors public RPC providers return.
func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "rate limit")
}

// withRetry runs op and retries it once after delay when the provider
// throttles. Any other error is returned immediately.
func withRetry[T any](ctx context.Context, delay time.Duration, op func() (T, error)) (T, error) {
	var out T
	operation := func() error {
		v, err := op()
		if err != nil {
			if isRateLimited(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		out = v
		return nil
	}

	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), 1)
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		var zero T
		if isRateLimited(err) {
			return zero, fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
		}
		return zero, err
	}
	return out, nil
}
