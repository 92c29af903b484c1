package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	chat "hopaba-chat/internal/pkg/chat/application/domain"
)

const readAttempts = 3

// retryRead runs fn with bounded exponential backoff. Only read/aggregate
// queries go through here; writes surface their first failure so a retry can
// never produce a duplicate side effect.
func retryRead[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	backoff := 100 * time.Millisecond

	for attempt := 0; attempt < readAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if errors.Is(err, chat.ErrNotFound) {
			// not transient, retrying cannot change the outcome
			return zero, err
		}
		lastErr = err
	}
	return zero, fmt.Errorf("store read failed after %d attempts: %w", readAttempts, lastErr)
}
