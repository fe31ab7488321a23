// Package ctxutil provides context utility functions.
package ctxutil

import (
	"context"
	"time"
)

// Canceled returns ctx.Err(): nil while ctx is live, Canceled or
// DeadlineExceeded once it is done. Call it at function entry points.
func Canceled(ctx context.Context) error {
	return ctx.Err()
}

// Detached returns a context that keeps ctx's values but ignores its
// cancellation, bounded by timeout. API calls run on it so an interrupt
// cannot abort a result submission halfway.
func Detached(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}
