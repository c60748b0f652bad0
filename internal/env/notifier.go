package env

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/seekmark/seekmark/internal/metrics"
)

// BurstLimitedNotifier wraps a Notifier with a token-bucket limiter so a
// misbehaving poll loop cannot flood the page with toasts. Suppressed
// notifications are counted, not errored.
type BurstLimitedNotifier struct {
	inner   Notifier
	limiter *rate.Limiter
}

// NewBurstLimitedNotifier allows at most one notification per every, with
// the given burst.
func NewBurstLimitedNotifier(inner Notifier, every time.Duration, burst int) *BurstLimitedNotifier {
	return &BurstLimitedNotifier{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Every(every), burst),
	}
}

func (n *BurstLimitedNotifier) Notify(ctx context.Context, message, tag string, d time.Duration) error {
	if !n.limiter.Allow() {
		metrics.IncNotification("suppressed")
		return nil
	}
	if err := n.inner.Notify(ctx, message, tag, d); err != nil {
		metrics.IncNotification("failed")
		return err
	}
	metrics.IncNotification("shown")
	return nil
}
