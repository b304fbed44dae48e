package metrics

import (
	"context"
	"log/slog"
	"time"
)

// Counts is a point-in-time size of the stores.
type Counts struct {
	Entries int
	Secrets int
}

// StatsSource reports store sizes for gauge metrics.
type StatsSource interface {
	Stats(ctx context.Context) Counts
}

// StartCollector periodically refreshes gauge metrics from src until ctx is done.
func StartCollector(ctx context.Context, src StatsSource, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on startup
	collect(ctx, src)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			collect(ctx, src)
		}
	}
}

func collect(ctx context.Context, src StatsSource) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	counts := src.Stats(ctx)
	EntriesTotal.Set(float64(counts.Entries))
	SecretsTotal.Set(float64(counts.Secrets))

	slog.Debug("metrics collected", "entries", counts.Entries, "secrets", counts.Secrets)
}
