// Package expiry removes expired entries from the server stores and cascades
// the removal to their secrets.
package expiry

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/abdul-hamid-achik/clipshare/internal/civiltime"
	"github.com/abdul-hamid-achik/clipshare/internal/metrics"
	"github.com/abdul-hamid-achik/clipshare/internal/store"
)

// DefaultGrace is the lookback of the second, looser pass run by SweepAll.
const DefaultGrace = time.Hour

// IsExpired reports whether an entry expiring at expiresAt is gone at now,
// allowing graceMs of slack.
func IsExpired(expiresAt, now, graceMs int64) bool {
	return store.Expired(expiresAt, now, graceMs)
}

// Reconciler sweeps a RecordStore and its PasswordStore.
type Reconciler struct {
	records *store.RecordStore
	secrets *store.PasswordStore
	grace   time.Duration
	logger  *slog.Logger
}

// New creates a Reconciler. A zero grace uses DefaultGrace.
func New(records *store.RecordStore, secrets *store.PasswordStore, grace time.Duration, logger *slog.Logger) *Reconciler {
	if grace <= 0 {
		grace = DefaultGrace
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		records: records,
		secrets: secrets,
		grace:   grace,
		logger:  logger,
	}
}

// Sweep deletes every entry with expiresAt < now-graceMs from one snapshot of
// the records, then deletes the same ids from the secrets. Both stores are
// written at most once. The deleted ids are returned sorted.
func (r *Reconciler) Sweep(ctx context.Context, now, graceMs int64) []string {
	var expired []string
	r.records.Update(ctx, func(entries map[string]store.Entry) bool {
		for id, e := range entries {
			if e.Expired(now, graceMs) {
				expired = append(expired, id)
			}
		}
		for _, id := range expired {
			delete(entries, id)
		}
		return len(expired) > 0
	})
	if len(expired) == 0 {
		return nil
	}

	r.secrets.DeleteMany(ctx, expired)
	sort.Strings(expired)

	pass := "strict"
	if graceMs > 0 {
		pass = "grace"
	}
	metrics.SweptEntriesTotal.WithLabelValues(pass).Add(float64(len(expired)))
	r.logger.InfoContext(ctx, "sweep_completed",
		"pass", pass,
		"now", civiltime.Format(now),
		"deleted", expired,
	)
	return expired
}

// SweepAll runs a strict pass followed by a grace pass and returns every id
// deleted, sorted.
func (r *Reconciler) SweepAll(ctx context.Context, now int64) []string {
	deleted := r.Sweep(ctx, now, 0)
	deleted = append(deleted, r.Sweep(ctx, now, r.grace.Milliseconds())...)
	sort.Strings(deleted)
	return deleted
}
