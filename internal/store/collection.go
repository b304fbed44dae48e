package store

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/abdul-hamid-achik/clipshare/internal/metrics"
)

// Collection is a map of id → V persisted as one JSON object on a Medium.
//
// Failures never reach callers as errors: reads degrade to an empty map and
// writes report false. A document that is empty or unparsable is replaced
// with "{}". Every write is read back and compared byte for byte; a mismatch
// is logged and counted but the write still reports success.
type Collection[V any] struct {
	name   string
	medium Medium
	logger *slog.Logger

	// mu serializes read-modify-write cycles within this process. Other
	// processes sharing the medium still race with last-writer-wins.
	mu sync.Mutex
}

// NewCollection returns a collection named name (used in logs and metrics).
func NewCollection[V any](name string, medium Medium, logger *slog.Logger) *Collection[V] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collection[V]{
		name:   name,
		medium: medium,
		logger: logger.With("collection", name),
	}
}

// Name returns the collection name.
func (c *Collection[V]) Name() string {
	return c.name
}

// Ensure prepares the backing medium. Safe to call on every startup.
func (c *Collection[V]) Ensure(ctx context.Context) error {
	return c.medium.Ensure(ctx)
}

// GetAll returns a snapshot of the whole collection.
func (c *Collection[V]) GetAll(ctx context.Context) map[string]V {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// Get returns the value stored under id.
func (c *Collection[V]) Get(ctx context.Context, id string) (V, bool) {
	v, ok := c.GetAll(ctx)[id]
	return v, ok
}

// Len returns the number of stored items.
func (c *Collection[V]) Len(ctx context.Context) int {
	return len(c.GetAll(ctx))
}

// SaveAll replaces the whole collection.
func (c *Collection[V]) SaveAll(ctx context.Context, items map[string]V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(ctx, items)
}

// Put stores v under id, overwriting any previous value.
func (c *Collection[V]) Put(ctx context.Context, id string, v V) bool {
	return c.Update(ctx, func(items map[string]V) bool {
		items[id] = v
		return true
	})
}

// Delete removes id. Deleting an absent id succeeds without writing.
func (c *Collection[V]) Delete(ctx context.Context, id string) bool {
	return c.DeleteMany(ctx, []string{id})
}

// DeleteMany removes all ids with a single write.
func (c *Collection[V]) DeleteMany(ctx context.Context, ids []string) bool {
	return c.Update(ctx, func(items map[string]V) bool {
		changed := false
		for _, id := range ids {
			if _, ok := items[id]; ok {
				delete(items, id)
				changed = true
			}
		}
		return changed
	})
}

// Update loads the collection, lets fn mutate it, and persists the result
// once if fn reports a change.
func (c *Collection[V]) Update(ctx context.Context, fn func(items map[string]V) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := c.load(ctx)
	if !fn(items) {
		return true
	}
	return c.save(ctx, items)
}

func (c *Collection[V]) load(ctx context.Context) map[string]V {
	items := make(map[string]V)

	data, err := c.medium.Read(ctx)
	if err != nil {
		c.logger.Error("store_read_failed", "error", err)
		return items
	}
	if data == nil {
		return items
	}

	if len(bytes.TrimSpace(data)) == 0 {
		c.logger.Warn("store_empty_document_repaired")
		c.repair(ctx)
		return items
	}

	if err := json.Unmarshal(data, &items); err != nil {
		c.logger.Warn("store_corrupt_document_repaired", "error", err, "size", len(data))
		c.repair(ctx)
		return make(map[string]V)
	}
	if items == nil {
		items = make(map[string]V)
	}
	return items
}

func (c *Collection[V]) repair(ctx context.Context) {
	metrics.StoreRepairs.WithLabelValues(c.name).Inc()
	if err := c.medium.Write(ctx, emptyDocument); err != nil {
		c.logger.Error("store_repair_failed", "error", err)
	}
}

func (c *Collection[V]) save(ctx context.Context, items map[string]V) bool {
	if items == nil {
		items = make(map[string]V)
	}
	data, err := json.Marshal(items)
	if err != nil {
		c.logger.Error("store_encode_failed", "error", err)
		metrics.StoreWrites.WithLabelValues(c.name, "failed").Inc()
		return false
	}

	if err := c.medium.Write(ctx, data); err != nil {
		c.logger.Error("store_write_failed", "error", err)
		metrics.StoreWrites.WithLabelValues(c.name, "failed").Inc()
		return false
	}

	written, err := c.medium.Read(ctx)
	if err != nil || !bytes.Equal(written, data) {
		c.logger.Warn("store_verify_mismatch", "error", err, "want_size", len(data), "got_size", len(written))
		metrics.StoreWrites.WithLabelValues(c.name, "verify_mismatch").Inc()
		return true
	}

	metrics.StoreWrites.WithLabelValues(c.name, "ok").Inc()
	return true
}
