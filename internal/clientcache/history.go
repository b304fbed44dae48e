package clientcache

import (
	"encoding/json"
	"fmt"
	"sort"

	bolt "go.etcd.io/bbolt"
)

// MaxHistory is the number of history items kept.
const MaxHistory = 50

// HistoryItem records a visit to an entry.
type HistoryItem struct {
	ID             string `json:"id" yaml:"id"`
	Title          string `json:"title" yaml:"title"`
	ContentSummary string `json:"contentSummary" yaml:"contentSummary"`
	IsProtected    bool   `json:"isProtected" yaml:"isProtected"`
	VisitedAt      int64  `json:"visitedAt" yaml:"visitedAt"`
	CreatedAt      int64  `json:"createdAt" yaml:"createdAt"`
	ExpiresAt      int64  `json:"expiresAt" yaml:"expiresAt"`
}

// RecordVisit stores item as visited at now, replacing any earlier visit to
// the same id, and drops the oldest visits beyond MaxHistory.
func (c *Cache) RecordVisit(item HistoryItem, now int64) error {
	item.VisitedAt = now
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal history item: %w", err)
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketHistory)
		if err := b.Put([]byte(item.ID), data); err != nil {
			return err
		}

		items, err := readHistory(b)
		if err != nil {
			return err
		}
		for _, old := range items[min(len(items), MaxHistory):] {
			if err := b.Delete([]byte(old.ID)); err != nil {
				return err
			}
		}
		return nil
	})
}

// History purges items whose entry expired before now and returns the rest,
// most recent visit first.
func (c *Cache) History(now int64) ([]HistoryItem, error) {
	var items []HistoryItem
	err := c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketHistory)
		all, err := readHistory(b)
		if err != nil {
			return err
		}
		for _, item := range all {
			if item.ExpiresAt < now {
				if err := b.Delete([]byte(item.ID)); err != nil {
					return err
				}
				continue
			}
			items = append(items, item)
		}
		return nil
	})
	return items, err
}

// RemoveHistory forgets the visit to id.
func (c *Cache) RemoveHistory(id string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketHistory).Delete([]byte(id))
	})
}

// ClearHistory forgets every visit.
func (c *Cache) ClearHistory() error {
	return c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketHistory); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketHistory)
		return err
	})
}

// readHistory returns every item in b, newest visit first. Unreadable items
// are skipped.
func readHistory(b *bolt.Bucket) ([]HistoryItem, error) {
	var items []HistoryItem
	err := b.ForEach(func(_, v []byte) error {
		var item HistoryItem
		if json.Unmarshal(v, &item) == nil {
			items = append(items, item)
		}
		return nil
	})
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].VisitedAt != items[j].VisitedAt {
			return items[i].VisitedAt > items[j].VisitedAt
		}
		return items[i].ID < items[j].ID
	})
	return items, err
}
