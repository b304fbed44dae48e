package clientcache

import (
	"encoding/json"
	"fmt"
	"strconv"

	bolt "go.etcd.io/bbolt"
)

// Failed-attempt limiter parameters, in civil milliseconds.
const (
	AttemptThreshold = 10
	AttemptWindow    = 60_000
	BlockDuration    = 60_000

	bucketWidth = 60_000
)

// BlockStatus reports the limiter state for one id.
type BlockStatus struct {
	Blocked          bool
	RemainingSeconds int
	Used             int
	Remaining        int
}

// attemptRecord is the stored form of an id's failures. Buckets maps the
// start of a minute to the number of failures recorded in it.
type attemptRecord struct {
	Buckets      map[string]int `json:"buckets"`
	BlockedUntil int64          `json:"blockedUntil,omitempty"`
}

// IsBlocked prunes stale buckets for id and reports whether it is blocked.
// A block that has run out clears the record.
func (c *Cache) IsBlocked(id string, now int64) (BlockStatus, error) {
	var status BlockStatus
	err := c.db.Update(func(tx *bolt.Tx) error {
		rec, err := loadAttempts(tx, id)
		if err != nil {
			return err
		}
		rec.refresh(now)
		status = rec.status(now)
		return saveAttempts(tx, id, rec)
	})
	return status, err
}

// RecordFailedAuth counts a failed secret attempt for id at now. Once the
// failures in the trailing window reach AttemptThreshold the id is blocked
// for BlockDuration. Attempts made while blocked are not counted.
func (c *Cache) RecordFailedAuth(id string, now int64) (BlockStatus, error) {
	var status BlockStatus
	err := c.db.Update(func(tx *bolt.Tx) error {
		rec, err := loadAttempts(tx, id)
		if err != nil {
			return err
		}
		rec.refresh(now)

		if !rec.blocked(now) {
			rec.Buckets[bucketKey(now)]++
			if rec.used() >= AttemptThreshold {
				rec.BlockedUntil = now + BlockDuration
			}
		}

		status = rec.status(now)
		return saveAttempts(tx, id, rec)
	})
	return status, err
}

// ResetAttempts forgets every failure recorded for id.
func (c *Cache) ResetAttempts(id string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAttempts).Delete([]byte(id))
	})
}

func bucketKey(now int64) string {
	return strconv.FormatInt(now-now%bucketWidth, 10)
}

func loadAttempts(tx *bolt.Tx, id string) (*attemptRecord, error) {
	rec := &attemptRecord{Buckets: map[string]int{}}
	v := tx.Bucket(bucketAttempts).Get([]byte(id))
	if v == nil {
		return rec, nil
	}
	if err := json.Unmarshal(v, rec); err != nil {
		// A damaged record only loses throttling state.
		return &attemptRecord{Buckets: map[string]int{}}, nil
	}
	if rec.Buckets == nil {
		rec.Buckets = map[string]int{}
	}
	return rec, nil
}

func saveAttempts(tx *bolt.Tx, id string, rec *attemptRecord) error {
	b := tx.Bucket(bucketAttempts)
	if len(rec.Buckets) == 0 && rec.BlockedUntil == 0 {
		return b.Delete([]byte(id))
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal attempts: %w", err)
	}
	return b.Put([]byte(id), data)
}

// refresh ends an expired block and prunes buckets whose minute started more
// than AttemptWindow ago.
func (r *attemptRecord) refresh(now int64) {
	if r.BlockedUntil != 0 && now >= r.BlockedUntil {
		r.BlockedUntil = 0
		clear(r.Buckets)
		return
	}
	for k := range r.Buckets {
		start, err := strconv.ParseInt(k, 10, 64)
		if err != nil || start < now-AttemptWindow {
			delete(r.Buckets, k)
		}
	}
}

func (r *attemptRecord) blocked(now int64) bool {
	return r.BlockedUntil > now
}

func (r *attemptRecord) used() int {
	n := 0
	for _, count := range r.Buckets {
		n += count
	}
	return n
}

func (r *attemptRecord) status(now int64) BlockStatus {
	used := r.used()
	s := BlockStatus{
		Used:      used,
		Remaining: max(0, AttemptThreshold-used),
	}
	if r.blocked(now) {
		s.Blocked = true
		s.RemainingSeconds = int((r.BlockedUntil - now + 999) / 1000)
	}
	return s
}
