// Package clientcache is the device-resident mirror of entries, entry
// secrets, and visit history, kept in a bbolt database.
//
// Each value lives in exactly one bucket. Removing an entry removes its
// secret, its failed-attempt record, and its history item in the same
// transaction.
//
// The failed-attempt limiter is advisory: it runs on the caller's device and
// anyone can delete the database file. It exists to slow down casual guessing
// in the CLI, not to protect secrets.
package clientcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/abdul-hamid-achik/clipshare/internal/store"
)

// Bucket names used in the bbolt database.
var (
	bucketMeta     = []byte("_meta")
	bucketEntries  = []byte("entries")
	bucketSecrets  = []byte("secrets")
	bucketHistory  = []byte("history")
	bucketAttempts = []byte("attempts")
)

// Keys in the _meta bucket.
const (
	metaSchemaVersion = "schema_version"
	metaLastSweep     = "last_sweep"

	schemaVersion = "1"
)

// ErrNotFound is returned when a key is absent from the cache.
var ErrNotFound = errors.New("not found")

// Cache is a bbolt-backed ClientCache.
type Cache struct {
	db *bolt.DB
}

// Open opens (or creates) the cache at path with 0600 permissions and
// ensures all buckets exist.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	if err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{
			bucketMeta,
			bucketEntries,
			bucketSecrets,
			bucketHistory,
			bucketAttempts,
		} {
			if _, bErr := tx.CreateBucketIfNotExists(b); bErr != nil {
				return fmt.Errorf("create bucket %s: %w", b, bErr)
			}
		}
		return tx.Bucket(bucketMeta).Put([]byte(metaSchemaVersion), []byte(schemaVersion))
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the underlying bbolt database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Path returns the database file path.
func (c *Cache) Path() string {
	return c.db.Path()
}

// ---------------------------------------------------------------------------
// Entries
// ---------------------------------------------------------------------------

// GetEntry returns the cached entry for id, or ErrNotFound. Expiry is not
// checked; callers compare against their own clock.
func (c *Cache) GetEntry(id string) (store.Entry, error) {
	var e store.Entry
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketEntries).Get([]byte(id))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &e)
	})
	return e, err
}

// PutEntry stores e under its id.
func (c *Cache) PutEntry(e store.Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketEntries).Put([]byte(e.ID), data)
	})
}

// DeleteEntry removes the entry for id together with its secret, attempt
// record, and history item. Deleting an absent id succeeds.
func (c *Cache) DeleteEntry(id string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return deleteCascade(tx, []byte(id))
	})
}

func deleteCascade(tx *bolt.Tx, key []byte) error {
	for _, b := range [][]byte{bucketEntries, bucketSecrets, bucketAttempts, bucketHistory} {
		if err := tx.Bucket(b).Delete(key); err != nil {
			return fmt.Errorf("delete %s/%s: %w", b, key, err)
		}
	}
	return nil
}

// Entries sweeps expired entries and returns the rest sorted by id.
func (c *Cache) Entries(now int64) ([]store.Entry, error) {
	if _, err := c.SweepExpired(now); err != nil {
		return nil, err
	}

	var entries []store.Entry
	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketEntries).ForEach(func(_, v []byte) error {
			var e store.Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("unmarshal entry: %w", err)
			}
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// SweepExpired removes every entry with expiresAt < now, cascading like
// DeleteEntry, and returns how many entries were removed. Unreadable entry
// records are removed as well.
func (c *Cache) SweepExpired(now int64) (int, error) {
	removed := 0
	err := c.db.Update(func(tx *bolt.Tx) error {
		var expired [][]byte
		if err := tx.Bucket(bucketEntries).ForEach(func(k, v []byte) error {
			var e store.Entry
			if err := json.Unmarshal(v, &e); err != nil || e.Expired(now, 0) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}

		for _, k := range expired {
			if err := deleteCascade(tx, k); err != nil {
				return err
			}
		}
		removed = len(expired)

		return tx.Bucket(bucketMeta).Put([]byte(metaLastSweep), []byte(strconv.FormatInt(now, 10)))
	})
	return removed, err
}

// LastSweep returns the civil time of the most recent sweep, or 0 if the
// cache has never been swept.
func (c *Cache) LastSweep() (int64, error) {
	var ts int64
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get([]byte(metaLastSweep))
		if v == nil {
			return nil
		}
		var pErr error
		ts, pErr = strconv.ParseInt(string(v), 10, 64)
		return pErr
	})
	return ts, err
}

// ---------------------------------------------------------------------------
// Secrets
// ---------------------------------------------------------------------------

// GetSecret returns the cached plaintext secret for id, or ErrNotFound.
func (c *Cache) GetSecret(id string) (string, error) {
	var secret string
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketSecrets).Get([]byte(id))
		if v == nil {
			return ErrNotFound
		}
		secret = string(v)
		return nil
	})
	return secret, err
}

// PutSecret caches the plaintext secret for id.
func (c *Cache) PutSecret(id, secret string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSecrets).Put([]byte(id), []byte(secret))
	})
}

// DeleteSecret removes the cached secret for id.
func (c *Cache) DeleteSecret(id string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSecrets).Delete([]byte(id))
	})
}
