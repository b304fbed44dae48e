// Package services implements the clipshare server operations on top of the
// stores. Every public operation sweeps expired entries before doing its work.
package services

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/abdul-hamid-achik/clipshare/internal/civiltime"
	"github.com/abdul-hamid-achik/clipshare/internal/crypto"
	"github.com/abdul-hamid-achik/clipshare/internal/expiry"
	"github.com/abdul-hamid-achik/clipshare/internal/metrics"
	"github.com/abdul-hamid-achik/clipshare/internal/store"
	"github.com/abdul-hamid-achik/clipshare/internal/validation"
)

var (
	// ErrInvalidInput wraps validation failures.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStoreUnavailable is returned when a write to the backing medium failed.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// LookupResult is the outcome of reading an entry. Expired and absent are
// distinct states, neither of them an error.
type LookupResult struct {
	Exists  bool         `json:"exists"`
	Expired bool         `json:"expired,omitempty"`
	Entry   *store.Entry `json:"entry,omitempty"`
}

// PutRequest carries the fields a client may set on an entry. A zero TTL
// selects the service default.
type PutRequest struct {
	Content     string
	IsProtected bool
	TTL         time.Duration
}

// ClipOptions tunes entry lifetimes.
type ClipOptions struct {
	DefaultTTL time.Duration
	MaxTTL     time.Duration
}

// ClipService handles entry and secret business logic.
type ClipService struct {
	records    *store.RecordStore
	secrets    *store.PasswordStore
	reconciler *expiry.Reconciler
	clock      civiltime.Clock
	opts       ClipOptions
	logger     *slog.Logger
}

// NewClipService creates a new ClipService.
func NewClipService(
	records *store.RecordStore,
	secrets *store.PasswordStore,
	reconciler *expiry.Reconciler,
	clock civiltime.Clock,
	opts ClipOptions,
	logger *slog.Logger,
) *ClipService {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ClipService{
		records:    records,
		secrets:    secrets,
		reconciler: reconciler,
		clock:      clock,
		opts:       opts,
		logger:     logger,
	}
}

// sweep runs both expiry passes and returns the current time with the ids
// removed.
func (s *ClipService) sweep(ctx context.Context) (int64, []string) {
	now := s.clock.Now()
	return now, s.reconciler.SweepAll(ctx, now)
}

// Lookup returns the entry for id, reporting Expired when this call's sweep
// removed it.
func (s *ClipService) Lookup(ctx context.Context, id string) (LookupResult, error) {
	if err := validation.EntryID(id); err != nil {
		return LookupResult{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	now, deleted := s.sweep(ctx)
	if slices.Contains(deleted, id) {
		return LookupResult{Expired: true}, nil
	}

	e, ok := s.records.Get(ctx, id)
	if !ok {
		return LookupResult{}, nil
	}
	if e.Expired(now, 0) {
		// The sweep could not persist its deletion.
		return LookupResult{Expired: true}, nil
	}
	return LookupResult{Exists: true, Entry: &e}, nil
}

// Put creates or overwrites the entry for id. An update to a live entry keeps
// its createdAt and expiresAt; an absent or expired prior entry is replaced
// by a fresh one. lastModified is always set to now.
func (s *ClipService) Put(ctx context.Context, id string, req PutRequest) (store.Entry, error) {
	if err := validation.EntryID(id); err != nil {
		return store.Entry{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := validation.Content(req.Content); err != nil {
		return store.Entry{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	ttl := req.TTL
	if ttl == 0 {
		ttl = s.opts.DefaultTTL
	}
	if err := validation.TTL(ttl, s.opts.MaxTTL); err != nil {
		return store.Entry{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	now, _ := s.sweep(ctx)

	var saved store.Entry
	created := false
	ok := s.records.Update(ctx, func(entries map[string]store.Entry) bool {
		saved = store.Entry{
			ID:           id,
			Content:      req.Content,
			IsProtected:  req.IsProtected,
			CreatedAt:    now,
			ExpiresAt:    now + ttl.Milliseconds(),
			LastModified: now,
		}
		if prior, exists := entries[id]; exists && !prior.Expired(now, 0) {
			saved.CreatedAt = prior.CreatedAt
			saved.ExpiresAt = prior.ExpiresAt
		} else {
			created = true
		}
		entries[id] = saved
		return true
	})
	if !ok {
		return store.Entry{}, fmt.Errorf("save entry %s: %w", id, ErrStoreUnavailable)
	}

	s.logger.InfoContext(ctx, "entry_saved",
		"entry_id", id,
		"created", created,
		"protected", req.IsProtected,
		"expires_at", civiltime.Format(saved.ExpiresAt),
	)
	return saved, nil
}

// Create stores a new entry under a generated id.
func (s *ClipService) Create(ctx context.Context, req PutRequest) (store.Entry, error) {
	id, err := s.newID()
	if err != nil {
		return store.Entry{}, fmt.Errorf("generate entry id: %w", err)
	}
	return s.Put(ctx, id, req)
}

// newID returns the civil time in base 36 followed by a random base 36
// suffix. Collisions are possible in principle but not expected.
func (s *ClipService) newID() (string, error) {
	raw, err := crypto.GenerateToken(4)
	if err != nil {
		return "", err
	}
	suffix := strconv.FormatUint(uint64(binary.BigEndian.Uint32(raw)), 36)
	return strconv.FormatInt(s.clock.Now(), 36) + suffix, nil
}

// Delete removes the entry and its secret. Deleting an absent id succeeds.
func (s *ClipService) Delete(ctx context.Context, id string) error {
	if err := validation.EntryID(id); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	s.sweep(ctx)

	if !s.records.Delete(ctx, id) {
		return fmt.Errorf("delete entry %s: %w", id, ErrStoreUnavailable)
	}
	if !s.secrets.Delete(ctx, id) {
		return fmt.Errorf("delete secret %s: %w", id, ErrStoreUnavailable)
	}

	s.logger.InfoContext(ctx, "entry_deleted", "entry_id", id)
	return nil
}

// SecretExists reports whether a secret is stored for id.
func (s *ClipService) SecretExists(ctx context.Context, id string) (bool, error) {
	if err := validation.EntryID(id); err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	s.sweep(ctx)
	return s.secrets.Exists(ctx, id), nil
}

// SetSecret stores the digest of secret for id. The entry itself need not
// exist yet.
func (s *ClipService) SetSecret(ctx context.Context, id, secret string) error {
	if err := validation.EntryID(id); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := validation.Secret(secret); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	s.sweep(ctx)

	if !s.secrets.Set(ctx, id, secret) {
		return fmt.Errorf("save secret %s: %w", id, ErrStoreUnavailable)
	}
	s.logger.InfoContext(ctx, "secret_saved", "entry_id", id)
	return nil
}

// VerifySecret reports whether secret matches the one stored for id. A
// mismatch is a result, not an error.
func (s *ClipService) VerifySecret(ctx context.Context, id, secret string) (bool, error) {
	if err := validation.EntryID(id); err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	s.sweep(ctx)

	valid := s.secrets.Verify(ctx, id, secret)
	result := "invalid"
	if valid {
		result = "valid"
	}
	metrics.SecretVerifications.WithLabelValues(result).Inc()
	s.logger.InfoContext(ctx, "secret_verified", "entry_id", id, "valid", valid)
	return valid, nil
}

// DeleteSecret removes the secret for id. Deleting an absent secret succeeds.
func (s *ClipService) DeleteSecret(ctx context.Context, id string) error {
	if err := validation.EntryID(id); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	s.sweep(ctx)

	if !s.secrets.Delete(ctx, id) {
		return fmt.Errorf("delete secret %s: %w", id, ErrStoreUnavailable)
	}
	return nil
}

// Cleanup runs the expiry passes and returns the deleted ids.
func (s *ClipService) Cleanup(ctx context.Context) []string {
	_, deleted := s.sweep(ctx)
	if deleted == nil {
		deleted = []string{}
	}
	return deleted
}

// Stats reports the current store sizes.
func (s *ClipService) Stats(ctx context.Context) metrics.Counts {
	return metrics.Counts{
		Entries: s.records.Len(ctx),
		Secrets: s.secrets.Len(ctx),
	}
}
