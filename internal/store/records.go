package store

import (
	"context"
	"log/slog"

	"github.com/abdul-hamid-achik/clipshare/internal/crypto"
)

// Collection names, also used as document names on shared media.
const (
	EntriesCollection = "entries"
	SecretsCollection = "secrets"
)

// RecordStore persists entries keyed by id.
type RecordStore struct {
	*Collection[Entry]
}

// NewRecordStore returns a RecordStore backed by medium.
func NewRecordStore(medium Medium, logger *slog.Logger) *RecordStore {
	return &RecordStore{Collection: NewCollection[Entry](EntriesCollection, medium, logger)}
}

// PasswordStore persists keyed digests of entry secrets. Plaintext secrets
// are never written.
type PasswordStore struct {
	hashes *Collection[string]
	key    []byte
}

// NewPasswordStore returns a PasswordStore hashing secrets under key.
func NewPasswordStore(medium Medium, key []byte, logger *slog.Logger) *PasswordStore {
	return &PasswordStore{
		hashes: NewCollection[string](SecretsCollection, medium, logger),
		key:    key,
	}
}

// Ensure prepares the backing medium.
func (s *PasswordStore) Ensure(ctx context.Context) error {
	return s.hashes.Ensure(ctx)
}

// Set stores the digest of plaintext for id, replacing any previous one.
func (s *PasswordStore) Set(ctx context.Context, id, plaintext string) bool {
	return s.hashes.Put(ctx, id, crypto.HashSecret(s.key, plaintext))
}

// Verify reports whether candidate matches the stored secret for id. An id
// without a stored secret never verifies.
func (s *PasswordStore) Verify(ctx context.Context, id, candidate string) bool {
	digest, ok := s.hashes.Get(ctx, id)
	if !ok {
		return false
	}
	return crypto.VerifySecret(s.key, candidate, digest)
}

// Exists reports whether a secret is stored for id.
func (s *PasswordStore) Exists(ctx context.Context, id string) bool {
	_, ok := s.hashes.Get(ctx, id)
	return ok
}

// Delete removes the secret for id.
func (s *PasswordStore) Delete(ctx context.Context, id string) bool {
	return s.hashes.Delete(ctx, id)
}

// DeleteMany removes the secrets for ids with a single write.
func (s *PasswordStore) DeleteMany(ctx context.Context, ids []string) bool {
	return s.hashes.DeleteMany(ctx, ids)
}

// GetAll returns a snapshot of id → digest.
func (s *PasswordStore) GetAll(ctx context.Context) map[string]string {
	return s.hashes.GetAll(ctx)
}

// Len returns the number of stored secrets.
func (s *PasswordStore) Len(ctx context.Context) int {
	return s.hashes.Len(ctx)
}
