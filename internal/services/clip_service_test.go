package services

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/clipshare/internal/expiry"
	"github.com/abdul-hamid-achik/clipshare/internal/store"
)

const day = int64(24 * time.Hour / time.Millisecond)

type testClock struct{ now int64 }

func (c *testClock) Now() int64 { return c.now }

func newTestService(t *testing.T) (*ClipService, *testClock, *store.RecordStore, *store.PasswordStore) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	records := store.NewRecordStore(store.NewFileMedium(filepath.Join(dir, "entries.json")), nil)
	secrets := store.NewPasswordStore(store.NewFileMedium(filepath.Join(dir, "secrets.json")), []byte("test-key"), nil)
	if err := records.Ensure(ctx); err != nil {
		t.Fatalf("records.Ensure: %v", err)
	}
	if err := secrets.Ensure(ctx); err != nil {
		t.Fatalf("secrets.Ensure: %v", err)
	}

	clock := &testClock{}
	svc := NewClipService(
		records,
		secrets,
		expiry.New(records, secrets, time.Hour, nil),
		clock,
		ClipOptions{DefaultTTL: 24 * time.Hour, MaxTTL: 7 * 24 * time.Hour},
		nil,
	)
	return svc, clock, records, secrets
}

func TestClipService_CreateThenExpire(t *testing.T) {
	ctx := context.Background()
	svc, clock, records, _ := newTestService(t)

	clock.now = 0
	e, err := svc.Put(ctx, "abc", PutRequest{Content: "hello"})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if e.ExpiresAt != 86400000 {
		t.Errorf("ExpiresAt = %d, want 86400000", e.ExpiresAt)
	}
	if e.CreatedAt != 0 || e.LastModified != 0 {
		t.Errorf("CreatedAt/LastModified = %d/%d, want 0/0", e.CreatedAt, e.LastModified)
	}

	got, err := svc.Lookup(ctx, "abc")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if !got.Exists || got.Entry == nil || *got.Entry != e {
		t.Errorf("Lookup() = %+v, want the stored entry", got)
	}

	clock.now = 86400001
	got, err = svc.Lookup(ctx, "abc")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.Exists || !got.Expired || got.Entry != nil {
		t.Errorf("Lookup() after expiry = %+v, want {exists:false, expired:true}", got)
	}
	if _, ok := records.Get(ctx, "abc"); ok {
		t.Error("store still contains abc")
	}

	// A second read no longer knows about the entry.
	got, _ = svc.Lookup(ctx, "abc")
	if got.Exists || got.Expired {
		t.Errorf("second Lookup() = %+v, want {exists:false}", got)
	}
}

func TestClipService_LookupMissing(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	got, err := svc.Lookup(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.Exists || got.Expired {
		t.Errorf("Lookup() = %+v, want {exists:false}", got)
	}
}

func TestClipService_UpdatePreservesLifetime(t *testing.T) {
	ctx := context.Background()
	svc, clock, _, _ := newTestService(t)

	clock.now = 1000
	first, err := svc.Put(ctx, "abc", PutRequest{Content: "v1", TTL: time.Hour})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	clock.now = 5000
	second, err := svc.Put(ctx, "abc", PutRequest{Content: "v2", TTL: 48 * time.Hour})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if second.CreatedAt != first.CreatedAt {
		t.Errorf("CreatedAt = %d, want %d", second.CreatedAt, first.CreatedAt)
	}
	if second.ExpiresAt != first.ExpiresAt {
		t.Errorf("ExpiresAt = %d, want %d", second.ExpiresAt, first.ExpiresAt)
	}
	if second.LastModified != 5000 {
		t.Errorf("LastModified = %d, want 5000", second.LastModified)
	}
	if second.Content != "v2" {
		t.Errorf("Content = %q, want v2", second.Content)
	}
}

func TestClipService_PutAfterExpiryIsFresh(t *testing.T) {
	ctx := context.Background()
	svc, clock, _, secrets := newTestService(t)

	clock.now = 0
	if _, err := svc.Put(ctx, "abc", PutRequest{Content: "old", TTL: time.Minute}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := svc.SetSecret(ctx, "abc", "pw"); err != nil {
		t.Fatalf("SetSecret() error = %v", err)
	}

	clock.now = 2 * 60 * 1000
	e, err := svc.Put(ctx, "abc", PutRequest{Content: "new"})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if e.CreatedAt != clock.now {
		t.Errorf("CreatedAt = %d, want %d", e.CreatedAt, clock.now)
	}
	if e.ExpiresAt != clock.now+day {
		t.Errorf("ExpiresAt = %d, want %d", e.ExpiresAt, clock.now+day)
	}
	if secrets.Exists(ctx, "abc") {
		t.Error("secret of the expired entry survived")
	}
}

func TestClipService_PutValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		id   string
		req  PutRequest
	}{
		{"bad id", "a b", PutRequest{Content: "x"}},
		{"empty id", "", PutRequest{Content: "x"}},
		{"ttl over max", "ok", PutRequest{Content: "x", TTL: 8 * 24 * time.Hour}},
		{"negative ttl", "ok", PutRequest{Content: "x", TTL: -time.Hour}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Put(ctx, tt.id, tt.req)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Put() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestClipService_Create(t *testing.T) {
	ctx := context.Background()
	svc, clock, _, _ := newTestService(t)
	clock.now = 1_700_000_000_000

	a, err := svc.Create(ctx, PutRequest{Content: "one"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	b, err := svc.Create(ctx, PutRequest{Content: "two"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("generated ids %q and %q are not distinct", a.ID, b.ID)
	}

	got, _ := svc.Lookup(ctx, a.ID)
	if !got.Exists || got.Entry.Content != "one" {
		t.Errorf("Lookup(%s) = %+v", a.ID, got)
	}
}

func TestClipService_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	svc, _, _, secrets := newTestService(t)

	if _, err := svc.Put(ctx, "p1", PutRequest{Content: "x", IsProtected: true}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := svc.SetSecret(ctx, "p1", "s3cr3t"); err != nil {
		t.Fatalf("SetSecret() error = %v", err)
	}

	if err := svc.Delete(ctx, "p1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if secrets.Exists(ctx, "p1") {
		t.Error("secret survived entry deletion")
	}
	if err := svc.Delete(ctx, "p1"); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestClipService_Secrets(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService(t)

	exists, err := svc.SecretExists(ctx, "p1")
	if err != nil || exists {
		t.Fatalf("SecretExists() = %v, %v; want false, nil", exists, err)
	}

	if _, err := svc.Put(ctx, "p1", PutRequest{Content: "CRYPTO:xyz", IsProtected: true}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := svc.SetSecret(ctx, "p1", "s3cr3t"); err != nil {
		t.Fatalf("SetSecret() error = %v", err)
	}

	if exists, _ := svc.SecretExists(ctx, "p1"); !exists {
		t.Error("SecretExists() = false after SetSecret")
	}

	valid, err := svc.VerifySecret(ctx, "p1", "wrong")
	if err != nil || valid {
		t.Errorf("VerifySecret(wrong) = %v, %v; want false, nil", valid, err)
	}
	valid, err = svc.VerifySecret(ctx, "p1", "s3cr3t")
	if err != nil || !valid {
		t.Errorf("VerifySecret(right) = %v, %v; want true, nil", valid, err)
	}

	if err := svc.SetSecret(ctx, "p1", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("SetSecret(empty) error = %v, want ErrInvalidInput", err)
	}

	if err := svc.DeleteSecret(ctx, "p1"); err != nil {
		t.Fatalf("DeleteSecret() error = %v", err)
	}
	if err := svc.DeleteSecret(ctx, "p1"); err != nil {
		t.Errorf("second DeleteSecret() error = %v", err)
	}
	if valid, _ := svc.VerifySecret(ctx, "p1", "s3cr3t"); valid {
		t.Error("VerifySecret() = true after DeleteSecret")
	}
}

func TestClipService_SecretBeforeEntry(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService(t)

	if err := svc.SetSecret(ctx, "later", "pw"); err != nil {
		t.Fatalf("SetSecret() error = %v", err)
	}
	if exists, _ := svc.SecretExists(ctx, "later"); !exists {
		t.Error("secret without entry was not kept")
	}
}

func TestClipService_CleanupAndStats(t *testing.T) {
	ctx := context.Background()
	svc, clock, _, _ := newTestService(t)

	clock.now = 0
	svc.Put(ctx, "short", PutRequest{Content: "a", TTL: time.Minute})
	svc.Put(ctx, "long", PutRequest{Content: "b"})
	svc.SetSecret(ctx, "short", "pw")

	if got := svc.Stats(ctx); got.Entries != 2 || got.Secrets != 1 {
		t.Errorf("Stats() = %+v, want 2 entries 1 secret", got)
	}

	clock.now = 61 * 1000
	if got := svc.Cleanup(ctx); !reflect.DeepEqual(got, []string{"short"}) {
		t.Errorf("Cleanup() = %v, want [short]", got)
	}
	if got := svc.Cleanup(ctx); got == nil || len(got) != 0 {
		t.Errorf("second Cleanup() = %#v, want empty slice", got)
	}
	if got := svc.Stats(ctx); got.Entries != 1 || got.Secrets != 0 {
		t.Errorf("Stats() = %+v, want 1 entry 0 secrets", got)
	}
}

type failingMedium struct{}

func (failingMedium) Ensure(context.Context) error         { return nil }
func (failingMedium) Read(context.Context) ([]byte, error) { return nil, nil }
func (failingMedium) Write(context.Context, []byte) error  { return errors.New("disk full") }

func TestClipService_StoreUnavailable(t *testing.T) {
	ctx := context.Background()
	records := store.NewRecordStore(failingMedium{}, nil)
	secrets := store.NewPasswordStore(failingMedium{}, []byte("k"), nil)
	svc := NewClipService(records, secrets, expiry.New(records, secrets, 0, nil), &testClock{}, ClipOptions{}, nil)

	if _, err := svc.Put(ctx, "abc", PutRequest{Content: "x"}); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Put() error = %v, want ErrStoreUnavailable", err)
	}
	if err := svc.SetSecret(ctx, "abc", "pw"); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("SetSecret() error = %v, want ErrStoreUnavailable", err)
	}

	// Reads degrade to empty rather than failing.
	got, err := svc.Lookup(ctx, "abc")
	if err != nil || got.Exists {
		t.Errorf("Lookup() = %+v, %v", got, err)
	}
}
