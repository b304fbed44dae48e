// Package clipsync keeps the device cache and the server in step for the CLI.
//
// Reads resolve both sides and copy a winning remote entry into the device
// cache. Writes go to the device cache first and then to the server; the
// entry returned by the server replaces the local copy.
package clipsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abdul-hamid-achik/clipshare/internal/civiltime"
	"github.com/abdul-hamid-achik/clipshare/internal/client"
	"github.com/abdul-hamid-achik/clipshare/internal/clientcache"
	"github.com/abdul-hamid-achik/clipshare/internal/crypto"
	"github.com/abdul-hamid-achik/clipshare/internal/reconcile"
	"github.com/abdul-hamid-achik/clipshare/internal/store"
)

const (
	fallbackTTL    = 24 * time.Hour
	summaryLength  = 60
	protectedLabel = "[protected]"
)

// Local is the device cache. *clientcache.Cache implements it.
type Local interface {
	GetEntry(id string) (store.Entry, error)
	PutEntry(e store.Entry) error
	DeleteEntry(id string) error
	SweepExpired(now int64) (int, error)
	RecordVisit(item clientcache.HistoryItem, now int64) error
}

// Remote is the server API. *client.Client implements it.
type Remote interface {
	GetEntry(ctx context.Context, id string) (client.Lookup, error)
	PutEntry(ctx context.Context, id string, in client.EntryInput) (*store.Entry, error)
	DeleteEntry(ctx context.Context, id string) error
	Cleanup(ctx context.Context) ([]string, error)
}

// WriteResult reports which sides accepted a write.
type WriteResult struct {
	Local     bool
	Remote    bool
	Entry     *store.Entry
	LocalErr  error
	RemoteErr error
}

// OK reports whether at least one side accepted the write.
func (r WriteResult) OK() bool {
	return r.Local || r.Remote
}

// OpenResult is the outcome of reading an entry from both sides.
type OpenResult struct {
	Entry   *store.Entry
	Source  reconcile.Source
	Expired bool

	// RemoteErr is set when the server could not be reached; the result
	// then reflects the device cache alone.
	RemoteErr error
}

// SweepResult reports a combined sweep.
type SweepResult struct {
	Local     int
	Remote    []string
	RemoteErr error
}

// Syncer coordinates Local and Remote.
type Syncer struct {
	local      Local
	remote     Remote
	clock      civiltime.Clock
	defaultTTL time.Duration
	logger     *slog.Logger
}

// New returns a Syncer. A zero defaultTTL means 24 hours.
func New(local Local, remote Remote, clock civiltime.Clock, defaultTTL time.Duration, logger *slog.Logger) *Syncer {
	if defaultTTL <= 0 {
		defaultTTL = fallbackTTL
	}
	return &Syncer{
		local:      local,
		remote:     remote,
		clock:      clock,
		defaultTTL: defaultTTL,
		logger:     logger,
	}
}

// Open reads id from both sides and resolves them. An expired local copy is
// dropped before resolution. A remote report of expiry drops the local copy
// and yields Expired.
func (s *Syncer) Open(ctx context.Context, id string) (OpenResult, error) {
	now := s.clock.Now()

	local, err := s.readLocal(id, now)
	if err != nil {
		return OpenResult{}, err
	}

	var res OpenResult
	var remote *store.Entry
	lookup, err := s.remote.GetEntry(ctx, id)
	switch {
	case err != nil:
		s.logger.WarnContext(ctx, "remote_read_failed", "entry_id", id, "error", err)
		res.RemoteErr = err
	case lookup.Expired:
		if dErr := s.local.DeleteEntry(id); dErr != nil {
			return OpenResult{}, fmt.Errorf("drop expired entry: %w", dErr)
		}
		return OpenResult{Expired: true}, nil
	case lookup.Exists:
		remote = lookup.Entry
	}

	resolved, source := reconcile.Resolve(local, remote)
	res.Entry = resolved
	res.Source = source
	if resolved == nil {
		return res, nil
	}

	if source == reconcile.SourceRemote {
		if err := s.local.PutEntry(*resolved); err != nil {
			s.logger.WarnContext(ctx, "local_write_failed", "entry_id", id, "error", err)
		}
	}
	if err := s.local.RecordVisit(historyItem(*resolved), now); err != nil {
		s.logger.WarnContext(ctx, "history_write_failed", "entry_id", id, "error", err)
	}

	s.logger.DebugContext(ctx, "entry_resolved", "entry_id", id, "source", source.String())
	return res, nil
}

func (s *Syncer) readLocal(id string, now int64) (*store.Entry, error) {
	e, err := s.local.GetEntry(id)
	switch {
	case errors.Is(err, clientcache.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("read local entry: %w", err)
	case e.Expired(now, 0):
		if err := s.local.DeleteEntry(id); err != nil {
			return nil, fmt.Errorf("drop expired entry: %w", err)
		}
		return nil, nil
	}
	return &e, nil
}

// Save writes the entry locally and then remotely. A live local copy keeps
// its createdAt and expiresAt, matching the server's update rule.
func (s *Syncer) Save(ctx context.Context, id string, in client.EntryInput) WriteResult {
	now := s.clock.Now()
	ttl := s.defaultTTL
	if in.TTLMinutes > 0 {
		ttl = time.Duration(in.TTLMinutes) * time.Minute
	}

	entry := store.Entry{
		ID:           id,
		Content:      in.Content,
		IsProtected:  in.IsProtected,
		CreatedAt:    now,
		ExpiresAt:    now + ttl.Milliseconds(),
		LastModified: now,
	}
	if prior, err := s.local.GetEntry(id); err == nil && !prior.Expired(now, 0) {
		entry.CreatedAt = prior.CreatedAt
		entry.ExpiresAt = prior.ExpiresAt
	}

	var res WriteResult
	if err := s.local.PutEntry(entry); err != nil {
		res.LocalErr = err
		s.logger.WarnContext(ctx, "local_write_failed", "entry_id", id, "error", err)
	} else {
		res.Local = true
		res.Entry = &entry
	}

	saved, err := s.remote.PutEntry(ctx, id, in)
	if err != nil {
		res.RemoteErr = err
		s.logger.WarnContext(ctx, "remote_write_failed", "entry_id", id, "error", err)
		return res
	}
	res.Remote = true
	res.Entry = saved

	if err := s.local.PutEntry(*saved); err != nil {
		s.logger.WarnContext(ctx, "local_write_failed", "entry_id", id, "error", err)
	} else {
		res.Local = true
		res.LocalErr = nil
	}
	return res
}

// Delete removes id from both sides.
func (s *Syncer) Delete(ctx context.Context, id string) WriteResult {
	var res WriteResult
	if err := s.local.DeleteEntry(id); err != nil {
		res.LocalErr = err
	} else {
		res.Local = true
	}
	if err := s.remote.DeleteEntry(ctx, id); err != nil {
		res.RemoteErr = err
	} else {
		res.Remote = true
	}
	s.logger.DebugContext(ctx, "entry_deleted", "entry_id", id, "local", res.Local, "remote", res.Remote)
	return res
}

// Sweep removes expired entries from the device cache and asks the server to
// do the same. Only a local failure is returned as an error.
func (s *Syncer) Sweep(ctx context.Context) (SweepResult, error) {
	n, err := s.local.SweepExpired(s.clock.Now())
	if err != nil {
		return SweepResult{}, fmt.Errorf("sweep local: %w", err)
	}
	res := SweepResult{Local: n}
	res.Remote, res.RemoteErr = s.remote.Cleanup(ctx)
	return res, nil
}

func historyItem(e store.Entry) clientcache.HistoryItem {
	return clientcache.HistoryItem{
		ID:             e.ID,
		Title:          e.ID,
		ContentSummary: Summary(e),
		IsProtected:    e.IsProtected,
		CreatedAt:      e.CreatedAt,
		ExpiresAt:      e.ExpiresAt,
	}
}

// Summary returns a one-line preview of the entry's content. Protected and
// sealed content is never previewed.
func Summary(e store.Entry) string {
	if e.IsProtected || crypto.IsSealed(e.Content) {
		return protectedLabel
	}
	line := strings.Join(strings.Fields(e.Content), " ")
	if utf8.RuneCountInString(line) <= summaryLength {
		return line
	}
	runes := []rune(line)
	return string(runes[:summaryLength]) + "..."
}
