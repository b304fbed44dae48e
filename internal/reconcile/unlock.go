package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/abdul-hamid-achik/clipshare/internal/clientcache"
)

var (
	// ErrBlocked is returned by Submit while the id is rate limited.
	ErrBlocked = errors.New("too many failed attempts")

	// ErrWrongSecret is returned by Submit when verification fails.
	ErrWrongSecret = errors.New("wrong secret")
)

// State is the access state of a protected entry within one session.
type State int

const (
	Locked        State = iota // nothing tried yet
	AwaitingInput              // needs a secret from the user
	Unlocked                   // a secret verified this session
	Blocked                    // held by the device limiter
)

func (s State) String() string {
	switch s {
	case Locked:
		return "locked"
	case AwaitingInput:
		return "awaiting_input"
	case Unlocked:
		return "unlocked"
	case Blocked:
		return "blocked"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Verifier checks a candidate secret against the authoritative store.
type Verifier interface {
	SecretExists(ctx context.Context, id string) (bool, error)
	VerifySecret(ctx context.Context, id, secret string) (bool, error)
}

// DeviceStore is the device-local secret cache and failed-attempt limiter.
// *clientcache.Cache implements it.
type DeviceStore interface {
	GetSecret(id string) (string, error)
	PutSecret(id, secret string) error
	DeleteSecret(id string) error
	IsBlocked(id string, now int64) (clientcache.BlockStatus, error)
	RecordFailedAuth(id string, now int64) (clientcache.BlockStatus, error)
	ResetAttempts(id string) error
}

// SessionSecrets holds secrets unlocked during the current session. It is
// never persisted.
type SessionSecrets struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// NewSessionSecrets returns an empty session cache.
func NewSessionSecrets() *SessionSecrets {
	return &SessionSecrets{secrets: make(map[string]string)}
}

// Get returns the session secret for id.
func (s *SessionSecrets) Get(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	secret, ok := s.secrets[id]
	return secret, ok
}

// Put remembers secret for id until the session ends.
func (s *SessionSecrets) Put(id, secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[id] = secret
}

// Forget drops the session secret for id.
func (s *SessionSecrets) Forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.secrets, id)
}

// Unlocker runs the access state machine for one protected entry.
//
// Stored secrets are tried in order session, then device, before the user is
// asked. A stored secret that no longer verifies is discarded and does not
// count as a failed attempt. A device secret for an entry the server holds no
// secret for is kept and used as is.
type Unlocker struct {
	id       string
	verifier Verifier
	device   DeviceStore
	session  *SessionSecrets

	state  State
	status clientcache.BlockStatus
	secret string
}

// NewUnlocker returns an Unlocker for id in the Locked state.
func NewUnlocker(id string, verifier Verifier, device DeviceStore, session *SessionSecrets) *Unlocker {
	return &Unlocker{
		id:       id,
		verifier: verifier,
		device:   device,
		session:  session,
		state:    Locked,
	}
}

// State returns the current state.
func (u *Unlocker) State() State { return u.state }

// Status returns the limiter status from the last transition.
func (u *Unlocker) Status() clientcache.BlockStatus { return u.status }

// Secret returns the verified secret once Unlocked.
func (u *Unlocker) Secret() string { return u.secret }

// Begin leaves Locked by trying stored secrets. It ends in Unlocked,
// AwaitingInput, or Blocked.
func (u *Unlocker) Begin(ctx context.Context, now int64) (State, error) {
	if u.state == Unlocked {
		return u.state, nil
	}

	if secret, ok := u.session.Get(u.id); ok {
		valid, err := u.verifier.VerifySecret(ctx, u.id, secret)
		if err != nil {
			return u.state, fmt.Errorf("verify session secret: %w", err)
		}
		if valid {
			return u.unlock(secret), nil
		}
		u.session.Forget(u.id)
	}

	secret, err := u.device.GetSecret(u.id)
	switch {
	case err == nil:
		valid, vErr := u.verifier.VerifySecret(ctx, u.id, secret)
		if vErr != nil {
			return u.state, fmt.Errorf("verify device secret: %w", vErr)
		}
		if valid {
			u.session.Put(u.id, secret)
			return u.unlock(secret), nil
		}
		exists, eErr := u.verifier.SecretExists(ctx, u.id)
		if eErr != nil {
			return u.state, fmt.Errorf("check server secret: %w", eErr)
		}
		if !exists {
			// Never pushed to the server, e.g. saved while offline.
			u.session.Put(u.id, secret)
			return u.unlock(secret), nil
		}
		if dErr := u.device.DeleteSecret(u.id); dErr != nil {
			return u.state, fmt.Errorf("discard device secret: %w", dErr)
		}
	case !errors.Is(err, clientcache.ErrNotFound):
		return u.state, fmt.Errorf("read device secret: %w", err)
	}

	return u.Refresh(now)
}

// Submit verifies a secret typed by the user. While Blocked the attempt is
// rejected with ErrBlocked and not counted.
func (u *Unlocker) Submit(ctx context.Context, secret string, now int64) (State, error) {
	if u.state == Unlocked {
		return u.state, nil
	}

	state, err := u.Refresh(now)
	if err != nil {
		return state, err
	}
	if state == Blocked {
		return state, ErrBlocked
	}

	valid, err := u.verifier.VerifySecret(ctx, u.id, secret)
	if err != nil {
		return u.state, fmt.Errorf("verify secret: %w", err)
	}

	if valid {
		u.session.Put(u.id, secret)
		if err := u.device.PutSecret(u.id, secret); err != nil {
			return u.state, fmt.Errorf("store device secret: %w", err)
		}
		if err := u.device.ResetAttempts(u.id); err != nil {
			return u.state, fmt.Errorf("reset attempts: %w", err)
		}
		return u.unlock(secret), nil
	}

	status, err := u.device.RecordFailedAuth(u.id, now)
	if err != nil {
		return u.state, fmt.Errorf("record failed attempt: %w", err)
	}
	u.status = status
	if status.Blocked {
		u.state = Blocked
	} else {
		u.state = AwaitingInput
	}
	return u.state, ErrWrongSecret
}

// Refresh re-reads the limiter. A Blocked unlocker whose block has run out
// returns to AwaitingInput with a fresh attempt budget.
func (u *Unlocker) Refresh(now int64) (State, error) {
	if u.state == Unlocked {
		return u.state, nil
	}
	status, err := u.device.IsBlocked(u.id, now)
	if err != nil {
		return u.state, fmt.Errorf("check block: %w", err)
	}
	u.status = status
	if status.Blocked {
		u.state = Blocked
	} else {
		u.state = AwaitingInput
	}
	return u.state, nil
}

func (u *Unlocker) unlock(secret string) State {
	u.secret = secret
	u.state = Unlocked
	u.status = clientcache.BlockStatus{Remaining: clientcache.AttemptThreshold}
	return u.state
}
