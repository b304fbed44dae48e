package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/abdul-hamid-achik/clipshare/internal/civiltime"
	"github.com/abdul-hamid-achik/clipshare/internal/client"
	"github.com/abdul-hamid-achik/clipshare/internal/clientcache"
	"github.com/abdul-hamid-achik/clipshare/internal/clipsync"
	"github.com/abdul-hamid-achik/clipshare/internal/logging"
	"github.com/abdul-hamid-achik/clipshare/internal/reconcile"
	"github.com/abdul-hamid-achik/clipshare/internal/store"
)

// maxPrompts bounds secret prompts in one invocation.
const maxPrompts = 3

// session bundles what a command needs. One CLI invocation is one session.
type session struct {
	cache   *clientcache.Cache
	api     *client.Client
	sync    *clipsync.Syncer
	secrets *reconcile.SessionSecrets
	clock   civiltime.Clock
	logger  *slog.Logger
}

// openSession opens the device cache and builds the API client.
func openSession() (*session, error) {
	logger := newLogger()

	cache, err := clientcache.Open(cachePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open device cache: %w", err)
	}

	api := client.New(viper.GetString("server"),
		client.WithTimeout(viper.GetDuration("timeout")),
		client.WithAdminToken(viper.GetString("admin_token")),
		client.WithLogger(logger),
	)
	clock := civiltime.New(viper.GetDuration("utc_offset"))

	return &session{
		cache:   cache,
		api:     api,
		sync:    clipsync.New(cache, api, clock, 0, logger),
		secrets: reconcile.NewSessionSecrets(),
		clock:   clock,
		logger:  logger,
	}, nil
}

func (s *session) Close() {
	if err := s.cache.Close(); err != nil {
		s.logger.Warn("failed to close device cache", "error", err)
	}
}

func newLogger() *slog.Logger {
	level := "warn"
	if isVerbose() {
		level = "debug"
	}
	return logging.NewText(os.Stderr, level)
}

// unlock runs the access state machine for a protected entry and returns the
// verified secret. Stored secrets are tried before the user is prompted. A
// wrong CLIP_SECRET is submitted only once.
func (s *session) unlock(ctx context.Context, id string) (string, error) {
	u := reconcile.NewUnlocker(id, s.api, s.cache, s.secrets)

	state, err := u.Begin(ctx, s.clock.Now())
	if err != nil {
		return "", err
	}

	for prompts := 0; state != reconcile.Unlocked; prompts++ {
		if state == reconcile.Blocked {
			return "", fmt.Errorf("too many failed attempts for %s, try again in %ds", id, u.Status().RemainingSeconds)
		}
		if prompts == maxPrompts {
			return "", fmt.Errorf("wrong secret for %s (%d attempts left)", id, u.Status().Remaining)
		}

		secret, err := readSecret(fmt.Sprintf("Secret for %s: ", id), false)
		if err != nil {
			return "", err
		}

		state, err = u.Submit(ctx, secret, s.clock.Now())
		switch {
		case errors.Is(err, reconcile.ErrWrongSecret):
			if state != reconcile.AwaitingInput {
				break
			}
			if envSecret() != "" {
				return "", fmt.Errorf("CLIP_SECRET is wrong for %s (%d attempts left)", id, u.Status().Remaining)
			}
			Warning("Wrong secret (%d attempts left)", u.Status().Remaining)
		case errors.Is(err, reconcile.ErrBlocked):
			// Reported at the top of the loop.
		case err != nil:
			return "", err
		}
	}
	return u.Secret(), nil
}

// readSecret returns CLIP_SECRET when set, otherwise prompts on the terminal.
func readSecret(prompt string, confirm bool) (string, error) {
	if secret := envSecret(); secret != "" {
		return secret, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("secret required: set CLIP_SECRET or run interactively")
	}
	if confirm {
		return promptSecretConfirm(prompt)
	}
	return promptSecret(prompt)
}

func envSecret() string {
	return os.Getenv("CLIP_SECRET")
}

// promptSecret reads a secret from the terminal with echo disabled.
func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// promptSecretConfirm prompts for a secret twice and ensures they match.
func promptSecretConfirm(prompt string) (string, error) {
	secret, err := promptSecret(prompt)
	if err != nil {
		return "", err
	}
	if secret == "" {
		return "", fmt.Errorf("secret cannot be empty")
	}
	confirm, err := promptSecret("Confirm secret: ")
	if err != nil {
		return "", err
	}
	if secret != confirm {
		return "", fmt.Errorf("secrets do not match")
	}
	return secret, nil
}

// readContent returns args joined by spaces, or stdin when args is empty.
func readContent(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}

// ttlMinutes converts a --ttl flag to whole minutes, rounding up. Zero asks
// for the server default.
func ttlMinutes(d time.Duration) (int, error) {
	if d < 0 {
		return 0, fmt.Errorf("ttl must not be negative")
	}
	return int(math.Ceil(d.Minutes())), nil
}

// formatExpiry renders the time left until expiresAt.
func formatExpiry(expiresAt, now int64) string {
	left := time.Duration(expiresAt-now) * time.Millisecond
	if left <= 0 {
		return "expired"
	}
	return "in " + left.Round(time.Second).String()
}

// entryView is the JSON form of an opened entry.
type entryView struct {
	store.Entry
	Source string `json:"source"`
}
