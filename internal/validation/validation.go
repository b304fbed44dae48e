// Package validation provides input validation functions.
package validation

import (
	"errors"
	"regexp"
	"time"
)

// Limits on entry input.
const (
	MaxEntryIDLength = 64
	MaxContentSize   = 512 * 1024
	MaxSecretLength  = 256
)

var (
	// ErrEntryIDEmpty is returned when an entry id is empty.
	ErrEntryIDEmpty = errors.New("entry id is required")
	// ErrEntryIDTooLong is returned when an entry id exceeds 64 characters.
	ErrEntryIDTooLong = errors.New("entry id must be at most 64 characters")
	// ErrEntryIDInvalidChars is returned when an entry id contains invalid characters.
	ErrEntryIDInvalidChars = errors.New("entry id can only contain letters, numbers, hyphens, and underscores")

	// ErrContentTooLarge is returned when entry content exceeds MaxContentSize bytes.
	ErrContentTooLarge = errors.New("content must be at most 512KB")

	// ErrSecretEmpty is returned when a secret is empty.
	ErrSecretEmpty = errors.New("password is required")
	// ErrSecretTooLong is returned when a secret exceeds 256 characters.
	ErrSecretTooLong = errors.New("password must be at most 256 characters")

	// ErrTTLNotPositive is returned when a requested lifetime is zero or negative.
	ErrTTLNotPositive = errors.New("ttl must be positive")
	// ErrTTLTooLong is returned when a requested lifetime exceeds the configured maximum.
	ErrTTLTooLong = errors.New("ttl exceeds the maximum allowed lifetime")
)

var entryIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// EntryID validates an entry id.
// Rules: 1-64 characters, letters, numbers, hyphens, and underscores only.
func EntryID(id string) error {
	if id == "" {
		return ErrEntryIDEmpty
	}
	if len(id) > MaxEntryIDLength {
		return ErrEntryIDTooLong
	}
	if !entryIDRegex.MatchString(id) {
		return ErrEntryIDInvalidChars
	}
	return nil
}

// Content validates entry content. Empty content is allowed.
func Content(content string) error {
	if len(content) > MaxContentSize {
		return ErrContentTooLarge
	}
	return nil
}

// Secret validates an entry password.
func Secret(secret string) error {
	if secret == "" {
		return ErrSecretEmpty
	}
	if len(secret) > MaxSecretLength {
		return ErrSecretTooLong
	}
	return nil
}

// TTL validates a requested entry lifetime against max.
func TTL(ttl, max time.Duration) error {
	if ttl <= 0 {
		return ErrTTLNotPositive
	}
	if max > 0 && ttl > max {
		return ErrTTLTooLong
	}
	return nil
}
