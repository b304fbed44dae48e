package crypto

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Scheme identifies how entry content is encoded.
type Scheme string

// Content schemes. The tag prefix of the stored content selects the scheme;
// untagged content is plaintext.
const (
	SchemePlain      Scheme = ""
	SchemeCrypto     Scheme = "CRYPTO"
	SchemeSimple     Scheme = "SIMPLE"
	SchemeSimpleUTF8 Scheme = "SIMPLE-UTF8"
)

var (
	// ErrSecretRequired is returned when sealing or opening protected content without a secret.
	ErrSecretRequired = errors.New("secret is required")

	// ErrUnknownScheme is returned when sealing with an unsupported scheme.
	ErrUnknownScheme = errors.New("unknown content scheme")
)

// SchemeOf returns the scheme tagged on content.
func SchemeOf(content string) Scheme {
	// SIMPLE-UTF8 must be checked before its SIMPLE prefix.
	for _, s := range []Scheme{SchemeCrypto, SchemeSimpleUTF8, SchemeSimple} {
		if strings.HasPrefix(content, string(s)+":") {
			return s
		}
	}
	return SchemePlain
}

// IsSealed reports whether content carries a ciphertext tag.
func IsSealed(content string) bool {
	return SchemeOf(content) != SchemePlain
}

// Seal encodes plaintext under secret with the given scheme. SchemeSimple is
// upgraded to SchemeSimpleUTF8 when plaintext is not pure ASCII.
func Seal(scheme Scheme, secret, plaintext string) (string, error) {
	if scheme == SchemePlain {
		return plaintext, nil
	}
	if secret == "" {
		return "", ErrSecretRequired
	}

	switch scheme {
	case SchemeCrypto:
		salt, err := GenerateSalt()
		if err != nil {
			return "", err
		}
		key, err := DeriveKey([]byte(secret), salt)
		if err != nil {
			return "", err
		}
		defer ZeroBytes(key)

		sealed, err := Encrypt(key, []byte(plaintext))
		if err != nil {
			return "", err
		}
		blob := append(salt, sealed...)
		return tag(SchemeCrypto, base64.StdEncoding.EncodeToString(blob)), nil

	case SchemeSimple, SchemeSimpleUTF8:
		if scheme == SchemeSimple && !isASCII(plaintext) {
			scheme = SchemeSimpleUTF8
		}
		out := xorBytes([]byte(plaintext), []byte(secret))
		return tag(scheme, base64.StdEncoding.EncodeToString(out)), nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
}

// Open decodes content with secret. Untagged content is returned unchanged.
// A wrong secret or corrupt payload yields ErrDecryptionFailed.
func Open(secret, content string) (string, error) {
	scheme := SchemeOf(content)
	if scheme == SchemePlain {
		return content, nil
	}
	if secret == "" {
		return "", ErrSecretRequired
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(content, string(scheme)+":"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	switch scheme {
	case SchemeCrypto:
		if len(raw) < SaltSize+NonceSize+TagSize {
			return "", ErrDecryptionFailed
		}
		key, err := DeriveKey([]byte(secret), raw[:SaltSize])
		if err != nil {
			return "", err
		}
		defer ZeroBytes(key)

		plain, err := Decrypt(key, raw[SaltSize:])
		if err != nil {
			return "", ErrDecryptionFailed
		}
		return string(plain), nil

	case SchemeSimpleUTF8:
		plain := xorBytes(raw, []byte(secret))
		if !utf8.Valid(plain) {
			return "", ErrDecryptionFailed
		}
		return string(plain), nil

	default:
		return string(xorBytes(raw, []byte(secret))), nil
	}
}

func tag(s Scheme, payload string) string {
	return string(s) + ":" + payload
}

func xorBytes(data, key []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ key[i%len(key)]
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
