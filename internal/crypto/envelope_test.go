package crypto

import (
	"errors"
	"strings"
	"testing"
)

func TestSchemeOf(t *testing.T) {
	tests := []struct {
		content string
		want    Scheme
	}{
		{"hello", SchemePlain},
		{"", SchemePlain},
		{"CRYPTO:abc", SchemeCrypto},
		{"SIMPLE:abc", SchemeSimple},
		{"SIMPLE-UTF8:abc", SchemeSimpleUTF8},
		{"simple:abc", SchemePlain},
		{"SIMPLEabc", SchemePlain},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			if got := SchemeOf(tt.content); got != tt.want {
				t.Errorf("SchemeOf(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

func TestSealOpen_RoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		scheme     Scheme
		plaintext  string
		wantScheme Scheme
	}{
		{"crypto ascii", SchemeCrypto, "hello world", SchemeCrypto},
		{"crypto unicode", SchemeCrypto, "你好，世界", SchemeCrypto},
		{"simple ascii", SchemeSimple, "hello", SchemeSimple},
		{"simple upgrades on unicode", SchemeSimple, "héllo", SchemeSimpleUTF8},
		{"simple utf8", SchemeSimpleUTF8, "剪贴板", SchemeSimpleUTF8},
		{"plain passthrough", SchemePlain, "visible", SchemePlain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := Seal(tt.scheme, "s3cr3t", tt.plaintext)
			if err != nil {
				t.Fatalf("Seal() error = %v", err)
			}
			if got := SchemeOf(sealed); got != tt.wantScheme {
				t.Errorf("SchemeOf(sealed) = %q, want %q", got, tt.wantScheme)
			}
			if tt.wantScheme != SchemePlain && strings.Contains(sealed, tt.plaintext) {
				t.Error("sealed content contains the plaintext")
			}

			opened, err := Open("s3cr3t", sealed)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if opened != tt.plaintext {
				t.Errorf("Open() = %q, want %q", opened, tt.plaintext)
			}
		})
	}
}

func TestOpen_WrongSecret(t *testing.T) {
	sealed, err := Seal(SchemeCrypto, "right", "payload")
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if _, err := Open("wrong", sealed); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Open() error = %v, want ErrDecryptionFailed", err)
	}
}

func TestOpen_CorruptPayload(t *testing.T) {
	for _, content := range []string{"CRYPTO:!!!notbase64", "CRYPTO:AAAA", "SIMPLE:%%%"} {
		if _, err := Open("s3cr3t", content); !errors.Is(err, ErrDecryptionFailed) {
			t.Errorf("Open(%q) error = %v, want ErrDecryptionFailed", content, err)
		}
	}
}

func TestSealOpen_SecretRequired(t *testing.T) {
	if _, err := Seal(SchemeCrypto, "", "x"); !errors.Is(err, ErrSecretRequired) {
		t.Errorf("Seal() error = %v, want ErrSecretRequired", err)
	}
	if _, err := Open("", "SIMPLE:AAAA"); !errors.Is(err, ErrSecretRequired) {
		t.Errorf("Open() error = %v, want ErrSecretRequired", err)
	}
	if got, err := Open("", "plain text"); err != nil || got != "plain text" {
		t.Errorf("Open() on plaintext = %q, %v", got, err)
	}
}

func TestSeal_UnknownScheme(t *testing.T) {
	if _, err := Seal(Scheme("ROT13"), "k", "x"); !errors.Is(err, ErrUnknownScheme) {
		t.Errorf("Seal() error = %v, want ErrUnknownScheme", err)
	}
}
