package crypto

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestEncryptDecrypt(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, KeySize)

	tests := []struct {
		name      string
		plaintext []byte
	}{
		{"empty", []byte{}},
		{"short", []byte("hello")},
		{"long", bytes.Repeat([]byte("x"), 10000)},
		{"binary", []byte{0x00, 0xFF, 0xDE, 0xAD, 0xBE, 0xEF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ciphertext, err := Encrypt(key, tt.plaintext)
			if err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if len(ciphertext) != NonceSize+len(tt.plaintext)+TagSize {
				t.Errorf("ciphertext length = %d, want %d", len(ciphertext), NonceSize+len(tt.plaintext)+TagSize)
			}

			got, err := Decrypt(key, ciphertext)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(got, tt.plaintext) {
				t.Errorf("Decrypt() = %q, want %q", got, tt.plaintext)
			}
		})
	}
}

func TestEncrypt_InvalidKeySize(t *testing.T) {
	for _, size := range []int{0, 16, 31, 33} {
		if _, err := Encrypt(make([]byte, size), []byte("x")); !errors.Is(err, ErrInvalidKeySize) {
			t.Errorf("Encrypt() with %d-byte key error = %v, want ErrInvalidKeySize", size, err)
		}
	}
}

func TestDecrypt_Failures(t *testing.T) {
	key := bytes.Repeat([]byte{1}, KeySize)
	other := bytes.Repeat([]byte{2}, KeySize)

	ciphertext, err := Encrypt(key, []byte("payload"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	if _, err := Decrypt(key, ciphertext[:NonceSize+TagSize-1]); !errors.Is(err, ErrInvalidCiphertext) {
		t.Errorf("short ciphertext error = %v, want ErrInvalidCiphertext", err)
	}
	if _, err := Decrypt(other, ciphertext); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("wrong key error = %v, want ErrDecryptionFailed", err)
	}

	tampered := append([]byte(nil), ciphertext...)
	tampered[len(tampered)-1] ^= 0xFF
	if _, err := Decrypt(key, tampered); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("tampered ciphertext error = %v, want ErrDecryptionFailed", err)
	}
}

func TestDeriveKey(t *testing.T) {
	salt := bytes.Repeat([]byte{7}, SaltSize)

	k1, err := DeriveKey([]byte("s3cr3t"), salt)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	k2, _ := DeriveKey([]byte("s3cr3t"), salt)
	k3, _ := DeriveKey([]byte("other"), salt)

	if len(k1) != KeySize {
		t.Errorf("key length = %d, want %d", len(k1), KeySize)
	}
	if !bytes.Equal(k1, k2) {
		t.Error("DeriveKey() is not deterministic")
	}
	if bytes.Equal(k1, k3) {
		t.Error("different secrets produced the same key")
	}

	if _, err := DeriveKey([]byte("x"), []byte("short")); !errors.Is(err, ErrInvalidSaltSize) {
		t.Errorf("DeriveKey() with short salt error = %v, want ErrInvalidSaltSize", err)
	}
}

func TestHashSecret(t *testing.T) {
	key := []byte("application-key")

	h1 := HashSecret(key, "s3cr3t")
	if len(h1) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(h1))
	}
	if h1 == "s3cr3t" || strings.Contains(h1, "s3cr3t") {
		t.Error("digest leaks plaintext")
	}
	if HashSecret(key, "s3cr3t") != h1 {
		t.Error("HashSecret() is not deterministic")
	}
	if HashSecret([]byte("other-key"), "s3cr3t") == h1 {
		t.Error("digest does not depend on the key")
	}

	if !VerifySecret(key, "s3cr3t", h1) {
		t.Error("VerifySecret() rejected the right secret")
	}
	if VerifySecret(key, "wrong", h1) {
		t.Error("VerifySecret() accepted a wrong secret")
	}
}

func TestCompareTokens(t *testing.T) {
	if !CompareTokens([]byte("abc"), []byte("abc")) {
		t.Error("equal tokens compared unequal")
	}
	if CompareTokens([]byte("abc"), []byte("abd")) {
		t.Error("different tokens compared equal")
	}
	if CompareTokens([]byte("abc"), []byte("abcd")) {
		t.Error("different lengths compared equal")
	}
}

func TestGenerateTokenString(t *testing.T) {
	a, err := GenerateTokenString(16)
	if err != nil {
		t.Fatalf("GenerateTokenString() error = %v", err)
	}
	b, _ := GenerateTokenString(16)
	if a == b {
		t.Error("GenerateTokenString() returned identical tokens")
	}
	if strings.ContainsAny(a, "+/=") {
		t.Errorf("token %q is not URL-safe", a)
	}
}

func TestZeroBytes(t *testing.T) {
	b := []byte{1, 2, 3}
	ZeroBytes(b)
	if !bytes.Equal(b, []byte{0, 0, 0}) {
		t.Errorf("ZeroBytes() left %v", b)
	}
	ZeroBytes(nil)
}
