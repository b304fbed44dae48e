package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HashSecret returns the hex HMAC-SHA256 of secret under the application key.
// Only this digest is ever stored server-side.
func HashSecret(key []byte, secret string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(secret))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySecret reports whether secret hashes to the stored digest.
func VerifySecret(key []byte, secret, digest string) bool {
	return CompareTokens([]byte(HashSecret(key, secret)), []byte(digest))
}
