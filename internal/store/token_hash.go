package store

import (
	"crypto/sha256"
	"encoding/base64"
)

// hashToken derives the storage key for a refresh token. Lookup stays
// exact-match while a leaked database dump yields no usable tokens.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
