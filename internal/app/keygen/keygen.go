// Package keygen generates the opaque tokens the API hands out: entity
// ids, one-time secretkeys, and short public obfuscation tokens.
package keygen

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// ObfuscationLength is the length in characters of a generated
// obfuscation token. Tokens are hex, so this equals twice the number of
// random bytes drawn.
const ObfuscationLength = 8

// ID returns a fresh opaque entity identifier.
func ID() string {
	return uuid.New().String()
}

// SecretKey returns a fresh capability token. It is revealed to the
// caller exactly once, at creation time.
func SecretKey() string {
	return uuid.New().String()
}

// Obfuscation returns a short random public token. It is not a secret;
// combined with a slug it forms the natural key of a beetl.
func Obfuscation() string {
	buf := make([]byte, ObfuscationLength/2)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a
		// uuid prefix rather than propagating an error nobody can handle.
		return uuid.New().String()[:ObfuscationLength]
	}
	return hex.EncodeToString(buf)
}
