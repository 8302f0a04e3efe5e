package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// tokenBytes gives 32 hex chars, plenty for an opaque credential.
const tokenBytes = 16

// NewSalt returns a fresh random per-user salt.
func NewSalt() (string, error) {
	return randomHex()
}

// NewToken returns a fresh opaque bearer token. Same randomness source kind
// as the salt but always a separate read, so the two values are independent.
func NewToken() (string, error) {
	return randomHex()
}

func randomHex() (string, error) {
	b := make([]byte, tokenBytes)

	_, err := rand.Read(b)

	if err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// HashPassword derives the stored credential hash: SHA-256 over the plain
// password with the user's salt appended. Plaintext is never stored.
func HashPassword(plain, salt string) string {
	sum := sha256.Sum256([]byte(plain + salt))

	return hex.EncodeToString(sum[:])
}

// VerifyPassword recomputes the hash with the stored salt and compares in
// constant time. Plaintext passwords are never compared directly.
func VerifyPassword(hash, plain, salt string) bool {
	candidate := HashPassword(plain, salt)

	return subtle.ConstantTimeCompare([]byte(candidate), []byte(hash)) == 1
}
