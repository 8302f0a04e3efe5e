package security

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestHashPassword_MatchesSaltedSHA256(t *testing.T) {
	sum := sha256.Sum256([]byte("pw" + "somesalt"))
	want := hex.EncodeToString(sum[:])

	got := HashPassword("pw", "somesalt")

	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestHashPassword_SaltChangesHash(t *testing.T) {
	s1, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt error: %v", err)
	}

	s2, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt error: %v", err)
	}

	if s1 == s2 {
		t.Fatalf("two salts should not collide: %s", s1)
	}

	// same password, different salts -> different stored hashes
	if HashPassword("pw", s1) == HashPassword("pw", s2) {
		t.Fatalf("expected distinct hashes for distinct salts")
	}
}

func TestVerifyPassword(t *testing.T) {
	salt, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt error: %v", err)
	}

	hash := HashPassword("correct horse", salt)

	if !VerifyPassword(hash, "correct horse", salt) {
		t.Fatalf("expected correct password to verify")
	}

	if VerifyPassword(hash, "wrong", salt) {
		t.Fatalf("expected wrong password to fail")
	}

	if VerifyPassword(hash, "correct horse", "othersalt") {
		t.Fatalf("expected wrong salt to fail")
	}
}

func TestNewToken_Length(t *testing.T) {
	tok, err := NewToken()
	if err != nil {
		t.Fatalf("NewToken error: %v", err)
	}

	if len(tok) != tokenBytes*2 {
		t.Fatalf("got token of length %d, want %d", len(tok), tokenBytes*2)
	}
}
