// Package password provides one-way hashing for passwords and one-time
// codes. Comparison is constant-time via bcrypt.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Work factor matching bcrypt's default. Raising it invalidates no
// existing hashes; they carry their own cost.
const cost = 10

// Hash returns the salted bcrypt digest of plaintext. A failure here is
// a library fault, never a validation outcome.
func Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Compare reports whether plaintext matches the stored digest.
func Compare(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
