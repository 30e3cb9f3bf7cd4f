// Package otp generates and validates short-lived one-time passwords
// used for email verification and password recovery.
package otp

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/gatehouse/internal/password"
)

const (
	// 3 random bytes render as 6 uppercase hex characters.
	codeBytes = 3

	// TTL is how long a code stays valid after issuance.
	TTL = 10 * time.Minute
)

// Reasons reported by Validate when a code is rejected.
const (
	ReasonExpired = "OTP has been expired"
	ReasonInvalid = "Invalid OTP"
)

// OTP carries a freshly generated code. Code is the plaintext sent to
// the user out-of-band; only Hash and ExpiresAt are ever persisted.
type OTP struct {
	Code      string
	Hash      string
	ExpiresAt time.Time
}

// Generate creates a new random code with its hash and expiry.
func Generate() (*OTP, error) {
	buf := make([]byte, codeBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}
	code := strings.ToUpper(hex.EncodeToString(buf))

	hash, err := password.Hash(code)
	if err != nil {
		return nil, err
	}

	return &OTP{
		Code:      code,
		Hash:      hash,
		ExpiresAt: time.Now().UTC().Add(TTL),
	}, nil
}

// Validate checks a supplied code against the stored hash and expiry.
// Expiry is checked before the hash compare, so an expired code is
// always reported as expired regardless of whether it would have
// matched.
func Validate(code, hash string, expiresAt time.Time) (bool, string) {
	if time.Now().After(expiresAt) {
		return false, ReasonExpired
	}
	if !password.Compare(code, hash) {
		return false, ReasonInvalid
	}
	return true, ""
}
