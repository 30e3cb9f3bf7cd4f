package otp

import (
	"regexp"
	"testing"
	"time"

	"github.com/dukerupert/gatehouse/internal/password"
)

func TestGenerateFormat(t *testing.T) {
	code, err := Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if !regexp.MustCompile(`^[0-9A-F]{6}$`).MatchString(code.Code) {
		t.Errorf("code = %q, want 6 uppercase hex characters", code.Code)
	}
	if !password.Compare(code.Code, code.Hash) {
		t.Error("hash does not verify against the plaintext code")
	}

	until := time.Until(code.ExpiresAt)
	if until < 9*time.Minute || until > 11*time.Minute {
		t.Errorf("expiry in %v, want about 10 minutes", until)
	}
}

func TestValidateAccepts(t *testing.T) {
	code, err := Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	ok, reason := Validate(code.Code, code.Hash, code.ExpiresAt)
	if !ok {
		t.Fatalf("valid code rejected: %q", reason)
	}
}

func TestValidateWrongCode(t *testing.T) {
	code, err := Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	ok, reason := Validate("000000", code.Hash, code.ExpiresAt)
	if ok {
		t.Fatal("wrong code accepted")
	}
	if reason != ReasonInvalid {
		t.Errorf("reason = %q, want %q", reason, ReasonInvalid)
	}
}

// Expiry is checked before the hash compare: an expired code reports
// expired whether or not it would have matched, so callers cannot
// probe a stale code.
func TestValidateExpiredBeforeCompare(t *testing.T) {
	code, err := Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	expired := time.Now().Add(-time.Minute)

	ok, reason := Validate(code.Code, code.Hash, expired)
	if ok {
		t.Fatal("expired code accepted")
	}
	if reason != ReasonExpired {
		t.Errorf("correct-but-expired reason = %q, want %q", reason, ReasonExpired)
	}

	ok, reason = Validate("000000", code.Hash, expired)
	if ok {
		t.Fatal("expired code accepted")
	}
	if reason != ReasonExpired {
		t.Errorf("wrong-and-expired reason = %q, want %q", reason, ReasonExpired)
	}
}
