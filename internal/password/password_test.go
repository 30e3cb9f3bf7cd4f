package password

import (
	"strings"
	"testing"
)

func TestHashAndCompare(t *testing.T) {
	digest, err := Hash("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if digest == "secret1" {
		t.Fatal("digest must not equal plaintext")
	}
	if !strings.HasPrefix(digest, "$2") {
		t.Errorf("digest = %q, want bcrypt format", digest)
	}

	if !Compare("secret1", digest) {
		t.Error("expected matching password to compare true")
	}
	if Compare("secret2", digest) {
		t.Error("expected mismatched password to compare false")
	}
}

func TestHashIsSalted(t *testing.T) {
	a, err := Hash("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	b, err := Hash("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if a == b {
		t.Error("two hashes of the same input should differ")
	}
}

func TestCompareGarbageDigest(t *testing.T) {
	if Compare("secret1", "not-a-digest") {
		t.Error("garbage digest should never compare true")
	}
}
