package token

import (
	"errors"
	"testing"

	"github.com/dukerupert/gatehouse/internal/model"
)

func testService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService("access-secret", "refresh-secret")
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func testUser() model.PublicUser {
	return model.PublicUser{
		ID:       42,
		Name:     "Test User",
		Username: "testuser",
		Email:    "test@example.com",
		Role:     model.RoleUser,
		Verified: true,
	}
}

func TestNewServiceValidation(t *testing.T) {
	if _, err := NewService("", "refresh"); err == nil {
		t.Error("expected error for empty access secret")
	}
	if _, err := NewService("access", ""); err == nil {
		t.Error("expected error for empty refresh secret")
	}
	if _, err := NewService("same", "same"); err == nil {
		t.Error("expected error for identical secrets")
	}
}

func TestAccessRoundtrip(t *testing.T) {
	svc := testService(t)
	user := testUser()

	signed, err := svc.IssueAccess(user)
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}

	got, err := svc.VerifyAccess(signed)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if got != user {
		t.Errorf("claims = %+v, want %+v", got, user)
	}
}

func TestRefreshRoundtrip(t *testing.T) {
	svc := testService(t)
	user := testUser()

	signed, err := svc.IssueRefresh(user)
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}

	got, err := svc.VerifyRefresh(signed)
	if err != nil {
		t.Fatalf("verify refresh: %v", err)
	}
	if got.ID != user.ID || got.Email != user.Email {
		t.Errorf("claims = %+v, want %+v", got, user)
	}
}

// An access token must never pass refresh verification and vice versa.
func TestSecretsAreNotInterchangeable(t *testing.T) {
	svc := testService(t)

	access, err := svc.IssueAccess(testUser())
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	refresh, err := svc.IssueRefresh(testUser())
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}

	if _, err := svc.VerifyRefresh(access); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access token passed refresh verification: %v", err)
	}
	if _, err := svc.VerifyAccess(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("refresh token passed access verification: %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := testService(t)

	for _, bad := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := svc.VerifyAccess(bad); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("VerifyAccess(%q) = %v, want ErrInvalidToken", bad, err)
		}
	}
}

func TestVerifyRejectsTampered(t *testing.T) {
	svc := testService(t)

	signed, err := svc.IssueAccess(testUser())
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	tampered := signed[:len(signed)-2] + "xx"

	if _, err := svc.VerifyAccess(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("tampered token: got %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	other, err := NewService("other-access", "other-refresh")
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	signed, err := other.IssueAccess(testUser())
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}

	svc := testService(t)
	if _, err := svc.VerifyAccess(signed); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign-secret token: got %v, want ErrInvalidToken", err)
	}
}
