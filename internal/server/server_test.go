package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/gatehouse/internal/database"
	"github.com/dukerupert/gatehouse/internal/middleware"
	"github.com/dukerupert/gatehouse/internal/token"
)

type captureMailer struct {
	codes map[string]string
}

func (m *captureMailer) SendOTP(toEmail, code string) error {
	m.codes[strings.ToLower(toEmail)] = code
	return nil
}

func setupServerTest(t *testing.T) (http.Handler, *captureMailer) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tokens, err := token.NewService("test-access-secret", "test-refresh-secret")
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}

	mailer := &captureMailer{codes: make(map[string]string)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(db, tokens, mailer, logger)
	return srv.Router(), mailer
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var decoded map[string]any
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
			// some endpoints return arrays; callers that care decode
			// the recorder body themselves
			decoded = nil
		}
	}
	return rr, decoded
}

// Walks the full lifecycle through the HTTP surface: register, verify,
// login, call a guarded endpoint, log out, and confirm the guard now
// rejects the same token.
func TestAuthLifecycle(t *testing.T) {
	router, mailer := setupServerTest(t)

	rr, body := doJSON(t, router, "POST", "/auth/register", map[string]string{
		"username": "alice",
		"password": "secret123",
		"email":    "alice@example.com",
	}, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rr.Code, rr.Body.String())
	}
	if body["message"] != "User registered successfully" {
		t.Errorf("register message = %v", body["message"])
	}

	code := mailer.codes["alice@example.com"]
	if code == "" {
		t.Fatal("no OTP mailed")
	}

	rr, _ = doJSON(t, router, "POST", "/auth/verify", map[string]string{
		"email": "alice@example.com",
		"otp":   code,
	}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("verify status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr, body = doJSON(t, router, "POST", "/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "secret123",
	}, map[string]string{middleware.DeviceHeader: "phone"})
	if rr.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rr.Code, rr.Body.String())
	}
	access, _ := body["accessToken"].(string)
	refresh, _ := body["refreshToken"].(string)
	if access == "" || refresh == "" {
		t.Fatal("login response missing tokens")
	}

	authed := map[string]string{
		"Authorization":         "Bearer " + access,
		middleware.DeviceHeader: "phone",
	}

	rr, _ = doJSON(t, router, "GET", "/users/search/ali", nil, authed)
	if rr.Code != http.StatusOK {
		t.Fatalf("search status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr, body = doJSON(t, router, "POST", "/auth/refresh", map[string]string{
		"refreshToken": refresh,
	}, map[string]string{middleware.DeviceHeader: "phone"})
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body %s", rr.Code, rr.Body.String())
	}
	if tok, _ := body["accessToken"].(string); tok == "" {
		t.Error("refresh response missing access token")
	}

	rr, body = doJSON(t, router, "POST", "/auth/logout", nil, authed)
	if rr.Code != http.StatusOK {
		t.Fatalf("logout status = %d, body %s", rr.Code, rr.Body.String())
	}
	if body["message"] != "User logged out." {
		t.Errorf("logout message = %v", body["message"])
	}

	// the token is still signed correctly, but its session is gone
	rr, _ = doJSON(t, router, "GET", "/users/search/ali", nil, authed)
	if rr.Code != http.StatusForbidden {
		t.Errorf("post-logout search status = %d, want 403", rr.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	router, _ := setupServerTest(t)

	rr, body := doJSON(t, router, "POST", "/auth/register", map[string]string{
		"username": "al",
		"password": "123",
		"email":    "not-an-email",
	}, nil)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rr.Code)
	}
	if body["message"] != "Validation failed" {
		t.Errorf("message = %v", body["message"])
	}
	fields, _ := body["errors"].(map[string]any)
	for _, f := range []string{"username", "password", "email"} {
		if _, ok := fields[f]; !ok {
			t.Errorf("missing validation error for %s", f)
		}
	}
}

func TestGuardedEndpointsRejectAnonymous(t *testing.T) {
	router, _ := setupServerTest(t)

	for _, tc := range []struct {
		method, path string
	}{
		{"POST", "/auth/logout"},
		{"POST", "/auth/logout-others"},
		{"GET", "/users/search/ali"},
		{"PUT", "/users"},
		{"PATCH", "/users/toggle-block"},
		{"PATCH", "/users/soft-delete"},
		{"DELETE", "/users/1"},
	} {
		rr, _ := doJSON(t, router, tc.method, tc.path, nil, nil)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s %s status = %d, want 401", tc.method, tc.path, rr.Code)
		}
	}
}

func TestPublicUserListNeedsNoAuth(t *testing.T) {
	router, _ := setupServerTest(t)

	rr, _ := doJSON(t, router, "GET", "/users", nil, nil)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

func TestHealth(t *testing.T) {
	router, _ := setupServerTest(t)

	rr, body := doJSON(t, router, "GET", "/health", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}
