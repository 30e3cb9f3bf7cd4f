package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/gatehouse/internal/auth"
	"github.com/dukerupert/gatehouse/internal/store"
	"github.com/dukerupert/gatehouse/internal/token"
)

// DeviceHeader carries the client's opaque device identifier. The
// guard needs it to tie the presented token back to a live session.
const DeviceHeader = "X-Device-ID"

// RequireAuth is the per-request authorization guard. It decodes the
// bearer token, re-fetches the live user record (the claims' status
// flags may be stale), checks the blocked flag, and confirms an active
// session exists for the presenting device. Blocking a user or killing
// a session therefore takes effect on the very next request, even while
// the token itself is still cryptographically valid.
func RequireAuth(tokens *token.Service, users *store.UserStore, sessions *store.SessionStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r.Header.Get("Authorization"))
			if tokenStr == "" {
				writeError(w, http.StatusUnauthorized, "No token provided.")
				return
			}

			claims, err := tokens.VerifyAccess(tokenStr)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid token.")
				return
			}

			user, err := users.GetByEmail(claims.Email)
			if err != nil {
				logger.Error("auth user lookup", "error", err)
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if user == nil {
				writeError(w, http.StatusNotFound, "User not found.")
				return
			}

			if user.Blocked {
				writeError(w, http.StatusForbidden, "This account has been blocked by members of the authority.")
				return
			}

			deviceID := r.Header.Get(DeviceHeader)
			sess, err := sessions.Get(user.ID, deviceID)
			if err != nil {
				logger.Error("auth session lookup", "error", err)
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if sess == nil {
				writeError(w, http.StatusForbidden, "Invalid or expired session.")
				return
			}

			ac := auth.AuthContext{
				User:      user.Public(),
				SessionID: sess.ID,
				DeviceID:  sess.DeviceID,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the credential from a "<scheme> <value>" header.
func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
