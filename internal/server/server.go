package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/gatehouse/internal/authflow"
	"github.com/dukerupert/gatehouse/internal/email"
	"github.com/dukerupert/gatehouse/internal/handler"
	"github.com/dukerupert/gatehouse/internal/middleware"
	"github.com/dukerupert/gatehouse/internal/store"
	"github.com/dukerupert/gatehouse/internal/token"
)

type Server struct {
	db           *sql.DB
	authH        *handler.AuthHandler
	userH        *handler.UserHandler
	tokens       *token.Service
	userStore    *store.UserStore
	sessionStore *store.SessionStore
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, tokens *token.Service, mailer email.Sender, logger *slog.Logger) *Server {
	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)

	flows := authflow.New(userStore, sessionStore, tokens, mailer, logger.With("component", "authflow"))

	return &Server{
		db:           db,
		authH:        handler.NewAuthHandler(flows, logger.With("component", "auth")),
		userH:        handler.NewUserHandler(userStore, logger.With("component", "user")),
		tokens:       tokens,
		userStore:    userStore,
		sessionStore: sessionStore,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// UserStore returns the user store for cleanup tasks.
func (s *Server) UserStore() *store.UserStore {
	return s.userStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	guard := middleware.RequireAuth(s.tokens, s.userStore, s.sessionStore, s.logger.With("component", "guard"))

	// Public auth surface. Credential-guessing endpoints are rate
	// limited per client IP.
	mux.HandleFunc("POST /auth/register", s.rateLimitedHandler(s.authH.Register))
	mux.HandleFunc("POST /auth/login", s.rateLimitedHandler(s.authH.Login))
	mux.HandleFunc("POST /auth/otp", s.authH.SendOTP)
	mux.HandleFunc("POST /auth/verify", s.authH.VerifyOTP)
	mux.HandleFunc("PATCH /auth/reset-password", s.authH.ResetPassword)
	mux.HandleFunc("POST /auth/refresh", s.authH.Refresh)

	// Session teardown needs the guard: it identifies the device to
	// log out.
	mux.Handle("POST /auth/logout", guard(http.HandlerFunc(s.authH.Logout)))
	mux.Handle("POST /auth/logout-others", guard(http.HandlerFunc(s.authH.LogoutOthers)))

	// User surface.
	mux.HandleFunc("GET /users", s.userH.List)
	mux.Handle("GET /users/search/{searchKey}", guard(http.HandlerFunc(s.userH.Search)))
	mux.Handle("PUT /users", guard(http.HandlerFunc(s.userH.Update)))
	mux.Handle("PATCH /users/toggle-block", guard(http.HandlerFunc(s.userH.ToggleBlock)))
	mux.Handle("PATCH /users/soft-delete", guard(http.HandlerFunc(s.userH.SoftDelete)))
	mux.Handle("DELETE /users/{userId}", guard(http.HandlerFunc(s.userH.Delete)))

	mux.HandleFunc("GET /health", s.healthHandler)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
