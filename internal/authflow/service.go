// Package authflow implements the authentication flows as explicit
// multi-step procedures. Every step returns either a value or a typed
// API error carrying the status code for the client; the first failing
// precondition short-circuits the rest of the flow.
package authflow

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/dukerupert/gatehouse/internal/apierr"
	"github.com/dukerupert/gatehouse/internal/email"
	"github.com/dukerupert/gatehouse/internal/model"
	"github.com/dukerupert/gatehouse/internal/otp"
	"github.com/dukerupert/gatehouse/internal/password"
	"github.com/dukerupert/gatehouse/internal/store"
	"github.com/dukerupert/gatehouse/internal/token"
)

// Client-facing messages. Fixed strings so callers cannot distinguish
// more than the flows intend.
const (
	msgEmailExists    = "Email already exists"
	msgUsernameExists = "Username already exists"
	msgNotFound       = "Account not found"
	msgBadCredentials = "Invalid credentials"
	msgBlocked        = "This account has been blocked by members of the authority."
	msgUnverified     = "This account has not been verified yet."
	msgSoftDeleted    = "Account is temporarily unavailable but not permanently removed."
	msgNoOTP          = "No OTP has been sent for this account."
	msgInvalidEmail   = "Invalid email account."
	msgOTPSent        = "OTP sent successfully."
	msgLoggedOut      = "User logged out."
	msgInvalidToken   = "Invalid token."
	msgNoSession      = "Invalid or expired session."
)

type Service struct {
	users    *store.UserStore
	sessions *store.SessionStore
	tokens   *token.Service
	mailer   email.Sender
	logger   *slog.Logger
}

func New(us *store.UserStore, ss *store.SessionStore, ts *token.Service, mailer email.Sender, logger *slog.Logger) *Service {
	return &Service{
		users:    us,
		sessions: ss,
		tokens:   ts,
		mailer:   mailer,
		logger:   logger,
	}
}

// LoginResult is returned by Login: both token classes, the sanitized
// user, and the device the session is bound to.
type LoginResult struct {
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
	User         model.PublicUser `json:"user"`
	DeviceID     string           `json:"deviceId"`
}

// TokenResult is returned by the flows that end in a fresh access
// token without touching the device binding.
type TokenResult struct {
	AccessToken string           `json:"accessToken"`
	User        model.PublicUser `json:"user"`
}

// Register creates a new unverified account and mails it its first OTP.
// A mail delivery failure is logged but does not abort registration;
// the user can request a fresh code via SendOTP.
func (s *Service) Register(username, pass, emailAddr string) (*model.PublicUser, *apierr.Error) {
	existing, err := s.users.GetByEmail(emailAddr)
	if err != nil {
		s.logger.Error("register email lookup", "error", err)
		return nil, apierr.Internal()
	}
	if existing != nil {
		return nil, apierr.Conflict(msgEmailExists)
	}

	existing, err = s.users.GetByUsername(username)
	if err != nil {
		s.logger.Error("register username lookup", "error", err)
		return nil, apierr.Internal()
	}
	if existing != nil {
		return nil, apierr.Conflict(msgUsernameExists)
	}

	passwordHash, err := password.Hash(pass)
	if err != nil {
		s.logger.Error("register password hash", "error", err)
		return nil, apierr.Internal()
	}

	code, err := otp.Generate()
	if err != nil {
		s.logger.Error("register otp generate", "error", err)
		return nil, apierr.Internal()
	}

	if err := s.mailer.SendOTP(emailAddr, code.Code); err != nil {
		s.logger.Error("register otp email", "error", err, "email", emailAddr)
	}

	user, err := s.users.Create(username, emailAddr, passwordHash, code.Hash, code.ExpiresAt)
	if err != nil {
		s.logger.Error("create user", "error", err)
		return nil, apierr.Internal()
	}

	pub := user.Public()
	return &pub, nil
}

// Login authenticates the password, checks account status, and binds a
// session to the presenting device. An empty deviceID gets a freshly
// generated one.
func (s *Service) Login(emailAddr, pass, deviceID string) (*LoginResult, *apierr.Error) {
	user, err := s.users.GetByEmail(emailAddr)
	if err != nil {
		s.logger.Error("login lookup", "error", err)
		return nil, apierr.Internal()
	}
	if user == nil {
		return nil, apierr.NotFound(msgNotFound)
	}

	if !password.Compare(pass, user.PasswordHash) {
		return nil, apierr.Unauthorized(msgBadCredentials)
	}

	if user.Blocked {
		return nil, apierr.Forbidden(msgBlocked)
	}
	if !user.Verified {
		return nil, apierr.Forbidden(msgUnverified)
	}
	if user.Deleted {
		return nil, apierr.Locked(msgSoftDeleted)
	}

	pub := user.Public()
	access, err := s.tokens.IssueAccess(pub)
	if err != nil {
		s.logger.Error("issue access token", "error", err)
		return nil, apierr.Internal()
	}
	refresh, err := s.tokens.IssueRefresh(pub)
	if err != nil {
		s.logger.Error("issue refresh token", "error", err)
		return nil, apierr.Internal()
	}

	if deviceID == "" {
		deviceID = uuid.NewString()
	}

	sess, err := s.sessions.Upsert(user.ID, deviceID, access)
	if err != nil {
		s.logger.Error("create session", "error", err)
		return nil, apierr.Internal()
	}

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         pub,
		DeviceID:     sess.DeviceID,
	}, nil
}

// SendOTP stores a fresh OTP for the account and mails it. The new
// code supersedes any earlier one. The code is persisted before the
// send, so a delivery failure leaves a valid but undelivered OTP.
func (s *Service) SendOTP(emailAddr string) (string, *apierr.Error) {
	user, err := s.users.GetByEmail(emailAddr)
	if err != nil {
		s.logger.Error("send otp lookup", "error", err)
		return "", apierr.Internal()
	}
	if user == nil {
		return "", apierr.BadRequest(msgInvalidEmail)
	}

	code, err := otp.Generate()
	if err != nil {
		s.logger.Error("otp generate", "error", err)
		return "", apierr.Internal()
	}

	if _, err := s.users.SetOTP(user.ID, code.Hash, code.ExpiresAt); err != nil {
		s.logger.Error("persist otp", "error", err)
		return "", apierr.Internal()
	}

	if err := s.mailer.SendOTP(user.Email, code.Code); err != nil {
		s.logger.Error("send otp email", "error", err, "email", user.Email)
		return "", apierr.Internal()
	}

	return msgOTPSent, nil
}

// VerifyOTP validates the supplied code and moves the account to
// verified. This is the only path out of the pending-verification
// state.
func (s *Service) VerifyOTP(emailAddr, code string) (*TokenResult, *apierr.Error) {
	user, err := s.users.GetByEmail(emailAddr)
	if err != nil {
		s.logger.Error("verify otp lookup", "error", err)
		return nil, apierr.Internal()
	}
	if user == nil {
		return nil, apierr.NotFound(msgNotFound)
	}

	if user.Blocked {
		return nil, apierr.Forbidden(msgBlocked)
	}
	if user.Deleted {
		return nil, apierr.Locked(msgSoftDeleted)
	}

	if user.OTPHash == nil || user.OTPExpiresAt == nil {
		return nil, apierr.BadRequest(msgNoOTP)
	}

	if ok, reason := otp.Validate(code, *user.OTPHash, *user.OTPExpiresAt); !ok {
		return nil, apierr.Unauthorized(reason)
	}

	updated, err := s.users.MarkVerified(user.ID)
	if err != nil || updated == nil {
		s.logger.Error("mark verified", "error", err)
		return nil, apierr.Internal()
	}

	pub := updated.Public()
	access, err := s.tokens.IssueAccess(pub)
	if err != nil {
		s.logger.Error("issue access token", "error", err)
		return nil, apierr.Internal()
	}

	return &TokenResult{AccessToken: access, User: pub}, nil
}

// ResetPassword validates the supplied code and replaces the password.
// The account must already be verified; the flow re-verifies it anyway,
// which is idempotent, and clears the consumed OTP.
func (s *Service) ResetPassword(emailAddr, code, newPassword string) (*TokenResult, *apierr.Error) {
	user, err := s.users.GetByEmail(emailAddr)
	if err != nil {
		s.logger.Error("reset password lookup", "error", err)
		return nil, apierr.Internal()
	}
	if user == nil {
		return nil, apierr.NotFound(msgNotFound)
	}

	if user.Blocked {
		return nil, apierr.Forbidden(msgBlocked)
	}
	if !user.Verified {
		return nil, apierr.Forbidden(msgUnverified)
	}
	if user.Deleted {
		return nil, apierr.Locked(msgSoftDeleted)
	}

	if user.OTPHash == nil || user.OTPExpiresAt == nil {
		return nil, apierr.BadRequest(msgNoOTP)
	}

	if ok, reason := otp.Validate(code, *user.OTPHash, *user.OTPExpiresAt); !ok {
		return nil, apierr.Unauthorized(reason)
	}

	passwordHash, err := password.Hash(newPassword)
	if err != nil {
		s.logger.Error("reset password hash", "error", err)
		return nil, apierr.Internal()
	}

	updated, err := s.users.ResetPassword(user.ID, passwordHash)
	if err != nil || updated == nil {
		s.logger.Error("persist new password", "error", err)
		return nil, apierr.Internal()
	}

	pub := updated.Public()
	access, err := s.tokens.IssueAccess(pub)
	if err != nil {
		s.logger.Error("issue access token", "error", err)
		return nil, apierr.Internal()
	}

	return &TokenResult{AccessToken: access, User: pub}, nil
}

// Refresh exchanges a valid refresh token for a new access token and
// updates the presenting device's session. The refresh credential
// itself is not rotated.
func (s *Service) Refresh(refreshToken, deviceID string) (*TokenResult, *apierr.Error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, apierr.Unauthorized(msgInvalidToken)
	}

	// Re-fetch the live record; the claims' status flags may be stale.
	user, err := s.users.GetByEmail(claims.Email)
	if err != nil {
		s.logger.Error("refresh lookup", "error", err)
		return nil, apierr.Internal()
	}
	if user == nil {
		return nil, apierr.NotFound(msgNotFound)
	}

	if user.Blocked {
		return nil, apierr.Forbidden(msgBlocked)
	}
	if user.Deleted {
		return nil, apierr.Locked(msgSoftDeleted)
	}

	sess, err := s.sessions.Get(user.ID, deviceID)
	if err != nil {
		s.logger.Error("refresh session lookup", "error", err)
		return nil, apierr.Internal()
	}
	if sess == nil {
		return nil, apierr.Forbidden(msgNoSession)
	}

	pub := user.Public()
	access, err := s.tokens.IssueAccess(pub)
	if err != nil {
		s.logger.Error("issue access token", "error", err)
		return nil, apierr.Internal()
	}

	if _, err := s.sessions.Refresh(user.ID, deviceID, access); err != nil {
		s.logger.Error("refresh session", "error", err)
		return nil, apierr.Internal()
	}

	return &TokenResult{AccessToken: access, User: pub}, nil
}

// Logout removes the session for the presenting device only. Other
// devices stay logged in, and logging out an absent session succeeds.
func (s *Service) Logout(userID int64, deviceID string) (string, *apierr.Error) {
	if err := s.sessions.Delete(userID, deviceID); err != nil {
		s.logger.Error("delete session", "error", err)
		return "", apierr.Internal()
	}
	return msgLoggedOut, nil
}

// LogoutOthers removes every session except the presenting device's.
func (s *Service) LogoutOthers(userID int64, keepDeviceID string) (int64, *apierr.Error) {
	count, err := s.sessions.DeleteAllExcept(userID, keepDeviceID)
	if err != nil {
		s.logger.Error("delete other sessions", "error", err)
		return 0, apierr.Internal()
	}
	return count, nil
}
