package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/gatehouse/internal/auth"
	"github.com/dukerupert/gatehouse/internal/authflow"
	"github.com/dukerupert/gatehouse/internal/middleware"
)

type AuthHandler struct {
	flows  *authflow.Service
	logger *slog.Logger
}

func NewAuthHandler(flows *authflow.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{flows: flows, logger: logger}
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid JSON"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if fields := validateRegister(req.Username, req.Password, req.Email); fields != nil {
		writeValidationError(w, fields)
		return
	}

	user, apiErr := h.flows.Register(req.Username, req.Password, req.Email)
	if apiErr != nil {
		writeAPIError(w, apiErr)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    user,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid JSON"})
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	if fields := validateLogin(req.Email, req.Password); fields != nil {
		writeValidationError(w, fields)
		return
	}

	// An empty device header is fine; the flow mints a device id for
	// first-time installations.
	deviceID := r.Header.Get(middleware.DeviceHeader)

	result, apiErr := h.flows.Login(req.Email, req.Password, deviceID)
	if apiErr != nil {
		writeAPIError(w, apiErr)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type sendOTPRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid JSON"})
		return
	}

	msg, apiErr := h.flows.SendOTP(strings.TrimSpace(req.Email))
	if apiErr != nil {
		writeAPIError(w, apiErr)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid JSON"})
		return
	}

	result, apiErr := h.flows.VerifyOTP(strings.TrimSpace(req.Email), strings.TrimSpace(req.OTP))
	if apiErr != nil {
		writeAPIError(w, apiErr)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type resetPasswordRequest struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	Password string `json:"password"`
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid JSON"})
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.OTP = strings.TrimSpace(req.OTP)

	if fields := validateResetPassword(req.Email, req.OTP, req.Password); fields != nil {
		writeValidationError(w, fields)
		return
	}

	result, apiErr := h.flows.ResetPassword(req.Email, req.OTP, req.Password)
	if apiErr != nil {
		writeAPIError(w, apiErr)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid JSON"})
		return
	}

	result, apiErr := h.flows.Refresh(req.RefreshToken, r.Header.Get(middleware.DeviceHeader))
	if apiErr != nil {
		writeAPIError(w, apiErr)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "No token provided."})
		return
	}

	msg, apiErr := h.flows.Logout(ac.User.ID, ac.DeviceID)
	if apiErr != nil {
		writeAPIError(w, apiErr)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

func (h *AuthHandler) LogoutOthers(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "No token provided."})
		return
	}

	count, apiErr := h.flows.LogoutOthers(ac.User.ID, ac.DeviceID)
	if apiErr != nil {
		writeAPIError(w, apiErr)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Other devices logged out.",
		"sessions": count,
	})
}
