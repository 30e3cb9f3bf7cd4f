package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/gatehouse/internal/auth"
	"github.com/dukerupert/gatehouse/internal/model"
	"github.com/dukerupert/gatehouse/internal/store"
)

// UserHandler covers the profile plumbing around the auth core:
// listing, search, profile updates, and the block/soft-delete toggles.
type UserHandler struct {
	users  *store.UserStore
	logger *slog.Logger
}

func NewUserHandler(us *store.UserStore, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: us, logger: logger}
}

func publicUsers(users []model.User) []model.PublicUser {
	out := make([]model.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	users, err := h.users.List(page, limit, model.RoleUser)
	if err != nil {
		h.logger.Error("list users", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, publicUsers(users))
}

func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.PathValue("searchKey"))
	if key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Search key is required"})
		return
	}

	users, err := h.users.Search(key)
	if err != nil {
		h.logger.Error("search users", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, publicUsers(users))
}

// Update patches the authenticated user's own profile. The patch type
// enumerates the mutable fields, so password and role cannot travel
// through here.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "No token provided."})
		return
	}

	var patch model.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid JSON"})
		return
	}
	if patch.Empty() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "No fields to update"})
		return
	}

	user, err := h.users.Patch(ac.User.ID, patch)
	if err != nil {
		h.logger.Error("patch user", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found."})
		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}

type toggleBlockRequest struct {
	UserID int64 `json:"userId"`
	Block  bool  `json:"block"`
}

// ToggleBlock sets or clears the blocked flag. Admin only; blocking
// takes effect on the target's next guarded request.
func (h *UserHandler) ToggleBlock(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdmin(r.Context()) {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "Forbidden"})
		return
	}

	var req toggleBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid JSON"})
		return
	}

	user, err := h.users.SetBlocked(req.UserID, req.Block)
	if err != nil {
		h.logger.Error("toggle block", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found."})
		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}

type softDeleteRequest struct {
	UserID int64 `json:"userId"`
}

// SoftDelete suspends an account reversibly. Users may suspend
// themselves; suspending someone else requires admin.
func (h *UserHandler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "No token provided."})
		return
	}

	var req softDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid JSON"})
		return
	}

	targetID := req.UserID
	if targetID == 0 {
		targetID = ac.User.ID
	}
	if targetID != ac.User.ID && !auth.IsAdmin(r.Context()) {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "Forbidden"})
		return
	}

	user, err := h.users.SetDeleted(targetID, true)
	if err != nil {
		h.logger.Error("soft delete user", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found."})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "User has been deleted temporarily."})
}

// Delete removes an account permanently. Admin only; sessions cascade
// with the row.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdmin(r.Context()) {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "Forbidden"})
		return
	}

	id, err := strconv.ParseInt(r.PathValue("userId"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid user id"})
		return
	}

	deleted, err := h.users.Delete(id)
	if err != nil {
		h.logger.Error("delete user", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found."})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "User has been deleted permanently."})
}
