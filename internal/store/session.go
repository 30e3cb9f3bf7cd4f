package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/gatehouse/internal/model"
)

type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

func scanSession(scanner interface{ Scan(...any) error }) (*model.Session, error) {
	var s model.Session
	err := scanner.Scan(&s.ID, &s.UserID, &s.DeviceID, &s.Token, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

const sessionCols = `id, user_id, device_id, token, created_at, updated_at`

// Upsert creates the session row for (userID, deviceID), or replaces
// its token when the device logs in again. The unique index makes the
// replace atomic under concurrent logins.
func (s *SessionStore) Upsert(userID int64, deviceID, token string) (*model.Session, error) {
	_, err := s.db.Exec(
		`INSERT INTO sessions (user_id, device_id, token) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, device_id) DO UPDATE SET token = excluded.token, updated_at = CURRENT_TIMESTAMP`,
		userID, deviceID, token,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert session: %w", err)
	}
	return s.Get(userID, deviceID)
}

// Refresh replaces the token for an existing row. It fails when no row
// exists; a refresh must never resurrect a logged-out device.
func (s *SessionStore) Refresh(userID int64, deviceID, token string) (*model.Session, error) {
	result, err := s.db.Exec(
		`UPDATE sessions SET token = ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ? AND device_id = ?`,
		token, userID, deviceID,
	)
	if err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if count == 0 {
		return nil, nil
	}
	return s.Get(userID, deviceID)
}

// Get returns the session for (userID, deviceID), or nil when the
// device has no live session.
func (s *SessionStore) Get(userID int64, deviceID string) (*model.Session, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionCols+` FROM sessions WHERE user_id = ? AND device_id = ?`,
		userID, deviceID,
	)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// Delete removes the session for exactly one device. Deleting an
// absent row is not an error; logout is idempotent.
func (s *SessionStore) Delete(userID int64, deviceID string) error {
	_, err := s.db.Exec(
		`DELETE FROM sessions WHERE user_id = ? AND device_id = ?`,
		userID, deviceID,
	)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteAllExcept removes every other device's session for the user.
func (s *SessionStore) DeleteAllExcept(userID int64, keepDeviceID string) (int64, error) {
	result, err := s.db.Exec(
		`DELETE FROM sessions WHERE user_id = ? AND device_id != ?`,
		userID, keepDeviceID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete other sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

// DeleteAllForUser removes every session for the user.
func (s *SessionStore) DeleteAllForUser(userID int64) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete sessions by user: %w", err)
	}
	return nil
}
