package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/gatehouse/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var otpHash sql.NullString
	var otpExpiresAt sql.NullTime

	err := scanner.Scan(
		&u.ID, &u.Username, &u.Name, &u.Email, &u.Bio, &u.ProfilePic,
		&u.PasswordHash, &u.Role, &u.Verified, &u.Blocked, &u.Deleted,
		&otpHash, &otpExpiresAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if otpHash.Valid {
		u.OTPHash = &otpHash.String
	}
	if otpExpiresAt.Valid {
		t := otpExpiresAt.Time
		u.OTPExpiresAt = &t
	}
	return &u, nil
}

const userCols = `id, username, name, email, bio, profile_pic, password_hash, role, verified, blocked, deleted, otp_hash, otp_expires_at, created_at, updated_at`

// Create inserts a new unverified user with its initial OTP pair.
// Username and email are stored lowercase.
func (s *UserStore) Create(username, email, passwordHash, otpHash string, otpExpiresAt time.Time) (*model.User, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (username, email, password_hash, otp_hash, otp_expires_at) VALUES (?, ?, ?, ?, ?)`,
		strings.ToLower(username), strings.ToLower(email), passwordHash, otpHash, otpExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ?`, strings.ToLower(email))
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByUsername(username string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE username = ?`, strings.ToLower(username))
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

// List returns a page of users with the given role.
func (s *UserStore) List(page, limit int, role string) ([]model.User, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	rows, err := s.db.Query(
		`SELECT `+userCols+` FROM users WHERE role = ? ORDER BY id LIMIT ? OFFSET ?`,
		role, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Search matches users whose username or display name contains key,
// case-insensitively.
func (s *UserStore) Search(key string) ([]model.User, error) {
	pattern := "%" + strings.ToLower(key) + "%"
	rows, err := s.db.Query(
		`SELECT `+userCols+` FROM users WHERE username LIKE ? OR LOWER(name) LIKE ? ORDER BY username`,
		pattern, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Patch applies the enumerated profile fields. The patch type carries
// no password or role field, so those can never change through here.
func (s *UserStore) Patch(id int64, patch model.UserPatch) (*model.User, error) {
	sets := []string{`updated_at = CURRENT_TIMESTAMP`}
	args := []any{}
	if patch.Name != nil {
		sets = append(sets, `name = ?`)
		args = append(args, *patch.Name)
	}
	if patch.Bio != nil {
		sets = append(sets, `bio = ?`)
		args = append(args, *patch.Bio)
	}
	if patch.ProfilePic != nil {
		sets = append(sets, `profile_pic = ?`)
		args = append(args, *patch.ProfilePic)
	}
	args = append(args, id)

	_, err := s.db.Exec(`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("patch user: %w", err)
	}
	return s.GetByID(id)
}

// SetOTP overwrites the stored OTP pair; only the newest code is ever
// valid.
func (s *UserStore) SetOTP(id int64, otpHash string, otpExpiresAt time.Time) (*model.User, error) {
	_, err := s.db.Exec(
		`UPDATE users SET otp_hash = ?, otp_expires_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		otpHash, otpExpiresAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set otp: %w", err)
	}
	return s.GetByID(id)
}

// MarkVerified sets verified and clears the OTP pair in one statement.
func (s *UserStore) MarkVerified(id int64) (*model.User, error) {
	_, err := s.db.Exec(
		`UPDATE users SET verified = 1, otp_hash = NULL, otp_expires_at = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("mark verified: %w", err)
	}
	return s.GetByID(id)
}

// ResetPassword stores the new hash, re-verifies the account, and
// clears the OTP pair in one statement.
func (s *UserStore) ResetPassword(id int64, passwordHash string) (*model.User, error) {
	_, err := s.db.Exec(
		`UPDATE users SET password_hash = ?, verified = 1, otp_hash = NULL, otp_expires_at = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		passwordHash, id,
	)
	if err != nil {
		return nil, fmt.Errorf("reset password: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) SetBlocked(id int64, blocked bool) (*model.User, error) {
	_, err := s.db.Exec(
		`UPDATE users SET blocked = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		blocked, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set blocked: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) SetDeleted(id int64, deleted bool) (*model.User, error) {
	_, err := s.db.Exec(
		`UPDATE users SET deleted = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		deleted, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set deleted: %w", err)
	}
	return s.GetByID(id)
}

// Delete removes the user row permanently; sessions cascade.
func (s *UserStore) Delete(id int64) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return count == 1, nil
}

// ClearExpiredOTPs drops stale OTP pairs so the hash and expiry never
// outlive each other.
func (s *UserStore) ClearExpiredOTPs() (int64, error) {
	result, err := s.db.Exec(
		`UPDATE users SET otp_hash = NULL, otp_expires_at = NULL WHERE otp_expires_at IS NOT NULL AND otp_expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, fmt.Errorf("clear expired otps: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
