package model

import "time"

// Roles assignable to a user. Role changes never travel through the
// generic profile patch; only the privileged admin surface may set them.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super-admin"
)

type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Bio          string     `json:"bio"`
	ProfilePic   string     `json:"profile_pic"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	Verified     bool       `json:"verified"`
	Blocked      bool       `json:"blocked"`
	Deleted      bool       `json:"deleted"`
	OTPHash      *string    `json:"-"`
	OTPExpiresAt *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// PublicUser is the sanitized projection of a user that may leave the
// service: embedded in tokens and echoed in responses. It never carries
// the password hash or OTP material.
type PublicUser struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Verified  bool      `json:"verified"`
	Blocked   bool      `json:"blocked"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
}

// Public builds the sanitized projection. Every response boundary calls
// this explicitly rather than relying on the store to scrub fields.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		Verified:  u.Verified,
		Blocked:   u.Blocked,
		Deleted:   u.Deleted,
		CreatedAt: u.CreatedAt,
	}
}

// UserPatch enumerates the profile fields a user may change about
// themselves. Password and role have no field here, so they cannot be
// smuggled through the generic update path.
type UserPatch struct {
	Name       *string `json:"name"`
	Bio        *string `json:"bio"`
	ProfilePic *string `json:"profile_pic"`
}

// Empty reports whether the patch would change nothing.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Bio == nil && p.ProfilePic == nil
}
