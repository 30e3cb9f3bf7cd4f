package auth

import (
	"context"

	"github.com/dukerupert/gatehouse/internal/model"
)

type contextKey struct{}

// AuthContext is the authorization context the guard attaches to a
// request once the token, live user record, and session all check out.
type AuthContext struct {
	User      model.PublicUser
	SessionID int64
	DeviceID  string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.User.ID
}

// IsAdmin reports whether the request carries an admin or super-admin
// identity.
func IsAdmin(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.User.Role == model.RoleAdmin || ac.User.Role == model.RoleSuperAdmin
}
