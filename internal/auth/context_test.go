package auth

import (
	"context"
	"testing"

	"github.com/dukerupert/gatehouse/internal/model"
)

func TestContextRoundtrip(t *testing.T) {
	ac := AuthContext{
		User:      model.PublicUser{ID: 7, Email: "alice@example.com", Role: model.RoleUser},
		SessionID: 3,
		DeviceID:  "phone",
	}

	ctx := WithAuth(context.Background(), ac)

	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected auth context")
	}
	if got.User.ID != 7 || got.SessionID != 3 || got.DeviceID != "phone" {
		t.Errorf("got %+v", got)
	}
}

func TestFromContextMissing(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("expected no auth context on a bare context")
	}
	if id := UserID(context.Background()); id != 0 {
		t.Errorf("UserID = %d, want 0", id)
	}
}

func TestIsAdmin(t *testing.T) {
	cases := []struct {
		role string
		want bool
	}{
		{model.RoleUser, false},
		{model.RoleAdmin, true},
		{model.RoleSuperAdmin, true},
	}
	for _, tc := range cases {
		ctx := WithAuth(context.Background(), AuthContext{User: model.PublicUser{Role: tc.role}})
		if got := IsAdmin(ctx); got != tc.want {
			t.Errorf("IsAdmin(%s) = %v, want %v", tc.role, got, tc.want)
		}
	}

	if IsAdmin(context.Background()) {
		t.Error("IsAdmin on bare context should be false")
	}
}
