package handler

import (
	"net/mail"
	"strings"
)

const (
	minUsernameLen = 4
	minPasswordLen = 6
)

// Field validation mirrors what the routing layer's validator enforces
// before requests reach the flows: presence and format only, no
// business rules.

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}

func validateRegister(username, password, email string) map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(username) == "" {
		fields["username"] = "Username is required"
	} else if len(username) < minUsernameLen {
		fields["username"] = "Username must be at least 4 characters long."
	}
	if password == "" {
		fields["password"] = "Password is required"
	} else if len(password) < minPasswordLen {
		fields["password"] = "Password must be at least 6 characters long."
	}
	if !validEmail(email) {
		fields["email"] = "Invalid email"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func validateLogin(email, password string) map[string]string {
	fields := map[string]string{}
	if password == "" {
		fields["password"] = "Password is required"
	}
	if !validEmail(email) {
		fields["email"] = "Invalid email"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func validateResetPassword(email, code, password string) map[string]string {
	fields := map[string]string{}
	if password == "" {
		fields["password"] = "Password is required"
	} else if len(password) < minPasswordLen {
		fields["password"] = "Password must be at least 6 characters long."
	}
	if code == "" {
		fields["otp"] = "Otp is required"
	}
	if !validEmail(email) {
		fields["email"] = "Invalid email"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
