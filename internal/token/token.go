// Package token issues and verifies the signed credentials that prove
// authenticated identity between requests.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dukerupert/gatehouse/internal/model"
)

const (
	accessTTL  = 24 * time.Hour
	refreshTTL = 7 * 24 * time.Hour
)

// ErrInvalidToken is the single outcome for every verification failure:
// bad signature, malformed payload, or expiry. Callers never learn
// which, so a token cannot be probed.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the signed claim bundle: the sanitized user projection plus
// the standard expiry claims.
type Claims struct {
	model.PublicUser
	jwt.RegisteredClaims
}

// Service signs and verifies tokens. Access and refresh tokens use
// separate secrets so one class can never stand in for the other.
type Service struct {
	accessSecret  []byte
	refreshSecret []byte
}

func NewService(accessSecret, refreshSecret string) (*Service, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("token service requires both signing secrets")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	return &Service{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
	}, nil
}

// IssueAccess signs a 1-day access token for the given projection.
func (s *Service) IssueAccess(user model.PublicUser) (string, error) {
	return sign(user, s.accessSecret, accessTTL)
}

// IssueRefresh signs a 7-day refresh token for the given projection.
func (s *Service) IssueRefresh(user model.PublicUser) (string, error) {
	return sign(user, s.refreshSecret, refreshTTL)
}

// VerifyAccess checks signature and expiry atomically and returns the
// embedded projection, or ErrInvalidToken.
func (s *Service) VerifyAccess(tokenStr string) (model.PublicUser, error) {
	return verify(tokenStr, s.accessSecret)
}

// VerifyRefresh mirrors VerifyAccess for the refresh secret.
func (s *Service) VerifyRefresh(tokenStr string) (model.PublicUser, error) {
	return verify(tokenStr, s.refreshSecret)
}

func sign(user model.PublicUser, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		PublicUser: user,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func verify(tokenStr string, secret []byte) (model.PublicUser, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return model.PublicUser{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return model.PublicUser{}, ErrInvalidToken
	}
	return claims.PublicUser, nil
}
