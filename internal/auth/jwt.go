// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/dino/internal/config"
)

// minSecretLength is the shortest accepted HS256 secret.
const minSecretLength = 32

// AdminClaims are the claims carried by admin REST tokens.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager issues and validates admin tokens.
type JWTManager struct {
	secret  []byte
	timeout time.Duration
	issuer  string
	now     func() time.Time
}

// NewJWTManager creates a manager from the auth configuration.
//
// The secret must be at least 32 characters. Tokens are signed with HS256
// and expire after AdminTokenTTL.
func NewJWTManager(cfg *config.AuthConfig) (*JWTManager, error) {
	if cfg.AdminJWTSecret == "" {
		return nil, fmt.Errorf("admin JWT secret is required but was empty")
	}
	if len(cfg.AdminJWTSecret) < minSecretLength {
		return nil, fmt.Errorf("admin JWT secret must be at least %d characters", minSecretLength)
	}
	timeout := cfg.AdminTokenTTL
	if timeout <= 0 {
		timeout = time.Hour
	}
	return &JWTManager{
		secret:  []byte(cfg.AdminJWTSecret),
		timeout: timeout,
		issuer:  cfg.AdminIssuer,
		now:     time.Now,
	}, nil
}

// GenerateToken signs a token for subject with the given role.
func (m *JWTManager) GenerateToken(subject, role string) (string, error) {
	now := m.now()
	claims := &AdminClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.timeout)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses tokenString and returns its claims. Tokens signed
// with anything other than HMAC are rejected.
func (m *JWTManager) ValidateToken(tokenString string) (*AdminClaims, error) {
	opts := []jwt.ParserOption{jwt.WithTimeFunc(m.now)}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAdminToken, err)
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidAdminToken
	}
	return claims, nil
}
