package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the token fields the client reads. The signature is checked
// by the backend, not here.
type Claims struct {
	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
	EmailVerified *bool  `json:"email_verified,omitempty"`
	jwt.RegisteredClaims
}

// ClaimsFromToken decodes a JWT payload without verifying it.
func ClaimsFromToken(token string) (*Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("parse token claims: %w", err)
	}
	return &claims, nil
}

func fillFromClaims(id *Identity, claims *Claims, useVerified bool) {
	if id.UserID == "" {
		id.UserID = claims.Subject
	}
	if id.UserID == "" {
		id.UserID = claims.Email
	}
	if id.DisplayName == "" {
		id.DisplayName = claims.Name
	}
	if id.DisplayName == "" {
		id.DisplayName = id.UserID
	}
	if useVerified && claims.EmailVerified != nil {
		id.EmailVerified = *claims.EmailVerified
	}
}
