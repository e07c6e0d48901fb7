package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/med1001/privora/internal/store"
)

var (
	// ErrInvalidCredentials is returned when email/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when trying to register a taken email.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidEmail is returned for addresses that do not parse.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrInvalidDisplayName is returned when the display name is too long.
	ErrInvalidDisplayName = errors.New("invalid display name")
	// ErrInvalidPassword is returned when password doesn't meet constraints.
	ErrInvalidPassword = errors.New("invalid password")
)

const (
	minPasswordLen    = 6
	maxDisplayNameLen = 64
)

// Account is what sign-in returns alongside the token.
type Account struct {
	UserID        string
	DisplayName   string
	EmailVerified bool
}

// Service provides authentication operations.
type Service struct {
	store      store.UserStore
	jwtConfig  *JWTConfig
	autoVerify bool
}

// NewService creates a new authentication service. With autoVerify set,
// new accounts are created already verified.
func NewService(userStore store.UserStore, jwtConfig *JWTConfig, autoVerify bool) *Service {
	return &Service{
		store:      userStore,
		jwtConfig:  jwtConfig,
		autoVerify: autoVerify,
	}
}

// normalizeEmail lowercases and validates an address. The bare address is
// returned even when a "Name <addr>" form was supplied.
func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

// SignUp creates a new account. An empty display name defaults to the
// part of the email before the @.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (*store.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLen {
		return nil, ErrInvalidPassword
	}
	displayName = strings.TrimSpace(displayName)
	if len(displayName) > maxDisplayNameLen {
		return nil, ErrInvalidDisplayName
	}
	if displayName == "" {
		displayName, _, _ = strings.Cut(email, "@")
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, email, displayName, hashedPassword, s.autoVerify)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// SignIn validates credentials and returns a JWT token. Unverified accounts
// still get a token; the client decides whether to proceed.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, Account, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", Account{}, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", Account{}, ErrInvalidCredentials
		}
		return "", Account{}, fmt.Errorf("get user: %w", err)
	}

	if errPwd := ComparePassword(user.PasswordHash, password); errPwd != nil {
		return "", Account{}, ErrInvalidCredentials
	}

	token, err := GenerateToken(s.jwtConfig, user.Email, user.DisplayName, user.EmailVerified)
	if err != nil {
		return "", Account{}, fmt.Errorf("generate token: %w", err)
	}

	return token, Account{
		UserID:        user.Email,
		DisplayName:   user.DisplayName,
		EmailVerified: user.EmailVerified,
	}, nil
}

// VerifyEmail marks an account verified.
func (s *Service) VerifyEmail(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	return s.store.SetEmailVerified(ctx, email, true)
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}
