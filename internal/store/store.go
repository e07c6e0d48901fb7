package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a lookup matches nothing.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique key already exists.
	ErrDuplicate = errors.New("already exists")
)

// User is an account. Email doubles as the chat user id.
type User struct {
	ID            int64
	Email         string
	DisplayName   string
	PasswordHash  string
	EmailVerified bool
	CreatedAt     time.Time
}

// Message is a persisted direct message between two chat user ids.
type Message struct {
	ID              int64
	From            string
	To              string
	Body            string
	FromDisplayName string
	CreatedAt       time.Time
}

// Contact is a counterpart derived from message history.
type Contact struct {
	UserID      string
	DisplayName string
}

// UserStore manages accounts.
type UserStore interface {
	CreateUser(ctx context.Context, email, displayName, passwordHash string, verified bool) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	SetEmailVerified(ctx context.Context, email string, verified bool) error
	SearchUsers(ctx context.Context, prefix string, limit int) ([]*User, error)
}

// MessageStore persists direct messages.
type MessageStore interface {
	SaveMessage(ctx context.Context, msg *Message) error
	// ListMessagesFor returns the most recent messages involving userID, oldest first.
	ListMessagesFor(ctx context.Context, userID string, limit int) ([]*Message, error)
	// ListContacts returns everyone userID has exchanged messages with, most recent first.
	ListContacts(ctx context.Context, userID string) ([]Contact, error)
}

// Store aggregates all store interfaces.
type Store interface {
	UserStore
	MessageStore
	Close() error
}
