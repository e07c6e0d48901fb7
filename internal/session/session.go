// Package session holds the identity of a signed-in user for one login.
package session

import (
	"errors"

	"github.com/med1001/privora/internal/config"
	"github.com/med1001/privora/internal/proto"
)

var (
	// ErrMissingToken is returned by Validate in token mode.
	ErrMissingToken = errors.New("session has no token")
	// ErrMissingUserID is returned by Validate when the user id is empty.
	ErrMissingUserID = errors.New("session has no user id")
)

// Session is created on login and dropped on logout.
type Session struct {
	Token       string
	UserID      string
	DisplayName string
}

// Validate checks the fields the connection needs for the given auth mode.
func (s Session) Validate(mode string) error {
	if s.UserID == "" {
		return ErrMissingUserID
	}
	if mode != config.AuthModeIdentifier && s.Token == "" {
		return ErrMissingToken
	}
	return nil
}

// Label is the display name, or the user id when there is none.
func (s Session) Label() string {
	if s.DisplayName == "" {
		return s.UserID
	}
	return s.DisplayName
}

// LoginFrame builds the authentication frame. Token deployments send the
// bearer token; identifier deployments send the user id and display name.
func (s Session) LoginFrame(mode string) proto.LoginFrame {
	if mode == config.AuthModeIdentifier {
		return proto.NewLoginFrame(s.UserID, s.Label())
	}
	return proto.NewLoginFrame(s.Token, "")
}
