package session

import (
	"errors"
	"testing"

	"github.com/med1001/privora/internal/config"
	"github.com/med1001/privora/internal/proto"
)

func TestLoginFrame(t *testing.T) {
	s := Session{Token: "tok", UserID: "alice@example.com", DisplayName: "Alice"}

	if got := s.LoginFrame(config.AuthModeToken); got != (proto.LoginFrame{Type: "login", Credential: "tok"}) {
		t.Fatalf("unexpected token frame: %+v", got)
	}
	want := proto.LoginFrame{Type: "login", Credential: "alice@example.com", DisplayName: "Alice"}
	if got := s.LoginFrame(config.AuthModeIdentifier); got != want {
		t.Fatalf("unexpected identifier frame: %+v", got)
	}
}

func TestValidate(t *testing.T) {
	if err := (Session{UserID: "u"}).Validate(config.AuthModeToken); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
	if err := (Session{UserID: "u"}).Validate(config.AuthModeIdentifier); err != nil {
		t.Fatalf("expected identifier session without token to validate, got %v", err)
	}
	if err := (Session{Token: "t"}).Validate(config.AuthModeToken); !errors.Is(err, ErrMissingUserID) {
		t.Fatalf("expected ErrMissingUserID, got %v", err)
	}
}
