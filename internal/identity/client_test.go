package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func makeJWT(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newProvider(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(ts.URL, ts.Client())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestSignInReturnsIdentity(t *testing.T) {
	client := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/signin" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req signInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Email != "alice@example.com" || req.Password != "pw" {
			t.Errorf("unexpected credentials %+v", req)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"token":         "tok",
			"userId":        "alice@example.com",
			"displayName":   "Alice",
			"emailVerified": true,
		})
	})

	id, err := client.SignIn(context.Background(), " alice@example.com ", "pw")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	want := Identity{Token: "tok", UserID: "alice@example.com", DisplayName: "Alice", EmailVerified: true}
	if id != want {
		t.Fatalf("expected %+v, got %+v", want, id)
	}
	if s := id.Session(); s.Token != "tok" || s.UserID != "alice@example.com" || s.DisplayName != "Alice" {
		t.Fatalf("unexpected session %+v", s)
	}
}

func TestSignInRejectsUnverifiedEmail(t *testing.T) {
	client := newProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"token":         "tok",
			"userId":        "bob@example.com",
			"displayName":   "Bob",
			"emailVerified": false,
		})
	})

	if _, err := client.SignIn(context.Background(), "bob@example.com", "pw"); !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}
}

func TestSignInMapsUnauthorized(t *testing.T) {
	client := newProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	})

	if _, err := client.SignIn(context.Background(), "x@example.com", "bad"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSignInSurfacesForbidden(t *testing.T) {
	client := newProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "account disabled"})
	})

	_, err := client.SignIn(context.Background(), "x@example.com", "pw")
	if errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected 403 to not be reported as bad credentials")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusForbidden || apiErr.Message != "account disabled" {
		t.Fatalf("expected 403 APIError, got %v", err)
	}
}

func TestSignInFillsIdentityFromClaims(t *testing.T) {
	token := makeJWT(t, jwt.MapClaims{
		"sub":            "carol@example.com",
		"name":           "Carol",
		"email_verified": true,
	})
	client := newProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"token": token})
	})

	id, err := client.SignIn(context.Background(), "carol@example.com", "pw")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if id.UserID != "carol@example.com" || id.DisplayName != "Carol" || !id.EmailVerified {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestSignInWithoutVerificationFlagIsRejected(t *testing.T) {
	token := makeJWT(t, jwt.MapClaims{"sub": "dave@example.com"})
	client := newProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"token": token})
	})

	if _, err := client.SignIn(context.Background(), "dave@example.com", "pw"); !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}
}

func TestSignUp(t *testing.T) {
	calls := 0
	client := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req signUpRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		switch req.Email {
		case "taken@example.com":
			writeJSON(w, http.StatusConflict, map[string]string{"error": "user already exists"})
		case "short@example.com":
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "password too short"})
		default:
			if req.DisplayName != "Erin" {
				t.Errorf("expected trimmed display name, got %q", req.DisplayName)
			}
			writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
		}
	})
	ctx := context.Background()

	if err := client.SignUp(ctx, "erin@example.com", "password", " Erin "); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if err := client.SignUp(ctx, "taken@example.com", "password", "X"); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}

	err := client.SignUp(ctx, "short@example.com", "pw", "X")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "password too short" {
		t.Fatalf("expected APIError with message, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}
