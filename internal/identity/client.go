// Package identity talks to the identity provider that issues session tokens.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/med1001/privora/internal/session"
)

var (
	// ErrInvalidCredentials is returned when the provider rejects email or password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailNotVerified blocks sign-in until the address is confirmed.
	ErrEmailNotVerified = errors.New("email address not verified, verify it and sign in again")
	// ErrAccountExists is returned by SignUp for a taken email.
	ErrAccountExists = errors.New("an account with this email already exists")
)

// APIError is a non-success response with the provider's error message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("identity provider returned %d", e.Status)
	}
	return fmt.Sprintf("identity provider returned %d: %s", e.Status, e.Message)
}

// Identity is the result of a successful sign-in.
type Identity struct {
	Token         string
	UserID        string
	DisplayName   string
	EmailVerified bool
}

// Session converts the identity into the value a chat session is built from.
func (i Identity) Session() session.Session {
	return session.Session{Token: i.Token, UserID: i.UserID, DisplayName: i.DisplayName}
}

// Client calls the provider's REST endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for baseURL. A nil httpClient uses a 15s timeout default.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResponse struct {
	Token         string `json:"token"`
	UserID        string `json:"userId"`
	DisplayName   string `json:"displayName"`
	EmailVerified *bool  `json:"emailVerified"`
}

type signUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// SignIn exchanges credentials for an identity. Unverified addresses are
// rejected here even when the provider issued a token.
func (c *Client) SignIn(ctx context.Context, email, password string) (Identity, error) {
	var resp signInResponse
	status, err := c.postJSON(ctx, "/signin", signInRequest{Email: strings.TrimSpace(email), Password: password}, &resp)
	if err != nil {
		if status == http.StatusUnauthorized {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, err
	}
	if resp.Token == "" {
		return Identity{}, fmt.Errorf("sign-in response has no token")
	}

	id := Identity{
		Token:       resp.Token,
		UserID:      resp.UserID,
		DisplayName: resp.DisplayName,
	}
	if resp.EmailVerified != nil {
		id.EmailVerified = *resp.EmailVerified
	}

	if id.UserID == "" || id.DisplayName == "" || resp.EmailVerified == nil {
		claims, err := ClaimsFromToken(resp.Token)
		if err != nil {
			return Identity{}, err
		}
		fillFromClaims(&id, claims, resp.EmailVerified == nil)
	}

	if id.UserID == "" {
		return Identity{}, fmt.Errorf("sign-in response has no user id")
	}
	if !id.EmailVerified {
		return Identity{}, ErrEmailNotVerified
	}
	return id, nil
}

// SignUp registers a new account. The provider may require email
// verification before SignIn succeeds.
func (c *Client) SignUp(ctx context.Context, email, password, displayName string) error {
	req := signUpRequest{
		Email:       strings.TrimSpace(email),
		Password:    password,
		DisplayName: strings.TrimSpace(displayName),
	}
	status, err := c.postJSON(ctx, "/signup", req, nil)
	if status == http.StatusConflict {
		return ErrAccountExists
	}
	return err
}

// postJSON returns the HTTP status alongside any error so callers can map it.
func (c *Client) postJSON(ctx context.Context, path string, body, dest any) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorResponse
		_ = json.Unmarshal(raw, &apiErr)
		return resp.StatusCode, &APIError{Status: resp.StatusCode, Message: apiErr.Error}
	}

	if dest != nil {
		if err := json.Unmarshal(raw, dest); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
