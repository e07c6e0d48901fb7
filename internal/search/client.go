// Package search looks up users to start conversations with.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/med1001/privora/internal/core"
)

// ErrUnauthorized is returned when the bearer token is rejected.
var ErrUnauthorized = errors.New("search: token rejected")

// Client queries GET /search-users.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient builds a search client. limiter may be nil to disable rate limiting.
func NewClient(baseURL string, httpClient *http.Client, limiter *rate.Limiter) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		limiter: limiter,
	}
}

type userResponse struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// Search returns users whose id or name starts with prefix. A blank prefix
// returns nothing without a request.
func (c *Client) Search(ctx context.Context, token, prefix string) ([]core.Contact, error) {
	q := strings.TrimSpace(prefix)
	if q == "" {
		return nil, nil
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	endpoint := c.baseURL + "/search-users?" + url.Values{"q": {q}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("search returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var users []userResponse
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]core.Contact, 0, len(users))
	for _, u := range users {
		if u.UserID == "" {
			continue
		}
		out = append(out, core.Contact{UserID: u.UserID, DisplayName: u.DisplayName})
	}
	return out, nil
}
