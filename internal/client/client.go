// Package client ties sign-in, the connection, and the conversation store
// into one session lifecycle.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/med1001/privora/internal/config"
	"github.com/med1001/privora/internal/conn"
	"github.com/med1001/privora/internal/core"
	"github.com/med1001/privora/internal/identity"
	"github.com/med1001/privora/internal/inbound"
	"github.com/med1001/privora/internal/outbound"
	"github.com/med1001/privora/internal/search"
	"github.com/med1001/privora/internal/session"
)

// ErrNoSession is returned by operations that need a signed-in session.
var ErrNoSession = errors.New("not signed in")

// Option configures a Client.
type Option func(*Client)

// WithEventHandler receives conversation store changes.
func WithEventHandler(fn func(core.Event)) Option {
	return func(c *Client) {
		c.onEvent = fn
	}
}

// WithStatusHandler receives connection status changes.
func WithStatusHandler(fn func(conn.Status)) Option {
	return func(c *Client) {
		c.onStatus = fn
	}
}

// WithHTTPClient overrides the HTTP client used for sign-in and search.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Client owns at most one session at a time.
type Client struct {
	cfg        config.ClientConfig
	wsURL      string
	log        *zerolog.Logger
	httpClient *http.Client
	onEvent    func(core.Event)
	onStatus   func(conn.Status)

	identity  *identity.Client
	searcher  *search.Client
	debouncer *search.Debouncer

	mu         sync.Mutex
	sess       *session.Session
	store      *core.Store
	manager    *conn.Manager
	dispatcher *outbound.Dispatcher
}

// New builds a client from configuration. No network calls are made.
func New(cfg config.ClientConfig, logger *zerolog.Logger, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("client config: %w", err)
	}
	wsURL, err := cfg.WSEndpoint()
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:   cfg,
		wsURL: wsURL,
		log:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	var limiter *rate.Limiter
	if cfg.SearchRate > 0 {
		burst := cfg.SearchBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.SearchRate), burst)
	}

	c.identity = identity.NewClient(cfg.APIURL, c.httpClient)
	c.searcher = search.NewClient(cfg.APIURL, c.httpClient, limiter)
	c.debouncer = search.NewDebouncer(cfg.SearchDebounce)
	return c, nil
}

// Register creates an account with the identity provider.
func (c *Client) Register(ctx context.Context, email, password, displayName string) error {
	return c.identity.SignUp(ctx, email, password, displayName)
}

// Login signs in and starts a session. Authentication failures are returned
// before any connection is attempted.
func (c *Client) Login(ctx context.Context, email, password string) (session.Session, error) {
	id, err := c.identity.SignIn(ctx, email, password)
	if err != nil {
		return session.Session{}, err
	}
	s := id.Session()
	if err := c.Start(ctx, s); err != nil {
		return s, err
	}
	return s, nil
}

// Start ends any current session and begins a new one for s with an empty
// store. If the connection cannot be opened the session remains, with
// status error, so Reconnect can retry it.
func (c *Client) Start(ctx context.Context, s session.Session) error {
	if err := s.Validate(c.cfg.AuthMode); err != nil {
		return err
	}
	c.Logout()

	logger := c.log.With().Str("user_id", s.UserID).Logger()
	store := core.NewStore(s.UserID, core.WithEventHandler(c.onEvent))
	router := inbound.NewRouter(store, &logger)

	connOpts := []conn.Option{
		conn.WithDialTimeout(c.cfg.DialTimeout),
		conn.WithWriteTimeout(c.cfg.WriteTimeout),
		conn.WithReadLimit(c.cfg.ReadLimit),
	}
	if c.onStatus != nil {
		connOpts = append(connOpts, conn.WithStatusHandler(c.onStatus))
	}
	manager := conn.NewManager(c.wsURL, router.Handle, &logger, connOpts...)
	dispatcher := outbound.NewDispatcher(store, manager, s.DisplayName, &logger)

	c.mu.Lock()
	c.sess = &s
	c.store = store
	c.manager = manager
	c.dispatcher = dispatcher
	c.mu.Unlock()

	if err := manager.Open(ctx, s.LoginFrame(c.cfg.AuthMode)); err != nil {
		return fmt.Errorf("open connection: %w", err)
	}
	return nil
}

// Reconnect starts the current session again from scratch. The backend
// replays contacts and history on login, so the store is rebuilt rather
// than appended to.
func (c *Client) Reconnect(ctx context.Context) error {
	s, ok := c.Session()
	if !ok {
		return ErrNoSession
	}
	return c.Start(ctx, s)
}

// Logout closes the connection and discards all session state. It returns
// after the connection's read loop has stopped.
func (c *Client) Logout() {
	c.mu.Lock()
	manager := c.manager
	c.sess = nil
	c.store = nil
	c.manager = nil
	c.dispatcher = nil
	c.mu.Unlock()

	c.debouncer.Stop()
	if manager != nil {
		manager.Close()
	}
}

// Session returns the active session.
func (c *Client) Session() (session.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return session.Session{}, false
	}
	return *c.sess, true
}

// Store returns the active session's store, or nil after logout.
func (c *Client) Store() *core.Store {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store
}

// Status reports the connection status; disconnected without a session.
func (c *Client) Status() conn.Status {
	c.mu.Lock()
	manager := c.manager
	c.mu.Unlock()
	if manager == nil {
		return conn.StatusDisconnected
	}
	return manager.Status()
}

// Send writes body to userID optimistically and transmits it if connected.
func (c *Client) Send(body, to string) error {
	c.mu.Lock()
	dispatcher := c.dispatcher
	c.mu.Unlock()
	if dispatcher == nil {
		return ErrNoSession
	}
	return dispatcher.Send(body, to)
}

// SendToSelected sends body to the selected conversation.
func (c *Client) SendToSelected(body string) error {
	store := c.Store()
	if store == nil {
		return ErrNoSession
	}
	return c.Send(body, store.Selected())
}

// Select opens the conversation with userID.
func (c *Client) Select(userID, displayName string) error {
	store := c.Store()
	if store == nil {
		return ErrNoSession
	}
	store.SelectConversation(userID, displayName)
	return nil
}

// Search looks up users by prefix with the session's token.
func (c *Client) Search(ctx context.Context, prefix string) ([]core.Contact, error) {
	s, ok := c.Session()
	if !ok {
		return nil, ErrNoSession
	}
	return c.searcher.Search(ctx, s.Token, prefix)
}

// SearchAsync debounces lookups while the user types. cb runs only for the
// last prefix in a burst and never for a lookup superseded mid-flight.
func (c *Client) SearchAsync(prefix string, cb func([]core.Contact, error)) {
	c.debouncer.Do(func(ctx context.Context) {
		results, err := c.Search(ctx, prefix)
		if ctx.Err() != nil {
			return
		}
		cb(results, err)
	})
}
