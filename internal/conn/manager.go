// Package conn owns the single websocket connection of a chat session.
package conn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/med1001/privora/internal/proto"
)

// Handler receives every inbound frame that decoded successfully.
// It runs on the read goroutine and must not call Close.
type Handler func(proto.Frame)

// Option configures a Manager.
type Option func(*Manager)

// WithStatusHandler registers a callback for status transitions.
func WithStatusHandler(fn func(Status)) Option {
	return func(m *Manager) {
		m.onStatus = fn
	}
}

// WithDialTimeout bounds dialing plus the login write.
func WithDialTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.dialTimeout = d
		}
	}
}

// WithWriteTimeout bounds each outgoing frame.
func WithWriteTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.writeTimeout = d
		}
	}
}

// WithReadLimit caps the size of a single inbound frame.
func WithReadLimit(n int64) Option {
	return func(m *Manager) {
		if n > 0 {
			m.readLimit = n
		}
	}
}

// Manager opens, authenticates and tears down one connection at a time.
// It never reconnects on its own; the owner calls Open again.
type Manager struct {
	url          string
	handler      Handler
	log          *zerolog.Logger
	onStatus     func(Status)
	dialTimeout  time.Duration
	writeTimeout time.Duration
	readLimit    int64

	// lifecycle serializes Open and Close.
	lifecycle sync.Mutex

	mu     sync.Mutex
	status Status
	conn   *websocket.Conn
	connID string
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a disconnected manager for url.
func NewManager(url string, handler Handler, logger *zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		url:          url,
		handler:      handler,
		log:          logger,
		dialTimeout:  10 * time.Second,
		writeTimeout: 5 * time.Second,
		readLimit:    1 << 20,
		status:       StatusDisconnected,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Status returns the current connection status.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Open replaces any existing connection, dials, and sends login as the
// first frame. Status is connected only after the login frame is written.
func (m *Manager) Open(ctx context.Context, login proto.LoginFrame) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.teardown("reconnecting")
	m.transition(StatusConnecting)

	dialCtx, cancel := context.WithTimeout(ctx, m.dialTimeout)
	defer cancel()

	c, _, err := websocket.Dial(dialCtx, m.url, nil)
	if err != nil {
		m.log.Warn().Err(err).Str("url", m.url).Msg("dial failed")
		m.transition(StatusError)
		return fmt.Errorf("dial %s: %w", m.url, err)
	}
	c.SetReadLimit(m.readLimit)

	if err := wsjson.Write(dialCtx, c, login); err != nil {
		_ = c.CloseNow()
		m.log.Warn().Err(err).Msg("send login frame failed")
		m.transition(StatusError)
		return fmt.Errorf("send login: %w", err)
	}

	connID := uuid.NewString()
	runCtx, runCancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	m.mu.Lock()
	m.conn = c
	m.connID = connID
	m.cancel = runCancel
	m.done = done
	changed := m.setLocked(StatusConnected)
	m.mu.Unlock()
	m.notify(changed, StatusConnected)

	m.log.Info().Str("conn_id", connID).Str("url", m.url).Msg("connection authenticated")

	go m.readLoop(runCtx, c, connID, done)
	return nil
}

// Send transmits frame if the connection is up. Otherwise the frame is
// dropped, not queued.
func (m *Manager) Send(frame any) bool {
	m.mu.Lock()
	c, status, connID := m.conn, m.status, m.connID
	m.mu.Unlock()

	if c == nil || status != StatusConnected {
		m.log.Debug().Str("status", string(status)).Msg("send skipped, connection not ready")
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.writeTimeout)
	defer cancel()

	if err := wsjson.Write(ctx, c, frame); err != nil {
		m.log.Warn().Err(err).Str("conn_id", connID).Msg("write frame failed")
		return false
	}
	return true
}

// Close shuts the connection and waits for the read loop to exit, so no
// handler call happens after it returns. Safe to call repeatedly.
func (m *Manager) Close() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.teardown("session closed")
}

func (m *Manager) teardown(reason string) {
	m.mu.Lock()
	c, cancel, done, connID := m.conn, m.cancel, m.done, m.connID
	m.conn, m.cancel, m.done = nil, nil, nil
	changed := m.setLocked(StatusDisconnected)
	m.mu.Unlock()

	if c != nil {
		if err := c.Close(websocket.StatusNormalClosure, reason); err != nil {
			m.log.Debug().Err(err).Str("conn_id", connID).Msg("close handshake incomplete")
		}
		cancel()
		<-done
		m.log.Info().Str("conn_id", connID).Str("reason", reason).Msg("connection closed")
	}
	m.notify(changed, StatusDisconnected)
}

func (m *Manager) readLoop(ctx context.Context, c *websocket.Conn, connID string, done chan struct{}) {
	defer close(done)

	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			m.handleReadError(c, connID, err)
			return
		}

		frame, err := proto.DecodeFrame(data)
		if err != nil {
			m.log.Warn().Err(err).Str("conn_id", connID).Int("bytes", len(data)).Msg("dropping malformed frame")
			continue
		}

		if !m.isCurrent(c) {
			return
		}
		if m.handler != nil {
			m.handler(frame)
		}
	}
}

// handleReadError records a connection lost from the remote side. A
// connection already torn down locally is ignored.
func (m *Manager) handleReadError(c *websocket.Conn, connID string, err error) {
	next := StatusError
	if isCleanClose(err) {
		next = StatusDisconnected
	}

	m.mu.Lock()
	if m.conn != c {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.conn, m.cancel, m.done = nil, nil, nil
	changed := m.setLocked(next)
	m.mu.Unlock()

	cancel()
	_ = c.CloseNow()

	if next == StatusError {
		m.log.Warn().Err(err).Str("conn_id", connID).Msg("connection lost")
	} else {
		m.log.Info().Str("conn_id", connID).Msg("connection closed by server")
	}
	m.notify(changed, next)
}

func (m *Manager) isCurrent(c *websocket.Conn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn == c
}

func (m *Manager) transition(to Status) {
	m.mu.Lock()
	changed := m.setLocked(to)
	m.mu.Unlock()
	m.notify(changed, to)
}

// setLocked applies a valid transition and reports whether it happened.
func (m *Manager) setLocked(to Status) bool {
	if m.status == to {
		return false
	}
	if !canTransition(m.status, to) {
		m.log.Debug().Str("from", string(m.status)).Str("to", string(to)).Msg("ignoring invalid status transition")
		return false
	}
	m.status = to
	return true
}

func (m *Manager) notify(changed bool, status Status) {
	if !changed {
		return
	}
	m.log.Debug().Str("status", string(status)).Msg("connection status changed")
	if m.onStatus != nil {
		m.onStatus(status)
	}
}

func isCleanClose(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
