package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/med1001/privora/internal/auth"
	"github.com/med1001/privora/internal/config"
	"github.com/med1001/privora/internal/proto"
	"github.com/med1001/privora/internal/relay"
	"github.com/med1001/privora/internal/store"
)

const (
	outboxSize   = 32
	historyLimit = 500
	readLimit    = 1 << 20
	writeTimeout = 10 * time.Second
)

var errLoginRequired = errors.New("first frame must be a login")

// peerIdentity is who a connection authenticated as.
type peerIdentity struct {
	UserID      string
	DisplayName string
}

// WSHandler upgrades HTTP connections and bridges them to the relay hub.
type WSHandler struct {
	auth  *auth.Service
	store store.MessageStore
	hub   *relay.Hub
	cfg   config.ServerConfig
	log   *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(deps Deps, cfg config.ServerConfig, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{
		auth:  deps.Auth,
		store: deps.Store,
		hub:   deps.Hub,
		cfg:   cfg,
		log:   logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(readLimit)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	id, err := h.authenticate(ctx, conn)
	if err != nil {
		h.log.Info().Err(err).Str("remote", r.RemoteAddr).Msg("ws login rejected")
		conn.Close(websocket.StatusPolicyViolation, "authentication failed")
		return
	}

	peer := relay.NewPeer(uuid.NewString(), id.UserID, outboxSize)
	logger := h.log.With().Str("conn_id", peer.ID).Str("user_id", id.UserID).Logger()

	// Register before replaying so nothing sent meanwhile is missed.
	h.hub.Register(peer)
	defer h.hub.Unregister(peer)
	logger.Info().Msg("ws peer connected")

	if err := h.replay(ctx, conn, id.UserID); err != nil {
		logger.Warn().Err(err).Msg("replay failed")
		conn.Close(websocket.StatusInternalError, "replay failed")
		return
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, peer, id, &logger)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, peer, &logger)
	}()

	err = <-errCh
	cancel()
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = "connection error"
			logger.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	logger.Info().Int("status", int(status)).Msg("ws peer disconnected")
	conn.Close(status, reason)
}

// authenticate reads the login frame within the configured timeout.
func (h *WSHandler) authenticate(ctx context.Context, conn *websocket.Conn) (peerIdentity, error) {
	loginCtx := ctx
	if h.cfg.LoginTimeout > 0 {
		var cancel context.CancelFunc
		loginCtx, cancel = context.WithTimeout(ctx, h.cfg.LoginTimeout)
		defer cancel()
	}

	_, data, err := conn.Read(loginCtx)
	if err != nil {
		return peerIdentity{}, fmt.Errorf("read login: %w", err)
	}
	frame, err := proto.DecodeFrame(data)
	if err != nil {
		return peerIdentity{}, err
	}
	credential := strings.TrimSpace(proto.Str(frame.Credential))
	if frame.Type != proto.TypeLogin || credential == "" {
		return peerIdentity{}, errLoginRequired
	}

	claims, tokenErr := h.auth.ValidateToken(credential)
	if tokenErr == nil {
		if !claims.EmailVerified {
			return peerIdentity{}, fmt.Errorf("email %s not verified", claims.Subject)
		}
		name := claims.Name
		if name == "" {
			name = claims.Subject
		}
		return peerIdentity{UserID: claims.Subject, DisplayName: name}, nil
	}

	if !h.cfg.AllowIdentifierLogin {
		return peerIdentity{}, tokenErr
	}
	name := strings.TrimSpace(proto.Str(frame.DisplayName))
	if name == "" {
		name = credential
	}
	return peerIdentity{UserID: credential, DisplayName: name}, nil
}

// replay sends the contacts snapshot followed by the history backfill.
func (h *WSHandler) replay(ctx context.Context, conn *websocket.Conn, userID string) error {
	contacts, err := h.store.ListContacts(ctx, userID)
	if err != nil {
		return fmt.Errorf("list contacts: %w", err)
	}
	snapshot := proto.ContactsFrame{Type: proto.TypeContacts, Contacts: make([]proto.Contact, 0, len(contacts))}
	for _, c := range contacts {
		snapshot.Contacts = append(snapshot.Contacts, proto.Contact{UserID: c.UserID, DisplayName: c.DisplayName})
	}
	if err := writeFrame(ctx, conn, snapshot); err != nil {
		return fmt.Errorf("write contacts: %w", err)
	}

	messages, err := h.store.ListMessagesFor(ctx, userID, historyLimit)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}
	if len(messages) == 0 {
		return nil
	}
	history := proto.HistoryFrame{Type: proto.TypeHistory, Messages: make([]proto.HistoryItem, 0, len(messages))}
	for _, m := range messages {
		history.Messages = append(history.Messages, proto.HistoryItem{
			From:            m.From,
			To:              m.To,
			Message:         m.Body,
			FromDisplayName: m.FromDisplayName,
		})
	}
	if err := writeFrame(ctx, conn, history); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, peer *relay.Peer, id peerIdentity, logger *zerolog.Logger) error {
	limiter := h.newLimiter()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		if limiter != nil && !limiter.Allow() {
			logger.Warn().Msg("rate limit exceeded, dropping frame")
			continue
		}

		frame, err := proto.DecodeFrame(data)
		if err != nil {
			logger.Warn().Err(err).Msg("dropping malformed frame")
			continue
		}

		to := strings.TrimSpace(proto.Str(frame.To))
		body := proto.Str(frame.Message)
		if to == "" || strings.TrimSpace(body) == "" {
			logger.Debug().Str("type", frame.Type).Msg("ignoring frame without recipient or body")
			continue
		}

		h.relayMessage(ctx, peer, id, to, body, proto.Str(frame.FromDisplayName), logger)
	}
}

// relayMessage persists a message and hands it to the recipient's live
// connections. A storage failure does not stop live delivery.
func (h *WSHandler) relayMessage(ctx context.Context, peer *relay.Peer, id peerIdentity, to, body, fromName string, logger *zerolog.Logger) {
	if fromName == "" {
		fromName = id.DisplayName
	}

	msg := &store.Message{
		From:            id.UserID,
		To:              to,
		Body:            body,
		FromDisplayName: fromName,
		CreatedAt:       time.Now().UTC(),
	}
	if err := h.store.SaveMessage(ctx, msg); err != nil {
		logger.Error().Err(err).Str("to", to).Msg("failed to persist message")
	}

	delivered := h.hub.Deliver(to, proto.IncomingMessage{
		Type:            proto.TypeMessage,
		From:            id.UserID,
		Message:         body,
		FromDisplayName: fromName,
	}, peer)
	logger.Debug().Str("to", to).Int("delivered", delivered).Int64("message_id", msg.ID).Msg("message relayed")
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, peer *relay.Peer, logger *zerolog.Logger) error {
	for {
		select {
		case frame := <-peer.Outbox:
			if err := writeFrame(ctx, conn, frame); err != nil {
				logger.Error().Err(err).Msg("write ws frame")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) newLimiter() *rate.Limiter {
	if h.cfg.MessageRate <= 0 {
		return nil
	}
	burst := h.cfg.MessageBurst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(h.cfg.MessageRate), burst)
}

func writeFrame(ctx context.Context, conn *websocket.Conn, v any) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, v)
}
