// Package app wires the reference backend together.
package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/med1001/privora/internal/auth"
	"github.com/med1001/privora/internal/config"
	"github.com/med1001/privora/internal/relay"
	"github.com/med1001/privora/internal/store"
	"github.com/med1001/privora/internal/store/sqlite"
	transporthttp "github.com/med1001/privora/internal/transport/http"
)

// App wires together storage, auth, relay, and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	store           store.Store
	auth            *auth.Service
	log             *zerolog.Logger
}

// NewAuthService builds the auth service from server configuration.
func NewAuthService(st store.UserStore, cfg config.ServerConfig) *auth.Service {
	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	}
	return auth.NewService(st, jwtConfig, cfg.AutoVerifyEmail)
}

// New constructs the application with provided configuration.
func New(cfg config.ServerConfig, logger *zerolog.Logger) (*App, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("server.jwt_secret is required")
	}
	if cfg.JWTSecret == config.Default().Server.JWTSecret {
		logger.Warn().Msg("using the default jwt secret, set server.jwt_secret")
	}

	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	authService := NewAuthService(st, cfg)
	hub := relay.NewHub()
	server := transporthttp.NewServer(transporthttp.Deps{Auth: authService, Store: st, Hub: hub}, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		auth:            authService,
		log:             logger,
	}, nil
}

// Auth exposes the auth service for admin commands.
func (a *App) Auth() *auth.Service {
	return a.auth
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.Close()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.Close()
			return err
		}

		a.Close()
		return <-serverErr
	}
}

// Close releases the database.
func (a *App) Close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close store")
	} else {
		a.log.Info().Msg("store closed")
	}
	a.store = nil
}
