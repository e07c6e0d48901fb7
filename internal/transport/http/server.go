// Package http serves the reference chat backend: sign-in, sign-up, user
// search, and the websocket relay.
package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/med1001/privora/internal/auth"
	"github.com/med1001/privora/internal/config"
	"github.com/med1001/privora/internal/relay"
	"github.com/med1001/privora/internal/store"
)

// Deps are the services the routes need.
type Deps struct {
	Auth  *auth.Service
	Store store.Store
	Hub   *relay.Hub
}

// NewServer builds an HTTP server with all routes.
func NewServer(deps Deps, cfg config.ServerConfig, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(deps, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewHandler mounts the websocket endpoint next to the gin router. The
// upgrade needs the raw connection, which gin no longer hands out once it has
// written headers, so /ws stays outside the engine.
func NewHandler(deps Deps, cfg config.ServerConfig, logger *zerolog.Logger) stdhttp.Handler {
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(deps, cfg, logger))
	mux.Handle("/", NewRouter(deps, cfg, logger))
	return mux
}

// NewRouter registers the REST routes on a fresh gin engine.
func NewRouter(deps Deps, cfg config.ServerConfig, logger *zerolog.Logger) *gin.Engine {
	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	api := NewAPIHandlers(deps.Auth, logger)
	users := NewUserHandlers(deps.Store, logger)

	router.GET("/health", healthHandler)
	router.POST("/signin", api.SignIn)
	router.POST("/signup", api.SignUp)
	router.GET("/search-users", AuthMiddleware(deps.Auth, logger), users.SearchUsers)

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
