package http

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"

	"github.com/med1001/privora/internal/auth"
	"github.com/med1001/privora/internal/config"
	"github.com/med1001/privora/internal/log"
	"github.com/med1001/privora/internal/proto"
	"github.com/med1001/privora/internal/relay"
	"github.com/med1001/privora/internal/store"
	"github.com/med1001/privora/internal/store/sqlite"
)

type testBackend struct {
	server *httptest.Server
	store  store.Store
	auth   *auth.Service
	hub    *relay.Hub
}

func testServerConfig() config.ServerConfig {
	cfg := config.Default().Server
	cfg.JWTSecret = "test-secret"
	cfg.JWTIssuer = "test"
	cfg.JWTAudience = "test"
	cfg.LoginTimeout = 2 * time.Second
	cfg.MessageRate = 0
	return cfg
}

// startTestBackend serves the full router over an in-memory store.
func startTestBackend(t *testing.T, cfg config.ServerConfig, autoVerify bool) *testBackend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      time.Hour,
	}, autoVerify)
	hub := relay.NewHub()

	handler := NewHandler(Deps{Auth: authService, Store: st, Hub: hub}, cfg, log.Nop())

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	return &testBackend{server: ts, store: st, auth: authService, hub: hub}
}

func (b *testBackend) wsURL() string {
	return "ws" + strings.TrimPrefix(b.server.URL, "http") + "/ws"
}

func (b *testBackend) postJSON(t *testing.T, path string, body any) *stdhttp.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := b.server.Client().Post(b.server.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// signUpAndIn registers an account and returns its session token.
func (b *testBackend) signUpAndIn(t *testing.T, email, displayName string) string {
	t.Helper()
	if _, err := b.auth.SignUp(context.Background(), email, "password123", displayName); err != nil {
		t.Fatalf("sign up %s: %v", email, err)
	}
	token, _, err := b.auth.SignIn(context.Background(), email, "password123")
	if err != nil {
		t.Fatalf("sign in %s: %v", email, err)
	}
	return token
}

// dialLogin connects and sends the login frame.
func (b *testBackend) dialLogin(t *testing.T, ctx context.Context, credential, displayName string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, b.wsURL(), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.CloseNow() })

	if err := wsjson.Write(ctx, conn, proto.NewLoginFrame(credential, displayName)); err != nil {
		t.Fatalf("write login: %v", err)
	}
	return conn
}

func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn) proto.Frame {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	frame, err := proto.DecodeFrame(data)
	if err != nil {
		t.Fatalf("decode frame %s: %v", data, err)
	}
	return frame
}
