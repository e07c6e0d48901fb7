package http

import (
	"context"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/med1001/privora/internal/log"
	"github.com/med1001/privora/internal/proto"
)

func TestNewServerServesWebSocketAndREST(t *testing.T) {
	cfg := testServerConfig()
	b := startTestBackend(t, cfg, true)
	token := b.signUpAndIn(t, "alice@example.com", "Alice")

	srv := NewServer(Deps{Auth: b.auth, Store: b.store, Hub: b.hub}, cfg, log.Nop())
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusOK || string(body) != "ok" {
		t.Fatalf("expected 200 ok, got %d %q", resp.StatusCode, body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("expected websocket upgrade, got %v", err)
	}
	defer conn.CloseNow()

	if err := wsjson.Write(ctx, conn, proto.NewLoginFrame(token, "")); err != nil {
		t.Fatalf("write login: %v", err)
	}
	frame := readFrame(t, ctx, conn)
	if !proto.Present(frame.Contacts) {
		t.Fatalf("expected contacts frame first, got %+v", frame)
	}
}

func TestRouterLeavesWebSocketToHandler(t *testing.T) {
	b := startTestBackend(t, testServerConfig(), true)
	router := NewRouter(Deps{Auth: b.auth, Store: b.store, Hub: b.hub}, testServerConfig(), log.Nop())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/ws", nil))
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("expected gin to not route /ws, got %d", rec.Code)
	}
}
