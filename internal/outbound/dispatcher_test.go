package outbound

import (
	"errors"
	"testing"

	"github.com/med1001/privora/internal/core"
	"github.com/med1001/privora/internal/log"
	"github.com/med1001/privora/internal/proto"
)

type mockTransport struct {
	connected bool
	sent      []any
}

func (m *mockTransport) Send(frame any) bool {
	if !m.connected {
		return false
	}
	m.sent = append(m.sent, frame)
	return true
}

func TestSendAppendsThenTransmits(t *testing.T) {
	store := core.NewStore("me")
	tr := &mockTransport{connected: true}
	d := NewDispatcher(store, tr, "Me Myself", log.Nop())

	if err := d.Send("hello", "u2"); err != nil {
		t.Fatalf("send: %v", err)
	}

	entries := store.Log("u2")
	if len(entries) != 1 || entries[0] != (core.Entry{SenderLabel: "me", Body: "hello"}) {
		t.Fatalf("unexpected log: %+v", entries)
	}
	if len(tr.sent) != 1 {
		t.Fatalf("expected one frame, got %d", len(tr.sent))
	}
	frame, ok := tr.sent[0].(proto.OutgoingMessage)
	if !ok {
		t.Fatalf("unexpected frame type %T", tr.sent[0])
	}
	want := proto.OutgoingMessage{Type: "message", To: "u2", Message: "hello", FromDisplayName: "Me Myself"}
	if frame != want {
		t.Fatalf("expected %+v, got %+v", want, frame)
	}
}

func TestSendValidationHasNoSideEffects(t *testing.T) {
	store := core.NewStore("me")
	tr := &mockTransport{connected: true}
	d := NewDispatcher(store, tr, "", log.Nop())

	if err := d.Send("", "u2"); !errors.Is(err, core.ErrBlankBody) {
		t.Fatalf("expected ErrBlankBody, got %v", err)
	}
	if err := d.Send("   ", "u2"); !errors.Is(err, core.ErrBlankBody) {
		t.Fatalf("expected ErrBlankBody, got %v", err)
	}
	if err := d.Send("hello", ""); !errors.Is(err, core.ErrNoRecipient) {
		t.Fatalf("expected ErrNoRecipient, got %v", err)
	}

	if len(store.Log("u2")) != 0 || len(tr.sent) != 0 {
		t.Fatalf("expected no state or network effects, log=%+v sent=%+v", store.Log("u2"), tr.sent)
	}
}

func TestSendWhileDisconnectedKeepsOptimisticEntry(t *testing.T) {
	store := core.NewStore("me")
	tr := &mockTransport{connected: false}
	d := NewDispatcher(store, tr, "", log.Nop())

	if err := d.Send("hello", "u2"); err != nil {
		t.Fatalf("expected nil error for dropped frame, got %v", err)
	}
	if len(store.Log("u2")) != 1 {
		t.Fatalf("expected optimistic entry to remain")
	}
	if len(tr.sent) != 0 {
		t.Fatalf("expected nothing transmitted")
	}
}
