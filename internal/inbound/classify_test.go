package inbound

import (
	"testing"

	"github.com/med1001/privora/internal/core"
	"github.com/med1001/privora/internal/log"
	"github.com/med1001/privora/internal/proto"
)

func mustFrame(t *testing.T, raw string) proto.Frame {
	t.Helper()

	f, err := proto.DecodeFrame([]byte(raw))
	if err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return f
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind string
	}{
		{name: "contacts", raw: `{"contacts":[{"userId":"u2","displayName":"Bob"}]}`, kind: "contacts"},
		{name: "typed contacts", raw: `{"type":"contacts","contacts":[]}`, kind: "contacts"},
		{name: "live", raw: `{"type":"message","from":"u2","message":"hi"}`, kind: "message"},
		{name: "live without type", raw: `{"from":"u2","message":""}`, kind: "message"},
		{name: "history", raw: `{"type":"history","messages":[{"from":"me","to":"u3","message":"a"}]}`, kind: "history"},
		{name: "contacts wins over message", raw: `{"contacts":[],"from":"u2","message":"hi"}`, kind: "contacts"},
		{name: "live wins over history", raw: `{"from":"u2","message":"hi","messages":[]}`, kind: "message"},
		{name: "from without body", raw: `{"from":"u2"}`, kind: "unrecognized"},
		{name: "empty sender", raw: `{"from":"","message":"hi"}`, kind: "unrecognized"},
		{name: "type alone", raw: `{"type":"message"}`, kind: "unrecognized"},
		{name: "contacts not a list", raw: `{"contacts":{"u2":"Bob"}}`, kind: "unrecognized"},
		{name: "contacts with bad items", raw: `{"contacts":[1,2]}`, kind: "unrecognized"},
		{name: "messages not a list", raw: `{"messages":"nope"}`, kind: "unrecognized"},
		{name: "unknown", raw: `{"foo":"bar"}`, kind: "unrecognized"},
		{name: "null contacts falls through to live", raw: `{"type":"message","contacts":null,"from":"u2","message":"hi"}`, kind: "message"},
		{name: "null messages with live", raw: `{"from":"u2","message":"hi","messages":null}`, kind: "message"},
		{name: "null contacts falls through to history", raw: `{"contacts":null,"messages":[]}`, kind: "history"},
		{name: "only null collections", raw: `{"contacts":null,"messages":null}`, kind: "unrecognized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(mustFrame(t, tt.raw))
			if got.Kind() != tt.kind {
				t.Fatalf("expected %s, got %s (%+v)", tt.kind, got.Kind(), got)
			}
		})
	}
}

func TestClassifyHistorySkipsIncompleteItems(t *testing.T) {
	f := mustFrame(t, `{"type":"history","messages":[
		{"from":"me","to":"u3","message":"a"},
		{"from":"u3","message":"missing to"},
		"garbage",
		{"from":"u3","to":"me","message":"b","fromDisplayName":"Carol"}
	]}`)

	p, ok := Classify(f).(HistoryBackfill)
	if !ok {
		t.Fatalf("expected HistoryBackfill")
	}
	want := []core.HistoryItem{
		{From: "me", To: "u3", Body: "a"},
		{From: "u3", To: "me", Body: "b", FromDisplayName: "Carol"},
	}
	if len(p.Items) != len(want) {
		t.Fatalf("expected %d items, got %+v", len(want), p.Items)
	}
	for i := range want {
		if p.Items[i] != want[i] {
			t.Fatalf("item %d: expected %+v, got %+v", i, want[i], p.Items[i])
		}
	}
}

func TestRouterAppliesPayloads(t *testing.T) {
	s := core.NewStore("me")
	r := NewRouter(s, log.Nop())

	r.Handle(mustFrame(t, `{"contacts":[{"userId":"u2","displayName":"Bob"}]}`))
	r.Handle(mustFrame(t, `{"type":"message","from":"u2","message":"hi","fromDisplayName":"Bob"}`))
	r.Handle(mustFrame(t, `{"type":"history","messages":[{"from":"me","to":"u3","message":"a"},{"from":"u3","to":"me","message":"b"}]}`))

	if got := s.Contacts(); len(got) != 2 {
		t.Fatalf("expected 2 contacts, got %+v", got)
	}
	if got := s.Log("u2"); len(got) != 1 || got[0].SenderLabel != "Bob" {
		t.Fatalf("unexpected u2 log: %+v", got)
	}
	if got := s.Log("u3"); len(got) != 2 || got[0].SenderLabel != "me" || got[1].SenderLabel != "u3" {
		t.Fatalf("unexpected u3 log: %+v", got)
	}
	if s.Selected() != "u2" {
		t.Fatalf("expected u2 selected, got %q", s.Selected())
	}
}

func TestRouterIgnoresUnrecognizedFrames(t *testing.T) {
	s := core.NewStore("me")
	r := NewRouter(s, log.Nop())

	r.Handle(mustFrame(t, `{"foo":"bar"}`))
	r.Handle(mustFrame(t, `{"contacts":"oops"}`))

	if len(s.Contacts()) != 0 || s.Selected() != "" {
		t.Fatalf("expected no mutation, got contacts=%+v selected=%q", s.Contacts(), s.Selected())
	}
	if len(s.Log("bar")) != 0 || len(s.Log("")) != 0 {
		t.Fatalf("expected no log entries")
	}
}
