package proto

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeFrame(t *testing.T) {
	f, err := DecodeFrame([]byte(`{"type":"message","from":"u2","message":"hi"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if Str(f.From) != "u2" || Str(f.Message) != "hi" || f.To != nil {
		t.Fatalf("unexpected frame: %+v", f)
	}
}

func TestDecodeFrameRejectsNonObjects(t *testing.T) {
	if _, err := DecodeFrame([]byte(`[1,2]`)); !errors.Is(err, ErrNotObject) {
		t.Fatalf("expected ErrNotObject, got %v", err)
	}
	if _, err := DecodeFrame([]byte(`"text"`)); !errors.Is(err, ErrNotObject) {
		t.Fatalf("expected ErrNotObject for string, got %v", err)
	}
	if _, err := DecodeFrame([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for invalid json")
	}
	if _, err := DecodeFrame([]byte(`{"from":`)); err == nil {
		t.Fatalf("expected error for truncated object")
	}
}

func TestLoginFrameOmitsEmptyDisplayName(t *testing.T) {
	data, err := json.Marshal(NewLoginFrame("tok", ""))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"type":"login","credential":"tok"}` {
		t.Fatalf("unexpected login frame: %s", data)
	}
}

func TestIsArray(t *testing.T) {
	if !IsArray(json.RawMessage(` [ ]`)) {
		t.Fatalf("expected array")
	}
	if IsArray(json.RawMessage(`{}`)) || IsArray(nil) {
		t.Fatalf("expected non-array")
	}
}

func TestPresent(t *testing.T) {
	tests := []struct {
		raw  json.RawMessage
		want bool
	}{
		{nil, false},
		{json.RawMessage(`null`), false},
		{json.RawMessage(` null `), false},
		{json.RawMessage(`[]`), true},
		{json.RawMessage(`{}`), true},
		{json.RawMessage(`"x"`), true},
	}
	for _, tt := range tests {
		if got := Present(tt.raw); got != tt.want {
			t.Fatalf("Present(%q): expected %v, got %v", tt.raw, tt.want, got)
		}
	}
}

func TestDecodeFrameKeepsNullCollectionsAbsent(t *testing.T) {
	f, err := DecodeFrame([]byte(`{"contacts":null,"messages":null}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if Present(f.Contacts) || Present(f.Messages) {
		t.Fatalf("expected null collections to be absent, got %q %q", f.Contacts, f.Messages)
	}
}
