package proto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Frame type discriminators. Inbound classification does not rely on them;
// they are set on outgoing frames and by the reference server.
const (
	TypeLogin    = "login"
	TypeMessage  = "message"
	TypeContacts = "contacts"
	TypeHistory  = "history"
)

// ErrNotObject is returned by DecodeFrame for payloads that are valid JSON but not an object.
var ErrNotObject = errors.New("frame is not a JSON object")

// LoginFrame authenticates a connection and must be the first frame sent.
type LoginFrame struct {
	Type        string `json:"type"`
	Credential  string `json:"credential"`
	DisplayName string `json:"displayName,omitempty"`
}

// NewLoginFrame builds a login frame. displayName is only set in identifier-based deployments.
func NewLoginFrame(credential, displayName string) LoginFrame {
	return LoginFrame{Type: TypeLogin, Credential: credential, DisplayName: displayName}
}

// OutgoingMessage is a live message sent by the local user.
type OutgoingMessage struct {
	Type            string `json:"type"`
	To              string `json:"to"`
	Message         string `json:"message"`
	FromDisplayName string `json:"fromDisplayName,omitempty"`
}

// NewOutgoingMessage builds a message frame addressed to a user.
func NewOutgoingMessage(to, body, fromDisplayName string) OutgoingMessage {
	return OutgoingMessage{Type: TypeMessage, To: to, Message: body, FromDisplayName: fromDisplayName}
}

// IncomingMessage is a live message delivered to the local user.
type IncomingMessage struct {
	Type            string `json:"type"`
	From            string `json:"from"`
	Message         string `json:"message"`
	FromDisplayName string `json:"fromDisplayName,omitempty"`
}

// Contact is the wire form of a contact entry.
type Contact struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// ContactsFrame carries the backend's contact list.
type ContactsFrame struct {
	Type     string    `json:"type,omitempty"`
	Contacts []Contact `json:"contacts"`
}

// HistoryItem is one stored message replayed in a history frame.
type HistoryItem struct {
	From            string `json:"from"`
	To              string `json:"to"`
	Message         string `json:"message"`
	FromDisplayName string `json:"fromDisplayName,omitempty"`
}

// HistoryFrame carries previously exchanged messages in delivery order.
type HistoryFrame struct {
	Type     string        `json:"type"`
	Messages []HistoryItem `json:"messages"`
}

// Frame is a decoded inbound frame. Every field is optional; presence is
// what classification looks at, so strings are pointers and collections stay raw.
type Frame struct {
	Type            string          `json:"type,omitempty"`
	From            *string         `json:"from,omitempty"`
	To              *string         `json:"to,omitempty"`
	Message         *string         `json:"message,omitempty"`
	FromDisplayName *string         `json:"fromDisplayName,omitempty"`
	Credential      *string         `json:"credential,omitempty"`
	DisplayName     *string         `json:"displayName,omitempty"`
	Contacts        json.RawMessage `json:"contacts,omitempty"`
	Messages        json.RawMessage `json:"messages,omitempty"`
}

// DecodeFrame parses one JSON object into a Frame.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		if json.Valid(trimmed) {
			return f, ErrNotObject
		}
		return f, fmt.Errorf("invalid json frame")
	}
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return f, fmt.Errorf("decode frame: %w", err)
	}
	return f, nil
}

// Str dereferences an optional string field.
func Str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Present reports whether a raw field was sent with a value. An explicit
// null counts as absent.
func Present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// IsArray reports whether raw holds a JSON array.
func IsArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
