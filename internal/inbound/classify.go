// Package inbound turns decoded frames into typed payloads and applies them
// to the conversation store.
package inbound

import (
	"encoding/json"

	"github.com/med1001/privora/internal/core"
	"github.com/med1001/privora/internal/proto"
)

// Payload is one of ContactsSnapshot, LiveMessage, HistoryBackfill or Unrecognized.
type Payload interface {
	payload()
	Kind() string
}

// ContactsSnapshot is the backend's contact list.
type ContactsSnapshot struct {
	Contacts []core.Contact
}

// LiveMessage is a single message addressed to the local user.
type LiveMessage struct {
	From            string
	Body            string
	FromDisplayName string
}

// HistoryBackfill is a batch of stored messages in delivery order.
type HistoryBackfill struct {
	Items []core.HistoryItem
}

// Unrecognized is any frame that matches none of the known shapes.
type Unrecognized struct {
	Reason string
}

func (ContactsSnapshot) payload() {}
func (LiveMessage) payload()      {}
func (HistoryBackfill) payload()  {}
func (Unrecognized) payload()     {}

func (ContactsSnapshot) Kind() string { return "contacts" }
func (LiveMessage) Kind() string      { return "message" }
func (HistoryBackfill) Kind() string  { return "history" }
func (Unrecognized) Kind() string     { return "unrecognized" }

// Classify looks at which fields a frame carries, in a fixed order:
// a contacts list, then a single sender with a body, then a messages list.
// The type field is not trusted on its own, and a null collection is
// treated as missing.
func Classify(f proto.Frame) Payload {
	if proto.Present(f.Contacts) {
		contacts, ok := decodeContacts(f.Contacts)
		if !ok {
			return Unrecognized{Reason: "contacts is not a list of contacts"}
		}
		return ContactsSnapshot{Contacts: contacts}
	}

	if from := proto.Str(f.From); from != "" && f.Message != nil {
		return LiveMessage{
			From:            from,
			Body:            *f.Message,
			FromDisplayName: proto.Str(f.FromDisplayName),
		}
	}

	if proto.Present(f.Messages) {
		items, ok := decodeHistory(f.Messages)
		if !ok {
			return Unrecognized{Reason: "messages is not a list of messages"}
		}
		return HistoryBackfill{Items: items}
	}

	return Unrecognized{Reason: "no known fields"}
}

func decodeContacts(raw json.RawMessage) ([]core.Contact, bool) {
	if !proto.IsArray(raw) {
		return nil, false
	}
	var wire []proto.Contact
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, false
	}
	out := make([]core.Contact, 0, len(wire))
	for _, c := range wire {
		out = append(out, core.Contact{UserID: c.UserID, DisplayName: c.DisplayName})
	}
	return out, true
}

// decodeHistory skips items without both endpoints; a partly bad batch is
// still a batch.
func decodeHistory(raw json.RawMessage) ([]core.HistoryItem, bool) {
	if !proto.IsArray(raw) {
		return nil, false
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, false
	}
	out := make([]core.HistoryItem, 0, len(elems))
	for _, elem := range elems {
		var it proto.HistoryItem
		if err := json.Unmarshal(elem, &it); err != nil {
			continue
		}
		if it.From == "" || it.To == "" {
			continue
		}
		out = append(out, core.HistoryItem{
			From:            it.From,
			To:              it.To,
			Body:            it.Message,
			FromDisplayName: it.FromDisplayName,
		})
	}
	return out, true
}
