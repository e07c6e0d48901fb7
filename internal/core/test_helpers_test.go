package core

import (
	"testing"
	"time"
)

// recorder collects store events on a buffered channel.
type recorder struct {
	events chan Event
}

func newRecorder() *recorder {
	return &recorder{events: make(chan Event, 64)}
}

func (r *recorder) handle(ev Event) {
	select {
	case r.events <- ev:
	default:
	}
}

func mustEvent(t *testing.T, ch <-chan Event, kind EventKind) Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return Event{}
}

func assertUniqueContacts(t *testing.T, s *Store) {
	t.Helper()

	seen := make(map[string]bool)
	for _, c := range s.Contacts() {
		if seen[c.UserID] {
			t.Fatalf("duplicate contact %q in %+v", c.UserID, s.Contacts())
		}
		seen[c.UserID] = true
	}
}

func assertEntries(t *testing.T, got, want []Entry) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}
