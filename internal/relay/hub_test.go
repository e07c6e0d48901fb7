package relay

import "testing"

func TestHubDeliverReachesEveryConnection(t *testing.T) {
	hub := NewHub()
	a1 := NewPeer("a1", "alice", 4)
	a2 := NewPeer("a2", "alice", 4)
	b := NewPeer("b", "bob", 4)

	for _, p := range []*Peer{a1, a2, b} {
		if !hub.Register(p) {
			t.Fatalf("expected %s to register", p.ID)
		}
	}
	if hub.Register(a1) {
		t.Fatalf("expected double register to be a no-op")
	}

	if n := hub.Deliver("alice", "hi", nil); n != 2 {
		t.Fatalf("expected 2 deliveries, got %d", n)
	}
	if got := <-a1.Outbox; got != "hi" {
		t.Fatalf("unexpected frame %v", got)
	}
	if got := <-a2.Outbox; got != "hi" {
		t.Fatalf("unexpected frame %v", got)
	}
	if len(b.Outbox) != 0 {
		t.Fatalf("expected bob to receive nothing")
	}
}

func TestHubDeliverSkipsSender(t *testing.T) {
	hub := NewHub()
	a1 := NewPeer("a1", "alice", 4)
	a2 := NewPeer("a2", "alice", 4)
	hub.Register(a1)
	hub.Register(a2)

	if n := hub.Deliver("alice", "echo", a1); n != 1 {
		t.Fatalf("expected 1 delivery, got %d", n)
	}
	if len(a1.Outbox) != 0 {
		t.Fatalf("expected skipped peer to receive nothing")
	}
}

func TestHubDropsForSlowConsumer(t *testing.T) {
	hub := NewHub()
	p := NewPeer("p", "slow", 1)
	hub.Register(p)

	if n := hub.Deliver("slow", 1, nil); n != 1 {
		t.Fatalf("expected first frame accepted, got %d", n)
	}
	if n := hub.Deliver("slow", 2, nil); n != 0 {
		t.Fatalf("expected full outbox to drop, got %d", n)
	}
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub()
	p := NewPeer("p", "carol", 1)
	hub.Register(p)

	if !hub.Online("carol") {
		t.Fatalf("expected carol online")
	}
	if !hub.Unregister(p) {
		t.Fatalf("expected unregister to succeed")
	}
	if hub.Unregister(p) {
		t.Fatalf("expected second unregister to be a no-op")
	}
	if hub.Online("carol") {
		t.Fatalf("expected carol offline")
	}
	if n := hub.Deliver("carol", "x", nil); n != 0 {
		t.Fatalf("expected no deliveries to offline user, got %d", n)
	}
}
