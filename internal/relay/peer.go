package relay

// Peer is one live connection of a signed-in user as seen by the hub.
type Peer struct {
	ID     string
	UserID string
	Outbox chan any
}

// NewPeer constructs a peer with a buffered outbox.
func NewPeer(id, userID string, buffer int) *Peer {
	if buffer < 1 {
		buffer = 1
	}
	return &Peer{
		ID:     id,
		UserID: userID,
		Outbox: make(chan any, buffer),
	}
}
