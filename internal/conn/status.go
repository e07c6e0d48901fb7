package conn

import "slices"

// Status is the connection state reported to the session owner.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
)

// validTransitions lists the moves the manager is allowed to make.
var validTransitions = map[Status][]Status{
	StatusDisconnected: {StatusConnecting},
	StatusConnecting:   {StatusConnected, StatusError, StatusDisconnected},
	StatusConnected:    {StatusDisconnected, StatusError},
	StatusError:        {StatusConnecting, StatusDisconnected},
}

func canTransition(from, to Status) bool {
	return slices.Contains(validTransitions[from], to)
}
