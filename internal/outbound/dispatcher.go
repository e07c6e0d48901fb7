// Package outbound sends user-composed messages.
package outbound

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/med1001/privora/internal/core"
	"github.com/med1001/privora/internal/proto"
)

// Log receives the optimistic local entry.
type Log interface {
	AppendLocal(to, body string) (core.Entry, error)
}

// Transport transmits a frame, reporting false when it was dropped.
type Transport interface {
	Send(frame any) bool
}

// Dispatcher validates a message, records it locally, then transmits it.
type Dispatcher struct {
	log         Log
	transport   Transport
	displayName string
	logger      *zerolog.Logger
}

// NewDispatcher builds a dispatcher. displayName is attached to every
// outgoing frame so recipients can label it.
func NewDispatcher(l Log, t Transport, displayName string, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{log: l, transport: t, displayName: displayName, logger: logger}
}

// Send returns core.ErrBlankBody or core.ErrNoRecipient without side effects.
// Once the local entry is written Send returns nil even if the frame is dropped.
func (d *Dispatcher) Send(body, to string) error {
	if strings.TrimSpace(body) == "" {
		return core.ErrBlankBody
	}
	if to == "" {
		return core.ErrNoRecipient
	}

	if _, err := d.log.AppendLocal(to, body); err != nil {
		return err
	}

	if !d.transport.Send(proto.NewOutgoingMessage(to, body, d.displayName)) {
		d.logger.Debug().Str("to", to).Msg("message kept locally but not transmitted")
	}
	return nil
}
