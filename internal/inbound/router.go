package inbound

import (
	"github.com/rs/zerolog"

	"github.com/med1001/privora/internal/core"
	"github.com/med1001/privora/internal/proto"
)

// Sink is the part of the conversation store inbound payloads are applied to.
type Sink interface {
	ApplyContactsSnapshot(contacts []core.Contact)
	ApplyLiveMessage(from, body, fromDisplayName string)
	ApplyHistoryBackfill(items []core.HistoryItem)
}

// Router classifies frames and applies them to a Sink.
type Router struct {
	sink Sink
	log  *zerolog.Logger
}

// NewRouter creates a router for one session's store.
func NewRouter(sink Sink, logger *zerolog.Logger) *Router {
	return &Router{sink: sink, log: logger}
}

// Handle is the connection's frame callback.
func (r *Router) Handle(f proto.Frame) {
	p := Classify(f)

	switch p := p.(type) {
	case ContactsSnapshot:
		r.sink.ApplyContactsSnapshot(p.Contacts)
	case LiveMessage:
		r.sink.ApplyLiveMessage(p.From, p.Body, p.FromDisplayName)
	case HistoryBackfill:
		r.sink.ApplyHistoryBackfill(p.Items)
	case Unrecognized:
		r.log.Debug().Str("frame_type", f.Type).Str("reason", p.Reason).Msg("discarding unrecognized frame")
		return
	default:
		r.log.Error().Str("frame_kind", p.Kind()).Msg("unhandled payload kind")
		return
	}

	r.log.Debug().Str("frame_kind", p.Kind()).Msg("applied inbound frame")
}
