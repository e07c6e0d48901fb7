package core

// EventKind describes a change in the conversation store.
type EventKind int

const (
	// EventContactsChanged fires when a contact is added or renamed.
	EventContactsChanged EventKind = iota
	// EventEntryAppended fires for every entry added to a log.
	EventEntryAppended
	// EventSelectionChanged fires when the selected conversation changes.
	EventSelectionChanged
)

func (k EventKind) String() string {
	switch k {
	case EventContactsChanged:
		return "contacts_changed"
	case EventEntryAppended:
		return "entry_appended"
	case EventSelectionChanged:
		return "selection_changed"
	default:
		return "unknown"
	}
}

// Event is delivered to the store's listener after a mutation is committed.
type Event struct {
	Kind        EventKind
	Counterpart string // log key for EventEntryAppended, new selection for EventSelectionChanged
	Entry       Entry
	Own         bool
}
