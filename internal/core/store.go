package core

import (
	"strings"
	"sync"
)

// Store is the in-memory model of one session: contacts, per-contact logs
// and the selected conversation. It lives exactly as long as the session.
//
// Mutations come from the connection read loop and from user sends, so the
// store serializes them; listener callbacks run after the lock is released.
type Store struct {
	mu       sync.Mutex
	local    string
	contacts []Contact
	index    map[string]int
	logs     map[string][]Entry
	selected string
	notify   func(Event)
}

// Option configures a Store.
type Option func(*Store)

// WithEventHandler registers the single change listener.
func WithEventHandler(fn func(Event)) Option {
	return func(s *Store) {
		s.notify = fn
	}
}

// NewStore creates an empty store owned by localUserID.
func NewStore(localUserID string, opts ...Option) *Store {
	s := &Store{
		local: localUserID,
		index: make(map[string]int),
		logs:  make(map[string][]Entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LocalUserID returns the session owner's id.
func (s *Store) LocalUserID() string {
	return s.local
}

// ApplyContactsSnapshot unions the backend contact list into the store.
// Contacts discovered locally before the snapshot are kept.
func (s *Store) ApplyContactsSnapshot(contacts []Contact) {
	s.mu.Lock()
	changed := false
	for _, c := range contacts {
		if c.UserID == "" {
			continue
		}
		if s.upsertLocked(c.UserID, c.DisplayName, true) {
			changed = true
		}
	}
	s.mu.Unlock()

	if changed {
		s.emit(Event{Kind: EventContactsChanged})
	}
}

// ApplyLiveMessage records a message received from another user.
func (s *Store) ApplyLiveMessage(from, body, fromDisplayName string) {
	if from == "" {
		return
	}
	label := fromDisplayName
	if label == "" {
		label = from
	}
	entry := Entry{SenderLabel: label, Body: body}

	s.mu.Lock()
	s.logs[from] = append(s.logs[from], entry)
	events := []Event{{Kind: EventEntryAppended, Counterpart: from, Entry: entry}}
	if s.upsertLocked(from, fromDisplayName, false) {
		events = append(events, Event{Kind: EventContactsChanged})
	}
	if s.selected == "" {
		s.selected = from
		events = append(events, Event{Kind: EventSelectionChanged, Counterpart: from})
	}
	s.mu.Unlock()

	s.emit(events...)
}

// ApplyHistoryBackfill appends replayed messages in the order given. Items
// are not checked against entries already in the logs, so a message that
// arrived live and is replayed here shows up twice.
func (s *Store) ApplyHistoryBackfill(items []HistoryItem) {
	s.mu.Lock()
	var (
		events []Event
		order  []string
		names  = make(map[string]string)
	)
	for _, it := range items {
		counterpart, label := s.resolveLocked(it)
		if counterpart == "" {
			continue
		}
		if _, seen := names[counterpart]; !seen {
			names[counterpart] = ""
			order = append(order, counterpart)
		}
		if it.From == counterpart && hasRealName(counterpart, it.FromDisplayName) {
			names[counterpart] = it.FromDisplayName
		}

		entry := Entry{SenderLabel: label, Body: it.Body}
		s.logs[counterpart] = append(s.logs[counterpart], entry)
		events = append(events, Event{
			Kind:        EventEntryAppended,
			Counterpart: counterpart,
			Entry:       entry,
			Own:         it.From == s.local,
		})
	}

	contactsChanged := false
	for _, counterpart := range order {
		if s.upsertLocked(counterpart, names[counterpart], false) {
			contactsChanged = true
		}
	}
	if contactsChanged {
		events = append(events, Event{Kind: EventContactsChanged})
	}
	if s.selected == "" && len(order) > 0 {
		s.selected = order[0]
		events = append(events, Event{Kind: EventSelectionChanged, Counterpart: order[0]})
	}
	s.mu.Unlock()

	s.emit(events...)
}

// resolveLocked returns the log key and sender label for a history item.
func (s *Store) resolveLocked(it HistoryItem) (counterpart, label string) {
	if it.From == s.local {
		return it.To, s.local
	}
	label = it.FromDisplayName
	if label == "" {
		label = it.From
	}
	return it.From, label
}

// AppendLocal records a message written by the local user before the
// network has seen it. There is no rollback if delivery later fails.
func (s *Store) AppendLocal(to, body string) (Entry, error) {
	if strings.TrimSpace(body) == "" {
		return Entry{}, ErrBlankBody
	}
	if to == "" {
		return Entry{}, ErrNoRecipient
	}
	entry := Entry{SenderLabel: s.local, Body: body}

	s.mu.Lock()
	s.logs[to] = append(s.logs[to], entry)
	s.mu.Unlock()

	s.emit(Event{Kind: EventEntryAppended, Counterpart: to, Entry: entry, Own: true})
	return entry, nil
}

// SelectConversation points the view at userID, adding it as a contact if
// it is not known yet (for example a user picked from search results).
func (s *Store) SelectConversation(userID, displayName string) {
	if userID == "" {
		return
	}

	s.mu.Lock()
	var events []Event
	if s.upsertLocked(userID, displayName, false) {
		events = append(events, Event{Kind: EventContactsChanged})
	}
	if s.selected != userID {
		s.selected = userID
		events = append(events, Event{Kind: EventSelectionChanged, Counterpart: userID})
	}
	s.mu.Unlock()

	s.emit(events...)
}

// Selected returns the selected counterpart, or "" when none is selected.
func (s *Store) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Contacts returns a copy of the contact list in first-seen order.
func (s *Store) Contacts() []Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Contact, len(s.contacts))
	copy(out, s.contacts)
	return out
}

// Contact looks up a single contact.
func (s *Store) Contact(userID string) (Contact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[userID]
	if !ok {
		return Contact{}, false
	}
	return s.contacts[i], true
}

// Log returns a copy of the conversation with userID.
func (s *Store) Log(userID string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.logs[userID]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// upsertLocked inserts or renames a contact and reports whether anything changed.
func (s *Store) upsertLocked(userID, displayName string, authoritative bool) bool {
	i, ok := s.index[userID]
	if !ok {
		s.index[userID] = len(s.contacts)
		s.contacts = append(s.contacts, Contact{
			UserID:      userID,
			DisplayName: mergeName(userID, "", displayName, authoritative),
		})
		return true
	}

	current := s.contacts[i].DisplayName
	merged := mergeName(userID, current, displayName, authoritative)
	if merged == current {
		return false
	}
	s.contacts[i].DisplayName = merged
	return true
}

func (s *Store) emit(events ...Event) {
	if s.notify == nil {
		return
	}
	for _, ev := range events {
		s.notify(ev)
	}
}
