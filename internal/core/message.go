package core

// Entry is one line of a conversation log.
type Entry struct {
	SenderLabel string
	Body        string
}

// IsOwn reports whether the entry was written by localUserID.
func (e Entry) IsOwn(localUserID string) bool {
	return e.SenderLabel == localUserID
}

// HistoryItem is a stored message replayed by the backend after login.
type HistoryItem struct {
	From            string
	To              string
	Body            string
	FromDisplayName string
}
