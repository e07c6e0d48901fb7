package core

// Contact is a counterpart the local user has talked to or can message.
type Contact struct {
	UserID      string
	DisplayName string
}

// Label returns the display name, falling back to the user id.
func (c Contact) Label() string {
	if c.DisplayName == "" {
		return c.UserID
	}
	return c.DisplayName
}

// hasRealName reports whether name is a display name rather than a stand-in for the id.
func hasRealName(userID, name string) bool {
	return name != "" && name != userID
}

// mergeName picks the display name to keep for userID. A real name always
// beats an empty or bare-id one. Between two real names only an
// authoritative source (the backend contact list) replaces the current one.
func mergeName(userID, current, incoming string, authoritative bool) string {
	switch {
	case !hasRealName(userID, incoming):
		if current == "" {
			return userID
		}
		return current
	case !hasRealName(userID, current):
		return incoming
	case authoritative:
		return incoming
	default:
		return current
	}
}
