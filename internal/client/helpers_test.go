package client

import "github.com/med1001/privora/internal/session"

func sessionFor(userID, displayName string) session.Session {
	return session.Session{UserID: userID, DisplayName: displayName}
}
