package core

import "errors"

var (
	// ErrBlankBody is returned for a message that is empty after trimming.
	ErrBlankBody = errors.New("message body is blank")
	// ErrNoRecipient is returned when a send has no target user.
	ErrNoRecipient = errors.New("no recipient selected")
)
