package mqtt

import "errors"

var (
	// ErrBadTopic is returned for topics outside the cart command layout.
	ErrBadTopic = errors.New("unexpected topic")
	// ErrBadPayload is returned when a command payload cannot be decoded.
	ErrBadPayload = errors.New("malformed command payload")
)
