package hub

import "errors"

var (
	// ErrInvalidState is returned when an operation is attempted while the
	// hub is not running.
	ErrInvalidState = errors.New("invalid hub state")

	// ErrUnknownRecipient is returned when an explicit recipient (or the
	// agent named by an inbox or subscription call) is not registered.
	ErrUnknownRecipient = errors.New("unknown recipient")

	// ErrNotFound is returned when a message, thread, or subscription lookup
	// misses.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateThread is returned when an explicit thread id collides.
	ErrDuplicateThread = errors.New("duplicate thread")

	ErrInvalidMessage  = errors.New("invalid message")
	ErrInvalidArgument = errors.New("invalid argument")
)
