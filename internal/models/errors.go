package models

import "errors"

var (
	// ErrNotFound is returned when a card or calendar event id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState is returned when an operation is invoked on data that
	// violates a store invariant, such as a confidence factor outside its bounds.
	ErrInvalidState = errors.New("invalid state")
)
