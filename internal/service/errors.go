package service

import "errors"

// Common service errors, checked by callers with errors.Is. The API layer
// maps these to HTTP status codes.
var (
	// ErrNotOwned indicates a resource is owned by a different researcher
	// than the one making the request. Maps to 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrStudyNotEditable indicates an attempt to modify the deck or
	// categories of a study that has left the draft state. Maps to 409.
	ErrStudyNotEditable = errors.New("study can only be edited while in draft")

	// ErrInvalidStatusTransition indicates a study lifecycle transition that
	// is not allowed, such as reopening a closed study. Maps to 409.
	ErrInvalidStatusTransition = errors.New("invalid study status transition")

	// ErrStudyNotAcceptingResults indicates a result submission to a study
	// that is not active. Maps to 409.
	ErrStudyNotAcceptingResults = errors.New("study is not accepting results")
)
