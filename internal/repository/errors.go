package repository

import "errors"

// Storage-level errors shared by all repository implementations.
var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry means an insert violated a uniqueness constraint.
	// For device claims and attendance records this is the authoritative
	// "already submitted" signal, not a failure mode.
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
)

var (
	ErrCourseNotFound = ErrNotFound
)
