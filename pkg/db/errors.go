package db

import "errors"

// Error kinds returned by the Database. Callers match them with errors.Is.
var (
	// ErrNotFound means a referenced id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrProtected means the operation would break a hard invariant, e.g. deleting the home note.
	ErrProtected = errors.New("protected")
	// ErrValidation means the input was malformed.
	ErrValidation = errors.New("validation failed")
	// ErrConflict means the local state diverged from sqlite. The database has been reloaded
	// and the change discarded.
	ErrConflict = errors.New("conflict")
)
