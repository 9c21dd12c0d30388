package storage

import "errors"

var (
	// ErrNotFound is returned when a row with the requested id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInUse is returned when a delete is blocked by dependent rows.
	ErrInUse = errors.New("in use")

	// ErrInvalid is returned when a write is rejected before touching the store.
	ErrInvalid = errors.New("invalid")

	// ErrSessionFinished is returned when finishing a session that already has
	// an end time. Re-finishing is disallowed so set logs are written once.
	ErrSessionFinished = errors.New("session already finished")
)
