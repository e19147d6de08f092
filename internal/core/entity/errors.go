package entity

import "errors"

var (
	// ErrValidation is returned by Save when the bound validator rejects the
	// record. The record's own error accessor carries the details.
	ErrValidation = errors.New("record failed validation")

	// ErrConcurrency is returned when an UPDATE or DELETE bound to a primary
	// key did not affect exactly one row.
	ErrConcurrency = errors.New("row changed or vanished")

	// ErrKeyChanged is returned by Save when a primary key column of a stored
	// row was modified. Keys are never rewritten.
	ErrKeyChanged = errors.New("primary key of a stored row changed")

	// ErrNotFound is returned by Refresh when the row no longer exists.
	ErrNotFound = errors.New("row not found")
)
