package compiler

import "errors"

var (
	// ErrMissingKey is returned for an UPDATE or DELETE without a usable key.
	ErrMissingKey = errors.New("statement requires key columns")
	// ErrNoColumns is returned for an INSERT or UPDATE with nothing to write.
	ErrNoColumns = errors.New("statement has no columns")
)
