package repositories

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
	// ErrStaleStatus indicates a conditional status transition found the record in a
	// different state than the caller expected.
	ErrStaleStatus = errors.New("record status changed")
)
