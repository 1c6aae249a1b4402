package types

import "errors"

// Pool errors.
var (
	// ErrPoolExhausted is returned when no connection became idle before the
	// acquisition timeout. Callers may retry.
	ErrPoolExhausted = errors.New("connection pool exhausted")

	// ErrPoolCorruption is returned when the pool could not replace a broken
	// connection and therefore can no longer keep its capacity. Fatal.
	ErrPoolCorruption = errors.New("connection pool corrupted")

	// ErrPoolClosed is returned by operations on a pool after Close.
	ErrPoolClosed = errors.New("connection pool is closed")
)

// Transaction errors.
var (
	// ErrCommitFailure is returned when a unit of work could not be committed.
	// The transaction has already been rolled back; retry the whole unit.
	ErrCommitFailure = errors.New("transaction commit failed")
)

// Repository errors.
var (
	ErrConstraintViolation = errors.New("constraint violation")
	ErrNotFound            = errors.New("entity not found")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInsufficientStock   = errors.New("insufficient stock")
)

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)
