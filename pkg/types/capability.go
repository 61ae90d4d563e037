package types

import (
	"context"
	"errors"
)

// AccountSource is the read capability: it returns the full, unfiltered
// and unpaginated set of accounts visible to the current session.
type AccountSource interface {
	ListAccounts(ctx context.Context) ([]Account, error)
}

// RecordUpdater is the update capability. Each call updates one record
// and returns the record as persisted.
// Returns ErrNotFound if no record exists with the delta's ID.
type RecordUpdater interface {
	UpdateRecord(ctx context.Context, delta FieldDelta) (Account, error)
}

// Navigator opens a record's detail view in a new view context.
// It is fire-and-forget; failures are not reported to the caller.
type Navigator interface {
	OpenRecordView(recordID string)
}

// Backend is a storage or transport that provides both record
// capabilities. Callers attach with a Config and detach when done.
type Backend interface {
	AccountSource
	RecordUpdater

	// Attach connects the backend. Returns ErrAlreadyAttached if called
	// while already attached.
	Attach(config Config) error

	// Detach releases resources. Idempotent. After Detach, operations
	// return ErrDetached.
	Detach() error
}

// Backend lifecycle errors.
var (
	ErrDetached        = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)

// Record and edit errors.
var (
	ErrNotFound         = errors.New("account not found")
	ErrInvalidID        = errors.New("invalid account ID")
	ErrInvalidName      = errors.New("invalid account name")
	ErrInvalidField     = errors.New("invalid field")
	ErrFieldNotEditable = errors.New("field is not editable")
	ErrInvalidValue     = errors.New("invalid field value")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrInvalidDirection = errors.New("invalid sort direction")
	ErrEmptyDelta       = errors.New("delta has no changes")
)
