package multipal

import (
	"errors"
	"fmt"
)

// Common errors returned by the Multipal client.
var (
	// ErrNoBackup is returned by restore when no backup blob exists. This is
	// a distinct outcome, not a failure.
	ErrNoBackup = errors.New("no backup found")

	// ErrAuthRequired is returned when a backup operation is attempted while
	// the provider is not authenticated.
	ErrAuthRequired = errors.New("backup provider not authenticated")

	// ErrProviderNotReady is returned when the provider has not finished
	// initializing.
	ErrProviderNotReady = errors.New("backup provider not ready")

	// ErrUnknownPackage is returned when cloning a package the catalog does
	// not know.
	ErrUnknownPackage = errors.New("package not in catalog")

	// ErrRestoreDeclined is returned when the user does not confirm a manual
	// restore. Local state is untouched.
	ErrRestoreDeclined = errors.New("restore not confirmed")

	// ErrNoSession is returned when an operation requires a signed-in user.
	ErrNoSession = errors.New("no active session")

	// ErrStoreClosed is returned when operating on a closed profile store.
	ErrStoreClosed = errors.New("profile store is closed")
)

// ValidationError is returned when configuration validation fails.
// Extractable via errors.As().
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// SyncError is returned when a remote call fails transiently. Local state is
// unaffected and the operation is not retried automatically.
// Extractable via errors.As(). Supports Unwrap().
type SyncError struct {
	Operation  string
	StatusCode int
	Err        error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync: %s failed (status %d): %v", e.Operation, e.StatusCode, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// SnapshotError is returned when a backup payload fails to parse or
// validate. Restore is aborted before any state is touched; partial
// application of a corrupt snapshot is forbidden.
// Extractable via errors.As(). Supports Unwrap().
type SnapshotError struct {
	Reason string
	Err    error
}

func (e *SnapshotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("snapshot: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("snapshot: %s", e.Reason)
}

func (e *SnapshotError) Unwrap() error { return e.Err }
