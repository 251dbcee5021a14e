package multipal

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestSyncErrorUnwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := &SyncError{Operation: "upload", StatusCode: 502, Err: inner}

	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to find the wrapped error")
	}

	wrapped := fmt.Errorf("backup: %w", err)
	var syncErr *SyncError
	if !errors.As(wrapped, &syncErr) {
		t.Fatal("expected errors.As to extract *SyncError")
	}
	if syncErr.StatusCode != 502 {
		t.Errorf("expected status 502, got %d", syncErr.StatusCode)
	}
}

func TestSnapshotErrorMessages(t *testing.T) {
	bare := &SnapshotError{Reason: "missing id"}
	if !strings.Contains(bare.Error(), "missing id") {
		t.Errorf("unexpected message %q", bare.Error())
	}

	inner := errors.New("unexpected end of JSON input")
	withCause := &SnapshotError{Reason: "invalid JSON", Err: inner}
	if !errors.Is(withCause, inner) {
		t.Error("expected wrapped cause reachable")
	}
	if !strings.Contains(withCause.Error(), "invalid JSON") {
		t.Errorf("unexpected message %q", withCause.Error())
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "Backup", Message: "must be auto, drive, or mock"}
	if !strings.Contains(err.Error(), "Backup") {
		t.Errorf("expected field in message, got %q", err.Error())
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNoBackup, ErrAuthRequired, ErrProviderNotReady,
		ErrUnknownPackage, ErrRestoreDeclined, ErrNoSession, ErrStoreClosed,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinels %d and %d are not distinct", i, j)
			}
		}
	}
}
