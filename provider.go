package multipal

import "context"

// BackupProvider stores and retrieves the single backup blob for an
// account. Two variants exist: a real one backed by an OAuth-gated file
// store, and an in-memory mock selected when no credentials are configured.
// The fallback is transparent; nothing downstream branches on which variant
// is active.
type BackupProvider interface {
	// Initialize starts the provider and registers the state callback. The
	// callback may fire multiple times with changing authentication state.
	Initialize(onState StateFunc) error

	// Authenticate signs the user in to the provider.
	Authenticate(ctx context.Context) error

	// SignOut signs the user out of the provider.
	SignOut(ctx context.Context) error

	// Upload replaces the backup blob with content.
	Upload(ctx context.Context, content string) error

	// Download returns the raw backup blob, or ErrNoBackup if none exists.
	Download(ctx context.Context) (string, error)
}
