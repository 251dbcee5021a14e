package multipal

import (
	"context"
	"sync"
	"time"
)

// Timeouts for remote calls made outside a caller-supplied context.
const (
	backupTimeout  = 30 * time.Second
	persistTimeout = 15 * time.Second
)

// SessionState exposes the live session data the sync engine reads and
// updates. Implemented by SessionLifecycle.
type SessionState interface {
	// UID returns the signed-in user id, or "" when no session is active.
	UID() string

	// Settings returns a copy of the current settings.
	Settings() Settings

	// SetLastBackup records a successful backup timestamp locally and
	// mirrors it to the remote profile.
	SetLastBackup(t time.Time)

	// ApplySnapshotSettings replaces theme and auto-backup flag from a
	// restored snapshot without writing through to the profile.
	ApplySnapshotSettings(s SnapshotSettings)
}

// SyncEngine decides when to push an automatic backup and performs restore
// reconciliation. It owns the single debounce timer: any qualifying state
// change restarts the quiet period, and at most one pending backup exists at
// any time.
type SyncEngine struct {
	store    *InstanceStore
	provider BackupProvider
	profiles RemoteProfileClient
	notifier Notifier
	debug    *DebugLogger
	window   time.Duration

	session SessionState

	mu            sync.Mutex
	timer         *time.Timer
	suppressUntil time.Time
	state         ProviderState
	closed        bool
}

// NewSyncEngine creates a sync engine. window is the debounce quiet period;
// zero selects the default of DefaultConfig. BindSession must be called
// before any change is observed.
func NewSyncEngine(store *InstanceStore, provider BackupProvider, profiles RemoteProfileClient, notifier Notifier, debug *DebugLogger, window time.Duration) *SyncEngine {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if window <= 0 {
		window = DefaultConfig().DebounceWindow
	}
	return &SyncEngine{
		store:    store,
		provider: provider,
		profiles: profiles,
		notifier: notifier,
		debug:    debug,
		window:   window,
	}
}

// BindSession attaches the session state the engine reads at fire time.
func (e *SyncEngine) BindSession(s SessionState) {
	e.session = s
}

// SetProviderState records the latest provider readiness callback. Safe to
// call repeatedly as authentication changes.
func (e *SyncEngine) SetProviderState(st ProviderState) {
	e.mu.Lock()
	e.state = st
	e.mu.Unlock()
}

// ProviderState returns the last reported provider state.
func (e *SyncEngine) ProviderState() ProviderState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// NoteChange marks a qualifying state change and (re)arms the trailing-edge
// debounce timer. Calls inside the suppression window are ignored so that a
// hydration load is never mistaken for a user change.
func (e *SyncEngine) NoteChange() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || time.Now().Before(e.suppressUntil) {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.window, e.autoBackup)
}

// Suppress disables the trigger unconditionally for the next d, cancelling
// any pending backup.
func (e *SyncEngine) Suppress(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.suppressUntil = time.Now().Add(d)
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// Stop cancels any pending automatic backup. The engine stays usable; the
// next qualifying change re-arms the timer.
func (e *SyncEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// Close permanently stops the engine so a timer can never fire against a
// torn-down session.
func (e *SyncEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// autoBackup runs when the debounce timer fires. If auto-backup is disabled
// or the provider is unauthenticated the attempt is skipped silently; no
// retry is scheduled, the next organic change restarts the cycle.
func (e *SyncEngine) autoBackup() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.timer = nil
	st := e.state
	e.mu.Unlock()

	if !e.session.Settings().AutoBackup || !st.Authenticated {
		e.debug.LogSync("auto_backup", "skipped: preconditions not met")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), backupTimeout)
	defer cancel()

	if err := e.backup(ctx); err != nil {
		e.debug.LogError("auto_backup", err)
		e.notifier.Notify(Notice{Level: NoticeError, Message: "Automatic backup failed."})
		return
	}
	e.notifier.Notify(Notice{Level: NoticeSuccess, Message: "Data automatically backed up"})
}

// Backup uploads a snapshot of the current state immediately, independent of
// the debounce timer. Returns ErrAuthRequired when the provider is signed
// out. On success the backup timestamp is recorded locally and mirrored to
// the remote profile; on failure the timestamp is untouched and no retry is
// scheduled.
func (e *SyncEngine) Backup(ctx context.Context) error {
	st := e.ProviderState()
	if !st.Ready {
		return ErrProviderNotReady
	}
	if !st.Authenticated {
		return ErrAuthRequired
	}
	return e.backup(ctx)
}

func (e *SyncEngine) backup(ctx context.Context) error {
	snap := BuildSnapshot(e.store.Instances(), e.session.Settings(), time.Now().UTC())
	content, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := e.provider.Upload(ctx, content); err != nil {
		return err
	}
	e.session.SetLastBackup(snap.BackupDate)
	e.debug.LogSync("backup", "uploaded snapshot")
	return nil
}

// Restore downloads the latest backup, reconciles it into live state, and
// returns the restored snapshot. confirm, if non-nil, is consulted before
// anything is replaced; returning false aborts with ErrRestoreDeclined and
// leaves state untouched. A missing blob yields ErrNoBackup, a corrupt one
// *SnapshotError; in both cases local state is unchanged.
func (e *SyncEngine) Restore(ctx context.Context, confirm func(BackupSnapshot) bool) (*BackupSnapshot, error) {
	st := e.ProviderState()
	if !st.Ready {
		return nil, ErrProviderNotReady
	}
	if !st.Authenticated {
		return nil, ErrAuthRequired
	}

	content, err := e.provider.Download(ctx)
	if err != nil {
		return nil, err
	}

	snap, err := ParseSnapshot(content)
	if err != nil {
		return nil, err
	}

	if confirm != nil && !confirm(*snap) {
		return nil, ErrRestoreDeclined
	}

	if err := e.RestoreSnapshot(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// RestoreSnapshot replaces the instance sequence wholesale, applies the
// snapshot's settings, clears the running map, and writes the merged result
// back to the remote profile. The profile write is best-effort: a failure is
// surfaced as a notice but the local restore stands.
func (e *SyncEngine) RestoreSnapshot(ctx context.Context, snap *BackupSnapshot) error {
	e.store.ReplaceAll(snap.ClonedApps)
	e.session.ApplySnapshotSettings(snap.Settings)

	uid := e.session.UID()
	if uid == "" {
		return nil
	}

	apps := e.store.Instances()
	theme := snap.Settings.Theme
	auto := snap.Settings.AutoBackup
	patch := ProfilePatch{ClonedApps: &apps, Theme: &theme, AutoBackup: &auto}
	if err := e.profiles.Patch(ctx, uid, patch); err != nil {
		e.debug.LogError("restore_persist", err)
		e.notifier.Notify(Notice{Level: NoticeError, Message: "Failed to save restored data. Changes may not be persisted."})
	}
	return nil
}
