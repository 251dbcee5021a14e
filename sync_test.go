package multipal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// stubSession is a minimal SessionState for engine tests.
type stubSession struct {
	mu       sync.Mutex
	uid      string
	settings Settings
	applied  []SnapshotSettings
}

func (s *stubSession) UID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uid
}

func (s *stubSession) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *stubSession) SetLastBackup(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.LastBackup = &t
}

func (s *stubSession) ApplySnapshotSettings(snap SnapshotSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Theme = NormalizeTheme(snap.Theme)
	s.settings.AutoBackup = snap.AutoBackup
	s.applied = append(s.applied, snap)
}

func (s *stubSession) lastBackup() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.LastBackup
}

func newTestEngine(t *testing.T, window time.Duration, provider *mockProvider, profiles *mockProfiles) (*SyncEngine, *InstanceStore, *stubSession, *captureNotifier) {
	t.Helper()
	store := NewInstanceStore()
	notifier := &captureNotifier{}
	session := &stubSession{settings: Settings{Theme: ThemeLight, AutoBackup: true}}

	engine := NewSyncEngine(store, provider, profiles, notifier, nil, window)
	engine.BindSession(session)
	engine.SetProviderState(ProviderState{Ready: true, Authenticated: true})
	t.Cleanup(engine.Close)
	return engine, store, session, notifier
}

func TestDebounceCoalescesBurst(t *testing.T) {
	provider := &mockProvider{}
	engine, store, _, _ := newTestEngine(t, 50*time.Millisecond, provider, &mockProfiles{})

	// Three changes inside one quiet period produce a single upload.
	store.Add(testApp(), "A")
	engine.NoteChange()
	time.Sleep(20 * time.Millisecond)
	store.Add(testApp(), "B")
	engine.NoteChange()
	time.Sleep(20 * time.Millisecond)
	store.Add(testApp(), "C")
	engine.NoteChange()

	time.Sleep(150 * time.Millisecond)

	if got := provider.uploadCount(); got != 1 {
		t.Fatalf("expected exactly 1 upload, got %d", got)
	}

	// The upload carries the final state, not the state at first change.
	snap, err := ParseSnapshot(provider.lastUpload())
	if err != nil {
		t.Fatalf("uploaded blob failed to parse: %v", err)
	}
	if len(snap.ClonedApps) != 3 {
		t.Errorf("expected snapshot of final state (3 instances), got %d", len(snap.ClonedApps))
	}
}

func TestDebounceRecordsTimestampOnSuccess(t *testing.T) {
	provider := &mockProvider{}
	engine, _, session, notifier := newTestEngine(t, 30*time.Millisecond, provider, &mockProfiles{})

	engine.NoteChange()
	time.Sleep(100 * time.Millisecond)

	if session.lastBackup() == nil {
		t.Fatal("expected last backup timestamp recorded")
	}
	if !notifier.hasLevel(NoticeSuccess) {
		t.Error("expected success notice after automatic backup")
	}
}

func TestDebounceSkipsWhenAutoBackupDisabled(t *testing.T) {
	provider := &mockProvider{}
	engine, _, session, notifier := newTestEngine(t, 30*time.Millisecond, provider, &mockProfiles{})
	session.mu.Lock()
	session.settings.AutoBackup = false
	session.mu.Unlock()

	engine.NoteChange()
	time.Sleep(100 * time.Millisecond)

	if got := provider.uploadCount(); got != 0 {
		t.Errorf("expected no upload with auto-backup disabled, got %d", got)
	}
	// The skip is silent.
	if len(notifier.all()) != 0 {
		t.Errorf("expected no notices, got %v", notifier.all())
	}
}

func TestDebounceSkipsWhenUnauthenticated(t *testing.T) {
	provider := &mockProvider{}
	engine, _, _, _ := newTestEngine(t, 30*time.Millisecond, provider, &mockProfiles{})
	engine.SetProviderState(ProviderState{Ready: true, Authenticated: false})

	engine.NoteChange()
	time.Sleep(100 * time.Millisecond)

	if got := provider.uploadCount(); got != 0 {
		t.Errorf("expected no upload while signed out, got %d", got)
	}
}

func TestDebounceFailureLeavesTimestampAndRetriesNothing(t *testing.T) {
	provider := &mockProvider{
		uploadFunc: func(ctx context.Context, content string) error {
			return &SyncError{Operation: "upload", StatusCode: 503, Err: errors.New("unavailable")}
		},
	}
	engine, _, session, notifier := newTestEngine(t, 30*time.Millisecond, provider, &mockProfiles{})

	engine.NoteChange()
	time.Sleep(150 * time.Millisecond)

	if session.lastBackup() != nil {
		t.Error("expected no timestamp after failed backup")
	}
	if !notifier.hasLevel(NoticeError) {
		t.Error("expected error notice after failed automatic backup")
	}
}

func TestSuppressSwallowsChanges(t *testing.T) {
	provider := &mockProvider{}
	engine, _, _, _ := newTestEngine(t, 30*time.Millisecond, provider, &mockProfiles{})

	engine.Suppress(80 * time.Millisecond)
	engine.NoteChange()
	time.Sleep(130 * time.Millisecond)

	if got := provider.uploadCount(); got != 0 {
		t.Fatalf("expected change during suppression to be dropped, got %d uploads", got)
	}

	// After the window, changes arm the debounce normally.
	engine.NoteChange()
	time.Sleep(100 * time.Millisecond)
	if got := provider.uploadCount(); got != 1 {
		t.Errorf("expected 1 upload after suppression lifted, got %d", got)
	}
}

func TestSuppressCancelsPendingBackup(t *testing.T) {
	provider := &mockProvider{}
	engine, _, _, _ := newTestEngine(t, 50*time.Millisecond, provider, &mockProfiles{})

	engine.NoteChange()
	engine.Suppress(100 * time.Millisecond)
	time.Sleep(200 * time.Millisecond)

	if got := provider.uploadCount(); got != 0 {
		t.Errorf("expected pending backup cancelled by Suppress, got %d uploads", got)
	}
}

func TestStopCancelsPendingButStaysUsable(t *testing.T) {
	provider := &mockProvider{}
	engine, _, _, _ := newTestEngine(t, 30*time.Millisecond, provider, &mockProfiles{})

	engine.NoteChange()
	engine.Stop()
	time.Sleep(100 * time.Millisecond)
	if got := provider.uploadCount(); got != 0 {
		t.Fatalf("expected Stop to cancel the pending backup, got %d uploads", got)
	}

	engine.NoteChange()
	time.Sleep(100 * time.Millisecond)
	if got := provider.uploadCount(); got != 1 {
		t.Errorf("expected engine usable after Stop, got %d uploads", got)
	}
}

func TestCloseIsPermanent(t *testing.T) {
	provider := &mockProvider{}
	engine, _, _, _ := newTestEngine(t, 30*time.Millisecond, provider, &mockProfiles{})

	engine.Close()
	engine.NoteChange()
	time.Sleep(100 * time.Millisecond)

	if got := provider.uploadCount(); got != 0 {
		t.Errorf("expected no uploads after Close, got %d", got)
	}
}

func TestBackupRequiresAuthentication(t *testing.T) {
	provider := &mockProvider{}
	engine, _, _, _ := newTestEngine(t, time.Second, provider, &mockProfiles{})

	engine.SetProviderState(ProviderState{})
	if err := engine.Backup(context.Background()); !errors.Is(err, ErrProviderNotReady) {
		t.Errorf("expected ErrProviderNotReady, got %v", err)
	}

	engine.SetProviderState(ProviderState{Ready: true})
	if err := engine.Backup(context.Background()); !errors.Is(err, ErrAuthRequired) {
		t.Errorf("expected ErrAuthRequired, got %v", err)
	}
}

func TestManualBackupIgnoresAutoBackupFlag(t *testing.T) {
	provider := &mockProvider{}
	engine, _, session, _ := newTestEngine(t, time.Second, provider, &mockProfiles{})
	session.mu.Lock()
	session.settings.AutoBackup = false
	session.mu.Unlock()

	if err := engine.Backup(context.Background()); err != nil {
		t.Fatalf("manual backup failed: %v", err)
	}
	if got := provider.uploadCount(); got != 1 {
		t.Errorf("expected 1 upload, got %d", got)
	}
}

func TestRestoreNoBackup(t *testing.T) {
	provider := &mockProvider{}
	engine, _, _, _ := newTestEngine(t, time.Second, provider, &mockProfiles{})

	_, err := engine.Restore(context.Background(), nil)
	if !errors.Is(err, ErrNoBackup) {
		t.Errorf("expected ErrNoBackup, got %v", err)
	}
}

func TestRestoreCorruptBlobLeavesStateUntouched(t *testing.T) {
	provider := &mockProvider{
		downloadFunc: func(ctx context.Context) (string, error) { return "{corrupt", nil },
	}
	engine, store, _, _ := newTestEngine(t, time.Second, provider, &mockProfiles{})
	store.Add(testApp(), "Keep")

	_, err := engine.Restore(context.Background(), nil)
	var snapErr *SnapshotError
	if !errors.As(err, &snapErr) {
		t.Fatalf("expected *SnapshotError, got %v", err)
	}
	if len(store.Instances()) != 1 {
		t.Error("expected local state untouched after corrupt restore")
	}
}

func TestRestoreDeclined(t *testing.T) {
	blob, _ := EncodeSnapshot(BuildSnapshot([]ClonedInstance{
		{ID: "r-1", PackageName: "com.social.app", InstanceName: "Restored"},
	}, Settings{Theme: ThemeDark}, time.Now().UTC()))
	provider := &mockProvider{
		downloadFunc: func(ctx context.Context) (string, error) { return blob, nil },
	}
	engine, store, _, _ := newTestEngine(t, time.Second, provider, &mockProfiles{})
	store.Add(testApp(), "Keep")

	_, err := engine.Restore(context.Background(), func(BackupSnapshot) bool { return false })
	if !errors.Is(err, ErrRestoreDeclined) {
		t.Fatalf("expected ErrRestoreDeclined, got %v", err)
	}
	if got := store.Instances(); len(got) != 1 || got[0].InstanceName != "Keep" {
		t.Error("expected declined restore to leave state untouched")
	}
}

func TestRestoreReplacesStateAndClearsRunning(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	blob, _ := EncodeSnapshot(BuildSnapshot([]ClonedInstance{
		{ID: "r-1", PackageName: "com.social.app", InstanceName: "Restored A", ClonedAt: now, BatteryUsage: BatteryLow},
		{ID: "r-2", PackageName: "com.microblog.chirper", InstanceName: "Restored B", ClonedAt: now, BatteryUsage: BatteryHigh},
	}, Settings{Theme: ThemeDark, AutoBackup: true}, now))
	provider := &mockProvider{
		downloadFunc: func(ctx context.Context) (string, error) { return blob, nil },
	}
	profiles := &mockProfiles{}
	engine, store, session, _ := newTestEngine(t, time.Second, provider, profiles)
	session.mu.Lock()
	session.uid = "user-1"
	session.mu.Unlock()

	local := store.Add(testApp(), "Local")
	store.Toggle(local.ID, local.PackageName)

	snap, err := engine.Restore(context.Background(), func(s BackupSnapshot) bool {
		return len(s.ClonedApps) == 2
	})
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if len(snap.ClonedApps) != 2 {
		t.Fatalf("expected returned snapshot with 2 instances, got %d", len(snap.ClonedApps))
	}

	got := store.Instances()
	if len(got) != 2 || got[0].ID != "r-1" || got[1].ID != "r-2" {
		t.Fatalf("expected restored sequence in order, got %v", got)
	}
	if len(store.Running()) != 0 {
		t.Error("expected running map cleared by restore")
	}
	if session.Settings().Theme != ThemeDark {
		t.Error("expected snapshot theme applied")
	}
	if profiles.patchCount() == 0 {
		t.Error("expected restore to write through to the profile")
	}
}

func TestRestoreProfileWriteFailureIsNonFatal(t *testing.T) {
	now := time.Now().UTC()
	blob, _ := EncodeSnapshot(BuildSnapshot(nil, Settings{}, now))
	provider := &mockProvider{
		downloadFunc: func(ctx context.Context) (string, error) { return blob, nil },
	}
	profiles := &mockProfiles{
		patchFunc: func(ctx context.Context, uid string, patch ProfilePatch) error {
			return errors.New("write failed")
		},
	}
	engine, _, session, notifier := newTestEngine(t, time.Second, provider, profiles)
	session.mu.Lock()
	session.uid = "user-1"
	session.mu.Unlock()

	if _, err := engine.Restore(context.Background(), nil); err != nil {
		t.Fatalf("expected local restore to stand, got %v", err)
	}
	if !notifier.hasLevel(NoticeError) {
		t.Error("expected error notice for failed profile write")
	}
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	var stored string
	provider := &mockProvider{
		uploadFunc: func(ctx context.Context, content string) error {
			stored = content
			return nil
		},
		downloadFunc: func(ctx context.Context) (string, error) {
			if stored == "" {
				return "", ErrNoBackup
			}
			return stored, nil
		},
	}
	engine, store, session, _ := newTestEngine(t, time.Second, provider, &mockProfiles{})
	session.mu.Lock()
	session.settings.Theme = ThemeDark
	session.mu.Unlock()

	a := store.Add(testApp(), "A")
	b := store.Add(testApp2(), "B")

	if err := engine.Backup(context.Background()); err != nil {
		t.Fatalf("backup failed: %v", err)
	}

	store.Reset()
	snap, err := engine.Restore(context.Background(), nil)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	got := store.Instances()
	if len(got) != 2 || got[0].ID != a.ID || got[1].ID != b.ID {
		t.Fatalf("expected round-tripped sequence, got %v", got)
	}
	if snap.Settings.Theme != ThemeDark {
		t.Errorf("expected theme round-tripped, got %s", snap.Settings.Theme)
	}
}
