package multipal

import (
	"context"
	"sync"
	"time"
)

// SessionLifecycle reacts to account sign-in and sign-out. It hydrates local
// state from the remote profile on sign-in, mirrors every settings change
// back to the profile, persists instance mutations fire-and-forget, and
// resets everything on sign-out. It owns Settings and implements
// SessionState for the sync engine.
type SessionLifecycle struct {
	store    *InstanceStore
	profiles RemoteProfileClient
	engine   *SyncEngine
	notifier Notifier
	debug    *DebugLogger
	grace    time.Duration

	mu        sync.Mutex
	uid       string
	settings  Settings
	hydrating bool
}

// NewSessionLifecycle wires the lifecycle into the store's change feed.
// grace is the post-hydration suppression window; zero selects the default
// of DefaultConfig.
func NewSessionLifecycle(store *InstanceStore, profiles RemoteProfileClient, engine *SyncEngine, notifier Notifier, debug *DebugLogger, grace time.Duration) *SessionLifecycle {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if grace <= 0 {
		grace = DefaultConfig().HydrationGrace
	}
	s := &SessionLifecycle{
		store:    store,
		profiles: profiles,
		engine:   engine,
		notifier: notifier,
		debug:    debug,
		grace:    grace,
		settings: DefaultSettings(),
	}
	store.Subscribe(s.onStoreChange)
	return s
}

// onStoreChange persists the full current sequence to the profile and marks
// a qualifying change for the debounce. Hydration-induced changes are
// ignored entirely.
func (s *SessionLifecycle) onStoreChange() {
	s.mu.Lock()
	uid, hydrating := s.uid, s.hydrating
	s.mu.Unlock()

	if hydrating || uid == "" {
		return
	}

	// Always write the state captured now, never a queued diff; a stale
	// in-flight write then cannot win over a newer one.
	apps := s.store.Instances()
	go s.persist(uid, ProfilePatch{ClonedApps: &apps}, "persist_instances")

	s.engine.NoteChange()
}

func (s *SessionLifecycle) persist(uid string, patch ProfilePatch, op string) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := s.profiles.Patch(ctx, uid, patch); err != nil {
		s.debug.LogError(op, err)
		s.notifier.Notify(Notice{Level: NoticeError, Message: "Failed to save data. Changes may not be persisted."})
	}
}

// SignIn loads the user's profile and hydrates local state. A user with no
// profile document gets one created with defaults. A load failure falls
// back to a temporary local session with defaults; data saving will fail
// until the connection recovers, surfaced by notices, and the UI stays
// interactive throughout.
func (s *SessionLifecycle) SignIn(ctx context.Context, uid string) {
	s.engine.Stop()
	s.mu.Lock()
	s.uid = uid
	s.hydrating = true
	s.mu.Unlock()

	prof, err := s.profiles.Load(ctx, uid)
	switch {
	case err != nil:
		s.debug.LogError("load_profile", err)
		s.notifier.Notify(Notice{Level: NoticeError, Message: "Could not load your data. Using a temporary session."})
		prof = nil
	case prof == nil:
		def := DefaultProfile(uid, time.Now().UTC())
		if perr := s.profiles.Patch(ctx, uid, fullPatch(def)); perr != nil {
			s.debug.LogError("create_profile", perr)
		}
		prof = def
	}

	s.hydrate(prof)

	s.mu.Lock()
	s.hydrating = false
	s.mu.Unlock()
	s.engine.Suppress(s.grace)
}

func (s *SessionLifecycle) hydrate(prof *RemoteProfile) {
	settings := DefaultSettings()
	var apps []ClonedInstance
	if prof != nil {
		settings.Theme = NormalizeTheme(prof.Settings.Theme)
		settings.AutoBackup = prof.Settings.AutoBackup
		if prof.Settings.LastBackup != nil {
			t := *prof.Settings.LastBackup
			settings.LastBackup = &t
		}
		apps = prof.ClonedApps
	}

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()

	// ReplaceAll also clears the running map: a fresh session never starts
	// with apps marked running.
	s.store.ReplaceAll(apps)
}

// SignOut cancels any pending backup and resets all local state.
func (s *SessionLifecycle) SignOut() {
	s.engine.Stop()

	s.mu.Lock()
	s.uid = ""
	s.settings = DefaultSettings()
	s.mu.Unlock()

	s.store.Reset()
}

// UID implements SessionState.
func (s *SessionLifecycle) UID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uid
}

// Settings implements SessionState.
func (s *SessionLifecycle) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.settings
	if s.settings.LastBackup != nil {
		t := *s.settings.LastBackup
		out.LastBackup = &t
	}
	return out
}

// SetTheme updates the theme, mirrors it to the profile, and counts as a
// qualifying change for the debounce.
func (s *SessionLifecycle) SetTheme(theme Theme) {
	theme = NormalizeTheme(theme)

	s.mu.Lock()
	s.settings.Theme = theme
	uid := s.uid
	s.mu.Unlock()

	if uid != "" {
		go s.persist(uid, ProfilePatch{Theme: &theme}, "persist_theme")
	}
	s.engine.NoteChange()
}

// SetAutoBackup flips the automatic backup flag, mirrors it to the profile,
// and counts as a qualifying change for the debounce.
func (s *SessionLifecycle) SetAutoBackup(enabled bool) {
	s.mu.Lock()
	s.settings.AutoBackup = enabled
	uid := s.uid
	s.mu.Unlock()

	if uid != "" {
		go s.persist(uid, ProfilePatch{AutoBackup: &enabled}, "persist_auto_backup")
	}
	s.engine.NoteChange()
}

// SetLastBackup implements SessionState. Recording the timestamp is not a
// qualifying change; it must not re-arm the backup it just came from.
func (s *SessionLifecycle) SetLastBackup(t time.Time) {
	s.mu.Lock()
	s.settings.LastBackup = &t
	uid := s.uid
	s.mu.Unlock()

	if uid != "" {
		go s.persist(uid, ProfilePatch{LastBackup: &t}, "persist_last_backup")
	}
}

// ApplySnapshotSettings implements SessionState. The profile write happens
// as part of restore reconciliation, not here.
func (s *SessionLifecycle) ApplySnapshotSettings(snap SnapshotSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings.Theme = NormalizeTheme(snap.Theme)
	s.settings.AutoBackup = snap.AutoBackup
}

// fullPatch converts a whole document into a patch, used when creating the
// document for a first-time user.
func fullPatch(doc *RemoteProfile) ProfilePatch {
	apps := make([]ClonedInstance, len(doc.ClonedApps))
	copy(apps, doc.ClonedApps)
	theme := doc.Settings.Theme
	auto := doc.Settings.AutoBackup
	return ProfilePatch{
		Username:   &doc.Username,
		Mobile:     &doc.Mobile,
		Email:      &doc.Email,
		ClonedApps: &apps,
		Theme:      &theme,
		AutoBackup: &auto,
	}
}
