package multipal

import (
	"context"
	"sync"
)

// mockProvider is a func-field backup provider for tests. Unset funcs
// succeed with zero values.
type mockProvider struct {
	initializeFunc   func(onState StateFunc) error
	authenticateFunc func(ctx context.Context) error
	signOutFunc      func(ctx context.Context) error
	uploadFunc       func(ctx context.Context, content string) error
	downloadFunc     func(ctx context.Context) (string, error)

	mu      sync.Mutex
	uploads []string
	onState StateFunc
}

func (m *mockProvider) Initialize(onState StateFunc) error {
	m.mu.Lock()
	m.onState = onState
	m.mu.Unlock()
	if m.initializeFunc != nil {
		return m.initializeFunc(onState)
	}
	onState(ProviderState{Ready: true})
	return nil
}

func (m *mockProvider) Authenticate(ctx context.Context) error {
	if m.authenticateFunc != nil {
		return m.authenticateFunc(ctx)
	}
	m.fireState(ProviderState{Ready: true, Authenticated: true})
	return nil
}

func (m *mockProvider) SignOut(ctx context.Context) error {
	if m.signOutFunc != nil {
		return m.signOutFunc(ctx)
	}
	m.fireState(ProviderState{Ready: true})
	return nil
}

func (m *mockProvider) Upload(ctx context.Context, content string) error {
	if m.uploadFunc != nil {
		return m.uploadFunc(ctx, content)
	}
	m.mu.Lock()
	m.uploads = append(m.uploads, content)
	m.mu.Unlock()
	return nil
}

func (m *mockProvider) Download(ctx context.Context) (string, error) {
	if m.downloadFunc != nil {
		return m.downloadFunc(ctx)
	}
	return "", ErrNoBackup
}

func (m *mockProvider) fireState(st ProviderState) {
	m.mu.Lock()
	onState := m.onState
	m.mu.Unlock()
	if onState != nil {
		onState(st)
	}
}

func (m *mockProvider) uploadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.uploads)
}

func (m *mockProvider) lastUpload() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.uploads) == 0 {
		return ""
	}
	return m.uploads[len(m.uploads)-1]
}

// mockProfiles is a func-field profile client. Unset funcs behave like an
// empty in-memory store with upsert semantics.
type mockProfiles struct {
	loadFunc  func(ctx context.Context, uid string) (*RemoteProfile, error)
	patchFunc func(ctx context.Context, uid string, patch ProfilePatch) error

	mu      sync.Mutex
	patches []ProfilePatch
}

func (m *mockProfiles) Load(ctx context.Context, uid string) (*RemoteProfile, error) {
	if m.loadFunc != nil {
		return m.loadFunc(ctx, uid)
	}
	return nil, nil
}

func (m *mockProfiles) Patch(ctx context.Context, uid string, patch ProfilePatch) error {
	m.mu.Lock()
	m.patches = append(m.patches, patch)
	m.mu.Unlock()
	if m.patchFunc != nil {
		return m.patchFunc(ctx, uid, patch)
	}
	return nil
}

func (m *mockProfiles) patchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.patches)
}

// captureNotifier records every notice for assertion.
type captureNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (c *captureNotifier) Notify(n Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, n)
}

func (c *captureNotifier) all() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notice, len(c.notices))
	copy(out, c.notices)
	return out
}

func (c *captureNotifier) hasLevel(level NoticeLevel) bool {
	for _, n := range c.all() {
		if n.Level == level {
			return true
		}
	}
	return false
}

func testApp() AppInfo {
	return AppInfo{Name: "SocialApp", PackageName: "com.social.app", Icon: "users", Size: "128 MB"}
}

func testApp2() AppInfo {
	return AppInfo{Name: "Chirper", PackageName: "com.microblog.chirper", Icon: "bird", Size: "98 MB"}
}
