package drive

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hyperengineering/multipal"
)

// mockLatency approximates remote round-trip time so that UI flows exercise
// their loading states against the mock too.
const mockLatency = 50 * time.Millisecond

// FileInfo is the metadata of a stored backup object, the same fields the
// drive file API reports for a find-by-name match.
type FileInfo struct {
	ID           string
	Name         string
	ModifiedTime time.Time
}

// Mock is an in-memory backup provider with the exact contract of Client:
// authentication gating, ErrNoBackup when no blob exists, and state
// callbacks on every auth transition. It backs development and test
// environments where no drive credential is configured.
type Mock struct {
	// Latency per simulated remote call. Zero means mockLatency; negative
	// disables the delay.
	Latency time.Duration

	mu            sync.Mutex
	authenticated bool
	content       string
	file          *FileInfo
	onState       multipal.StateFunc
}

// NewMock returns an empty unauthenticated mock provider.
func NewMock() *Mock {
	return &Mock{}
}

// Initialize implements multipal.BackupProvider.
func (m *Mock) Initialize(onState multipal.StateFunc) error {
	m.mu.Lock()
	m.onState = onState
	m.mu.Unlock()

	m.fireState()
	return nil
}

func (m *Mock) fireState() {
	m.mu.Lock()
	onState := m.onState
	st := multipal.ProviderState{Ready: true, Authenticated: m.authenticated}
	if m.authenticated {
		st.Profile = &multipal.AccountProfile{
			Name:    "Mock User",
			Email:   "mock.user@example.com",
			Picture: "https://i.pravatar.cc/100",
		}
	}
	m.mu.Unlock()

	if onState != nil {
		onState(st)
	}
}

func (m *Mock) sleep(ctx context.Context) error {
	d := m.Latency
	if d == 0 {
		d = mockLatency
	}
	if d < 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Authenticate implements multipal.BackupProvider. It always succeeds.
func (m *Mock) Authenticate(ctx context.Context) error {
	if err := m.sleep(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.authenticated = true
	m.mu.Unlock()

	m.fireState()
	return nil
}

// SignOut implements multipal.BackupProvider. Stored backups survive
// sign-out, matching the remote provider.
func (m *Mock) SignOut(ctx context.Context) error {
	m.mu.Lock()
	m.authenticated = false
	m.mu.Unlock()

	m.fireState()
	return nil
}

// Upload implements multipal.BackupProvider.
func (m *Mock) Upload(ctx context.Context, content string) error {
	m.mu.Lock()
	authenticated := m.authenticated
	m.mu.Unlock()
	if !authenticated {
		return multipal.ErrAuthRequired
	}

	if err := m.sleep(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	if m.file == nil {
		m.file = &FileInfo{ID: uuid.NewString(), Name: BackupFileName}
	}
	m.file.ModifiedTime = time.Now()
	m.content = content
	m.mu.Unlock()
	return nil
}

// BackupFile reports the stored backup object's metadata, like a
// find-by-name query against the real API. ok is false when no backup
// exists. The ID is assigned on first upload and stable afterwards; later
// uploads update the object in place.
func (m *Mock) BackupFile() (info FileInfo, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file == nil {
		return FileInfo{}, false
	}
	return *m.file, true
}

// Download implements multipal.BackupProvider.
func (m *Mock) Download(ctx context.Context) (string, error) {
	m.mu.Lock()
	authenticated := m.authenticated
	m.mu.Unlock()
	if !authenticated {
		return "", multipal.ErrAuthRequired
	}

	if err := m.sleep(ctx); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file == nil {
		return "", multipal.ErrNoBackup
	}
	return m.content, nil
}
