package profile

import (
	"context"
	"sync"
	"time"

	"github.com/hyperengineering/multipal"
)

// Memory is an in-memory RemoteProfileClient with the same upsert semantics
// as SQLiteStore. Documents do not survive the process.
type Memory struct {
	mu   sync.Mutex
	docs map[string]*multipal.RemoteProfile

	// FailLoads and FailPatches force errors for failure-path tests.
	FailLoads   error
	FailPatches error
}

// NewMemory returns an empty in-memory profile store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]*multipal.RemoteProfile)}
}

// Load implements multipal.RemoteProfileClient.
func (m *Memory) Load(ctx context.Context, uid string) (*multipal.RemoteProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailLoads != nil {
		return nil, m.FailLoads
	}

	doc, ok := m.docs[uid]
	if !ok {
		return nil, nil
	}
	out := *doc
	out.ClonedApps = make([]multipal.ClonedInstance, len(doc.ClonedApps))
	copy(out.ClonedApps, doc.ClonedApps)
	if doc.Settings.LastBackup != nil {
		t := *doc.Settings.LastBackup
		out.Settings.LastBackup = &t
	}
	return &out, nil
}

// Patch implements multipal.RemoteProfileClient.
func (m *Memory) Patch(ctx context.Context, uid string, patch multipal.ProfilePatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPatches != nil {
		return m.FailPatches
	}
	if patch.IsZero() {
		return nil
	}

	doc, ok := m.docs[uid]
	if !ok {
		doc = multipal.DefaultProfile(uid, time.Now().UTC())
		m.docs[uid] = doc
	}
	patch.Apply(doc)
	return nil
}
