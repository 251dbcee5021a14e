package multipal

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// InstanceStore holds the canonical sequence of cloned-app records and the
// derived running map. The sequence is the single source of truth for
// persistence; the running map is ephemeral and never persisted.
//
// Mutations are synchronous and atomic; no intermediate state is observable.
// Listeners registered with Subscribe are invoked after every mutation of the
// persisted sequence. Running-state toggles are runtime-only and do not
// notify listeners.
type InstanceStore struct {
	mu        sync.Mutex
	instances []ClonedInstance
	running   map[string]string // packageName -> running instance ID
	listeners []func()
}

// NewInstanceStore creates an empty store.
func NewInstanceStore() *InstanceStore {
	return &InstanceStore{running: make(map[string]string)}
}

// Subscribe registers a listener invoked after each mutation of the
// persisted sequence. Listeners run on the mutating goroutine, outside the
// store lock.
func (s *InstanceStore) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *InstanceStore) notify() {
	s.mu.Lock()
	fns := make([]func(), len(s.listeners))
	copy(fns, s.listeners)
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Add clones app under the given instance name and appends the new record to
// the sequence. The id is unique across the process lifetime; storage and
// battery attributes are synthetic.
func (s *InstanceStore) Add(app AppInfo, instanceName string) ClonedInstance {
	inst := ClonedInstance{
		ID:           app.PackageName + "-" + ulid.Make().String(),
		PackageName:  app.PackageName,
		InstanceName: strings.TrimSpace(instanceName),
		ClonedAt:     time.Now().UTC(),
		StorageUsed:  syntheticStorage(app.Size),
		BatteryUsage: randomBattery(),
	}

	s.mu.Lock()
	s.instances = append(s.instances, inst)
	s.mu.Unlock()

	s.notify()
	return inst
}

// Rename updates an instance's name. A name that is empty after trimming is
// a no-op, and an unknown id fails silently.
func (s *InstanceStore) Rename(id, newName string) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return
	}

	s.mu.Lock()
	changed := false
	for i := range s.instances {
		if s.instances[i].ID == id {
			if s.instances[i].InstanceName != newName {
				s.instances[i].InstanceName = newName
				changed = true
			}
			break
		}
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// Remove deletes an instance from the sequence. If it is the running
// instance for its package, the running entry is removed first so no
// dangling reference is ever observable.
func (s *InstanceStore) Remove(id string) {
	s.mu.Lock()
	removed := false
	for i, inst := range s.instances {
		if inst.ID != id {
			continue
		}
		if s.running[inst.PackageName] == id {
			delete(s.running, inst.PackageName)
		}
		s.instances = append(s.instances[:i], s.instances[i+1:]...)
		removed = true
		break
	}
	s.mu.Unlock()

	if removed {
		s.notify()
	}
}

// Toggle flips the running state of an instance. Per package, at most one
// instance runs at a time:
//
//   - the instance is running: it is stopped
//   - another instance of the package is running: the request is rejected
//   - nothing is running for the package: the instance is started
//
// Running state is runtime-only; Toggle does not notify listeners.
func (s *InstanceStore) Toggle(id, packageName string) ToggleResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.running[packageName]
	switch {
	case ok && current == id:
		delete(s.running, packageName)
		return ToggleStopped
	case ok:
		return ToggleRejected
	default:
		s.running[packageName] = id
		return ToggleStarted
	}
}

// Instances returns a copy of the sequence in insertion order.
func (s *InstanceStore) Instances() []ClonedInstance {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ClonedInstance, len(s.instances))
	copy(out, s.instances)
	return out
}

// Running returns a copy of the running map.
func (s *InstanceStore) Running() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string, len(s.running))
	for pkg, id := range s.running {
		out[pkg] = id
	}
	return out
}

// RunningID returns the running instance id for a package, if any.
func (s *InstanceStore) RunningID(packageName string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.running[packageName]
	return id, ok
}

// Get returns the instance with the given id.
func (s *InstanceStore) Get(id string) (ClonedInstance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, inst := range s.instances {
		if inst.ID == id {
			return inst, true
		}
	}
	return ClonedInstance{}, false
}

// CountByPackage returns how many clones of a package exist.
func (s *InstanceStore) CountByPackage(packageName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, inst := range s.instances {
		if inst.PackageName == packageName {
			n++
		}
	}
	return n
}

// NextInstanceName suggests the display name for the next clone of app:
// "Name (N)" where N counts existing clones plus one.
func (s *InstanceStore) NextInstanceName(app AppInfo) string {
	return fmt.Sprintf("%s (%d)", app.Name, s.CountByPackage(app.PackageName)+1)
}

// ReplaceAll replaces the sequence wholesale and clears the running map. A
// restored world has no apps actively running. Listeners are notified.
func (s *InstanceStore) ReplaceAll(instances []ClonedInstance) {
	s.mu.Lock()
	s.instances = make([]ClonedInstance, len(instances))
	copy(s.instances, instances)
	s.running = make(map[string]string)
	s.mu.Unlock()

	s.notify()
}

// Reset clears all state without notifying listeners. Used on session
// teardown, where the wipe must not be mistaken for a user change.
func (s *InstanceStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.instances = nil
	s.running = make(map[string]string)
}

// syntheticStorage derives a plausible storage figure from the catalog size:
// the base size plus 10-59 MB of instance data.
func syntheticStorage(catalogSize string) string {
	base := 0
	if fields := strings.Fields(catalogSize); len(fields) > 0 {
		base, _ = strconv.Atoi(fields[0])
	}
	return fmt.Sprintf("%d MB", base+10+rand.Intn(50))
}

func randomBattery() BatteryUsage {
	levels := []BatteryUsage{BatteryLow, BatteryMedium, BatteryHigh}
	return levels[rand.Intn(len(levels))]
}
