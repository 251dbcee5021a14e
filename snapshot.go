package multipal

import (
	"encoding/json"
	"fmt"
	"time"
)

// BuildSnapshot captures the persisted subset of state as an immutable
// snapshot. Catalog-derived fields are not part of the instances and so are
// never serialized.
func BuildSnapshot(instances []ClonedInstance, settings Settings, now time.Time) BackupSnapshot {
	apps := make([]ClonedInstance, len(instances))
	copy(apps, instances)
	return BackupSnapshot{
		ClonedApps: apps,
		Settings: SnapshotSettings{
			Theme:      NormalizeTheme(settings.Theme),
			AutoBackup: settings.AutoBackup,
		},
		BackupDate: now,
	}
}

// EncodeSnapshot serializes a snapshot into the backup blob wire format.
func EncodeSnapshot(snap BackupSnapshot) (string, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", &SnapshotError{Reason: "encode", Err: err}
	}
	return string(data), nil
}

// ParseSnapshot decodes and validates a backup blob. A payload that fails to
// parse or validate yields a *SnapshotError and must not be applied, even
// partially. Unknown themes are coerced to light rather than rejected.
func ParseSnapshot(content string) (*BackupSnapshot, error) {
	var snap BackupSnapshot
	if err := json.Unmarshal([]byte(content), &snap); err != nil {
		return nil, &SnapshotError{Reason: "invalid JSON", Err: err}
	}

	for i, inst := range snap.ClonedApps {
		if inst.ID == "" {
			return nil, &SnapshotError{Reason: fmt.Sprintf("clonedApps[%d]: missing id", i)}
		}
		if inst.PackageName == "" {
			return nil, &SnapshotError{Reason: fmt.Sprintf("clonedApps[%d]: missing packageName", i)}
		}
		if inst.BatteryUsage != "" && !inst.BatteryUsage.IsValid() {
			return nil, &SnapshotError{Reason: fmt.Sprintf("clonedApps[%d]: invalid batteryUsage %q", i, inst.BatteryUsage)}
		}
	}
	if snap.ClonedApps == nil {
		snap.ClonedApps = []ClonedInstance{}
	}
	snap.Settings.Theme = NormalizeTheme(snap.Settings.Theme)

	return &snap, nil
}

// JoinCatalog projects instances against the catalog. Entries whose package
// has no catalog match are dropped from the view; the persisted data they
// came from is untouched (lossless persistence, lossy projection).
func JoinCatalog(instances []ClonedInstance, catalog Catalog) []InstanceView {
	views := make([]InstanceView, 0, len(instances))
	for _, inst := range instances {
		app, ok := catalog.Lookup(inst.PackageName)
		if !ok {
			continue
		}
		views = append(views, InstanceView{ClonedInstance: inst, App: app})
	}
	return views
}
