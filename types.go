package multipal

import "time"

// Theme selects the UI color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// NormalizeTheme coerces unknown values to the light theme, matching the
// behavior of hydration and restore.
func NormalizeTheme(t Theme) Theme {
	if t == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}

// BatteryUsage classifies the synthetic battery cost of a cloned instance.
type BatteryUsage string

const (
	BatteryLow    BatteryUsage = "Low"
	BatteryMedium BatteryUsage = "Medium"
	BatteryHigh   BatteryUsage = "High"
)

// IsValid checks if the value is a known battery usage level.
func (b BatteryUsage) IsValid() bool {
	switch b {
	case BatteryLow, BatteryMedium, BatteryHigh:
		return true
	}
	return false
}

// ClonedInstance is one named, independent copy of a catalog app with its own
// synthetic usage metrics. The JSON field names are the wire contract shared
// with the backup blob and the remote profile document. Catalog-derived
// display fields are never part of this record.
type ClonedInstance struct {
	ID           string       `json:"id"`
	PackageName  string       `json:"packageName"`
	InstanceName string       `json:"instanceName"`
	ClonedAt     time.Time    `json:"clonedAt"`
	StorageUsed  string       `json:"storageUsed"`
	BatteryUsage BatteryUsage `json:"batteryUsage"`
}

// AppInfo is a catalog entry: a clonable app template. Read-only, external to
// the core; instances reference it by package name only.
type AppInfo struct {
	Name        string `json:"name"`
	PackageName string `json:"packageName"`
	Icon        string `json:"icon"`
	Size        string `json:"size"`
	Sensitive   bool   `json:"isSensitiveApp,omitempty"`
}

// InstanceView is a cloned instance joined with its catalog entry. This is a
// display projection only and is never persisted.
type InstanceView struct {
	ClonedInstance
	App AppInfo `json:"app"`
}

// Settings holds the per-user preferences owned by the session lifecycle.
// LastBackup is nil until the first successful backup.
type Settings struct {
	Theme      Theme
	AutoBackup bool
	LastBackup *time.Time
}

// DefaultSettings returns the settings applied to a fresh session.
func DefaultSettings() Settings {
	return Settings{Theme: ThemeLight}
}

// SnapshotSettings is the settings subset carried inside a backup blob.
type SnapshotSettings struct {
	Theme      Theme `json:"theme"`
	AutoBackup bool  `json:"isAutoBackupEnabled"`
}

// BackupSnapshot is the serializable subset of state exchanged with the
// backup provider. Immutable once produced; its JSON encoding is the wire
// contract.
type BackupSnapshot struct {
	ClonedApps []ClonedInstance `json:"clonedApps"`
	Settings   SnapshotSettings `json:"settings"`
	BackupDate time.Time        `json:"backupDate"`
}

// ProfileSettings is the settings block of a remote profile document.
type ProfileSettings struct {
	Theme      Theme      `json:"theme"`
	LastBackup *time.Time `json:"lastBackup"`
	AutoBackup bool       `json:"isAutoBackupEnabled"`
}

// RemoteProfile is the server-side mirror of a user's state, keyed by user
// identity. Local state is the write-through master; the profile is read only
// at session start.
type RemoteProfile struct {
	UID        string           `json:"uid"`
	Username   string           `json:"username"`
	Mobile     string           `json:"mobile"`
	Email      string           `json:"email"`
	CreatedAt  time.Time        `json:"createdAt"`
	ClonedApps []ClonedInstance `json:"clonedApps"`
	Settings   ProfileSettings  `json:"settings"`
}

// DefaultProfile returns the document created for a user who has no profile
// yet.
func DefaultProfile(uid string, now time.Time) *RemoteProfile {
	return &RemoteProfile{
		UID:        uid,
		CreatedAt:  now,
		ClonedApps: []ClonedInstance{},
		Settings:   ProfileSettings{Theme: ThemeLight},
	}
}

// ToggleResult is the three-way outcome of toggling an instance's running
// state.
type ToggleResult string

const (
	// ToggleStarted means the instance is now the running one for its package.
	ToggleStarted ToggleResult = "started"
	// ToggleStopped means the instance was running and has been stopped.
	ToggleStopped ToggleResult = "stopped"
	// ToggleRejected means another instance of the same package is running;
	// nothing was changed.
	ToggleRejected ToggleResult = "rejected"
)

// AccountProfile identifies the account signed in to the backup provider.
type AccountProfile struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// ProviderState reports backup provider readiness. The zero value means the
// provider has not finished initializing; Ready without Authenticated means
// sign-in is available but has not happened.
type ProviderState struct {
	Ready         bool
	Authenticated bool
	Profile       *AccountProfile
}

// StateFunc receives provider state transitions. It may be invoked multiple
// times with changing authentication state as the user signs in and out
// during a session.
type StateFunc func(ProviderState)

// NoticeLevel classifies a transient user-facing notification.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
	NoticeInfo    NoticeLevel = "info"
)

// Notice is a transient, dismissable notification. Notices are the only
// user-facing error channel; no failure in the core is fatal.
type Notice struct {
	Level   NoticeLevel
	Message string
}

// Notifier surfaces transient notices to the user.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Notice)

// Notify implements Notifier.
func (f NotifierFunc) Notify(n Notice) { f(n) }

// nopNotifier discards all notices.
type nopNotifier struct{}

func (nopNotifier) Notify(Notice) {}
