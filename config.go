package multipal

import (
	"os"
	"path/filepath"
	"time"
)

// BackupBackend selects which BackupProvider variant to build.
type BackupBackend string

const (
	// BackupAuto picks the drive backend when credentials are configured and
	// the in-memory mock otherwise.
	BackupAuto BackupBackend = "auto"
	// BackupDrive forces the drive backend.
	BackupDrive BackupBackend = "drive"
	// BackupMock forces the in-memory mock.
	BackupMock BackupBackend = "mock"
)

// Config configures the Multipal client.
type Config struct {
	// ProfilePath is the path to the local SQLite profile database. If
	// empty, profiles are kept in memory for the lifetime of the process.
	ProfilePath string

	// Backup selects the backup backend. Defaults to BackupAuto.
	Backup BackupBackend

	// DriveBaseURL is the base URL of the drive-style file store.
	DriveBaseURL string

	// DriveClientID identifies this application to the file store.
	DriveClientID string

	// DriveToken is the long-lived credential exchanged for access tokens.
	DriveToken string

	// AnthropicAPIKey enables the real help assistant. If empty, a mock
	// assistant answers instead.
	AnthropicAPIKey string

	// AssistantModel overrides the model used by the help assistant.
	AssistantModel string

	// DebounceWindow is the quiet period after the last qualifying change
	// before an automatic backup fires. Defaults to 5 seconds.
	DebounceWindow time.Duration

	// HydrationGrace disables the backup trigger for this long after session
	// hydration completes. Defaults to 500ms.
	HydrationGrace time.Duration

	// Debug enables verbose logging of provider and profile traffic.
	Debug bool

	// DebugLogPath is the path to write debug logs. Defaults to stderr.
	DebugLogPath string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ProfilePath:    filepath.Join("data", "profiles.db"),
		Backup:         BackupAuto,
		DriveBaseURL:   "https://www.googleapis.com",
		AssistantModel: "claude-sonnet-4-5",
		DebounceWindow: 5 * time.Second,
		HydrationGrace: 500 * time.Millisecond,
	}
}

// ConfigFromEnv reads configuration from environment variables.
//
//	MULTIPAL_PROFILE_PATH     → ProfilePath
//	MULTIPAL_BACKUP           → Backup (auto|drive|mock)
//	MULTIPAL_DRIVE_URL        → DriveBaseURL
//	MULTIPAL_DRIVE_CLIENT_ID  → DriveClientID
//	MULTIPAL_DRIVE_TOKEN      → DriveToken
//	ANTHROPIC_API_KEY         → AnthropicAPIKey
//	MULTIPAL_ASSISTANT_MODEL  → AssistantModel
//	MULTIPAL_DEBUG            → Debug (any non-empty value enables)
//	MULTIPAL_DEBUG_LOG        → DebugLogPath
func ConfigFromEnv() Config {
	return Config{
		ProfilePath:     os.Getenv("MULTIPAL_PROFILE_PATH"),
		Backup:          BackupBackend(os.Getenv("MULTIPAL_BACKUP")),
		DriveBaseURL:    os.Getenv("MULTIPAL_DRIVE_URL"),
		DriveClientID:   os.Getenv("MULTIPAL_DRIVE_CLIENT_ID"),
		DriveToken:      os.Getenv("MULTIPAL_DRIVE_TOKEN"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AssistantModel:  os.Getenv("MULTIPAL_ASSISTANT_MODEL"),
		Debug:           os.Getenv("MULTIPAL_DEBUG") != "",
		DebugLogPath:    os.Getenv("MULTIPAL_DEBUG_LOG"),
	}
}

// Validate checks the configuration for errors.
// Returns *ValidationError for invalid fields.
func (c *Config) Validate() error {
	switch c.Backup {
	case BackupAuto, BackupDrive, BackupMock, "":
	default:
		return &ValidationError{Field: "Backup", Message: "must be auto, drive, or mock"}
	}

	if c.Backup == BackupDrive {
		if c.DriveClientID == "" {
			return &ValidationError{Field: "DriveClientID", Message: "required when Backup is drive"}
		}
		if c.DriveToken == "" {
			return &ValidationError{Field: "DriveToken", Message: "required when Backup is drive"}
		}
	}

	if c.DebounceWindow < 0 {
		return &ValidationError{Field: "DebounceWindow", Message: "must be non-negative"}
	}
	if c.HydrationGrace < 0 {
		return &ValidationError{Field: "HydrationGrace", Message: "must be non-negative"}
	}

	return nil
}

// DriveConfigured reports whether the real drive backend has credentials.
// Used by BackupAuto selection; the mock fallback is transparent, not an
// error state.
func (c *Config) DriveConfigured() bool {
	return c.DriveClientID != "" && c.DriveToken != ""
}

// WithDefaults fills in default values for unset fields. ProfilePath is
// deliberately left alone: empty means in-memory profiles.
func (c Config) WithDefaults() Config {
	defaults := DefaultConfig()

	if c.Backup == "" {
		c.Backup = defaults.Backup
	}
	if c.DriveBaseURL == "" {
		c.DriveBaseURL = defaults.DriveBaseURL
	}
	if c.AssistantModel == "" {
		c.AssistantModel = defaults.AssistantModel
	}
	if c.DebounceWindow == 0 {
		c.DebounceWindow = defaults.DebounceWindow
	}
	if c.HydrationGrace == 0 {
		c.HydrationGrace = defaults.HydrationGrace
	}

	return c
}
