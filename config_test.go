package multipal

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Backup != BackupAuto {
		t.Errorf("expected auto backend, got %s", cfg.Backup)
	}
	if cfg.DebounceWindow != 5*time.Second {
		t.Errorf("expected 5s debounce window, got %v", cfg.DebounceWindow)
	}
	if cfg.HydrationGrace != 500*time.Millisecond {
		t.Errorf("expected 500ms hydration grace, got %v", cfg.HydrationGrace)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config valid, got %v", err)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("MULTIPAL_PROFILE_PATH", "/tmp/profiles.db")
	t.Setenv("MULTIPAL_BACKUP", "mock")
	t.Setenv("MULTIPAL_DRIVE_CLIENT_ID", "client-1")
	t.Setenv("MULTIPAL_DRIVE_TOKEN", "token-1")
	t.Setenv("MULTIPAL_DEBUG", "1")

	cfg := ConfigFromEnv()
	if cfg.ProfilePath != "/tmp/profiles.db" {
		t.Errorf("expected profile path from env, got %q", cfg.ProfilePath)
	}
	if cfg.Backup != BackupMock {
		t.Errorf("expected mock backend, got %s", cfg.Backup)
	}
	if cfg.DriveClientID != "client-1" || cfg.DriveToken != "token-1" {
		t.Error("expected drive credentials from env")
	}
	if !cfg.Debug {
		t.Error("expected debug enabled")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"unknown backend", Config{Backup: "cloud"}, "Backup"},
		{"drive without client id", Config{Backup: BackupDrive, DriveToken: "t"}, "DriveClientID"},
		{"drive without token", Config{Backup: BackupDrive, DriveClientID: "c"}, "DriveToken"},
		{"negative debounce", Config{Backup: BackupMock, DebounceWindow: -time.Second}, "DebounceWindow"},
		{"negative grace", Config{Backup: BackupMock, HydrationGrace: -time.Second}, "HydrationGrace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if vErr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, vErr.Field)
			}
		})
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()

	if cfg.Backup != BackupAuto {
		t.Errorf("expected auto backend default, got %s", cfg.Backup)
	}
	if cfg.DebounceWindow == 0 || cfg.HydrationGrace == 0 {
		t.Error("expected timing defaults filled in")
	}
	// Empty profile path means in-memory and is preserved.
	if cfg.ProfilePath != "" {
		t.Errorf("expected empty profile path preserved, got %q", cfg.ProfilePath)
	}

	custom := Config{DebounceWindow: time.Second}.WithDefaults()
	if custom.DebounceWindow != time.Second {
		t.Errorf("expected explicit window kept, got %v", custom.DebounceWindow)
	}
}

func TestDriveConfigured(t *testing.T) {
	cfg := Config{}
	if cfg.DriveConfigured() {
		t.Error("expected unconfigured without credentials")
	}
	cfg.DriveClientID = "c"
	cfg.DriveToken = "t"
	if !cfg.DriveConfigured() {
		t.Error("expected configured with both credentials")
	}
}
