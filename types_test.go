package multipal

import (
	"testing"
	"time"
)

func TestNormalizeTheme(t *testing.T) {
	tests := []struct {
		in   Theme
		want Theme
	}{
		{ThemeLight, ThemeLight},
		{ThemeDark, ThemeDark},
		{"", ThemeLight},
		{"neon", ThemeLight},
	}
	for _, tt := range tests {
		if got := NormalizeTheme(tt.in); got != tt.want {
			t.Errorf("NormalizeTheme(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBatteryUsageIsValid(t *testing.T) {
	for _, b := range []BatteryUsage{BatteryLow, BatteryMedium, BatteryHigh} {
		if !b.IsValid() {
			t.Errorf("expected %q valid", b)
		}
	}
	if BatteryUsage("Extreme").IsValid() {
		t.Error("expected unknown level invalid")
	}
}

func TestDefaultProfile(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	doc := DefaultProfile("user-1", now)

	if doc.UID != "user-1" || !doc.CreatedAt.Equal(now) {
		t.Errorf("unexpected identity fields: %+v", doc)
	}
	if doc.ClonedApps == nil || len(doc.ClonedApps) != 0 {
		t.Error("expected empty, non-nil cloned apps")
	}
	if doc.Settings.Theme != ThemeLight || doc.Settings.AutoBackup || doc.Settings.LastBackup != nil {
		t.Errorf("expected default settings, got %+v", doc.Settings)
	}
}
