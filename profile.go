package multipal

import (
	"context"
	"time"
)

// RemoteProfileClient persists the per-user profile document. Writes are
// best-effort and fire-and-forget from the caller's perspective: local state
// is always the master, and the profile is the read source only at session
// start.
type RemoteProfileClient interface {
	// Load returns the profile for uid, or nil if no document exists.
	Load(ctx context.Context, uid string) (*RemoteProfile, error)

	// Patch applies a partial update to the profile, creating the document
	// if it is missing rather than failing.
	Patch(ctx context.Context, uid string, patch ProfilePatch) error
}

// ProfilePatch is a partial profile update. Nil fields are left untouched.
// ClonedApps always carries the full current sequence captured at fire time,
// never a diff, so a stale in-flight write cannot win over a newer one.
type ProfilePatch struct {
	Username   *string
	Mobile     *string
	Email      *string
	ClonedApps *[]ClonedInstance
	Theme      *Theme
	LastBackup *time.Time
	AutoBackup *bool
}

// Apply merges the patch into a profile document in place.
func (p ProfilePatch) Apply(doc *RemoteProfile) {
	if p.Username != nil {
		doc.Username = *p.Username
	}
	if p.Mobile != nil {
		doc.Mobile = *p.Mobile
	}
	if p.Email != nil {
		doc.Email = *p.Email
	}
	if p.ClonedApps != nil {
		apps := make([]ClonedInstance, len(*p.ClonedApps))
		copy(apps, *p.ClonedApps)
		doc.ClonedApps = apps
	}
	if p.Theme != nil {
		doc.Settings.Theme = NormalizeTheme(*p.Theme)
	}
	if p.LastBackup != nil {
		t := *p.LastBackup
		doc.Settings.LastBackup = &t
	}
	if p.AutoBackup != nil {
		doc.Settings.AutoBackup = *p.AutoBackup
	}
}

// IsZero reports whether the patch would change nothing.
func (p ProfilePatch) IsZero() bool {
	return p.Username == nil && p.Mobile == nil && p.Email == nil &&
		p.ClonedApps == nil && p.Theme == nil && p.LastBackup == nil && p.AutoBackup == nil
}
