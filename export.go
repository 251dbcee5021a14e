package multipal

import (
	"context"
	"fmt"
	"io"
	"time"
)

// ExportSnapshot writes the current state as a backup blob. The output is
// byte-compatible with what the backup provider stores, so an exported file
// can stand in for a cloud backup.
func (c *Client) ExportSnapshot(w io.Writer) error {
	snap := BuildSnapshot(c.store.Instances(), c.session.Settings(), time.Now().UTC())
	content, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, content); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// ImportSnapshot reads a backup blob and reconciles it into live state,
// exactly as a restore from the provider would: the sequence is replaced
// wholesale, snapshot settings are applied, and running instances are
// stopped. A blob that fails validation is rejected before any state is
// touched.
func (c *Client) ImportSnapshot(ctx context.Context, r io.Reader) (*BackupSnapshot, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	snap, err := ParseSnapshot(string(content))
	if err != nil {
		return nil, err
	}

	if err := c.engine.RestoreSnapshot(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}
