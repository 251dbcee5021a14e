package main

import (
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Upload a backup snapshot now",
	Long: `Upload a backup snapshot of the current instances and settings.

The provider is authenticated first; with the mock backend this always
succeeds, with the drive backend it requires --drive-client-id and
--drive-token (or their MULTIPAL_* environment variables).`,
	RunE: runBackup,
}

func init() {
	rootCmd.AddCommand(backupCmd)
}

func runBackup(cmd *cobra.Command, args []string) error {
	client, cleanup, err := buildClient(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := authenticate(cmd, client); err != nil {
		return err
	}
	if err := client.BackupNow(cmd.Context()); err != nil {
		return err
	}

	printSuccess(cmd.OutOrStdout(), "Backup uploaded")
	if last := client.Settings().LastBackup; last != nil {
		printMuted(cmd.OutOrStdout(), "taken: %s", last.Format("2006-01-02 15:04:05 MST"))
	}
	return nil
}
