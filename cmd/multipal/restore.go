package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/hyperengineering/multipal"
	"github.com/spf13/cobra"
)

var restoreYes bool

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore state from the latest backup",
	Long: `Download the latest backup and replace local instances and settings
with its contents. Running instances are stopped. Prompts for
confirmation unless --yes is given.`,
	RunE: runRestore,
}

func init() {
	restoreCmd.Flags().BoolVarP(&restoreYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(restoreCmd)
}

func runRestore(cmd *cobra.Command, args []string) error {
	client, cleanup, err := buildClient(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := authenticate(cmd, client); err != nil {
		return err
	}

	confirm := func(snap multipal.BackupSnapshot) bool {
		if restoreYes {
			return true
		}
		printWarning(cmd.OutOrStdout(), "This will overwrite your current data with the backup from %s (%d instances).",
			snap.BackupDate.Format("2006-01-02 15:04:05 MST"), len(snap.ClonedApps))
		fmt.Fprint(cmd.OutOrStdout(), "Continue? [y/N] ")
		reader := bufio.NewReader(cmd.InOrStdin())
		line, _ := reader.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}

	snap, err := client.RestoreLatest(cmd.Context(), confirm)
	if err == multipal.ErrRestoreDeclined {
		printMuted(cmd.OutOrStdout(), "Restore cancelled.")
		return nil
	}
	if err != nil {
		return err
	}

	printSuccess(cmd.OutOrStdout(), "Restored %d instances from backup taken %s",
		len(snap.ClonedApps), snap.BackupDate.Format("2006-01-02 15:04:05 MST"))
	return nil
}
