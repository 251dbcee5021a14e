package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export current state to a snapshot file",
	Long: `Write the current instances and settings to a snapshot file.

The file uses the same format as cloud backups, so it can be imported
later or kept as an offline copy. Use "-" to write to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import state from a snapshot file",
	Long: `Replace the current instances and settings with the contents of a
snapshot file, exactly like a restore from a cloud backup. Use "-" to
read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	client, cleanup, err := buildClient(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if args[0] == "-" {
		return client.ExportSnapshot(cmd.OutOrStdout())
	}

	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := client.ExportSnapshot(f); err != nil {
		return err
	}
	printSuccess(cmd.OutOrStdout(), "Exported to %s", args[0])
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	client, cleanup, err := buildClient(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	in := cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open import file: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	restored, err := client.ImportSnapshot(cmd.Context(), in)
	if err != nil {
		return err
	}
	printSuccess(cmd.OutOrStdout(), "Imported %d instances from snapshot taken %s",
		len(restored.ClonedApps), restored.BackupDate.Format("2006-01-02 15:04:05 MST"))
	return nil
}
