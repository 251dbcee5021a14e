package main

import (
	"fmt"

	"github.com/hyperengineering/multipal"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change session settings",
	RunE:  runSettingsShow,
}

var settingsThemeCmd = &cobra.Command{
	Use:   "theme <light|dark>",
	Short: "Set the color theme",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsTheme,
}

var settingsAutoBackupCmd = &cobra.Command{
	Use:   "auto-backup <on|off>",
	Short: "Enable or disable automatic backups",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsAutoBackup,
}

func init() {
	settingsCmd.AddCommand(settingsThemeCmd)
	settingsCmd.AddCommand(settingsAutoBackupCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	client, cleanup, err := buildClient(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	s := client.Settings()
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "theme:       %s\n", s.Theme)
	fmt.Fprintf(w, "auto-backup: %v\n", s.AutoBackup)
	if s.LastBackup != nil {
		fmt.Fprintf(w, "last backup: %s\n", s.LastBackup.Format("2006-01-02 15:04:05 MST"))
	} else {
		fmt.Fprintf(w, "last backup: never\n")
	}
	return nil
}

func runSettingsTheme(cmd *cobra.Command, args []string) error {
	if args[0] != string(multipal.ThemeLight) && args[0] != string(multipal.ThemeDark) {
		return fmt.Errorf("invalid theme %q: must be light or dark", args[0])
	}

	client, cleanup, err := buildClient(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	client.SetTheme(multipal.Theme(args[0]))
	printSuccess(cmd.OutOrStdout(), "Theme set to %s", args[0])
	return nil
}

func runSettingsAutoBackup(cmd *cobra.Command, args []string) error {
	var enabled bool
	switch args[0] {
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		return fmt.Errorf("invalid value %q: must be on or off", args[0])
	}

	client, cleanup, err := buildClient(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	client.SetAutoBackup(enabled)
	printSuccess(cmd.OutOrStdout(), "Automatic backup %s", args[0])
	return nil
}
