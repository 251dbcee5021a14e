package main

import (
	"github.com/spf13/cobra"
)

var toggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Start or stop a cloned instance",
	Long: `Start or stop a cloned instance.

At most one instance per app runs at a time; starting a second instance
of the same app is rejected until the first is stopped.`,
	Args: cobra.ExactArgs(1),
	RunE: runToggle,
}

func init() {
	rootCmd.AddCommand(toggleCmd)
}

func runToggle(cmd *cobra.Command, args []string) error {
	client, cleanup, err := buildClient(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	_, err = client.ToggleInstance(args[0])
	return err
}
