package main

import (
	"github.com/spf13/cobra"
)

var cloneName string

var cloneCmd = &cobra.Command{
	Use:   "clone <package>",
	Short: "Clone a catalog app into a new instance",
	Long: `Clone a catalog app into a new isolated instance.

The instance is appended to your sequence and starts stopped. Without
--name the instance gets the next auto-numbered name, e.g. "SocialApp (2)".`,
	Args: cobra.ExactArgs(1),
	RunE: runClone,
}

func init() {
	cloneCmd.Flags().StringVar(&cloneName, "name", "", "Display name for the new instance")
	rootCmd.AddCommand(cloneCmd)
}

func runClone(cmd *cobra.Command, args []string) error {
	client, cleanup, err := buildClient(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	inst, err := client.CloneApp(args[0], cloneName)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	printMuted(w, "id: %s  storage: %s  battery: %s", inst.ID, inst.StorageUsed, inst.BatteryUsage)
	return nil
}
