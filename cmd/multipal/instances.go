package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var instancesCmd = &cobra.Command{
	Use:   "instances",
	Short: "Manage cloned instances",
	RunE:  runInstancesList,
}

var instancesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cloned instances in creation order",
	RunE:  runInstancesList,
}

var instancesRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a cloned instance",
	Args:  cobra.ExactArgs(2),
	RunE:  runInstancesRename,
}

var instancesRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete a cloned instance",
	Long:  `Delete a cloned instance. A running instance is stopped first.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runInstancesRemove,
}

func init() {
	instancesCmd.AddCommand(instancesListCmd)
	instancesCmd.AddCommand(instancesRenameCmd)
	instancesCmd.AddCommand(instancesRemoveCmd)
	rootCmd.AddCommand(instancesCmd)
}

func runInstancesList(cmd *cobra.Command, args []string) error {
	client, cleanup, err := buildClient(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	views := client.Instances()
	if len(views) == 0 {
		printMuted(cmd.OutOrStdout(), "No cloned instances.")
		return nil
	}

	runningIDs := make(map[string]bool)
	for _, id := range client.Running() {
		runningIDs[id] = true
	}

	w := cmd.OutOrStdout()
	for _, v := range views {
		state := "stopped"
		if runningIDs[v.ID] {
			state = "running"
		}
		printLabel(w, v.InstanceName)
		fmt.Fprintf(w, "  [%s]\n", v.ID)
		fmt.Fprintf(w, "  app: %s (%s)  storage: %s  battery: %s  %s\n",
			v.App.Name, v.PackageName, v.StorageUsed, v.BatteryUsage, state)
	}
	return nil
}

func runInstancesRename(cmd *cobra.Command, args []string) error {
	client, cleanup, err := buildClient(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, ok := client.Instance(args[0]); !ok {
		return fmt.Errorf("unknown instance %q", args[0])
	}
	client.RenameInstance(args[0], args[1])
	printSuccess(cmd.OutOrStdout(), "Renamed %s to %q", args[0], args[1])
	return nil
}

func runInstancesRemove(cmd *cobra.Command, args []string) error {
	client, cleanup, err := buildClient(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	inst, ok := client.Instance(args[0])
	if !ok {
		return fmt.Errorf("unknown instance %q", args[0])
	}
	client.RemoveInstance(inst.ID)
	printSuccess(cmd.OutOrStdout(), "Removed %s", inst.InstanceName)
	return nil
}
