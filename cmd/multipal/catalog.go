package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List apps available for cloning",
	RunE:  runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	client, cleanup, err := buildClient(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	w := cmd.OutOrStdout()
	for _, app := range client.Catalog().Apps() {
		printLabel(w, app.Name)
		fmt.Fprintf(w, "  %s  %s", app.PackageName, app.Size)
		if app.Sensitive {
			if isTTY() {
				fmt.Fprintf(w, "  %s", warningStyle.Render("sensitive"))
			} else {
				fmt.Fprint(w, "  sensitive")
			}
		}
		fmt.Fprintln(w)
	}
	return nil
}
