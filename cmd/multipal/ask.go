package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Ask the Multipal support assistant",
	Long: `Ask the Multipal support assistant a question about cloning,
backups, or settings.

With ANTHROPIC_API_KEY set the question goes to the real assistant;
otherwise a mock responds.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	client, cleanup, err := buildClient(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	answer, err := client.Ask(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderMarkdown(answer))
	return nil
}
