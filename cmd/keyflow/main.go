package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/grovetools/keyflow/cli"
	"github.com/grovetools/keyflow/cmd"
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"keyflow",
		"Keyboard shortcut and application trigger automation",
	)
	rootCmd.PersistentPreRun = func(c *cobra.Command, args []string) {
		cli.SetupColor(c)
	}

	rootCmd.AddCommand(cmd.NewStartCmd())
	rootCmd.AddCommand(cmd.NewStopCmd())
	rootCmd.AddCommand(cmd.NewStatusCmd())
	rootCmd.AddCommand(cmd.NewEnableCmd())
	rootCmd.AddCommand(cmd.NewDisableCmd())
	rootCmd.AddCommand(cmd.NewToggleCmd())
	rootCmd.AddCommand(cmd.NewWorkflowsCmd())
	rootCmd.AddCommand(cmd.NewRunCmd())
	rootCmd.AddCommand(cmd.NewRevealCmd())
	rootCmd.AddCommand(cmd.NewReloadCmd())
	rootCmd.AddCommand(cmd.NewLastCmd())
	rootCmd.AddCommand(cmd.NewShortcutsCmd())
	rootCmd.AddCommand(cmd.NewRecordCmd())
	rootCmd.AddCommand(cmd.NewLogsCmd())
	rootCmd.AddCommand(cmd.NewConfigCmd())
	rootCmd.AddCommand(cmd.NewKeysCmd())
	rootCmd.AddCommand(cli.NewVersionCommand("keyflow"))

	cli.ApplyStyledHelpRecursive(rootCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
		_ = cli.NewErrorHandler(os.Stderr, verbose).Handle(err)
		os.Exit(1)
	}
}
