package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/keyflow/cli"
	"github.com/grovetools/keyflow/logging"
	"github.com/grovetools/keyflow/pkg/daemon"
	"github.com/grovetools/keyflow/pkg/enginestate"
)

// NewEnableCmd resumes shortcut handling.
func NewEnableCmd() *cobra.Command {
	return newSignalCmd("enable", "Resume handling shortcuts", enginestate.SignalEnable)
}

// NewDisableCmd suspends shortcut handling.
func NewDisableCmd() *cobra.Command {
	return newSignalCmd("disable", "Stop handling shortcuts until enabled again", enginestate.SignalDisable)
}

// NewToggleCmd flips between enabled and disabled.
func NewToggleCmd() *cobra.Command {
	return newSignalCmd("toggle", "Switch between enabled and disabled", enginestate.SignalToggle)
}

func newSignalCmd(use, short string, sig enginestate.Signal) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := connect(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			change, err := client.SetState(cmd.Context(), daemon.StateRequest{Signal: string(sig)})
			if err != nil {
				return err
			}
			if cli.GetOptions(cmd).JSONOutput {
				return printJSON(cmd, change)
			}

			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			if !change.Changed {
				pretty.InfoPretty(fmt.Sprintf("Already %s", change.To))
				return nil
			}
			pretty.Success(fmt.Sprintf("Shortcuts %s (was %s)", change.To, change.From))
			return nil
		},
	}
}
