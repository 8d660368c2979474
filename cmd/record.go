package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/grovetools/keyflow/cli"
	"github.com/grovetools/keyflow/pkg/keytap"
	"github.com/grovetools/keyflow/tui"
	"github.com/grovetools/keyflow/tui/recorder"
)

// NewRecordCmd opens the shortcut recorder.
func NewRecordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "record",
		Short: "Record keyboard shortcuts for use in workflows",
		Long: `Open the shortcut recorder.

Press r to arm the recorder, then press the shortcut to capture. While armed
the daemon swallows every key press and no workflow fires. The captured
shortcuts are printed in their configuration form when you quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := connect(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			restore := tui.InitializeTUI()
			defer restore()
			start := func() (recorder.Session, error) {
				rec, err := client.Record(cmd.Context(), true)
				if err != nil {
					return nil, err
				}
				return rec, nil
			}

			final, err := tea.NewProgram(recorder.New(start), tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return fmt.Errorf("recorder failed: %w", err)
			}

			model, ok := final.(recorder.Model)
			if !ok {
				return nil
			}
			captured := model.Captured()
			if cli.GetOptions(cmd).JSONOutput {
				if captured == nil {
					captured = []keytap.Recorded{}
				}
				return printJSON(cmd, captured)
			}
			for _, rec := range captured {
				fmt.Fprintln(cmd.OutOrStdout(), rec.ID)
			}
			return nil
		},
	}
}
