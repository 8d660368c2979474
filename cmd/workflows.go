package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/grovetools/keyflow/cli"
	"github.com/grovetools/keyflow/logging"
	"github.com/grovetools/keyflow/pkg/daemon"
	"github.com/grovetools/keyflow/tui/theme"
)

// NewWorkflowsCmd lists the configured workflows. It works without a running
// daemon by reading the groups file directly.
func NewWorkflowsCmd() *cobra.Command {
	var group string
	cmd := &cobra.Command{
		Use:     "workflows",
		Aliases: []string{"ls"},
		Short:   "List configured workflows",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := openClient(cmd)
			defer client.Close()

			workflows, err := client.Workflows(cmd.Context())
			if err != nil {
				return err
			}
			if group != "" {
				filtered := workflows[:0]
				for _, w := range workflows {
					if w.Group == group {
						filtered = append(filtered, w)
					}
				}
				workflows = filtered
			}

			if cli.GetOptions(cmd).JSONOutput {
				if workflows == nil {
					workflows = []daemon.WorkflowInfo{}
				}
				return printJSON(cmd, workflows)
			}
			if len(workflows) == 0 {
				logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout()).InfoPretty("No workflows configured")
				return nil
			}

			t := theme.DefaultTheme
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			header := lipgloss.NewStyle().Bold(true)
			fmt.Fprintln(w, header.Render("NAME")+"\t"+header.Render("GROUP")+"\t"+header.Render("EXECUTION")+"\t"+header.Render("TRIGGER"))
			for _, wf := range workflows {
				name := wf.Name
				if !wf.Enabled {
					name = t.Muted.Render(name + " (disabled)")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, wf.Group, wf.Execution, wf.Trigger)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&group, "group", "g", "", "Only list workflows of this group")
	return cmd
}

// NewRunCmd runs a workflow by ID or name.
func NewRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <workflow>",
		Short: "Run a workflow now",
		Long: `Run a workflow by ID or name, as if its trigger had fired.

Disabled workflows are refused.

Examples:
  keyflow run "Open editor"
  keyflow run 3f1c2a`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := connect(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			resp, err := client.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if cli.GetOptions(cmd).JSONOutput {
				return printJSON(cmd, resp)
			}
			logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout()).Success(fmt.Sprintf("Started %s (task %d)", resp.Name, resp.Task))
			return nil
		},
	}
}

// NewRevealCmd shows the files and applications a workflow's commands target.
func NewRevealCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reveal <workflow>",
		Short: "Reveal the targets of a workflow's commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := connect(cmd)
			if err != nil {
				return err
			}
			defer client.Close()
			return client.Reveal(cmd.Context(), args[0])
		},
	}
}

// NewReloadCmd asks the daemon to re-read the groups file, or validates it
// when no daemon is running.
func NewReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Reload the groups file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := openClient(cmd)
			defer client.Close()

			if err := client.Reload(cmd.Context()); err != nil {
				return err
			}
			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			if client.IsRunning() {
				pretty.Success("Groups reloaded")
			} else {
				pretty.Success("Groups file is valid; the daemon is not running")
			}
			return nil
		},
	}
}

// NewLastCmd prints the most recent command that asked to be reported.
func NewLastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "last",
		Short: "Show the last reported command",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := connect(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			executed, err := client.LastCommand(cmd.Context())
			if err != nil {
				return err
			}
			if cli.GetOptions(cmd).JSONOutput {
				return printJSON(cmd, executed)
			}
			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			if executed == nil {
				pretty.InfoPretty("No command reported yet")
				return nil
			}
			pretty.Field("Command", executed.Name)
			pretty.Field("Kind", executed.Kind)
			pretty.Field("At", executed.Time.Format("15:04:05"))
			return nil
		},
	}
}

// NewShortcutsCmd lists the Shortcuts-app shortcuts usable by workflows.
func NewShortcutsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shortcuts",
		Short: "List saved Shortcuts-app shortcuts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := connect(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			names, err := client.Shortcuts(cmd.Context())
			if err != nil {
				return err
			}
			if cli.GetOptions(cmd).JSONOutput {
				return printJSON(cmd, names)
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

// openClient returns the daemon client, falling back to offline access.
func openClient(cmd *cobra.Command) daemon.Client {
	socket := ""
	if settings, err := cli.LoadSettings(cmd); err == nil {
		socket = settings.Daemon.Socket
	}
	return daemon.New(socket, cli.SettingsPath(cmd))
}
