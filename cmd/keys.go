package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/grovetools/keyflow/cli"
	"github.com/grovetools/keyflow/logging"
	"github.com/grovetools/keyflow/pkg/keycodes"
	"github.com/grovetools/keyflow/pkg/models"
)

// NewKeysCmd inspects the active keyboard layout.
func NewKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Inspect key names and codes of the active layout",
	}
	cmd.AddCommand(newKeysListCmd(), newKeysParseCmd())
	return cmd
}

type keyInfo struct {
	Code uint16 `json:"code"`
	Key  string `json:"key"`
}

func newKeysListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every key code with its name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver := keycodes.NewResolver(keycodes.CurrentLayout)
			store := resolver.Store()

			var keys []keyInfo
			for _, code := range store.Codes() {
				name, err := store.Resolve(code)
				if err != nil {
					continue
				}
				keys = append(keys, keyInfo{Code: code, Key: name})
			}

			if cli.GetOptions(cmd).JSONOutput {
				return printJSON(cmd, map[string]interface{}{"layout": store.LayoutID(), "keys": keys})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Layout: %s\n\n", store.LayoutID())
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, k := range keys {
				fmt.Fprintf(w, "%d\t%s\n", k.Code, k.Key)
			}
			return w.Flush()
		},
	}
}

func newKeysParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <shortcut>...",
		Short: "Show how shortcuts are interpreted",
		Long: `Parse shortcuts the way the groups file does and show the index IDs
they are registered under on the active layout.

Examples:
  keyflow keys parse cmd+shift+d
  keyflow keys parse "ctrl+alt+space" cmd++`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := keycodes.NewResolver(keycodes.CurrentLayout).Store()

			type parsed struct {
				Input string `json:"input"`
				ID    string `json:"id"`
				Code  uint16 `json:"code"`
			}
			var results []parsed
			for _, arg := range args {
				shortcut, err := models.ParseKeyShortcut(arg)
				if err != nil {
					return err
				}
				canonical, err := store.Canonical(shortcut)
				if err != nil {
					return err
				}
				code, err := store.KeyCode(canonical.Key)
				if err != nil {
					return err
				}
				results = append(results, parsed{Input: arg, ID: canonical.ID(), Code: code})
			}

			if cli.GetOptions(cmd).JSONOutput {
				return printJSON(cmd, results)
			}
			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			for _, r := range results {
				pretty.Shortcut(fmt.Sprintf("%s (code %d)", r.Input, r.Code), r.ID)
			}
			return nil
		},
	}
}
