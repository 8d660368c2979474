package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/keyflow/cli"
	"github.com/grovetools/keyflow/config"
	"github.com/grovetools/keyflow/logging"
	"github.com/grovetools/keyflow/pkg/paths"
)

// NewConfigCmd groups the configuration helpers.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate keyflow configuration",
	}
	cmd.AddCommand(newConfigSchemaCmd(), newConfigValidateCmd(), newConfigPathsCmd())
	return cmd
}

func newConfigSchemaCmd() *cobra.Command {
	var groups bool
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of keyflow.yml or the groups file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			generate := config.GenerateSchema
			if groups {
				generate = config.GenerateGroupsSchema
			}
			data, err := generate()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&groups, "groups", false, "Print the groups file schema instead")
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the settings and groups files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := cli.LoadSettings(cmd)
			if err != nil {
				return err
			}
			groups, err := config.LoadGroups(settings.GroupsFile)
			if err != nil {
				return err
			}

			workflows := 0
			for _, g := range groups {
				workflows += len(g.Workflows)
			}

			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			source := cli.SettingsPath(cmd)
			if source == "" {
				source = "(defaults)"
			}
			pretty.Success("Configuration is valid")
			pretty.Field("Settings", source)
			pretty.Field("Groups file", settings.GroupsFile)
			pretty.Field("Workflows", fmt.Sprintf("%d in %d groups", workflows, len(groups)))
			return nil
		},
	}
}

func newConfigPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Show the directories and files keyflow uses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list := []struct {
				Name string `json:"name"`
				Path string `json:"path"`
			}{
				{"config", paths.ConfigDir()},
				{"groups", paths.DefaultGroupsFile()},
				{"state", paths.StateDir()},
				{"cache", paths.CacheDir()},
				{"logs", paths.LogsDir()},
				{"socket", paths.SocketPath()},
				{"pidfile", paths.PidFilePath()},
			}
			if cli.GetOptions(cmd).JSONOutput {
				return printJSON(cmd, list)
			}
			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			for _, p := range list {
				pretty.Field(p.Name, p.Path)
			}
			return nil
		},
	}
}
