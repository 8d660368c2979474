// Package cli holds the pieces shared by keyflow's cobra commands: the
// standard flags, styled help and user-facing error reporting.
package cli

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/grovetools/keyflow/config"
	"github.com/grovetools/keyflow/logging"
	"github.com/grovetools/keyflow/pkg/paths"
)

// CommandOptions holds the options every keyflow command accepts.
type CommandOptions struct {
	ConfigFile string
	Verbose    bool
	JSONOutput bool
	NoColor    bool
}

// NewStandardCommand creates a command with the standard keyflow flags.
func NewStandardCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to keyflow.yml config file")

	SetStyledHelp(cmd)
	return cmd
}

// GetOptions extracts the standard options from a command.
func GetOptions(cmd *cobra.Command) CommandOptions {
	configFile, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	return CommandOptions{
		ConfigFile: configFile,
		Verbose:    verbose,
		JSONOutput: jsonOutput,
		NoColor:    noColor,
	}
}

// LoadSettings loads the settings named by --config, or the default ones,
// and configures logging from them. --verbose raises the level to debug.
func LoadSettings(cmd *cobra.Command) (*config.Settings, error) {
	opts := GetOptions(cmd)

	var (
		settings *config.Settings
		err      error
	)
	if opts.ConfigFile != "" {
		settings, err = config.Load(opts.ConfigFile)
	} else {
		settings, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	logCfg := settings.Logging
	if opts.Verbose {
		logCfg.Level = "debug"
	}
	logging.Configure(logCfg)
	return settings, nil
}

// SetupColor picks the color profile: plain output for --no-color,
// NO_COLOR, --json and anything that is not a terminal.
func SetupColor(cmd *cobra.Command) {
	opts := GetOptions(cmd)
	_, noColorEnv := os.LookupEnv("NO_COLOR")
	tty := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	if opts.NoColor || opts.JSONOutput || noColorEnv || !tty {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// SettingsPath returns the settings file in use: --config, or the file
// found in the config directory. It is empty when keyflow runs on defaults.
func SettingsPath(cmd *cobra.Command) string {
	if path := GetOptions(cmd).ConfigFile; path != "" {
		return path
	}
	path, err := config.FindConfigFile(paths.ConfigDir())
	if err != nil {
		return ""
	}
	return path
}
