package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"

	"github.com/grovetools/keyflow/pkg/paths"
	"github.com/grovetools/keyflow/tui/theme"
)

// NewLogsCmd creates the `logs` command.
func NewLogsCmd() *cobra.Command {
	var (
		follow    bool
		lines     int
		component string
		raw       bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show daemon logs",
		Long: `Show the most recent log file of each component.

Examples:
  # Follow the daemon log
  keyflow logs -f

  # Last 200 lines of the config watcher
  keyflow logs -n 200 --component config-watcher`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := latestLogFiles(paths.LogsDir(), component)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no log files in %s", paths.LogsDir())
			}

			out := cmd.OutOrStdout()
			printLine := func(line string) {
				if raw {
					fmt.Fprintln(out, line)
					return
				}
				fmt.Fprintln(out, formatLogLine(line))
			}

			for _, file := range files {
				tailed, err := lastLines(file, lines)
				if err != nil {
					return err
				}
				for _, line := range tailed {
					printLine(line)
				}
			}
			if !follow {
				return nil
			}

			merged := make(chan string, 64)
			for _, file := range files {
				t, err := tail.TailFile(file, tail.Config{
					Follow:   true,
					ReOpen:   true,
					Location: &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
					Logger:   stdlog.New(io.Discard, "", 0),
				})
				if err != nil {
					return fmt.Errorf("cannot follow %s: %w", file, err)
				}
				defer t.Cleanup()
				go func() {
					for line := range t.Lines {
						if line.Err != nil {
							continue
						}
						merged <- line.Text
					}
				}()
			}

			ctx := cmd.Context()
			for {
				select {
				case line := <-merged:
					printLine(line)
				case <-ctx.Done():
					return nil
				}
			}
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show from each file")
	cmd.Flags().StringVar(&component, "component", "", "Only show logs of this component")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print lines as written, without styling")
	return cmd
}

// latestLogFiles returns the newest <component>-<date>.log per component.
// File names sort by date, so the lexically last one wins.
func latestLogFiles(dir, component string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.log"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	latest := make(map[string]string)
	for _, m := range matches {
		name := componentOf(filepath.Base(m))
		if component != "" && name != component {
			continue
		}
		latest[name] = m
	}

	files := make([]string, 0, len(latest))
	for _, f := range latest {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

// componentOf strips the "-YYYY-MM-DD.log" suffix.
func componentOf(base string) string {
	name := strings.TrimSuffix(base, ".log")
	if len(name) > 11 && name[len(name)-11] == '-' {
		return name[:len(name)-11]
	}
	return name
}

// lastLines returns up to n trailing lines of file.
func lastLines(file string, n int) ([]string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	all := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(all) == 1 && all[0] == "" {
		return nil, nil
	}
	if n > 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

// formatLogLine renders JSON entries written with the json preset; text
// entries are returned unchanged.
func formatLogLine(line string) string {
	var entry map[string]interface{}
	if !strings.HasPrefix(line, "{") || json.Unmarshal([]byte(line), &entry) != nil {
		return line
	}

	t := theme.DefaultTheme
	level, _ := entry["level"].(string)
	msg, _ := entry["msg"].(string)
	ts, _ := entry["time"].(string)
	component, _ := entry["component"].(string)

	levelStyle := t.Info
	switch level {
	case "warning", "warn":
		levelStyle = t.Warning
	case "error", "fatal", "panic":
		levelStyle = t.Error
	case "debug", "trace":
		levelStyle = t.Muted
	}

	var fields []string
	for k, v := range entry {
		switch k {
		case "level", "msg", "time", "component":
			continue
		}
		fields = append(fields, fmt.Sprintf("%s=%v", k, v))
	}
	sort.Strings(fields)

	parts := []string{t.Muted.Render(ts), levelStyle.Render(strings.ToUpper(level))}
	if component != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(t.Colors.Cyan).Render("["+component+"]"))
	}
	parts = append(parts, msg)
	if len(fields) > 0 {
		parts = append(parts, t.Muted.Render(strings.Join(fields, " ")))
	}
	return strings.Join(parts, " ")
}
