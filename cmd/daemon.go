package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/grovetools/keyflow/cli"
	"github.com/grovetools/keyflow/command"
	"github.com/grovetools/keyflow/config"
	"github.com/grovetools/keyflow/internal/daemon/collector"
	"github.com/grovetools/keyflow/internal/daemon/engine"
	"github.com/grovetools/keyflow/internal/daemon/pidfile"
	"github.com/grovetools/keyflow/internal/daemon/server"
	"github.com/grovetools/keyflow/internal/daemon/store"
	"github.com/grovetools/keyflow/logging"
	"github.com/grovetools/keyflow/pkg/apps"
	"github.com/grovetools/keyflow/pkg/daemon"
	"github.com/grovetools/keyflow/pkg/keycodes"
	"github.com/grovetools/keyflow/pkg/keytap"
	"github.com/grovetools/keyflow/pkg/paths"
	"github.com/grovetools/keyflow/pkg/platform"
	"github.com/grovetools/keyflow/pkg/process"
)

// NewStartCmd runs the daemon in the foreground.
func NewStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the keyflow daemon",
		Long: `Start the keyflow daemon in the foreground.

The daemon installs the keyboard event tap, watches running applications and
serves the control API on a unix socket. It needs the Accessibility
permission; until it is granted the daemon keeps running and installs the
tap as soon as the permission appears.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := cli.LoadSettings(cmd)
			if err != nil {
				return err
			}
			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("failed to create keyflow directories: %w", err)
			}
			defer logging.Close()
			return runDaemon(settings, cli.SettingsPath(cmd))
		},
	}
}

func runDaemon(settings *config.Settings, settingsPath string) error {
	logger := logging.NewLogger("keyflowd")
	pidPath := paths.PidFilePath()

	if err := pidfile.Acquire(pidPath); err != nil {
		return err
	}
	defer func() {
		if err := pidfile.Release(pidPath); err != nil {
			logger.Errorf("Failed to release pidfile: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ex := &command.RealExecutor{Env: []string{"KEYFLOW_DAEMON=1"}}
	catalog := apps.NewCatalog(ex, settings.Applications.Directories)
	if err := catalog.Scan(ctx); err != nil {
		logger.WithError(err).Warn("Application scan failed")
	}
	mac := platform.NewMacOS(ex)

	eng := engine.New(store.New(), engine.Options{
		Settings:  settings,
		Platform:  mac,
		Tap:       keytap.NewSystemTap(),
		Poster:    keytap.NewSystemPoster(),
		Layout:    keycodes.CurrentLayout,
		Installed: catalog,
	})
	eng.Register(collector.NewApplicationCollector(mac, settings.Engine.PollInterval()))
	eng.Register(collector.NewPermissionCollector(keytap.Trusted, 0))

	if err := eng.Reload(); err != nil {
		logger.WithError(err).Warn("Starting without groups")
	}

	if !settings.Watch.Disabled {
		startWatcher(ctx, logger, eng, settings, settingsPath)
	}

	srv := server.New(logger, eng)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe(settings.Daemon.Socket)
	}()

	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		eng.Start(ctx)
	}()

	logger.WithFields(logrus.Fields{
		"pid":     os.Getpid(),
		"groups":  settings.GroupsFile,
		"trusted": keytap.Trusted(),
	}).Info("Starting daemon")

	var result error
	select {
	case <-ctx.Done():
		logger.Info("Received stop signal")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			result = fmt.Errorf("server error: %w", err)
		}
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown error: %v", err)
	}
	<-engineDone
	_ = os.Remove(settings.Daemon.Socket)
	return result
}

// startWatcher reloads the groups when the groups file changes. Changes to
// the settings file are reported only: they need a restart.
func startWatcher(ctx context.Context, logger *logrus.Entry, eng *engine.Engine, settings *config.Settings, settingsPath string) {
	groupsPath, _ := filepath.Abs(settings.GroupsFile)
	files := []string{settings.GroupsFile}
	if settingsPath != "" {
		files = append(files, settingsPath)
	}

	watcher, err := daemon.NewConfigWatcher(files, settings.Watch.Ignore, 0, func(file string) {
		if file != groupsPath {
			logger.WithField("file", file).Warn("Settings changed; restart the daemon to apply them")
			return
		}
		if err := eng.Reload(); err != nil {
			logger.WithError(err).Error("Reload failed")
		}
	})
	if err != nil {
		logger.WithError(err).Warn("Config watcher disabled")
		return
	}
	go watcher.Start(ctx)
}

// NewStopCmd sends SIGTERM to the running daemon.
func NewStopCmd() *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())

			running, pid, err := pidfile.IsRunning(paths.PidFilePath())
			if err != nil {
				return fmt.Errorf("error checking status: %w", err)
			}
			if !running {
				pretty.InfoPretty("Daemon is not running")
				return nil
			}

			if err := process.Terminate(pid); err != nil {
				return fmt.Errorf("failed to send stop signal: %w", err)
			}

			deadline := time.Now().Add(wait)
			for process.IsProcessAlive(pid) && time.Now().Before(deadline) {
				time.Sleep(50 * time.Millisecond)
			}
			if process.IsProcessAlive(pid) {
				pretty.WarnPretty(fmt.Sprintf("Sent SIGTERM to process %d; it is still shutting down", pid))
				return nil
			}
			pretty.Success(fmt.Sprintf("Stopped daemon (PID %d)", pid))
			return nil
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 5*time.Second, "How long to wait for the daemon to exit")
	return cmd
}

// NewStatusCmd prints the daemon state.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the daemon state",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := connect(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}
			if cli.GetOptions(cmd).JSONOutput {
				return printJSON(cmd, status)
			}

			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			_, pid, _ := pidfile.IsRunning(paths.PidFilePath())
			pretty.Field("State", status.EngineState)
			pretty.Field("PID", pid)
			pretty.Field("Uptime", time.Since(status.StartedAt).Round(time.Second))
			pretty.Field("Accessibility", yesNo(status.Trusted))
			pretty.Field("Event tap", yesNo(status.TapInstalled))
			pretty.Field("Frontmost", status.Frontmost)
			pretty.Field("Workflows", fmt.Sprintf("%d in %d groups", status.Index.Workflows, status.Index.Groups))
			pretty.Field("Shortcuts", status.Index.Entries)
			if status.LastCommand != nil {
				pretty.Field("Last command", fmt.Sprintf("%s (%s)", status.LastCommand.Name, status.LastCommand.Kind))
			}
			if status.ConfigError != "" {
				pretty.ErrorPretty("Groups file rejected", errors.New(status.ConfigError))
			}
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// connect opens the daemon client for the configured socket.
func connect(cmd *cobra.Command) (*daemon.RemoteClient, error) {
	socket := ""
	if settings, err := cli.LoadSettings(cmd); err == nil {
		socket = settings.Daemon.Socket
	}
	return daemon.Connect(socket)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
