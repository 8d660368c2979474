package runner

import (
	"context"

	"github.com/sirupsen/logrus"

	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/logging"
	"github.com/grovetools/keyflow/pkg/models"
	"github.com/grovetools/keyflow/pkg/platform"
)

// Script runs AppleScript and shell sources.
type Script struct {
	scripts platform.Scripter
	ws      platform.Workspace
	logger  *logrus.Entry
}

func NewScript(scripts platform.Scripter, ws platform.Workspace) *Script {
	return &Script{scripts: scripts, ws: ws, logger: logging.NewLogger("runner.script")}
}

func (s *Script) Run(ctx context.Context, cmd models.Command) error {
	out, err := s.Output(ctx, cmd)
	if err != nil {
		return err
	}
	if out != "" {
		s.logger.WithField("command", cmd.Meta().ID).Debugf("Script output: %s", out)
	}
	return nil
}

// Output runs the script and returns what it printed.
func (s *Script) Output(ctx context.Context, cmd models.Command) (string, error) {
	c, ok := cmd.(models.ScriptCommand)
	if !ok {
		return "", unexpected(models.KindScript, cmd)
	}
	src := c.Source
	if src.Inline == "" && src.Path == "" {
		return "", kferrors.New(kferrors.ErrCodeInvalidInput, "script has neither a path nor inline source")
	}

	switch c.ScriptKind {
	case models.ScriptAppleScript:
		if src.Inline != "" {
			return s.scripts.AppleScript(ctx, src.Inline)
		}
		return s.scripts.AppleScriptFile(ctx, expandPath(src.Path))
	case models.ScriptShell:
		if src.Inline != "" {
			return s.scripts.Shell(ctx, src.Inline)
		}
		return s.scripts.ShellFile(ctx, expandPath(src.Path))
	default:
		return "", kferrors.New(kferrors.ErrCodeInvalidInput, "unknown script kind: "+string(c.ScriptKind))
	}
}

// Reveal shows a file-backed script in the file browser.
func (s *Script) Reveal(ctx context.Context, cmd models.Command) error {
	c, ok := cmd.(models.ScriptCommand)
	if !ok {
		return unexpected(models.KindScript, cmd)
	}
	if c.Source.Path == "" {
		return nil
	}
	return s.ws.Reveal(ctx, expandPath(c.Source.Path))
}
