package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"slices"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/pkg/models"
	"github.com/grovetools/keyflow/pkg/shortcuts"
)

// idNamespace seeds the identifiers generated for entries that have none, so
// reloading an unchanged file yields the same IDs.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/grovetools/keyflow"))

type groupsFile struct {
	Groups []groupDoc `yaml:"groups"`
}

type groupDoc struct {
	ID        string        `yaml:"id"`
	Name      string        `yaml:"name"`
	Color     string        `yaml:"color"`
	Symbol    string        `yaml:"symbol"`
	Rule      *models.Rule  `yaml:"rule"`
	Workflows []workflowDoc `yaml:"workflows"`
}

type workflowDoc struct {
	ID        string                   `yaml:"id"`
	Name      string                   `yaml:"name"`
	Enabled   *bool                    `yaml:"enabled"`
	Execution models.Execution         `yaml:"execution"`
	Trigger   *models.Trigger          `yaml:"trigger"`
	Metadata  models.WorkflowMetadata  `yaml:"metadata"`
	Commands  []map[string]interface{} `yaml:"commands"`
}

// prototypes are the zero values commands are decoded over. Enabled defaults
// to true; mapstructure only overwrites keys that are present.
var prototypes = map[models.CommandKind]models.Command{
	models.KindApplication: models.ApplicationCommand{CommandMeta: models.CommandMeta{Enabled: true}},
	models.KindBuiltIn:     models.BuiltInCommand{CommandMeta: models.CommandMeta{Enabled: true}},
	models.KindKeyboard:    models.KeyboardCommand{CommandMeta: models.CommandMeta{Enabled: true}},
	models.KindMenuBar:     models.MenuBarCommand{CommandMeta: models.CommandMeta{Enabled: true}},
	models.KindOpen:        models.OpenCommand{CommandMeta: models.CommandMeta{Enabled: true}},
	models.KindScript:      models.ScriptCommand{CommandMeta: models.CommandMeta{Enabled: true}},
	models.KindShortcut:    models.ShortcutCommand{CommandMeta: models.CommandMeta{Enabled: true}},
	models.KindSystem:      models.SystemCommand{CommandMeta: models.CommandMeta{Enabled: true}},
	models.KindType:        models.TypeCommand{CommandMeta: models.CommandMeta{Enabled: true}},
	models.KindWindow:      models.WindowCommand{CommandMeta: models.CommandMeta{Enabled: true}},
}

// LoadGroups reads and validates the groups file at path.
func LoadGroups(path string) ([]models.Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, kferrors.ConfigNotFound(path)
		}
		return nil, kferrors.Wrap(err, kferrors.ErrCodeConfigInvalid, "failed to read groups file").
			WithDetail("path", path)
	}
	groups, err := ParseGroups(data)
	if err != nil {
		var kfErr *kferrors.KeyflowError
		if errors.As(err, &kfErr) {
			return nil, kfErr.WithDetail("path", path)
		}
		return nil, err
	}
	return groups, nil
}

// ParseGroups decodes a groups document, fills defaults and validates it.
func ParseGroups(data []byte) ([]models.Group, error) {
	var doc groupsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, kferrors.Wrap(err, kferrors.ErrCodeConfigInvalid, "failed to parse groups file")
	}

	groups := make([]models.Group, 0, len(doc.Groups))
	for gi, gd := range doc.Groups {
		g, err := buildGroup(gi, gd)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	if err := ValidateGroups(groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func buildGroup(index int, gd groupDoc) (models.Group, error) {
	g := models.Group{
		ID:     gd.ID,
		Name:   gd.Name,
		Color:  gd.Color,
		Symbol: gd.Symbol,
		Rule:   gd.Rule,
	}
	if g.ID == "" {
		g.ID = derivedID("group", index, gd.Name)
	}
	for wi, wd := range gd.Workflows {
		w := models.Workflow{
			ID:        wd.ID,
			Name:      wd.Name,
			Enabled:   wd.Enabled == nil || *wd.Enabled,
			Execution: wd.Execution,
			Trigger:   wd.Trigger,
			Metadata:  wd.Metadata,
		}
		if w.ID == "" {
			w.ID = derivedID(g.ID, wi, wd.Name)
		}
		if w.Execution == "" {
			w.Execution = models.ExecutionSerial
		}
		for ci, raw := range wd.Commands {
			cmd, err := decodeCommand(raw, derivedID(w.ID, ci, ""))
			if err != nil {
				return models.Group{}, kferrors.Wrap(err, kferrors.ErrCodeConfigInvalid, "invalid command").
					WithDetail("group", g.Name).
					WithDetail("workflow", w.Name).
					WithDetail("index", ci)
			}
			w.Commands = append(w.Commands, cmd)
		}
		g.Workflows = append(g.Workflows, w)
	}
	return g, nil
}

func derivedID(parent string, index int, name string) string {
	return uuid.NewSHA1(idNamespace, []byte(fmt.Sprintf("%s/%d/%s", parent, index, name))).String()
}

// decodeCommand picks the variant from the `kind` key and decodes the rest of
// the mapping into it.
func decodeCommand(raw map[string]interface{}, fallbackID string) (models.Command, error) {
	kindValue, ok := raw["kind"].(string)
	if !ok {
		return nil, fmt.Errorf("command is missing a kind")
	}
	proto, ok := prototypes[models.CommandKind(kindValue)]
	if !ok {
		return nil, fmt.Errorf("unknown command kind %q", kindValue)
	}

	fields := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		if k != "kind" {
			fields[k] = v
		}
	}

	ptr := reflect.New(reflect.TypeOf(proto))
	ptr.Elem().Set(reflect.ValueOf(proto))
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  shortcutHook,
		ErrorUnused: true,
		Result:      ptr.Interface(),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(fields); err != nil {
		return nil, err
	}

	cmd := ptr.Elem().Interface().(models.Command)
	if cmd.Meta().ID == "" {
		ptr.Elem().FieldByName("CommandMeta").FieldByName("ID").SetString(fallbackID)
		cmd = ptr.Elem().Interface().(models.Command)
	}
	return cmd, nil
}

var keyShortcutType = reflect.TypeOf(models.KeyShortcut{})

// shortcutHook lets keyboard commands use the same shortcut forms as
// triggers: "cmd+shift+d" or a key/modifiers mapping.
func shortcutHook(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != keyShortcutType {
		return data, nil
	}
	if s, ok := data.(string); ok {
		return models.ParseKeyShortcut(s)
	}
	out, err := yaml.Marshal(data)
	if err != nil {
		return nil, err
	}
	var k models.KeyShortcut
	if err := yaml.Unmarshal(out, &k); err != nil {
		return nil, err
	}
	return k, nil
}

// ValidateGroups checks identifiers, rules, triggers and command fields.
func ValidateGroups(groups []models.Group) error {
	ids := make(map[string]bool)
	seen := func(id string) error {
		if ids[id] {
			return kferrors.New(kferrors.ErrCodeConfigValidation, fmt.Sprintf("duplicate id %q", id))
		}
		ids[id] = true
		return nil
	}

	for _, g := range groups {
		if err := seen(g.ID); err != nil {
			return err
		}
		if g.Rule != nil && g.Rule.When != "" {
			if _, err := shortcuts.CompileRule(g.Rule.When); err != nil {
				var kfErr *kferrors.KeyflowError
				if errors.As(err, &kfErr) {
					return kfErr.WithDetail("group", g.Name)
				}
				return err
			}
		}
		for _, w := range g.Workflows {
			if err := seen(w.ID); err != nil {
				return err
			}
			if err := validateWorkflow(&w); err != nil {
				return kferrors.Wrap(err, kferrors.ErrCodeConfigValidation, fmt.Sprintf("invalid workflow '%s'", w.Name)).
					WithDetail("group", g.Name).
					WithDetail("workflow", w.ID)
			}
			for _, cmd := range w.Commands {
				if err := seen(cmd.Meta().ID); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func validateWorkflow(w *models.Workflow) error {
	if w.Execution != models.ExecutionSerial && w.Execution != models.ExecutionConcurrent {
		return fmt.Errorf("unknown execution %q", w.Execution)
	}
	if w.Trigger != nil {
		for _, at := range w.Trigger.Application {
			if at.BundleIdentifier == "" {
				return fmt.Errorf("application trigger is missing a bundle_identifier")
			}
			for _, c := range at.Contexts {
				if c != models.ContextLaunched && c != models.ContextClosed && c != models.ContextFrontmost {
					return fmt.Errorf("unknown application context %q", c)
				}
			}
		}
	}
	for i, cmd := range w.Commands {
		if err := validateCommand(cmd); err != nil {
			return fmt.Errorf("command %d (%s): %w", i, cmd.Kind(), err)
		}
	}
	return nil
}

var (
	applicationActions = []models.ApplicationAction{models.ApplicationOpen, models.ApplicationClose, models.ApplicationHide, models.ApplicationUnhide}
	applicationMods    = []models.ApplicationModifier{models.ModifierBackground, models.ModifierHidden, models.ModifierOnlyIfNotRunning}
	windowActions      = []models.WindowAction{
		models.WindowIncreaseSize, models.WindowDecreaseSize, models.WindowMove,
		models.WindowFullscreen, models.WindowCenter, models.WindowMoveToNextDisplay,
	}
	directions = []models.Direction{
		models.DirectionLeading, models.DirectionTopLeading, models.DirectionTop, models.DirectionTopTrailing,
		models.DirectionTrailing, models.DirectionBottomTrailing, models.DirectionBottom, models.DirectionBottomLeading,
	}
	systemActions = []models.SystemAction{
		models.SystemNextWindow, models.SystemPreviousWindow,
		models.SystemNextWindowGlobal, models.SystemPreviousWindowGlobal,
		models.SystemNextWindowFront, models.SystemPreviousWindowFront,
		models.SystemShowDesktop, models.SystemApplicationWindows, models.SystemMissionControl,
	}
	builtInActions = []models.BuiltInAction{
		models.BuiltInQuickRun, models.BuiltInRecordSequence, models.BuiltInRepeatLastKeystroke,
		models.BuiltInEnable, models.BuiltInDisable, models.BuiltInToggle,
	}
)

func validateCommand(cmd models.Command) error {
	switch c := cmd.(type) {
	case models.ApplicationCommand:
		if !slices.Contains(applicationActions, c.Action) {
			return fmt.Errorf("unknown action %q", c.Action)
		}
		if c.Application.BundleIdentifier == "" {
			return fmt.Errorf("application.bundle_identifier is required")
		}
		for _, m := range c.Modifiers {
			if !slices.Contains(applicationMods, m) {
				return fmt.Errorf("unknown modifier %q", m)
			}
		}
	case models.ScriptCommand:
		if c.ScriptKind != models.ScriptAppleScript && c.ScriptKind != models.ScriptShell {
			return fmt.Errorf("unknown script_kind %q", c.ScriptKind)
		}
		if (c.Source.Path == "") == (c.Source.Inline == "") {
			return fmt.Errorf("exactly one of source.path and source.inline is required")
		}
	case models.KeyboardCommand:
		if len(c.Shortcuts) == 0 {
			return fmt.Errorf("shortcuts cannot be empty")
		}
	case models.OpenCommand:
		if c.Path == "" {
			return fmt.Errorf("path is required")
		}
	case models.TypeCommand:
		if c.Input == "" {
			return fmt.Errorf("input is required")
		}
	case models.WindowCommand:
		if !slices.Contains(windowActions, c.Action) {
			return fmt.Errorf("unknown action %q", c.Action)
		}
		if c.Direction != "" && !slices.Contains(directions, c.Direction) {
			return fmt.Errorf("unknown direction %q", c.Direction)
		}
		if c.Mode != "" && c.Mode != models.NextDisplayCenter && c.Mode != models.NextDisplayRelative {
			return fmt.Errorf("unknown mode %q", c.Mode)
		}
		if c.By < 0 || c.Padding < 0 {
			return fmt.Errorf("by and padding cannot be negative")
		}
	case models.SystemCommand:
		if !slices.Contains(systemActions, c.Action) {
			return fmt.Errorf("unknown action %q", c.Action)
		}
	case models.MenuBarCommand:
		if len(c.Tokens) == 0 {
			return fmt.Errorf("menu path cannot be empty")
		}
	case models.ShortcutCommand:
		if c.ShortcutIdentifier == "" {
			return fmt.Errorf("shortcut is required")
		}
	case models.BuiltInCommand:
		if !slices.Contains(builtInActions, c.Action) {
			return fmt.Errorf("unknown action %q", c.Action)
		}
	}
	return nil
}
