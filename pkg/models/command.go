package models

// CommandKind tags the variant of a Command.
type CommandKind string

const (
	KindApplication CommandKind = "application"
	KindBuiltIn     CommandKind = "builtIn"
	KindKeyboard    CommandKind = "keyboard"
	KindMenuBar     CommandKind = "menuBar"
	KindOpen        CommandKind = "open"
	KindScript      CommandKind = "script"
	KindShortcut    CommandKind = "shortcut"
	KindSystem      CommandKind = "system"
	KindType        CommandKind = "type"
	KindWindow      CommandKind = "window"
)

// Command is the closed set of command variants a workflow can run.
// Only the types in this package implement it.
type Command interface {
	Meta() CommandMeta
	Kind() CommandKind
	isCommand()
}

// CommandMeta is shared by every command variant.
type CommandMeta struct {
	ID           string `mapstructure:"id" json:"id"`
	Name         string `mapstructure:"name" json:"name"`
	Enabled      bool   `mapstructure:"enabled" json:"enabled"`
	Notification bool   `mapstructure:"notification" json:"notification"`
}

// Meta returns the shared metadata.
func (m CommandMeta) Meta() CommandMeta { return m }

func (CommandMeta) isCommand() {}

// Application identifies an installed application.
type Application struct {
	BundleIdentifier string `mapstructure:"bundle_identifier" yaml:"bundle_identifier" json:"bundle_identifier"`
	Name             string `mapstructure:"name" yaml:"name" json:"name"`
	Path             string `mapstructure:"path" yaml:"path" json:"path"`
}

type ApplicationAction string

const (
	ApplicationOpen   ApplicationAction = "open"
	ApplicationClose  ApplicationAction = "close"
	ApplicationHide   ApplicationAction = "hide"
	ApplicationUnhide ApplicationAction = "unhide"
)

type ApplicationModifier string

const (
	ModifierBackground       ApplicationModifier = "background"
	ModifierHidden           ApplicationModifier = "hidden"
	ModifierOnlyIfNotRunning ApplicationModifier = "onlyIfNotRunning"
)

// ApplicationCommand opens, closes, hides or unhides an application.
type ApplicationCommand struct {
	CommandMeta `mapstructure:",squash"`
	Action      ApplicationAction     `mapstructure:"action" json:"action"`
	Application Application           `mapstructure:"application" json:"application"`
	Modifiers   []ApplicationModifier `mapstructure:"modifiers" json:"modifiers,omitempty"`
}

func (ApplicationCommand) Kind() CommandKind { return KindApplication }

// Has reports whether the modifier is set.
func (c ApplicationCommand) Has(m ApplicationModifier) bool {
	for _, mod := range c.Modifiers {
		if mod == m {
			return true
		}
	}
	return false
}

type ScriptKind string

const (
	ScriptAppleScript ScriptKind = "appleScript"
	ScriptShell       ScriptKind = "shellScript"
)

// ScriptSource holds either a file path or inline source.
type ScriptSource struct {
	Path   string `mapstructure:"path" json:"path,omitempty"`
	Inline string `mapstructure:"inline" json:"inline,omitempty"`
}

// ScriptCommand runs AppleScript or shell source.
type ScriptCommand struct {
	CommandMeta `mapstructure:",squash"`
	ScriptKind  ScriptKind   `mapstructure:"script_kind" json:"script_kind"`
	Source      ScriptSource `mapstructure:"source" json:"source"`
}

func (ScriptCommand) Kind() CommandKind { return KindScript }

// KeyboardCommand synthesizes a list of shortcuts.
type KeyboardCommand struct {
	CommandMeta `mapstructure:",squash"`
	Shortcuts   []KeyShortcut `mapstructure:"shortcuts" json:"shortcuts"`
}

func (KeyboardCommand) Kind() CommandKind { return KindKeyboard }

// OpenCommand opens a path or URL, optionally with a specific application.
type OpenCommand struct {
	CommandMeta `mapstructure:",squash"`
	Path        string       `mapstructure:"path" json:"path"`
	Application *Application `mapstructure:"application" json:"application,omitempty"`
}

func (OpenCommand) Kind() CommandKind { return KindOpen }

// TypeCommand types literal text keystroke by keystroke.
type TypeCommand struct {
	CommandMeta `mapstructure:",squash"`
	Input       string `mapstructure:"input" json:"input"`
}

func (TypeCommand) Kind() CommandKind { return KindType }

type WindowAction string

const (
	WindowIncreaseSize      WindowAction = "increaseSize"
	WindowDecreaseSize      WindowAction = "decreaseSize"
	WindowMove              WindowAction = "move"
	WindowFullscreen        WindowAction = "fullscreen"
	WindowCenter            WindowAction = "center"
	WindowMoveToNextDisplay WindowAction = "moveToNextDisplay"
)

// Direction is the anchor used by move and resize operations.
type Direction string

const (
	DirectionLeading        Direction = "leading"
	DirectionTopLeading     Direction = "topLeading"
	DirectionTop            Direction = "top"
	DirectionTopTrailing    Direction = "topTrailing"
	DirectionTrailing       Direction = "trailing"
	DirectionBottomTrailing Direction = "bottomTrailing"
	DirectionBottom         Direction = "bottom"
	DirectionBottomLeading  Direction = "bottomLeading"
)

type NextDisplayMode string

const (
	NextDisplayCenter   NextDisplayMode = "center"
	NextDisplayRelative NextDisplayMode = "relative"
)

// WindowCommand moves or resizes the focused window.
type WindowCommand struct {
	CommandMeta         `mapstructure:",squash"`
	Action              WindowAction    `mapstructure:"action" json:"action"`
	By                  int             `mapstructure:"by" json:"by,omitempty"`
	Direction           Direction       `mapstructure:"direction" json:"direction,omitempty"`
	ConstrainedToScreen bool            `mapstructure:"constrained_to_screen" json:"constrained_to_screen,omitempty"`
	Padding             int             `mapstructure:"padding" json:"padding,omitempty"`
	Mode                NextDisplayMode `mapstructure:"mode" json:"mode,omitempty"`
}

func (WindowCommand) Kind() CommandKind { return KindWindow }

type SystemAction string

const (
	SystemNextWindow           SystemAction = "moveFocusToNextWindow"
	SystemPreviousWindow       SystemAction = "moveFocusToPreviousWindow"
	SystemNextWindowGlobal     SystemAction = "moveFocusToNextWindowGlobal"
	SystemPreviousWindowGlobal SystemAction = "moveFocusToPreviousWindowGlobal"
	SystemNextWindowFront      SystemAction = "moveFocusToNextWindowFront"
	SystemPreviousWindowFront  SystemAction = "moveFocusToPreviousWindowFront"
	SystemShowDesktop          SystemAction = "showDesktop"
	SystemApplicationWindows   SystemAction = "applicationWindows"
	SystemMissionControl       SystemAction = "missionControl"
)

// SystemCommand performs focus cycling and Mission Control actions.
type SystemCommand struct {
	CommandMeta `mapstructure:",squash"`
	Action      SystemAction `mapstructure:"action" json:"action"`
}

func (SystemCommand) Kind() CommandKind { return KindSystem }

// MenuBarCommand clicks a menu item path in an application.
type MenuBarCommand struct {
	CommandMeta `mapstructure:",squash"`
	Application *Application `mapstructure:"application" json:"application,omitempty"`
	Tokens      []string     `mapstructure:"menu" json:"menu"`
}

func (MenuBarCommand) Kind() CommandKind { return KindMenuBar }

// ShortcutCommand runs a named Shortcuts-app shortcut.
type ShortcutCommand struct {
	CommandMeta        `mapstructure:",squash"`
	ShortcutIdentifier string `mapstructure:"shortcut" json:"shortcut"`
}

func (ShortcutCommand) Kind() CommandKind { return KindShortcut }

type BuiltInAction string

const (
	BuiltInQuickRun            BuiltInAction = "quickRun"
	BuiltInRecordSequence      BuiltInAction = "recordSequence"
	BuiltInRepeatLastKeystroke BuiltInAction = "repeatLastKeystroke"
	BuiltInEnable              BuiltInAction = "enable"
	BuiltInDisable             BuiltInAction = "disable"
	BuiltInToggle              BuiltInAction = "toggle"
)

// BuiltInCommand is a meta-action handled by the engine itself.
type BuiltInCommand struct {
	CommandMeta `mapstructure:",squash"`
	Action      BuiltInAction `mapstructure:"action" json:"action"`
}

func (BuiltInCommand) Kind() CommandKind { return KindBuiltIn }

// ReEnables reports whether the command can turn a disabled engine back on.
func (c BuiltInCommand) ReEnables() bool {
	return c.Action == BuiltInEnable || c.Action == BuiltInToggle
}
