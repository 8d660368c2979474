// Package theme holds the lipgloss palette and styles shared by the CLI and
// the recorder.
package theme

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const defaultThemeName = "dusk"

// Status glyphs.
const (
	IconSuccess   = "✓"
	IconError     = "✗"
	IconWarning   = "⚠"
	IconRecording = "●"
	IconPaused    = "⏸"
	IconArrow     = "›"
)

// Colors is the palette a theme is built from.
type Colors struct {
	Green     lipgloss.TerminalColor
	Yellow    lipgloss.TerminalColor
	Red       lipgloss.TerminalColor
	Orange    lipgloss.TerminalColor
	Cyan      lipgloss.TerminalColor
	Violet    lipgloss.TerminalColor
	LightText lipgloss.TerminalColor
	MutedText lipgloss.TerminalColor
	Border    lipgloss.TerminalColor
	KeyCap    lipgloss.TerminalColor
}

// Theme holds the pre-configured styles.
type Theme struct {
	Colors Colors

	Header lipgloss.Style
	Title  lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	Bold   lipgloss.Style
	Normal lipgloss.Style
	Muted  lipgloss.Style

	Accent    lipgloss.Style
	Highlight lipgloss.Style
	Box       lipgloss.Style

	// KeyCap renders a single key of a shortcut.
	KeyCap lipgloss.Style
}

var palettes = map[string]func() Colors{
	"dusk":     duskColors,
	"terminal": terminalColors,
}

// DefaultTheme is selected from KEYFLOW_THEME at startup.
var DefaultTheme = NewThemeWithName(os.Getenv("KEYFLOW_THEME"))

// NewThemeWithName builds a theme from a palette name, falling back to the
// default palette for unknown names.
func NewThemeWithName(name string) *Theme {
	build, ok := palettes[normalizeThemeName(name)]
	if !ok {
		build = palettes[defaultThemeName]
	}
	return newThemeFromColors(build())
}

// RenderStatus renders text with the style for status.
func RenderStatus(status, text string) string {
	switch status {
	case "success":
		return DefaultTheme.Success.Render(text)
	case "error":
		return DefaultTheme.Error.Render(text)
	case "warning":
		return DefaultTheme.Warning.Render(text)
	case "info":
		return DefaultTheme.Info.Render(text)
	default:
		return text
	}
}

// RenderShortcut renders a shortcut id such as "shift+command+D" as key caps.
func RenderShortcut(id string) string {
	id = strings.TrimSuffix(id, ":rhs")
	parts := strings.Split(id, "+")
	if strings.HasSuffix(id, "++") {
		parts = append(parts[:len(parts)-2], "+")
	}
	caps := make([]string, 0, len(parts))
	for _, p := range parts {
		caps = append(caps, DefaultTheme.KeyCap.Render(keySymbol(p)))
	}
	return strings.Join(caps, " ")
}

func keySymbol(part string) string {
	switch part {
	case "command":
		return "⌘"
	case "shift":
		return "⇧"
	case "option":
		return "⌥"
	case "control":
		return "⌃"
	case "function":
		return "fn"
	}
	return part
}

func newThemeFromColors(colors Colors) *Theme {
	return &Theme{
		Colors: colors,

		Header: lipgloss.NewStyle().Bold(true).MarginTop(1).MarginBottom(1),
		Title:  lipgloss.NewStyle().Bold(true).Underline(true).MarginBottom(1),

		Success: lipgloss.NewStyle().Foreground(colors.Green).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(colors.Red).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(colors.Yellow).Bold(true),
		Info:    lipgloss.NewStyle().Foreground(colors.Cyan).Bold(true),

		Bold:   lipgloss.NewStyle().Bold(true),
		Normal: lipgloss.NewStyle(),
		Muted:  lipgloss.NewStyle().Faint(true),

		Accent:    lipgloss.NewStyle().Foreground(colors.Violet).Bold(true),
		Highlight: lipgloss.NewStyle().Foreground(colors.Orange).Bold(true),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Border).
			Padding(1, 2),

		KeyCap: lipgloss.NewStyle().
			Foreground(colors.LightText).
			Background(colors.KeyCap).
			Padding(0, 1),
	}
}

func normalizeThemeName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	if normalized == "" {
		return defaultThemeName
	}
	return normalized
}

func duskColors() Colors {
	return Colors{
		Green:     lipgloss.AdaptiveColor{Light: "#3F7D4E", Dark: "#9CCB7A"},
		Yellow:    lipgloss.AdaptiveColor{Light: "#9A7B2F", Dark: "#F2C36B"},
		Red:       lipgloss.AdaptiveColor{Light: "#B83A3A", Dark: "#F2777A"},
		Orange:    lipgloss.AdaptiveColor{Light: "#C0642F", Dark: "#F5A35C"},
		Cyan:      lipgloss.AdaptiveColor{Light: "#2F7A8C", Dark: "#7FC8D8"},
		Violet:    lipgloss.AdaptiveColor{Light: "#6A4C93", Dark: "#B8A1E3"},
		LightText: lipgloss.AdaptiveColor{Light: "#2A2A35", Dark: "#E4E1D6"},
		MutedText: lipgloss.AdaptiveColor{Light: "#70707E", Dark: "#80808E"},
		Border:    lipgloss.AdaptiveColor{Light: "#C2C4CC", Dark: "#3A3A4A"},
		KeyCap:    lipgloss.AdaptiveColor{Light: "#E3E4EA", Dark: "#2C2C3A"},
	}
}

func terminalColors() Colors {
	return Colors{
		Green:     lipgloss.Color("2"),
		Yellow:    lipgloss.Color("3"),
		Red:       lipgloss.Color("1"),
		Orange:    lipgloss.Color("208"),
		Cyan:      lipgloss.Color("6"),
		Violet:    lipgloss.Color("5"),
		LightText: lipgloss.Color("7"),
		MutedText: lipgloss.Color("8"),
		Border:    lipgloss.Color("8"),
		KeyCap:    lipgloss.Color("0"),
	}
}
