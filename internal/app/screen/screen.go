// Package screen provides the modal overlays of the lazydiff TUI.
package screen

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Screen is a modal overlay that handles its own keys and renders itself.
type Screen interface {
	// Update processes a key message and returns the updated screen and any command.
	// Returning nil for the Screen signals that this screen should be closed.
	Update(msg tea.KeyMsg) (Screen, tea.Cmd)

	// View renders the screen's content.
	View() string

	// Type returns the screen's type identifier.
	Type() Type
}

// Type identifies the kind of screen being displayed.
type Type int

// Screen type constants.
const (
	TypeNone Type = iota
	TypeInfo
	TypeHelp
	TypePalette
	TypeDiff
)

// String returns a human-readable name for the screen type.
func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeInfo:
		return "info"
	case TypeHelp:
		return "help"
	case TypePalette:
		return "palette"
	case TypeDiff:
		return "diff"
	default:
		return "unknown"
	}
}

const (
	keyEnter  = "enter"
	keyEsc    = "esc"
	keyEscRaw = "\x1b" // raw escape byte for terminals that send ESC as a rune
	keyQ      = "q"
	keyCtrlC  = "ctrl+c"
	keyCtrlD  = "ctrl+d"
	keyCtrlU  = "ctrl+u"
	keyCtrlJ  = "ctrl+j"
	keyCtrlK  = "ctrl+k"
	keyDown   = "down"
	keyUp     = "up"
)
