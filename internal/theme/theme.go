// Package theme holds the colour palettes used by the lazydiff TUI.
package theme

import (
	"sort"

	"github.com/charmbracelet/lipgloss"

	"github.com/chmouel/lazydiff/internal/models"
)

// Theme is a palette. Status colours are derived from it.
type Theme struct {
	Name      string
	Accent    lipgloss.Color
	AccentFg  lipgloss.Color // text drawn on Accent
	AccentDim lipgloss.Color
	Border    lipgloss.Color
	MutedFg   lipgloss.Color
	TextFg    lipgloss.Color
	SuccessFg lipgloss.Color
	WarnFg    lipgloss.Color
	ErrorFg   lipgloss.Color
	Cyan      lipgloss.Color
	Pink      lipgloss.Color
	Light     bool
}

// Theme names.
const (
	DraculaName     = "dracula"
	NarnaName       = "narna"
	NordName        = "nord"
	GruvboxDarkName = "gruvbox-dark"
	CleanLightName  = "clean-light"
)

var palettes = map[string]func() *Theme{
	DraculaName: func() *Theme {
		return &Theme{
			Name:      DraculaName,
			Accent:    lipgloss.Color("#BD93F9"),
			AccentFg:  lipgloss.Color("#282A36"),
			AccentDim: lipgloss.Color("#44475A"),
			Border:    lipgloss.Color("#6272A4"),
			MutedFg:   lipgloss.Color("#6272A4"),
			TextFg:    lipgloss.Color("#F8F8F2"),
			SuccessFg: lipgloss.Color("#50FA7B"),
			WarnFg:    lipgloss.Color("#FFB86C"),
			ErrorFg:   lipgloss.Color("#FF5555"),
			Cyan:      lipgloss.Color("#8BE9FD"),
			Pink:      lipgloss.Color("#FF79C6"),
		}
	},
	NarnaName: func() *Theme {
		return &Theme{
			Name:      NarnaName,
			Accent:    lipgloss.Color("#41ADFF"),
			AccentFg:  lipgloss.Color("#0D1117"),
			AccentDim: lipgloss.Color("#1A2230"),
			Border:    lipgloss.Color("#30363D"),
			MutedFg:   lipgloss.Color("#8B949E"),
			TextFg:    lipgloss.Color("#E6EDF3"),
			SuccessFg: lipgloss.Color("#3FB950"),
			WarnFg:    lipgloss.Color("#E3B341"),
			ErrorFg:   lipgloss.Color("#F47067"),
			Cyan:      lipgloss.Color("#7CE0F3"),
			Pink:      lipgloss.Color("#D2A8FF"),
		}
	},
	NordName: func() *Theme {
		return &Theme{
			Name:      NordName,
			Accent:    lipgloss.Color("#88C0D0"),
			AccentFg:  lipgloss.Color("#2E3440"),
			AccentDim: lipgloss.Color("#3B4252"),
			Border:    lipgloss.Color("#4C566A"),
			MutedFg:   lipgloss.Color("#616E88"),
			TextFg:    lipgloss.Color("#ECEFF4"),
			SuccessFg: lipgloss.Color("#A3BE8C"),
			WarnFg:    lipgloss.Color("#D08770"),
			ErrorFg:   lipgloss.Color("#BF616A"),
			Cyan:      lipgloss.Color("#8FBCBB"),
			Pink:      lipgloss.Color("#B48EAD"),
		}
	},
	GruvboxDarkName: func() *Theme {
		return &Theme{
			Name:      GruvboxDarkName,
			Accent:    lipgloss.Color("#FABD2F"),
			AccentFg:  lipgloss.Color("#282828"),
			AccentDim: lipgloss.Color("#3C3836"),
			Border:    lipgloss.Color("#504945"),
			MutedFg:   lipgloss.Color("#928374"),
			TextFg:    lipgloss.Color("#EBDBB2"),
			SuccessFg: lipgloss.Color("#B8BB26"),
			WarnFg:    lipgloss.Color("#FE8019"),
			ErrorFg:   lipgloss.Color("#FB4934"),
			Cyan:      lipgloss.Color("#8EC07C"),
			Pink:      lipgloss.Color("#D3869B"),
		}
	},
	CleanLightName: func() *Theme {
		return &Theme{
			Name:      CleanLightName,
			Accent:    lipgloss.Color("#c6dbe5"),
			AccentFg:  lipgloss.Color("#24292F"),
			AccentDim: lipgloss.Color("#DDF4FF"),
			Border:    lipgloss.Color("#D0D7DE"),
			MutedFg:   lipgloss.Color("#6E7781"),
			TextFg:    lipgloss.Color("#24292F"),
			SuccessFg: lipgloss.Color("#1A7F37"),
			WarnFg:    lipgloss.Color("#9A6700"),
			ErrorFg:   lipgloss.Color("#CF222E"),
			Cyan:      lipgloss.Color("#0598BC"),
			Pink:      lipgloss.Color("#BF3989"),
			Light:     true,
		}
	},
}

// GetTheme returns a theme by name, or the default dark theme if unknown.
func GetTheme(name string) *Theme {
	if build, ok := palettes[name]; ok {
		return build()
	}
	return palettes[DraculaName]()
}

// Normalize returns name if it is a known theme, "" otherwise.
func Normalize(name string) string {
	if _, ok := palettes[name]; ok {
		return name
	}
	return ""
}

// Detect picks a default theme from the terminal background.
func Detect() string {
	if lipgloss.HasDarkBackground() {
		return DraculaName
	}
	return CleanLightName
}

// AvailableThemes returns the known theme names, sorted.
func AvailableThemes() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StatusColor returns the colour used to render a file status.
func (t *Theme) StatusColor(status models.FileStatus) lipgloss.Color {
	switch status {
	case models.StatusAdded:
		return t.SuccessFg
	case models.StatusModified:
		return t.WarnFg
	case models.StatusDeleted, models.StatusUnmerged:
		return t.ErrorFg
	case models.StatusRenamed, models.StatusCopied:
		return t.Cyan
	default:
		return t.MutedFg
	}
}
