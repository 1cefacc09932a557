package screen

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/chmouel/lazydiff/internal/theme"
)

// PaletteItem is one row of the command palette.
type PaletteItem struct {
	ID          string
	Label       string
	Description string
	Shortcut    string
	Icon        string
	IsSection   bool // non-selectable header
	Disabled    bool // action not available right now
	Checked     bool // toggle currently on
}

func (it PaletteItem) selectable() bool {
	return !it.IsSection && !it.Disabled
}

// CommandPaletteScreen lists the session actions with a fuzzy filter.
type CommandPaletteScreen struct {
	Items        []PaletteItem
	Filtered     []PaletteItem
	FilterInput  textinput.Model
	Cursor       int
	ScrollOffset int
	Width        int
	Height       int
	ShowIcons    bool
	Thm          *theme.Theme

	OnSelect func(actionID string) tea.Cmd
}

// NewCommandPaletteScreen builds a palette sized for the window.
func NewCommandPaletteScreen(items []PaletteItem, maxWidth, maxHeight int, thm *theme.Theme) *CommandPaletteScreen {
	width := max(50, min(100, maxWidth*4/5))

	ti := textinput.New()
	ti.Placeholder = "Type a command..."
	ti.CharLimit = 100
	ti.Prompt = "> "
	ti.Focus()
	ti.Width = width - 4

	s := &CommandPaletteScreen{
		Items:       items,
		Filtered:    items,
		FilterInput: ti,
		Width:       width,
		Height:      maxHeight,
		Thm:         thm,
	}
	s.Cursor = s.firstSelectable()
	return s
}

// Type returns the screen type.
func (s *CommandPaletteScreen) Type() Type {
	return TypePalette
}

func (s *CommandPaletteScreen) firstSelectable() int {
	for i, item := range s.Filtered {
		if item.selectable() {
			return i
		}
	}
	return 0
}

func (s *CommandPaletteScreen) maxVisible() int {
	if s.Height == 0 {
		return 12
	}
	return max(5, min(20, s.Height-6))
}

func (s *CommandPaletteScreen) move(delta int) {
	for i := s.Cursor + delta; i >= 0 && i < len(s.Filtered); i += delta {
		if s.Filtered[i].selectable() {
			s.Cursor = i
			break
		}
	}
	visible := s.maxVisible()
	if s.Cursor < s.ScrollOffset {
		s.ScrollOffset = s.Cursor
	}
	if s.Cursor >= s.ScrollOffset+visible {
		s.ScrollOffset = s.Cursor - visible + 1
	}
}

// Selected returns the item under the cursor.
func (s *CommandPaletteScreen) Selected() (PaletteItem, bool) {
	if s.Cursor < 0 || s.Cursor >= len(s.Filtered) || !s.Filtered[s.Cursor].selectable() {
		return PaletteItem{}, false
	}
	return s.Filtered[s.Cursor], true
}

// Update handles navigation, filtering and selection.
func (s *CommandPaletteScreen) Update(msg tea.KeyMsg) (Screen, tea.Cmd) {
	switch msg.String() {
	case keyEsc, keyEscRaw, keyCtrlC:
		return nil, nil
	case keyEnter:
		item, ok := s.Selected()
		if !ok {
			return s, nil
		}
		if s.OnSelect != nil {
			return nil, s.OnSelect(item.ID)
		}
		return nil, nil
	case keyUp, keyCtrlK:
		s.move(-1)
		return s, nil
	case keyDown, keyCtrlJ:
		s.move(1)
		return s, nil
	}

	var cmd tea.Cmd
	s.FilterInput, cmd = s.FilterInput.Update(msg)
	s.applyFilter()
	return s, cmd
}

// fuzzyMatch reports whether every rune of query appears in text in order.
func fuzzyMatch(text, query string) bool {
	pos := 0
	for _, ch := range query {
		idx := strings.IndexRune(text[pos:], ch)
		if idx == -1 {
			return false
		}
		pos += idx + len(string(ch))
	}
	return true
}

func (s *CommandPaletteScreen) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(s.FilterInput.Value()))
	if query == "" {
		s.Filtered = s.Items
	} else {
		s.Filtered = make([]PaletteItem, 0, len(s.Items))
		var section *PaletteItem
		for i := range s.Items {
			item := s.Items[i]
			if item.IsSection {
				section = &s.Items[i]
				continue
			}
			if !fuzzyMatch(strings.ToLower(item.Label+" "+item.Description), query) {
				continue
			}
			// Sections are only kept when something below them matches.
			if section != nil {
				s.Filtered = append(s.Filtered, *section)
				section = nil
			}
			s.Filtered = append(s.Filtered, item)
		}
	}
	s.Cursor = s.firstSelectable()
	s.ScrollOffset = 0
}

// View renders the palette.
func (s *CommandPaletteScreen) View() string {
	width := s.Width
	if width == 0 {
		width = 100
	}
	inner := width - 2

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.Thm.Accent).
		Width(width)
	rowStyle := lipgloss.NewStyle().Padding(0, 1).Width(inner)
	selectedStyle := rowStyle.
		Background(s.Thm.Accent).
		Foreground(s.Thm.AccentFg).
		Bold(true)
	disabledStyle := rowStyle.Foreground(s.Thm.MutedFg)
	sectionStyle := rowStyle.Foreground(s.Thm.Accent).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(s.Thm.MutedFg)
	keyStyle := lipgloss.NewStyle().Foreground(s.Thm.Cyan)

	var rows []string
	end := min(len(s.Filtered), s.ScrollOffset+s.maxVisible())
	for i := s.ScrollOffset; i < end; i++ {
		it := s.Filtered[i]
		if it.IsSection {
			rows = append(rows, sectionStyle.Render("── "+it.Label+" ──"))
			continue
		}

		mark := "  "
		if it.Checked {
			mark = "✓ "
		}
		label := it.Label
		if s.ShowIcons && it.Icon != "" {
			label = it.Icon + " " + label
		}
		label = fmt.Sprintf("%-28s", truncate.StringWithTail(label, 28, "…"))
		shortcut := fmt.Sprintf("%-3s", it.Shortcut)

		switch {
		case i == s.Cursor && it.selectable():
			rows = append(rows, selectedStyle.Render(mark+label+" "+shortcut+" "+it.Description))
		case it.Disabled:
			rows = append(rows, disabledStyle.Render(mark+label+" "+shortcut+" "+it.Description))
		default:
			rows = append(rows, rowStyle.Render(mark+label+" "+keyStyle.Render(shortcut)+" "+descStyle.Render(it.Description)))
		}
	}
	if len(s.Filtered) == 0 {
		rows = append(rows, rowStyle.Foreground(s.Thm.MutedFg).Italic(true).Render("No commands match your filter."))
	}

	separator := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(s.Thm.Border).
		Width(inner).
		Render("")
	footer := lipgloss.NewStyle().
		Foreground(s.Thm.MutedFg).
		Align(lipgloss.Right).
		Width(inner).
		Render("↑/↓ move • Enter run • Esc close")

	content := lipgloss.JoinVertical(lipgloss.Left,
		rowStyle.Foreground(s.Thm.TextFg).Render(s.FilterInput.View()),
		separator,
		strings.Join(rows, "\n"),
		footer,
	)
	return boxStyle.Render(content)
}
