package screen

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chmouel/lazydiff/internal/theme"
)

const helpText = `Lazydiff Help

**Branch picker**
- j / k: Move through branches
- s: Use branch as source (the side with the changes)
- t: Use branch as target (the base)
- Enter: Open the diff of target..source
- Tab / Shift+Tab: Switch between open diffs
- r: Reload branches
- q: Quit

**Diff view**
- j / k: Move in the focused pane
- Tab: Switch between files and commits
- Enter: Toggle a directory, or diff the file against the target
- /: Filter files by path (space separated terms)
- t: Group by directory (tree / list)
- E / C: Expand / collapse all directories
- S: Toggle sort order
- o: Show the file location in the work tree
- r: Collect the diff again
- n: Back to the branch picker for a new diff
- x: Close this diff
- : or Ctrl+P: Command palette

**Commit pane**
- Space: Select / unselect a commit
- d: Diff against target
- D: Diff the two selected commits
- ] / [: Diff the selected commit against the next / previous one
- } / {: Diff the selected commit against the newest / oldest one

**Diff viewer**
- j / k, Ctrl+D / Ctrl+U: Scroll
- q / Esc: Close`

// HelpScreen shows the key bindings.
type HelpScreen struct {
	Viewport viewport.Model
	Thm      *theme.Theme
}

// NewHelpScreen sizes the help for the window.
func NewHelpScreen(width, height int, thm *theme.Theme) *HelpScreen {
	s := &HelpScreen{Thm: thm}
	s.Viewport = viewport.New(max(40, min(80, width-10)), max(8, height-8))
	s.Viewport.SetContent(s.render())
	return s
}

func (s *HelpScreen) render() string {
	title := lipgloss.NewStyle().Foreground(s.Thm.Accent).Bold(true)
	section := lipgloss.NewStyle().Foreground(s.Thm.Cyan).Bold(true)
	text := lipgloss.NewStyle().Foreground(s.Thm.TextFg)

	lines := strings.Split(helpText, "\n")
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		switch {
		case i == 0:
			out = append(out, title.Render(line))
		case strings.HasPrefix(line, "**"):
			out = append(out, section.Render(strings.Trim(line, "*")))
		default:
			out = append(out, text.Render(line))
		}
	}
	return strings.Join(out, "\n")
}

// Type returns the screen type.
func (s *HelpScreen) Type() Type {
	return TypeHelp
}

// Update scrolls the help and closes it on q, esc or ?.
func (s *HelpScreen) Update(msg tea.KeyMsg) (Screen, tea.Cmd) {
	switch msg.String() {
	case keyQ, keyEsc, keyEscRaw, keyCtrlC, "?":
		return nil, nil
	case "j", keyDown:
		s.Viewport.ScrollDown(1)
	case "k", keyUp:
		s.Viewport.ScrollUp(1)
	case keyCtrlD:
		s.Viewport.HalfPageDown()
	case keyCtrlU:
		s.Viewport.HalfPageUp()
	}
	return s, nil
}

// View renders the help box.
func (s *HelpScreen) View() string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.Thm.Accent).
		Padding(0, 1).
		Render(s.Viewport.View())
}
