package screen

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chmouel/lazydiff/internal/difftool"
	"github.com/chmouel/lazydiff/internal/theme"
)

// DiffScreen shows a built-in diff in a scrollable viewport.
type DiffScreen struct {
	Result   difftool.Result
	Viewport viewport.Model
	Thm      *theme.Theme
}

// NewDiffScreen renders result into a viewport of the given size.
func NewDiffScreen(result difftool.Result, width, height int, thm *theme.Theme) *DiffScreen {
	s := &DiffScreen{Result: result, Thm: thm}
	s.Viewport = viewport.New(width, height)
	s.Resize(width, height)
	return s
}

// Type returns the screen type.
func (s *DiffScreen) Type() Type {
	return TypeDiff
}

// Resize fits the viewport to the window.
func (s *DiffScreen) Resize(width, height int) {
	s.Viewport.Width = max(20, width*19/20-4)
	s.Viewport.Height = max(5, height*17/20-4)
	s.Viewport.SetContent(s.content())
}

func (s *DiffScreen) content() string {
	added := lipgloss.NewStyle().Foreground(s.Thm.SuccessFg)
	removed := lipgloss.NewStyle().Foreground(s.Thm.ErrorFg)
	equal := lipgloss.NewStyle().Foreground(s.Thm.TextFg)

	if len(s.Result.Lines) == 0 {
		return lipgloss.NewStyle().Foreground(s.Thm.MutedFg).Italic(true).Render("Both revisions are identical.")
	}
	lines := make([]string, 0, len(s.Result.Lines))
	for _, l := range s.Result.Lines {
		text := l.Kind.Prefix() + l.Text
		switch l.Kind {
		case difftool.LineAdded:
			lines = append(lines, added.Render(text))
		case difftool.LineRemoved:
			lines = append(lines, removed.Render(text))
		default:
			lines = append(lines, equal.Render(text))
		}
	}
	return strings.Join(lines, "\n")
}

// Update scrolls the viewport and closes on q or esc.
func (s *DiffScreen) Update(msg tea.KeyMsg) (Screen, tea.Cmd) {
	switch msg.String() {
	case keyQ, keyEsc, keyEscRaw, keyCtrlC:
		return nil, nil
	case "j", keyDown:
		s.Viewport.ScrollDown(1)
	case "k", keyUp:
		s.Viewport.ScrollUp(1)
	case keyCtrlD, " ", "pgdown":
		s.Viewport.HalfPageDown()
	case keyCtrlU, "pgup":
		s.Viewport.HalfPageUp()
	case "g", "home":
		s.Viewport.GotoTop()
	case "G", "end":
		s.Viewport.GotoBottom()
	}
	return s, nil
}

// View renders the viewer box.
func (s *DiffScreen) View() string {
	plus, minus := difftool.Stats(s.Result.Lines)
	title := lipgloss.NewStyle().Foreground(s.Thm.Accent).Bold(true).Render(s.Result.Path)
	revs := lipgloss.NewStyle().Foreground(s.Thm.MutedFg).Render(
		fmt.Sprintf("%s → %s", s.Result.Left.Revision, s.Result.Right.Revision))
	stats := lipgloss.NewStyle().Foreground(s.Thm.SuccessFg).Render(fmt.Sprintf("+%d", plus)) + " " +
		lipgloss.NewStyle().Foreground(s.Thm.ErrorFg).Render(fmt.Sprintf("-%d", minus))
	footer := lipgloss.NewStyle().Foreground(s.Thm.MutedFg).Render(
		fmt.Sprintf("%3.f%% • j/k scroll • Ctrl+D/U page • q close", s.Viewport.ScrollPercent()*100))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.Thm.Accent).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			title+"  "+revs+"  "+stats,
			s.Viewport.View(),
			footer,
		))
}
