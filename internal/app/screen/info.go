package screen

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chmouel/lazydiff/internal/theme"
)

// InfoScreen shows a message until it is dismissed.
type InfoScreen struct {
	Title   string
	Message string
	IsError bool
	Thm     *theme.Theme

	OnClose func() tea.Cmd
}

// NewInfoScreen creates an informational modal.
func NewInfoScreen(title, message string, thm *theme.Theme) *InfoScreen {
	return &InfoScreen{Title: title, Message: message, Thm: thm}
}

// NewErrorScreen creates a modal reporting an error.
func NewErrorScreen(title string, err error, thm *theme.Theme) *InfoScreen {
	s := NewInfoScreen(title, err.Error(), thm)
	s.IsError = true
	return s
}

// Type returns the screen type.
func (s *InfoScreen) Type() Type {
	return TypeInfo
}

// Update closes the dialog on enter, esc or q.
func (s *InfoScreen) Update(msg tea.KeyMsg) (Screen, tea.Cmd) {
	switch msg.String() {
	case keyEnter, keyEsc, keyEscRaw, keyQ, keyCtrlC:
		if s.OnClose != nil {
			return nil, s.OnClose()
		}
		return nil, nil
	}
	return s, nil
}

// View renders the dialog box with a single OK button.
func (s *InfoScreen) View() string {
	width := 64
	accent := s.Thm.Accent
	if s.IsError {
		accent = s.Thm.ErrorFg
	}

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(1, 2).
		Width(width)
	titleStyle := lipgloss.NewStyle().Foreground(accent).Bold(true)
	messageStyle := lipgloss.NewStyle().
		Width(width - 4).
		Foreground(s.Thm.TextFg)
	okStyle := lipgloss.NewStyle().
		Width(width-6).
		Align(lipgloss.Center).
		Foreground(s.Thm.AccentFg).
		Background(accent).
		Bold(true)

	parts := []string{}
	if s.Title != "" {
		parts = append(parts, titleStyle.Render(s.Title), "")
	}
	parts = append(parts, messageStyle.Render(s.Message), "", okStyle.Render("[OK]"))
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}
