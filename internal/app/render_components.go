package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wrap"

	"github.com/chmouel/lazydiff/internal/git"
)

// renderHeader renders the application header.
func (m *Model) renderHeader(layout layoutDims) string {
	headerStyle := lipgloss.NewStyle().
		Background(m.theme.AccentDim).
		Foreground(m.theme.TextFg).
		Bold(true).
		Width(layout.width).
		Padding(0, 2).Align(lipgloss.Center)

	content := "Lazydiff"
	if m.repoKey != "" {
		content = fmt.Sprintf("%s  •  %s", content, repoName(m.repoKey))
	}
	if ctl := m.activeTab(); ctl != nil && m.view == viewDiff {
		content = fmt.Sprintf("%s  •  %s", content, ctl.Title())
	}
	if n := m.sessions.Len(); n > 1 {
		content = fmt.Sprintf("%s  •  %d diffs", content, n)
	}
	return headerStyle.Render(content)
}

// repoName strips the hash suffix of a repository key.
func repoName(key string) string {
	if i := strings.LastIndex(key, "-"); i > 0 {
		return key[:i]
	}
	return key
}

// renderFilter renders the filter input bar.
func (m *Model) renderFilter(layout layoutDims) string {
	labelStyle := lipgloss.NewStyle().
		Foreground(m.theme.AccentFg).
		Background(m.theme.Accent).
		Bold(true).
		Padding(0, 1)
	filterStyle := lipgloss.NewStyle().
		Foreground(m.theme.TextFg).
		Padding(0, 1)
	line := fmt.Sprintf("%s %s", labelStyle.Render("Filter"), m.filterInput.View())
	return filterStyle.Width(layout.width).Render(line)
}

// renderFooter renders the key hints of the current view, or the last status
// message.
func (m *Model) renderFooter(layout layoutDims) string {
	footerStyle := lipgloss.NewStyle().
		Foreground(m.theme.TextFg).
		Padding(0, 1)

	var hints []string
	switch {
	case m.showingFilter:
		hints = []string{
			m.renderKeyHint("Enter", "Keep"),
			m.renderKeyHint("Esc", "Clear"),
		}
	case m.view == viewPicker:
		hints = []string{
			m.renderKeyHint("s", "Source"),
			m.renderKeyHint("t", "Target"),
			m.renderKeyHint("Enter", "Open"),
			m.renderKeyHint("r", "Reload"),
			m.renderKeyHint("?", "Help"),
			m.renderKeyHint("q", "Quit"),
		}
		if m.sessions.Len() > 0 {
			hints = append(hints, m.renderKeyHint("Tab", "Diffs"))
		}
	case m.focus == paneCommits:
		hints = []string{
			m.renderKeyHint("Space", "Select"),
			m.renderKeyHint("d", "Target"),
			m.renderKeyHint("D", "Selected"),
			m.renderKeyHint("]/[", "Next/Prev"),
			m.renderKeyHint("}/{", "Newest/Oldest"),
			m.renderKeyHint("Tab", "Files"),
		}
	default:
		hints = []string{
			m.renderKeyHint("Enter", "Diff"),
			m.renderKeyHint("/", "Filter"),
			m.renderKeyHint("t", "Tree"),
			m.renderKeyHint("S", "Sort"),
			m.renderKeyHint(":", "Commands"),
			m.renderKeyHint("n", "New"),
			m.renderKeyHint("x", "Close"),
			m.renderKeyHint("Tab", "Commits"),
		}
	}

	content := strings.Join(hints, "  ")
	if m.status.message != "" {
		content = m.renderStatus() + "  " + content
	}

	spinnerView := ""
	if m.loading {
		spinnerView = m.spinner.View()
	}
	available := max(layout.width-lipgloss.Width(spinnerView)-2, 0)
	footer := footerStyle.Width(available).Render(truncate.StringWithTail(content, uint(max(available-2, 0)), "…"))
	return lipgloss.JoinHorizontal(lipgloss.Left, footer, " ", spinnerView)
}

func (m *Model) renderStatus() string {
	color := m.theme.MutedFg
	switch m.status.severity {
	case git.SeverityError:
		color = m.theme.ErrorFg
	case git.SeverityWarn:
		color = m.theme.WarnFg
	}
	return lipgloss.NewStyle().Foreground(color).Render(m.status.message)
}

// renderKeyHint renders a key hint as a pill followed by its label.
func (m *Model) renderKeyHint(key, label string) string {
	keyStyle := lipgloss.NewStyle().
		Foreground(m.theme.AccentFg).
		Background(m.theme.Accent).
		Bold(true).
		Padding(0, 1)
	labelStyle := lipgloss.NewStyle().Foreground(m.theme.Accent)
	return fmt.Sprintf("%s %s", keyStyle.Render(key), labelStyle.Render(label))
}

// renderPaneTitle renders a pane title with focus and filter indicators.
func (m *Model) renderPaneTitle(index int, title string, focused bool, width int) string {
	numStyle := lipgloss.NewStyle().Foreground(m.theme.MutedFg)
	titleStyle := lipgloss.NewStyle().Foreground(m.theme.MutedFg)
	if focused {
		numStyle = numStyle.Foreground(m.theme.Accent).Bold(true)
		titleStyle = titleStyle.Foreground(m.theme.TextFg).Bold(true)
	}
	num := numStyle.Render(fmt.Sprintf("[%d]", index))
	name := titleStyle.Render(title)

	filterIndicator := ""
	if ctl := m.activeTab(); index == 1 && m.view == viewDiff && ctl != nil && !m.showingFilter && ctl.SearchFilter() != "" {
		filteredStyle := lipgloss.NewStyle().Foreground(m.theme.WarnFg).Italic(true)
		filterIndicator = fmt.Sprintf("  %s %s",
			filteredStyle.Render("Filtered: "+ctl.SearchFilter()),
			m.renderKeyHint("Esc", "Clear"))
	}

	return lipgloss.NewStyle().Width(width).Render(fmt.Sprintf("%s %s%s", num, name, filterIndicator))
}

// renderInnerBox renders a bordered box with a title and wrapped content.
func (m *Model) renderInnerBox(title, content string, width, height int) string {
	if content == "" {
		content = "No data available."
	}

	titleStyle := lipgloss.NewStyle().Foreground(m.theme.MutedFg).Bold(true)

	style := m.baseInnerBoxStyle().Width(max(1, width-2))
	if height > 0 {
		style = style.Height(max(1, height-2))
	}

	innerWidth := max(1, width-style.GetHorizontalFrameSize())
	wrappedContent := wrap.String(content, innerWidth)
	boxContent := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), wrappedContent)

	return style.Render(boxContent)
}

// basePaneStyle returns the base style for panes.
func (m *Model) basePaneStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Border).
		Padding(0, 1)
}

// paneStyle returns a pane style with focus indication.
func (m *Model) paneStyle(focused bool) lipgloss.Style {
	borderColor := m.theme.Border
	borderStyle := lipgloss.NormalBorder()
	if focused {
		borderColor = m.theme.Accent
		borderStyle = lipgloss.RoundedBorder()
	}
	return lipgloss.NewStyle().
		Border(borderStyle).
		BorderForeground(borderColor).
		Padding(0, 1)
}

// baseInnerBoxStyle returns the base style for inner boxes.
func (m *Model) baseInnerBoxStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Border).
		Padding(0, 1)
}
