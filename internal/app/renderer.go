package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/chmouel/lazydiff/internal/app/screen"
)

// View renders the active screen for the Bubble Tea program.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	// Wait for window size before rendering full UI
	if m.windowWidth == 0 || m.windowHeight == 0 {
		return "Loading..."
	}

	layout := m.computeLayout()
	m.applyLayout(layout)

	header := m.renderHeader(layout)
	footer := m.renderFooter(layout)
	body := m.renderBody(layout)

	maxBodyLines := m.windowHeight - layout.headerHeight - layout.footerHeight - layout.filterHeight
	body = truncateToHeight(body, maxBodyLines)

	sections := []string{header}
	if layout.filterHeight > 0 {
		sections = append(sections, m.renderFilter(layout))
	}
	sections = append(sections, body, footer)

	baseView := lipgloss.JoinVertical(lipgloss.Left, sections...)

	if !m.screens.IsActive() {
		return baseView
	}
	scr := m.screens.Current()
	switch scr.Type() {
	case screen.TypeDiff:
		if ds, ok := scr.(*screen.DiffScreen); ok {
			ds.Resize(m.windowWidth, m.windowHeight)
		}
		return m.overlayPopup(baseView, scr.View(), 1)
	case screen.TypeHelp:
		return m.overlayPopup(baseView, scr.View(), 2)
	default:
		return m.overlayPopup(baseView, scr.View(), 3)
	}
}

// overlayPopup overlays a popup on top of the base view, preserving
// the portions of the base that fall outside the popup bounds so that
// underlying box borders remain visible.
func (m *Model) overlayPopup(base, popup string, marginTop int) string {
	if base == "" || popup == "" {
		return base
	}

	baseLines := strings.Split(base, "\n")
	popupLines := strings.Split(popup, "\n")

	baseWidth := lipgloss.Width(baseLines[0])
	popupWidth := lipgloss.Width(popupLines[0])

	leftPad := max((baseWidth-popupWidth)/2, 0)

	for i, line := range popupLines {
		row := marginTop + i
		if row >= len(baseLines) {
			break
		}

		// ANSI-aware truncation keeps the base borders intact.
		leftPart := ansi.Truncate(baseLines[row], leftPad, "")
		if w := lipgloss.Width(leftPart); w < leftPad {
			leftPart += strings.Repeat(" ", leftPad-w)
		}
		rightPart := ansi.TruncateLeft(baseLines[row], leftPad+popupWidth, "")

		newLine := leftPart + line + rightPart
		if w := lipgloss.Width(newLine); w < baseWidth {
			newLine += strings.Repeat(" ", baseWidth-w)
		}
		baseLines[row] = newLine
	}

	return strings.Join(baseLines, "\n")
}

// truncateToHeight ensures output doesn't exceed maxLines.
func truncateToHeight(s string, maxLines int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > maxLines {
		lines = lines[:max(maxLines, 0)]
	}
	return strings.Join(lines, "\n")
}
