package app

import (
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	devicons "github.com/epilande/go-devicons"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wrap"

	"github.com/chmouel/lazydiff/internal/models"
	"github.com/chmouel/lazydiff/internal/tab"
	"github.com/chmouel/lazydiff/internal/tree"
)

const commitDateLayout = "2006-01-02 15:04"

// refreshBranchTable rebuilds the branch rows; the S and T marks flag the
// picked source and target.
func (m *Model) refreshBranchTable() {
	source, target := m.picker.Source(), m.picker.Target()
	branches := m.picker.Branches()
	rows := make([]table.Row, 0, len(branches))
	for _, b := range branches {
		mark := ""
		if b.Name == source.Name {
			mark += "S"
		}
		if b.Name == target.Name {
			mark += "T"
		}
		rows = append(rows, table.Row{mark, b.Name, b.Revision})
	}
	cursor := m.branchTable.Cursor()
	m.branchTable.SetRows(rows)
	if len(rows) > 0 && cursor >= len(rows) {
		m.branchTable.SetCursor(len(rows) - 1)
	}
}

// refreshCommitTable fills the commit table with the history of the selected
// file. The cursor goes back to the top when the file changes.
func (m *Model) refreshCommitTable() {
	ctl := m.activeTab()
	if ctl == nil {
		m.commitTable.SetRows(nil)
		m.commitPath = ""
		return
	}
	item, ok := ctl.SelectedItem()
	if !ok {
		m.commitTable.SetRows(nil)
		m.commitPath = ""
		return
	}

	selected := make(map[string]bool)
	for _, c := range ctl.SelectedCommits() {
		selected[c.Revision] = true
	}
	rows := make([]table.Row, 0, len(item.Commits))
	for _, c := range item.Commits {
		mark := ""
		if selected[c.Revision] {
			mark = "●"
		}
		date := "-"
		if !c.Date.IsZero() {
			date = c.Date.Format(commitDateLayout)
		}
		rows = append(rows, table.Row{mark, c.Revision, date, c.Author, c.Message})
	}

	cursor := m.commitTable.Cursor()
	m.commitTable.SetRows(rows)
	switch {
	case item.Path != m.commitPath:
		m.commitPath = item.Path
		m.commitTable.SetCursor(0)
	case cursor >= len(rows):
		m.commitTable.SetCursor(len(rows) - 1)
	}
}

// renderBody renders the panes of the current view.
func (m *Model) renderBody(layout layoutDims) string {
	var left, rightTop, rightBottom string
	if m.view == viewDiff && m.activeTab() != nil {
		ctl := m.activeTab()
		m.branchTable.Blur()
		if m.focus == paneCommits {
			m.commitTable.Focus()
		} else {
			m.commitTable.Blur()
		}
		left = m.renderFilesPane(ctl, layout)
		rightTop = m.renderDetailsPane(ctl, layout)
		rightBottom = m.renderCommitsPane(layout)
	} else {
		m.branchTable.Focus()
		left = m.renderBranchPane(layout)
		rightTop = m.renderSelectionPane(layout)
		rightBottom = m.renderSessionsPane(layout)
	}

	parts := []string{rightTop}
	for range layout.gapY {
		parts = append(parts, "")
	}
	right := lipgloss.JoinVertical(lipgloss.Left, append(parts, rightBottom)...)
	gapX := strings.Repeat(" ", layout.gapX)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, gapX, right)
}

func (m *Model) renderBranchPane(layout layoutDims) string {
	title := m.renderPaneTitle(1, fmt.Sprintf("Branches (%d)", len(m.picker.Branches())), true, layout.leftInnerWidth)
	content := m.branchTable.View()
	if !m.branchesReady {
		content = lipgloss.NewStyle().Foreground(m.theme.MutedFg).Render("Loading branches...")
	}
	return m.paneStyle(true).
		Width(layout.leftInnerWidth).
		Height(layout.leftInnerHeight).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m *Model) renderSelectionPane(layout layoutDims) string {
	label := lipgloss.NewStyle().Foreground(m.theme.MutedFg).Width(8)
	value := lipgloss.NewStyle().Foreground(m.theme.TextFg).Bold(true)
	missing := lipgloss.NewStyle().Foreground(m.theme.WarnFg).Italic(true)

	describe := func(b models.Branch) string {
		if !b.IsValid() {
			return missing.Render("not picked")
		}
		return value.Render(b.Name) + " " + lipgloss.NewStyle().Foreground(m.theme.MutedFg).Render(b.Revision)
	}

	lines := []string{
		label.Render("Source") + describe(m.picker.Source()),
		label.Render("Target") + describe(m.picker.Target()),
		"",
	}
	if m.picker.CanOpen() {
		lines = append(lines, lipgloss.NewStyle().Foreground(m.theme.SuccessFg).Render(
			fmt.Sprintf("Enter opens %s..%s", m.picker.Target().Name, m.picker.Source().Name)))
	} else {
		lines = append(lines, lipgloss.NewStyle().Foreground(m.theme.MutedFg).Render(
			"s picks the source, t the target"))
	}

	return m.renderInnerBox("Diff", strings.Join(lines, "\n"), layout.rightWidth, layout.rightTopHeight)
}

func (m *Model) renderSessionsPane(layout layoutDims) string {
	list := m.sessions.List()
	if len(list) == 0 {
		return m.renderInnerBox("Open Diffs", "No open diffs.", layout.rightWidth, layout.rightBottomHeight)
	}
	lines := make([]string, 0, len(list))
	for i, s := range list {
		line := fmt.Sprintf("%d. %s", i+1, s.Value.Title())
		if s.Value.Loaded() {
			line += fmt.Sprintf("  (%d files)", len(s.Value.Items()))
		}
		style := lipgloss.NewStyle().Foreground(m.theme.TextFg)
		if s.ID == m.active {
			style = style.Foreground(m.theme.Accent).Bold(true)
		}
		lines = append(lines, style.Render(line))
	}
	return m.renderInnerBox("Open Diffs", strings.Join(lines, "\n"), layout.rightWidth, layout.rightBottomHeight)
}

func (m *Model) renderFilesPane(ctl *tab.Controller, layout layoutDims) string {
	focused := m.focus == paneFiles
	title := fmt.Sprintf("Files %d/%d  %s  %s", ctl.VisibleCount(), len(ctl.Items()), ctl.Mode(), ctl.SortMode())
	header := m.renderPaneTitle(1, title, focused, layout.leftInnerWidth)

	height := max(1, layout.leftInnerHeight-1)
	var content string
	switch {
	case !ctl.Loaded():
		content = lipgloss.NewStyle().Foreground(m.theme.MutedFg).Render("Collecting diff...")
	case len(ctl.Items()) == 0:
		content = lipgloss.NewStyle().Foreground(m.theme.MutedFg).Render("No changes between the two branches.")
	default:
		rows, idx := ctl.Rows()
		if len(rows) == 0 {
			content = lipgloss.NewStyle().Foreground(m.theme.MutedFg).Render("No files match the filter.")
		} else {
			content = m.renderFileRows(ctl, rows, idx, layout.leftInnerWidth, height, focused)
		}
	}

	return m.paneStyle(focused).
		Width(layout.leftInnerWidth).
		Height(layout.leftInnerHeight).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, content))
}

// renderFileRows renders the visible window of rows around the cursor.
func (m *Model) renderFileRows(ctl *tab.Controller, rows []tree.Row, idx, width, height int, focused bool) string {
	start := 0
	if idx >= height {
		start = idx - height + 1
	}
	end := min(len(rows), start+height)

	selectedStyle := lipgloss.NewStyle().Width(width).Bold(true).Foreground(m.theme.AccentFg).Background(m.theme.Accent)
	if !focused {
		selectedStyle = lipgloss.NewStyle().Width(width).Foreground(m.theme.TextFg).Background(m.theme.AccentDim)
	}
	dirStyle := lipgloss.NewStyle().Foreground(m.theme.Cyan).Bold(true)
	nameStyle := lipgloss.NewStyle().Foreground(m.theme.TextFg)

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		row := rows[i]
		plain, styled := m.fileRowText(ctl, row, dirStyle, nameStyle)
		if i == idx {
			lines = append(lines, selectedStyle.Render(truncate.StringWithTail(plain, uint(width), "…")))
			continue
		}
		lines = append(lines, truncate.StringWithTail(styled, uint(width), "…"))
	}
	return strings.Join(lines, "\n")
}

// fileRowText returns a row as plain text (for the highlighted row) and styled.
func (m *Model) fileRowText(ctl *tab.Controller, row tree.Row, dirStyle, nameStyle lipgloss.Style) (string, string) {
	n := row.Node
	indent := strings.Repeat("  ", row.Depth)
	icon := m.rowIcon(n)

	if n.IsDir() {
		arrow := "▸ "
		if n.Expanded {
			arrow = "▾ "
		}
		text := arrow + icon + n.Name + "/"
		return indent + text, indent + dirStyle.Render(text)
	}

	name := n.Name
	if ctl.Mode() == tab.ListMode {
		name = n.Path
	}
	code := n.Item.Status.Code()
	status := lipgloss.NewStyle().Foreground(m.theme.StatusColor(n.Item.Status)).Bold(true).Render(code)
	plain := indent + code + " " + icon + name
	styled := indent + status + " " + icon + nameStyle.Render(name)
	if m.config.IsValidForDiff(n.Path) {
		return plain, styled
	}
	// Files no diff tool can show are dimmed.
	muted := lipgloss.NewStyle().Foreground(m.theme.MutedFg)
	return plain, indent + status + " " + muted.Render(icon+name)
}

// rowIcon returns the Nerd Font glyph of a tree row followed by a space, or
// nothing when icons are off.
func (m *Model) rowIcon(n *tree.Node) string {
	if !m.config.ShowIcons || n.Name == "" {
		return ""
	}
	icon := devicons.IconForInfo(nodeInfo{n}).Icon
	if icon == "" {
		return ""
	}
	return icon + " "
}

// nodeInfo presents a tree node to the icon lookup, which only reads the
// name and the directory bit.
type nodeInfo struct{ n *tree.Node }

func (i nodeInfo) Name() string       { return i.n.Name }
func (i nodeInfo) Size() int64        { return 0 }
func (i nodeInfo) IsDir() bool        { return i.n.IsDir() }
func (i nodeInfo) ModTime() time.Time { return time.Time{} }
func (i nodeInfo) Sys() any           { return nil }

func (i nodeInfo) Mode() fs.FileMode {
	if i.n.IsDir() {
		return fs.ModeDir
	}
	return 0
}

func (m *Model) renderDetailsPane(ctl *tab.Controller, layout layoutDims) string {
	title := ctl.Title()
	item, ok := ctl.SelectedItem()
	if !ok {
		node := ctl.SelectedNode()
		content := "Select a file to see its history."
		if node != nil {
			content = fmt.Sprintf("%s/  %d files", node.Path, tree.CountFiles(node))
		}
		return m.renderInnerBox(title, content, layout.rightWidth, layout.rightTopHeight)
	}

	label := lipgloss.NewStyle().Foreground(m.theme.MutedFg).Width(13)
	value := lipgloss.NewStyle().Foreground(m.theme.TextFg)
	status := lipgloss.NewStyle().Foreground(m.theme.StatusColor(item.Status)).Bold(true)

	lastTarget := lipgloss.NewStyle().Foreground(m.theme.MutedFg).Italic(true).Render("none")
	if item.LastTargetCommit.IsValid() {
		lastTarget = value.Render(item.LastTargetCommit.Revision + " " + item.LastTargetCommit.Message)
	}
	selected := make([]string, 0, 2)
	for _, c := range ctl.SelectedCommits() {
		selected = append(selected, c.Revision)
	}

	innerWidth := max(1, layout.rightWidth-m.baseInnerBoxStyle().GetHorizontalFrameSize())
	lines := []string{
		label.Render("Path") + value.Render(wrap.String(item.Path, max(1, innerWidth-13))),
		label.Render("Status") + status.Render(item.Status.String()),
		label.Render("Target") + lastTarget,
		label.Render("Commits") + value.Render(fmt.Sprintf("%d", len(item.Commits))),
	}
	if len(selected) > 0 {
		lines = append(lines, label.Render("Selected")+value.Render(strings.Join(selected, ", ")))
	}
	return m.renderInnerBox(title, strings.Join(lines, "\n"), layout.rightWidth, layout.rightTopHeight)
}

func (m *Model) renderCommitsPane(layout layoutDims) string {
	focused := m.focus == paneCommits
	header := m.renderPaneTitle(2, "Commits", focused, layout.rightInnerWidth)
	content := m.commitTable.View()
	if len(m.commitTable.Rows()) == 0 {
		content = lipgloss.NewStyle().Foreground(m.theme.MutedFg).Render("No commits for the selection.")
	}
	return m.paneStyle(focused).
		Width(layout.rightInnerWidth).
		Height(layout.rightBottomInnerHeight).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, content))
}
