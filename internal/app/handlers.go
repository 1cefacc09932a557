package app

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chmouel/lazydiff/internal/app/screen"
	"github.com/chmouel/lazydiff/internal/git"
	"github.com/chmouel/lazydiff/internal/models"
	"github.com/chmouel/lazydiff/internal/picker"
	"github.com/chmouel/lazydiff/internal/tab"
)

const (
	keyEnter    = "enter"
	keyEsc      = "esc"
	keyTab      = "tab"
	keyShiftTab = "shift+tab"
	keyCtrlC    = "ctrl+c"
	keyCtrlD    = "ctrl+d"
	keyCtrlU    = "ctrl+u"
	keyCtrlP    = "ctrl+p"
	keyUp       = "up"
	keyDown     = "down"
	keySpace    = " "
)

// handleKeyMsg routes keys to the modal screen, the filter input or the
// current view.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.screens.IsActive() {
		return m, m.screens.Update(msg)
	}
	if m.showingFilter {
		return m.handleFilterKey(msg)
	}

	switch msg.String() {
	case keyCtrlC, "q":
		return m.quit()
	case "?":
		m.screens.Push(screen.NewHelpScreen(m.windowWidth, m.windowHeight, m.theme))
		return m, nil
	}

	if m.view == viewPicker {
		return m.handlePickerKey(msg)
	}
	return m.handleDiffKey(msg)
}

func (m *Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", keyDown:
		m.branchTable.MoveDown(1)
	case "k", keyUp:
		m.branchTable.MoveUp(1)
	case "g", "home":
		m.branchTable.GotoTop()
	case "G", "end":
		m.branchTable.GotoBottom()
	case "s":
		m.pickBranch(m.picker.SetSource, "source")
	case "t":
		m.pickBranch(m.picker.SetTarget, "target")
	case keyEnter:
		return m, m.openSession()
	case keyTab:
		m.cycleSession(1)
	case keyShiftTab:
		m.cycleSession(-1)
	case "r":
		m.loading = true
		return m, m.loadBranches(false)
	case keyEsc:
		if m.activeTab() != nil {
			m.view = viewDiff
		}
	}
	return m, nil
}

// pickBranch applies set to the branch under the cursor.
func (m *Model) pickBranch(set func(models.Branch) error, role string) {
	b, ok := m.cursorBranch()
	if !ok {
		return
	}
	if err := set(b); err != nil {
		m.setStatus(err.Error(), git.SeverityWarn)
	} else {
		m.setStatus(fmt.Sprintf("%s is the %s branch", b.Name, role), git.SeverityInfo)
	}
	m.refreshBranchTable()
}

func (m *Model) cursorBranch() (models.Branch, bool) {
	branches := m.picker.Branches()
	idx := m.branchTable.Cursor()
	if idx < 0 || idx >= len(branches) {
		return models.Branch{}, false
	}
	return branches[idx], true
}

// openSession opens (or reuses) the session of the picked pair.
func (m *Model) openSession() tea.Cmd {
	s, created, err := m.picker.Open()
	if err != nil {
		severity := git.SeverityError
		if errors.Is(err, picker.ErrIncomplete) {
			severity = git.SeverityWarn
		}
		m.setStatus(err.Error(), severity)
		return nil
	}
	m.showSession(s.ID)
	if !created {
		m.setStatus(fmt.Sprintf("Switched to the open diff %s", s.Value.Title()), git.SeverityInfo)
	}
	if created || !s.Value.Loaded() {
		return m.collectDiff(s)
	}
	return nil
}

func (m *Model) showSession(id string) {
	m.active = id
	m.view = viewDiff
	m.focus = paneFiles
	m.commitPath = ""
	m.refreshCommitTable()
}

// cycleSession moves to the next or previous open session.
func (m *Model) cycleSession(delta int) {
	list := m.sessions.List()
	if len(list) == 0 {
		return
	}
	idx := -1
	for i, s := range list {
		if s.ID == m.active {
			idx = i
			break
		}
	}
	next := 0
	if idx >= 0 {
		next = (idx + delta + len(list)) % len(list)
	}
	m.showSession(list[next].ID)
}

// closeSession closes the active session and shows the next one, or the picker.
func (m *Model) closeSession() {
	ctl := m.activeTab()
	if ctl == nil {
		return
	}
	title := ctl.Title()
	m.sessions.Close(m.active)
	m.active = ""
	m.setStatus(fmt.Sprintf("Closed %s", title), git.SeverityInfo)
	if list := m.sessions.List(); len(list) > 0 {
		m.showSession(list[len(list)-1].ID)
		return
	}
	m.view = viewPicker
}

func (m *Model) handleDiffKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctl := m.activeTab()
	if ctl == nil {
		m.view = viewPicker
		return m, nil
	}

	key := msg.String()
	switch key {
	case keyEsc:
		if ctl.SearchFilter() != "" {
			ctl.SetSearchFilter("")
			m.filterInput.SetValue("")
			m.refreshCommitTable()
			return m, nil
		}
		m.view = viewPicker
		return m, nil
	case keyTab, keyShiftTab:
		if m.focus == paneFiles {
			m.focus = paneCommits
		} else {
			m.focus = paneFiles
		}
		m.applyLayout(m.computeLayout())
		return m, nil
	case "j", keyDown:
		m.move(ctl, 1)
		return m, nil
	case "k", keyUp:
		m.move(ctl, -1)
		return m, nil
	case keyCtrlD:
		m.move(ctl, max(1, m.commitTable.Height()/2))
		return m, nil
	case keyCtrlU:
		m.move(ctl, -max(1, m.commitTable.Height()/2))
		return m, nil
	case keyEnter, keySpace:
		return m, m.activate(ctl, key)
	case "/":
		m.showingFilter = true
		m.filterInput.SetValue(ctl.SearchFilter())
		m.filterInput.CursorEnd()
		m.filterInput.Focus()
		return m, nil
	case "S":
		ctl.ToggleSortMode()
		m.setStatus(fmt.Sprintf("Sorted %s", ctl.SortMode()), git.SeverityInfo)
		return m, nil
	case ":", keyCtrlP:
		m.showPalette(ctl)
		return m, nil
	case "x":
		m.closeSession()
		return m, nil
	case "r":
		s, ok := m.sessions.Get(m.active)
		if !ok {
			return m, nil
		}
		return m, m.collectDiff(s)
	}

	if action, ok := ctl.Commands().ByShortcut(key); ok {
		return m, m.executeCommand(action.ID)
	}
	return m, nil
}

// move moves the cursor of the focused pane.
func (m *Model) move(ctl *tab.Controller, delta int) {
	if m.focus == paneCommits {
		if delta > 0 {
			m.commitTable.MoveDown(delta)
		} else {
			m.commitTable.MoveUp(-delta)
		}
		return
	}
	ctl.Move(delta)
	m.refreshCommitTable()
}

// activate handles enter and space: directories toggle, files diff against
// the target, commits toggle their selection.
func (m *Model) activate(ctl *tab.Controller, key string) tea.Cmd {
	if m.focus == paneCommits {
		if c, ok := m.cursorCommit(); ok {
			ctl.ToggleCommit(c.Revision)
			m.refreshCommitTable()
		}
		return nil
	}
	node := ctl.SelectedNode()
	if node == nil {
		return nil
	}
	if node.IsDir() {
		ctl.ToggleExpanded()
		return nil
	}
	if key == keySpace {
		return nil
	}
	return m.executeCommand(tab.CmdDiffAgainstTarget)
}

func (m *Model) cursorCommit() (models.Commit, bool) {
	ctl := m.activeTab()
	if ctl == nil {
		return models.Commit{}, false
	}
	item, ok := ctl.SelectedItem()
	if !ok {
		return models.Commit{}, false
	}
	idx := m.commitTable.Cursor()
	if idx < 0 || idx >= len(item.Commits) {
		return models.Commit{}, false
	}
	return item.Commits[idx], true
}

func (m *Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctl := m.activeTab()
	switch msg.String() {
	case keyEnter:
		m.showingFilter = false
		m.filterInput.Blur()
		return m, nil
	case keyEsc, keyCtrlC:
		m.showingFilter = false
		m.filterInput.Blur()
		m.filterInput.SetValue("")
		if ctl != nil {
			ctl.SetSearchFilter("")
			m.refreshCommitTable()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	if ctl != nil && ctl.SearchFilter() != m.filterInput.Value() {
		ctl.SetSearchFilter(m.filterInput.Value())
		m.refreshCommitTable()
	}
	return m, cmd
}

// executeCommand runs a tab action by id. Diff actions hand their request
// to the diff tool.
func (m *Model) executeCommand(id string) tea.Cmd {
	ctl := m.activeTab()
	if ctl == nil {
		return nil
	}
	req, err := ctl.Commands().Execute(id)
	m.refreshCommitTable()
	if err != nil {
		m.commandError(err)
		return nil
	}
	if req == nil {
		return nil
	}
	return m.runDiff(req)
}
