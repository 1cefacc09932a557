package app

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chmouel/lazydiff/internal/app/screen"
	"github.com/chmouel/lazydiff/internal/commands"
	"github.com/chmouel/lazydiff/internal/difftool"
	"github.com/chmouel/lazydiff/internal/git"
	"github.com/chmouel/lazydiff/internal/models"
	"github.com/chmouel/lazydiff/internal/session"
	"github.com/chmouel/lazydiff/internal/tab"
	"github.com/chmouel/lazydiff/internal/utils"
)

// Message types for the Bubble Tea app.
type (
	errMsg            struct{ err error }
	notifyMsg         notification
	branchesLoadedMsg struct {
		branches []models.Branch
		cache    *session.BranchCache // set on the initial load only
		current  models.Branch
		repoKey  string
		initial  bool
	}
	diffCollectedMsg struct {
		sessionID string
		items     []models.DiffItem
	}
	diffResultMsg struct {
		result difftool.Result
		err    error
	}
	externalDiffReadyMsg struct {
		inv *difftool.Invocation
	}
	watcherStartedMsg struct {
		started bool
		err     error
	}
	gitDirChangedMsg struct{}
)

// loadBranches lists the branches. The initial load also resolves the
// repository and opens its branch cache.
func (m *Model) loadBranches(initial bool) tea.Cmd {
	ctx, svc, cfg := m.ctx, m.git, m.config
	return func() tea.Msg {
		msg := branchesLoadedMsg{initial: initial}
		if initial {
			root, err := svc.RepoRoot(ctx)
			if err != nil {
				return errMsg{err: err}
			}
			msg.repoKey = utils.RepoKey(root)
			msg.cache = session.LoadBranchCache(cfg.StateDir, msg.repoKey, cfg.EnableCaching)
			msg.current = svc.CurrentBranch(ctx)
		}
		msg.branches = svc.Branches(ctx)
		return msg
	}
}

// collectDiff builds the changed-file set of a session off the update loop.
func (m *Model) collectDiff(s *session.Session[*tab.Controller]) tea.Cmd {
	ctx, svc := m.ctx, m.git
	id, source, target := s.ID, s.Value.Source, s.Value.Target
	m.loading = true
	return func() tea.Msg {
		return diffCollectedMsg{sessionID: id, items: svc.Diff(ctx, source, target)}
	}
}

// runDiff materializes both revisions and runs the selected diff tool. An
// external tool is only prepared here; it runs once the terminal is released.
func (m *Model) runDiff(req *tab.DiffRequest) tea.Cmd {
	ctx, svc, cfg := m.ctx, m.git, m.config
	m.loading = true
	return func() tea.Msg {
		differ, err := difftool.Select(cfg, svc, req.Path)
		if err != nil {
			return diffResultMsg{err: fmt.Errorf("%s: %w", req.Path, err)}
		}
		if external, ok := differ.(*difftool.External); ok {
			inv, err := external.Prepare(ctx, req.Path, req.Left, req.Right)
			if err != nil {
				return diffResultMsg{err: err}
			}
			return externalDiffReadyMsg{inv: inv}
		}
		res, err := differ.Diff(ctx, req.Path, req.Left, req.Right)
		return diffResultMsg{result: res, err: err}
	}
}

// runExternalDiff hands the terminal to the external tool.
func (m *Model) runExternalDiff(inv *difftool.Invocation) tea.Cmd {
	return m.execProcess(inv.Cmd, func(err error) tea.Msg {
		res, err := inv.Finish(err)
		return diffResultMsg{result: res, err: err}
	})
}

// handleMessage processes the messages produced by commands.
func (m *Model) handleMessage(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case branchesLoadedMsg:
		return m.handleBranchesLoaded(msg)
	case diffCollectedMsg:
		return m.handleDiffCollected(msg)
	case externalDiffReadyMsg:
		return m, m.runExternalDiff(msg.inv)
	case diffResultMsg:
		return m.handleDiffResult(msg)
	case notifyMsg:
		m.setStatus(msg.message, msg.severity)
		return m, m.waitForNotification()
	case watcherStartedMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Repository watcher disabled: %v", msg.err), git.SeverityWarn)
			return m, nil
		}
		if !msg.started {
			return m, nil
		}
		return m, m.waitForGitWatchEvent()
	case gitDirChangedMsg:
		return m, m.handleGitDirChanged()
	case errMsg:
		m.loading = false
		if msg.err != nil {
			m.setStatus(msg.err.Error(), git.SeverityError)
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleBranchesLoaded(msg branchesLoadedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	m.branchesReady = true
	if msg.initial {
		m.repoKey = msg.repoKey
		m.picker.SetCache(msg.cache)
		m.picker.SetBranches(msg.branches)
		m.picker.RestoreCached()
		m.picker.DefaultSource(msg.current)
	} else {
		m.picker.SetBranches(msg.branches)
	}
	m.refreshBranchTable()
	if len(msg.branches) == 0 {
		m.setStatus("No branches found", git.SeverityWarn)
	}
	return m, nil
}

func (m *Model) handleDiffCollected(msg diffCollectedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	s, ok := m.sessions.Get(msg.sessionID)
	if !ok {
		// closed while collecting
		return m, nil
	}
	s.Value.SetItems(msg.items)
	if msg.sessionID == m.active {
		m.commitPath = ""
		m.refreshCommitTable()
	}
	if len(msg.items) == 0 {
		m.setStatus(fmt.Sprintf("No changes in %s", s.Value.Title()), git.SeverityInfo)
	} else {
		m.setStatus(fmt.Sprintf("%d files changed in %s", len(msg.items), s.Value.Title()), git.SeverityInfo)
	}
	return m, nil
}

func (m *Model) handleDiffResult(msg diffResultMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if msg.err != nil {
		m.screens.Push(screen.NewErrorScreen("Diff failed", msg.err, m.theme))
		return m, nil
	}
	if msg.result.External {
		m.setStatus(fmt.Sprintf("Opened %s in the external diff tool", msg.result.Path), git.SeverityInfo)
		return m, nil
	}
	m.screens.Push(screen.NewDiffScreen(msg.result, m.windowWidth, m.windowHeight, m.theme))
	return m, nil
}

// commandError reports a failed tab action.
func (m *Model) commandError(err error) {
	var unavailable *tab.DiffUnavailableError
	switch {
	case errors.As(err, &unavailable):
		m.screens.Push(screen.NewErrorScreen("Diff unavailable", err, m.theme))
	case errors.Is(err, tab.ErrLocationMissing):
		m.screens.Push(screen.NewErrorScreen("Open location", err, m.theme))
	case errors.Is(err, commands.ErrUnavailable):
		m.setStatus("Not available for the current selection", git.SeverityWarn)
	default:
		m.setStatus(err.Error(), git.SeverityError)
	}
}
