package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) startGitWatcher() tea.Cmd {
	if m.watch == nil {
		return nil
	}
	w, ctx := m.watch, m.ctx
	return func() tea.Msg {
		started, err := w.Start(ctx)
		return watcherStartedMsg{started: started, err: err}
	}
}

func (m *Model) stopGitWatcher() {
	if m.watch == nil || !m.watch.Started() {
		return
	}
	m.watch.Stop()
}

func (m *Model) waitForGitWatchEvent() tea.Cmd {
	if m.watch == nil {
		return nil
	}
	events := m.watch.NextEvent()
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		_, ok := <-events
		if !ok {
			return nil
		}
		return gitDirChangedMsg{}
	}
}

// handleGitDirChanged reloads the branch list when refs or HEAD moved.
func (m *Model) handleGitDirChanged() tea.Cmd {
	if m.watch == nil {
		return nil
	}
	m.watch.ResetWaiting()
	wait := m.waitForGitWatchEvent()
	if !m.watch.ShouldRefresh(time.Now()) {
		return wait
	}
	m.debugf("repository changed, reloading branches")
	return tea.Batch(m.loadBranches(false), wait)
}
