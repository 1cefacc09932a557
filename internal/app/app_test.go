package app

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chmouel/lazydiff/internal/app/screen"
	"github.com/chmouel/lazydiff/internal/config"
	"github.com/chmouel/lazydiff/internal/git"
	"github.com/chmouel/lazydiff/internal/git/gittest"
	"github.com/chmouel/lazydiff/internal/models"
	"github.com/chmouel/lazydiff/internal/tab"
	"github.com/chmouel/lazydiff/internal/tree"
)

const logPrefix = "log --pretty=format:<Hash:%h> <Message:%s> <Author:%an> <Date:%ad> --date=format-local:%d/%m/%Y %H:%M --name-status "

func scriptedRepo(lastTargetStatus string) *gittest.Runner {
	commits := gittest.Log(
		gittest.Commit{Hash: "c100001", Message: "tweak x", Author: "ada", Date: "02/01/2024 10:00", Files: []string{"M\ta/x.txt", "A\ta/y.txt"}},
		gittest.Commit{Hash: "c050000", Message: "first x", Author: "ada", Date: "01/01/2024 09:00", Files: []string{"M\ta/x.txt"}},
		gittest.Commit{Hash: "c200002", Message: "add z", Author: "bob", Date: "01/01/2024 08:00", Files: []string{"A\tb/z.txt"}},
	)
	lastTarget := gittest.Log(gittest.Commit{Hash: "t000001", Message: "base", Author: "ada", Date: "01/12/2023 10:00", Files: []string{lastTargetStatus + "\ta/x.txt"}})
	return gittest.NewRunner().
		On("branch -v --sort=committerdate", "  feature 1111111 add\n* main    2222222 init\n").
		On("rev-parse --abbrev-ref HEAD", "main\n").
		On("rev-parse --short HEAD", "2222222\n").
		On(logPrefix+"main..feature", commits).
		On("diff --name-status main..feature", "M\ta/x.txt\nA\ta/y.txt\nA\tb/z.txt\n").
		On(logPrefix+"main -- *", lastTarget).
		Blob("t000001", "a/x.txt", "one\ntwo\n").
		Blob("c100001", "a/x.txt", "one\nthree\n").
		Blob("c050000", "a/x.txt", "one\n2\n")
}

func newTestModel(t *testing.T, runner *gittest.Runner) *Model {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.RepoDir = t.TempDir()
	cfg.DiffDir = filepath.Join(t.TempDir(), "diffs")
	cfg.StateDir = t.TempDir()
	cfg.AutoRefresh = false
	cfg.TreeView = false
	cfg.ShowIcons = false
	runner.WithRoot(cfg.RepoDir)

	m := NewModel(cfg, runner)
	m.setWindowSize(120, 40)
	t.Cleanup(m.Close)
	return m
}

func keyRune(r string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(r)}
}

// run executes cmd and feeds its message back, like the Bubble Tea loop does.
func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	m.Update(cmd())
}

func press(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		switch k {
		case keyEnter:
			_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		case keyTab:
			_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyTab})
		case keyEsc:
			_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		case keySpace:
			_, cmd = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
		default:
			_, cmd = m.Update(keyRune(k))
		}
	}
	return cmd
}

// openFeatureDiff loads the branches and opens main..feature.
func openFeatureDiff(t *testing.T, m *Model) *tab.Controller {
	t.Helper()
	run(t, m, m.loadBranches(true))
	require.Len(t, m.picker.Branches(), 3)

	press(m, "j", "s", "j", "t")
	cmd := press(m, keyEnter)
	require.Equal(t, viewDiff, m.view)
	run(t, m, cmd)

	ctl := m.activeTab()
	require.NotNil(t, ctl)
	require.True(t, ctl.Loaded())
	return ctl
}

func TestNewModelDefaults(t *testing.T) {
	m := newTestModel(t, gittest.NewRunner())

	assert.Equal(t, viewPicker, m.view)
	assert.Equal(t, paneFiles, m.focus)
	assert.Nil(t, m.watch, "watcher is only built with auto_refresh")
	assert.Nil(t, m.activeTab())

	fresh := NewModel(m.config, gittest.NewRunner())
	t.Cleanup(fresh.Close)
	assert.Equal(t, "Loading...", fresh.View())
}

func TestLoadBranchesFillsTable(t *testing.T) {
	m := newTestModel(t, scriptedRepo("A"))
	run(t, m, m.loadBranches(true))

	rows := m.branchTable.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, "HEAD", rows[0][1])
	assert.Equal(t, "feature", rows[1][1])
	assert.Equal(t, "1111111", rows[1][2])
	assert.Equal(t, "S", rows[2][0], "the checked-out branch is the default source")
	assert.Equal(t, "main", m.picker.Source().Name)
	assert.NotEmpty(t, m.repoKey)
}

func TestPickBranchesMarksRows(t *testing.T) {
	m := newTestModel(t, scriptedRepo("A"))
	run(t, m, m.loadBranches(true))

	press(m, "j", "s", "j", "t")
	assert.Equal(t, "feature", m.picker.Source().Name)
	assert.Equal(t, "main", m.picker.Target().Name)

	rows := m.branchTable.Rows()
	assert.Equal(t, "S", rows[1][0])
	assert.Equal(t, "T", rows[2][0])
	assert.Contains(t, m.status.message, "main is the target branch")
}

func TestOpenWithoutTargetWarns(t *testing.T) {
	m := newTestModel(t, scriptedRepo("A"))
	run(t, m, m.loadBranches(true))
	press(m, "j", "s")

	cmd := press(m, keyEnter)
	assert.Nil(t, cmd)
	assert.Equal(t, viewPicker, m.view)
	assert.Equal(t, git.SeverityWarn, m.status.severity)
}

func TestBranchCacheRestoredOnNextStart(t *testing.T) {
	runner := scriptedRepo("A")
	m := newTestModel(t, runner)
	run(t, m, m.loadBranches(true))
	press(m, "j", "s", "j", "t")

	again := NewModel(m.config, runner)
	t.Cleanup(again.Close)
	run(t, again, again.loadBranches(true))
	assert.Equal(t, "feature", again.picker.Source().Name)
	assert.Equal(t, "main", again.picker.Target().Name)
}

func TestOpenDiffCollectsItems(t *testing.T) {
	m := newTestModel(t, scriptedRepo("A"))
	ctl := openFeatureDiff(t, m)

	assert.Len(t, ctl.Items(), 3)
	assert.Equal(t, "main..feature", ctl.Title())
	assert.Contains(t, m.status.message, "3 files changed")

	// a/x.txt is first and has two commits in range.
	assert.Equal(t, "a/x.txt", m.commitPath)
	require.Len(t, m.commitTable.Rows(), 2)
	assert.Equal(t, "c100001", m.commitTable.Rows()[0][1])
	assert.Equal(t, "2024-01-02 10:00", m.commitTable.Rows()[0][2])
}

func TestMoveRefreshesCommits(t *testing.T) {
	m := newTestModel(t, scriptedRepo("A"))
	openFeatureDiff(t, m)

	press(m, "j", "j")
	assert.Equal(t, "b/z.txt", m.commitPath)
	require.Len(t, m.commitTable.Rows(), 1)
	assert.Equal(t, "c200002", m.commitTable.Rows()[0][1])
}

func TestEnterDiffsAgainstTarget(t *testing.T) {
	m := newTestModel(t, scriptedRepo("A"))
	openFeatureDiff(t, m)

	cmd := press(m, keyEnter)
	require.NotNil(t, cmd)
	msg := cmd()
	res, ok := msg.(diffResultMsg)
	require.True(t, ok)
	require.NoError(t, res.err)
	assert.Equal(t, "t000001", res.result.Left.Revision)
	assert.Equal(t, "c100001", res.result.Right.Revision)

	m.Update(msg)
	require.Equal(t, screen.TypeDiff, m.screens.Type())
	assert.Contains(t, m.View(), "+three")

	press(m, "q")
	assert.False(t, m.screens.IsActive(), "q closes the viewer, not the app")
	assert.False(t, m.quitting)
}

func TestExternalDiffReleasesTerminal(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	tests := []struct {
		name    string
		command string
		status  string
		errMsg  string
	}{
		{name: "success", command: "true", status: "Opened a/x.txt in the external diff tool"},
		{name: "setup hint", command: "exit 2", errMsg: "check the external_diff_command setting"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t, scriptedRepo("A"))
			m.config.EnableExternalDiff = true
			m.config.ExternalDiffCommand = tt.command
			var execs []*exec.Cmd
			m.execProcess = func(c *exec.Cmd, fn tea.ExecCallback) tea.Cmd {
				execs = append(execs, c)
				return func() tea.Msg { return fn(c.Run()) }
			}
			openFeatureDiff(t, m)

			cmd := press(m, keyEnter)
			require.NotNil(t, cmd)
			msg := cmd()
			require.IsType(t, externalDiffReadyMsg{}, msg)
			assert.Empty(t, execs, "the tool must not run while the UI owns the terminal")

			_, cmd = m.Update(msg)
			require.Len(t, execs, 1)
			assert.Equal(t, []string{"sh", "-c"}, execs[0].Args[:2])
			run(t, m, cmd)

			if tt.errMsg == "" {
				assert.False(t, m.screens.IsActive())
				assert.Equal(t, tt.status, m.status.message)
				return
			}
			info, ok := m.screens.Current().(*screen.InfoScreen)
			require.True(t, ok)
			assert.True(t, info.IsError)
			assert.Contains(t, info.Message, tt.errMsg)
		})
	}
}

func TestDiffUnavailableShowsError(t *testing.T) {
	m := newTestModel(t, scriptedRepo("D"))
	openFeatureDiff(t, m)

	cmd := press(m, keyEnter)
	assert.Nil(t, cmd)
	require.Equal(t, screen.TypeInfo, m.screens.Type())
	info, ok := m.screens.Current().(*screen.InfoScreen)
	require.True(t, ok)
	assert.True(t, info.IsError)
	assert.Contains(t, info.Message, "diff is not available for path: a/x.txt")
}

func TestCommitSelectionActions(t *testing.T) {
	m := newTestModel(t, scriptedRepo("A"))
	ctl := openFeatureDiff(t, m)

	// Nothing selected: the action is refused with a warning.
	assert.Nil(t, press(m, "]"))
	assert.Equal(t, git.SeverityWarn, m.status.severity)

	press(m, keyTab, "j", keySpace)
	require.Len(t, ctl.SelectedCommits(), 1)
	assert.Equal(t, "●", m.commitTable.Rows()[1][0])

	cmd := press(m, "]")
	require.NotNil(t, cmd)
	res := cmd().(diffResultMsg)
	require.NoError(t, res.err)
	assert.Equal(t, "c050000", res.result.Left.Revision)
	assert.Equal(t, "c100001", res.result.Right.Revision)

	press(m, "k", keySpace)
	require.Len(t, ctl.SelectedCommits(), 2)
	cmd = press(m, "D")
	require.NotNil(t, cmd)
	res = cmd().(diffResultMsg)
	assert.Equal(t, "c050000", res.result.Left.Revision, "older commit on the left")
}

func TestFilterInput(t *testing.T) {
	m := newTestModel(t, scriptedRepo("A"))
	ctl := openFeatureDiff(t, m)

	press(m, "/")
	require.True(t, m.showingFilter)
	press(m, "z")
	assert.Equal(t, "z", ctl.SearchFilter())
	assert.Equal(t, 1, ctl.VisibleCount())
	assert.Equal(t, "b/z.txt", m.commitPath)

	press(m, keyEnter)
	assert.False(t, m.showingFilter)
	assert.Equal(t, "z", ctl.SearchFilter(), "enter keeps the filter")

	press(m, keyEsc)
	assert.Empty(t, ctl.SearchFilter())
	assert.Equal(t, viewDiff, m.view, "first esc only clears the filter")
	press(m, keyEsc)
	assert.Equal(t, viewPicker, m.view)
}

func TestShortcutsReachTabCommands(t *testing.T) {
	m := newTestModel(t, scriptedRepo("A"))
	ctl := openFeatureDiff(t, m)

	press(m, "t")
	assert.Equal(t, tab.TreeMode, ctl.Mode())
	rows, _ := ctl.Rows()
	assert.Equal(t, "a", rows[0].Node.Path)

	press(m, "C")
	rows, _ = ctl.Rows()
	assert.Len(t, rows, 2)

	press(m, "n")
	assert.Equal(t, viewPicker, m.view)
}

func TestOpenLocationCommand(t *testing.T) {
	m := newTestModel(t, scriptedRepo("A"))
	openFeatureDiff(t, m)

	press(m, "o")
	info, ok := m.screens.Current().(*screen.InfoScreen)
	require.True(t, ok)
	assert.True(t, info.IsError, "a/x.txt is not in the work tree")
	assert.Equal(t, "Open location", info.Title)
	press(m, keyEsc)
	require.False(t, m.screens.IsActive())

	require.NoError(t, os.MkdirAll(filepath.Join(m.config.RepoDir, "a"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(m.config.RepoDir, "a", "x.txt"), []byte("x"), 0o600))
	press(m, "o")
	info, ok = m.screens.Current().(*screen.InfoScreen)
	require.True(t, ok)
	assert.False(t, info.IsError)
	assert.Equal(t, filepath.Join(m.config.RepoDir, "a", "x.txt"), info.Message)
}

func TestPaletteRunsCommands(t *testing.T) {
	m := newTestModel(t, scriptedRepo("A"))
	ctl := openFeatureDiff(t, m)

	press(m, ":")
	require.Equal(t, screen.TypePalette, m.screens.Type())
	p := m.screens.Current().(*screen.CommandPaletteScreen)

	var labels []string
	for _, it := range p.Items {
		labels = append(labels, it.Label)
	}
	assert.Contains(t, labels, "Diff Panel")
	assert.Contains(t, labels, "Commit Panel")

	for _, r := range "group" {
		m.Update(keyRune(string(r)))
	}
	item, ok := p.Selected()
	require.True(t, ok)
	assert.Equal(t, tab.CmdGroupByDirectory, item.ID)

	press(m, keyEnter)
	assert.False(t, m.screens.IsActive())
	assert.Equal(t, tab.TreeMode, ctl.Mode())
}

func TestSessionsCycleAndClose(t *testing.T) {
	runner := scriptedRepo("A").
		On(logPrefix+"feature..main", "")
	m := newTestModel(t, runner)
	openFeatureDiff(t, m)
	first := m.active

	// back to the picker, swap the pair and open a second diff
	press(m, "n", "g", "j", "t", "j", "s")
	run(t, m, press(m, keyEnter))
	second := m.active
	require.NotEqual(t, first, second)
	assert.Equal(t, 2, m.sessions.Len())
	assert.Contains(t, m.status.message, "No changes in feature..main")

	press(m, "n", keyTab)
	assert.Equal(t, first, m.active)
	assert.Equal(t, viewDiff, m.view)

	press(m, "x")
	assert.Equal(t, 1, m.sessions.Len())
	assert.Equal(t, second, m.active)
	press(m, "x")
	assert.Equal(t, viewPicker, m.view)
	assert.Zero(t, m.sessions.Len())
}

func TestReopenReusesSession(t *testing.T) {
	m := newTestModel(t, scriptedRepo("A"))
	openFeatureDiff(t, m)
	first := m.active

	press(m, "n")
	cmd := press(m, keyEnter)
	assert.Nil(t, cmd, "loaded session is not collected again")
	assert.Equal(t, first, m.active)
	assert.Contains(t, m.status.message, "Switched to the open diff")
}

func TestNotificationsReachStatus(t *testing.T) {
	m := newTestModel(t, gittest.NewRunner())

	m.notifyOnce("k", "boom", git.SeverityError)
	m.notifyOnce("k", "boom again", git.SeverityError)
	run(t, m, m.waitForNotification())
	assert.Equal(t, "boom", m.status.message)
	assert.Empty(t, m.notes, "duplicate key is dropped")
}

func TestViewRendersPanes(t *testing.T) {
	m := newTestModel(t, scriptedRepo("A"))
	run(t, m, m.loadBranches(true))

	view := m.View()
	assert.Contains(t, view, "Lazydiff")
	assert.Contains(t, view, "Branches (3)")
	assert.Contains(t, view, "not picked")

	press(m, "j", "s", "j", "t")
	run(t, m, press(m, keyEnter))
	view = m.View()
	assert.Contains(t, view, "main..feature")
	assert.Contains(t, view, "a/x.txt")
	assert.Contains(t, view, "Commits")
	for _, line := range strings.Split(view, "\n") {
		assert.LessOrEqual(t, lipgloss.Width(line), 120)
	}
}

func TestRowIcons(t *testing.T) {
	m := newTestModel(t, gittest.NewRunner())
	file := &tree.Node{Path: "a/main.go", Name: "main.go", Item: &models.DiffItem{Path: "a/main.go"}}
	dir := &tree.Node{Path: "a", Name: "a"}

	assert.Empty(t, m.rowIcon(file), "icons are off")

	m.config.ShowIcons = true
	icon := m.rowIcon(file)
	require.NotEmpty(t, icon)
	assert.True(t, strings.HasSuffix(icon, " "))
	assert.NotEqual(t, icon, m.rowIcon(dir))
	assert.Empty(t, m.rowIcon(&tree.Node{}))
}

func TestHelpOverlay(t *testing.T) {
	m := newTestModel(t, scriptedRepo("A"))
	press(m, "?")
	require.Equal(t, screen.TypeHelp, m.screens.Type())
	assert.Contains(t, m.View(), "Branch picker")
	press(m, "?")
	assert.False(t, m.screens.IsActive())
}

func TestOverlayPopupKeepsWidth(t *testing.T) {
	m := newTestModel(t, gittest.NewRunner())
	base := strings.Repeat(strings.Repeat("x", 20)+"\n", 4) + strings.Repeat("x", 20)
	out := m.overlayPopup(base, "POP\nPOP", 1)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, strings.Repeat("x", 20), lines[0])
	assert.Equal(t, "xxxxxxxxPOPxxxxxxxxx", lines[1])
	assert.Equal(t, "xxxxxxxxPOPxxxxxxxxx", lines[2])
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, gittest.NewRunner())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.True(t, m.quitting)
	assert.Empty(t, m.View())
}
