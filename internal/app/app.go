package app

import (
	"context"
	"os/exec"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chmouel/lazydiff/internal/app/screen"
	"github.com/chmouel/lazydiff/internal/config"
	"github.com/chmouel/lazydiff/internal/git"
	log "github.com/chmouel/lazydiff/internal/log"
	"github.com/chmouel/lazydiff/internal/models"
	"github.com/chmouel/lazydiff/internal/picker"
	"github.com/chmouel/lazydiff/internal/session"
	"github.com/chmouel/lazydiff/internal/tab"
	"github.com/chmouel/lazydiff/internal/theme"
	"github.com/chmouel/lazydiff/internal/watch"
)

type viewKind int

const (
	viewPicker viewKind = iota
	viewDiff
)

type pane int

const (
	paneFiles pane = iota
	paneCommits
)

const (
	minLeftPaneWidth  = 32
	minRightPaneWidth = 32
	notifyBuffer      = 64
)

type notification struct {
	message  string
	severity string
}

// Model is the lazydiff Bubble Tea model: a branch picker in front of any
// number of diff sessions.
type Model struct {
	config   *config.AppConfig
	theme    *theme.Theme
	git      *git.Service
	sessions *session.Manager[*tab.Controller]
	picker   *picker.Controller
	watch    *watch.Service
	screens  *screen.Manager

	branchTable table.Model
	commitTable table.Model
	filterInput textinput.Model
	spinner     spinner.Model

	view          viewKind
	active        string // id of the session shown in the diff view
	focus         pane
	commitPath    string // file whose commits fill the commit table
	showingFilter bool
	loading       bool
	branchesReady bool
	repoKey       string
	status        notification
	windowWidth   int
	windowHeight  int

	execProcess func(*exec.Cmd, tea.ExecCallback) tea.Cmd

	notes      chan notification
	notifiedMu sync.Mutex
	notified   map[string]bool

	ctx      context.Context
	cancel   context.CancelFunc
	quitting bool
}

// NewModel builds the model. runner may be nil to run the real git binary.
func NewModel(cfg *config.AppConfig, runner git.Runner) *Model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())

	m := &Model{
		config:      cfg,
		theme:       theme.GetTheme(cfg.Theme),
		sessions:    session.NewManager[*tab.Controller](cfg.ReuseDiffTab),
		screens:     screen.NewManager(),
		execProcess: tea.ExecProcess,
		notes:       make(chan notification, notifyBuffer),
		notified:    make(map[string]bool),
		ctx:         ctx,
		cancel:      cancel,
	}
	m.git = git.NewService(cfg, runner, m.notify, m.notifyOnce)
	m.picker = picker.New(m.git, nil, m.sessions, m.newTab)
	if cfg.AutoRefresh {
		m.watch = watch.New(m.git)
	}

	m.branchTable = table.New(
		table.WithColumns(branchColumns(60)),
		table.WithFocused(true),
		table.WithHeight(5),
	)
	m.commitTable = table.New(
		table.WithColumns(commitColumns(60)),
		table.WithHeight(5),
	)

	m.filterInput = textinput.New()
	m.filterInput.Placeholder = "Filter files..."
	m.filterInput.Prompt = "/ "
	m.filterInput.Width = 50

	m.spinner = spinner.New()
	m.spinner.Spinner = spinner.Dot

	m.applyTheme()
	return m
}

func (m *Model) newTab(id string, source, target models.Branch) (*tab.Controller, error) {
	ctl := tab.New(id, m.config, m.git, source, target)
	ctl.SetHooks(tab.Hooks{
		Context: m.ctx,
		NewDiff: func() { m.view = viewPicker },
		ShowLocation: func(path string) {
			m.screens.Push(screen.NewInfoScreen("Location", path, m.theme))
		},
	})
	return ctl, nil
}

func (m *Model) applyTheme() {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(m.theme.Border).
		BorderBottom(true).
		Bold(true).
		Foreground(m.theme.Cyan)
	s.Cell = s.Cell.Foreground(m.theme.TextFg)
	s.Selected = s.Selected.
		Foreground(m.theme.AccentFg).
		Background(m.theme.Accent).
		Bold(true)
	m.branchTable.SetStyles(s)
	m.commitTable.SetStyles(s)

	m.filterInput.PromptStyle = lipgloss.NewStyle().Foreground(m.theme.Accent)
	m.filterInput.TextStyle = lipgloss.NewStyle().Foreground(m.theme.TextFg)
	m.spinner.Style = lipgloss.NewStyle().Foreground(m.theme.Accent)
}

// notify may be called from command goroutines; it never blocks.
func (m *Model) notify(message, severity string) {
	select {
	case m.notes <- notification{message: message, severity: severity}:
	default:
		log.Printf("notification dropped: %s", message)
	}
}

func (m *Model) notifyOnce(key, message, severity string) {
	m.notifiedMu.Lock()
	seen := m.notified[key]
	m.notified[key] = true
	m.notifiedMu.Unlock()
	if !seen {
		m.notify(message, severity)
	}
}

func (m *Model) waitForNotification() tea.Cmd {
	notes := m.notes
	return func() tea.Msg {
		n := <-notes
		return notifyMsg(n)
	}
}

// Init starts the branch load, the notification pump and the watcher.
func (m *Model) Init() tea.Cmd {
	m.loading = true
	return tea.Batch(
		m.loadBranches(true),
		m.waitForNotification(),
		m.startGitWatcher(),
		m.spinner.Tick,
	)
}

// Update dispatches Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setWindowSize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m.handleMessage(msg)
}

// Close releases the model resources; call it after the program exits.
func (m *Model) Close() {
	m.stopGitWatcher()
	m.cancel()
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.Close()
	return m, tea.Quit
}

// activeTab returns the controller shown in the diff view.
func (m *Model) activeTab() *tab.Controller {
	if m.active == "" {
		return nil
	}
	s, ok := m.sessions.Get(m.active)
	if !ok {
		return nil
	}
	return s.Value
}

func (m *Model) setStatus(message, severity string) {
	m.status = notification{message: message, severity: severity}
	switch severity {
	case git.SeverityError:
		log.Errorf("%s", message)
	default:
		log.Printf("%s", message)
	}
}

func (m *Model) debugf(format string, args ...any) {
	log.Printf(format, args...)
}
