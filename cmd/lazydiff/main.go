// Package main is the entry point for the lazydiff application.
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	appiCli "github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/chmouel/lazydiff/internal/app"
	"github.com/chmouel/lazydiff/internal/buildinfo"
	"github.com/chmouel/lazydiff/internal/log"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

// isTerminalFunc reports whether stdout is an interactive terminal.
var isTerminalFunc = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) //nolint:gosec
}

func main() {
	buildinfo.Set(version, commit, date, builtBy)
	buildinfo.Enrich()

	if err := newRootCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *appiCli.Command {
	return &appiCli.Command{
		Name:                  "lazydiff",
		Usage:                 "Browse the files changed between two git branches",
		Version:               buildinfo.Summary(),
		EnableShellCompletion: true,
		Flags:                 globalFlags(),
		Commands: []*appiCli.Command{
			branchesCommand(),
			diffCommand(),
			logCommand(),
			showCommand(),
			difftoolCommand(),
			configCommand(),
		},
		Action: runRoot,
	}
}

// runRoot launches the TUI, or prints the branches when stdout is not a terminal.
func runRoot(ctx context.Context, cmd *appiCli.Command) error {
	if cmd.Bool("show-themes") {
		printThemes(cmd)
		return nil
	}

	cfg, err := loadCLIConfigFunc(cmd)
	if err != nil {
		_ = log.Close()
		return err
	}
	defer func() { _ = log.Close() }()

	if !isTerminalFunc() {
		return printBranches(ctx, cmd, cfg)
	}

	model := app.NewModel(cfg, nil)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	_, err = p.Run()
	model.Close()
	if err != nil {
		return fmt.Errorf("error running app: %w", err)
	}
	return nil
}
