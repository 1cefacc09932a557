package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	appiCli "github.com/urfave/cli/v3"

	"github.com/chmouel/lazydiff/internal/config"
	"github.com/chmouel/lazydiff/internal/difftool"
	"github.com/chmouel/lazydiff/internal/git"
	"github.com/chmouel/lazydiff/internal/log"
	"github.com/chmouel/lazydiff/internal/models"
	"github.com/chmouel/lazydiff/internal/tab"
	"github.com/chmouel/lazydiff/internal/theme"
	"github.com/chmouel/lazydiff/internal/tree"
)

var (
	loadCLIConfigFunc    = loadCLIConfig
	newCLIGitServiceFunc = newCLIGitService
)

// loadCLIConfig sets up the debug log and loads the configuration with the
// global flags applied on top.
func loadCLIConfig(cmd *appiCli.Command) (*config.AppConfig, error) {
	debugLog := cmd.String("debug-log")
	if debugLog != "" {
		setDebugLog(debugLog)
	}

	overrides := cmd.StringSlice("config")
	if repo := cmd.String("repo"); repo != "" {
		overrides = append(overrides, config.GitConfigPrefix+"repo_dir="+repo)
	}

	cfg, err := config.LoadConfig(cmd.String("config-file"), overrides)
	if err != nil {
		if strings.Contains(err.Error(), "override") {
			return nil, fmt.Errorf("error applying config overrides: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
	}

	// Without a flag the config decides; an empty path discards buffered logs.
	if debugLog == "" {
		setDebugLog(cfg.DebugLog)
	}

	if name := cmd.String("theme"); name != "" {
		normalized := theme.Normalize(strings.ToLower(name))
		if normalized == "" {
			return nil, fmt.Errorf("unknown theme %q, available: %s", name, strings.Join(theme.AvailableThemes(), ", "))
		}
		cfg.Theme = normalized
	}
	return cfg, nil
}

func setDebugLog(path string) {
	if path != "" {
		if expanded, err := config.ExpandPath(path); err == nil {
			path = expanded
		}
	}
	if err := log.SetFile(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error opening debug log file %q: %v\n", path, err)
	}
}

// newCLIGitService creates a git service reporting to stderr.
func newCLIGitService(cfg *config.AppConfig) *git.Service {
	return git.NewService(cfg, nil, cliNotify, cliNotifyOnce)
}

// cliNotify is a notification callback for git operations in CLI mode.
func cliNotify(message, severity string) {
	if severity == git.SeverityError {
		fmt.Fprintf(os.Stderr, "Error: %s\n", message)
		return
	}
	fmt.Fprintf(os.Stderr, "%s\n", message)
}

// cliNotifyOnce is a notification callback for git operations that should only fire once.
func cliNotifyOnce(_, message, severity string) {
	cliNotify(message, severity)
}

func output(cmd *appiCli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

// setup loads the configuration and a git service for a subcommand.
func setup(cmd *appiCli.Command) (*config.AppConfig, *git.Service, error) {
	cfg, err := loadCLIConfigFunc(cmd)
	if err != nil {
		return nil, nil, err
	}
	return cfg, newCLIGitServiceFunc(cfg), nil
}

// resolveBranch returns the listed branch called name. Anything else git
// can resolve, such as a tag or a hash, is used as is.
func resolveBranch(branches []models.Branch, name string) models.Branch {
	for _, b := range branches {
		if b.Name == name {
			return b
		}
	}
	return models.Branch{Name: name, Revision: name}
}

func completeBranches(ctx context.Context, cmd *appiCli.Command) {
	_, svc, err := setup(cmd)
	if err != nil {
		return
	}
	for _, b := range svc.Branches(ctx) {
		fmt.Fprintln(output(cmd), b.Name)
	}
}

func printThemes(cmd *appiCli.Command) {
	w := output(cmd)
	fmt.Fprintln(w, "Available themes:")
	for _, name := range theme.AvailableThemes() {
		fmt.Fprintf(w, "  %s\n", name)
	}
}

func printBranches(ctx context.Context, cmd *appiCli.Command, cfg *config.AppConfig) error {
	svc := newCLIGitServiceFunc(cfg)
	if _, err := svc.RepoRoot(ctx); err != nil {
		return err
	}
	branches := svc.Branches(ctx)
	if len(branches) == 0 {
		return fmt.Errorf("no branches found")
	}
	current := svc.CurrentBranch(ctx)
	tw := tabwriter.NewWriter(output(cmd), 0, 0, 2, ' ', 0)
	for _, b := range branches {
		mark := " "
		if b.Name == current.Name {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s %s\t%s\n", mark, b.Name, b.Revision)
	}
	return tw.Flush()
}

func branchesCommand() *appiCli.Command {
	return &appiCli.Command{
		Name:  "branches",
		Usage: "List branches, most recently committed last",
		Action: func(ctx context.Context, cmd *appiCli.Command) error {
			cfg, err := loadCLIConfigFunc(cmd)
			if err != nil {
				return err
			}
			return printBranches(ctx, cmd, cfg)
		},
	}
}

// collect opens a diff session for source..target without a TUI.
func collect(ctx context.Context, cmd *appiCli.Command, cfg *config.AppConfig, svc *git.Service, source, target string) (*tab.Controller, error) {
	if _, err := svc.RepoRoot(ctx); err != nil {
		return nil, err
	}
	if source == target {
		return nil, fmt.Errorf("source and target are both %s", source)
	}
	branches := svc.Branches(ctx)
	ctl := tab.New("cli", cfg, svc, resolveBranch(branches, source), resolveBranch(branches, target))
	if cmd.Bool("descending") {
		ctl.SetSortMode(tree.Descending)
	}
	ctl.CollectDiff(ctx)
	return ctl, nil
}

type diffEntry struct {
	Path    string `json:"path"`
	Status  string `json:"status"`
	Asset   bool   `json:"asset"`
	Commits int    `json:"commits"`
	Target  string `json:"target_revision,omitempty"`
}

func diffCommand() *appiCli.Command {
	return &appiCli.Command{
		Name:      "diff",
		Usage:     "Print the files changed between two branches",
		ArgsUsage: "SOURCE TARGET",
		Flags: []appiCli.Flag{
			&appiCli.BoolFlag{Name: "tree", Usage: "Group files by directory"},
			&appiCli.BoolFlag{Name: "descending", Usage: "Sort paths in reverse order"},
			&appiCli.StringFlag{Name: "filter", Aliases: []string{"f"}, Usage: "Only show paths containing every word"},
			&appiCli.BoolFlag{Name: "json", Usage: "Output JSON"},
		},
		ShellComplete: completeBranches,
		Action: func(ctx context.Context, cmd *appiCli.Command) error {
			if cmd.NArg() != 2 {
				return fmt.Errorf("diff requires SOURCE and TARGET")
			}
			cfg, svc, err := setup(cmd)
			if err != nil {
				return err
			}
			cfg.TreeView = cmd.Bool("tree")
			ctl, err := collect(ctx, cmd, cfg, svc, cmd.Args().Get(0), cmd.Args().Get(1))
			if err != nil {
				return err
			}
			if filter := cmd.String("filter"); filter != "" {
				ctl.SetSearchFilter(filter)
			}
			if cmd.Bool("json") {
				return writeDiffJSON(output(cmd), ctl)
			}
			return writeDiffRows(output(cmd), ctl)
		},
	}
}

func writeDiffJSON(w io.Writer, ctl *tab.Controller) error {
	entries := []diffEntry{}
	rows, _ := ctl.Rows()
	for _, row := range rows {
		if row.Node.IsDir() {
			continue
		}
		item := row.Node.Item
		entries = append(entries, diffEntry{
			Path:    item.Path,
			Status:  item.Status.String(),
			Asset:   item.Asset,
			Commits: len(item.Commits),
			Target:  item.LastTargetCommit.Revision,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func writeDiffRows(w io.Writer, ctl *tab.Controller) error {
	if len(ctl.Items()) == 0 {
		_, err := fmt.Fprintf(w, "No changes in %s\n", ctl.Title())
		return err
	}
	rows, _ := ctl.Rows()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		indent := strings.Repeat("  ", row.Depth)
		if row.Node.IsDir() {
			fmt.Fprintf(tw, " \t%s%s/\t\n", indent, row.Node.Name)
			continue
		}
		name := row.Node.Path
		if ctl.Mode() == tab.TreeMode {
			name = row.Node.Name
		}
		item := row.Node.Item
		fmt.Fprintf(tw, "%s\t%s%s\t%d\n", item.Status.Code(), indent, name, len(item.Commits))
	}
	return tw.Flush()
}

func logCommand() *appiCli.Command {
	return &appiCli.Command{
		Name:      "log",
		Usage:     "Print the commits that touched a file between two branches",
		ArgsUsage: "PATH SOURCE TARGET",
		Action: func(ctx context.Context, cmd *appiCli.Command) error {
			if cmd.NArg() != 3 {
				return fmt.Errorf("log requires PATH, SOURCE and TARGET")
			}
			cfg, svc, err := setup(cmd)
			if err != nil {
				return err
			}
			path := cmd.Args().Get(0)
			ctl, err := collect(ctx, cmd, cfg, svc, cmd.Args().Get(1), cmd.Args().Get(2))
			if err != nil {
				return err
			}
			var item models.DiffItem
			for _, it := range ctl.Items() {
				if it.Path == path {
					item = it
					break
				}
			}
			if !item.IsValid() {
				if last := svc.LastCommitForFile(ctx, path, ctl.Target.Name); last.IsValid() {
					return fmt.Errorf("%s is not changed in %s, last changed on %s in %s (%s)",
						path, ctl.Title(), ctl.Target.Name, last.Revision, last.Message)
				}
				return fmt.Errorf("%s is not changed in %s", path, ctl.Title())
			}

			tw := tabwriter.NewWriter(output(cmd), 0, 0, 2, ' ', 0)
			for _, c := range item.Commits {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Revision, formatDate(c), c.Author, c.Message)
			}
			if t := item.LastTargetCommit; t.IsValid() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s (%s)\n", t.Revision, formatDate(t), t.Author, t.Message, ctl.Target.Name)
			}
			return tw.Flush()
		},
	}
}

func formatDate(c models.Commit) string {
	if c.Date.IsZero() {
		return "-"
	}
	return c.Date.Format("2006-01-02 15:04")
}

func showCommand() *appiCli.Command {
	return &appiCli.Command{
		Name:      "show",
		Usage:     "Extract a file as of a revision and print where it was written",
		ArgsUsage: "PATH REVISION",
		Flags: []appiCli.Flag{
			&appiCli.BoolFlag{Name: "cat", Usage: "Print the content instead of the location"},
		},
		Action: func(ctx context.Context, cmd *appiCli.Command) error {
			if cmd.NArg() != 2 {
				return fmt.Errorf("show requires PATH and REVISION")
			}
			_, svc, err := setup(cmd)
			if err != nil {
				return err
			}
			file, err := svc.File(ctx, cmd.Args().Get(0), cmd.Args().Get(1))
			if err != nil {
				return err
			}
			if !cmd.Bool("cat") {
				_, err = fmt.Fprintln(output(cmd), file)
				return err
			}
			// #nosec G304 -- file lives in the configured diff directory
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			_, err = output(cmd).Write(data)
			return err
		},
	}
}

func difftoolCommand() *appiCli.Command {
	return &appiCli.Command{
		Name:      "difftool",
		Usage:     "Compare a file between two revisions",
		ArgsUsage: "PATH LEFT RIGHT",
		Action: func(ctx context.Context, cmd *appiCli.Command) error {
			if cmd.NArg() != 3 {
				return fmt.Errorf("difftool requires PATH, LEFT and RIGHT")
			}
			cfg, svc, err := setup(cmd)
			if err != nil {
				return err
			}
			path := cmd.Args().Get(0)
			differ, err := difftool.Select(cfg, svc, path)
			if err != nil {
				return err
			}
			left := models.Commit{Revision: cmd.Args().Get(1)}
			right := models.Commit{Revision: cmd.Args().Get(2)}
			res, err := differ.Diff(ctx, path, left, right)
			if err != nil {
				return err
			}
			if res.External {
				return nil
			}
			added, removed := difftool.Stats(res.Lines)
			w := output(cmd)
			fmt.Fprintf(w, "--- %s@%s\n+++ %s@%s\n", path, left.Revision, path, right.Revision)
			fmt.Fprint(w, difftool.Render(res.Lines))
			_, err = fmt.Fprintf(w, "%d additions, %d deletions\n", added, removed)
			return err
		},
	}
}

func configCommand() *appiCli.Command {
	return &appiCli.Command{
		Name:  "config",
		Usage: "Print the effective configuration",
		Action: func(_ context.Context, cmd *appiCli.Command) error {
			cfg, err := loadCLIConfigFunc(cmd)
			if err != nil {
				return err
			}
			for _, line := range cfg.Describe() {
				fmt.Fprintln(output(cmd), line)
			}
			return nil
		},
	}
}
