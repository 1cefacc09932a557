// Package git queries a git repository for branches, commits and file
// versions, and assembles the changed-file set between two revisions.
package git

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	gogit "github.com/go-git/go-git/v5"

	"github.com/chmouel/lazydiff/internal/config"
	log "github.com/chmouel/lazydiff/internal/log"
	"github.com/chmouel/lazydiff/internal/models"
)

// Notification severities.
const (
	SeverityInfo  = "info"
	SeverityWarn  = "warn"
	SeverityError = "error"
)

// NotifyFn receives user-facing notifications.
type NotifyFn func(message string, severity string)

// NotifyOnceFn reports deduplicated notification messages.
type NotifyOnceFn func(key string, message string, severity string)

// ErrNoRepository is returned when no repository root can be resolved.
var ErrNoRepository = errors.New("not inside a git repository")

// Service runs git queries for one repository. Failures are logged and
// reported through the notify callbacks; queries degrade to empty results.
type Service struct {
	cfg        *config.AppConfig
	runner     Runner
	parser     *Parser
	notify     NotifyFn
	notifyOnce NotifyOnceFn

	rootOnce sync.Once
	root     string
	rootErr  error
}

// NewService constructs a Service. Nil callbacks are replaced by no-ops.
func NewService(cfg *config.AppConfig, runner Runner, notify NotifyFn, notifyOnce NotifyOnceFn) *Service {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if runner == nil {
		runner = NewExecRunner(cfg.GitBinary)
	}
	if notify == nil {
		notify = func(string, string) {}
	}
	if notifyOnce == nil {
		notifyOnce = func(string, string, string) {}
	}
	return &Service{
		cfg:        cfg,
		runner:     runner,
		parser:     NewParser(cfg.Patterns),
		notify:     notify,
		notifyOnce: notifyOnce,
	}
}

// Parser returns the parser used by the service.
func (s *Service) Parser() *Parser {
	return s.parser
}

// Config returns the configuration the service was built with.
func (s *Service) Config() *config.AppConfig {
	return s.cfg
}

func (s *Service) debugf(format string, args ...any) {
	log.Printf(format, args...)
}

func (s *Service) startDir() string {
	if s.cfg.RepoDir != "" {
		return s.cfg.RepoDir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// RepoRoot resolves the repository work tree root once for the process lifetime.
func (s *Service) RepoRoot(ctx context.Context) (string, error) {
	s.rootOnce.Do(func() {
		s.root, s.rootErr = s.resolveRoot(ctx)
		if s.rootErr != nil {
			s.notify(fmt.Sprintf("%v: run lazydiff inside a repository or set repo_dir", s.rootErr), SeverityError)
		}
	})
	return s.root, s.rootErr
}

func (s *Service) resolveRoot(ctx context.Context) (string, error) {
	start := s.startDir()
	repo, err := gogit.PlainOpenWithOptions(start, &gogit.PlainOpenOptions{DetectDotGit: true, EnableDotGitCommonDir: true})
	if err == nil {
		if wt, wtErr := repo.Worktree(); wtErr == nil {
			return wt.Filesystem.Root(), nil
		}
	}
	s.debugf("go-git could not open %s (%v), asking git", start, err)

	res := s.runner.Run(ctx, start, "rev-parse", "--show-toplevel")
	if !res.Success() {
		s.reportFailure("rev-parse --show-toplevel", start, res)
		return "", fmt.Errorf("%w: %s", ErrNoRepository, start)
	}
	return strings.TrimSpace(res.Stdout), nil
}

func (s *Service) reportFailure(command, dir string, res Result) {
	if res.Err != nil && errors.Is(res.Err, exec.ErrNotFound) {
		s.notifyOnce("cmd_missing:"+s.cfg.GitBinary,
			fmt.Sprintf("Command not found: %s, install git or set git_binary", s.cfg.GitBinary), SeverityError)
		s.debugf("error: command not found: %s", s.cfg.GitBinary)
		return
	}
	s.debugf("error: %s (cwd=%s): %s", command, dir, res.Failure())
}

// run executes git in the repository root and returns stdout on success.
func (s *Service) run(ctx context.Context, args ...string) (string, bool) {
	dir, err := s.RepoRoot(ctx)
	if err != nil {
		return "", false
	}
	command := strings.Join(args, " ")
	s.debugf("run: %s (cwd=%s)", command, dir)

	res := s.runner.Run(ctx, dir, args...)
	if !res.Success() {
		s.reportFailure(command, dir, res)
		return "", false
	}
	s.debugf("ok: %s", command)
	return res.Stdout, true
}

func logArgs(extra ...string) []string {
	args := []string{"log", "--pretty=format:" + PrettyFormat, "--date=format-local:" + DateFormat, "--name-status"}
	return append(args, extra...)
}

// CurrentBranch returns the checked-out branch, or an invalid branch on failure.
func (s *Service) CurrentBranch(ctx context.Context) models.Branch {
	name, ok := s.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if !ok {
		return models.Branch{}
	}
	revision, ok := s.run(ctx, "rev-parse", "--short", "HEAD")
	if !ok {
		return models.Branch{}
	}
	return models.Branch{Name: strings.TrimSpace(name), Revision: strings.TrimSpace(revision)}
}

// Branches returns local branches sorted by commit date with HEAD first.
func (s *Service) Branches(ctx context.Context) []models.Branch {
	out, ok := s.run(ctx, "branch", "-v", "--sort=committerdate")
	if !ok {
		return nil
	}
	return s.parser.ParseBranches(out)
}

// DiffCommits returns the commits of target..source, newest first.
func (s *Service) DiffCommits(ctx context.Context, target, source string) []models.Commit {
	out, ok := s.run(ctx, logArgs(target+".."+source)...)
	if !ok {
		return nil
	}
	return s.parser.ParseCommits(out)
}

// LastCommitForFile returns the most recent commit of branch touching path.
func (s *Service) LastCommitForFile(ctx context.Context, path, branch string) models.Commit {
	out, ok := s.run(ctx, logArgs(branch, "-n", "1", "--", path)...)
	if !ok {
		return models.Commit{}
	}
	commits := s.parser.ParseCommits(out)
	if len(commits) == 0 {
		return models.Commit{}
	}
	return commits[0]
}

// LastCommitForFiles returns, for every path that has history on branch,
// the most recent commit touching it. One git call covers all paths.
func (s *Service) LastCommitForFiles(ctx context.Context, paths []string, branch string) map[string]models.Commit {
	result := make(map[string]models.Commit)
	if len(paths) == 0 {
		return result
	}
	wanted := make(map[string]bool, len(paths))
	for _, p := range paths {
		wanted[p] = true
	}

	args := append([]string{branch, "--"}, paths...)
	out, ok := s.run(ctx, logArgs(args...)...)
	if !ok {
		return result
	}
	for _, commit := range s.parser.ParseCommits(out) {
		if !commit.IsValid() {
			continue
		}
		for _, f := range commit.Files {
			if !wanted[f.Path] {
				continue
			}
			if _, seen := result[f.Path]; !seen {
				result[f.Path] = commit
			}
		}
		if len(result) == len(wanted) {
			break
		}
	}
	return result
}

// Statuses returns the net status of every path changed in target..source.
func (s *Service) Statuses(ctx context.Context, source, target string) map[string]models.FileStatus {
	out, ok := s.run(ctx, "diff", "--name-status", target+".."+source)
	if !ok {
		return map[string]models.FileStatus{}
	}
	return s.parser.ParseStatuses(out)
}

// TempFilePath returns where path at revision is extracted. A short hash of
// the full path keeps same-named files of different directories apart; the
// base name stays last so diff tools still see the extension.
func (s *Service) TempFilePath(path, revision string) string {
	rev := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(revision)
	sum := sha256.Sum256([]byte(path))
	return filepath.Join(s.cfg.DiffDir, fmt.Sprintf("%s-%s-%x-%s", models.TempFilePrefix, rev, sum[:4], filepath.Base(path)))
}

// File extracts path as of revision into the diff directory and returns the
// extracted file. An existing extraction is reused as is.
func (s *Service) File(ctx context.Context, path, revision string) (string, error) {
	root, err := s.RepoRoot(ctx)
	if err != nil {
		return "", err
	}
	if path == "" || revision == "" {
		return "", fmt.Errorf("file and revision are required")
	}

	dest := s.TempFilePath(path, revision)
	if _, err := os.Stat(dest); err == nil {
		s.debugf("reusing %s", dest)
		return dest, nil
	}
	if err := os.MkdirAll(s.cfg.DiffDir, 0o750); err != nil {
		return "", fmt.Errorf("create diff directory: %w", err)
	}

	spec := fmt.Sprintf("%s:%s", revision, filepath.ToSlash(path))
	s.debugf("run: cat-file --filters %s (cwd=%s)", spec, root)
	if err := s.runner.Dump(ctx, root, dest, "cat-file", "--filters", spec); err != nil {
		s.debugf("error: extract %s: %v", spec, err)
		s.notifyOnce("extract:"+spec, fmt.Sprintf("Failed to extract %s at %s", path, revision), SeverityError)
		return "", fmt.Errorf("extract %s: %w", spec, err)
	}
	return dest, nil
}

// GitCommonDir returns the absolute path of the repository's common git directory.
func (s *Service) GitCommonDir(ctx context.Context) string {
	out, ok := s.run(ctx, "rev-parse", "--git-common-dir")
	if !ok {
		return ""
	}
	dir := strings.TrimSpace(out)
	if dir == "" {
		return ""
	}
	if !filepath.IsAbs(dir) {
		root, _ := s.RepoRoot(ctx)
		dir = filepath.Join(root, dir)
	}
	return filepath.Clean(dir)
}

// AbsPath resolves a repository-relative path against the root.
func (s *Service) AbsPath(ctx context.Context, path string) (string, error) {
	root, err := s.RepoRoot(ctx)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, filepath.FromSlash(path)), nil
}
