package git_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/chmouel/lazydiff/internal/config"
	"github.com/chmouel/lazydiff/internal/git"
	"github.com/chmouel/lazydiff/internal/git/gittest"
	log "github.com/chmouel/lazydiff/internal/log"
	"github.com/chmouel/lazydiff/internal/models"
)

const (
	logPrefix = "log --pretty=format:<Hash:%h> <Message:%s> <Author:%an> <Date:%ad> --date=format-local:%d/%m/%Y %H:%M --name-status "
)

type notifications struct {
	mu       sync.Mutex
	messages []string
}

func (n *notifications) notify(message, severity string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, severity+": "+message)
}

func (n *notifications) notifyOnce(_ string, message, severity string) {
	n.notify(message, severity)
}

func newTestService(t *testing.T, runner *gittest.Runner) (*git.Service, *notifications, string) {
	t.Helper()
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.RepoDir = root
	cfg.DiffDir = filepath.Join(t.TempDir(), "diffs")
	runner.WithRoot(root)
	n := &notifications{}
	return git.NewService(cfg, runner, n.notify, n.notifyOnce), n, root
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(nil) })
	return &buf
}

func TestRepoRootFallsBackToGit(t *testing.T) {
	runner := gittest.NewRunner()
	svc, _, root := newTestService(t, runner)

	got, err := svc.RepoRoot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, root, got)

	_, err = svc.RepoRoot(context.Background())
	require.NoError(t, err)
	count := 0
	for _, c := range runner.Calls() {
		if strings.Join(c.Args, " ") == "rev-parse --show-toplevel" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestRepoRootFailureNotifies(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RepoDir = t.TempDir()
	n := &notifications{}
	svc := git.NewService(cfg, gittest.NewRunner(), n.notify, n.notifyOnce)

	_, err := svc.RepoRoot(context.Background())
	require.ErrorIs(t, err, git.ErrNoRepository)
	require.Len(t, n.messages, 1)
	assert.Contains(t, n.messages[0], "set repo_dir")
	assert.Empty(t, svc.Branches(context.Background()))
}

func TestMissingBinaryNotifies(t *testing.T) {
	runner := gittest.NewRunner()
	svc, n, _ := newTestService(t, runner)
	runner.OnResult("branch -v --sort=committerdate", git.Result{ExitCode: -1, Err: exec.ErrNotFound})

	assert.Empty(t, svc.Branches(context.Background()))
	require.Len(t, n.messages, 1)
	assert.Contains(t, n.messages[0], "Command not found: git")
}

func TestRepoRootWithGoGit(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	root := t.TempDir()
	require.NoError(t, exec.Command("git", "init", "-q", root).Run())
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	cfg := config.DefaultConfig()
	cfg.RepoDir = sub
	runner := gittest.NewRunner()
	svc := git.NewService(cfg, runner, nil, nil)

	got, err := svc.RepoRoot(context.Background())
	require.NoError(t, err)
	want, _ := filepath.EvalSymlinks(root)
	gotResolved, _ := filepath.EvalSymlinks(got)
	assert.Equal(t, want, gotResolved)
	assert.False(t, runner.Called("rev-parse"))
}

func TestCurrentBranch(t *testing.T) {
	runner := gittest.NewRunner().
		On("rev-parse --abbrev-ref HEAD", "main\n").
		On("rev-parse --short HEAD", "abc1234\n")
	svc, _, _ := newTestService(t, runner)

	assert.Equal(t, models.Branch{Name: "main", Revision: "abc1234"}, svc.CurrentBranch(context.Background()))
}

func TestCurrentBranchFailure(t *testing.T) {
	runner := gittest.NewRunner().
		On("rev-parse --abbrev-ref HEAD", "main\n").
		OnFail("rev-parse --short HEAD", 128, "fatal: bad revision")
	svc, _, _ := newTestService(t, runner)

	assert.False(t, svc.CurrentBranch(context.Background()).IsValid())
}

func TestBranches(t *testing.T) {
	runner := gittest.NewRunner().On("branch -v --sort=committerdate", "  dev 1111111 a\n* main 2222222 b\n")
	svc, _, _ := newTestService(t, runner)

	assert.Equal(t, []models.Branch{
		models.HeadBranch(),
		{Name: "dev", Revision: "1111111"},
		{Name: "main", Revision: "2222222"},
	}, svc.Branches(context.Background()))
}

func TestLastCommitForFiles(t *testing.T) {
	out := gittest.Log(
		gittest.Commit{Hash: "new0001", Message: "m", Author: "a", Date: "01/01/2024 10:00", Files: []string{"M\ta.txt"}},
		gittest.Commit{Hash: "old0002", Message: "m", Author: "a", Date: "01/01/2023 10:00", Files: []string{"A\ta.txt", "A\tb.txt"}},
	)
	runner := gittest.NewRunner().On(logPrefix+"main -- a.txt b.txt c.txt", out)
	svc, _, _ := newTestService(t, runner)

	got := svc.LastCommitForFiles(context.Background(), []string{"a.txt", "b.txt", "c.txt"}, "main")
	require.Len(t, got, 2)
	assert.Equal(t, "new0001", got["a.txt"].Revision)
	assert.Equal(t, "old0002", got["b.txt"].Revision)
	_, ok := got["c.txt"]
	assert.False(t, ok)

	assert.Empty(t, svc.LastCommitForFiles(context.Background(), nil, "main"))
}

func TestLastCommitForFile(t *testing.T) {
	out := gittest.Log(gittest.Commit{Hash: "abc0001", Message: "m", Author: "a", Date: "01/01/2024 10:00", Files: []string{"M\ta.txt"}})
	runner := gittest.NewRunner().On(logPrefix+"main -n 1 -- a.txt", out)
	svc, _, _ := newTestService(t, runner)

	assert.Equal(t, "abc0001", svc.LastCommitForFile(context.Background(), "a.txt", "main").Revision)
	assert.False(t, svc.LastCommitForFile(context.Background(), "b.txt", "main").IsValid())
}

func TestFileExtractsOnceAndReuses(t *testing.T) {
	runner := gittest.NewRunner().Blob("abc1234", "dir/a.txt", "hello\n")
	svc, _, _ := newTestService(t, runner)
	ctx := context.Background()

	path, err := svc.File(ctx, "dir/a.txt", "abc1234")
	require.NoError(t, err)
	assert.Regexp(t, `^temp-abc1234-[0-9a-f]{8}-a\.txt$`, filepath.Base(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))

	again, err := svc.File(ctx, "dir/a.txt", "abc1234")
	require.NoError(t, err)
	assert.Equal(t, path, again)

	dumps := 0
	for _, c := range runner.Calls() {
		if len(c.Args) > 0 && c.Args[0] == "cat-file" {
			dumps++
			assert.Equal(t, []string{"cat-file", "--filters", "abc1234:dir/a.txt"}, c.Args)
		}
	}
	assert.Equal(t, 1, dumps)
}

func TestFileFailure(t *testing.T) {
	runner := gittest.NewRunner()
	svc, n, _ := newTestService(t, runner)

	_, err := svc.File(context.Background(), "missing.txt", "abc1234")
	require.Error(t, err)
	assert.NoFileExists(t, svc.TempFilePath("missing.txt", "abc1234"))
	require.NotEmpty(t, n.messages)
}

func TestTempFilePathSanitisesRevision(t *testing.T) {
	svc, _, _ := newTestService(t, gittest.NewRunner())
	assert.Regexp(t, `^temp-feature_x-[0-9a-f]{8}-a\.txt$`, filepath.Base(svc.TempFilePath("d/a.txt", "feature/x")))
}

func TestFileKeepsSameNamedPathsApart(t *testing.T) {
	runner := gittest.NewRunner().
		Blob("abc1234", "a/README.md", "first\n").
		Blob("abc1234", "b/README.md", "second\n")
	svc, _, _ := newTestService(t, runner)
	ctx := context.Background()

	first, err := svc.File(ctx, "a/README.md", "abc1234")
	require.NoError(t, err)
	second, err := svc.File(ctx, "b/README.md", "abc1234")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
	assert.Equal(t, ".md", filepath.Ext(second))

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(data))
	data, err = os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(data))
}

func TestGitCommonDir(t *testing.T) {
	runner := gittest.NewRunner().On("rev-parse --git-common-dir", ".git\n")
	svc, _, root := newTestService(t, runner)

	assert.Equal(t, filepath.Join(root, ".git"), svc.GitCommonDir(context.Background()))
}

func diffRunner(commits string, statuses string, lastTarget string, paths string) *gittest.Runner {
	return gittest.NewRunner().
		On(logPrefix+"main..feature", commits).
		On("diff --name-status main..feature", statuses).
		On(logPrefix+"main -- "+paths, lastTarget)
}

func TestDiffScenario(t *testing.T) {
	commits := gittest.Log(
		gittest.Commit{Hash: "c100001", Message: "C1", Author: "a", Date: "02/01/2024 10:00", Files: []string{"M\ta/x.txt", "A\ta/y.txt"}},
		gittest.Commit{Hash: "c200002", Message: "C2", Author: "a", Date: "01/01/2024 10:00", Files: []string{"A\tb/z.txt"}},
	)
	lastTarget := gittest.Log(gittest.Commit{Hash: "t000001", Message: "base", Author: "a", Date: "01/12/2023 10:00", Files: []string{"A\ta/x.txt"}})
	runner := diffRunner(commits, "M\ta/x.txt\nA\ta/y.txt\nA\tb/z.txt\n", lastTarget, "a/x.txt a/y.txt b/z.txt")
	svc, _, _ := newTestService(t, runner)

	items := svc.Diff(context.Background(), models.Branch{Name: "feature"}, models.Branch{Name: "main"})
	require.Len(t, items, 3)

	paths := []string{items[0].Path, items[1].Path, items[2].Path}
	assert.Equal(t, []string{"a/x.txt", "a/y.txt", "b/z.txt"}, paths)
	assert.Equal(t, models.StatusModified, items[0].Status)
	assert.Equal(t, "t000001", items[0].LastTargetCommit.Revision)
	assert.False(t, items[1].LastTargetCommit.IsValid())
	assert.Equal(t, "c200002", items[2].Commits[0].Revision)
	assert.True(t, items[0].Asset)
}

func TestDiffStatusMissLogsError(t *testing.T) {
	commits := gittest.Log(gittest.Commit{Hash: "c100001", Message: "C1", Author: "a", Date: "02/01/2024 10:00", Files: []string{"M\ta.txt", "M\tb.txt"}})
	runner := diffRunner(commits, "M\ta.txt\n", "", "a.txt b.txt")
	svc, _, _ := newTestService(t, runner)
	buf := captureLog(t)

	items := svc.Diff(context.Background(), models.Branch{Name: "feature"}, models.Branch{Name: "main"})
	require.Len(t, items, 2)
	assert.Equal(t, models.StatusModified, items[0].Status)
	assert.Equal(t, models.StatusNone, items[1].Status)
	assert.Contains(t, buf.String(), "ERROR: Failed to get status for file b.txt")
	assert.NotContains(t, buf.String(), "status for file a.txt")
}

func TestDiffEmptyRange(t *testing.T) {
	runner := gittest.NewRunner().On(logPrefix+"main..feature", "")
	svc, _, _ := newTestService(t, runner)

	assert.Empty(t, svc.Diff(context.Background(), models.Branch{Name: "feature"}, models.Branch{Name: "main"}))
	assert.False(t, runner.Called("diff"))
}

func TestDiffItemsAlwaysHaveCommits(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		files := rapid.SliceOfN(rapid.SampledFrom([]string{"a/x.txt", "a/y.txt", "b/z.txt", "c.txt", "d/e/f.go"}), 0, 4)
		n := rapid.IntRange(0, 6).Draw(t, "commits")
		var entries []gittest.Commit
		for i := 0; i < n; i++ {
			var lines []string
			for _, f := range files.Draw(t, fmt.Sprintf("files%d", i)) {
				lines = append(lines, "M\t"+f)
			}
			entries = append(entries, gittest.Commit{Hash: fmt.Sprintf("%07x", i+0x1000000), Message: "m", Author: "a", Date: "01/01/2024 10:00", Files: lines})
		}

		runner := gittest.NewRunner().
			On(logPrefix+"main..feature", gittest.Log(entries...)).
			On("diff --name-status *", "").
			On(logPrefix+"main -- *", "").
			On("rev-parse --show-toplevel", "/repo\n")
		cfg := config.DefaultConfig()
		cfg.RepoDir = "/nonexistent-lazydiff-repo"
		svc := git.NewService(cfg, runner, nil, nil)

		items := svc.Diff(context.Background(), models.Branch{Name: "feature"}, models.Branch{Name: "main"})
		seen := map[string]bool{}
		for _, item := range items {
			assert.NotEmpty(t, item.Commits)
			assert.False(t, seen[item.Path])
			seen[item.Path] = true
			for _, c := range item.Commits {
				assert.True(t, c.Touches(item.Path))
			}
		}
	})
}
