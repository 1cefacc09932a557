package git_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chmouel/lazydiff/internal/git"
)

func shellRunner(t *testing.T) *git.ExecRunner {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	return git.NewExecRunner("sh")
}

func TestExecRunnerRun(t *testing.T) {
	r := shellRunner(t)

	res := r.Run(context.Background(), t.TempDir(), "-c", "printf out; printf err >&2")
	assert.True(t, res.Success())
	assert.Equal(t, "out", res.Stdout)
	assert.Equal(t, "err", res.Stderr)

	res = r.Run(context.Background(), "", "-c", "echo broken >&2; exit 3")
	assert.False(t, res.Success())
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "broken", res.Failure())
}

func TestExecRunnerMissingBinary(t *testing.T) {
	res := git.NewExecRunner("lazydiff-no-such-binary").Run(context.Background(), "")
	require.Error(t, res.Err)
	assert.False(t, res.Success())
}

func TestExecRunnerDump(t *testing.T) {
	r := shellRunner(t)
	dir := t.TempDir()
	dest := filepath.Join(dir, "blob")

	// larger than one read chunk
	err := r.Dump(context.Background(), dir, dest, "-c", "head -c 100000 /dev/zero")
	require.NoError(t, err)
	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), info.Size())

	failed := filepath.Join(dir, "failed")
	err = r.Dump(context.Background(), dir, failed, "-c", "printf partial; exit 1")
	require.Error(t, err)
	assert.NoFileExists(t, failed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestNewExecRunnerDefaultsToGit(t *testing.T) {
	assert.Equal(t, "git", git.NewExecRunner(" ").Binary)
}
