package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticDir string

func (d staticDir) GitCommonDir(context.Context) string { return string(d) }

func fakeGitDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "refs", "heads"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "HEAD"), []byte("ref: refs/heads/main\n"), 0o600))
	return dir
}

func TestStartWithoutCommonDir(t *testing.T) {
	w := New(staticDir(""))
	started, err := w.Start(context.Background())
	require.NoError(t, err)
	assert.False(t, started)
	assert.Nil(t, w.NextEvent())
}

func TestIsRelevant(t *testing.T) {
	dir := fakeGitDir(t)
	w := New(staticDir(dir))
	started, err := w.Start(context.Background())
	require.NoError(t, err)
	require.True(t, started)
	t.Cleanup(w.Stop)

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"head", filepath.Join(dir, "HEAD"), true},
		{"packed refs", filepath.Join(dir, "packed-refs"), true},
		{"branch ref", filepath.Join(dir, "refs", "heads", "main"), true},
		{"reflog", filepath.Join(dir, "logs", "HEAD"), true},
		{"index", filepath.Join(dir, "index"), false},
		{"objects", filepath.Join(dir, "objects", "ab"), false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.IsRelevant(tt.path))
		})
	}
}

func TestSignalOnBranchChange(t *testing.T) {
	dir := fakeGitDir(t)
	w := New(staticDir(dir))
	started, err := w.Start(context.Background())
	require.NoError(t, err)
	require.True(t, started)
	t.Cleanup(w.Stop)

	events := w.NextEvent()
	require.NotNil(t, events)
	assert.Nil(t, w.NextEvent(), "only one waiter at a time")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "refs", "heads", "feature"), []byte("abc\n"), 0o600))

	select {
	case <-events:
	case <-time.After(5 * time.Second):
		t.Fatal("no event after a ref was written")
	}
	w.ResetWaiting()
	assert.NotNil(t, w.NextEvent())
}

func TestShouldRefreshDebounce(t *testing.T) {
	w := New(nil)
	now := time.Now()
	assert.True(t, w.ShouldRefresh(now))
	assert.False(t, w.ShouldRefresh(now.Add(Debounce/2)))
	assert.True(t, w.ShouldRefresh(now.Add(Debounce+time.Millisecond)))
}

func TestStopIsIdempotent(t *testing.T) {
	w := New(staticDir(fakeGitDir(t)))
	_, err := w.Start(context.Background())
	require.NoError(t, err)
	assert.True(t, w.Started())
	w.Stop()
	w.Stop()
	assert.False(t, w.Started())
}
