// Package difftool shows the difference between two versions of a file,
// either with a configured external program or as an in-process line diff.
package difftool

import (
	"context"
	"errors"
	"fmt"

	"github.com/chmouel/lazydiff/internal/config"
	"github.com/chmouel/lazydiff/internal/models"
)

// FileSource materializes a file as of a revision and returns its local path.
type FileSource interface {
	File(ctx context.Context, path, revision string) (string, error)
}

// Result is what a diff produced.
type Result struct {
	Path      string
	Left      models.Commit
	Right     models.Commit
	LeftFile  string
	RightFile string
	Lines     []Line // built-in diffs only
	External  bool
}

// Differ compares path between two commits.
type Differ interface {
	Diff(ctx context.Context, path string, left, right models.Commit) (Result, error)
}

// ErrNotDiffable is returned when no tool can show a path.
var ErrNotDiffable = errors.New("no diff tool can show this file")

// Select returns the tool for path: the external command when enabled,
// otherwise the built-in viewer for asset paths.
func Select(cfg *config.AppConfig, files FileSource, path string) (Differ, error) {
	if cfg.EnableExternalDiff {
		return NewExternal(cfg.ExternalDiffCommand, files), nil
	}
	if cfg.IsAsset(path) {
		return NewBuiltin(files), nil
	}
	return nil, fmt.Errorf("%w: %s (enable_external_diff is off)", ErrNotDiffable, path)
}

func materialize(ctx context.Context, files FileSource, path string, left, right models.Commit) (string, string, error) {
	if !left.IsValid() || !right.IsValid() {
		return "", "", fmt.Errorf("both revisions are required to diff %s", path)
	}
	leftFile, err := files.File(ctx, path, left.Revision)
	if err != nil {
		return "", "", err
	}
	rightFile, err := files.File(ctx, path, right.Revision)
	if err != nil {
		return "", "", err
	}
	return leftFile, rightFile, nil
}
