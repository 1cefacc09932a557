package difftool

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/chmouel/lazydiff/internal/models"
)

// LineKind tells how a line differs.
type LineKind int

// Line kinds.
const (
	LineEqual LineKind = iota
	LineAdded
	LineRemoved
)

// Prefix returns the unified diff marker for the kind.
func (k LineKind) Prefix() string {
	switch k {
	case LineAdded:
		return "+"
	case LineRemoved:
		return "-"
	default:
		return " "
	}
}

// Line is one line of a built-in diff.
type Line struct {
	Kind LineKind
	Text string
}

// Builtin renders a line diff in process.
type Builtin struct {
	files FileSource
}

// NewBuiltin returns the in-process differ.
func NewBuiltin(files FileSource) *Builtin {
	return &Builtin{files: files}
}

// Diff implements Differ.
func (b *Builtin) Diff(ctx context.Context, path string, left, right models.Commit) (Result, error) {
	leftFile, rightFile, err := materialize(ctx, b.files, path, left, right)
	if err != nil {
		return Result{}, err
	}
	// #nosec G304 -- files were extracted into the diff directory by us
	before, err := os.ReadFile(leftFile)
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", leftFile, err)
	}
	// #nosec G304 -- see above
	after, err := os.ReadFile(rightFile)
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", rightFile, err)
	}
	return Result{
		Path:      path,
		Left:      left,
		Right:     right,
		LeftFile:  leftFile,
		RightFile: rightFile,
		Lines:     LineDiff(string(before), string(after)),
	}, nil
}

// LineDiff compares two texts line by line.
func LineDiff(before, after string) []Line {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out []Line
	for _, d := range diffs {
		kind := LineEqual
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			kind = LineAdded
		case diffmatchpatch.DiffDelete:
			kind = LineRemoved
		}
		for _, text := range strings.SplitAfter(d.Text, "\n") {
			if text == "" {
				continue
			}
			out = append(out, Line{Kind: kind, Text: strings.TrimSuffix(text, "\n")})
		}
	}
	return out
}

// Stats counts added and removed lines.
func Stats(lines []Line) (added, removed int) {
	for _, l := range lines {
		switch l.Kind {
		case LineAdded:
			added++
		case LineRemoved:
			removed++
		}
	}
	return added, removed
}

// Render formats lines as unified diff text.
func Render(lines []Line) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.Kind.Prefix())
		b.WriteString(l.Text)
		b.WriteByte('\n')
	}
	return b.String()
}
