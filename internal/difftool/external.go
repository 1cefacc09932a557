package difftool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	log "github.com/chmouel/lazydiff/internal/log"
	"github.com/chmouel/lazydiff/internal/models"
)

// External runs a user supplied command. In the template {0} and {1} are the
// left and right files, {2} and {3} their revisions.
type External struct {
	Template string
	Shell    string
	files    FileSource
}

// NewExternal returns an External differ running template through sh.
func NewExternal(template string, files FileSource) *External {
	return &External{Template: template, Shell: "sh", files: files}
}

// Command expands the template with shell-quoted arguments.
func (e *External) Command(leftFile, rightFile, leftRev, rightRev string) string {
	return strings.NewReplacer(
		"{0}", shellQuote(leftFile),
		"{1}", shellQuote(rightFile),
		"{2}", shellQuote(leftRev),
		"{3}", shellQuote(rightRev),
	).Replace(e.Template)
}

// Invocation is an external diff ready to run. Whoever runs Cmd hands its
// error to Finish.
type Invocation struct {
	Cmd      *exec.Cmd
	Result   Result
	template string
	stderr   bytes.Buffer
}

// Prepare materializes both revisions and builds the command without running
// it, so a terminal UI can give the tool the terminal first.
func (e *External) Prepare(ctx context.Context, path string, left, right models.Commit) (*Invocation, error) {
	if strings.TrimSpace(e.Template) == "" {
		return nil, fmt.Errorf("external_diff_command is empty")
	}
	leftFile, rightFile, err := materialize(ctx, e.files, path, left, right)
	if err != nil {
		return nil, err
	}

	command := e.Command(leftFile, rightFile, left.Revision, right.Revision)
	log.Printf("difftool: %s", command)
	inv := &Invocation{
		Result:   Result{Path: path, Left: left, Right: right, LeftFile: leftFile, RightFile: rightFile, External: true},
		template: e.Template,
	}
	// #nosec G204 -- the command template comes from the user's own configuration
	inv.Cmd = exec.CommandContext(ctx, e.Shell, "-c", command)
	inv.Cmd.Stderr = io.MultiWriter(os.Stderr, &inv.stderr)
	return inv, nil
}

// Finish turns the exit of Cmd into the diff outcome. Exit codes 1 and 2
// usually mean the configured command is wrong.
func (inv *Invocation) Finish(err error) (Result, error) {
	if err == nil {
		return inv.Result, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		detail := strings.TrimSpace(inv.stderr.String())
		log.Printf("difftool: exit %d: %s", code, detail)
		if code == 1 || code == 2 {
			return inv.Result, fmt.Errorf("external diff failed (exit %d), check the external_diff_command setting: %q", code, inv.template)
		}
		return inv.Result, fmt.Errorf("external diff failed (exit %d): %s", code, detail)
	}
	return inv.Result, fmt.Errorf("run external diff: %w", err)
}

// Diff implements Differ. The tool runs attached to the current terminal.
func (e *External) Diff(ctx context.Context, path string, left, right models.Commit) (Result, error) {
	inv, err := e.Prepare(ctx, path, left, right)
	if err != nil {
		return Result{}, err
	}
	inv.Cmd.Stdin = os.Stdin
	inv.Cmd.Stdout = os.Stdout
	return inv.Finish(inv.Cmd.Run())
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
