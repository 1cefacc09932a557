package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Result is the outcome of one git invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error // set when the process could not be started or waited on
}

// Success reports whether the command ran and exited with code 0.
func (r Result) Success() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Failure describes why the command failed, preferring git's own stderr.
func (r Result) Failure() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	if stderr := strings.TrimSpace(r.Stderr); stderr != "" {
		return stderr
	}
	return fmt.Sprintf("exit %d", r.ExitCode)
}

// Runner executes git. Implementations must be safe for concurrent use.
type Runner interface {
	// Run blocks until the command exits and returns its captured output.
	Run(ctx context.Context, dir string, args ...string) Result
	// Dump streams the command's stdout into dest, which is only written
	// when the command exits with code 0.
	Dump(ctx context.Context, dir, dest string, args ...string) error
}

// ExecRunner runs a git binary through os/exec.
type ExecRunner struct {
	Binary string
}

// NewExecRunner returns a runner for binary, defaulting to "git".
func NewExecRunner(binary string) *ExecRunner {
	if strings.TrimSpace(binary) == "" {
		binary = "git"
	}
	return &ExecRunner{Binary: binary}
}

// LookupPath finds executables in PATH. Tests replace it.
var LookupPath = exec.LookPath

// Available reports whether the configured binary can be found.
func (r *ExecRunner) Available() bool {
	_, err := LookupPath(r.Binary)
	return err == nil
}

func (r *ExecRunner) command(ctx context.Context, dir string, args []string) *exec.Cmd {
	// #nosec G204 -- the binary comes from local config and arguments are never shell interpolated
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	return cmd
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, dir string, args ...string) Result {
	cmd := r.command(ctx, dir, args)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res
		}
		res.ExitCode = -1
		res.Err = err
	}
	return res
}

// Dump implements Runner. Output is drained while the process runs and once
// more after it exits, then written to a sibling temp file and renamed into place.
func (r *ExecRunner) Dump(ctx context.Context, dir, dest string, args ...string) error {
	cmd := r.command(ctx, dir, args)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	var buf bytes.Buffer
	chunk := make([]byte, 32*1024)
	for {
		n, readErr := pipe.Read(chunk)
		buf.Write(chunk[:n])
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			_ = cmd.Wait()
			return readErr
		}
	}

	waitErr := cmd.Wait()
	// the pipe is closed by Wait; anything still buffered was read above
	if waitErr != nil {
		res := Result{Stderr: stderr.String(), Err: waitErr}
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			res = Result{ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return fmt.Errorf("%s %s: %s", r.Binary, strings.Join(args, " "), res.Failure())
	}

	return writeAtomic(dest, buf.Bytes())
}

func writeAtomic(dest string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".partial-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}
