// Package gittest provides a scripted git.Runner for tests.
package gittest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/chmouel/lazydiff/internal/git"
)

// Call records one invocation.
type Call struct {
	Dir  string
	Args []string
}

// Runner answers git invocations from a script keyed by the joined arguments.
// Keys ending in "*" match any invocation with that prefix.
type Runner struct {
	mu      sync.Mutex
	results map[string]git.Result
	blobs   map[string]string
	calls   []Call
}

// NewRunner returns an empty scripted runner. Unscripted commands fail with exit 128.
func NewRunner() *Runner {
	return &Runner{results: map[string]git.Result{}, blobs: map[string]string{}}
}

// On scripts a successful invocation.
func (r *Runner) On(args string, stdout string) *Runner {
	return r.OnResult(args, git.Result{Stdout: stdout})
}

// OnFail scripts a failing invocation.
func (r *Runner) OnFail(args string, exitCode int, stderr string) *Runner {
	return r.OnResult(args, git.Result{ExitCode: exitCode, Stderr: stderr})
}

// OnResult scripts an arbitrary result.
func (r *Runner) OnResult(args string, res git.Result) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[args] = res
	return r
}

// Blob scripts the content returned by cat-file for revision:path.
func (r *Runner) Blob(revision, path, content string) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blobs[revision+":"+path] = content
	return r
}

// Calls returns the recorded invocations.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Called reports whether an invocation starting with prefix was made.
func (r *Runner) Called(prefix string) bool {
	for _, c := range r.Calls() {
		if strings.HasPrefix(strings.Join(c.Args, " "), prefix) {
			return true
		}
	}
	return false
}

func (r *Runner) lookup(joined string) (git.Result, bool) {
	if res, ok := r.results[joined]; ok {
		return res, true
	}
	best := ""
	var found git.Result
	for key, res := range r.results {
		prefix, ok := strings.CutSuffix(key, "*")
		if ok && strings.HasPrefix(joined, prefix) && len(prefix) >= len(best) {
			best, found = prefix, res
		}
	}
	return found, best != ""
}

// Run implements git.Runner.
func (r *Runner) Run(_ context.Context, dir string, args ...string) git.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Dir: dir, Args: append([]string(nil), args...)})

	joined := strings.Join(args, " ")
	if res, ok := r.lookup(joined); ok {
		return res
	}
	return git.Result{ExitCode: 128, Stderr: "unscripted: " + joined}
}

// Dump implements git.Runner for cat-file invocations.
func (r *Runner) Dump(_ context.Context, dir, dest string, args ...string) error {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Dir: dir, Args: append([]string(nil), args...)})
	spec := ""
	if len(args) > 0 {
		spec = args[len(args)-1]
	}
	content, ok := r.blobs[spec]
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("fatal: path %q does not exist", spec)
	}
	return os.WriteFile(dest, []byte(content), 0o600)
}
