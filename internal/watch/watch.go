// Package watch signals branch and HEAD changes in a repository by watching
// its git common directory.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	log "github.com/chmouel/lazydiff/internal/log"
)

// Debounce is the minimum time between two refreshes.
const Debounce = 600 * time.Millisecond

// CommonDirResolver resolves the git common directory of the repository.
type CommonDirResolver interface {
	GitCommonDir(ctx context.Context) string
}

// Service watches refs, reflogs and HEAD of one repository.
type Service struct {
	mu          sync.Mutex
	started     bool
	waiting     bool
	commonDir   string
	roots       []string
	paths       map[string]struct{}
	events      chan struct{}
	done        chan struct{}
	watcher     *fsnotify.Watcher
	lastRefresh time.Time
	git         CommonDirResolver
}

// New returns a stopped watcher.
func New(git CommonDirResolver) *Service {
	return &Service{git: git}
}

// Start begins watching. It reports false when there is nothing to watch.
func (w *Service) Start(ctx context.Context) (bool, error) {
	if w.started {
		return false, nil
	}
	commonDir := ""
	if w.git != nil {
		commonDir = w.git.GitCommonDir(ctx)
	}
	if commonDir == "" {
		log.Printf("watch: unable to resolve git common dir")
		return false, nil
	}
	return w.StartDir(commonDir)
}

// StartDir watches commonDir directly.
func (w *Service) StartDir(commonDir string) (bool, error) {
	if w.started {
		return false, nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return false, err
	}

	w.started = true
	w.watcher = watcher
	w.commonDir = commonDir
	w.events = make(chan struct{}, 1)
	w.done = make(chan struct{})
	w.paths = make(map[string]struct{})
	w.roots = []string{
		filepath.Join(commonDir, "refs"),
		filepath.Join(commonDir, "logs"),
	}
	// HEAD and packed-refs live directly in the common dir.
	w.addDir(commonDir)
	for _, root := range w.roots {
		w.addTree(root)
	}
	log.Printf("watch: watching %s (%d directories)", commonDir, w.watchedCount())

	go w.run()
	return true, nil
}

// Started reports whether the watcher is running.
func (w *Service) Started() bool {
	return w.started
}

// Stop stops the watcher.
func (w *Service) Stop() {
	if !w.started {
		return
	}
	close(w.done)
	w.started = false
	if w.watcher != nil {
		_ = w.watcher.Close()
	}
}

// NextEvent returns the event channel unless a receiver is already waiting on it.
func (w *Service) NextEvent() <-chan struct{} {
	if w.events == nil || w.waiting {
		return nil
	}
	w.waiting = true
	return w.events
}

// ResetWaiting is called once an event has been handled.
func (w *Service) ResetWaiting() {
	w.waiting = false
}

// ShouldRefresh applies the debounce window.
func (w *Service) ShouldRefresh(now time.Time) bool {
	if !w.lastRefresh.IsZero() && now.Sub(w.lastRefresh) < Debounce {
		return false
	}
	w.lastRefresh = now
	return true
}

// IsRelevant reports whether a change to path can move a branch or HEAD.
func (w *Service) IsRelevant(path string) bool {
	if path == "" {
		return false
	}
	base := filepath.Base(path)
	if filepath.Dir(path) == w.commonDir && (base == "HEAD" || base == "packed-refs") {
		return true
	}
	for _, root := range w.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Service) signal() {
	select {
	case <-w.done:
		return
	default:
	}
	select {
	case w.events <- struct{}{}:
	default:
	}
}

func (w *Service) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if strings.HasSuffix(event.Name, ".lock") || !w.IsRelevant(event.Name) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				w.maybeWatchNewDir(event.Name)
			}
			w.signal()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("watch: error: %v", err)
		}
	}
}

func (w *Service) maybeWatchNewDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	w.addTree(path)
}

func (w *Service) watchedCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.paths)
}

func (w *Service) addDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.paths[path]; ok {
		return
	}
	if err := w.watcher.Add(path); err != nil {
		log.Printf("watch: add failed for %s: %v", path, err)
		return
	}
	w.paths[path] = struct{}{}
}

func (w *Service) addTree(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		w.addDir(path)
		return nil
	})
}
