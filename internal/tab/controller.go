// Package tab holds the state of one open diff session: the changed-file set
// between two branches, its list and tree projections, and the commit actions
// available for the selected file.
package tab

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/chmouel/lazydiff/internal/commands"
	"github.com/chmouel/lazydiff/internal/config"
	log "github.com/chmouel/lazydiff/internal/log"
	"github.com/chmouel/lazydiff/internal/models"
	"github.com/chmouel/lazydiff/internal/tree"
)

// Gateway is the part of the git service a tab needs.
type Gateway interface {
	Diff(ctx context.Context, source, target models.Branch) []models.DiffItem
	AbsPath(ctx context.Context, path string) (string, error)
}

// ViewMode selects the projection shown in the diff panel.
type ViewMode int

// View modes.
const (
	ListMode ViewMode = iota
	TreeMode
)

func (m ViewMode) String() string {
	if m == TreeMode {
		return "tree"
	}
	return "list"
}

// DiffRequest is a pair of revisions of one file to hand to a diff tool.
// Left is the older side.
type DiffRequest struct {
	Path  string
	Left  models.Commit
	Right models.Commit
}

// DiffUnavailableError reports a commit that cannot take part in a diff of Path.
type DiffUnavailableError struct {
	Path     string
	Revision string
	Status   models.FileStatus
}

func (e *DiffUnavailableError) Error() string {
	return fmt.Sprintf("diff is not available for path: %s (commit %s, file status %s)", e.Path, e.Revision, e.Status)
}

// ErrLocationMissing is returned by OpenLocation when the file is not in the work tree.
var ErrLocationMissing = errors.New("file does not exist in the work tree")

// Controller owns the state of one diff session. It is not safe for
// concurrent use; the UI mutates it from its update loop only.
type Controller struct {
	ID     string
	Source models.Branch
	Target models.Branch

	cfg     *config.AppConfig
	gateway Gateway

	items      []models.DiffItem
	original   []*tree.Node
	list       tree.View
	tree       tree.View
	filter     tree.Filter
	filterText string
	sortMode   tree.SortMode
	mode       ViewMode
	loaded     bool
	built      bool // the tree has been shown once; later rebuilds copy expansion

	commitPath      string
	selectedCommits []string

	commands *commands.Registry[*DiffRequest]
	hooks    Hooks
}

// Hooks are the UI actions behind the new-diff and open-location commands.
// A command whose hook is unset is unavailable.
type Hooks struct {
	Context      context.Context
	NewDiff      func()
	ShowLocation func(path string)
}

// SetHooks installs the UI actions run by the command table.
func (c *Controller) SetHooks(h Hooks) {
	c.hooks = h
}

// New returns a controller for the source/target pair. Nothing is loaded
// until CollectDiff runs.
func New(id string, cfg *config.AppConfig, gateway Gateway, source, target models.Branch) *Controller {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	c := &Controller{
		ID:      id,
		Source:  source,
		Target:  target,
		cfg:     cfg,
		gateway: gateway,
	}
	if cfg.SortDescending {
		c.sortMode = tree.Descending
	}
	if cfg.TreeView {
		c.mode = TreeMode
	}
	c.commands = c.buildCommands()
	return c
}

// Title names the session, e.g. "main..feature".
func (c *Controller) Title() string {
	return fmt.Sprintf("%s..%s", c.Target.Name, c.Source.Name)
}

// CollectDiff asks the gateway for the changed-file set and rebuilds both projections.
func (c *Controller) CollectDiff(ctx context.Context) {
	items := c.gateway.Diff(ctx, c.Source, c.Target)
	log.Printf("tab %s: %d changed files in %s", c.ID, len(items), c.Title())
	c.SetItems(items)
}

// SetItems replaces the changed-file set, keeping filter, sort, expansion and
// selection where the paths still exist.
func (c *Controller) SetItems(items []models.DiffItem) {
	sorted := append([]models.DiffItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })
	c.items = sorted
	c.original = tree.BuildList(sorted)
	c.loaded = true
	c.updateItems()
}

// updateItems re-applies the filter: the list is filtered, the tree rebuilt
// from it with the previous expansion copied over, and both re-sorted.
// Only the first non-empty tree starts expanded; a directory missing from the
// previous tree comes back collapsed.
func (c *Controller) updateItems() {
	filtered := tree.FilterList(c.original, c.filter)
	roots := tree.ListToTree(filtered)
	if c.built {
		tree.CopyExpandedState(c.tree.Roots, roots)
	} else {
		tree.ExpandAll(roots)
		c.built = len(roots) > 0
	}

	c.list.SetRoots(tree.SortList(filtered, c.sortMode))
	tree.SortTree(roots, c.sortMode)
	c.tree.SetRoots(roots)
}

// Loaded reports whether CollectDiff or SetItems ran.
func (c *Controller) Loaded() bool {
	return c.loaded
}

// Items returns the whole changed-file set, ignoring the filter.
func (c *Controller) Items() []models.DiffItem {
	return c.items
}

// VisibleCount returns the number of files passing the filter.
func (c *Controller) VisibleCount() int {
	return len(c.list.Roots)
}

// SetSearchFilter filters both projections by raw search text.
func (c *Controller) SetSearchFilter(text string) {
	c.filterText = text
	c.filter = tree.ParseFilter(text)
	c.updateItems()
}

// SearchFilter returns the raw search text.
func (c *Controller) SearchFilter() string {
	return c.filterText
}

// SetSortMode re-sorts both projections.
func (c *Controller) SetSortMode(mode tree.SortMode) {
	c.sortMode = mode
	c.list.SetRoots(tree.SortList(c.list.Roots, mode))
	tree.SortTree(c.tree.Roots, mode)
	c.tree.SetRoots(c.tree.Roots)
}

// ToggleSortMode flips the sort direction.
func (c *Controller) ToggleSortMode() {
	c.SetSortMode(c.sortMode.Toggle())
}

// SortMode returns the current sort direction.
func (c *Controller) SortMode() tree.SortMode {
	return c.sortMode
}

// Mode returns the projection shown in the diff panel.
func (c *Controller) Mode() ViewMode {
	return c.mode
}

// ToggleGroupByDirectory switches between list and tree, carrying the selection over.
func (c *Controller) ToggleGroupByDirectory() {
	key := c.active().SelectedKey()
	if c.mode == ListMode {
		c.mode = TreeMode
	} else {
		c.mode = ListMode
	}
	if key != "" {
		c.selectKey(key)
	}
}

func (c *Controller) active() *tree.View {
	if c.mode == TreeMode {
		return &c.tree
	}
	return &c.list
}

func (c *Controller) other() *tree.View {
	if c.mode == TreeMode {
		return &c.list
	}
	return &c.tree
}

// Rows returns the visible rows of the active projection and the cursor.
func (c *Controller) Rows() ([]tree.Row, int) {
	v := c.active()
	return v.Rows, v.Index
}

// ExpandAll expands every directory of the tree.
func (c *Controller) ExpandAll() {
	tree.ExpandAll(c.tree.Roots)
	c.tree.Refresh()
}

// CollapseAll collapses every directory of the tree.
func (c *Controller) CollapseAll() {
	key := c.tree.SelectedKey()
	tree.CollapseAll(c.tree.Roots)
	c.tree.Refresh()
	if ancestors := tree.Ancestors(c.tree.Roots, strings.TrimSuffix(key, "/")); len(ancestors) > 0 {
		c.tree.RestoreSelection(ancestors[0].Key())
	} else {
		c.tree.RestoreSelection(key)
	}
}

// ToggleExpanded flips the directory under the tree cursor.
func (c *Controller) ToggleExpanded() bool {
	if c.mode != TreeMode {
		return false
	}
	n := c.tree.Selected()
	if n == nil || !n.IsDir() {
		return false
	}
	n.Expanded = !n.Expanded
	c.tree.Refresh()
	c.tree.RestoreSelection(n.Key())
	return true
}

// SelectNode moves the cursor of both projections to path, expanding tree
// directories as needed. A changed file is preferred over a directory of the
// same name. Paths missing from the tree only move the list.
func (c *Controller) SelectNode(path string) bool {
	if c.selectKey(path) {
		return true
	}
	return c.selectKey(path + "/")
}

func (c *Controller) selectKey(key string) bool {
	found := c.tree.Reveal(key)
	if c.list.RestoreSelection(key) {
		found = true
	}
	return found
}

// Move shifts the cursor of the active projection and mirrors the selection
// in the other one.
func (c *Controller) Move(delta int) {
	v := c.active()
	v.Move(delta)
	if n := v.Selected(); n != nil && !n.IsDir() {
		if c.mode == TreeMode {
			c.other().RestoreSelection(n.Key())
		} else {
			c.other().Reveal(n.Key())
		}
	}
}

// SelectedNode returns the node under the cursor of the active projection.
func (c *Controller) SelectedNode() *tree.Node {
	return c.active().Selected()
}

// SelectedItem returns the changed file under the cursor, if any.
func (c *Controller) SelectedItem() (models.DiffItem, bool) {
	n := c.SelectedNode()
	if n == nil || n.Item == nil || !n.Item.IsValid() {
		return models.DiffItem{}, false
	}
	return *n.Item, true
}

// SelectCommits records the commits selected in the commit panel for the
// selected file. Unknown revisions are ignored.
func (c *Controller) SelectCommits(revisions ...string) {
	item, ok := c.SelectedItem()
	c.selectedCommits = nil
	c.commitPath = ""
	if !ok {
		return
	}
	c.commitPath = item.Path
	for _, rev := range revisions {
		if item.CommitIndex(rev) >= 0 {
			c.selectedCommits = append(c.selectedCommits, rev)
		}
	}
}

// ToggleCommit adds or removes revision from the commit selection.
func (c *Controller) ToggleCommit(revision string) {
	selected := c.SelectedCommits()
	revs := make([]string, 0, len(selected)+1)
	removed := false
	for _, commit := range selected {
		if commit.Revision == revision {
			removed = true
			continue
		}
		revs = append(revs, commit.Revision)
	}
	if !removed {
		revs = append(revs, revision)
	}
	c.SelectCommits(revs...)
}

// SelectedCommits returns the selected commits of the selected file, newest first.
// A selection made for another file is ignored.
func (c *Controller) SelectedCommits() []models.Commit {
	item, ok := c.SelectedItem()
	if !ok || item.Path != c.commitPath {
		return nil
	}
	indexes := make([]int, 0, len(c.selectedCommits))
	for _, rev := range c.selectedCommits {
		if idx := item.CommitIndex(rev); idx >= 0 {
			indexes = append(indexes, idx)
		}
	}
	sort.Ints(indexes)
	commits := make([]models.Commit, 0, len(indexes))
	for _, idx := range indexes {
		commits = append(commits, item.Commits[idx])
	}
	return commits
}

// Reset drops the loaded diff and every piece of panel state.
func (c *Controller) Reset() {
	c.items = nil
	c.original = nil
	c.list = tree.View{}
	c.tree = tree.View{}
	c.filter = tree.Filter{}
	c.filterText = ""
	c.selectedCommits = nil
	c.commitPath = ""
	c.loaded = false
	c.built = false
}

// OpenLocation returns the absolute path of the selected node in the work tree.
func (c *Controller) OpenLocation(ctx context.Context) (string, error) {
	n := c.SelectedNode()
	if n == nil {
		return "", errors.New("nothing selected")
	}
	abs, err := c.gateway.AbsPath(ctx, n.Path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("%w: %s", ErrLocationMissing, abs)
	}
	return abs, nil
}

func (c *Controller) newDiff() (*DiffRequest, error) {
	c.hooks.NewDiff()
	return nil, nil
}

func (c *Controller) showLocation() (*DiffRequest, error) {
	ctx := c.hooks.Context
	if ctx == nil {
		ctx = context.Background()
	}
	path, err := c.OpenLocation(ctx)
	if err != nil {
		return nil, err
	}
	c.hooks.ShowLocation(path)
	return nil, nil
}

// IsDiffAvailable reports the first commit that does not touch path with an
// allowed status, or nil when all of them do.
func (c *Controller) IsDiffAvailable(path string, commits ...models.Commit) error {
	for _, commit := range commits {
		status, ok := commit.FileStatus(path)
		if !ok || c.cfg.IsBlacklisted(status) {
			return &DiffUnavailableError{Path: path, Revision: commit.Revision, Status: status}
		}
	}
	return nil
}

func (c *Controller) request(item models.DiffItem, left, right models.Commit) (*DiffRequest, error) {
	if err := c.IsDiffAvailable(item.Path, left, right); err != nil {
		log.Errorf("%v", err)
		return nil, err
	}
	return &DiffRequest{Path: item.Path, Left: left, Right: right}, nil
}

func (c *Controller) diffableItem() (models.DiffItem, bool) {
	item, ok := c.SelectedItem()
	if !ok || len(item.Commits) == 0 || !c.cfg.IsValidForDiff(item.Path) {
		return models.DiffItem{}, false
	}
	return item, true
}

// singleCommit returns the selected file and the index of its one selected commit.
func (c *Controller) singleCommit() (models.DiffItem, int, bool) {
	item, ok := c.diffableItem()
	if !ok {
		return models.DiffItem{}, -1, false
	}
	selected := c.SelectedCommits()
	if len(selected) != 1 {
		return models.DiffItem{}, -1, false
	}
	return item, item.CommitIndex(selected[0].Revision), true
}

// CanDiffAgainstTarget reports whether the newest commit of the file can be
// compared with the last commit of the target touching it.
func (c *Controller) CanDiffAgainstTarget() bool {
	item, ok := c.diffableItem()
	return ok && item.LastTargetCommit.IsValid()
}

// DiffAgainstTarget compares the target's last commit of the file with its newest commit in range.
func (c *Controller) DiffAgainstTarget() (*DiffRequest, error) {
	if !c.CanDiffAgainstTarget() {
		return nil, commands.ErrUnavailable
	}
	item, _ := c.SelectedItem()
	return c.request(item, item.LastTargetCommit, item.Newest())
}

// CanDiffSelectedCommits reports whether exactly two commits are selected.
func (c *Controller) CanDiffSelectedCommits() bool {
	_, ok := c.diffableItem()
	return ok && len(c.SelectedCommits()) == 2
}

// DiffSelectedCommits compares the two selected commits, older on the left.
func (c *Controller) DiffSelectedCommits() (*DiffRequest, error) {
	if !c.CanDiffSelectedCommits() {
		return nil, commands.ErrUnavailable
	}
	item, _ := c.SelectedItem()
	selected := c.SelectedCommits()
	return c.request(item, selected[1], selected[0])
}

// CanDiffAgainstNext reports whether a newer commit follows the selected one.
func (c *Controller) CanDiffAgainstNext() bool {
	_, idx, ok := c.singleCommit()
	return ok && idx > 0
}

// DiffAgainstNext compares the selected commit with the next newer one.
func (c *Controller) DiffAgainstNext() (*DiffRequest, error) {
	if !c.CanDiffAgainstNext() {
		return nil, commands.ErrUnavailable
	}
	item, idx, _ := c.singleCommit()
	return c.request(item, item.Commits[idx], item.Commits[idx-1])
}

// CanDiffAgainstPrevious reports whether an older commit precedes the selected one.
func (c *Controller) CanDiffAgainstPrevious() bool {
	item, idx, ok := c.singleCommit()
	return ok && idx >= 0 && idx < len(item.Commits)-1
}

// DiffAgainstPrevious compares the previous older commit with the selected one.
func (c *Controller) DiffAgainstPrevious() (*DiffRequest, error) {
	if !c.CanDiffAgainstPrevious() {
		return nil, commands.ErrUnavailable
	}
	item, idx, _ := c.singleCommit()
	return c.request(item, item.Commits[idx+1], item.Commits[idx])
}

// DiffAgainstNewest compares the selected commit with the newest one.
func (c *Controller) DiffAgainstNewest() (*DiffRequest, error) {
	if !c.CanDiffAgainstNext() {
		return nil, commands.ErrUnavailable
	}
	item, idx, _ := c.singleCommit()
	return c.request(item, item.Commits[idx], item.Newest())
}

// DiffAgainstOldest compares the oldest commit in range with the selected one.
func (c *Controller) DiffAgainstOldest() (*DiffRequest, error) {
	if !c.CanDiffAgainstPrevious() {
		return nil, commands.ErrUnavailable
	}
	item, idx, _ := c.singleCommit()
	return c.request(item, item.Oldest(), item.Commits[idx])
}

// Commands returns the action table of the session.
func (c *Controller) Commands() *commands.Registry[*DiffRequest] {
	return c.commands
}
