// Package models defines the data objects shared across lazydiff packages.
package models

import (
	"time"
)

// HeadName is the name and revision of the synthetic branch that stands for
// the currently checked-out state.
const HeadName = "HEAD"

// Branch is a named pointer to a revision.
type Branch struct {
	Name     string
	Revision string
}

// HeadBranch returns the synthetic HEAD branch.
func HeadBranch() Branch {
	return Branch{Name: HeadName, Revision: HeadName}
}

// IsValid reports whether the branch has a name.
func (b Branch) IsValid() bool {
	return b.Name != ""
}

// String returns the branch name.
func (b Branch) String() string {
	return b.Name
}

// FileChange is a path touched by a commit and how it was touched.
type FileChange struct {
	Path   string
	Status FileStatus
}

// Commit is a parsed commit with the files it touched.
type Commit struct {
	Revision string
	Message  string
	Author   string
	Date     time.Time
	Files    []FileChange
}

// IsValid reports whether the commit was parsed successfully.
func (c Commit) IsValid() bool {
	return c.Revision != ""
}

// Touches reports whether the commit changed path.
func (c Commit) Touches(path string) bool {
	_, ok := c.FileStatus(path)
	return ok
}

// FileStatus returns the status path has in this commit.
func (c Commit) FileStatus(path string) (FileStatus, bool) {
	for _, f := range c.Files {
		if f.Path == path {
			return f.Status, true
		}
	}
	return StatusNone, false
}

// DiffItem is one file changed somewhere in a diff range, with its history.
type DiffItem struct {
	Path             string
	Status           FileStatus // net status over the whole range
	Asset            bool       // path has one of the configured asset extensions
	LastTargetCommit Commit     // may be invalid when the target has no history for Path
	Commits          []Commit   // newest first, never empty
}

// IsValid reports whether the item has a path.
func (d DiffItem) IsValid() bool {
	return d.Path != ""
}

// CommitIndex returns the position of revision in Commits, or -1.
func (d DiffItem) CommitIndex(revision string) int {
	for i, c := range d.Commits {
		if c.Revision == revision {
			return i
		}
	}
	return -1
}

// Newest returns the most recent commit touching the item.
func (d DiffItem) Newest() Commit {
	if len(d.Commits) == 0 {
		return Commit{}
	}
	return d.Commits[0]
}

// Oldest returns the oldest commit in range touching the item.
func (d DiffItem) Oldest() Commit {
	if len(d.Commits) == 0 {
		return Commit{}
	}
	return d.Commits[len(d.Commits)-1]
}

const (
	// BranchCacheFilename stores the last used source and target branches.
	BranchCacheFilename = "branch-cache.json"
	// TempFilePrefix prefixes extracted historical file versions.
	TempFilePrefix = "temp"
)
