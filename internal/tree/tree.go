// Package tree projects a changed-file set into a flat list or a directory
// hierarchy and keeps expansion, sorting and filtering consistent between them.
package tree

import (
	"path"
	"strings"

	"github.com/chmouel/lazydiff/internal/models"
)

// Node is a directory (Item == nil) or a changed file (Item set, no children).
type Node struct {
	Path     string // full slash separated path, e.g. "internal/app"
	Name     string // last path segment
	Expanded bool   // directories only
	Item     *models.DiffItem
	Children []*Node
}

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool {
	return n.Item == nil
}

// Key identifies the node among its siblings. A file and a directory can share
// a path when a range deletes one and adds the other, so directories carry a
// trailing slash.
func (n *Node) Key() string {
	if n.IsDir() {
		return n.Path + "/"
	}
	return n.Path
}

func newLeaf(item models.DiffItem) *Node {
	return &Node{Path: item.Path, Name: path.Base(item.Path), Item: &item}
}

// BuildList returns one leaf per item, in input order.
func BuildList(items []models.DiffItem) []*Node {
	nodes := make([]*Node, 0, len(items))
	for _, item := range items {
		nodes = append(nodes, newLeaf(item))
	}
	return nodes
}

// BuildTree splits every path on "/" and hangs the item under its directories.
// Directories are created once per path and reused by later items. Directories
// and files are keyed apart, so a file "docs" and a directory "docs" end up as
// two siblings with distinct keys.
func BuildTree(items []models.DiffItem) []*Node {
	var roots []*Node
	dirs := make(map[string]*Node)

	for _, item := range items {
		parts := strings.Split(item.Path, "/")
		var parent *Node
		for j := range parts[:len(parts)-1] {
			dirPath := strings.Join(parts[:j+1], "/")
			dir, ok := dirs[dirPath]
			if !ok {
				dir = &Node{Path: dirPath, Name: parts[j]}
				dirs[dirPath] = dir
				if parent == nil {
					roots = append(roots, dir)
				} else {
					parent.Children = append(parent.Children, dir)
				}
			}
			parent = dir
		}

		leaf := newLeaf(item)
		if parent == nil {
			roots = append(roots, leaf)
		} else {
			parent.Children = append(parent.Children, leaf)
		}
	}
	return roots
}

// TreeToList collects the leaves of a tree in pre-order.
func TreeToList(roots []*Node) []*Node {
	var list []*Node
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			if n.Item != nil {
				list = append(list, newLeaf(*n.Item))
				continue
			}
			walk(n.Children)
		}
	}
	walk(roots)
	return list
}

// ListToTree rebuilds a tree from the items of a flat list.
func ListToTree(list []*Node) []*Node {
	return BuildTree(Items(list))
}

// Items returns the items of every leaf in pre-order.
func Items(nodes []*Node) []models.DiffItem {
	var items []models.DiffItem
	for _, n := range nodes {
		if n.Item != nil {
			items = append(items, *n.Item)
		}
		items = append(items, Items(n.Children)...)
	}
	return items
}

// CopyExpandedState copies the Expanded flag of directories in from onto the
// directories with the same path in to. Directories unknown to from stay as they are.
func CopyExpandedState(from, to []*Node) {
	byPath := make(map[string]*Node, len(from))
	for _, n := range from {
		if n.IsDir() {
			byPath[n.Path] = n
		}
	}
	for _, n := range to {
		if !n.IsDir() {
			continue
		}
		old, ok := byPath[n.Path]
		if !ok {
			continue
		}
		n.Expanded = old.Expanded
		CopyExpandedState(old.Children, n.Children)
	}
}

// Find returns the node with path, searching breadth first. When a file and a
// directory share the path the directory wins.
func Find(roots []*Node, p string) *Node {
	if dir := FindKey(roots, p+"/"); dir != nil {
		return dir
	}
	return FindKey(roots, p)
}

// FindKey returns the node whose Key is key, searching breadth first.
func FindKey(roots []*Node, key string) *Node {
	queue := append([]*Node(nil), roots...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n.Key() == key {
			return n
		}
		queue = append(queue, n.Children...)
	}
	return nil
}

// Ancestors returns the directories leading to path, outermost first. The
// chain is the same whether path names a file or a directory.
func Ancestors(roots []*Node, p string) []*Node {
	var chain []*Node
	nodes := roots
	for {
		var next *Node
		for _, n := range nodes {
			if n.Path == p {
				return chain
			}
			if n.IsDir() && strings.HasPrefix(p, n.Path+"/") {
				next = n
				break
			}
		}
		if next == nil {
			return nil
		}
		chain = append(chain, next)
		nodes = next.Children
	}
}

// ExpandTo expands every ancestor of path and reports whether path exists.
func ExpandTo(roots []*Node, p string) bool {
	if Find(roots, p) == nil {
		return false
	}
	for _, dir := range Ancestors(roots, p) {
		dir.Expanded = true
	}
	return true
}

// SetExpanded sets the expansion of every directory.
func SetExpanded(roots []*Node, expanded bool) {
	for _, n := range roots {
		if n.IsDir() {
			n.Expanded = expanded
			SetExpanded(n.Children, expanded)
		}
	}
}

// ExpandAll expands every directory.
func ExpandAll(roots []*Node) { SetExpanded(roots, true) }

// CollapseAll collapses every directory.
func CollapseAll(roots []*Node) { SetExpanded(roots, false) }

// CountFiles returns the number of leaves at or below n.
func CountFiles(n *Node) int {
	if n == nil {
		return 0
	}
	if n.Item != nil {
		return 1
	}
	count := 0
	for _, c := range n.Children {
		count += CountFiles(c)
	}
	return count
}

// Row is a visible node with its indentation depth.
type Row struct {
	Node  *Node
	Depth int
}

// Flatten returns the visible rows; children of collapsed directories are hidden.
func Flatten(roots []*Node) []Row {
	var rows []Row
	var walk func(nodes []*Node, depth int)
	walk = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			rows = append(rows, Row{Node: n, Depth: depth})
			if n.IsDir() && n.Expanded {
				walk(n.Children, depth+1)
			}
		}
	}
	walk(roots, 0)
	return rows
}
