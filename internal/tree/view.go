package tree

import "strings"

// View is a cursor over the visible rows of a projection.
type View struct {
	Roots []*Node
	Rows  []Row
	Index int
}

// SetRoots replaces the projection and keeps the cursor on the same node when possible.
func (v *View) SetRoots(roots []*Node) {
	selected := v.SelectedKey()
	v.Roots = roots
	v.Refresh()
	if !v.RestoreSelection(selected) {
		v.Clamp()
	}
}

// Refresh recomputes the visible rows after an expansion change.
func (v *View) Refresh() {
	v.Rows = Flatten(v.Roots)
	v.Clamp()
}

// Selected returns the node under the cursor.
func (v *View) Selected() *Node {
	if v.Index >= 0 && v.Index < len(v.Rows) {
		return v.Rows[v.Index].Node
	}
	return nil
}

// SelectedPath returns the path under the cursor.
func (v *View) SelectedPath() string {
	if n := v.Selected(); n != nil {
		return n.Path
	}
	return ""
}

// SelectedKey returns the Key of the node under the cursor.
func (v *View) SelectedKey() string {
	if n := v.Selected(); n != nil {
		return n.Key()
	}
	return ""
}

// RestoreSelection moves the cursor to the node with key if it is visible.
func (v *View) RestoreSelection(key string) bool {
	if key == "" {
		return false
	}
	for i, row := range v.Rows {
		if row.Node.Key() == key {
			v.Index = i
			return true
		}
	}
	return false
}

// Reveal expands the ancestors of the node with key and moves the cursor to it.
func (v *View) Reveal(key string) bool {
	if FindKey(v.Roots, key) == nil {
		return false
	}
	for _, dir := range Ancestors(v.Roots, strings.TrimSuffix(key, "/")) {
		dir.Expanded = true
	}
	v.Refresh()
	return v.RestoreSelection(key)
}

// Move shifts the cursor by delta rows.
func (v *View) Move(delta int) {
	v.Index += delta
	v.Clamp()
}

// Clamp keeps Index inside the visible rows.
func (v *View) Clamp() {
	if v.Index >= len(v.Rows) {
		v.Index = len(v.Rows) - 1
	}
	if v.Index < 0 {
		v.Index = 0
	}
}
