package tree

import (
	"sort"

	"github.com/maruel/natural"
)

// SortMode orders nodes.
type SortMode int

// Sort modes.
const (
	Ascending SortMode = iota
	Descending
)

func (m SortMode) String() string {
	if m == Descending {
		return "descending"
	}
	return "ascending"
}

// Toggle returns the opposite mode.
func (m SortMode) Toggle() SortMode {
	if m == Descending {
		return Ascending
	}
	return Descending
}

func naturalLess(a, b string, mode SortMode) bool {
	if mode == Descending {
		return natural.Less(b, a)
	}
	return natural.Less(a, b)
}

// SortList drops nodes without a valid item and orders the rest by file name,
// breaking ties on the full path.
func SortList(list []*Node, mode SortMode) []*Node {
	valid := make([]*Node, 0, len(list))
	for _, n := range list {
		if n != nil && n.Item != nil && n.Item.IsValid() {
			valid = append(valid, n)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Name != valid[j].Name {
			return naturalLess(valid[i].Name, valid[j].Name, mode)
		}
		return naturalLess(valid[i].Path, valid[j].Path, mode)
	})
	return valid
}

// SortTree orders every level of the tree by path.
func SortTree(roots []*Node, mode SortMode) {
	sort.SliceStable(roots, func(i, j int) bool {
		return naturalLess(roots[i].Path, roots[j].Path, mode)
	})
	for _, n := range roots {
		if len(n.Children) > 0 {
			SortTree(n.Children, mode)
		}
	}
}
