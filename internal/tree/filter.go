package tree

import "strings"

// Filter matches item paths against whitespace separated, case-insensitive terms.
// Every term must be a substring of the path.
type Filter struct {
	terms []string
}

// ParseFilter builds a Filter from the raw search text.
func ParseFilter(raw string) Filter {
	return Filter{terms: strings.Fields(strings.ToLower(raw))}
}

// IsEmpty reports whether the filter passes everything.
func (f Filter) IsEmpty() bool {
	return len(f.terms) == 0
}

// Match reports whether path satisfies every term.
func (f Filter) Match(path string) bool {
	lower := strings.ToLower(path)
	for _, term := range f.terms {
		if !strings.Contains(lower, term) {
			return false
		}
	}
	return true
}

// FilterList keeps the leaves whose path matches.
func FilterList(list []*Node, f Filter) []*Node {
	out := make([]*Node, 0, len(list))
	for _, n := range list {
		if n.Item != nil && f.Match(n.Item.Path) {
			out = append(out, n)
		}
	}
	return out
}

// FilterTree returns a copy of the tree without the leaves that do not match,
// pruning directories left with nothing below them.
func FilterTree(roots []*Node, f Filter) []*Node {
	var out []*Node
	for _, n := range roots {
		if n.Item != nil {
			if f.Match(n.Item.Path) {
				leaf := *n
				out = append(out, &leaf)
			}
			continue
		}
		children := FilterTree(n.Children, f)
		if len(children) == 0 {
			continue
		}
		dir := *n
		dir.Children = children
		out = append(out, &dir)
	}
	return out
}
