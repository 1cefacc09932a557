package gittest

import (
	"fmt"
	"strings"
)

// Commit describes one entry of scripted `git log` output.
type Commit struct {
	Hash    string
	Message string
	Author  string
	Date    string   // DD/MM/YYYY HH:MM
	Files   []string // name-status lines, e.g. "M\ta/x.txt"
}

// Log renders commits the way git log prints them with the lazydiff format.
func Log(commits ...Commit) string {
	var b strings.Builder
	for i, c := range commits {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "<Hash:%s> <Message:%s> <Author:%s> <Date:%s>", c.Hash, c.Message, c.Author, c.Date)
		for _, f := range c.Files {
			b.WriteString("\n" + f)
		}
	}
	return b.String()
}

// WithRoot scripts repository root discovery to answer root.
func (r *Runner) WithRoot(root string) *Runner {
	return r.On("rev-parse --show-toplevel", root+"\n")
}
