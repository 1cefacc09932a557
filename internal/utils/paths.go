// Package utils holds small helpers shared across lazydiff packages.
package utils

import (
	"crypto/sha256"
	"fmt"
	"path/filepath"
	"strings"
)

// Permissions used for state and scratch files.
const (
	DefaultDirPerms  = 0o750
	DefaultFilePerms = 0o600
)

// RepoKey derives a stable directory name for per-repository state.
func RepoKey(root string) string {
	root = strings.TrimSpace(root)
	if root == "" {
		return ""
	}
	root = filepath.Clean(root)
	sum := sha256.Sum256([]byte(root))
	return fmt.Sprintf("%s-%x", filepath.Base(root), sum[:6])
}
