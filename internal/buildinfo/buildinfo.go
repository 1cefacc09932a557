// Package buildinfo holds the build metadata of the lazydiff binary.
// cmd/lazydiff receives it from the linker and hands it over with Set.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

const (
	unsetVersion = "dev"
	unsetCommit  = "none"
	unsetField   = "unknown"
)

var (
	version = unsetVersion
	commit  = unsetCommit
	date    = unsetField
	builtBy = unsetField
)

// Set records the linker provided values.
func Set(v, c, d, b string) {
	version = v
	commit = c
	date = d
	builtBy = b
}

// Version returns the release version, "dev" for local builds.
func Version() string { return version }

// Commit returns the source revision.
func Commit() string { return commit }

// Date returns the build date.
func Date() string { return date }

// BuiltBy returns the builder, or the Go version after Enrich.
func BuiltBy() string { return builtBy }

// Enrich fills the commit from the embedded VCS revision and the builder
// from the Go version when the linker left them unset.
func Enrich() {
	if commit != unsetCommit && builtBy != unsetField {
		return
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if commit == unsetCommit {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				commit = shortRevision(setting.Value)
			}
		}
	}
	if builtBy == unsetField {
		builtBy = info.GoVersion
	}
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

// Summary is the line printed by --version, e.g.
// "v0.3.0 (commit abc123, built 2025-01-01 by goreleaser)".
func Summary() string {
	var details string
	switch {
	case commit != unsetCommit && date != unsetField:
		details = fmt.Sprintf("commit %s, built %s", commit, date)
	case commit != unsetCommit:
		details = "commit " + commit
	case date != unsetField:
		details = "built " + date
	}
	if builtBy != unsetField {
		if details != "" {
			details += " "
		}
		details += "by " + builtBy
	}
	if details == "" {
		return version
	}
	return fmt.Sprintf("%s (%s)", version, details)
}
