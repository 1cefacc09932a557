package models

// FileStatus is how a file changed, as reported by git --name-status.
type FileStatus int

// File statuses. StatusNone marks a status that could not be parsed.
const (
	StatusNone FileStatus = iota
	StatusAdded
	StatusModified
	StatusDeleted
	StatusRenamed
	StatusCopied
	StatusUnmerged
)

var statusNames = map[FileStatus]string{
	StatusNone:     "None",
	StatusAdded:    "Added",
	StatusModified: "Modified",
	StatusDeleted:  "Deleted",
	StatusRenamed:  "Renamed",
	StatusCopied:   "Copied",
	StatusUnmerged: "Unmerged",
}

// ParseFileStatus maps a name-status code to a FileStatus.
// Only the first character is significant, so "R100" is a rename.
func ParseFileStatus(code string) FileStatus {
	if code == "" {
		return StatusNone
	}
	switch code[0] {
	case 'A':
		return StatusAdded
	case 'M':
		return StatusModified
	case 'D':
		return StatusDeleted
	case 'R':
		return StatusRenamed
	case 'C':
		return StatusCopied
	case 'U':
		return StatusUnmerged
	default:
		return StatusNone
	}
}

// ParseFileStatusName maps a status name ("Deleted", "deleted") back to a FileStatus.
func ParseFileStatusName(name string) (FileStatus, bool) {
	for status, n := range statusNames {
		if equalFold(n, name) {
			return status, true
		}
	}
	return StatusNone, false
}

func (s FileStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return statusNames[StatusNone]
}

// Code returns the single-letter code for the status, "?" for StatusNone.
func (s FileStatus) Code() string {
	switch s {
	case StatusAdded:
		return "A"
	case StatusModified:
		return "M"
	case StatusDeleted:
		return "D"
	case StatusRenamed:
		return "R"
	case StatusCopied:
		return "C"
	case StatusUnmerged:
		return "U"
	default:
		return "?"
	}
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
