// Package entry defines the structured record behind one line of a
// rendered directory listing, plus the parser and renderer that map
// between lines and records.
package entry

import (
	"fmt"
	"time"

	"vdir/internal/constants"
)

// Kind represents the type of a directory child.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
	KindSocket
	KindLink
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindSocket:
		return "socket"
	case KindLink:
		return "link"
	default:
		return "unknown"
	}
}

// Entry represents one child of a directory. ID is empty for an
// entry that exists only as uncommitted buffer text.
type Entry struct {
	Name string
	Kind Kind
	ID   string
	Meta map[string]string

	// Backend attributes carried for column rendering.
	Size     int64
	Modified time.Time

	// LinkTarget holds the resolved target for KindLink entries;
	// LinkTargetIsDir reports whether that target is a directory.
	LinkTarget      string
	LinkTargetIsDir bool
}

// IsDir reports whether navigating into the entry yields a listing:
// a directory, or a link resolving to one.
func (e Entry) IsDir() bool {
	return e.Kind == KindDirectory || (e.Kind == KindLink && e.LinkTargetIsDir)
}

// Column describes one display column contributed by an adapter.
// Render must produce a single whitespace-free token so that parsing
// can skip it positionally.
type Column struct {
	Name   string
	Render func(e Entry) string
}

// FormatSize formats a byte count as a single whitespace-free token.
func FormatSize(size int64) string {
	if size < constants.FileSizeUnit {
		return fmt.Sprintf("%dB", size)
	}
	div, exp := int64(constants.FileSizeUnit), 0
	for n := size / constants.FileSizeUnit; n >= constants.FileSizeUnit; n /= constants.FileSizeUnit {
		div *= constants.FileSizeUnit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(size)/float64(div), constants.FileSizeUnits[exp])
}
