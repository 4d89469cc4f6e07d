// Package adapter defines the capability contract a storage backend
// must satisfy to serve directory buffers, and the registry that maps
// URL schemes to registered backends.
package adapter

import (
	"vdir/internal/entry"
	"vdir/internal/url"
)

// Adapter is a pluggable backend for one scheme. Implementations are
// long-lived shared singletons; the engine never mutates them. List,
// NormalizeURL, ReadFile and WriteFile may block for arbitrarily long
// (network backends) and are always invoked off the host thread.
type Adapter interface {
	// Scheme returns the canonical scheme the adapter serves.
	Scheme() string

	// List returns the children of a directory path.
	List(path string) ([]entry.Entry, error)

	// IsModifiable reports whether buffers for the address accept
	// edits and writes.
	IsModifiable(u url.URL) bool

	// Column returns the display column definition for name, or nil
	// if the backend does not provide it.
	Column(name string) *entry.Column

	// NormalizeURL resolves a path to its canonical form (absolute,
	// symlinks resolved, trailing slash on directories).
	NormalizeURL(path string) (string, error)

	// ReadFile returns the contents of a file address.
	ReadFile(path string) ([]byte, error)

	// WriteFile persists file contents for a file address.
	WriteFile(path string, data []byte) error
}

// ParentResolver is an optional capability: backends whose parent is
// not a plain path prefix (archives crossing back into their
// containing directory) implement it.
type ParentResolver interface {
	Parent(u url.URL) (url.URL, bool)
}

// ActionKind enumerates the mutations the engine can request.
type ActionKind int

const (
	ActionCreate ActionKind = iota
	ActionDelete
)

// Action is one backend mutation computed from edited buffer text.
type Action struct {
	Kind      ActionKind
	URL       url.URL
	EntryKind entry.Kind
}

// ActionPerformer is an optional capability: backends that support
// create/delete implement it so the mutator can apply edits.
type ActionPerformer interface {
	// RenderAction describes the action for confirmation output.
	RenderAction(a Action) string

	// PerformAction applies the action against the backend.
	PerformAction(a Action) error
}
