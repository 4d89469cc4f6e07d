// Package url models scheme-qualified addresses into storage trees.
// An address is a scheme plus a slash-normalized path; directory
// addresses always carry a trailing slash, file addresses never do.
package url

import (
	"path/filepath"
	"strings"
)

// URL is an immutable address value. Compare with ==.
type URL struct {
	Scheme string
	Path   string
}

// String returns the canonical textual form scheme://path.
func (u URL) String() string {
	return u.Scheme + "://" + u.Path
}

// IsDir reports whether the address designates a directory.
func (u URL) IsDir() bool {
	return strings.HasSuffix(u.Path, "/")
}

// Name returns the last path element without a trailing slash.
func (u URL) Name() string {
	p := strings.TrimSuffix(u.Path, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// Join appends a child name to a directory address. A name ending in
// a slash produces a directory address.
func (u URL) Join(name string) URL {
	base := u.Path
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return URL{Scheme: u.Scheme, Path: base + name}
}

// Parse splits raw into scheme and path on the first "://". Inputs
// without a scheme prefix yield ok=false and callers treat them as
// plain host paths.
func Parse(raw string) (URL, bool) {
	i := strings.Index(raw, "://")
	if i <= 0 {
		return URL{}, false
	}
	return URL{Scheme: raw[:i], Path: raw[i+3:]}, true
}

// AddSlash ensures the address path carries a trailing slash.
// Idempotent: applying it twice equals applying it once.
func AddSlash(u URL) URL {
	if strings.HasSuffix(u.Path, "/") {
		return u
	}
	u.Path += "/"
	return u
}

// FromHostPath converts a platform-native path into the normalized
// slash-separated form.
func FromHostPath(p string) string {
	return filepath.ToSlash(p)
}

// ToHostPath converts a normalized slash path back into the
// platform-native form. Round-trip safe with FromHostPath for paths
// without platform-reserved characters.
func ToHostPath(p string) string {
	return filepath.FromSlash(p)
}
