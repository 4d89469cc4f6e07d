// Package archive serves the contents of archive files (zip, tar and
// friends) as read-only directory trees. Addresses separate the
// container file from the inner path with "!":
//
//	archive:///home/u/dist.zip!/docs/
//
// Navigating to the parent of the archive root crosses back out into
// the directory containing the container file.
package archive

import (
	"context"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mholt/archives"

	"vdir/internal/adapter"
	"vdir/internal/entry"
	apperrors "vdir/internal/errors"
	"vdir/internal/url"
)

// Adapter lists and reads archive contents. All writes are refused.
type Adapter struct{}

var _ adapter.Adapter = (*Adapter)(nil)
var _ adapter.ParentResolver = (*Adapter)(nil)

// New creates an archive adapter.
func New() *Adapter { return &Adapter{} }

func (a *Adapter) Scheme() string { return "archive" }

// splitPath separates "/container.zip!/inner/" into the host path of
// the container and the archive-relative inner path ("" for root).
func splitPath(p string) (container, inner string, err error) {
	i := strings.Index(p, "!")
	if i < 0 {
		container = strings.TrimSuffix(p, "/")
		if container == "" {
			return "", "", apperrors.NewAdapterError("resolve", p, "empty archive address", nil)
		}
		return container, "", nil
	}
	container = p[:i]
	inner = strings.Trim(p[i+1:], "/")
	if container == "" {
		return "", "", apperrors.NewAdapterError("resolve", p, "empty container path", nil)
	}
	return container, inner, nil
}

func (a *Adapter) open(container string) (fs.FS, error) {
	return archives.FileSystem(context.Background(), url.ToHostPath(container), nil)
}

func (a *Adapter) List(p string) ([]entry.Entry, error) {
	container, inner, err := splitPath(p)
	if err != nil {
		return nil, err
	}
	fsys, err := a.open(container)
	if err != nil {
		return nil, apperrors.NewAdapterError("list", p, "cannot open archive", err)
	}
	dir := inner
	if dir == "" {
		dir = "."
	}
	des, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, apperrors.NewAdapterError("list", p, "cannot list archive directory", err)
	}
	entries := make([]entry.Entry, 0, len(des))
	for _, de := range des {
		kind := entry.KindFile
		if de.IsDir() {
			kind = entry.KindDirectory
		}
		e := entry.Entry{Name: de.Name(), Kind: kind}
		if info, ierr := de.Info(); ierr == nil {
			e.Size = info.Size()
			e.Modified = info.ModTime()
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (a *Adapter) IsModifiable(u url.URL) bool { return false }

func (a *Adapter) Column(name string) *entry.Column {
	if name != "size" {
		return nil
	}
	return &entry.Column{Name: "size", Render: func(e entry.Entry) string {
		if e.Kind == entry.KindDirectory {
			return "-"
		}
		return entry.FormatSize(e.Size)
	}}
}

// NormalizeURL makes the container path absolute and the inner path
// clean. A bare container address becomes the archive root directory.
func (a *Adapter) NormalizeURL(p string) (string, error) {
	container, inner, err := splitPath(p)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(url.ToHostPath(container))
	if err != nil {
		return "", apperrors.NewAdapterError("normalize", p, "cannot resolve container path", err)
	}
	norm := url.FromHostPath(abs) + "!"
	if inner == "" {
		return norm + "/", nil
	}
	norm += "/" + path.Clean(inner)
	if strings.HasSuffix(p, "/") {
		return norm + "/", nil
	}
	// Stat the inner path to mark directories that were typed without
	// a slash.
	if fsys, oerr := a.open(container); oerr == nil {
		if info, serr := fs.Stat(fsys, inner); serr == nil && info.IsDir() {
			norm += "/"
		}
	}
	return norm, nil
}

func (a *Adapter) ReadFile(p string) ([]byte, error) {
	container, inner, err := splitPath(p)
	if err != nil {
		return nil, err
	}
	if inner == "" {
		return nil, apperrors.NewAdapterError("read", p, "archive root is not a file", nil)
	}
	fsys, err := a.open(container)
	if err != nil {
		return nil, apperrors.NewAdapterError("read", p, "cannot open archive", err)
	}
	data, err := fs.ReadFile(fsys, inner)
	if err != nil {
		return nil, apperrors.NewAdapterError("read", p, "cannot read archive member", err)
	}
	return data, nil
}

func (a *Adapter) WriteFile(p string, data []byte) error {
	return apperrors.NewAdapterError("write", p, "archives are read-only", nil)
}

// Parent resolves the parent address. Inside the archive it trims one
// inner segment; at the archive root it crosses out to the local
// directory containing the container file.
func (a *Adapter) Parent(u url.URL) (url.URL, bool) {
	container, inner, err := splitPath(u.Path)
	if err != nil {
		return url.URL{}, false
	}
	if inner != "" {
		parent := path.Dir(inner)
		if parent == "." || parent == "/" {
			return url.URL{Scheme: u.Scheme, Path: container + "!/"}, true
		}
		return url.URL{Scheme: u.Scheme, Path: container + "!/" + parent + "/"}, true
	}
	dir := path.Dir(container)
	if dir == container {
		return url.URL{}, false
	}
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	return url.URL{Scheme: "file", Path: dir}, true
}
