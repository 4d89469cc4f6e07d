// Package local serves the host filesystem under the file scheme.
package local

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"vdir/internal/adapter"
	"vdir/internal/entry"
	apperrors "vdir/internal/errors"
	"vdir/internal/url"
)

// Config controls which entries the listing shows.
type Config struct {
	// ShowHidden includes dot-prefixed entries.
	ShowHidden bool

	// IgnorePatterns are doublestar globs matched against entry names;
	// matching entries are dropped from listings.
	IgnorePatterns []string
}

// Adapter lists, reads and mutates the local filesystem.
type Adapter struct {
	cfg Config
}

var _ adapter.Adapter = (*Adapter)(nil)
var _ adapter.ActionPerformer = (*Adapter)(nil)

// New creates a local filesystem adapter.
func New(cfg Config) *Adapter {
	return &Adapter{cfg: cfg}
}

func (a *Adapter) Scheme() string { return "file" }

func (a *Adapter) List(path string) ([]entry.Entry, error) {
	dir := hostDir(path)
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.NewAdapterError("list", path, "cannot read directory", err)
	}

	entries := make([]entry.Entry, 0, len(des))
	for _, de := range des {
		name := de.Name()
		if a.skip(dir, name) {
			continue
		}
		e := entry.Entry{Name: name, Kind: kindOf(de.Type())}
		if info, ierr := de.Info(); ierr == nil {
			e.Size = info.Size()
			e.Modified = info.ModTime()
		}
		if e.Kind == entry.KindLink {
			full := filepath.Join(dir, name)
			if target, lerr := os.Readlink(full); lerr == nil {
				e.LinkTarget = target
				if ti, serr := os.Stat(full); serr == nil && ti.IsDir() {
					e.LinkTargetIsDir = true
				}
			}
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (a *Adapter) skip(dir, name string) bool {
	if !a.cfg.ShowHidden && (strings.HasPrefix(name, ".") || isAttrHidden(filepath.Join(dir, name))) {
		return true
	}
	for _, pat := range a.cfg.IgnorePatterns {
		if ok, err := doublestar.Match(pat, name); err == nil && ok {
			return true
		}
	}
	return false
}

func (a *Adapter) IsModifiable(u url.URL) bool { return true }

func (a *Adapter) Column(name string) *entry.Column {
	switch name {
	case "size":
		return &entry.Column{Name: "size", Render: func(e entry.Entry) string {
			if e.Kind == entry.KindDirectory {
				return "-"
			}
			return entry.FormatSize(e.Size)
		}}
	case "mtime":
		return &entry.Column{Name: "mtime", Render: func(e entry.Entry) string {
			if e.Modified.IsZero() {
				return "-"
			}
			return e.Modified.Format(mtimeLayout)
		}}
	default:
		return nil
	}
}

// mtimeLayout keeps the column a single whitespace-free token.
const mtimeLayout = "2006-01-02T15:04"

// NormalizeURL resolves a path to absolute form and marks existing
// directories with a trailing slash. Paths that do not exist come
// back cleaned but otherwise untouched.
func (a *Adapter) NormalizeURL(path string) (string, error) {
	abs, err := filepath.Abs(url.ToHostPath(strings.TrimSuffix(path, "/")))
	if err != nil {
		return "", apperrors.NewAdapterError("normalize", path, "cannot resolve path", err)
	}
	if resolved, rerr := filepath.EvalSymlinks(abs); rerr == nil {
		abs = resolved
	}
	norm := url.FromHostPath(abs)
	if info, serr := os.Stat(abs); serr == nil && info.IsDir() {
		norm = strings.TrimSuffix(norm, "/") + "/"
	}
	return norm, nil
}

func (a *Adapter) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(url.ToHostPath(path))
	if err != nil {
		return nil, apperrors.NewAdapterError("read", path, "cannot read file", err)
	}
	return data, nil
}

func (a *Adapter) WriteFile(path string, data []byte) error {
	if err := os.WriteFile(url.ToHostPath(path), data, 0644); err != nil {
		return apperrors.NewAdapterError("write", path, "cannot write file", err)
	}
	return nil
}

func (a *Adapter) RenderAction(act adapter.Action) string {
	verb := "CREATE"
	if act.Kind == adapter.ActionDelete {
		verb = "DELETE"
	}
	return fmt.Sprintf("%s %s", verb, act.URL.String())
}

func (a *Adapter) PerformAction(act adapter.Action) error {
	p := url.ToHostPath(strings.TrimSuffix(act.URL.Path, "/"))
	switch act.Kind {
	case adapter.ActionCreate:
		if act.URL.IsDir() || act.EntryKind == entry.KindDirectory {
			if err := os.MkdirAll(p, 0755); err != nil {
				return apperrors.NewAdapterError("create", act.URL.String(), "cannot create directory", err)
			}
			return nil
		}
		f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err != nil {
			return apperrors.NewAdapterError("create", act.URL.String(), "cannot create file", err)
		}
		return f.Close()
	case adapter.ActionDelete:
		if err := os.RemoveAll(p); err != nil {
			return apperrors.NewAdapterError("delete", act.URL.String(), "cannot delete entry", err)
		}
		return nil
	}
	return apperrors.NewAdapterError("apply", act.URL.String(), "unknown action", nil)
}

// ModifiedAt reports the directory's own modification time, used for
// cheap staleness polling.
func (a *Adapter) ModifiedAt(path string) (time.Time, error) {
	info, err := os.Stat(hostDir(path))
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func hostDir(path string) string {
	dir := url.ToHostPath(strings.TrimSuffix(path, "/"))
	if dir == "" {
		dir = string(filepath.Separator)
	}
	return dir
}

func kindOf(mode fs.FileMode) entry.Kind {
	switch {
	case mode.IsDir():
		return entry.KindDirectory
	case mode&fs.ModeSymlink != 0:
		return entry.KindLink
	case mode&fs.ModeSocket != 0:
		return entry.KindSocket
	default:
		return entry.KindFile
	}
}
