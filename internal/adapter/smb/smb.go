// Package smb serves SMB/CIFS shares under the smb scheme. Addresses
// take the form smb:///host/share/rest; each operation dials its own
// short-lived session, so no connection state survives between calls.
package smb

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/hirochachacha/go-smb2"

	"vdir/internal/adapter"
	"vdir/internal/entry"
	apperrors "vdir/internal/errors"
	"vdir/internal/secret"
	"vdir/internal/url"
)

const dialTimeout = 5 * time.Second

// Adapter lists and mutates SMB shares. Credentials come from the
// secret store; absent credentials go through the prompt, or attempt
// a guest session when no prompt is set.
type Adapter struct {
	store  secret.Store
	prompt func(host, share string) (secret.Credentials, bool, error)
}

var _ adapter.Adapter = (*Adapter)(nil)
var _ adapter.ActionPerformer = (*Adapter)(nil)

// New creates an SMB adapter backed by the credential store.
func New(store secret.Store) *Adapter {
	return &Adapter{store: store}
}

// SetPrompt installs an interactive fallback asked for credentials
// the store does not hold. A true second return persists them.
func (a *Adapter) SetPrompt(fn func(host, share string) (secret.Credentials, bool, error)) {
	a.prompt = fn
}

func (a *Adapter) Scheme() string { return "smb" }

// address is the decomposed form of an smb path.
type address struct {
	host  string
	share string
	rel   string // share-relative, no leading separator, "" for root
}

// splitPath decomposes "/host/share/rest/" into its parts. The host
// and share components are mandatory.
func splitPath(path string) (address, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return address{}, apperrors.NewAdapterError("resolve", path, "smb address needs host and share", nil)
	}
	parts := strings.SplitN(trimmed, "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return address{}, apperrors.NewAdapterError("resolve", path, "smb address needs host and share", nil)
	}
	addr := address{host: parts[0], share: parts[1]}
	if len(parts) == 3 {
		addr.rel = parts[2]
	}
	return addr, nil
}

// withShare dials the host, mounts the share, runs fn and tears the
// session down again. Auth failures evict cached credentials so the
// next attempt prompts fresh.
func (a *Adapter) withShare(addr address, fn func(share *smb2.Share) error) error {
	domain, user, pass := "", "", ""
	have := false
	if a.store != nil {
		if d, u, p, found, err := a.store.Get(addr.host, addr.share); err == nil && found {
			domain, user, pass = d, u, p
			have = true
		}
	}
	if !have && a.prompt != nil {
		creds, persist, err := a.prompt(addr.host, addr.share)
		if err != nil {
			return apperrors.NewAdapterError("connect", addr.host+"/"+addr.share, "credentials required", err)
		}
		domain, user, pass = creds.Domain, creds.User, creds.Pass
		if persist && a.store != nil {
			_ = a.store.Set(addr.host, addr.share, domain, user, pass)
		}
	}

	d := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			User:     user,
			Password: pass,
			Domain:   domain,
		},
	}

	conn, err := net.DialTimeout("tcp", net.JoinHostPort(addr.host, "445"), dialTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	sess, err := d.Dial(conn)
	if err != nil {
		if isAuthError(err) && a.store != nil {
			_ = a.store.Delete(addr.host, addr.share)
		}
		return err
	}
	defer sess.Logoff()

	share, err := sess.Mount(addr.share)
	if err != nil {
		return err
	}
	defer share.Umount()

	if err := fn(share); err != nil {
		if isAuthError(err) && a.store != nil {
			_ = a.store.Delete(addr.host, addr.share)
		}
		return err
	}
	return nil
}

func (a *Adapter) List(path string) ([]entry.Entry, error) {
	addr, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	rel := addr.rel
	if rel == "" {
		rel = "."
	}
	var entries []entry.Entry
	err = a.withShare(addr, func(share *smb2.Share) error {
		fis, rerr := share.ReadDir(rel)
		if rerr != nil {
			return rerr
		}
		entries = make([]entry.Entry, 0, len(fis))
		for _, fi := range fis {
			name := fi.Name()
			if name == "." || name == ".." {
				continue
			}
			kind := entry.KindFile
			if fi.IsDir() {
				kind = entry.KindDirectory
			}
			entries = append(entries, entry.Entry{
				Name:     name,
				Kind:     kind,
				Size:     fi.Size(),
				Modified: fi.ModTime(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.NewAdapterError("list", path, "cannot list share", err)
	}
	return entries, nil
}

func (a *Adapter) IsModifiable(u url.URL) bool {
	// The share root holds hosts and shares, not entries.
	addr, err := splitPath(u.Path)
	return err == nil && (addr.rel != "" || u.IsDir())
}

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
			return e.Modified.Format("2006-01-02T15:04")
		}}
	default:
		return nil
	}
}

// NormalizeURL cleans the address lexically and stats the remote path
// to mark directories. Unreachable paths come back cleaned only.
func (a *Adapter) NormalizeURL(path string) (string, error) {
	addr, err := splitPath(path)
	if err != nil {
		return "", err
	}
	norm := "/" + addr.host + "/" + addr.share
	if addr.rel != "" {
		norm += "/" + addr.rel
	}
	if strings.HasSuffix(path, "/") {
		return norm + "/", nil
	}
	isDir := false
	serr := a.withShare(addr, func(share *smb2.Share) error {
		rel := addr.rel
		if rel == "" {
			rel = "."
		}
		fi, err := share.Stat(rel)
		if err != nil {
			return err
		}
		isDir = fi.IsDir()
		return nil
	})
	if serr == nil && isDir {
		norm += "/"
	}
	return norm, nil
}

func (a *Adapter) ReadFile(path string) ([]byte, error) {
	addr, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	var data []byte
	err = a.withShare(addr, func(share *smb2.Share) error {
		d, rerr := share.ReadFile(addr.rel)
		data = d
		return rerr
	})
	if err != nil {
		return nil, apperrors.NewAdapterError("read", path, "cannot read remote file", err)
	}
	return data, nil
}

func (a *Adapter) WriteFile(path string, data []byte) error {
	addr, err := splitPath(path)
	if err != nil {
		return err
	}
	err = a.withShare(addr, func(share *smb2.Share) error {
		return share.WriteFile(addr.rel, data, 0644)
	})
	if err != nil {
		return apperrors.NewAdapterError("write", path, "cannot write remote file", err)
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
	addr, err := splitPath(strings.TrimSuffix(act.URL.Path, "/"))
	if err != nil {
		return err
	}
	err = a.withShare(addr, func(share *smb2.Share) error {
		switch act.Kind {
		case adapter.ActionCreate:
			if act.URL.IsDir() || act.EntryKind == entry.KindDirectory {
				return share.MkdirAll(addr.rel, 0755)
			}
			f, cerr := share.Create(addr.rel)
			if cerr != nil {
				return cerr
			}
			return f.Close()
		case adapter.ActionDelete:
			return share.RemoveAll(addr.rel)
		}
		return fmt.Errorf("unknown action kind %d", act.Kind)
	})
	if err != nil {
		return apperrors.NewAdapterError("apply", act.URL.String(), "cannot apply change", err)
	}
	return nil
}

func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	e := strings.ToLower(err.Error())
	if strings.Contains(e, "logon is invalid") ||
		strings.Contains(e, "bad username") ||
		strings.Contains(e, "authentication") ||
		strings.Contains(e, "status_logon_failure") ||
		strings.Contains(e, "access is denied") {
		return true
	}
	return false
}
