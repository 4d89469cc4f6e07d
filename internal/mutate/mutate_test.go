package mutate

import (
	"errors"
	"fmt"
	"testing"

	"vdir/internal/adapter"
	"vdir/internal/cache"
	"vdir/internal/entry"
	apperrors "vdir/internal/errors"
	"vdir/internal/host"
	"vdir/internal/host/hosttest"
	"vdir/internal/lifecycle"
	"vdir/internal/url"
	"vdir/internal/view"
)

func discard(format string, args ...interface{}) {}

// fakeAdapter records the actions the mutator applies to it.
type fakeAdapter struct {
	listings   map[string][]entry.Entry
	applied    []adapter.Action
	performErr error
	readOnly   bool
}

func (f *fakeAdapter) Scheme() string { return "file" }

func (f *fakeAdapter) List(path string) ([]entry.Entry, error) {
	return f.listings[path], nil
}

func (f *fakeAdapter) IsModifiable(u url.URL) bool { return !f.readOnly }

func (f *fakeAdapter) Column(name string) *entry.Column { return nil }

func (f *fakeAdapter) NormalizeURL(path string) (string, error) { return path, nil }

func (f *fakeAdapter) ReadFile(path string) ([]byte, error) { return nil, errors.New("not a file") }

func (f *fakeAdapter) WriteFile(path string, data []byte) error { return nil }

// actionAdapter adds the create/delete capability.
type actionAdapter struct {
	fakeAdapter
}

func (f *actionAdapter) RenderAction(a adapter.Action) string {
	return fmt.Sprintf("%d %s", a.Kind, a.URL.String())
}

func (f *actionAdapter) PerformAction(a adapter.Action) error {
	if f.performErr != nil {
		return f.performErr
	}
	f.applied = append(f.applied, a)
	return nil
}

type fixture struct {
	h    *hosttest.Host
	a    *actionAdapter
	ctrl *lifecycle.Controller
	m    *Mutator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	h := hosttest.New()
	a := &actionAdapter{fakeAdapter: fakeAdapter{listings: make(map[string][]entry.Entry)}}
	reg := adapter.NewRegistry()
	if err := reg.Register(a); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	ctrl := lifecycle.NewController(h, reg, cache.New(), view.NewStore(100), nil, "file", discard)
	ctrl.SetTaskRunner(func(fn func()) { fn() })
	m := New(h, ctrl, discard)
	ctrl.SetMutator(m)
	return &fixture{h: h, a: a, ctrl: ctrl, m: m}
}

func (f *fixture) loadDir(t *testing.T, path string, entries []entry.Entry) host.Buffer {
	t.Helper()
	f.a.listings[path] = entries
	b := f.h.CreateBuffer("file://" + path)
	f.ctrl.HandleBufReadRequest(b)
	f.h.Drain()
	if b.LineCount() != len(entries) {
		t.Fatalf("loaded %d lines, want %d", b.LineCount(), len(entries))
	}
	return b
}

func TestCreateFromNewLine(t *testing.T) {
	f := newFixture(t)
	b := f.loadDir(t, "/tmp/", []entry.Entry{{Name: "keep.txt", Kind: entry.KindFile}})

	b.SetLines(append(b.Lines(), "newdir/", "newfile.txt"))
	b.SetModified(true)

	if err := f.m.TryWriteChanges(nil); err != nil {
		t.Fatalf("TryWriteChanges failed: %v", err)
	}
	f.h.Drain()

	if len(f.a.applied) != 2 {
		t.Fatalf("applied %d actions, want 2", len(f.a.applied))
	}
	if f.a.applied[0].Kind != adapter.ActionCreate || f.a.applied[0].URL.Path != "/tmp/newdir/" {
		t.Errorf("action 0 = %+v", f.a.applied[0])
	}
	if f.a.applied[0].EntryKind != entry.KindDirectory {
		t.Errorf("trailing slash should create a directory, got %v", f.a.applied[0].EntryKind)
	}
	if f.a.applied[1].URL.Path != "/tmp/newfile.txt" || f.a.applied[1].EntryKind != entry.KindFile {
		t.Errorf("action 1 = %+v", f.a.applied[1])
	}
	if b.Modified() {
		t.Error("saved buffer should be unmodified")
	}
}

func TestDeleteFromRemovedLine(t *testing.T) {
	f := newFixture(t)
	b := f.loadDir(t, "/tmp/", []entry.Entry{
		{Name: "keep.txt", Kind: entry.KindFile},
		{Name: "gone", Kind: entry.KindDirectory},
	})

	lines := b.Lines()
	b.SetLines(lines[:1]) // drop "gone"
	b.SetModified(true)

	if err := f.m.TryWriteChanges(nil); err != nil {
		t.Fatalf("TryWriteChanges failed: %v", err)
	}
	f.h.Drain()

	if len(f.a.applied) != 1 {
		t.Fatalf("applied %d actions, want 1", len(f.a.applied))
	}
	a := f.a.applied[0]
	if a.Kind != adapter.ActionDelete || a.URL.Path != "/tmp/gone/" {
		t.Errorf("action = %+v", a)
	}
}

func TestDuplicateNameRefused(t *testing.T) {
	f := newFixture(t)
	b := f.loadDir(t, "/tmp/", []entry.Entry{{Name: "a.txt", Kind: entry.KindFile}})

	b.SetLines(append(b.Lines(), "b.txt", "b.txt"))
	b.SetModified(true)

	err := f.m.TryWriteChanges(nil)
	if err == nil {
		t.Fatal("duplicate names must refuse the save")
	}
	if len(f.a.applied) != 0 {
		t.Error("refused save must apply nothing")
	}
	if !b.Modified() {
		t.Error("refused save must leave the buffer modified")
	}
}

func TestCollisionWithCachedEntryRefused(t *testing.T) {
	f := newFixture(t)
	b := f.loadDir(t, "/tmp/", []entry.Entry{{Name: "a.txt", Kind: entry.KindFile}})

	// A new line reuses the name of the cached entry whose line was
	// removed; the identifier is gone so this is a fresh create that
	// collides.
	b.SetLines([]string{"a.txt"})
	b.SetModified(true)

	err := f.m.TryWriteChanges(nil)
	if err == nil {
		t.Fatal("collision with a cached entry must refuse the save")
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Type != apperrors.ErrorTypeBookkeeping {
		t.Errorf("error = %v, want a bookkeeping error", err)
	}
}

func TestValidationCoversAllBuffersBeforeApplying(t *testing.T) {
	f := newFixture(t)
	good := f.loadDir(t, "/tmp/", []entry.Entry{{Name: "a.txt", Kind: entry.KindFile}})
	bad := f.loadDir(t, "/var/", []entry.Entry{{Name: "x", Kind: entry.KindFile}})

	good.SetLines(append(good.Lines(), "new.txt"))
	good.SetModified(true)
	bad.SetLines([]string{"dup", "dup"})
	bad.SetModified(true)

	if err := f.m.TryWriteChanges(nil); err == nil {
		t.Fatal("invalid buffer must refuse the whole save")
	}
	if len(f.a.applied) != 0 {
		t.Errorf("partially applied %d actions, want 0", len(f.a.applied))
	}
}

func TestReadOnlyBackendRefused(t *testing.T) {
	f := newFixture(t)
	b := f.loadDir(t, "/tmp/", []entry.Entry{{Name: "a.txt", Kind: entry.KindFile}})
	f.a.readOnly = true

	b.SetLines(append(b.Lines(), "new.txt"))
	b.SetModified(true)

	err := f.m.TryWriteChanges(nil)
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Type != apperrors.ErrorTypeAdapter {
		t.Errorf("error = %v, want an adapter error", err)
	}
}

func TestDeclinedConfirmationAborts(t *testing.T) {
	f := newFixture(t)
	b := f.loadDir(t, "/tmp/", []entry.Entry{{Name: "a.txt", Kind: entry.KindFile}})

	b.SetLines(append(b.Lines(), "new.txt"))
	b.SetModified(true)

	no := false
	if err := f.m.TryWriteChanges(&no); err == nil {
		t.Fatal("declined confirmation must abort")
	}
	if len(f.a.applied) != 0 {
		t.Error("declined save must apply nothing")
	}
}

func TestWhitespaceOnlyEditJustRerenders(t *testing.T) {
	f := newFixture(t)
	b := f.loadDir(t, "/tmp/", []entry.Entry{{Name: "a.txt", Kind: entry.KindFile}})

	b.SetLines(append(b.Lines(), "", "   "))
	b.SetModified(true)

	if err := f.m.TryWriteChanges(nil); err != nil {
		t.Fatalf("TryWriteChanges failed: %v", err)
	}
	f.h.Drain()

	if len(f.a.applied) != 0 {
		t.Errorf("whitespace edit applied %d actions", len(f.a.applied))
	}
	if b.Modified() || b.LineCount() != 1 {
		t.Errorf("buffer not restored: modified=%v lines=%d", b.Modified(), b.LineCount())
	}
}

func TestRefusedSaveKeepsWhitespaceOnlyEdits(t *testing.T) {
	f := newFixture(t)
	ws := f.loadDir(t, "/tmp/", []entry.Entry{{Name: "a.txt", Kind: entry.KindFile}})
	bad := f.loadDir(t, "/var/", []entry.Entry{{Name: "x", Kind: entry.KindFile}})

	ws.SetLines(append(ws.Lines(), "", "   "))
	ws.SetModified(true)
	bad.SetLines([]string{"dup", "dup"})
	bad.SetModified(true)

	if err := f.m.TryWriteChanges(nil); err == nil {
		t.Fatal("invalid buffer must refuse the whole save")
	}
	f.h.Drain()

	// The whitespace edit belongs to the same refused save and must
	// survive it untouched.
	if !ws.Modified() || ws.LineCount() != 3 {
		t.Errorf("refused save dropped whitespace edits: modified=%v lines=%d", ws.Modified(), ws.LineCount())
	}
}

func TestPerformErrorPropagates(t *testing.T) {
	f := newFixture(t)
	b := f.loadDir(t, "/tmp/", []entry.Entry{{Name: "a.txt", Kind: entry.KindFile}})
	f.a.performErr = errors.New("permission denied")

	b.SetLines(append(b.Lines(), "new.txt"))
	b.SetModified(true)

	if err := f.m.TryWriteChanges(nil); err == nil {
		t.Fatal("perform failure must propagate")
	}
	if !b.Modified() {
		t.Error("failed save must leave the buffer modified")
	}
}
