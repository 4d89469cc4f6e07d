package watcher

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"vdir/internal/adapter"
	"vdir/internal/cache"
	"vdir/internal/entry"
	"vdir/internal/host"
	"vdir/internal/host/hosttest"
	"vdir/internal/lifecycle"
	"vdir/internal/url"
	"vdir/internal/view"
)

func dummyDebug(format string, args ...interface{}) {}

// fakeAdapter serves swappable listings.
type fakeAdapter struct {
	listings map[string][]entry.Entry
	listErr  error
}

func (f *fakeAdapter) Scheme() string { return "file" }
func (f *fakeAdapter) List(path string) ([]entry.Entry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listings[path], nil
}
func (f *fakeAdapter) IsModifiable(u url.URL) bool              { return true }
func (f *fakeAdapter) Column(name string) *entry.Column         { return nil }
func (f *fakeAdapter) NormalizeURL(path string) (string, error) { return path, nil }
func (f *fakeAdapter) ReadFile(path string) ([]byte, error)     { return nil, nil }
func (f *fakeAdapter) WriteFile(path string, data []byte) error { return nil }

type fixture struct {
	h    *hosttest.Host
	a    *fakeAdapter
	ctrl *lifecycle.Controller
	w    *Watcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	h := hosttest.New()
	a := &fakeAdapter{listings: make(map[string][]entry.Entry)}
	reg := adapter.NewRegistry()
	if err := reg.Register(a); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	ctrl := lifecycle.NewController(h, reg, cache.New(), view.NewStore(100), nil, "file", dummyDebug)
	ctrl.SetTaskRunner(func(fn func()) { fn() })
	w := New(h, ctrl, time.Second, dummyDebug)
	w.SetTaskRunner(func(fn func()) { fn() })
	return &fixture{h: h, a: a, ctrl: ctrl, w: w}
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

func TestPollRefreshesDriftedView(t *testing.T) {
	f := newFixture(t)
	old := time.Now().Add(-time.Hour)
	b := f.loadDir(t, "/tmp/", []entry.Entry{{Name: "a.txt", Kind: entry.KindFile, Size: 10, Modified: old}})

	f.a.listings["/tmp/"] = []entry.Entry{
		{Name: "a.txt", Kind: entry.KindFile, Size: 10, Modified: old},
		{Name: "b.txt", Kind: entry.KindFile, Size: 5, Modified: time.Now()},
	}
	f.w.Poll()
	f.h.Drain()

	if b.LineCount() != 2 {
		t.Errorf("drifted view has %d lines after poll, want 2", b.LineCount())
	}
}

func TestPollLeavesFreshViewAlone(t *testing.T) {
	f := newFixture(t)
	old := time.Now().Add(-time.Hour)
	b := f.loadDir(t, "/tmp/", []entry.Entry{{Name: "a.txt", Kind: entry.KindFile, Size: 10, Modified: old}})
	before := b.Lines()

	f.w.Poll()
	f.h.Drain()

	after := b.Lines()
	if len(after) != len(before) || after[0] != before[0] {
		t.Error("unchanged view must not be rewritten")
	}
}

func TestPollDetectsSizeAndTimeDrift(t *testing.T) {
	f := newFixture(t)
	old := time.Now().Add(-time.Hour)
	f.loadDir(t, "/tmp/", []entry.Entry{{Name: "a.txt", Kind: entry.KindFile, Size: 10, Modified: old}})

	// Same name, new size and mtime.
	f.a.listings["/tmp/"] = []entry.Entry{{Name: "a.txt", Kind: entry.KindFile, Size: 20, Modified: time.Now()}}
	f.w.Poll()
	f.h.Drain()

	if got := f.ctrl.Cache().ListURL(url.URL{Scheme: "file", Path: "/tmp/"})["a.txt"]; got.Size != 20 {
		t.Errorf("cache not refreshed, size = %d", got.Size)
	}
}

func TestPollNeverClobbersEditedView(t *testing.T) {
	f := newFixture(t)
	b := f.loadDir(t, "/tmp/", []entry.Entry{{Name: "a.txt", Kind: entry.KindFile}})

	b.SetLines(append(b.Lines(), "typed-but-unsaved"))
	b.SetModified(true)
	edited := b.Lines()

	f.a.listings["/tmp/"] = []entry.Entry{
		{Name: "a.txt", Kind: entry.KindFile},
		{Name: "new.txt", Kind: entry.KindFile},
	}
	f.w.Poll()
	f.h.Drain()

	after := b.Lines()
	if len(after) != len(edited) {
		t.Error("edited view was clobbered by a background refresh")
	}
	n, ok := f.h.LastNotification()
	if !ok || n.Severity != host.SeverityWarn {
		t.Errorf("expected drift warning, got %+v", n)
	}
}

func TestDriftWarningFiresOncePerEpisode(t *testing.T) {
	f := newFixture(t)
	b := f.loadDir(t, "/tmp/", []entry.Entry{{Name: "a.txt", Kind: entry.KindFile}})
	b.SetModified(true)

	f.a.listings["/tmp/"] = []entry.Entry{
		{Name: "a.txt", Kind: entry.KindFile},
		{Name: "new.txt", Kind: entry.KindFile},
	}
	f.w.Poll()
	f.w.Poll()
	f.w.Poll()
	f.h.Drain()

	if got := len(f.h.Notifications); got != 1 {
		t.Errorf("drift warned %d times, want 1", got)
	}
}

func TestPollDoesAllHostWorkViaPost(t *testing.T) {
	f := newFixture(t)
	b := f.loadDir(t, "/tmp/", []entry.Entry{{Name: "a.txt", Kind: entry.KindFile}})

	f.a.listings["/tmp/"] = []entry.Entry{
		{Name: "a.txt", Kind: entry.KindFile},
		{Name: "b.txt", Kind: entry.KindFile},
	}
	f.w.Poll()

	// The polling goroutine must not touch buffers itself; until the
	// host runs the posted work nothing may have changed.
	if b.LineCount() != 1 {
		t.Errorf("view changed before posted work ran: %d lines", b.LineCount())
	}
	if len(f.h.Notifications) != 0 {
		t.Errorf("notified before posted work ran: %+v", f.h.Notifications)
	}

	f.h.Drain()
	if b.LineCount() != 2 {
		t.Errorf("drifted view has %d lines after drain, want 2", b.LineCount())
	}
}

func TestStaleListingResultIsDropped(t *testing.T) {
	f := newFixture(t)
	var pending []func()
	f.w.SetTaskRunner(func(fn func()) { pending = append(pending, fn) })
	b := f.loadDir(t, "/tmp/", []entry.Entry{{Name: "a.txt", Kind: entry.KindFile}})

	f.a.listings["/tmp/"] = []entry.Entry{
		{Name: "a.txt", Kind: entry.KindFile},
		{Name: "b.txt", Kind: entry.KindFile},
	}
	f.w.Poll()
	f.h.Drain() // snapshot taken, listing still pending

	b.(*hosttest.Buffer).Invalidate()
	for _, fn := range pending {
		fn()
	}
	f.h.Drain()

	if b.LineCount() != 1 {
		t.Errorf("wiped buffer was refreshed: %d lines", b.LineCount())
	}
	if len(f.h.Notifications) != 0 {
		t.Errorf("wiped buffer triggered notifications: %+v", f.h.Notifications)
	}
}

func TestPollListFailureOnlyLogs(t *testing.T) {
	f := newFixture(t)
	var logged []string
	w := New(f.h, f.ctrl, time.Second, func(format string, args ...interface{}) {
		logged = append(logged, fmt.Sprintf(format, args...))
	})
	w.SetTaskRunner(func(fn func()) { fn() })
	b := f.loadDir(t, "/tmp/", []entry.Entry{{Name: "a.txt", Kind: entry.KindFile}})

	f.a.listErr = errors.New("share unreachable")
	w.Poll()
	f.h.Drain()

	if b.LineCount() != 1 {
		t.Errorf("unreachable backend rewrote the view: %d lines", b.LineCount())
	}
	if len(f.h.Notifications) != 0 {
		t.Errorf("unreachable backend notified the user: %+v", f.h.Notifications)
	}
	found := false
	for _, l := range logged {
		if strings.Contains(l, "watcher error in poll [file:///tmp/]") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a watcher error in the debug log, got %v", logged)
	}
}

func TestStartStopIdempotent(t *testing.T) {
	f := newFixture(t)
	f.w.Start()
	f.w.Start() // second start is a no-op
	f.w.Stop()
	f.w.Stop() // second stop is a no-op
}
