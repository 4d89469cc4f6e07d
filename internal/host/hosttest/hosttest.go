// Package hosttest provides an in-memory host implementation for
// engine tests. Posted functions are queued and run deterministically
// via Drain, so asynchronous adapter callbacks can be stepped through
// from test code.
package hosttest

import (
	"fmt"
	"sync"

	"vdir/internal/host"
)

// Buffer is the in-memory buffer used by tests.
type Buffer struct {
	id       int
	name     string
	lines    []string
	modified bool
	valid    bool
}

func (b *Buffer) ID() int             { return b.id }
func (b *Buffer) Name() string        { return b.name }
func (b *Buffer) SetName(name string) { b.name = name }
func (b *Buffer) Lines() []string {
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}
func (b *Buffer) SetLines(lines []string) {
	b.lines = make([]string, len(lines))
	copy(b.lines, lines)
}
func (b *Buffer) LineCount() int            { return len(b.lines) }
func (b *Buffer) Modified() bool            { return b.modified }
func (b *Buffer) SetModified(modified bool) { b.modified = modified }
func (b *Buffer) Valid() bool               { return b.valid }

// Invalidate simulates the host wiping the buffer.
func (b *Buffer) Invalidate() { b.valid = false }

// Window is the in-memory window used by tests.
type Window struct {
	id       int
	tab      int
	buf      host.Buffer
	line     int
	col      int
	floating bool
	valid    bool
	h        *Host
}

func (w *Window) ID() int                 { return w.id }
func (w *Window) TabID() int              { return w.tab }
func (w *Window) Buffer() host.Buffer     { return w.buf }
func (w *Window) SetBuffer(b host.Buffer) { w.buf = b }
func (w *Window) Cursor() (int, int)      { return w.line, w.col }
func (w *Window) SetCursor(line, col int) { w.line, w.col = line, col }
func (w *Window) Floating() bool          { return w.floating }
func (w *Window) Valid() bool             { return w.valid }

func (w *Window) Close() {
	w.valid = false
	for i, other := range w.h.windows {
		if other == w {
			w.h.windows = append(w.h.windows[:i], w.h.windows[i+1:]...)
			break
		}
	}
	if w.h.current == w && len(w.h.windows) > 0 {
		w.h.current = w.h.windows[0]
	}
}

// Notification is one recorded Notify call.
type Notification struct {
	Severity host.Severity
	Message  string
}

// Host is a fake host surface.
type Host struct {
	mu         sync.Mutex
	nextBufID  int
	nextWinID  int
	buffers    []*Buffer
	windows    []*Window
	current    *Window
	currentTab int
	alternates map[int]host.Buffer
	posted     []func()

	Cols int
	Rows int

	// Notifications records every Notify call in order.
	Notifications []Notification
}

// New creates a fake host with a single window on an empty buffer.
func New() *Host {
	h := &Host{
		nextBufID:  1,
		nextWinID:  1000,
		currentTab: 1,
		alternates: make(map[int]host.Buffer),
		Cols:       120,
		Rows:       40,
	}
	b := h.CreateBuffer("").(*Buffer)
	h.current = h.newWindow(1, b, false)
	return h
}

func (h *Host) newWindow(tab int, b host.Buffer, floating bool) *Window {
	w := &Window{id: h.nextWinID, tab: tab, buf: b, line: 1, col: 0, floating: floating, valid: true, h: h}
	h.nextWinID++
	h.windows = append(h.windows, w)
	return w
}

func (h *Host) CreateBuffer(name string) host.Buffer {
	b := &Buffer{id: h.nextBufID, name: name, valid: true}
	h.nextBufID++
	h.buffers = append(h.buffers, b)
	return b
}

func (h *Host) FindBuffer(name string) (host.Buffer, bool) {
	for _, b := range h.buffers {
		if b.valid && b.name == name {
			return b, true
		}
	}
	return nil, false
}

func (h *Host) Buffers() []host.Buffer {
	out := make([]host.Buffer, 0, len(h.buffers))
	for _, b := range h.buffers {
		if b.valid {
			out = append(out, b)
		}
	}
	return out
}

func (h *Host) CurrentWindow() host.Window     { return h.current }
func (h *Host) SetCurrentWindow(w host.Window) { h.current = w.(*Window) }
func (h *Host) CurrentTab() int                { return h.currentTab }

func (h *Host) Windows() []host.Window {
	out := make([]host.Window, 0, len(h.windows))
	for _, w := range h.windows {
		out = append(out, w)
	}
	return out
}

func (h *Host) TabWindows(tab int) []host.Window {
	var out []host.Window
	for _, w := range h.windows {
		if w.tab == tab {
			out = append(out, w)
		}
	}
	return out
}

func (h *Host) Alternate(w host.Window) (host.Buffer, bool) {
	b, ok := h.alternates[w.ID()]
	return b, ok
}

func (h *Host) SetAlternate(w host.Window, b host.Buffer) {
	h.alternates[w.ID()] = b
}

func (h *Host) Split(w host.Window, vertical bool) host.Window {
	nw := h.newWindow(w.TabID(), w.Buffer(), false)
	h.current = nw
	return nw
}

func (h *Host) OpenFloat(cfg host.FloatConfig, b host.Buffer) host.Window {
	nw := h.newWindow(h.currentTab, b, true)
	h.current = nw
	return nw
}

func (h *Host) Size() (int, int) { return h.Cols, h.Rows }

func (h *Host) Post(fn func()) {
	h.mu.Lock()
	h.posted = append(h.posted, fn)
	h.mu.Unlock()
}

// Drain runs posted functions until the queue is empty.
func (h *Host) Drain() {
	for {
		h.mu.Lock()
		if len(h.posted) == 0 {
			h.mu.Unlock()
			return
		}
		fn := h.posted[0]
		h.posted = h.posted[1:]
		h.mu.Unlock()
		fn()
	}
}

func (h *Host) Notify(severity host.Severity, format string, args ...interface{}) {
	h.Notifications = append(h.Notifications, Notification{
		Severity: severity,
		Message:  fmt.Sprintf(format, args...),
	})
}

// LastNotification returns the most recent notification, if any.
func (h *Host) LastNotification() (Notification, bool) {
	if len(h.Notifications) == 0 {
		return Notification{}, false
	}
	return h.Notifications[len(h.Notifications)-1], true
}
