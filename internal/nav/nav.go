// Package nav implements cursor-driven select semantics: resolving
// the entry (or visual range of entries) under the cursor to child
// addresses and opening them in the requested presentation mode.
package nav

import (
	"fmt"

	"vdir/internal/adapter"
	"vdir/internal/entry"
	apperrors "vdir/internal/errors"
	"vdir/internal/float"
	"vdir/internal/host"
	"vdir/internal/lifecycle"
	"vdir/internal/url"
)

// Mode is the presentation requested for opened entries.
type Mode int

const (
	ModeReplace Mode = iota
	ModeSplitH
	ModeSplitV
	ModePreview
)

// Executor resolves and opens entries.
type Executor struct {
	h          host.Host
	ctrl       *lifecycle.Controller
	floats     *float.Manager
	debugPrint func(format string, args ...interface{})

	previewWin host.Window
	previewID  string
}

// NewExecutor creates a navigation executor.
func NewExecutor(h host.Host, ctrl *lifecycle.Controller, floats *float.Manager, debugPrint func(string, ...interface{})) *Executor {
	return &Executor{h: h, ctrl: ctrl, floats: floats, debugPrint: debugPrint}
}

// Select opens the entries on lines startLine..endLine (1-based,
// inclusive, ascending) of the directory view in w. A single-line
// cursor select passes startLine == endLine.
//
// Preview honors at most one entry; extra selected entries are
// dropped with a warning. A directory entry that has no identifier
// yet but whose name already exists in the entry cache is a hard
// refusal: nothing is opened.
func (e *Executor) Select(w host.Window, mode Mode, startLine, endLine int) {
	b := w.Buffer()
	if b == nil {
		e.h.Notify(host.SeverityWarn, "no entry under cursor")
		return
	}
	u, a, ok := e.ctrl.URLOf(b)
	if !ok || !u.IsDir() {
		e.h.Notify(host.SeverityWarn, "not a directory view")
		return
	}

	entries := e.parseRange(b, a, startLine, endLine)
	if len(entries) == 0 {
		e.h.Notify(host.SeverityWarn, "no entry under cursor")
		return
	}
	if mode == ModePreview && len(entries) > 1 {
		e.h.Notify(host.SeverityWarn, "preview opens a single entry, ignoring %d more", len(entries)-1)
		entries = entries[:1]
	}

	// Validate the whole selection up front: a collision refusal is
	// hard and must not leave a partially applied navigation.
	cached := e.ctrl.Cache().ListURL(u)
	for _, ent := range entries {
		if ent.IsDir() && ent.ID == "" {
			if _, exists := cached[ent.Name]; exists {
				err := apperrors.NewNavigationError("select", u.String(),
					fmt.Sprintf("%q collides with an existing entry; save or discard changes first", ent.Name))
				e.h.Notify(host.SeverityError, "%v", err)
				return
			}
		}
	}

	origin := w
	for i, ent := range entries {
		child := childURL(u, ent)

		// Only one preview window at a time.
		e.closePreview()

		switch {
		case mode == ModePreview:
			e.openPreview(origin, child, ent)
		case i == 0 && mode == ModeReplace:
			e.ctrl.OpenInWindow(origin, child)
		case i == 0:
			nw := e.h.Split(origin, mode == ModeSplitV)
			e.ctrl.HandleWinNew(nw)
			e.ctrl.OpenInWindow(nw, child)
		default:
			// Entries after the first open in additional splits,
			// vertical unless horizontal was asked for explicitly.
			nw := e.h.Split(origin, mode != ModeSplitH)
			e.ctrl.HandleWinNew(nw)
			e.ctrl.OpenInWindow(nw, child)
		}
	}
}

// Parent navigates the view in w to the parent of its current
// address, remembering the child we came from so the cursor lands on
// it.
func (e *Executor) Parent(w host.Window) {
	b := w.Buffer()
	if b == nil {
		return
	}
	u, a, ok := e.ctrl.URLOf(b)
	if !ok {
		return
	}
	parent, ok := parentURL(a, u)
	if !ok {
		e.h.Notify(host.SeverityInfo, "%v",
			apperrors.NewNavigationError("parent", u.String(), "address has no parent"))
		return
	}
	e.ctrl.Views().SetCursor(parent, u.Name(), 0)
	e.ctrl.OpenInWindow(w, parent)
}

// parseRange resolves every parseable entry in the line range, in
// ascending line order.
func (e *Executor) parseRange(b host.Buffer, a adapter.Adapter, startLine, endLine int) []entry.Entry {
	lines := b.Lines()
	if startLine < 1 {
		startLine = 1
	}
	if endLine > len(lines) {
		endLine = len(lines)
	}
	numCols := len(e.ctrl.AdapterColumns(a))
	var out []entry.Entry
	for ln := startLine; ln <= endLine; ln++ {
		if ent := entry.ParseLine(lines[ln-1], numCols, e.ctrl.Cache().ByID); ent != nil {
			out = append(out, *ent)
		}
	}
	return out
}

// closePreview tears down the current preview window, if any.
func (e *Executor) closePreview() {
	if e.previewWin != nil && e.previewWin.Valid() {
		e.previewWin.Close()
	}
	e.previewWin = nil
	e.previewID = ""
}

// openPreview shows the child in a floating window tagged with the
// entry identifier and hands focus back to the originating window.
// Preview is observe-only: it never steals focus.
func (e *Executor) openPreview(origin host.Window, child url.URL, ent entry.Entry) {
	b, found := e.h.FindBuffer(child.String())
	if !found {
		b = e.h.CreateBuffer(child.String())
	}
	fw := e.floats.Open(b, child.String())
	if b.LineCount() == 0 {
		e.ctrl.HandleBufReadRequest(b)
	}
	e.previewWin = fw
	e.previewID = ent.ID
	e.h.SetCurrentWindow(origin)
}

// PreviewedEntry returns the identifier tagged onto the open preview
// window, if one is open.
func (e *Executor) PreviewedEntry() (string, bool) {
	if e.previewWin != nil && e.previewWin.Valid() {
		return e.previewID, true
	}
	return "", false
}

// childURL computes the address of an entry inside dir. Directories
// (and links resolving to directories) become directory addresses.
func childURL(dir url.URL, ent entry.Entry) url.URL {
	name := ent.Name
	if ent.IsDir() {
		name += "/"
	}
	return dir.Join(name)
}

// parentURL computes the parent address, delegating to adapters that
// resolve parents themselves (archives crossing back out of the
// archive file).
func parentURL(a adapter.Adapter, u url.URL) (url.URL, bool) {
	if pr, ok := a.(adapter.ParentResolver); ok {
		return pr.Parent(u)
	}
	trimmed := trimLastSegment(u.Path)
	if trimmed == u.Path {
		return url.URL{}, false
	}
	return url.URL{Scheme: u.Scheme, Path: trimmed}, true
}

func trimLastSegment(p string) string {
	if p == "/" || p == "" {
		return p
	}
	end := len(p)
	if p[end-1] == '/' {
		end--
	}
	for end > 0 && p[end-1] != '/' {
		end--
	}
	if end == 0 {
		return p
	}
	return p[:end]
}
