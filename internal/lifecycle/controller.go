// Package lifecycle drives engine buffers through their load, save
// and teardown transitions in response to host events. All state
// mutation happens on the host thread; blocking adapter calls run on
// worker goroutines and re-enter through host.Post with a
// generation check, so a stale callback can never touch a buffer
// that was closed or rebound in the meantime.
package lifecycle

import (
	"strings"

	"vdir/internal/adapter"
	"vdir/internal/cache"
	"vdir/internal/entry"
	"vdir/internal/host"
	"vdir/internal/url"
	"vdir/internal/view"
)

// State is the lifecycle position of one engine buffer.
type State int

const (
	StateUnbound State = iota
	StateResolving
	StateLoadedDir
	StateLoadedFile
	StateClosed
)

// Mutator diffs all modified engine buffers against backend state
// and applies the resulting operations. On success each buffer's
// modified flag must be reset by the implementation.
type Mutator interface {
	TryWriteChanges(confirm *bool) error
}

// bufState is the controller's record for one engine buffer. gen
// invalidates in-flight adapter callbacks: any resume whose captured
// generation no longer matches is dropped.
type bufState struct {
	u     url.URL
	state State
	// prev is the state to fall back to when a load fails: a read
	// failure leaves the buffer where it was.
	prev State
	gen  int
}

// Controller is the buffer lifecycle state machine.
type Controller struct {
	host       host.Host
	registry   *adapter.Registry
	cache      *cache.Cache
	views      *view.Store
	mutator    Mutator
	columns    []string
	hijack     string // scheme used to hijack plain directory paths
	debugPrint func(format string, args ...interface{})

	bufs      map[int]*bufState
	lastShown map[int]int // window id -> buffer id last displayed

	// runTask executes a blocking adapter call off the host thread.
	// Tests replace it with a synchronous runner.
	runTask func(fn func())
}

// NewController creates the lifecycle controller. columns names the
// display columns requested by configuration; hijackScheme is the
// scheme plain directory paths are rewritten to (normally "file").
func NewController(h host.Host, reg *adapter.Registry, c *cache.Cache, views *view.Store, columns []string, hijackScheme string, debugPrint func(string, ...interface{})) *Controller {
	return &Controller{
		host:       h,
		registry:   reg,
		cache:      c,
		views:      views,
		columns:    columns,
		hijack:     hijackScheme,
		debugPrint: debugPrint,
		bufs:       make(map[int]*bufState),
		lastShown:  make(map[int]int),
		runTask:    func(fn func()) { go fn() },
	}
}

// SetMutator wires the external mutator used for directory writes.
func (c *Controller) SetMutator(m Mutator) { c.mutator = m }

// SetTaskRunner replaces the executor used for blocking adapter
// calls. The default runs each call on its own goroutine; tests use
// a synchronous runner for deterministic stepping.
func (c *Controller) SetTaskRunner(run func(fn func())) { c.runTask = run }

// Views exposes the view state store owned by the controller.
func (c *Controller) Views() *view.Store { return c.views }

// Cache exposes the entry cache the controller renders from.
func (c *Controller) Cache() *cache.Cache { return c.cache }

// Registry exposes the adapter registry.
func (c *Controller) Registry() *adapter.Registry { return c.registry }

// URLOf resolves a buffer to its engine address and adapter. ok is
// false for buffers outside any registered scheme.
func (c *Controller) URLOf(b host.Buffer) (url.URL, adapter.Adapter, bool) {
	u, ok := url.Parse(b.Name())
	if !ok {
		return url.URL{}, nil, false
	}
	a, canonical, ok := c.registry.Get(u.Scheme)
	if !ok {
		return url.URL{}, nil, false
	}
	u.Scheme = canonical
	return u, a, true
}

// IsEngineBuffer reports whether the buffer belongs to a registered
// scheme.
func (c *Controller) IsEngineBuffer(b host.Buffer) bool {
	_, _, ok := c.URLOf(b)
	return ok
}

// AdapterColumns resolves the configured column names against one
// adapter, skipping names the backend does not provide.
func (c *Controller) AdapterColumns(a adapter.Adapter) []entry.Column {
	var out []entry.Column
	for _, name := range c.columns {
		if col := a.Column(name); col != nil {
			out = append(out, *col)
		}
	}
	return out
}

func (c *Controller) state(b host.Buffer) *bufState {
	st, ok := c.bufs[b.ID()]
	if !ok {
		st = &bufState{}
		c.bufs[b.ID()] = st
	}
	return st
}

// HandleBufNew inspects a freshly created buffer. A plain host path
// that designates an existing directory is hijacked: the buffer name
// is rewritten in place to the canonical scheme address and the read
// transition is driven, without creating a second buffer.
func (c *Controller) HandleBufNew(b host.Buffer) {
	name := b.Name()
	if name == "" {
		return
	}
	if _, ok := url.Parse(name); ok {
		// Scheme-qualified; the read request will handle it.
		return
	}
	a, _, ok := c.registry.Get(c.hijack)
	if !ok {
		return
	}
	st := c.state(b)
	st.gen++
	gen := st.gen

	c.runTask(func() {
		norm, err := a.NormalizeURL(url.FromHostPath(name))
		c.host.Post(func() {
			if !b.Valid() || c.state(b).gen != gen {
				return
			}
			if err != nil || !strings.HasSuffix(norm, "/") {
				// Not a directory: a plain file open, not ours.
				return
			}
			c.debugPrint("hijacking %s into %s scheme", name, c.hijack)
			b.SetName(url.URL{Scheme: c.hijack, Path: norm}.String())
			c.HandleBufReadRequest(b)
		})
	})
}

// HandleBufReadRequest populates an engine buffer: the scheme is
// resolved (rewriting aliases exactly once), the adapter normalizes
// the address, and the buffer is rendered from a listing or file
// contents. A normalization that yields a different address rebinds
// the buffer; when a buffer for the canonical address already
// exists, this buffer is superseded and performs no further
// initialization.
func (c *Controller) HandleBufReadRequest(b host.Buffer) {
	u, ok := url.Parse(b.Name())
	if !ok {
		return
	}
	a, canonical, ok := c.registry.Get(u.Scheme)
	if !ok {
		// Unregistered scheme is a normal fall-through.
		return
	}
	if canonical != u.Scheme {
		u.Scheme = canonical
		b.SetName(u.String())
	}

	st := c.state(b)
	if st.state != StateResolving {
		st.prev = st.state
	}
	st.state = StateResolving
	st.gen++
	gen := st.gen

	c.runTask(func() {
		norm, err := a.NormalizeURL(u.Path)
		if err != nil {
			c.host.Post(func() {
				if !b.Valid() || c.state(b).gen != gen {
					return
				}
				c.host.Notify(host.SeverityError, "unable to resolve %s: %v", u.String(), err)
			})
			return
		}

		nu := url.URL{Scheme: canonical, Path: norm}
		if nu.IsDir() {
			entries, lerr := a.List(norm)
			c.host.Post(func() {
				c.finishDirectoryLoad(b, gen, a, nu, entries, lerr)
			})
			return
		}

		data, rerr := a.ReadFile(norm)
		c.host.Post(func() {
			c.finishFileLoad(b, gen, nu, data, rerr)
		})
	})
}

// rebind points the buffer at the normalized address. When another
// buffer already owns that address every window showing b switches
// to it and b is reported as superseded.
func (c *Controller) rebind(b host.Buffer, nu url.URL) (superseded bool) {
	if b.Name() == nu.String() {
		return false
	}
	if existing, found := c.host.FindBuffer(nu.String()); found && existing.ID() != b.ID() {
		for _, w := range c.host.Windows() {
			if w.Valid() && w.Buffer() != nil && w.Buffer().ID() == b.ID() {
				w.SetBuffer(existing)
			}
		}
		return true
	}
	c.debugPrint("rebinding buffer %d to %s", b.ID(), nu.String())
	b.SetName(nu.String())
	return false
}

// finishDirectoryLoad runs on the host thread after list completes.
func (c *Controller) finishDirectoryLoad(b host.Buffer, gen int, a adapter.Adapter, nu url.URL, entries []entry.Entry, lerr error) {
	if !b.Valid() || c.state(b).gen != gen {
		c.debugPrint("dropping stale directory load for %s", nu.String())
		return
	}
	if c.rebind(b, nu) {
		return
	}
	st := c.state(b)
	if lerr != nil {
		c.host.Notify(host.SeverityError, "unable to list %s: %v", nu.String(), lerr)
		// Read failure leaves the buffer in its previous state.
		st.state = st.prev
		return
	}

	stored := c.cache.Store(nu, entries)
	cols := c.AdapterColumns(a)
	lines := make([]string, len(stored))
	for i, e := range stored {
		lines[i] = entry.RenderLine(e, cols)
	}
	b.SetLines(lines)
	b.SetModified(false)
	st.u = nu
	st.state = StateLoadedDir

	c.restoreCursor(b, nu, stored)
}

// finishFileLoad runs on the host thread after a file read completes.
func (c *Controller) finishFileLoad(b host.Buffer, gen int, nu url.URL, data []byte, rerr error) {
	if !b.Valid() || c.state(b).gen != gen {
		return
	}
	if c.rebind(b, nu) {
		return
	}
	st := c.state(b)
	if rerr != nil {
		c.host.Notify(host.SeverityError, "unable to read %s: %v", nu.String(), rerr)
		st.state = st.prev
		return
	}
	b.SetLines(splitLines(data))
	b.SetModified(false)
	st.u = nu
	st.state = StateLoadedFile
}

// restoreCursor places the cursor of every window showing b onto the
// child remembered for this address.
func (c *Controller) restoreCursor(b host.Buffer, u url.URL, entries []entry.Entry) {
	pos, ok := c.views.Cursor(u)
	if !ok {
		return
	}
	line := 0
	for i, e := range entries {
		if e.Name == pos.Name {
			line = i + 1
			break
		}
	}
	if line == 0 {
		return
	}
	for _, w := range c.host.Windows() {
		if w.Valid() && w.Buffer() != nil && w.Buffer().ID() == b.ID() {
			w.SetCursor(line, 0)
		}
	}
}

// HandleBufWriteRequest persists buffer contents. Directory buffers
// hand off wholesale to the mutator; file buffers write through the
// adapter. Either way a reported error aborts the transition and the
// buffer stays modified.
func (c *Controller) HandleBufWriteRequest(b host.Buffer) {
	u, a, ok := c.URLOf(b)
	if !ok {
		return
	}

	if u.IsDir() {
		if c.mutator == nil {
			c.host.Notify(host.SeverityError, "no mutator configured, cannot save %s", u.String())
			return
		}
		if err := c.mutator.TryWriteChanges(nil); err != nil {
			c.host.Notify(host.SeverityError, "save failed: %v", err)
			return
		}
		return
	}

	if !a.IsModifiable(u) {
		c.host.Notify(host.SeverityWarn, "%s is read-only", u.String())
		return
	}

	st := c.state(b)
	gen := st.gen
	data := joinLines(b.Lines())
	c.runTask(func() {
		err := a.WriteFile(u.Path, data)
		c.host.Post(func() {
			if !b.Valid() || c.state(b).gen != gen {
				return
			}
			if err != nil {
				c.host.Notify(host.SeverityError, "unable to write %s: %v", u.String(), err)
				return
			}
			b.SetModified(false)
		})
	})
}

// DiscardAll re-renders every modified engine buffer from backend
// state, asynchronously. Failures produce a per-buffer notification
// and never abort the sweep.
func (c *Controller) DiscardAll() {
	for _, b := range c.host.Buffers() {
		if !b.Modified() || !c.IsEngineBuffer(b) {
			continue
		}
		c.debugPrint("discarding edits in %s", b.Name())
		c.HandleBufReadRequest(b)
	}
}

// HandleWinEnter maintains the per-window view record. Entering an
// engine buffer for the first time captures where the user came
// from; entering a non-engine buffer afterwards restores the
// alternate register: to the original buffer when the user ended up
// somewhere else, or to the original alternate when they returned to
// where they started.
func (c *Controller) HandleWinEnter(w host.Window) {
	cur := w.Buffer()
	if cur == nil {
		return
	}
	defer func() { c.lastShown[w.ID()] = cur.ID() }()

	if c.IsEngineBuffer(cur) {
		rec := c.views.EnsureRecord(w.ID())
		if !rec.DidEnter {
			rec.DidEnter = true
			rec.OriginalBuffer = c.lastShown[w.ID()]
			if alt, ok := c.host.Alternate(w); ok {
				rec.OriginalAlternate = alt.ID()
			}
		}
		return
	}

	rec, ok := c.views.Record(w.ID())
	if !ok || !rec.DidEnter {
		return
	}
	if rec.OriginalBuffer != 0 && cur.ID() != rec.OriginalBuffer {
		if orig, found := c.bufferByID(rec.OriginalBuffer); found {
			c.host.SetAlternate(w, orig)
		}
	} else if rec.OriginalAlternate != 0 {
		if alt, found := c.bufferByID(rec.OriginalAlternate); found {
			c.host.SetAlternate(w, alt)
		}
	}
	c.views.ClearRecord(w.ID())
}

// HandleWinLeave records the cursor position of a directory view so
// it can be restored on the next visit.
func (c *Controller) HandleWinLeave(w host.Window) {
	b := w.Buffer()
	if b == nil {
		return
	}
	u, a, ok := c.URLOf(b)
	if !ok || !u.IsDir() {
		return
	}
	line, _ := w.Cursor()
	lines := b.Lines()
	if line < 1 || line > len(lines) {
		return
	}
	e := entry.ParseLine(lines[line-1], len(c.AdapterColumns(a)), c.cache.ByID)
	if e == nil {
		return
	}
	c.views.SetCursor(u, e.Name, line)
}

// HandleWinNew propagates view state into a window created by
// splitting an engine window. The donor is searched in the current
// tab first, then across all tabs; not finding one is a reportable
// anomaly but the split proceeds without enter-state.
func (c *Controller) HandleWinNew(w host.Window) {
	b := w.Buffer()
	if b == nil || !c.IsEngineBuffer(b) {
		return
	}
	if _, ok := c.views.Record(w.ID()); ok {
		return
	}

	donor := c.findDonorWindow(w)
	if donor == nil {
		c.host.Notify(host.SeverityWarn, "split of %s found no ancestor window state", b.Name())
		return
	}
	c.views.CopyRecord(donor.ID(), w.ID())
	c.lastShown[w.ID()] = c.lastShown[donor.ID()]
}

// findDonorWindow locates a window with a populated view record
// showing the same buffer as w.
func (c *Controller) findDonorWindow(w host.Window) host.Window {
	scan := func(windows []host.Window) host.Window {
		for _, cand := range windows {
			if cand.ID() == w.ID() || !cand.Valid() {
				continue
			}
			if cand.Buffer() == nil || cand.Buffer().ID() != w.Buffer().ID() {
				continue
			}
			if rec, ok := c.views.Record(cand.ID()); ok && rec.DidEnter {
				return cand
			}
		}
		return nil
	}
	if donor := scan(c.host.TabWindows(w.TabID())); donor != nil {
		return donor
	}
	return scan(c.host.Windows())
}

// HandleSessionRestore re-drives the read transition for any engine
// buffer the session layer brought back by name only (no content
// beyond the name line).
func (c *Controller) HandleSessionRestore() {
	for _, b := range c.host.Buffers() {
		if !c.IsEngineBuffer(b) {
			continue
		}
		if b.LineCount() == 0 || (b.LineCount() == 1 && b.Lines()[0] == "") {
			c.debugPrint("restoring session buffer %s", b.Name())
			c.HandleBufReadRequest(b)
		}
	}
}

// HandleBufClose drops controller state for a closed buffer and
// bumps the generation so in-flight callbacks die.
func (c *Controller) HandleBufClose(b host.Buffer) {
	if st, ok := c.bufs[b.ID()]; ok {
		st.gen++
		st.state = StateClosed
		delete(c.bufs, b.ID())
	}
}

// OpenInWindow displays the buffer for an address in a window,
// creating and loading the buffer on first use. The view being
// replaced has its cursor recorded first, the same bookkeeping a
// window close performs.
func (c *Controller) OpenInWindow(w host.Window, u url.URL) {
	c.HandleWinLeave(w)
	b, found := c.host.FindBuffer(u.String())
	if !found {
		b = c.host.CreateBuffer(u.String())
	}
	w.SetBuffer(b)
	c.HandleWinEnter(w)
	if b.LineCount() == 0 {
		c.HandleBufReadRequest(b)
	}
}

func (c *Controller) bufferByID(id int) (host.Buffer, bool) {
	for _, b := range c.host.Buffers() {
		if b.ID() == id {
			return b, true
		}
	}
	return nil, false
}

func splitLines(data []byte) []string {
	s := strings.TrimSuffix(string(data), "\n")
	if s == "" {
		return []string{""}
	}
	return strings.Split(s, "\n")
}

func joinLines(lines []string) []byte {
	return []byte(strings.Join(lines, "\n") + "\n")
}
