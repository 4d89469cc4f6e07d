// Package watcher polls loaded directory views for drift against the
// backing store. Unmodified views are refreshed in place; views with
// unsaved edits only get a notification, never a clobbering reload.
package watcher

import (
	"sync"
	"time"

	"vdir/internal/adapter"
	"vdir/internal/constants"
	"vdir/internal/entry"
	apperrors "vdir/internal/errors"
	"vdir/internal/host"
	"vdir/internal/lifecycle"
	"vdir/internal/url"
)

// target is one directory view snapshotted on the host thread. Only
// the adapter's List call runs off-thread; everything else touches
// host state and stays posted.
type target struct {
	buf    host.Buffer
	a      adapter.Adapter
	u      url.URL
	cached map[string]entry.Entry
}

// Watcher handles incremental directory change detection.
type Watcher struct {
	h          host.Host
	ctrl       *lifecycle.Controller
	interval   time.Duration
	debugPrint func(format string, args ...interface{})

	// warned tracks which buffers already got a drift notification
	// this episode. Touched only from posted functions.
	warned map[int]bool

	// runTask runs the blocking listing pass off the host thread.
	runTask func(fn func())

	mu       sync.Mutex
	stopChan chan bool
	stopped  bool
	running  bool
}

// New creates a directory watcher polling at the given interval.
func New(h host.Host, ctrl *lifecycle.Controller, interval time.Duration, debugPrint func(string, ...interface{})) *Watcher {
	if interval <= 0 {
		interval = constants.WatcherInterval
	}
	return &Watcher{
		h:          h,
		ctrl:       ctrl,
		interval:   interval,
		debugPrint: debugPrint,
		warned:     make(map[int]bool),
		runTask:    func(fn func()) { go fn() },
		stopChan:   make(chan bool),
	}
}

// SetTaskRunner replaces the goroutine used for backend listings.
// Tests install a synchronous runner.
func (w *Watcher) SetTaskRunner(run func(fn func())) {
	w.runTask = run
}

// Start begins polling in the background.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.running && !w.stopped {
		w.mu.Unlock()
		return // Already running
	}
	w.running = true
	w.stopped = false
	if w.stopChan == nil {
		w.stopChan = make(chan bool)
	}
	stop := w.stopChan
	w.mu.Unlock()

	ticker := time.NewTicker(w.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.Poll()
			case <-stop:
				return
			}
		}
	}()
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return // Already stopped, do nothing
	}
	w.stopped = true
	w.running = false
	close(w.stopChan)
	w.stopChan = nil
}

// Poll schedules one check of every loaded directory view. Safe to
// call from any goroutine: the buffer snapshot runs on the host
// thread, then only the backend listings leave it.
func (w *Watcher) Poll() {
	w.h.Post(func() {
		targets := w.snapshot()
		if len(targets) == 0 {
			return
		}
		w.runTask(func() { w.listTargets(targets) })
	})
}

// snapshot collects the views worth checking. Host thread only.
func (w *Watcher) snapshot() []target {
	var out []target
	for _, b := range w.h.Buffers() {
		u, a, ok := w.ctrl.URLOf(b)
		if !ok || !u.IsDir() {
			continue
		}
		cached := w.ctrl.Cache().ListURL(u)
		if cached == nil {
			continue // Never loaded, nothing to compare against.
		}
		out = append(out, target{buf: b, a: a, u: u, cached: cached})
	}
	return out
}

// listTargets runs the blocking listings and posts each verdict back.
func (w *Watcher) listTargets(targets []target) {
	for _, t := range targets {
		fresh, err := t.a.List(t.u.Path)
		if err != nil {
			w.debugPrint("%v", apperrors.NewWatcherError("poll", t.u.String(), "backend listing failed", err))
			continue
		}
		t := t
		changed := drifted(t.cached, fresh)
		w.h.Post(func() { w.apply(t, changed) })
	}
}

// apply acts on one poll verdict. Host thread only; the buffer may
// have been wiped or rebound while the listing ran.
func (w *Watcher) apply(t target, changed bool) {
	b := t.buf
	if !b.Valid() {
		return
	}
	if u, _, ok := w.ctrl.URLOf(b); !ok || u.String() != t.u.String() {
		return
	}
	if !changed {
		delete(w.warned, b.ID())
		return
	}
	if !b.Modified() {
		w.debugPrint("refreshing drifted view %s", t.u.String())
		w.ctrl.HandleBufReadRequest(b)
		return
	}

	// Edited view: warn once per drift episode.
	if w.warned[b.ID()] {
		return
	}
	w.warned[b.ID()] = true
	w.h.Notify(host.SeverityWarn, "%s changed in the background; save or discard to refresh", t.u.String())
}

// drifted compares the cached listing to a fresh one.
func drifted(cached map[string]entry.Entry, fresh []entry.Entry) bool {
	if len(cached) != len(fresh) {
		return true
	}
	for _, f := range fresh {
		c, ok := cached[f.Name]
		if !ok {
			return true
		}
		if c.Kind != f.Kind || c.Size != f.Size || !c.Modified.Equal(f.Modified) {
			return true
		}
	}
	return false
}
