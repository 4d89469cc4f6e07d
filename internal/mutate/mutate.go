// Package mutate turns edited directory views into adapter actions.
// The reference mutator supports creating and deleting entries: a
// line without an identifier is a create, a cached identifier missing
// from the buffer is a delete. Renames and cross-directory moves are
// out of scope for this mutator.
package mutate

import (
	"fmt"

	"vdir/internal/adapter"
	"vdir/internal/entry"
	apperrors "vdir/internal/errors"
	"vdir/internal/host"
	"vdir/internal/lifecycle"
	"vdir/internal/url"
)

// Mutator diffs every modified directory view against the entry
// cache and applies the resulting actions through the adapters.
type Mutator struct {
	h          host.Host
	ctrl       *lifecycle.Controller
	debugPrint func(format string, args ...interface{})
}

// New creates a mutator bound to the controller whose buffers it
// saves.
func New(h host.Host, ctrl *lifecycle.Controller, debugPrint func(string, ...interface{})) *Mutator {
	return &Mutator{h: h, ctrl: ctrl, debugPrint: debugPrint}
}

// plan is the action list computed for one directory buffer.
type plan struct {
	buf     host.Buffer
	u       url.URL
	perf    adapter.ActionPerformer
	actions []adapter.Action
}

// TryWriteChanges validates and applies the edits of every modified
// directory buffer. Validation covers all buffers before any action
// runs, so a refused save changes nothing. A non-nil confirm set to
// false aborts without applying.
func (m *Mutator) TryWriteChanges(confirm *bool) error {
	var plans []plan
	var clean []host.Buffer
	for _, b := range m.h.Buffers() {
		if !b.Modified() {
			continue
		}
		u, a, ok := m.ctrl.URLOf(b)
		if !ok || !u.IsDir() {
			continue
		}
		p, err := m.planBuffer(b, u, a)
		if err != nil {
			return err
		}
		if len(p.actions) > 0 {
			plans = append(plans, p)
		} else {
			// Whitespace-only edits: nothing to apply, but the
			// re-render waits until every buffer has validated.
			clean = append(clean, b)
		}
	}
	if len(plans) > 0 && confirm != nil && !*confirm {
		return apperrors.NewBookkeepingError("save", "aborted")
	}
	for _, b := range clean {
		b.SetModified(false)
		m.ctrl.HandleBufReadRequest(b)
	}
	if len(plans) == 0 {
		return nil
	}
	for _, p := range plans {
		for _, act := range p.actions {
			m.debugPrint("applying %s", p.perf.RenderAction(act))
			if err := p.perf.PerformAction(act); err != nil {
				return err
			}
		}
	}
	// Actions applied: views are clean again and re-read from the
	// backends they just changed.
	for _, p := range plans {
		p.buf.SetModified(false)
		m.ctrl.HandleBufReadRequest(p.buf)
	}
	return nil
}

// planBuffer computes creates and deletes for one directory view.
func (m *Mutator) planBuffer(b host.Buffer, u url.URL, a adapter.Adapter) (plan, error) {
	perf, ok := a.(adapter.ActionPerformer)
	if !ok || !a.IsModifiable(u) {
		return plan{}, apperrors.NewAdapterError("save", u.String(),
			fmt.Sprintf("%s does not support modification", u.Scheme), nil)
	}

	cached := m.ctrl.Cache().ListURL(u)
	numCols := len(m.ctrl.AdapterColumns(a))

	seen := make(map[string]bool)
	kept := make(map[string]bool)
	p := plan{buf: b, u: u, perf: perf}
	for _, line := range b.Lines() {
		e := entry.ParseLine(line, numCols, m.ctrl.Cache().ByID)
		if e == nil {
			continue
		}
		if seen[e.Name] {
			return plan{}, apperrors.NewBookkeepingError("save",
				fmt.Sprintf("duplicate name %q in %s", e.Name, u.String()))
		}
		seen[e.Name] = true
		if e.ID != "" {
			kept[e.ID] = true
			continue
		}
		if _, exists := cached[e.Name]; exists {
			return plan{}, apperrors.NewBookkeepingError("save",
				fmt.Sprintf("%q collides with an existing entry in %s", e.Name, u.String()))
		}
		p.actions = append(p.actions, adapter.Action{
			Kind:      adapter.ActionCreate,
			URL:       childURL(u, *e),
			EntryKind: e.Kind,
		})
	}
	for _, e := range cached {
		if kept[e.ID] {
			continue
		}
		p.actions = append(p.actions, adapter.Action{
			Kind:      adapter.ActionDelete,
			URL:       childURL(u, e),
			EntryKind: e.Kind,
		})
	}
	return p, nil
}

func childURL(dir url.URL, e entry.Entry) url.URL {
	name := e.Name
	if e.IsDir() {
		name += "/"
	}
	return dir.Join(name)
}
