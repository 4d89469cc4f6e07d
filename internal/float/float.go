// Package float computes floating window geometry and owns the
// teardown of transient floating presentations.
package float

import (
	"vdir/internal/host"
)

// Config is the user-facing floating layout configuration. Values
// are validated upstream; Geometry only clamps, it never rejects.
type Config struct {
	Padding   int
	Border    bool
	MaxWidth  int
	MaxHeight int
}

// Geometry computes a centered rectangle inside a cols x rows
// surface. A border consumes one column and one row per side. The
// result never has negative dimensions.
func Geometry(cols, rows int, cfg Config) host.FloatConfig {
	w := cols - 2*cfg.Padding
	h := rows - 2*cfg.Padding
	if cfg.Border {
		w -= 2
		h -= 2
	}
	if cfg.MaxWidth > 0 && w > cfg.MaxWidth {
		w = cfg.MaxWidth
	}
	if cfg.MaxHeight > 0 && h > cfg.MaxHeight {
		h = cfg.MaxHeight
	}
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	outerW, outerH := w, h
	if cfg.Border {
		outerW += 2
		outerH += 2
	}
	return host.FloatConfig{
		Width:  w,
		Height: h,
		Row:    (rows - outerH) / 2,
		Col:    (cols - outerW) / 2,
		Border: cfg.Border,
	}
}

// Manager creates floating windows and closes them the first time
// focus leaves floating territory. Teardown is one-shot: a window is
// closed at most once and its trigger removed with it.
type Manager struct {
	h          host.Host
	cfg        Config
	debugPrint func(format string, args ...interface{})
	open       []host.Window
}

// NewManager creates a floating window manager.
func NewManager(h host.Host, cfg Config, debugPrint func(string, ...interface{})) *Manager {
	return &Manager{h: h, cfg: cfg, debugPrint: debugPrint}
}

// Open shows b in a centered floating window and arms its teardown.
func (m *Manager) Open(b host.Buffer, title string) host.Window {
	cols, rows := m.h.Size()
	fc := Geometry(cols, rows, m.cfg)
	fc.Title = title
	w := m.h.OpenFloat(fc, b)
	m.open = append(m.open, w)
	return w
}

// HasOpen reports whether any managed floating window is still live.
func (m *Manager) HasOpen() bool {
	for _, w := range m.open {
		if w.Valid() {
			return true
		}
	}
	return false
}

// HandleWinEnter implements the one-shot teardown: the first focus
// change that lands outside every floating window closes the managed
// floats and deregisters them. Focus moving between floating windows
// leaves them open.
func (m *Manager) HandleWinEnter(cur host.Window) {
	if len(m.open) == 0 {
		return
	}
	if cur != nil && cur.Floating() {
		return
	}
	for _, w := range m.open {
		if w.Valid() {
			m.debugPrint("closing floating window %d", w.ID())
			w.Close()
		}
	}
	m.open = nil
}
