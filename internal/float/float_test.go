package float

import (
	"testing"

	"vdir/internal/host"
	"vdir/internal/host/hosttest"
)

func discard(format string, args ...interface{}) {}

func TestGeometryCentered(t *testing.T) {
	fc := Geometry(120, 40, Config{Padding: 10})
	if fc.Width != 100 || fc.Height != 20 {
		t.Errorf("geometry = %dx%d, want 100x20", fc.Width, fc.Height)
	}
	if fc.Col != 10 || fc.Row != 10 {
		t.Errorf("origin = (%d,%d), want (10,10)", fc.Col, fc.Row)
	}
}

func TestGeometryBorderConsumesCells(t *testing.T) {
	plain := Geometry(120, 40, Config{Padding: 10})
	bordered := Geometry(120, 40, Config{Padding: 10, Border: true})

	if bordered.Width != plain.Width-2 || bordered.Height != plain.Height-2 {
		t.Errorf("border should consume one cell per side: %dx%d vs %dx%d",
			bordered.Width, bordered.Height, plain.Width, plain.Height)
	}
	// Outer rectangle (content + border) stays centered.
	if bordered.Col != 10 || bordered.Row != 10 {
		t.Errorf("bordered origin = (%d,%d), want (10,10)", bordered.Col, bordered.Row)
	}
}

func TestGeometryCaps(t *testing.T) {
	fc := Geometry(200, 60, Config{Padding: 2, MaxWidth: 80, MaxHeight: 24})
	if fc.Width != 80 || fc.Height != 24 {
		t.Errorf("capped geometry = %dx%d, want 80x24", fc.Width, fc.Height)
	}
	if fc.Col != (200-80)/2 || fc.Row != (60-24)/2 {
		t.Errorf("capped origin = (%d,%d)", fc.Col, fc.Row)
	}
}

func TestGeometryNeverNegative(t *testing.T) {
	fc := Geometry(4, 2, Config{Padding: 10, Border: true})
	if fc.Width < 0 || fc.Height < 0 {
		t.Errorf("geometry went negative: %dx%d", fc.Width, fc.Height)
	}
}

func TestOneShotTeardown(t *testing.T) {
	h := hosttest.New()
	m := NewManager(h, Config{Padding: 2}, discard)

	b := h.CreateBuffer("file:///tmp/")
	fw := m.Open(b, "/tmp/")
	if !fw.Valid() || !fw.Floating() {
		t.Fatal("Open did not produce a live floating window")
	}

	// Focus moving into another floating window keeps the first open.
	other := h.OpenFloat(host.FloatConfig{Width: 10, Height: 5}, b)
	m.HandleWinEnter(other)
	if !fw.Valid() {
		t.Fatal("float closed while focus was still floating")
	}

	// Focus landing on a normal window tears down, once.
	normal := h.TabWindows(1)[0]
	m.HandleWinEnter(normal)
	if fw.Valid() {
		t.Fatal("float not closed on focus leave")
	}
	if m.HasOpen() {
		t.Error("manager still tracks closed windows")
	}

	// Second invocation is a no-op (trigger deregistered).
	before := len(h.Windows())
	m.HandleWinEnter(normal)
	if len(h.Windows()) != before {
		t.Error("teardown ran twice")
	}
}
