package ui

import (
	"fmt"
	"sort"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"vdir/internal/host"
	"vdir/internal/keymanager"
)

// FyneHost implements host.Host on top of Fyne. Each application
// window is one tab; panes inside a window are the tab's windows.
type FyneHost struct {
	app        fyne.App
	frames     map[int]*Frame
	buffers    map[int]*uiBuffer
	alternates map[int]*uiBuffer
	current    *pane
	nextFrame  int
	nextBuf    int
	nextPane   int
	onShutdown func()
	onFocus    func(w host.Window)
	debugPrint func(format string, args ...interface{})
}

var _ host.Host = (*FyneHost)(nil)

// NewFyneHost creates a host bound to the given Fyne application.
func NewFyneHost(app fyne.App, debugPrint func(format string, args ...interface{})) *FyneHost {
	return &FyneHost{
		app:        app,
		frames:     make(map[int]*Frame),
		buffers:    make(map[int]*uiBuffer),
		alternates: make(map[int]*uiBuffer),
		debugPrint: debugPrint,
	}
}

// SetOnShutdown registers a hook that runs once, when the last frame
// closes.
func (h *FyneHost) SetOnShutdown(fn func()) { h.onShutdown = fn }

// SetOnFocusChange registers a hook fired when the user moves focus
// to a different pane, e.g. by clicking into it. Programmatic buffer
// switches do not fire it.
func (h *FyneHost) SetOnFocusChange(fn func(w host.Window)) { h.onFocus = fn }

// Frame is one application window holding a column/row arrangement of
// panes, an address bar and a status line.
type Frame struct {
	id      int
	h       *FyneHost
	win     fyne.Window
	km      *keymanager.KeyManager
	sink    *KeySink
	address *AddressEntry
	status  *widget.Label
	center  *fyne.Container
	panes   []*pane
}

// Win exposes the underlying Fyne window, for dialog parents.
func (f *Frame) Win() fyne.Window { return f.win }

// Address exposes the address bar entry.
func (f *Frame) Address() *AddressEntry { return f.address }

// FocusList moves keyboard focus back to the pane area.
func (f *Frame) FocusList() { f.win.Canvas().Focus(f.sink) }

// FocusAddress moves keyboard focus to the address bar.
func (f *Frame) FocusAddress() { f.win.Canvas().Focus(f.address) }

// NewFrame creates an application window with one pane showing a fresh
// scratch buffer, wires its key manager, and shows it. The returned
// pane is focused.
func (h *FyneHost) NewFrame(title string, width, height int, km *keymanager.KeyManager) (*Frame, host.Window) {
	h.nextFrame++
	f := &Frame{
		id:      h.nextFrame,
		h:       h,
		win:     h.app.NewWindow(title),
		km:      km,
		address: NewAddressEntry(),
		status:  widget.NewLabel(""),
		center:  container.NewStack(),
	}
	f.sink = NewKeySink(f.center, km)
	f.win.SetContent(container.NewBorder(f.address, f.status, nil, nil, f.sink))
	f.win.Resize(fyne.NewSize(float32(width), float32(height)))
	f.win.SetCloseIntercept(func() { h.closeFrame(f) })
	h.frames[f.id] = f

	p := h.newPane(f, h.CreateBuffer(fmt.Sprintf("scratch-%d", f.id)).(*uiBuffer))
	f.panes = []*pane{p}
	f.relayout()
	h.current = p

	f.win.Show()
	f.FocusList()
	return f, p
}

func (h *FyneHost) closeFrame(f *Frame) {
	for _, p := range f.panes {
		p.valid = false
		delete(h.alternates, p.id)
	}
	f.panes = nil
	delete(h.frames, f.id)
	f.win.Close()
	h.debugPrint("FyneHost: Closed frame %d, %d remaining", f.id, len(h.frames))
	if len(h.frames) == 0 {
		if h.onShutdown != nil {
			h.onShutdown()
		}
		h.app.Quit()
	}
}

// relayout rebuilds the frame's center container from the pane grid:
// panes sharing a column stack vertically, columns sit side by side.
func (f *Frame) relayout() {
	cols := make(map[int][]fyne.CanvasObject)
	maxCol := 0
	for _, p := range f.panes {
		cols[p.col] = append(cols[p.col], p.list)
		if p.col > maxCol {
			maxCol = p.col
		}
	}
	objs := make([]fyne.CanvasObject, 0, maxCol+1)
	for c := 0; c <= maxCol; c++ {
		rows := cols[c]
		if len(rows) == 0 {
			continue
		}
		if len(rows) == 1 {
			objs = append(objs, rows[0])
		} else {
			objs = append(objs, container.NewGridWithRows(len(rows), rows...))
		}
	}
	f.center.Objects = []fyne.CanvasObject{container.NewGridWithColumns(len(objs), objs...)}
	f.center.Refresh()
}

// uiBuffer is a line buffer shared by every pane that shows it.
type uiBuffer struct {
	h        *FyneHost
	id       int
	name     string
	lines    []string
	modified bool
	valid    bool
}

var _ host.Buffer = (*uiBuffer)(nil)

func (b *uiBuffer) ID() int             { return b.id }
func (b *uiBuffer) Name() string        { return b.name }
func (b *uiBuffer) SetName(name string) { b.name = name }
func (b *uiBuffer) Lines() []string {
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}
func (b *uiBuffer) LineCount() int            { return len(b.lines) }
func (b *uiBuffer) Modified() bool            { return b.modified }
func (b *uiBuffer) SetModified(modified bool) { b.modified = modified }
func (b *uiBuffer) Valid() bool               { return b.valid }

func (b *uiBuffer) SetLines(lines []string) {
	b.lines = make([]string, len(lines))
	copy(b.lines, lines)
	b.h.refreshShowing(b)
}

func (h *FyneHost) refreshShowing(b *uiBuffer) {
	for _, f := range h.frames {
		for _, p := range f.panes {
			if p.buf == b {
				p.list.Refresh()
			}
		}
	}
}

// pane is one view onto a buffer, rendered as a selectable list.
type pane struct {
	h        *FyneHost
	f        *Frame
	id       int
	col      int
	buf      *uiBuffer
	curLine  int
	curCol   int
	floating bool
	valid    bool
	list     *widget.List
	popup    *widget.PopUp
}

var _ host.Window = (*pane)(nil)

func (h *FyneHost) newPane(f *Frame, b *uiBuffer) *pane {
	h.nextPane++
	p := &pane{h: h, f: f, id: h.nextPane, buf: b, curLine: 1, valid: true}
	p.list = widget.NewList(
		func() int { return len(p.buf.lines) },
		func() fyne.CanvasObject {
			l := widget.NewLabel("")
			l.TextStyle = fyne.TextStyle{Monospace: true}
			return l
		},
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i < len(p.buf.lines) {
				o.(*widget.Label).SetText(p.buf.lines[i])
			}
		},
	)
	p.list.OnSelected = func(i widget.ListItemID) {
		p.curLine = i + 1
		p.curCol = 0
		changed := h.current != p
		h.current = p
		if changed && h.onFocus != nil {
			h.onFocus(p)
		}
	}
	return p
}

func (p *pane) ID() int    { return p.id }
func (p *pane) TabID() int { return p.f.id }

func (p *pane) Buffer() host.Buffer { return p.buf }

func (p *pane) SetBuffer(b host.Buffer) {
	p.buf = b.(*uiBuffer)
	p.curLine = 1
	p.curCol = 0
	p.list.Refresh()
	p.f.address.SetText(p.buf.name)
}

func (p *pane) Cursor() (line, col int) { return p.curLine, p.curCol }

func (p *pane) SetCursor(line, col int) {
	if line < 1 {
		line = 1
	}
	if n := len(p.buf.lines); n > 0 && line > n {
		line = n
	}
	p.curLine = line
	p.curCol = col
	p.list.Select(line - 1)
	p.list.ScrollTo(line - 1)
}

func (p *pane) Floating() bool { return p.floating }
func (p *pane) Valid() bool    { return p.valid }

func (p *pane) Close() {
	if !p.valid {
		return
	}
	p.valid = false
	delete(p.h.alternates, p.id)
	if p.floating {
		if p.popup != nil {
			p.popup.Hide()
		}
		return
	}
	f := p.f
	for i, q := range f.panes {
		if q == p {
			f.panes = append(f.panes[:i], f.panes[i+1:]...)
			break
		}
	}
	if len(f.panes) == 0 {
		p.h.closeFrame(f)
		return
	}
	f.relayout()
	if p.h.current == p {
		p.h.current = f.panes[0]
	}
}

// Host interface

func (h *FyneHost) CreateBuffer(name string) host.Buffer {
	h.nextBuf++
	b := &uiBuffer{h: h, id: h.nextBuf, name: name, valid: true}
	h.buffers[b.id] = b
	h.debugPrint("FyneHost: Created buffer %d '%s'", b.id, name)
	return b
}

func (h *FyneHost) FindBuffer(name string) (host.Buffer, bool) {
	for _, b := range h.buffers {
		if b.valid && b.name == name {
			return b, true
		}
	}
	return nil, false
}

func (h *FyneHost) Buffers() []host.Buffer {
	ids := make([]int, 0, len(h.buffers))
	for id, b := range h.buffers {
		if b.valid {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	out := make([]host.Buffer, len(ids))
	for i, id := range ids {
		out[i] = h.buffers[id]
	}
	return out
}

func (h *FyneHost) CurrentWindow() host.Window {
	if h.current == nil {
		return nil
	}
	return h.current
}

func (h *FyneHost) SetCurrentWindow(w host.Window) {
	p := w.(*pane)
	h.current = p
	if !p.floating {
		p.f.address.SetText(p.buf.name)
	}
}

func (h *FyneHost) CurrentTab() int {
	if h.current == nil {
		return 0
	}
	return h.current.f.id
}

func (h *FyneHost) Windows() []host.Window {
	out := []host.Window{}
	ids := make([]int, 0, len(h.frames))
	for id := range h.frames {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		for _, p := range h.frames[id].panes {
			out = append(out, p)
		}
	}
	return out
}

func (h *FyneHost) TabWindows(tab int) []host.Window {
	f, ok := h.frames[tab]
	if !ok {
		return nil
	}
	out := make([]host.Window, 0, len(f.panes))
	for _, p := range f.panes {
		out = append(out, p)
	}
	return out
}

func (h *FyneHost) Alternate(w host.Window) (host.Buffer, bool) {
	b, ok := h.alternates[w.ID()]
	if !ok || !b.valid {
		return nil, false
	}
	return b, true
}

func (h *FyneHost) SetAlternate(w host.Window, b host.Buffer) {
	if b == nil {
		delete(h.alternates, w.ID())
		return
	}
	h.alternates[w.ID()] = b.(*uiBuffer)
}

func (h *FyneHost) Split(w host.Window, vertical bool) host.Window {
	orig := w.(*pane)
	f := orig.f
	p := h.newPane(f, orig.buf)
	if vertical {
		p.col = orig.col + 1
		for _, q := range f.panes {
			if q.col > orig.col {
				q.col++
			}
		}
		f.panes = append(f.panes, p)
	} else {
		p.col = orig.col
		for i, q := range f.panes {
			if q == orig {
				f.panes = append(f.panes[:i+1], append([]*pane{p}, f.panes[i+1:]...)...)
				break
			}
		}
	}
	f.relayout()
	h.current = p
	return p
}

func (h *FyneHost) OpenFloat(cfg host.FloatConfig, b host.Buffer) host.Window {
	f := h.ActiveFrame()
	if f == nil {
		return nil
	}
	p := h.newPane(f, b.(*uiBuffer))
	p.floating = true

	cw, ch := h.cellSize()
	var content fyne.CanvasObject = p.list
	if cfg.Border && cfg.Title != "" {
		title := widget.NewLabel(cfg.Title)
		title.TextStyle = fyne.TextStyle{Bold: true}
		content = container.NewBorder(title, nil, nil, nil, p.list)
	}
	p.popup = widget.NewPopUp(content, f.win.Canvas())
	p.popup.Resize(fyne.NewSize(float32(cfg.Width)*cw, float32(cfg.Height)*ch))
	p.popup.ShowAtPosition(fyne.NewPos(float32(cfg.Col)*cw, float32(cfg.Row)*ch))
	return p
}

func (h *FyneHost) Size() (cols, rows int) {
	f := h.ActiveFrame()
	if f == nil {
		return 80, 24
	}
	cw, ch := h.cellSize()
	sz := f.win.Canvas().Size()
	return int(sz.Width / cw), int(sz.Height / ch)
}

func (h *FyneHost) cellSize() (float32, float32) {
	m := fyne.MeasureText("M", theme.TextSize(), fyne.TextStyle{Monospace: true})
	return m.Width, m.Height
}

// ActiveFrame returns the frame holding the current window, or any
// live frame when the current window's frame is gone.
func (h *FyneHost) ActiveFrame() *Frame {
	if h.current != nil {
		if _, ok := h.frames[h.current.f.id]; ok {
			return h.current.f
		}
	}
	for _, f := range h.frames {
		return f
	}
	return nil
}

func (h *FyneHost) Post(fn func()) {
	fyne.Do(fn)
}

func (h *FyneHost) Notify(severity host.Severity, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	h.debugPrint("FyneHost: Notify [%s] %s", severity, msg)
	f := h.ActiveFrame()
	if f == nil {
		return
	}
	switch severity {
	case host.SeverityError:
		f.status.SetText("[error] " + msg)
		showNoticeDialog(f.win, severity, msg)
	case host.SeverityWarn:
		f.status.SetText("[warn] " + msg)
	default:
		f.status.SetText(msg)
	}
}
