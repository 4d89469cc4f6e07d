package keymanager

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"vdir/internal/constants"
)

// ViewActions defines the interface needed by DirViewKeyHandler
type ViewActions interface {
	// Cursor management
	GetCursorLine() int
	SetCursorLine(line int)
	LineCount() int

	// Navigation
	OpenUnderCursor()
	OpenSelection(startLine, endLine int)
	PreviewUnderCursor()
	OpenParent()
	OpenInSplit(vertical bool)

	// Buffer management
	Refresh()
	SaveChanges()
	DiscardChanges()

	// Window management
	OpenNewWindow()
	CloseActiveWindow()
	FocusAddressBar()
	ShowHistoryDialog()
}

// DirViewKeyHandler handles keyboard events for a directory view
type DirViewKeyHandler struct {
	view         ViewActions
	shiftPressed bool
	ctrlPressed  bool
	anchorLine   int // selection anchor while shift-extending, -1 when inactive
	debugPrint   func(format string, args ...interface{})
}

// NewDirViewKeyHandler creates a new directory view key handler
func NewDirViewKeyHandler(view ViewActions, debugPrint func(format string, args ...interface{})) *DirViewKeyHandler {
	return &DirViewKeyHandler{
		view:       view,
		anchorLine: -1,
		debugPrint: debugPrint,
	}
}

// GetName returns the name of this handler
func (dh *DirViewKeyHandler) GetName() string {
	return "DirView"
}

// OnKeyDown handles key press events
func (dh *DirViewKeyHandler) OnKeyDown(ev *fyne.KeyEvent) bool {
	switch ev.Name {
	case desktop.KeyShiftLeft, desktop.KeyShiftRight:
		dh.shiftPressed = true
		if dh.anchorLine < 0 {
			dh.anchorLine = dh.view.GetCursorLine()
		}
		dh.debugPrint("DirView: Shift key pressed (anchor: %d)", dh.anchorLine)
		return true

	case desktop.KeyControlLeft, desktop.KeyControlRight:
		dh.ctrlPressed = true
		dh.debugPrint("DirView: Ctrl key pressed (state: %t)", dh.ctrlPressed)
		return true

	case fyne.KeyN:
		// Ctrl+N - Open new window
		if dh.ctrlPressed {
			dh.view.OpenNewWindow()
			return true
		}

	case fyne.KeyH:
		// Ctrl+H - Show navigation history dialog
		if dh.ctrlPressed {
			dh.view.ShowHistoryDialog()
			return true
		}
	}

	return false
}

// OnKeyUp handles key release events
func (dh *DirViewKeyHandler) OnKeyUp(ev *fyne.KeyEvent) bool {
	switch ev.Name {
	case desktop.KeyShiftLeft, desktop.KeyShiftRight:
		dh.shiftPressed = false
		dh.anchorLine = -1
		dh.debugPrint("DirView: Shift key released")
		return true

	case desktop.KeyControlLeft, desktop.KeyControlRight:
		dh.ctrlPressed = false
		dh.debugPrint("DirView: Ctrl key released (state: %t)", dh.ctrlPressed)
		return true
	}

	return false
}

// OnTypedKey handles typed key events
func (dh *DirViewKeyHandler) OnTypedKey(ev *fyne.KeyEvent) bool {
	switch ev.Name {
	case fyne.KeyUp:
		dh.moveCursor(-1)
		return true

	case fyne.KeyDown:
		dh.moveCursor(1)
		return true

	case fyne.KeyPageUp:
		dh.moveCursor(-constants.FastNavigationStep)
		return true

	case fyne.KeyPageDown:
		dh.moveCursor(constants.FastNavigationStep)
		return true

	case fyne.KeyHome:
		dh.view.SetCursorLine(1)
		return true

	case fyne.KeyEnd:
		dh.view.SetCursorLine(dh.view.LineCount())
		return true

	case fyne.KeyReturn:
		if dh.shiftPressed && dh.anchorLine > 0 {
			// Shift+Return opens the whole shift-extended range in splits
			start, end := dh.anchorLine, dh.view.GetCursorLine()
			if start > end {
				start, end = end, start
			}
			dh.view.OpenSelection(start, end)
		} else {
			dh.view.OpenUnderCursor()
		}
		return true

	case fyne.KeyBackspace:
		dh.view.OpenParent()
		return true

	case fyne.KeyMinus:
		dh.view.OpenParent()
		return true

	case fyne.KeyTab:
		dh.view.FocusAddressBar()
		return true
	}

	return false
}

// OnTypedRune handles character input
func (dh *DirViewKeyHandler) OnTypedRune(r rune) bool {
	switch r {
	case 'j':
		dh.moveCursor(1)
		return true

	case 'k':
		dh.moveCursor(-1)
		return true

	case 'g':
		dh.view.SetCursorLine(1)
		return true

	case 'G':
		dh.view.SetCursorLine(dh.view.LineCount())
		return true

	case 'p':
		dh.view.PreviewUnderCursor()
		return true

	case 's':
		dh.view.OpenInSplit(false)
		return true

	case 'v':
		dh.view.OpenInSplit(true)
		return true

	case 'r':
		dh.view.Refresh()
		return true

	case 'w':
		dh.view.SaveChanges()
		return true

	case 'u':
		dh.view.DiscardChanges()
		return true

	case 'q':
		dh.view.CloseActiveWindow()
		return true
	}

	return false
}

func (dh *DirViewKeyHandler) moveCursor(delta int) {
	line := dh.view.GetCursorLine() + delta
	if line < 1 {
		line = 1
	}
	if max := dh.view.LineCount(); line > max {
		line = max
	}
	dh.view.SetCursorLine(line)
}
