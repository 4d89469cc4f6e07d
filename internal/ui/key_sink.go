package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"

	"vdir/internal/keymanager"
)

// KeySink wraps the pane area in a focusable widget that routes every
// key event into the key manager stack. It consumes Tab so directory
// views keep focus while the user types names.
type KeySink struct {
	widget.BaseWidget
	content fyne.CanvasObject
	km      *keymanager.KeyManager
}

// NewKeySink wraps content and routes its key events through km.
func NewKeySink(content fyne.CanvasObject, km *keymanager.KeyManager) *KeySink {
	k := &KeySink{content: content, km: km}
	k.ExtendBaseWidget(k)
	return k
}

func (k *KeySink) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(k.content)
}

// FocusGained and FocusLost satisfy fyne.Focusable.
func (k *KeySink) FocusGained() {}
func (k *KeySink) FocusLost()   {}

// AcceptsTab keeps Fyne from stealing Tab for focus traversal.
func (k *KeySink) AcceptsTab() bool { return true }

func (k *KeySink) TypedKey(ev *fyne.KeyEvent) { k.km.HandleTypedKey(ev) }
func (k *KeySink) TypedRune(r rune)           { k.km.HandleTypedRune(r) }
func (k *KeySink) KeyDown(ev *fyne.KeyEvent)  { k.km.HandleKeyDown(ev) }
func (k *KeySink) KeyUp(ev *fyne.KeyEvent)    { k.km.HandleKeyUp(ev) }
