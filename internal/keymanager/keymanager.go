package keymanager

import (
	"sync"

	"fyne.io/fyne/v2"
)

// KeyHandler receives keyboard events while it sits on top of the
// manager's stack. Each method reports whether it consumed the event.
type KeyHandler interface {
	OnKeyDown(ev *fyne.KeyEvent) bool
	OnKeyUp(ev *fyne.KeyEvent) bool
	OnTypedKey(ev *fyne.KeyEvent) bool
	OnTypedRune(r rune) bool

	// GetName identifies the handler in debug logs.
	GetName() string
}

// KeyManager routes keyboard events to the top of a handler stack.
// Pushing a modal handler (a dialog, an overlay) shadows the one
// below it until popped.
type KeyManager struct {
	mu         sync.RWMutex
	handlers   []KeyHandler
	debugPrint func(format string, args ...interface{})
}

func NewKeyManager(debugPrint func(format string, args ...interface{})) *KeyManager {
	return &KeyManager{debugPrint: debugPrint}
}

// PushHandler puts handler on top of the stack.
func (km *KeyManager) PushHandler(handler KeyHandler) {
	km.mu.Lock()
	km.handlers = append(km.handlers, handler)
	n := len(km.handlers)
	km.mu.Unlock()
	km.debugPrint("KeyManager: pushed '%s', stack size %d", handler.GetName(), n)
}

// PopHandler removes and returns the top handler, or nil when the
// stack is empty.
func (km *KeyManager) PopHandler() KeyHandler {
	km.mu.Lock()
	if len(km.handlers) == 0 {
		km.mu.Unlock()
		km.debugPrint("KeyManager: pop on empty stack")
		return nil
	}
	handler := km.handlers[len(km.handlers)-1]
	km.handlers = km.handlers[:len(km.handlers)-1]
	n := len(km.handlers)
	km.mu.Unlock()
	km.debugPrint("KeyManager: popped '%s', stack size %d", handler.GetName(), n)
	return handler
}

// GetCurrentHandler returns the top handler without removing it.
func (km *KeyManager) GetCurrentHandler() KeyHandler {
	km.mu.RLock()
	defer km.mu.RUnlock()
	if len(km.handlers) == 0 {
		return nil
	}
	return km.handlers[len(km.handlers)-1]
}

// dispatch runs fn against the current top handler and logs the
// outcome under the given event kind.
func (km *KeyManager) dispatch(kind string, fn func(KeyHandler) bool) {
	h := km.GetCurrentHandler()
	if h == nil {
		km.debugPrint("KeyManager: no handler for %s", kind)
		return
	}
	km.debugPrint("KeyManager: %s handled by '%s': %t", kind, h.GetName(), fn(h))
}

func (km *KeyManager) HandleKeyDown(ev *fyne.KeyEvent) {
	km.dispatch("KeyDown", func(h KeyHandler) bool { return h.OnKeyDown(ev) })
}

func (km *KeyManager) HandleKeyUp(ev *fyne.KeyEvent) {
	km.dispatch("KeyUp", func(h KeyHandler) bool { return h.OnKeyUp(ev) })
}

func (km *KeyManager) HandleTypedKey(ev *fyne.KeyEvent) {
	km.dispatch("TypedKey", func(h KeyHandler) bool { return h.OnTypedKey(ev) })
}

func (km *KeyManager) HandleTypedRune(r rune) {
	km.dispatch("TypedRune", func(h KeyHandler) bool { return h.OnTypedRune(r) })
}

// GetStackSize reports how many handlers are stacked.
func (km *KeyManager) GetStackSize() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return len(km.handlers)
}

// ListHandlers returns handler names bottom to top, for debugging.
func (km *KeyManager) ListHandlers() []string {
	km.mu.RLock()
	defer km.mu.RUnlock()
	names := make([]string, len(km.handlers))
	for i, h := range km.handlers {
		names[i] = h.GetName()
	}
	return names
}
