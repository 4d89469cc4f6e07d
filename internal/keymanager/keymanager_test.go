package keymanager

import (
	"testing"

	"fyne.io/fyne/v2"
)

func discard(format string, args ...interface{}) {}

type recordingHandler struct {
	name  string
	typed []fyne.KeyName
	runes []rune
}

func (r *recordingHandler) OnKeyDown(ev *fyne.KeyEvent) bool { return false }
func (r *recordingHandler) OnKeyUp(ev *fyne.KeyEvent) bool   { return false }
func (r *recordingHandler) OnTypedKey(ev *fyne.KeyEvent) bool {
	r.typed = append(r.typed, ev.Name)
	return true
}
func (r *recordingHandler) OnTypedRune(ru rune) bool {
	r.runes = append(r.runes, ru)
	return true
}
func (r *recordingHandler) GetName() string { return r.name }

func TestPushPopStack(t *testing.T) {
	km := NewKeyManager(discard)

	if km.GetCurrentHandler() != nil {
		t.Error("Expected nil handler on empty stack")
	}
	if h := km.PopHandler(); h != nil {
		t.Error("Expected nil when popping empty stack")
	}

	a := &recordingHandler{name: "a"}
	b := &recordingHandler{name: "b"}
	km.PushHandler(a)
	km.PushHandler(b)

	if got := km.GetStackSize(); got != 2 {
		t.Errorf("Expected stack size 2, got %d", got)
	}
	if km.GetCurrentHandler() != b {
		t.Error("Expected top of stack to be 'b'")
	}
	if popped := km.PopHandler(); popped != b {
		t.Error("Expected to pop 'b'")
	}
	if km.GetCurrentHandler() != a {
		t.Error("Expected 'a' after popping 'b'")
	}
}

func TestEventsGoToTopHandlerOnly(t *testing.T) {
	km := NewKeyManager(discard)
	bottom := &recordingHandler{name: "bottom"}
	top := &recordingHandler{name: "top"}
	km.PushHandler(bottom)
	km.PushHandler(top)

	km.HandleTypedKey(&fyne.KeyEvent{Name: fyne.KeyReturn})
	km.HandleTypedRune('j')

	if len(top.typed) != 1 || top.typed[0] != fyne.KeyReturn {
		t.Errorf("Expected top handler to receive Return, got %v", top.typed)
	}
	if len(top.runes) != 1 || top.runes[0] != 'j' {
		t.Errorf("Expected top handler to receive 'j', got %v", top.runes)
	}
	if len(bottom.typed) != 0 || len(bottom.runes) != 0 {
		t.Error("Expected bottom handler to receive nothing while covered")
	}
}

func TestListHandlers(t *testing.T) {
	km := NewKeyManager(discard)
	km.PushHandler(&recordingHandler{name: "a"})
	km.PushHandler(&recordingHandler{name: "b"})

	names := km.ListHandlers()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Expected [a b], got %v", names)
	}
}
