// Package host declares the editor surface the engine drives:
// buffers of text lines, windows presenting them, a notification
// channel, and a single-threaded scheduler. Concrete hosts (the Fyne
// UI, the test fake) implement these interfaces; the engine never
// touches a toolkit directly.
package host

// Severity classifies user-visible notifications.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityError
)

// String returns a string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Buffer is one editable text buffer owned by the host.
type Buffer interface {
	ID() int
	Name() string
	SetName(name string)
	Lines() []string
	SetLines(lines []string)
	LineCount() int
	Modified() bool
	SetModified(modified bool)
	// Valid reports whether the buffer still exists. Asynchronous
	// adapter callbacks must check it before touching the buffer.
	Valid() bool
}

// Window presents a buffer. Cursor lines are 1-based.
type Window interface {
	ID() int
	TabID() int
	Buffer() Buffer
	SetBuffer(b Buffer)
	Cursor() (line, col int)
	SetCursor(line, col int)
	Floating() bool
	// Valid reports whether the window still exists.
	Valid() bool
	Close()
}

// FloatConfig positions a floating window, in cells.
type FloatConfig struct {
	Width  int
	Height int
	Row    int
	Col    int
	Border bool
	Title  string
}

// Host is the platform surface. All methods except Post must be
// called on the host thread; Post schedules a function onto it from
// any goroutine.
type Host interface {
	CreateBuffer(name string) Buffer
	FindBuffer(name string) (Buffer, bool)
	Buffers() []Buffer

	CurrentWindow() Window
	SetCurrentWindow(w Window)
	CurrentTab() int
	// Windows returns every window across all tabs.
	Windows() []Window
	// TabWindows returns the windows of one tab.
	TabWindows(tab int) []Window

	// Alternate returns the alternate buffer register of a window.
	Alternate(w Window) (Buffer, bool)
	SetAlternate(w Window, b Buffer)

	// Split creates a window beside w showing the same buffer and
	// focuses it.
	Split(w Window, vertical bool) Window
	// OpenFloat creates a floating window showing b.
	OpenFloat(cfg FloatConfig, b Buffer) Window

	// Size returns the usable host surface in cells.
	Size() (cols, rows int)

	Post(fn func())
	Notify(severity Severity, format string, args ...interface{})
}
