package constants

import "time"

// Application constants
const (
	ApplicationName  = "vdir"
	ApplicationTitle = "Virtual Directory Editor"
)

// UI constants
const (
	// Window dimensions
	DefaultWindowWidth  = 800
	DefaultWindowHeight = 600

	// Keyboard navigation
	FastNavigationStep = 20
)

// Directory watcher constants
const (
	WatcherInterval = 2 * time.Second
)

// File size constants
const (
	FileSizeUnit  = 1024
	FileSizeUnits = "KMGTPE"
)

// Theme constants
const (
	DefaultFontSize  = 14
	DarkThemeDefault = true
)

// Configuration constants
const (
	ConfigFileName         = "config.json"
	DefaultShowHiddenFiles = false
)

// Preview float constants
const (
	DefaultFloatPadding = 2
)
