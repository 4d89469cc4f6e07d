package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"vdir/internal/constants"
)

// Config represents the application configuration
type Config struct {
	Window            WindowConfig            `json:"window"`
	Theme             ThemeConfig             `json:"theme"`
	View              ViewConfig              `json:"view"`
	Float             FloatConfig             `json:"float"`
	CursorMemory      CursorMemoryConfig      `json:"cursorMemory"`
	NavigationHistory NavigationHistoryConfig `json:"navigationHistory"`
	Watcher           WatcherConfig           `json:"watcher"`
}

// WindowConfig represents window-related settings
type WindowConfig struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ThemeConfig represents theme-related settings
type ThemeConfig struct {
	Dark     bool   `json:"dark"`
	FontSize int    `json:"fontSize"`
	FontPath string `json:"fontPath"`
}

// ViewConfig represents directory view settings
type ViewConfig struct {
	Columns         []string `json:"columns"`         // adapter columns shown left of the name
	ShowHiddenFiles bool     `json:"showHiddenFiles"` // include dot-prefixed entries
	IgnorePatterns  []string `json:"ignorePatterns"`  // doublestar globs dropped from listings
}

// FloatConfig represents floating window layout settings
type FloatConfig struct {
	Padding   int  `json:"padding"`   // cells kept free around the float
	Border    bool `json:"border"`    // draw a border (consumes one cell per side)
	MaxWidth  int  `json:"maxWidth"`  // 0 = unbounded
	MaxHeight int  `json:"maxHeight"` // 0 = unbounded
}

// CursorMemoryConfig represents cursor position memory settings
type CursorMemoryConfig struct {
	MaxEntries int                  `json:"maxEntries"` // Maximum number of addresses to remember
	Entries    map[string]string    `json:"entries"`    // key: address, value: entry name
	LastUsed   map[string]time.Time `json:"lastUsed"`   // LRU management
}

// NavigationHistoryConfig represents navigation history settings
type NavigationHistoryConfig struct {
	MaxEntries int                  `json:"maxEntries"` // Maximum number of addresses to remember
	Entries    []string             `json:"entries"`    // Address history (newest first)
	LastUsed   map[string]time.Time `json:"lastUsed"`   // LRU management
}

// WatcherConfig represents background staleness polling settings
type WatcherConfig struct {
	Enabled         bool `json:"enabled"`
	IntervalSeconds int  `json:"intervalSeconds"`
}

// Manager provides configuration management functionality
type Manager struct {
	configPath string
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{
		configPath: getConfigPath(),
	}
}

// NewManagerWithPath creates a manager bound to an explicit file,
// used by tests.
func NewManagerWithPath(path string) *Manager {
	return &Manager{configPath: path}
}

// Load loads configuration from file and merges with defaults
func (m *Manager) Load() (*Config, error) {
	// Start with default configuration
	config := getDefaultConfig()

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
		return config, nil
	}

	// Parse config file into a temporary config
	var fileConfig Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Merge file config with defaults
	mergeConfigs(config, &fileConfig)
	return config, nil
}

// Save saves configuration to file
func (m *Manager) Save(config *Config) error {
	// Create the config directory if it doesn't exist
	configDir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  constants.DefaultWindowWidth,
			Height: constants.DefaultWindowHeight,
		},
		Theme: ThemeConfig{
			Dark:     constants.DarkThemeDefault,
			FontSize: constants.DefaultFontSize,
			FontPath: "",
		},
		View: ViewConfig{
			Columns:         []string{"size"},
			ShowHiddenFiles: constants.DefaultShowHiddenFiles,
			IgnorePatterns:  make([]string, 0),
		},
		Float: FloatConfig{
			Padding:   constants.DefaultFloatPadding,
			Border:    true,
			MaxWidth:  0,
			MaxHeight: 0,
		},
		CursorMemory: CursorMemoryConfig{
			MaxEntries: 100,
			Entries:    make(map[string]string),
			LastUsed:   make(map[string]time.Time),
		},
		NavigationHistory: NavigationHistoryConfig{
			MaxEntries: 50,
			Entries:    make([]string, 0),
			LastUsed:   make(map[string]time.Time),
		},
		Watcher: WatcherConfig{
			Enabled:         true,
			IntervalSeconds: int(constants.WatcherInterval / time.Second),
		},
	}
}

// getConfigPath returns the path to the configuration file following OS conventions
func getConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		// Windows: %APPDATA%\vdir\config.json
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return constants.ConfigFileName
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, constants.ApplicationName)

	case "darwin":
		// macOS: ~/Library/Application Support/vdir/config.json
		home, err := os.UserHomeDir()
		if err != nil {
			return constants.ConfigFileName
		}
		configDir = filepath.Join(home, "Library", "Application Support", constants.ApplicationName)

	default:
		// Linux/Unix: $XDG_CONFIG_HOME/vdir/config.json or ~/.config/vdir/config.json
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return constants.ConfigFileName
			}
			xdgConfigHome = filepath.Join(home, ".config")
		}
		configDir = filepath.Join(xdgConfigHome, constants.ApplicationName)
	}

	return filepath.Join(configDir, constants.ConfigFileName)
}

// mergeConfigs merges file config values into default config
func mergeConfigs(defaultConfig *Config, fileConfig *Config) {
	// Merge Window config
	if fileConfig.Window.Width != 0 {
		defaultConfig.Window.Width = fileConfig.Window.Width
	}
	if fileConfig.Window.Height != 0 {
		defaultConfig.Window.Height = fileConfig.Window.Height
	}

	// Merge Theme config
	defaultConfig.Theme.Dark = fileConfig.Theme.Dark
	if fileConfig.Theme.FontSize != 0 {
		defaultConfig.Theme.FontSize = fileConfig.Theme.FontSize
	}
	if fileConfig.Theme.FontPath != "" {
		defaultConfig.Theme.FontPath = fileConfig.Theme.FontPath
	}

	// Merge View config
	if fileConfig.View.Columns != nil {
		defaultConfig.View.Columns = fileConfig.View.Columns
	}
	// Note: for bool values, we can't distinguish between false and unset, so we always use file value
	defaultConfig.View.ShowHiddenFiles = fileConfig.View.ShowHiddenFiles
	if fileConfig.View.IgnorePatterns != nil {
		defaultConfig.View.IgnorePatterns = fileConfig.View.IgnorePatterns
	}

	// Merge Float config
	if fileConfig.Float.Padding != 0 {
		defaultConfig.Float.Padding = fileConfig.Float.Padding
	}
	defaultConfig.Float.Border = fileConfig.Float.Border
	if fileConfig.Float.MaxWidth != 0 {
		defaultConfig.Float.MaxWidth = fileConfig.Float.MaxWidth
	}
	if fileConfig.Float.MaxHeight != 0 {
		defaultConfig.Float.MaxHeight = fileConfig.Float.MaxHeight
	}

	// Merge CursorMemory config
	if fileConfig.CursorMemory.MaxEntries != 0 {
		defaultConfig.CursorMemory.MaxEntries = fileConfig.CursorMemory.MaxEntries
	}
	if fileConfig.CursorMemory.Entries != nil {
		defaultConfig.CursorMemory.Entries = fileConfig.CursorMemory.Entries
	}
	if fileConfig.CursorMemory.LastUsed != nil {
		defaultConfig.CursorMemory.LastUsed = fileConfig.CursorMemory.LastUsed
	}

	// Merge NavigationHistory config
	if fileConfig.NavigationHistory.MaxEntries != 0 {
		defaultConfig.NavigationHistory.MaxEntries = fileConfig.NavigationHistory.MaxEntries
	}
	if fileConfig.NavigationHistory.Entries != nil {
		defaultConfig.NavigationHistory.Entries = fileConfig.NavigationHistory.Entries
	}
	if fileConfig.NavigationHistory.LastUsed != nil {
		defaultConfig.NavigationHistory.LastUsed = fileConfig.NavigationHistory.LastUsed
	}

	// Merge Watcher config
	defaultConfig.Watcher.Enabled = fileConfig.Watcher.Enabled
	if fileConfig.Watcher.IntervalSeconds != 0 {
		defaultConfig.Watcher.IntervalSeconds = fileConfig.Watcher.IntervalSeconds
	}
}

// AddToNavigationHistory adds an address to navigation history
func (c *Config) AddToNavigationHistory(addr string) {
	now := time.Now()

	// Remove existing entry if it exists
	for i, entry := range c.NavigationHistory.Entries {
		if entry == addr {
			c.NavigationHistory.Entries = append(
				c.NavigationHistory.Entries[:i],
				c.NavigationHistory.Entries[i+1:]...,
			)
			break
		}
	}

	// Add to beginning of slice (newest first)
	c.NavigationHistory.Entries = append([]string{addr}, c.NavigationHistory.Entries...)

	// Update last used time
	c.NavigationHistory.LastUsed[addr] = now

	// Enforce max entries limit
	if len(c.NavigationHistory.Entries) > c.NavigationHistory.MaxEntries {
		// Remove oldest entry
		oldest := c.NavigationHistory.Entries[c.NavigationHistory.MaxEntries]
		c.NavigationHistory.Entries = c.NavigationHistory.Entries[:c.NavigationHistory.MaxEntries]
		delete(c.NavigationHistory.LastUsed, oldest)
	}
}

// GetNavigationHistory returns the navigation history entries sorted by last used time (newest first)
func (c *Config) GetNavigationHistory() []string {
	entries := c.NavigationHistory.Entries
	if len(entries) <= 1 {
		return entries
	}

	// Create a copy to avoid modifying the original
	sorted := make([]string, len(entries))
	copy(sorted, entries)

	// Sort by last used time (newest first)
	for i := 0; i < len(sorted)-1; i++ {
		for j := i + 1; j < len(sorted); j++ {
			timeI := c.NavigationHistory.LastUsed[sorted[i]]
			timeJ := c.NavigationHistory.LastUsed[sorted[j]]

			// If timeJ is newer than timeI, swap
			if timeJ.After(timeI) {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}

	return sorted
}

// FilterNavigationHistory filters history entries by query (case-insensitive partial match)
func (c *Config) FilterNavigationHistory(query string) []string {
	if query == "" {
		return c.NavigationHistory.Entries
	}

	query = strings.ToLower(query)
	var filtered []string

	for _, addr := range c.NavigationHistory.Entries {
		if strings.Contains(strings.ToLower(addr), query) {
			filtered = append(filtered, addr)
		}
	}

	return filtered
}

// RememberCursor records the cursor entry for an address, evicting
// the least recently used address beyond MaxEntries.
func (c *Config) RememberCursor(addr, name string) {
	c.CursorMemory.Entries[addr] = name
	c.CursorMemory.LastUsed[addr] = time.Now()

	for len(c.CursorMemory.Entries) > c.CursorMemory.MaxEntries {
		oldestAddr := ""
		var oldestTime time.Time
		for a, t := range c.CursorMemory.LastUsed {
			if oldestAddr == "" || t.Before(oldestTime) {
				oldestAddr = a
				oldestTime = t
			}
		}
		delete(c.CursorMemory.Entries, oldestAddr)
		delete(c.CursorMemory.LastUsed, oldestAddr)
	}
}
