package theme

import (
	"image/color"
	"log"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"vdir/internal/config"
)

// CustomTheme layers the configured font and size over the stock light
// or dark theme.
type CustomTheme struct {
	cfg  *config.Config
	font fyne.Resource
}

// NewCustomTheme builds a theme from cfg, loading the configured font
// file if one is set. A missing or unreadable font is logged and
// ignored.
func NewCustomTheme(cfg *config.Config) *CustomTheme {
	t := &CustomTheme{cfg: cfg}
	if p := cfg.Theme.FontPath; p != "" {
		data, err := os.ReadFile(p)
		if err != nil {
			log.Printf("theme: font %s unavailable: %v", p, err)
		} else {
			t.font = fyne.NewStaticResource(filepath.Base(p), data)
		}
	}
	return t
}

func (t *CustomTheme) base() fyne.Theme {
	if t.cfg.Theme.Dark {
		return theme.DarkTheme()
	}
	return theme.DefaultTheme()
}

func (t *CustomTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	return t.base().Color(name, variant)
}

func (t *CustomTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.base().Icon(name)
}

func (t *CustomTheme) Font(style fyne.TextStyle) fyne.Resource {
	if t.font != nil {
		return t.font
	}
	return t.base().Font(style)
}

func (t *CustomTheme) Size(name fyne.ThemeSizeName) float32 {
	if name == theme.SizeNameText && t.cfg.Theme.FontSize > 0 {
		return float32(t.cfg.Theme.FontSize)
	}
	return t.base().Size(name)
}
