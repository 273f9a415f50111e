package ui

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Theme holds the resolved color palette as hex strings.
type Theme struct {
	Foreground          string
	Background          string
	Accent              string
	SelectionForeground string
	SelectionBackground string
	Dim                 string
	Red                 string
	Green               string
	Yellow              string
	Blue                string
	Border              string
	BrightWhite         string
}

// paletteFile matches the colors.toml format used by omarchy themes and
// by wherehouse's own ui.theme file.
type paletteFile struct {
	Accent              string `toml:"accent"`
	Foreground          string `toml:"foreground"`
	Background          string `toml:"background"`
	SelectionForeground string `toml:"selection_foreground"`
	SelectionBackground string `toml:"selection_background"`
	Color0              string `toml:"color0"`
	Color1              string `toml:"color1"`
	Color2              string `toml:"color2"`
	Color3              string `toml:"color3"`
	Color4              string `toml:"color4"`
	Color8              string `toml:"color8"`
	Color15             string `toml:"color15"`
}

func defaultTheme() Theme {
	return Theme{
		Foreground:          "#e5e7eb",
		Background:          "#1a1b26",
		Accent:              "#f59e0b",
		SelectionForeground: "#1a1b26",
		SelectionBackground: "#f59e0b",
		Dim:                 "#6b7280",
		Red:                 "#ef4444",
		Green:               "#22c55e",
		Yellow:              "#eab308",
		Blue:                "#3b82f6",
		Border:              "#374151",
		BrightWhite:         "#f9fafb",
	}
}

// DefaultThemePath is the palette of the current omarchy theme, used when
// ui.theme is not configured.
func DefaultThemePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "omarchy", "current", "theme", "colors.toml")
}

// LoadTheme reads a palette file over the built-in theme. Any error yields
// the built-in theme.
func LoadTheme(path string) Theme {
	t := defaultTheme()
	if path == "" {
		return t
	}
	var p paletteFile
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return t
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&t.Foreground, p.Foreground)
	set(&t.Background, p.Background)
	set(&t.Accent, p.Accent)
	set(&t.SelectionForeground, p.SelectionForeground)
	set(&t.SelectionBackground, p.SelectionBackground)
	set(&t.Dim, p.Color0)
	set(&t.Red, p.Color1)
	set(&t.Green, p.Color2)
	set(&t.Yellow, p.Color3)
	set(&t.Blue, p.Color4)
	set(&t.Border, p.Color8)
	set(&t.BrightWhite, p.Color15)
	return t
}
