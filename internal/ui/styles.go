package ui

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"
)

// T is the active theme. Change it with SetTheme before building views.
var T = defaultTheme()

var (
	ColorGreen  color.Color
	ColorRed    color.Color
	ColorYellow color.Color
	ColorBlue   color.Color
	ColorDim    color.Color
	ColorWhite  color.Color
	ColorBorder color.Color
	ColorAccent color.Color
	ColorHeader color.Color

	StyleHeader        lipgloss.Style
	StyleActive        lipgloss.Style
	StyleInactive      lipgloss.Style
	StyleDim           lipgloss.Style
	StyleAccent        lipgloss.Style
	StyleError         lipgloss.Style
	StyleWarn          lipgloss.Style
	StyleMode          lipgloss.Style
	StylePreviewBorder lipgloss.Style
)

func init() {
	SetTheme(T)
}

// SetTheme makes t the active theme and rebuilds every style from it.
func SetTheme(t Theme) {
	T = t

	ColorGreen = lipgloss.Color(t.Green)
	ColorRed = lipgloss.Color(t.Red)
	ColorYellow = lipgloss.Color(t.Yellow)
	ColorBlue = lipgloss.Color(t.Blue)
	ColorDim = lipgloss.Color(t.Dim)
	ColorWhite = lipgloss.Color(t.Foreground)
	ColorBorder = lipgloss.Color(t.Border)
	ColorAccent = lipgloss.Color(t.Accent)
	ColorHeader = lipgloss.Color(t.BrightWhite)

	StyleHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorHeader)

	StyleActive = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorGreen)

	StyleInactive = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorRed)

	StyleDim = lipgloss.NewStyle().
		Foreground(ColorDim)

	StyleAccent = lipgloss.NewStyle().
		Foreground(ColorAccent)

	StyleError = lipgloss.NewStyle().
		Foreground(ColorRed)

	StyleWarn = lipgloss.NewStyle().
		Foreground(ColorYellow)

	StyleMode = lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Foreground(lipgloss.Color(t.SelectionForeground)).
		Background(lipgloss.Color(t.SelectionBackground))

	StylePreviewBorder = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(ColorBorder).
		PaddingLeft(1)
}

// StatusIcon returns an icon for a task status.
func StatusIcon(status string) string {
	switch status {
	case "ok":
		return lipgloss.NewStyle().Foreground(ColorGreen).Render("✔")
	case "running":
		return lipgloss.NewStyle().Foreground(ColorBlue).Render("⟳")
	case "failed":
		return lipgloss.NewStyle().Foreground(ColorRed).Render("✘")
	case "cancelled":
		return lipgloss.NewStyle().Foreground(ColorDim).Render("⏹")
	default:
		return " "
	}
}

// FormatDuration formats a duration for a narrow table column.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	if s == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dm%ds", m, s)
}

// FormatTime formats a timestamp relative to today.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	now := time.Now()
	t = t.Local()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04:05")
	}
	return t.Format("Jan 02 15:04")
}

// Truncate shortens s to at most w terminal cells, flattening newlines.
func Truncate(s string, w int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if w <= 0 {
		return ""
	}
	return runewidth.Truncate(s, w, "…")
}
