// Package ui holds the ANSI styling used by the CLI output
package ui

// ANSI color and style constants for CLI output
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorWhite  = "\033[97m"
	ColorRed    = "\033[31m"
)

// Paint wraps s in style and a reset
func Paint(style, s string) string {
	return style + s + ColorReset
}

func Bold(s string) string    { return Paint(ColorBold, s) }
func Success(s string) string { return Paint(ColorGreen, s) }
func Info(s string) string    { return Paint(ColorDim+ColorYellow, s) }
func Error(s string) string   { return Paint(ColorRed, s) }
