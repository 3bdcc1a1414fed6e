package ui

import "fmt"

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent  = 74  // blue
	colorCmd     = 250 // light gray
	colorMuted   = 245 // medium gray
	colorPrivate = 173 // orange
	colorPublic  = 114 // green
)

var noColor bool

func render(color int, s string) string {
	if noColor || s == "" {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", color, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return render(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return render(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return render(colorCmd, s) }

// RenderVisibility colors a project visibility: private in orange, public
// in green. Other values are returned unchanged.
func RenderVisibility(v string) string {
	switch v {
	case "private":
		return render(colorPrivate, v)
	case "public":
		return render(colorPublic, v)
	}
	return v
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
