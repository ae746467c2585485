// Package style defines the visual theme for cargo-cook.
// All colours and text styles are defined here so that status lines,
// spinners and help output share one look-and-feel.
//
// Call Init(colorEnabled) once at startup. After that, use the exported
// styles and helper functions freely.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// ─── Colour palette ──────────────────────────────────────────────────────────

var (
	// Semantic
	Green  = lipgloss.Color("#22C55E")
	Yellow = lipgloss.Color("#FACC15")
	Red    = lipgloss.Color("#EF4444")
	Cyan   = lipgloss.Color("#00B4D8")

	// Neutral
	White = lipgloss.Color("#FAFAFA")
	Dim   = lipgloss.Color("#6B7280")
)

// ─── Reusable text styles ────────────────────────────────────────────────────

var (
	// Success style for positive confirmations.
	Success = lipgloss.NewStyle().
		Foreground(Green).
		Bold(true)

	// Warning style for non-fatal alerts.
	Warning = lipgloss.NewStyle().
		Foreground(Yellow)

	// Error style for error messages.
	Error = lipgloss.NewStyle().
		Foreground(Red).
		Bold(true)

	// DimText is used for hints and secondary info.
	DimText = lipgloss.NewStyle().
		Foreground(Dim)

	// Bold is a simple bold helper.
	Bold = lipgloss.NewStyle().Bold(true)

	// SpinnerColor is the colour used for spinner animations.
	SpinnerColor = Cyan
)

// ─── Helpers ─────────────────────────────────────────────────────────────────

// Enabled tracks whether styles should render ANSI output.
// When false, all styles degrade to plain text.
var Enabled = true

// Init configures the style package. Call once at startup.
func Init(colorEnabled bool) {
	Enabled = colorEnabled
	if !colorEnabled {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// Status renders a bold coloured label followed by plain text, e.g.
// "Finished cooking".
func Status(label lipgloss.Style, name, text string) string {
	if !Enabled {
		return name + " " + text
	}
	return label.Render(name) + " " + text
}

// SuccessIcon returns a themed check mark.
func SuccessIcon() string {
	if Enabled {
		return Success.Render("✓")
	}
	return "OK"
}

// ErrorIcon returns a themed X mark.
func ErrorIcon() string {
	if Enabled {
		return Error.Render("✗")
	}
	return "ERROR"
}

// Hint renders a "next step" hint message.
func Hint(msg string) string {
	return DimText.Render("→ " + msg)
}
