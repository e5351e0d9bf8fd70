package output

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette. Never use inline lipgloss.Color literals elsewhere.
var (
	// ColorCyan is used for identifiable nouns: function names, paths.
	ColorCyan = lipgloss.Color("14")

	// ColorYellow is used for the "skipped" status.
	ColorYellow = lipgloss.Color("220")

	colorGreen      = lipgloss.Color("82")
	colorRed        = lipgloss.Color("196")
	colorBoldRed    = lipgloss.Color("204")
	colorGreenCheck = lipgloss.Color("10")
)

// Semantic styles.
var (
	// StyleNoun styles identifiable nouns (function names, output paths).
	StyleNoun = lipgloss.NewStyle().Foreground(ColorCyan)

	// StyleAction styles action verbs (bundling, copying, cleaning).
	StyleAction = lipgloss.NewStyle().Bold(true)

	// StyleDim styles structural chrome (scope prefixes, separators).
	StyleDim = lipgloss.NewStyle().Faint(true)

	// StyleSummary styles completion and summary lines.
	StyleSummary = lipgloss.NewStyle().Bold(true)
)

// Function build status values.
const (
	StatusBuilt   = "built"
	StatusSkipped = "skipped"
	StatusCleaned = "cleaned"
	StatusKept    = "kept"
	StatusFailed  = "failed"
)

func statusStyle(status string) lipgloss.Style {
	switch status {
	case StatusBuilt:
		return lipgloss.NewStyle().Foreground(colorGreen)
	case StatusSkipped:
		return lipgloss.NewStyle().Foreground(ColorYellow)
	case StatusCleaned:
		return lipgloss.NewStyle().Foreground(colorRed)
	case StatusKept:
		return lipgloss.NewStyle().Faint(true)
	case StatusFailed:
		return lipgloss.NewStyle().Bold(true).Foreground(colorBoldRed)
	default:
		return lipgloss.NewStyle()
	}
}

// minUnitColumnWidth keeps status words aligned across lines.
const minUnitColumnWidth = 40

// FormatUnitLine renders a function name with a right-aligned, color-coded
// status suffix.
//
// Format: f:<name>  <status>
func FormatUnitLine(name, status string) string {
	padding := minUnitColumnWidth - len(name)
	if padding < 2 {
		padding = 2
	}

	return StyleDim.Render("f:") +
		StyleNoun.Render(name) +
		strings.Repeat(" ", padding) +
		statusStyle(status).Render(status)
}

// FormatCheckmark renders a green checkmark with a message for stdout output.
func FormatCheckmark(msg string) string {
	check := lipgloss.NewStyle().Foreground(colorGreenCheck).Render("✔")
	return check + " " + msg
}

// FormatSummary renders the closing line of a build.
func FormatSummary(built, skipped int, outputRoot string) string {
	return StyleSummary.Render(fmt.Sprintf("%d built, %d skipped", built, skipped)) +
		StyleDim.Render(" → ") + StyleNoun.Render(outputRoot)
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// stripAnsi removes ANSI escape sequences.
func stripAnsi(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}
