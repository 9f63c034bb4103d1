package ui

import "github.com/charmbracelet/lipgloss"

// Lipgloss colors
const (
	ColorTitle   = "14"  // Cyan for titles
	ColorHelp    = "245" // Grey for help text
	ColorError   = "9"   // Red for errors
	ColorSuccess = "10"  // Green for completed steps
	ColorFocus   = "205" // Focused form field
	ColorBorder  = "240"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorTitle)).Bold(true)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelp))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess))
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorFocus))
	blurredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBorder))
)

// Step markers for the run view and plain output.
const (
	MarkOK   = "✓"
	MarkFail = "✗"
)
