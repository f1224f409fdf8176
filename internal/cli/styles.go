package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	primaryColor = lipgloss.Color("#1E88E5")
	goodColor    = lipgloss.Color("#00AA00")
	warnColor    = lipgloss.Color("#FFA500")
	badColor     = lipgloss.Color("#D32F2F")
	mutedColor   = lipgloss.Color("#888888")
	textColor    = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(badColor)

	KeyStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(22)

	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)

	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(warnColor).
			MarginTop(1)
)

// PrintVersion prints version information
func PrintVersion(w io.Writer, version string) {
	fmt.Fprintln(w, TitleStyle.Render("Sonido Eco"))
	fmt.Fprintf(w, "%s %s\n", KeyStyle.Render("Version:"), ValueStyle.Render(version))
	fmt.Fprintln(w)
}

// PrintError prints an error message
func PrintError(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("Error:"), message)
}

// percentStyle colours a similarity percentage by band
func percentStyle(p float64) lipgloss.Style {
	color := badColor
	switch {
	case p >= 80:
		color = goodColor
	case p >= 50:
		color = warnColor
	}
	return lipgloss.NewStyle().Bold(true).Foreground(color)
}
