package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan  = lipgloss.Color("36")  // Teal - primary actions
	colorGreen = lipgloss.Color("35")  // Green - success
	colorBlue  = lipgloss.Color("75")  // Light blue - links
	colorWhite = lipgloss.Color("255") // Bright white - values
	colorGray  = lipgloss.Color("245") // Gray - secondary text
	colorDim   = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed detail line.
func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(w io.Writer, key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(w, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printStats prints diagram statistics on a single line.
func printStats(w io.Writer, nodeCount, edgeCount int, cached bool) {
	parts := []string{
		fmt.Sprintf("%d nodes", nodeCount),
		fmt.Sprintf("%d edges", edgeCount),
	}

	status := iconFresh
	statusStyle := styleComputed
	if cached {
		status = iconCached
		statusStyle = styleCached
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	line += StyleDim.Render(" · ") + statusStyle.Render(status)
	fmt.Fprintln(w, line)
}

// printNextStep prints a suggested next command.
func printNextStep(w io.Writer, description, cmd string) {
	fmt.Fprintln(w, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Tables
// =============================================================================

// renderTable draws rows under headers with the rounded border used across
// the CLI.
func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// orDash renders an empty cell as a dash.
func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}
