// Package output provides styled terminal output for the osprey CLI.
//
// Messages go to stdout through lipgloss styles. Long-running work can be
// wrapped in Spin, which shows a spinner on stderr when it is a terminal.
//
//	output.Success("No violations found")
//	output.Info("Report written to report.md")
//	output.Step("osprey assess ./src")
//	output.Error("Assessment failed: permission denied")
package output

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	verboseMode bool
	quietMode   bool
)

// SetVerbose enables or disables verbose output.
// Called by the root command when --verbose is set.
func SetVerbose(v bool) {
	verboseMode = v
}

// SetQuiet suppresses everything but errors, including the spinner
func SetQuiet(q bool) {
	quietMode = q
}

// IsVerbose reports whether verbose output is enabled
func IsVerbose() bool {
	return verboseMode
}

// Success prints a success message in green
func Success(msg string) {
	if quietMode {
		return
	}
	fmt.Println(successStyle.Render("✅ " + msg))
}

// Error prints an error message in red
func Error(msg string) {
	fmt.Println(errorStyle.Render("❌ " + msg))
}

// Warning prints a warning in yellow
func Warning(msg string) {
	if quietMode {
		return
	}
	fmt.Println(warnStyle.Render("⚠️  " + msg))
}

// Info prints an informational message in cyan
func Info(msg string) {
	if quietMode {
		return
	}
	fmt.Println(infoStyle.Render("ℹ️  " + msg))
}

// Step prints an indented step message in gray.
// Use this for next steps or sub-items.
func Step(msg string) {
	if quietMode {
		return
	}
	fmt.Println(stepStyle.Render("   " + msg))
}

// Verbose prints a debug message only if verbose mode is enabled
func Verbose(msg string) {
	if verboseMode {
		fmt.Println(stepStyle.Render("🔍 " + msg))
	}
}

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of stdout, defaulting to 80 if unable to detect
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
