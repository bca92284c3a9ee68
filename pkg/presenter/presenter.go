// Package presenter writes user-facing CLI output with optional color and
// a quiet mode. Logs go through pkg/logger; this package is for results.
package presenter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

// ColorMode selects whether output is colored
type ColorMode int

const (
	// ColorAuto lets the color package detect a terminal
	ColorAuto ColorMode = iota
	// ColorAlways forces color
	ColorAlways
	// ColorNever disables color
	ColorNever
)

// ParseColorMode maps a config value to a ColorMode.
func ParseColorMode(s string) ColorMode {
	switch strings.ToLower(s) {
	case "always", "force":
		return ColorAlways
	case "never", "off":
		return ColorNever
	default:
		return ColorAuto
	}
}

// Terminal writes results to out and errors to errOut.
type Terminal struct {
	out    io.Writer
	errOut io.Writer
	mode   ColorMode
	quiet  bool
}

// New creates a terminal presenter on stdout and stderr.
func New() *Terminal {
	return NewWithOptions(os.Stdout, os.Stderr, detectColorMode())
}

// NewWithOptions creates a terminal presenter with explicit writers.
func NewWithOptions(out, errOut io.Writer, mode ColorMode) *Terminal {
	switch mode {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	}
	return &Terminal{out: out, errOut: errOut, mode: mode}
}

func detectColorMode() ColorMode {
	if os.Getenv("NO_COLOR") != "" {
		return ColorNever
	}
	return ParseColorMode(os.Getenv("OVERWATCH_COLOR"))
}

// Error prints err to the error stream, even in quiet mode.
func (t *Terminal) Error(err error, context string) {
	if err == nil {
		return
	}
	c := color.New(color.FgRed, color.Bold)
	if context != "" {
		c.Fprintf(t.errOut, "[ERROR] %s: %v\n", context, err)
		return
	}
	c.Fprintf(t.errOut, "[ERROR] %v\n", err)
}

// Success prints a check-marked message.
func (t *Terminal) Success(message string) {
	if t.quiet {
		return
	}
	color.New(color.FgGreen, color.Bold).Fprintf(t.out, "✓ %s\n", message)
}

// Warning prints a highlighted message.
func (t *Terminal) Warning(message string) {
	if t.quiet {
		return
	}
	color.New(color.FgYellow, color.Bold).Fprintf(t.out, "⚠ %s\n", message)
}

// Info prints message as is.
func (t *Terminal) Info(message string) {
	if t.quiet {
		return
	}
	fmt.Fprintln(t.out, message)
}

// Section prints an underlined header.
func (t *Terminal) Section(title string) {
	if t.quiet {
		return
	}
	c := color.New(color.Bold)
	c.Fprintln(t.out, title)
	c.Fprintln(t.out, strings.Repeat("-", len(title)))
}

// Table prints rows aligned in columns under header.
func (t *Terminal) Table(header []string, rows [][]string) {
	if t.quiet {
		return
	}
	w := tabwriter.NewWriter(t.out, 0, 4, 2, ' ', 0)
	if len(header) > 0 {
		fmt.Fprintln(w, color.New(color.Bold).Sprint(strings.Join(header, "\t")))
	}
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}

// SetQuiet suppresses everything but errors.
func (t *Terminal) SetQuiet(quiet bool) { t.quiet = quiet }

// IsQuiet reports whether quiet mode is on.
func (t *Terminal) IsQuiet() bool { return t.quiet }
