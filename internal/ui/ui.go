// Package ui is the user-facing status surface of the CLI. Diagnostics go
// to logrus; everything a user is meant to read goes through UI.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Status is the kind of a progress line
type Status int

const (
	StatusMissing Status = iota
	StatusDownloading
	StatusVerifying
	StatusInstalling
	StatusInstalled
	StatusUsing
	StatusCached
)

func (s Status) symbol() string {
	switch s {
	case StatusMissing:
		return "∵"
	case StatusDownloading, StatusInstalling:
		return "↓"
	case StatusVerifying:
		return "☛"
	case StatusInstalled:
		return "✓"
	case StatusUsing:
		return "→"
	case StatusCached:
		return "☑"
	default:
		return "•"
	}
}

func (s Status) String() string {
	switch s {
	case StatusMissing:
		return "Missing"
	case StatusDownloading:
		return "Downloading"
	case StatusVerifying:
		return "Verifying"
	case StatusInstalling:
		return "Installing"
	case StatusInstalled:
		return "Installed"
	case StatusUsing:
		return "Using"
	case StatusCached:
		return "Cached"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// UI writes status lines to out. Warnings and the separator that follows
// them go to errOut.
type UI struct {
	out      io.Writer
	errOut   io.Writer
	theme    theme
	errTheme theme
}

// New creates a UI writing to the given streams
func New(out, errOut io.Writer) *UI {
	return &UI{
		out:      out,
		errOut:   errOut,
		theme:    newTheme(lipgloss.NewRenderer(out)),
		errTheme: newTheme(lipgloss.NewRenderer(errOut)),
	}
}

// NewStd creates a UI on stdout/stderr
func NewStd() *UI {
	return New(os.Stdout, os.Stderr)
}

// Status writes a single "<symbol> <Verb> <message>" line
func (u *UI) Status(s Status, message string) error {
	label := u.theme.status[s].Render(s.symbol() + " " + s.String())
	_, err := fmt.Fprintf(u.out, "%s %s\n", label, message)
	return err
}

// Warn writes a "∅ <message>" line to the error stream
func (u *UI) Warn(message string) error {
	_, err := fmt.Fprintf(u.errOut, "%s\n", u.errTheme.warning.Render("∅ "+message))
	return err
}

// Br writes a blank separator line to the error stream
func (u *UI) Br() error {
	_, err := fmt.Fprintln(u.errOut)
	return err
}

// Reporter is the part of UI that installers and dispatchers need
type Reporter interface {
	Status(s Status, message string) error
	Warn(message string) error
	Br() error
}

var _ Reporter = (*UI)(nil)
