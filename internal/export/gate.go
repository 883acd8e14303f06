package export

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/tingly-dev/hab-export/internal/ui"
)

// SupportedOS is the only platform that can run export helpers
const SupportedOS = "linux"

const unknownArg = "<unknown>"

// Gate is the export pipeline as seen by the CLI. On a supported platform it
// is an *Exporter; elsewhere every call fails after telling the user why.
type Gate interface {
	FormatFor(keyword string) (ExportFormat, error)

	// Start provisions the helper and hands control to it. On success with
	// a process-replacing Execer it does not return.
	Start(ctx context.Context, req Request) error
}

// NewGate selects the gate for goos
func NewGate(goos string, deps Deps) Gate {
	if goos == SupportedOS {
		return NewExporter(deps)
	}
	return &unsupportedGate{reporter: deps.Reporter}
}

// PlatformGate selects the gate for the running platform
func PlatformGate(deps Deps) Gate {
	return NewGate(runtime.GOOS, deps)
}

type unsupportedGate struct {
	reporter ui.Reporter
}

func (g *unsupportedGate) FormatFor(keyword string) (ExportFormat, error) {
	if err := g.reporter.Warn(fmt.Sprintf(
		"Exporting %s packages from this operating system is not yet supported. "+
			"Try running this command again on a 64-bit Linux operating system.", keyword)); err != nil {
		return ExportFormat{}, err
	}
	if err := g.reporter.Br(); err != nil {
		return ExportFormat{}, err
	}
	return ExportFormat{}, &UnsupportedFormatError{Format: keyword}
}

func (g *unsupportedGate) Start(_ context.Context, req Request) error {
	if err := g.reporter.Warn("Exporting packages from this operating system is not yet supported. " +
		"Try running this command again on a 64-bit Linux operating system."); err != nil {
		return err
	}
	if err := g.reporter.Br(); err != nil {
		return err
	}
	return &SubcommandNotSupportedError{Invocation: invocationString(req.Invocation)}
}

// invocationString joins the first two invocation args, substituting
// "<unknown>" for missing ones
func invocationString(args []string) string {
	parts := []string{unknownArg, unknownArg}
	for i := 0; i < len(parts) && i < len(args); i++ {
		parts[i] = args[i]
	}
	return strings.Join(parts, " ")
}
