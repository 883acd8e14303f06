package command

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tingly-dev/hab-export/internal/config"
	"github.com/tingly-dev/hab-export/internal/constant"
	"github.com/tingly-dev/hab-export/internal/export"
	"github.com/tingly-dev/hab-export/internal/obs"
	"github.com/tingly-dev/hab-export/internal/ui"
)

// Exit codes returned by ExitCode
const (
	ExitOK                     = 0
	ExitFailure                = 1
	ExitUnsupportedFormat      = 2
	ExitSubcommandNotSupported = 3
)

// BuildInfo is set by the compiler via -ldflags
type BuildInfo struct {
	Version   string
	GitCommit string
	BuildTime string
	Platform  string
}

// App carries state shared by all subcommands
type App struct {
	Build BuildInfo

	// Args is the invocation without the program name, used when reporting
	// unsupported subcommands
	Args []string

	Reporter ui.Reporter
	Stdout   io.Writer
	Stderr   io.Writer

	// NewGate and Execer are replaceable for tests
	NewGate func(export.Deps) export.Gate
	Execer  export.Execer

	configFile string
	verbose    bool
	config     *config.Config
	logCloser  io.Closer
}

// NewRootCommand builds the hab command tree
func NewRootCommand(app *App) *cobra.Command {
	if app.NewGate == nil {
		app.NewGate = export.PlatformGate
	}
	if app.Execer == nil {
		app.Execer = export.SysExecer{}
	}
	if app.Reporter == nil {
		app.Reporter = ui.NewStd()
	}

	root := &cobra.Command{
		Use:           "hab",
		Short:         "Habitat package tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(app.configFile)
			if err != nil {
				return err
			}
			app.config = cfg

			closer, err := obs.SetupLogging(obs.LogOptions{
				File:    cfg.LogFile,
				Verbose: app.verbose || cfg.Verbose,
				Stderr:  app.Stderr,
			})
			if err != nil {
				return fmt.Errorf("failed to set up logging: %w", err)
			}
			app.logCloser = closer
			logrus.WithField("args", app.Args).Debug("Starting")
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app.logCloser != nil {
				return app.logCloser.Close()
			}
			return nil
		},
	}
	if app.Stdout != nil {
		root.SetOut(app.Stdout)
	}
	if app.Stderr != nil {
		root.SetErr(app.Stderr)
	}

	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().StringVar(&app.configFile, "config", constant.GetConfigFile(), "config file")

	root.AddCommand(VersionCommand(app))
	root.AddCommand(PkgCommand(app))
	return root
}

// VersionCommand prints build information
func VersionCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "hab export CLI\n")
			fmt.Fprintf(out, "Version:    %s\n", app.Build.Version)
			fmt.Fprintf(out, "Git Commit: %s\n", app.Build.GitCommit)
			fmt.Fprintf(out, "Build Time: %s\n", app.Build.BuildTime)
			fmt.Fprintf(out, "Platform:   %s\n", app.Build.Platform)
		},
	}
}

// PkgCommand groups package subcommands
func PkgCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pkg",
		Short: "Commands relating to Habitat packages",
	}
	cmd.AddCommand(ExportCommand(app))
	return cmd
}

// ExitCode maps an error returned by the command tree to a process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var unsupported *export.UnsupportedFormatError
	if errors.As(err, &unsupported) {
		return ExitUnsupportedFormat
	}
	var notSupported *export.SubcommandNotSupportedError
	if errors.As(err, &notSupported) {
		return ExitSubcommandNotSupported
	}
	return ExitFailure
}
