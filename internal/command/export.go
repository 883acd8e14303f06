package command

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tingly-dev/hab-export/internal/config"
	"github.com/tingly-dev/hab-export/internal/constant"
	"github.com/tingly-dev/hab-export/internal/export"
	"github.com/tingly-dev/hab-export/internal/ident"
	"github.com/tingly-dev/hab-export/internal/pkgstore"
)

// ExportCommand represents `hab pkg export`
func ExportCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <FORMAT> <PKG_IDENT>",
		Short: "Export a package to a format for running in another runtime",
		Long: fmt.Sprintf(`Export a Habitat package using a format-specific helper package.
The helper is installed on demand and then run with the package identifier.

Supported formats: %s

Examples:
  # Export the latest stable core/redis as a Docker image
  hab pkg export docker core/redis

  # Export a specific release as a tarball, pulling it from the unstable channel
  hab pkg export tar core/redis/3.2.4/20170514150022 --channel unstable`, strings.Join(export.Formats(), ", ")),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(app, cmd, args[0], args[1])
		},
	}

	config.RegisterFlags(cmd.Flags())
	return cmd
}

func runExport(app *App, cmd *cobra.Command, formatArg, identArg string) error {
	cfg := *app.config
	cfg.ApplyFlags(cmd.Flags())

	gate := app.NewGate(export.Deps{
		Reporter:  app.Reporter,
		Loader:    pkgstore.NewLoader(cfg.FSRoot),
		Installer: pkgstore.NewInstaller(),
		Execer:    app.Execer,
		Product:   constant.Product,
		Version:   app.Build.Version,
		FSRoot:    cfg.FSRoot,
		CachePath: cfg.ArtifactCachePath(),
	})

	format, err := gate.FormatFor(formatArg)
	if err != nil {
		return err
	}
	id, err := ident.Parse(identArg)
	if err != nil {
		return err
	}

	return gate.Start(cmd.Context(), export.Request{
		URL:        cfg.URL,
		Channel:    cfg.Channel,
		HabURL:     cfg.HabURL,
		HabChannel: cfg.HabChannel,
		Ident:      id,
		Format:     format,
		Invocation: app.Args,
	})
}
