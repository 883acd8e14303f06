// Package export resolves export formats to helper packages, installs the
// helper on demand and hands the process over to it.
package export

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tingly-dev/hab-export/internal/ident"
	"github.com/tingly-dev/hab-export/internal/pkgstore"
	"github.com/tingly-dev/hab-export/internal/ui"
)

// Request is a single export invocation
type Request struct {
	// URL and Channel locate the target package. The helper receives them
	// through its environment.
	URL     string
	Channel string

	// HabURL and HabChannel locate the helper package itself
	HabURL     string
	HabChannel string

	Ident  ident.PackageIdent
	Format ExportFormat

	// Invocation is the CLI's own arguments without the program name
	Invocation []string
}

// PackageLoader looks up a locally installed package
type PackageLoader interface {
	Load(id ident.PackageIdent) (*pkgstore.InstalledPackage, error)
}

// PackageInstaller installs a package from a depot
type PackageInstaller interface {
	Install(ctx context.Context, reporter ui.Reporter, req pkgstore.InstallRequest) error
}

// Deps are the collaborators of the export pipeline
type Deps struct {
	Reporter  ui.Reporter
	Loader    PackageLoader
	Installer PackageInstaller
	Execer    Execer

	// Product and Version identify this CLI to the depot
	Product string
	Version string

	FSRoot    string
	CachePath string

	// Environ is the base environment for the helper; os.Environ when nil
	Environ func() []string
}

// Exporter runs the export pipeline on a supported platform
type Exporter struct {
	deps Deps
}

var _ Gate = (*Exporter)(nil)

// NewExporter creates an exporter
func NewExporter(deps Deps) *Exporter {
	if deps.Environ == nil {
		deps.Environ = os.Environ
	}
	return &Exporter{deps: deps}
}

// FormatFor resolves a format keyword
func (e *Exporter) FormatFor(keyword string) (ExportFormat, error) {
	return LookupFormat(keyword)
}

// Start ensures the helper is installed, then execs it with the target
// ident as its only argument
func (e *Exporter) Start(ctx context.Context, req Request) error {
	log := logrus.WithFields(logrus.Fields{
		"request_id": uuid.NewString(),
		"helper":     req.Format.PkgIdent().String(),
		"ident":      req.Ident.String(),
	})

	helper, err := e.deps.Loader.Load(req.Format.PkgIdent())
	if err != nil {
		log.WithError(err).Debug("Helper not installed")
		if err := e.installHelper(ctx, req); err != nil {
			return err
		}
		helper, err = e.deps.Loader.Load(req.Format.PkgIdent())
		if err != nil {
			return fmt.Errorf("helper %s missing after install: %w", req.Format.PkgIdent(), err)
		}
	}

	log.WithField("installed", helper.Ident.String()).Info("Handing off to export helper")
	return e.handoff(helper, req)
}

func (e *Exporter) installHelper(ctx context.Context, req Request) error {
	id := req.Format.PkgIdent()
	if err := e.deps.Reporter.Status(ui.StatusMissing, fmt.Sprintf("package for %s", id)); err != nil {
		return err
	}
	return e.deps.Installer.Install(ctx, e.deps.Reporter, pkgstore.InstallRequest{
		URL:       req.HabURL,
		Channel:   req.HabChannel,
		Ident:     id.String(),
		Product:   e.deps.Product,
		Version:   e.deps.Version,
		FSRoot:    e.deps.FSRoot,
		CachePath: e.deps.CachePath,
		Force:     false,
	})
}
