package pkgstore

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/tingly-dev/hab-export/internal/constant"
	"github.com/tingly-dev/hab-export/internal/ident"
	"github.com/tingly-dev/hab-export/internal/ui"
	"github.com/tingly-dev/hab-export/pkg/fs"
)

// InstallRequest describes a package to install from a depot
type InstallRequest struct {
	URL     string
	Channel string // empty means constant.DefaultChannel
	Ident   string

	// Product and Version identify the caller in the User-Agent header
	Product string
	Version string

	FSRoot    string
	CachePath string
	Force     bool
}

// Installer downloads, verifies and unpacks packages from a depot
type Installer struct {
	client *http.Client
}

// InstallerOption defines a functional option for Installer
type InstallerOption func(*Installer)

// WithHTTPClient overrides the HTTP client used to reach the depot
func WithHTTPClient(client *http.Client) InstallerOption {
	return func(i *Installer) {
		i.client = client
	}
}

// NewInstaller creates an installer. No timeout is set on the default
// client; callers bound the install with ctx.
func NewInstaller(opts ...InstallerOption) *Installer {
	i := &Installer{client: &http.Client{}}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

type packageMeta struct {
	Ident    ident.PackageIdent
	Checksum string
	TDeps    []ident.PackageIdent
}

// Install installs req.Ident and its transitive dependencies under req.FSRoot
func (i *Installer) Install(ctx context.Context, reporter ui.Reporter, req InstallRequest) error {
	id, err := ident.Parse(req.Ident)
	if err != nil {
		return err
	}
	if req.Channel == "" {
		req.Channel = constant.DefaultChannel
	}

	meta, err := i.fetchMeta(ctx, req, id)
	if err != nil {
		return err
	}

	loader := NewLoader(req.FSRoot)
	if !req.Force {
		if _, err := loader.Load(meta.Ident); err == nil {
			return reporter.Status(ui.StatusUsing, meta.Ident.String())
		}
	}

	if err := reporter.Status(ui.StatusInstalling, meta.Ident.String()); err != nil {
		return err
	}
	for _, dep := range meta.TDeps {
		if _, err := loader.Load(dep); err == nil {
			continue
		}
		depMeta, err := i.fetchMeta(ctx, req, dep)
		if err != nil {
			return err
		}
		if err := i.installArtifact(ctx, reporter, req, depMeta); err != nil {
			return err
		}
	}
	return i.installArtifact(ctx, reporter, req, meta)
}

func (i *Installer) installArtifact(ctx context.Context, reporter ui.Reporter, req InstallRequest, meta packageMeta) error {
	archive := filepath.Join(req.CachePath, meta.Ident.ArchiveName())
	if !fs.Within(req.CachePath, archive) {
		return fmt.Errorf("artifact name %q escapes the artifact cache", meta.Ident.ArchiveName())
	}

	if fileExists(archive) && VerifyArtifact(archive, meta.Checksum) == nil {
		if err := reporter.Status(ui.StatusCached, meta.Ident.ArchiveName()); err != nil {
			return err
		}
	} else {
		if err := reporter.Status(ui.StatusDownloading, meta.Ident.ArchiveName()); err != nil {
			return err
		}
		if err := i.download(ctx, req, meta.Ident, archive); err != nil {
			return err
		}
		if err := reporter.Status(ui.StatusVerifying, meta.Ident.ArchiveName()); err != nil {
			return err
		}
		if err := VerifyArtifact(archive, meta.Checksum); err != nil {
			os.Remove(archive)
			return err
		}
	}

	if err := UnpackArtifact(archive, req.FSRoot); err != nil {
		return fmt.Errorf("failed to unpack %s: %w", meta.Ident, err)
	}
	logrus.WithFields(logrus.Fields{
		"ident":   meta.Ident.String(),
		"fs_root": req.FSRoot,
	}).Debug("Unpacked artifact")
	return reporter.Status(ui.StatusInstalled, meta.Ident.String())
}

func (i *Installer) fetchMeta(ctx context.Context, req InstallRequest, id ident.PackageIdent) (packageMeta, error) {
	var endpoint string
	if id.FullyQualified() {
		endpoint = depotPath(req.URL, "pkgs", id.Origin, id.Name, id.Version, id.Release)
	} else {
		segments := []string{"channels", id.Origin, req.Channel, "pkgs", id.Name}
		if id.Version != "" {
			segments = append(segments, id.Version)
		}
		endpoint = depotPath(req.URL, append(segments, "latest")...)
	}

	resp, err := i.get(ctx, req, endpoint)
	if err != nil {
		return packageMeta{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return packageMeta{}, fmt.Errorf("package %s not found in channel %s at %s", id, req.Channel, req.URL)
	}
	if resp.StatusCode != http.StatusOK {
		return packageMeta{}, fmt.Errorf("depot returned %s for %s", resp.Status, endpoint)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return packageMeta{}, fmt.Errorf("failed to read package metadata for %s: %w", id, err)
	}
	return parseMeta(body)
}

func parseMeta(body []byte) (packageMeta, error) {
	if !gjson.ValidBytes(body) {
		return packageMeta{}, fmt.Errorf("depot returned invalid package metadata")
	}
	doc := gjson.ParseBytes(body)

	id, err := identFromJSON(doc.Get("ident"))
	if err != nil {
		return packageMeta{}, err
	}
	sum := doc.Get("checksum").String()
	if !validChecksum(sum) {
		return packageMeta{}, fmt.Errorf("depot returned an invalid checksum %q for %s", sum, id)
	}
	meta := packageMeta{Ident: id, Checksum: sum}

	for _, dep := range doc.Get("tdeps").Array() {
		depIdent, err := identFromJSON(dep)
		if err != nil {
			return packageMeta{}, fmt.Errorf("dependency of %s: %w", id, err)
		}
		meta.TDeps = append(meta.TDeps, depIdent)
	}
	return meta, nil
}

// identFromJSON reads a depot ident object. Depot idents are always fully
// qualified.
func identFromJSON(v gjson.Result) (ident.PackageIdent, error) {
	id := ident.PackageIdent{
		Origin:  v.Get("origin").String(),
		Name:    v.Get("name").String(),
		Version: v.Get("version").String(),
		Release: v.Get("release").String(),
	}
	if err := id.Validate(); err != nil {
		return ident.PackageIdent{}, err
	}
	if !id.FullyQualified() {
		return ident.PackageIdent{}, &ident.MalformedIdentError{Input: id.String(), Reason: "depot ident is not fully qualified"}
	}
	return id, nil
}

func validChecksum(sum string) bool {
	decoded, err := hex.DecodeString(sum)
	return err == nil && len(decoded) == 32
}

func (i *Installer) download(ctx context.Context, req InstallRequest, id ident.PackageIdent, dest string) error {
	endpoint := depotPath(req.URL, "pkgs", id.Origin, id.Name, id.Version, id.Release, "download")
	resp, err := i.get(ctx, req, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("depot returned %s downloading %s", resp.Status, id)
	}

	if err := fs.EnsureDir(filepath.Dir(dest)); err != nil {
		return fmt.Errorf("failed to create artifact cache: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to download %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

func (i *Installer) get(ctx context.Context, req InstallRequest, endpoint string) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build depot request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent(req.Product, req.Version))
	httpReq.Header.Set("Accept", "application/json")

	logrus.WithField("url", endpoint).Debug("Depot request")
	resp, err := i.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("depot request failed: %w", err)
	}
	return resp, nil
}

func userAgent(product, version string) string {
	return fmt.Sprintf("%s/%s (%s; %s)", product, version, runtime.GOOS, runtime.GOARCH)
}

func depotPath(base string, segments ...string) string {
	escaped := make([]string, len(segments))
	for n, s := range segments {
		escaped[n] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(escaped, "/")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
