// Package pkgstore manages packages installed under a filesystem root:
// probing for local installs and installing from a depot.
package pkgstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tingly-dev/hab-export/internal/constant"
	"github.com/tingly-dev/hab-export/internal/ident"
	"github.com/tingly-dev/hab-export/pkg/fs"
)

// ErrPackageNotFound is returned when no installed package satisfies an ident
var ErrPackageNotFound = errors.New("package not installed")

// PathMetaFile lists a package's bin directories, colon separated
const PathMetaFile = "PATH"

// InstalledPackage is a package present under the fs root
type InstalledPackage struct {
	Ident  ident.PackageIdent
	Dir    string
	fsRoot string
}

// Loader looks up installed packages. It never touches the network.
type Loader struct {
	fsRoot string
}

// NewLoader creates a loader rooted at fsRoot
func NewLoader(fsRoot string) *Loader {
	return &Loader{fsRoot: fsRoot}
}

// Load returns the newest installed package satisfying id
func (l *Loader) Load(id ident.PackageIdent) (*InstalledPackage, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	base := filepath.Join(constant.PkgsPath(l.fsRoot), id.Origin, id.Name)

	var candidates []ident.PackageIdent
	versions, err := subdirs(base)
	if err != nil {
		return nil, err
	}
	for _, v := range versions {
		releases, err := subdirs(filepath.Join(base, v))
		if err != nil {
			return nil, err
		}
		for _, r := range releases {
			installed := ident.PackageIdent{Origin: id.Origin, Name: id.Name, Version: v, Release: r}
			if id.Satisfies(installed) {
				candidates = append(candidates, installed)
			}
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%s: %w", id, ErrPackageNotFound)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return compareIdents(candidates[i], candidates[j]) < 0
	})
	latest := candidates[len(candidates)-1]
	logrus.WithField("ident", latest.String()).Debug("Found installed package")

	return &InstalledPackage{
		Ident:  latest,
		Dir:    filepath.Join(base, latest.Version, latest.Release),
		fsRoot: l.fsRoot,
	}, nil
}

// BinDirs returns the package's bin directories on disk
func (p *InstalledPackage) BinDirs() ([]string, error) {
	data, err := os.ReadFile(filepath.Join(p.Dir, PathMetaFile))
	if errors.Is(err, os.ErrNotExist) {
		return []string{filepath.Join(p.Dir, "bin")}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s metadata for %s: %w", PathMetaFile, p.Ident, err)
	}

	var dirs []string
	for _, entry := range strings.Split(strings.TrimSpace(string(data)), ":") {
		if entry == "" {
			continue
		}
		dirs = append(dirs, fs.Rooted(p.fsRoot, entry))
	}
	return dirs, nil
}

// FindCommand returns the path of the first executable named name in the
// package's bin directories
func (p *InstalledPackage) FindCommand(name string) (string, error) {
	dirs, err := p.BinDirs()
	if err != nil {
		return "", err
	}
	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)
		if fs.IsExecutable(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("command %q not found in package %s", name, p.Ident)
}

func subdirs(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func compareIdents(a, b ident.PackageIdent) int {
	if c := compareVersions(a.Version, b.Version); c != 0 {
		return c
	}
	return strings.Compare(a.Release, b.Release)
}

// compareVersions compares dot-separated versions segment by segment,
// numerically when both segments are numbers.
func compareVersions(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aErr := strconv.Atoi(as[i])
		bn, bErr := strconv.Atoi(bs[i])
		if aErr == nil && bErr == nil {
			if an != bn {
				if an < bn {
					return -1
				}
				return 1
			}
			continue
		}
		if c := strings.Compare(as[i], bs[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	return 0
}
