package export

import (
	"sort"

	"github.com/tingly-dev/hab-export/internal/ident"
)

// ExportFormat is a resolved export format: the helper package that
// implements it and the executable to run from that package. Only
// LookupFormat builds one, so both fields are always set.
type ExportFormat struct {
	pkgIdent ident.PackageIdent
	cmd      string
}

// PkgIdent returns the helper package identifier
func (f ExportFormat) PkgIdent() ident.PackageIdent {
	return f.pkgIdent
}

// Cmd returns the helper executable name
func (f ExportFormat) Cmd() string {
	return f.cmd
}

type formatEntry struct {
	pkgIdent string
	cmd      string
}

var formats = map[string]formatEntry{
	"docker": {pkgIdent: "core/hab-pkg-dockerize", cmd: "hab-pkg-dockerize"},
	"aci":    {pkgIdent: "core/hab-pkg-aci", cmd: "hab-pkg-aci"},
	"mesos":  {pkgIdent: "core/hab-pkg-mesosize", cmd: "hab-pkg-mesosize"},
	"tar":    {pkgIdent: "core/hab-pkg-tarize", cmd: "hab-pkg-tarize"},
}

// LookupFormat resolves a case-sensitive format keyword
func LookupFormat(keyword string) (ExportFormat, error) {
	entry, ok := formats[keyword]
	if !ok {
		return ExportFormat{}, &UnsupportedFormatError{Format: keyword}
	}
	id, err := ident.Parse(entry.pkgIdent)
	if err != nil {
		return ExportFormat{}, err
	}
	return ExportFormat{pkgIdent: id, cmd: entry.cmd}, nil
}

// Formats returns the known format keywords in sorted order
func Formats() []string {
	keys := make([]string, 0, len(formats))
	for k := range formats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
