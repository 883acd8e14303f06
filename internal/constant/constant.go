package constant

import (
	"path/filepath"

	"github.com/tingly-dev/hab-export/pkg/fs"
)

const (
	// Product is reported to the depot in the User-Agent of every request
	Product = "hab"

	// AppName names the per-user config directory
	AppName = "hab"

	// ConfigFileName is the YAML config file read from the user config directory
	ConfigFileName = "export.yaml"
)

// Environment variables. The depot pair is also what the helper process
// reads to find the target package.
const (
	DepotURLEnvVar     = "HAB_DEPOT_URL"
	DepotChannelEnvVar = "HAB_DEPOT_CHANNEL"
	FSRootEnvVar       = "HAB_FS_ROOT"
	HabURLEnvVar       = "HAB_EXPORT_HAB_URL"
	HabChannelEnvVar   = "HAB_EXPORT_HAB_CHANNEL"
)

const (
	DefaultDepotURL = "https://willem.habitat.sh/v1/depot"
	DefaultChannel  = "stable"
	DefaultFSRoot   = "/"

	// PkgsDir holds installed packages, relative to the fs root
	PkgsDir = "hab/pkgs"

	// ArtifactCacheDir holds downloaded artifacts, relative to the fs root
	ArtifactCacheDir = "hab/cache/artifacts"
)

// GetConfigFile returns the default config file path (~/.config/hab/export.yaml on Linux)
func GetConfigFile() string {
	dir, err := fs.GetUserConfigPath(AppName)
	if err != nil {
		return ConfigFileName
	}
	return filepath.Join(dir, ConfigFileName)
}

// ArtifactCachePath returns the artifact cache directory under fsRoot
func ArtifactCachePath(fsRoot string) string {
	return fs.Rooted(fsRoot, ArtifactCacheDir)
}

// PkgsPath returns the installed packages directory under fsRoot
func PkgsPath(fsRoot string) string {
	return fs.Rooted(fsRoot, PkgsDir)
}
