package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/tingly-dev/hab-export/internal/constant"
	"github.com/tingly-dev/hab-export/pkg/fs"
)

// Config holds export settings. Precedence, highest first: flags,
// environment, config file, defaults.
type Config struct {
	// URL and Channel locate the package being exported
	URL     string `yaml:"url"`
	Channel string `yaml:"channel"`

	// HabURL and HabChannel locate the export helper packages
	HabURL     string `yaml:"hab_url"`
	HabChannel string `yaml:"hab_channel"`

	FSRoot    string `yaml:"fs_root"`
	CachePath string `yaml:"cache_path"` // defaults to <fs_root>/hab/cache/artifacts

	LogFile string `yaml:"log_file"`
	Verbose bool   `yaml:"verbose"`
}

// Flag names shared by RegisterFlags and ApplyFlags
const (
	FlagURL        = "url"
	FlagChannel    = "channel"
	FlagHabURL     = "hab-url"
	FlagHabChannel = "hab-channel"
	FlagFSRoot     = "fs-root"
	FlagCachePath  = "cache-path"
)

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		URL:        constant.DefaultDepotURL,
		Channel:    constant.DefaultChannel,
		HabURL:     constant.DefaultDepotURL,
		HabChannel: constant.DefaultChannel,
		FSRoot:     constant.DefaultFSRoot,
	}
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		expanded, err := fs.ExpandPath(path)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(expanded)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("decode yaml: %w", err)
			}
		}
	}

	cfg.applyEnv(os.LookupEnv)
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	for key, dst := range map[string]*string{
		constant.DepotURLEnvVar:     &c.URL,
		constant.DepotChannelEnvVar: &c.Channel,
		constant.HabURLEnvVar:       &c.HabURL,
		constant.HabChannelEnvVar:   &c.HabChannel,
		constant.FSRootEnvVar:       &c.FSRoot,
	} {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
}

// RegisterFlags defines the config flags on flags
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP(FlagURL, "u", constant.DefaultDepotURL, "depot URL of the package to export (env "+constant.DepotURLEnvVar+")")
	flags.StringP(FlagChannel, "c", constant.DefaultChannel, "depot channel of the package to export (env "+constant.DepotChannelEnvVar+")")
	flags.String(FlagHabURL, constant.DefaultDepotURL, "depot URL to install export helpers from (env "+constant.HabURLEnvVar+")")
	flags.String(FlagHabChannel, constant.DefaultChannel, "depot channel to install export helpers from (env "+constant.HabChannelEnvVar+")")
	flags.String(FlagFSRoot, constant.DefaultFSRoot, "filesystem root packages are installed under (env "+constant.FSRootEnvVar+")")
	flags.String(FlagCachePath, "", "artifact cache directory (default: <fs-root>/"+constant.ArtifactCacheDir+")")
}

// ApplyFlags copies explicitly set flags into c
func (c *Config) ApplyFlags(flags *pflag.FlagSet) {
	for name, dst := range map[string]*string{
		FlagURL:        &c.URL,
		FlagChannel:    &c.Channel,
		FlagHabURL:     &c.HabURL,
		FlagHabChannel: &c.HabChannel,
		FlagFSRoot:     &c.FSRoot,
		FlagCachePath:  &c.CachePath,
	} {
		if f := flags.Lookup(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
}

// ArtifactCachePath returns CachePath, or the default under FSRoot
func (c *Config) ArtifactCachePath() string {
	if c.CachePath != "" {
		return c.CachePath
	}
	return constant.ArtifactCachePath(c.FSRoot)
}
