// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/invowk/tusks/internal/issue"
	"github.com/invowk/tusks/pkg/cueutil"

	"github.com/spf13/viper"
)

const (
	AppName        = "tusks"
	ConfigFileName = "config"
	ConfigFileExt  = "cue"
	// EnvPrefix prefixes environment overrides: TUSKS_UI_VERBOSE=true.
	EnvPrefix = "TUSKS"
)

//go:embed config_schema.cue
var configSchema string

// Schema returns the CUE schema configuration files are validated against.
func Schema() string { return configSchema }

// fileName is the base name of the configuration file.
func fileName() string { return ConfigFileName + "." + ConfigFileExt }

// ConfigDir returns the tusks directory below the user configuration
// directory: $XDG_CONFIG_HOME or ~/.config on Unix, ~/Library/Application
// Support on macOS, %AppData% on Windows.
//
//nolint:revive // config.Dir reads poorly at call sites
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// newViper seeds a viper instance with DefaultConfig and binds TUSKS_*
// environment overrides ("listing.max_depth" reads TUSKS_LISTING_MAX_DEPTH).
func newViper() *viper.Viper {
	d := DefaultConfig()
	v := viper.New()
	for key, value := range map[string]any{
		"file":                   d.File,
		"link_paths":             d.LinkPaths,
		"listing.separator":      d.Listing.Separator,
		"listing.max_group_size": d.Listing.MaxGroupSize,
		"listing.max_depth":      d.Listing.MaxDepth,
		"ui.use_colors":          d.UI.UseColors,
		"ui.verbose":             d.UI.Verbose,
		"cache.size":             d.Cache.Size,
		"metrics.textfile":       d.Metrics.Textfile,
	} {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// loadWithOptions layers defaults, the config file (if any) and the
// environment. The returned path is "" when no file was read.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("load config canceled: %w", err)
	}

	path, err := findConfigFile(opts)
	if err != nil {
		return nil, "", err
	}

	v := newViper()
	if path != "" {
		if err := mergeFile(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Check the file for CUE syntax errors").
				WithSuggestion("Run 'tusks config schema' to print the accepted fields").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("decode config: %w", err)
	}

	invalid := issue.NewErrorContext().
		WithOperation("validate configuration").
		WithResource(path).
		WithIssue(issue.ConfigLoadFailedId)
	if err := checkDuplicateLinkPaths(cfg.LinkPaths); err != nil {
		return nil, "", invalid.WithSuggestion("List each link directory once").Wrap(err).BuildError()
	}
	if ok, errs := cfg.IsValid(); !ok {
		return nil, "", invalid.
			WithSuggestion("Check environment overrides prefixed with " + EnvPrefix + "_").
			Wrap(errs[0]).
			BuildError()
	}
	return &cfg, path, nil
}

// findConfigFile returns the explicit path, which must exist, or the first
// config.cue found in the config directory and then the working directory.
func findConfigFile(opts LoadOptions) (string, error) {
	if explicit := opts.ConfigFilePath; explicit != "" {
		if isFile(explicit) {
			return explicit, nil
		}
		return "", issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(explicit).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Check the --config path").
			WithSuggestion("Run 'tusks config dump' to see the defaults").
			Wrap(fmt.Errorf("config file not found: %s", explicit)).
			BuildError()
	}

	dir := opts.ConfigDirPath
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	for _, candidate := range []string{filepath.Join(dir, fileName()), fileName()} {
		if isFile(candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

// mergeFile validates a config file against #Config and merges the keys it
// sets over v's defaults. Unset keys stay open, so the file is decoded into
// a map rather than a Config.
func mergeFile(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	parsed, err := cueutil.ParseAndDecodeString[map[string]any](configSchema, data, "#Config",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return err
	}
	return v.MergeConfigMap(*parsed.Value)
}

func checkDuplicateLinkPaths(paths []LinkPath) error {
	first := make(map[string]int, len(paths))
	for i, p := range paths {
		key := filepath.Clean(string(p))
		if j, dup := first[key]; dup {
			return fmt.Errorf("link_paths[%d]: duplicate path %q (same as link_paths[%d])", i, p, j)
		}
		first[key] = i
	}
	return nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// CreateDefaultConfig writes the default config file unless one exists and
// returns its path.
func CreateDefaultConfig() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fileName())
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		return path, err
	}
	return path, Save(DefaultConfig())
}

// Save writes cfg as config.cue in the config directory.
func Save(cfg *Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, fileName()), []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// GenerateCUE renders cfg as a config file. Empty link paths and a disabled
// metrics export are left out.
func GenerateCUE(cfg *Config) string {
	var b strings.Builder
	line := func(format string, args ...any) { fmt.Fprintf(&b, format+"\n", args...) }

	line("// tusks configuration file")
	line("")
	line("file: %q", cfg.File)
	if len(cfg.LinkPaths) > 0 {
		line("")
		line("link_paths: [")
		for _, p := range cfg.LinkPaths {
			line("\t%q,", p)
		}
		line("]")
	}
	line("")
	line("listing: {")
	line("\tseparator:      %q", cfg.Listing.Separator)
	line("\tmax_group_size: %d", cfg.Listing.MaxGroupSize)
	line("\tmax_depth:      %d", cfg.Listing.MaxDepth)
	line("}")
	line("")
	line("ui: {")
	line("\tuse_colors: %t", cfg.UI.UseColors)
	line("\tverbose:    %t", cfg.UI.Verbose)
	line("}")
	line("")
	line("cache: size: %d", cfg.Cache.Size)
	if cfg.Metrics.Textfile != "" {
		line("")
		line("metrics: textfile: %q", cfg.Metrics.Textfile)
	}
	return b.String()
}
