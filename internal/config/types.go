// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultDeclarationFile is the declaration file looked up in the working
	// directory when no file is named.
	DefaultDeclarationFile DeclarationPath = "tusks.cue"
	// DefaultSeparator joins scope and operation names in listings.
	DefaultSeparator = "."
	// DefaultMaxGroupSize is the number of entries a listing group shows before collapsing.
	DefaultMaxGroupSize = 5
	// DefaultMaxDepth caps listing recursion.
	DefaultMaxDepth = 20
	// DefaultCacheSize bounds the number of parsed linked-unit declarations kept in memory.
	DefaultCacheSize = 32
)

var (
	// ErrInvalidDeclarationPath is returned when a DeclarationPath value is whitespace-only.
	ErrInvalidDeclarationPath = errors.New("invalid declaration path")
	// ErrInvalidLinkPath is returned when a LinkPath value is empty or whitespace-only.
	ErrInvalidLinkPath = errors.New("invalid link path")
	// ErrInvalidListingConfig is the sentinel error wrapped by InvalidListingConfigError.
	ErrInvalidListingConfig = errors.New("invalid listing config")
	// ErrInvalidCacheConfig is returned when the cache size is not positive.
	ErrInvalidCacheConfig = errors.New("invalid cache config")
	// ErrInvalidMetricsConfig is returned when the metrics textfile path is whitespace-only.
	ErrInvalidMetricsConfig = errors.New("invalid metrics config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// DeclarationPath is the filesystem path of a declaration file.
	// The zero value is valid and means DefaultDeclarationFile.
	DeclarationPath string

	// InvalidDeclarationPathError is returned when a DeclarationPath value is
	// non-empty but whitespace-only.
	InvalidDeclarationPathError struct {
		Value DeclarationPath
	}

	// LinkPath is a directory searched for the declaration files of linked units.
	LinkPath string

	// InvalidLinkPathError is returned when a LinkPath value is empty or
	// whitespace-only. It wraps ErrInvalidLinkPath for errors.Is().
	InvalidLinkPathError struct {
		Value LinkPath
	}

	// InvalidListingConfigError collects the field errors of a ListingConfig.
	InvalidListingConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// File is the declaration file of the root unit.
		File DeclarationPath `json:"file" mapstructure:"file"`
		// LinkPaths are searched, in order, for linked units.
		LinkPaths []LinkPath `json:"link_paths" mapstructure:"link_paths"`
		// Listing configures `tusks list`.
		Listing ListingConfig `json:"listing" mapstructure:"listing"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
		// Cache configures the linked-unit cache.
		Cache CacheConfig `json:"cache" mapstructure:"cache"`
		// Metrics configures dispatch metrics export.
		Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`
	}

	// ListingConfig controls how the command tree is listed.
	ListingConfig struct {
		// Separator joins path segments of listed names.
		Separator string `json:"separator" mapstructure:"separator"`
		// MaxGroupSize collapses groups with more entries.
		MaxGroupSize int `json:"max_group_size" mapstructure:"max_group_size"`
		// MaxDepth stops descending past this many scope levels.
		MaxDepth int `json:"max_depth" mapstructure:"max_depth"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// UseColors enables styled output
		UseColors bool `json:"use_colors" mapstructure:"use_colors"`
		// Verbose enables debug logging
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// CacheConfig sizes the linked-unit declaration cache.
	CacheConfig struct {
		Size int `json:"size" mapstructure:"size"`
	}

	// MetricsConfig controls dispatch metrics export.
	MetricsConfig struct {
		// Textfile is the Prometheus textfile the CLI writes after each run.
		// Empty disables the export.
		Textfile string `json:"textfile" mapstructure:"textfile"`
	}
)

// String returns the string representation of the DeclarationPath.
func (p DeclarationPath) String() string { return string(p) }

// IsValid returns whether the DeclarationPath is valid.
func (p DeclarationPath) IsValid() (bool, []error) {
	if p != "" && strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidDeclarationPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidDeclarationPathError) Error() string {
	return fmt.Sprintf("invalid declaration path %q: must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidDeclarationPath for errors.Is() compatibility.
func (e *InvalidDeclarationPathError) Unwrap() error { return ErrInvalidDeclarationPath }

// String returns the string representation of the LinkPath.
func (p LinkPath) String() string { return string(p) }

// IsValid returns whether the LinkPath is valid.
// A valid path must be non-empty and not whitespace-only.
func (p LinkPath) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidLinkPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidLinkPathError) Error() string {
	return fmt.Sprintf("invalid link path %q: must not be empty", e.Value)
}

// Unwrap returns ErrInvalidLinkPath for errors.Is() compatibility.
func (e *InvalidLinkPathError) Unwrap() error { return ErrInvalidLinkPath }

// IsValid returns whether the ListingConfig has valid fields.
func (c ListingConfig) IsValid() (bool, []error) {
	var errs []error
	if c.Separator == "" {
		errs = append(errs, errors.New("separator must not be empty"))
	}
	if c.MaxGroupSize < 1 {
		errs = append(errs, fmt.Errorf("max_group_size must be positive, got %d", c.MaxGroupSize))
	}
	if c.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidListingConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidListingConfigError.
func (e *InvalidListingConfigError) Error() string {
	return fmt.Sprintf("invalid listing config: %s", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidListingConfig for errors.Is() compatibility.
func (e *InvalidListingConfigError) Unwrap() error { return ErrInvalidListingConfig }

// IsValid returns whether the CacheConfig has valid fields.
func (c CacheConfig) IsValid() (bool, []error) {
	if c.Size < 1 {
		return false, []error{fmt.Errorf("%w: size must be positive, got %d", ErrInvalidCacheConfig, c.Size)}
	}
	return true, nil
}

// IsValid returns whether the MetricsConfig has valid fields.
func (c MetricsConfig) IsValid() (bool, []error) {
	if c.Textfile != "" && strings.TrimSpace(c.Textfile) == "" {
		return false, []error{fmt.Errorf("%w: textfile must not be whitespace-only", ErrInvalidMetricsConfig)}
	}
	return true, nil
}

// IsValid returns whether the Config has valid fields.
// UI has only bool fields and needs no validation.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.File.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	for _, p := range c.LinkPaths {
		if valid, fieldErrs := p.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	for _, v := range []interface{ IsValid() (bool, []error) }{c.Listing, c.Cache, c.Metrics} {
		if valid, fieldErrs := v.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DeclarationFile returns the configured declaration file, or the default.
func (c *Config) DeclarationFile() string {
	if c.File == "" {
		return string(DefaultDeclarationFile)
	}
	return string(c.File)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		File:      DefaultDeclarationFile,
		LinkPaths: []LinkPath{},
		Listing: ListingConfig{
			Separator:    DefaultSeparator,
			MaxGroupSize: DefaultMaxGroupSize,
			MaxDepth:     DefaultMaxDepth,
		},
		UI: UIConfig{
			UseColors: true,
			Verbose:   false,
		},
		Cache:   CacheConfig{Size: DefaultCacheSize},
		Metrics: MetricsConfig{},
	}
}
