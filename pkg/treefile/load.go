// SPDX-License-Identifier: MPL-2.0

package treefile

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/invowk/tusks/pkg/cueutil"
	"github.com/invowk/tusks/pkg/tree"
)

const (
	// FormatCUE is CUE source; JSON is parsed the same way.
	FormatCUE Format = "cue"
	// FormatJSON is JSON, a subset of CUE.
	FormatJSON Format = "json"
	// FormatYAML is YAML.
	FormatYAML Format = "yaml"
	// FormatTOML is TOML.
	FormatTOML Format = "toml"

	schemaRoot = "#Unit"
)

var (
	//go:embed tusks_schema.cue
	schemaBytes []byte

	// ErrUnsupportedFormat is returned for files with an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported declaration format")
	// ErrUnitNotFound is returned when no declaration file exists for a unit.
	ErrUnitNotFound = errors.New("unit not found")

	// extensions lists the recognized extensions in lookup order.
	extensions = []string{".cue", ".yaml", ".yml", ".toml", ".json"}
)

type (
	// Format identifies a declaration file syntax.
	Format string

	// DirLoader finds unit declarations by name in a list of directories:
	// unit "tools" is read from the first existing tools.cue, tools.yaml,
	// tools.yml, tools.toml or tools.json.
	DirLoader struct {
		Dirs []string
	}
)

// Schema returns the embedded CUE schema of declaration files.
func Schema() []byte { return schemaBytes }

// FormatFromPath derives the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return FormatCUE, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Load reads, validates and finalizes the declaration at path.
func Load(path string) (*tree.Scope, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, format, path)
}

// Parse validates a declaration and returns its finalized tree. filename
// only labels error messages.
func Parse(data []byte, format Format, filename string) (*tree.Scope, error) {
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, filename); err != nil {
		return nil, err
	}
	opts := []cueutil.Option{cueutil.WithFilename(filename)}

	var (
		res *cueutil.ParseResult[fileScope]
		err error
	)
	switch format {
	case FormatCUE, FormatJSON:
		res, err = cueutil.ParseAndDecode[fileScope](schemaBytes, data, schemaRoot, opts...)
	case FormatYAML:
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		res, err = cueutil.DecodeValue[fileScope](schemaBytes, schemaRoot, doc, opts...)
	case FormatTOML:
		var doc map[string]any
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		res, err = cueutil.DecodeValue[fileScope](schemaBytes, schemaRoot, doc, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	root, err := tree.Finalize(res.Value.toScope())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return root, nil
}

// Find returns the path of the declaration file of unit.
func (l *DirLoader) Find(unit string) (string, error) {
	for _, dir := range l.Dirs {
		for _, ext := range extensions {
			path := filepath.Join(dir, unit+ext)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q (searched %s)", ErrUnitNotFound, unit, strings.Join(l.Dirs, ", "))
}

// Load reads the declaration of unit. The declared name must match.
func (l *DirLoader) Load(ctx context.Context, unit string) (*tree.Scope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := l.Find(unit)
	if err != nil {
		return nil, err
	}
	root, err := Load(path)
	if err != nil {
		return nil, err
	}
	if root.Name != unit {
		return nil, fmt.Errorf("%s: declares unit %q, expected %q", path, root.Name, unit)
	}
	return root, nil
}
