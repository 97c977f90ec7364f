// SPDX-License-Identifier: MPL-2.0

package registry

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/revops/ot/pkg/cueutil"
)

const (
	// FormatCUE is the native registry document format.
	FormatCUE Format = "cue"
	// FormatYAML reads operators.yml style documents.
	FormatYAML Format = "yaml"
	// FormatTOML is accepted for hand-written registries.
	FormatTOML Format = "toml"

	schemaDefinition = "#Registry"
)

var (
	//go:embed registry_schema.cue
	registrySchema []byte

	//go:embed default_operators.cue
	defaultOperators []byte

	// ErrUnsupportedFormat is returned for registry files with an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported registry format")

	defaultRegistry = sync.OnceValues(func() (*Registry, error) {
		return Parse(defaultOperators, FormatCUE, "default_operators.cue")
	})
)

type (
	// Format identifies a registry document encoding.
	Format string

	// Document is the decoded form of a registry file.
	Document struct {
		Commands map[string]string `json:"commands" yaml:"commands" toml:"commands"`
		NLAdders []string          `json:"nl_adders" yaml:"nl_adders" toml:"nl_adders"`
	}
)

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return FormatCUE, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

// Default returns the registry embedded in the binary.
func Default() (*Registry, error) {
	return defaultRegistry()
}

// Load reads a registry file, choosing the decoder from its extension.
func Load(path string) (*Registry, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return Parse(data, format, path)
}

// Parse decodes a registry document. name is used in error messages.
func Parse(data []byte, format Format, name string) (*Registry, error) {
	doc, err := decode(data, format, name)
	if err != nil {
		return nil, err
	}
	return doc.Registry()
}

// Registry builds a registry from the document. Pairs are registered in
// sorted forward-template order so duplicate errors are deterministic.
func (d *Document) Registry() (*Registry, error) {
	fwd := make([]string, 0, len(d.Commands))
	for k := range d.Commands {
		fwd = append(fwd, k)
	}
	slices.Sort(fwd)

	pairs := make([]Pair, 0, len(fwd))
	for _, k := range fwd {
		pairs = append(pairs, Pair{Forward: k, Inverse: d.Commands[k]})
	}
	return New(pairs, d.NLAdders)
}

func decode(data []byte, format Format, name string) (*Document, error) {
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, name); err != nil {
		return nil, err
	}

	var doc Document
	switch format {
	case FormatCUE:
		d, err := cueutil.Decode[Document](registrySchema, data, schemaDefinition, cueutil.WithFilename(name))
		if err != nil {
			return nil, err
		}
		doc = *d
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	default:
		return nil, fmt.Errorf("%s: %w: %q", name, ErrUnsupportedFormat, format)
	}

	if len(doc.Commands) == 0 {
		return nil, fmt.Errorf("%s: no commands defined", name)
	}
	return &doc, nil
}
