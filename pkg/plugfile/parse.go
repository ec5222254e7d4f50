// SPDX-License-Identifier: MPL-2.0

package plugfile

import (
	_ "embed"
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"plugman-cli/pkg/cueparse"
)

//go:embed plugfile_schema.cue
var plugfileSchema []byte

// rawManifest is the decode target shared by both formats. Entries arrive
// untyped because an entry may be a bare string or a table; normalization
// settles the shape afterwards.
type rawManifest struct {
	InstallRoot string `json:"install_root" toml:"install_root"`
	Packages    []any  `json:"packages"     toml:"packages"`
}

// Parse parses CUE manifest content, validating it against the embedded
// schema before normalization.
func Parse(data []byte, path string) (*Manifest, error) {
	raw, err := cueparse.Decode[rawManifest](plugfileSchema, data, "#Plugfile", path)
	if err != nil {
		return nil, err
	}
	return normalize(raw, path)
}

// ParseTOML parses TOML manifest content. TOML has no schema layer, so shape
// problems surface during normalization instead.
func ParseTOML(data []byte, path string) (*Manifest, error) {
	var raw rawManifest
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return normalize(&raw, path)
}

// normalize settles untyped entries into Packages, recursing through
// dependency lists. Field positions appear in errors as e.g.
// "packages[1].dependencies[0].branch".
func normalize(raw *rawManifest, path string) (*Manifest, error) {
	m := &Manifest{
		InstallRoot: raw.InstallRoot,
		FilePath:    path,
	}
	for i, entry := range raw.Packages {
		pkg, err := normalizeEntry(entry, fmt.Sprintf("packages[%d]", i))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		m.Packages = append(m.Packages, pkg)
	}
	return m, nil
}

func normalizeEntry(entry any, at string) (Package, error) {
	switch v := entry.(type) {
	case string:
		return Package{Source: v}, nil
	case map[string]any:
		return normalizeTable(v, at)
	default:
		return Package{}, fmt.Errorf("%s: entry must be a source string or a package table, got %T", at, entry)
	}
}

func normalizeTable(table map[string]any, at string) (Package, error) {
	var pkg Package
	for key, value := range table {
		switch key {
		case "source":
			s, err := stringField(value, at, key)
			if err != nil {
				return pkg, err
			}
			pkg.Source = s
		case "alias":
			s, err := stringField(value, at, key)
			if err != nil {
				return pkg, err
			}
			pkg.Alias = s
		case "branch":
			s, err := stringField(value, at, key)
			if err != nil {
				return pkg, err
			}
			pkg.Branch = s
		case "post_checkout":
			s, err := stringField(value, at, key)
			if err != nil {
				return pkg, err
			}
			pkg.PostCheckout = s
		case "configure":
			s, err := stringField(value, at, key)
			if err != nil {
				return pkg, err
			}
			pkg.Configure = s
		case "dependencies":
			deps, ok := value.([]any)
			if !ok {
				return pkg, fmt.Errorf("%s.dependencies: must be a list, got %T", at, value)
			}
			for i, dep := range deps {
				child, err := normalizeEntry(dep, fmt.Sprintf("%s.dependencies[%d]", at, i))
				if err != nil {
					return pkg, err
				}
				pkg.Dependencies = append(pkg.Dependencies, child)
			}
		default:
			return pkg, fmt.Errorf("%s: unknown field %q", at, key)
		}
	}
	return pkg, nil
}

func stringField(value any, at, key string) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%s.%s: must be a string, got %T", at, key, value)
	}
	return s, nil
}
