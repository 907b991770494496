package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidManifest    = errors.New("config: invalid manifest")
	ErrUnknownDependency  = errors.New("config: dependency must name an earlier component")
	ErrUnsupportedFormat  = errors.New("config: unsupported manifest format")
	ErrDuplicateComponent = errors.New("config: duplicate component name")
)

const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

// Manifest lists components in the order they are added to the graph.
type Manifest struct {
	Components []ComponentEntry `toml:"components" yaml:"components"`
}

// ComponentEntry declares one graph item. DependsOn may only name earlier entries.
type ComponentEntry struct {
	Name      string         `toml:"name" yaml:"name"`
	Kind      string         `toml:"kind" yaml:"kind"`
	DependsOn []string       `toml:"depends_on" yaml:"depends_on"`
	Events    []string       `toml:"events" yaml:"events"`
	Settings  map[string]any `toml:"settings" yaml:"settings"`
}

// LoadManifest reads and validates a manifest, choosing the format by extension.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	format, err := formatFromPath(path)
	if err != nil {
		return Manifest{}, err
	}
	m, err := ParseManifest(data, format)
	if err != nil {
		return Manifest{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return m, nil
}

// ParseManifest decodes and validates manifest bytes in the given format.
func ParseManifest(data []byte, format string) (Manifest, error) {
	var m Manifest
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &m); err != nil {
			return Manifest{}, err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &m); err != nil {
			return Manifest{}, err
		}
	default:
		return Manifest{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	m = NormalizeManifest(m)
	if err := ValidateManifest(m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// NormalizeManifest trims names, kinds, dependencies and events so every later
// lookup sees the same strings validation saw.
func NormalizeManifest(m Manifest) Manifest {
	out := Manifest{Components: make([]ComponentEntry, len(m.Components))}
	for i, entry := range m.Components {
		entry.Name = strings.TrimSpace(entry.Name)
		entry.Kind = strings.TrimSpace(entry.Kind)
		entry.DependsOn = trimAll(entry.DependsOn)
		entry.Events = trimAll(entry.Events)
		out.Components[i] = entry
	}
	return out
}

func trimAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

func formatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// ValidateManifest checks names, kinds, and that dependencies point backwards.
func ValidateManifest(m Manifest) error {
	seen := make(map[string]struct{}, len(m.Components))
	for i, entry := range m.Components {
		name := strings.TrimSpace(entry.Name)
		if !IsValidName(name) {
			return fmt.Errorf("%w: components[%d]: invalid name %q", ErrInvalidManifest, i, entry.Name)
		}
		if strings.TrimSpace(entry.Kind) == "" {
			return fmt.Errorf("%w: components[%d]: missing kind", ErrInvalidManifest, i)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: components[%d]: %q", ErrDuplicateComponent, i, name)
		}
		for _, dep := range entry.DependsOn {
			if _, ok := seen[strings.TrimSpace(dep)]; !ok {
				return fmt.Errorf("%w: components[%d] %q depends on %q", ErrUnknownDependency, i, name, dep)
			}
		}
		seen[name] = struct{}{}
	}
	return nil
}

// IsValidName accepts lower-case identifiers with single '.', '-' or '_' separators.
func IsValidName(id string) bool {
	if id == "" {
		return false
	}
	lastSep := false
	for i := 0; i < len(id); i++ {
		c := id[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		isSep := c == '.' || c == '-' || c == '_'
		if !(isLower || isDigit || isSep) {
			return false
		}
		if i == 0 || i == len(id)-1 {
			if isSep {
				return false
			}
		}
		if isSep && lastSep {
			return false
		}
		lastSep = isSep
	}
	return true
}
