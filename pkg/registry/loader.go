package registry

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/polisai/codeforge/pkg/domain"
)

// Files names the optional registry sources. Empty paths select the built-in catalogs.
type Files struct {
	ModulesFile string
	LevelsFile  string
}

// Load builds the process registry.
//
// A level file that cannot be loaded falls back to DefaultLevels. A modules file
// that cannot be loaded yields an empty module catalog, so analysis returns no
// suggestions instead of failing.
func Load(files Files, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	modules := DefaultModules()
	if files.ModulesFile != "" {
		loaded, err := LoadModules(files.ModulesFile)
		if err != nil {
			logger.Warn("module registry unavailable, continuing without modules",
				"path", files.ModulesFile, "error", err)
			modules = nil
		} else {
			modules = loaded
		}
	}

	levels := DefaultLevels()
	if files.LevelsFile != "" {
		loaded, err := LoadLevels(files.LevelsFile)
		if err != nil {
			logger.Warn("level registry unavailable, using built-in levels",
				"path", files.LevelsFile, "error", err)
		} else {
			levels = loaded
		}
	}

	return New(modules, levels)
}

// LoadModules reads a YAML (or JSON) map of module id to module definition.
// Entries keep document order, which is the registry order used to break
// ranking ties. The id key wins over any id field.
func LoadModules(path string) ([]domain.EnhancementModule, error) {
	ids, raw, err := readMapping[domain.EnhancementModule](path)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s defines no modules", domain.ErrRegistryInvalid, path)
	}

	out := make([]domain.EnhancementModule, 0, len(raw))
	for i, m := range raw {
		m.ID = ids[i]
		if m.Name == "" {
			m.Name = m.ID
		}
		m.Complexity = domain.Complexity(strings.ToLower(string(m.Complexity)))
		m.Impact = domain.Impact(strings.ToLower(string(m.Impact)))
		out = append(out, m)
	}
	return out, nil
}

// LoadLevels reads a YAML (or JSON) map of level id to level definition.
// Levels are ordered by Number; levels sharing a Number keep document order.
func LoadLevels(path string) ([]domain.EnhancementLevel, error) {
	ids, raw, err := readMapping[domain.EnhancementLevel](path)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s defines no levels", domain.ErrRegistryInvalid, path)
	}

	out := make([]domain.EnhancementLevel, 0, len(raw))
	for i, l := range raw {
		l.ID = ids[i]
		if l.Number < domain.MinLevel || l.Number > domain.MaxLevel {
			return nil, fmt.Errorf("%w: level %q has number %d outside [%d,%d]",
				domain.ErrRegistryInvalid, l.ID, l.Number, domain.MinLevel, domain.MaxLevel)
		}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// readMapping decodes a top-level mapping and returns its keys and values in
// document order.
func readMapping[T any](path string) ([]string, []T, error) {
	//nolint:gosec // Registry paths are controlled by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read registry file %s: %w", path, err)
	}

	// JSON is a subset of YAML, so one decoder covers both formats.
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: failed to parse %s: %v", domain.ErrRegistryInvalid, path, err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	switch root.Kind {
	case 0, yaml.DocumentNode:
		return nil, nil, nil
	case yaml.MappingNode:
	default:
		return nil, nil, fmt.Errorf("%w: %s: top level must be a mapping of id to definition",
			domain.ErrRegistryInvalid, path)
	}

	ids := make([]string, 0, len(root.Content)/2)
	values := make([]T, 0, len(root.Content)/2)
	seen := make(map[string]struct{}, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, node := root.Content[i], root.Content[i+1]
		if _, dup := seen[key.Value]; dup {
			return nil, nil, fmt.Errorf("%w: %s line %d: duplicate id %q",
				domain.ErrRegistryInvalid, path, key.Line, key.Value)
		}
		seen[key.Value] = struct{}{}

		var v T
		if err := node.Decode(&v); err != nil {
			return nil, nil, fmt.Errorf("%w: %s: entry %q: %v", domain.ErrRegistryInvalid, path, key.Value, err)
		}
		ids = append(ids, key.Value)
		values = append(values, v)
	}
	return ids, values, nil
}
