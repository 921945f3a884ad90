package resolve

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed kits.yaml
var embeddedKits []byte

// DefaultKits is the built-in bill-of-materials table from kits.yaml.
var DefaultKits = mustParseKits(embeddedKits)

type kitFile struct {
	Kits []Kit `yaml:"kits"`
}

// ParseKits reads a kit table from YAML and validates it.
func ParseKits(data []byte) ([]Kit, error) {
	var file kitFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse kit table: %w", err)
	}

	seen := make(map[string]bool, len(file.Kits))
	for i, kit := range file.Kits {
		keyword := strings.ToLower(strings.TrimSpace(kit.Keyword))
		if keyword == "" {
			return nil, fmt.Errorf("kit %d: keyword cannot be empty", i)
		}
		if seen[keyword] {
			return nil, fmt.Errorf("kit %d (%s): duplicate keyword", i, kit.Keyword)
		}
		seen[keyword] = true

		if len(kit.Components) == 0 {
			return nil, fmt.Errorf("kit %d (%s): at least one component is required", i, kit.Keyword)
		}
		for j, c := range kit.Components {
			if strings.TrimSpace(c.Name) == "" {
				return nil, fmt.Errorf("kit %d (%s): component %d has no name", i, kit.Keyword, j)
			}
			if c.UnitCostCents < 0 {
				return nil, fmt.Errorf("kit %d (%s): component %q has negative cost %d", i, kit.Keyword, c.Name, c.UnitCostCents)
			}
		}
	}
	return file.Kits, nil
}

// LoadKitsFile reads a kit table from path.
func LoadKitsFile(path string) ([]Kit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read kit table: %w", err)
	}
	kits, err := ParseKits(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load kits from %q: %w", path, err)
	}
	return kits, nil
}

func mustParseKits(data []byte) []Kit {
	kits, err := ParseKits(data)
	if err != nil {
		panic(fmt.Sprintf("embedded kit table: %v", err))
	}
	return kits
}
