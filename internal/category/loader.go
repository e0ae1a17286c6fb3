package category

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a category mapping file and returns a validated rule
// set. The format is chosen by extension: .json, .yaml/.yml, or .lua
// (the generated poi_mapping.lua layout).
func Load(path string) (*RuleSet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loadJSON(path)
	case ".yaml", ".yml":
		return loadYAML(path)
	case ".lua":
		return loadLua(path)
	default:
		return nil, fmt.Errorf("unsupported category mapping format %q", filepath.Ext(path))
	}
}

func loadJSON(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read category mapping: %w", err)
	}

	var categories []Category
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("category mapping is not valid JSON: %w", err)
	}

	return NewRuleSet(categories)
}

func loadYAML(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read category mapping: %w", err)
	}

	var categories []Category
	if err := yaml.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("category mapping is not valid YAML: %w", err)
	}

	return NewRuleSet(categories)
}
