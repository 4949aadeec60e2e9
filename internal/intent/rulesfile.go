package intent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"sshmate/internal/models"
)

// rulesFile is the on-disk format for operator-defined intent rules.
type rulesFile struct {
	Rules []models.IntentRule `yaml:"rules"`
}

// LoadRulesFile parses a YAML file of custom intent rules.
func LoadRulesFile(path string) ([]models.IntentRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules YAML: %w", err)
	}

	return file.Rules, nil
}

// LoadFile registers every rule from a YAML file into the catalog.
// Registration accumulates: reloading a file adds rules, it never removes or
// mutates existing ones.
func (c *Catalog) LoadFile(path string) (int, error) {
	rules, err := LoadRulesFile(path)
	if err != nil {
		return 0, err
	}

	registered := 0
	for _, rule := range rules {
		if err := c.Register(rule); err != nil {
			return registered, err
		}
		registered++
	}
	return registered, nil
}
