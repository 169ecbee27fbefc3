package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/reefwatch/reefwatch_backend/internal/assessment"
	"github.com/reefwatch/reefwatch_backend/internal/narrative"
)

// The YAML files are optional overrides: an empty path or a missing file
// falls back to the built-in defaults, but a file that exists and fails
// to parse or validate is an error, never a silent fallback.

// LoadRangeTable builds the range table from a YAML file, or from the
// built-in reef bands when no file is configured.
func LoadRangeTable(path string) (*assessment.RangeTable, error) {
	if path == "" {
		return assessment.DefaultRangeTable(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return assessment.DefaultRangeTable(), nil
		}
		return nil, fmt.Errorf("config: reading ranges file %s: %w", path, err)
	}

	var doc struct {
		Ranges []assessment.ParameterRange `yaml:"ranges"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parsing ranges file %s: %w", path, err)
	}

	table, err := assessment.NewRangeTable(doc.Ranges)
	if err != nil {
		return nil, fmt.Errorf("config: ranges file %s: %w", path, err)
	}
	return table, nil
}

// LoadRuleSet builds the diagnostic rule set from a YAML file, or the
// built-in rules when no file is configured.
func LoadRuleSet(path string) (assessment.RuleSet, error) {
	if path == "" {
		return assessment.DefaultRuleSet(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return assessment.DefaultRuleSet(), nil
		}
		return assessment.RuleSet{}, fmt.Errorf("config: reading rules file %s: %w", path, err)
	}

	var rules assessment.RuleSet
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return assessment.RuleSet{}, fmt.Errorf("config: parsing rules file %s: %w", path, err)
	}
	if err := rules.Validate(); err != nil {
		return assessment.RuleSet{}, fmt.Errorf("config: rules file %s: %w", path, err)
	}
	return rules, nil
}

// LoadScenario builds the synthetic narrative phase table from a YAML
// file, or the built-in 30-day crash/recovery arc when no file is
// configured. The generator validates phase coverage eagerly.
func LoadScenario(path string) ([]narrative.Phase, error) {
	if path == "" {
		return narrative.DemoPhases(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return narrative.DemoPhases(), nil
		}
		return nil, fmt.Errorf("config: reading scenario file %s: %w", path, err)
	}

	var doc struct {
		Phases []narrative.Phase `yaml:"phases"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parsing scenario file %s: %w", path, err)
	}
	if len(doc.Phases) == 0 {
		return nil, fmt.Errorf("config: scenario file %s has no phases", path)
	}
	return doc.Phases, nil
}
