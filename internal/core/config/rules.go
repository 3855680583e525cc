package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hay-kot/atlas/internal/core/classify"
)

// loadRulesFiles reads YAML keyword rule lists in declaration order.
// Relative paths resolve against the config file's directory.
func loadRulesFiles(configDir string, files []string) ([]classify.KeywordRule, error) {
	var all []classify.KeywordRule

	for _, file := range files {
		path := expandHome(file)
		if !filepath.IsAbs(path) {
			path = filepath.Join(configDir, path)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read rules file %q: %w", file, err)
		}

		var rules []classify.KeywordRule
		if err := yaml.Unmarshal(data, &rules); err != nil {
			return nil, fmt.Errorf("parse rules file %q: %w", file, err)
		}

		all = append(all, rules...)
	}

	return all, nil
}
