package taxconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// LoadDir reads YAML overlay files from dir and returns the configs they
// declare. Each file holds one TaxYearConfig. Files load in name order so a
// later file can supersede an earlier year deterministically.
func LoadDir(dir string) ([]*TaxYearConfig, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read tax config dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext := filepath.Ext(e.Name()); ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	configs := make([]*TaxYearConfig, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read tax config %s: %w", path, err)
		}
		var cfg TaxYearConfig
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse tax config %s: %w", path, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid tax config %s: %w", path, err)
		}
		configs = append(configs, &cfg)
	}
	return configs, nil
}
