package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type config struct {
	Patterns []string `yaml:"patterns"`
	// Qualified type names, as printed, to leave out
	Ignore []string `yaml:"ignore"`
	// Include test packages
	Tests bool `yaml:"tests"`
}

// loadConfig reads .env if present, then the YAML file at path if path is
// not empty. ACCESSAUDIT_PATTERNS (comma separated) and ACCESSAUDIT_TESTS
// override the file.
func loadConfig(path string) (*config, error) {
	_ = godotenv.Load()

	var cfg config
	if path != "" {
		file, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed reading config: %w", err)
		}
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return nil, fmt.Errorf("invalid config %v: %w", path, err)
		}
	}

	if patterns := os.Getenv("ACCESSAUDIT_PATTERNS"); patterns != "" {
		cfg.Patterns = nil
		for _, p := range strings.Split(patterns, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Patterns = append(cfg.Patterns, p)
			}
		}
	}
	if tests := os.Getenv("ACCESSAUDIT_TESTS"); tests != "" {
		cfg.Tests = tests == "1" || strings.EqualFold(tests, "true")
	}
	return &cfg, nil
}

func (c *config) ignored(key string) bool {
	for _, ignore := range c.Ignore {
		if ignore == key {
			return true
		}
	}
	return false
}
